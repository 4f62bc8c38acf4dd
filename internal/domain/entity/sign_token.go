package entity

import "time"

// SignTokenTTL est la durée de validité d'un jeton de signature agent.
const SignTokenTTL = 5 * time.Minute

// SignToken est un jeton à usage unique autorisant l'agent appairé à
// récupérer le XML d'une facture puis à déposer le XML signé.
type SignToken struct {
	ID           string
	Token        string
	InvoiceID    string
	CredentialID string
	CompanyID    string
	CreatedBy    string
	ExpiresAt    time.Time
	UsedAt       *time.Time // Consommé au dépôt du XML signé
	CreatedAt    time.Time
}

// Expired indique si le jeton a dépassé sa durée de validité.
func (t *SignToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
