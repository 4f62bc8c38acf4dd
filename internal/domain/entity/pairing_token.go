package entity

import "time"

// PairingTokenTTL est la durée de validité d'un jeton d'appairage agent.
const PairingTokenTTL = 15 * time.Minute

// PairingToken est un jeton à usage unique permettant à l'agent local
// (clé USB) de s'appairer avec un identifiant TTN. UsedAt non nil = consommé.
type PairingToken struct {
	ID           string
	Token        string // Secret opaque remis à l'utilisateur (affiché une seule fois)
	CredentialID string
	CompanyID    string
	CreatedBy    string // UserID de l'émetteur
	ExpiresAt    time.Time
	UsedAt       *time.Time
	CreatedAt    time.Time
}

// Expired indique si le jeton a dépassé sa durée de validité.
func (t *PairingToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
