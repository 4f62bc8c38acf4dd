package entity

import "time"

// États d'une session de signature DigiGo.
const (
	SessionPending   = "pending"
	SessionCompleted = "completed"
	SessionFailed    = "failed"
)

// SignSessionTTL est la durée de vie d'une session de signature DigiGo.
const SignSessionTTL = 10 * time.Minute

// SignSession suit un parcours de signature distante DigiGo. Le State (UUID)
// sert de paramètre OAuth `state` et corrèle le retour de redirection.
type SignSession struct {
	ID        string
	State     string // UUID opaque renvoyé par DigiGo dans la redirection
	InvoiceID string
	CompanyID string
	UserID    string
	Status    string // pending, completed, failed
	Error     string // Motif d'échec, vide sinon
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expired indique si la session a dépassé sa durée de vie.
func (s *SignSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
