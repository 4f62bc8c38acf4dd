package entity

import "time"

// Types d'événements journalisés dans ttn_events (journal en ajout seul).
const (
	EventTTNScheduled       = "ttn_scheduled"
	EventTTNScheduleCancel  = "ttn_schedule_cancelled"
	EventTTNPending         = "ttn_submit_pending"
	EventTTNSubmitted       = "ttn_submitted"
	EventTTNSubmitFailed    = "ttn_submit_failed"
	EventTTNUpdateBlocked   = "ttn_update_blocked"
	EventTTNAccepted        = "ttn_accepted"
	EventTTNRejected        = "ttn_rejected"
	EventTTNConsulted       = "ttn_consulted"
	EventSignatureStarted   = "signature_started"
	EventSignatureCompleted = "signature_completed"
	EventSignatureFailed    = "signature_failed"
	EventAgentPaired        = "agent_paired"
	EventSignTokenIssued    = "sign_token_issued"
)

// Acteurs non humains.
const (
	ActorSystem    = "system"
	ActorScheduler = "scheduler"
	ActorAgent     = "agent"
)

// Event est une entrée du journal d'audit TTN. Jamais modifiée ni supprimée.
type Event struct {
	ID        string
	InvoiceID string
	CompanyID string
	Type      string // voir constantes Event*
	Detail    []byte // Charge utile JSON (référence TTN, message d'erreur, etat brut...)
	Actor     string // UserID, ou system/scheduler/agent
	CreatedAt time.Time
}
