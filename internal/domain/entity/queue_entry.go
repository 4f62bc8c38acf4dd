package entity

import "time"

// DefaultScheduleDelay est appliqué quand aucune date d'envoi n'est fournie.
const DefaultScheduleDelay = 10 * time.Minute

// QueueEntry représente une intention d'envoi différé dans ttn_invoice_queue.
// Une seule entrée par facture (contrainte UNIQUE sur invoice_id, upsert).
type QueueEntry struct {
	ID          string
	InvoiceID   string
	CompanyID   string
	ScheduledAt time.Time // Date à partir de laquelle l'envoi peut partir
	Attempts    int
	LastError   string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
