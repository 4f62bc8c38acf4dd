package repository

import (
	"context"
	"time"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
)

// QueueRepository définit le port de la file d'envois différés (ttn_invoice_queue).
type QueueRepository interface {
	// Upsert crée ou re-planifie l'intention d'envoi de la facture
	// (INSERT ... ON CONFLICT (invoice_id) DO UPDATE SET scheduled_at = ...).
	Upsert(ctx context.Context, entry *entity.QueueEntry) error

	GetByInvoiceID(ctx context.Context, invoiceID string) (*entity.QueueEntry, error)

	// Delete retire l'intention (annulation ou envoi effectué).
	Delete(ctx context.Context, invoiceID string) error

	// ListDue retourne les entrées dont scheduled_at <= now, les plus
	// anciennes d'abord, bornées par limit.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*entity.QueueEntry, error)

	// RecordAttempt incrémente le compteur d'essais et mémorise l'erreur.
	RecordAttempt(ctx context.Context, id string, errMsg string) error
}
