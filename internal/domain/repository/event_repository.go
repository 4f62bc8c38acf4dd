package repository

import (
	"context"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
)

// EventRepository définit le port du journal d'audit TTN (ajout seul:
// aucune méthode Update ni Delete, par construction).
type EventRepository interface {
	Append(ctx context.Context, event *entity.Event) error
	ListByInvoice(ctx context.Context, invoiceID string) ([]*entity.Event, error)
}
