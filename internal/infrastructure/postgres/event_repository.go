package postgres

import (
	"context"
	"fmt"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/repository"
)

var _ repository.EventRepository = (*EventRepo)(nil)

// EventRepo implémentation de EventRepository. Le journal est en ajout seul:
// aucune requête UPDATE ni DELETE sur ttn_events.
type EventRepo struct {
	q Querier
}

func NewEventRepository(q Querier) *EventRepo {
	return &EventRepo{q: q}
}

func (r *EventRepo) Append(ctx context.Context, event *entity.Event) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO ttn_events (id, invoice_id, company_id, type, detail, actor, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())`,
		event.ID, nullIfEmpty(event.InvoiceID), event.CompanyID, event.Type, event.Detail, event.Actor,
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

func (r *EventRepo) ListByInvoice(ctx context.Context, invoiceID string) ([]*entity.Event, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, invoice_id, company_id, type, detail, actor, created_at
		FROM ttn_events
		WHERE invoice_id = $1
		ORDER BY created_at ASC, id ASC`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	var list []*entity.Event
	for rows.Next() {
		var e entity.Event
		if err := rows.Scan(&e.ID, &e.InvoiceID, &e.CompanyID, &e.Type, &e.Detail, &e.Actor, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}
