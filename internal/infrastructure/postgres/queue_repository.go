package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/repository"
)

var _ repository.QueueRepository = (*QueueRepo)(nil)

// QueueRepo implémentation de QueueRepository (file ttn_invoice_queue).
type QueueRepo struct {
	q Querier
}

func NewQueueRepository(q Querier) *QueueRepo {
	return &QueueRepo{q: q}
}

const queueColumns = `id, invoice_id, company_id, scheduled_at, attempts, COALESCE(last_error, ''), created_by, created_at, updated_at`

// Upsert crée ou re-planifie l'intention d'envoi. Re-planifier remet le
// compteur d'essais à zéro: c'est une nouvelle intention.
func (r *QueueRepo) Upsert(ctx context.Context, entry *entity.QueueEntry) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO ttn_invoice_queue (id, invoice_id, company_id, scheduled_at, attempts, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, $5, now(), now())
		ON CONFLICT (invoice_id) DO UPDATE
		SET scheduled_at = EXCLUDED.scheduled_at,
		    attempts = 0,
		    last_error = NULL,
		    updated_at = now()`,
		entry.ID, entry.InvoiceID, entry.CompanyID, entry.ScheduledAt, entry.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("upsert queue entry: %w", err)
	}
	return nil
}

func (r *QueueRepo) GetByInvoiceID(ctx context.Context, invoiceID string) (*entity.QueueEntry, error) {
	row := r.q.QueryRow(ctx, `SELECT `+queueColumns+` FROM ttn_invoice_queue WHERE invoice_id = $1`, invoiceID)
	return scanQueueEntry(row)
}

func (r *QueueRepo) Delete(ctx context.Context, invoiceID string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM ttn_invoice_queue WHERE invoice_id = $1`, invoiceID)
	if err != nil {
		return fmt.Errorf("delete queue entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListDue retourne les entrées échues, les plus anciennes d'abord.
func (r *QueueRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]*entity.QueueEntry, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+queueColumns+`
		FROM ttn_invoice_queue
		WHERE scheduled_at <= $1
		ORDER BY scheduled_at ASC
		LIMIT $2`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list due queue entries: %w", err)
	}
	defer rows.Close()
	var list []*entity.QueueEntry
	for rows.Next() {
		entry, err := scanQueueEntry(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, entry)
	}
	return list, rows.Err()
}

// RecordAttempt incrémente le compteur d'essais et mémorise la dernière erreur.
func (r *QueueRepo) RecordAttempt(ctx context.Context, id string, errMsg string) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE ttn_invoice_queue
		SET attempts = attempts + 1, last_error = $2, updated_at = now()
		WHERE id = $1`, id, nullIfEmpty(errMsg))
	if err != nil {
		return fmt.Errorf("record queue attempt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanQueueEntry(row rowScanner) (*entity.QueueEntry, error) {
	var e entity.QueueEntry
	err := row.Scan(&e.ID, &e.InvoiceID, &e.CompanyID, &e.ScheduledAt, &e.Attempts, &e.LastError,
		&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan queue entry: %w", err)
	}
	return &e, nil
}
