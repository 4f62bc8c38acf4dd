package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/repository"
)

var _ repository.SignSessionRepository = (*SignSessionRepo)(nil)

// SignSessionRepo implémentation de SignSessionRepository.
type SignSessionRepo struct {
	q Querier
}

func NewSignSessionRepository(q Querier) *SignSessionRepo {
	return &SignSessionRepo{q: q}
}

func (r *SignSessionRepo) Create(ctx context.Context, session *entity.SignSession) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO sign_sessions (id, state, invoice_id, company_id, user_id, status, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())`,
		session.ID, session.State, session.InvoiceID, session.CompanyID, session.UserID,
		session.Status, session.ExpiresAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("state de session déjà utilisé: %w", domain.ErrConflict)
		}
		return fmt.Errorf("insert sign session: %w", err)
	}
	return nil
}

func (r *SignSessionRepo) GetByState(ctx context.Context, state string) (*entity.SignSession, error) {
	var s entity.SignSession
	err := r.q.QueryRow(ctx, `
		SELECT id, state, invoice_id, company_id, user_id, status, COALESCE(error, ''), expires_at, created_at, updated_at
		FROM sign_sessions WHERE state = $1`, state).
		Scan(&s.ID, &s.State, &s.InvoiceID, &s.CompanyID, &s.UserID, &s.Status, &s.Error,
			&s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get sign session: %w", err)
	}
	return &s, nil
}

// Complete passe la session de pending à completed ou failed. Le filtre sur
// status = 'pending' garantit qu'un seul retour de redirection gagne.
func (r *SignSessionRepo) Complete(ctx context.Context, state, status, errMsg string) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE sign_sessions
		SET status = $2, error = $3, updated_at = now()
		WHERE state = $1 AND status = 'pending'`,
		state, status, nullIfEmpty(errMsg),
	)
	if err != nil {
		return false, fmt.Errorf("complete sign session: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
