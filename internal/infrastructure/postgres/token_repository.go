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

var (
	_ repository.PairingTokenRepository = (*PairingTokenRepo)(nil)
	_ repository.SignTokenRepository    = (*SignTokenRepo)(nil)
)

// PairingTokenRepo implémentation de PairingTokenRepository.
type PairingTokenRepo struct {
	q Querier
}

func NewPairingTokenRepository(q Querier) *PairingTokenRepo {
	return &PairingTokenRepo{q: q}
}

func (r *PairingTokenRepo) Create(ctx context.Context, token *entity.PairingToken) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO agent_pairing_tokens (id, token, credential_id, company_id, created_by, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())`,
		token.ID, token.Token, token.CredentialID, token.CompanyID, token.CreatedBy, token.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert pairing token: %w", err)
	}
	return nil
}

func (r *PairingTokenRepo) GetByToken(ctx context.Context, token string) (*entity.PairingToken, error) {
	var t entity.PairingToken
	err := r.q.QueryRow(ctx, `
		SELECT id, token, credential_id, company_id, created_by, expires_at, used_at, created_at
		FROM agent_pairing_tokens WHERE token = $1`, token).
		Scan(&t.ID, &t.Token, &t.CredentialID, &t.CompanyID, &t.CreatedBy, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get pairing token: %w", err)
	}
	return &t, nil
}

// Redeem consomme le jeton. Le filtre used_at IS NULL fait perdre la course
// au second agent qui présenterait le même jeton.
func (r *PairingTokenRepo) Redeem(ctx context.Context, token string) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE agent_pairing_tokens SET used_at = now()
		WHERE token = $1 AND used_at IS NULL`, token)
	if err != nil {
		return false, fmt.Errorf("redeem pairing token: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// SignTokenRepo implémentation de SignTokenRepository.
type SignTokenRepo struct {
	q Querier
}

func NewSignTokenRepository(q Querier) *SignTokenRepo {
	return &SignTokenRepo{q: q}
}

func (r *SignTokenRepo) Create(ctx context.Context, token *entity.SignToken) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO agent_sign_tokens (id, token, invoice_id, credential_id, company_id, created_by, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())`,
		token.ID, token.Token, token.InvoiceID, token.CredentialID, token.CompanyID, token.CreatedBy, token.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert sign token: %w", err)
	}
	return nil
}

func (r *SignTokenRepo) GetByToken(ctx context.Context, token string) (*entity.SignToken, error) {
	var t entity.SignToken
	err := r.q.QueryRow(ctx, `
		SELECT id, token, invoice_id, credential_id, company_id, created_by, expires_at, used_at, created_at
		FROM agent_sign_tokens WHERE token = $1`, token).
		Scan(&t.ID, &t.Token, &t.InvoiceID, &t.CredentialID, &t.CompanyID, &t.CreatedBy,
			&t.ExpiresAt, &t.UsedAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get sign token: %w", err)
	}
	return &t, nil
}

// Redeem consomme le jeton au dépôt du XML signé (même garantie que
// PairingTokenRepo.Redeem).
func (r *SignTokenRepo) Redeem(ctx context.Context, token string) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE agent_sign_tokens SET used_at = now()
		WHERE token = $1 AND used_at IS NULL`, token)
	if err != nil {
		return false, fmt.Errorf("redeem sign token: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
