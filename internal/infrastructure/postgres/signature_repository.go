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

var _ repository.SignatureRepository = (*SignatureRepo)(nil)

// SignatureRepo implémentation de SignatureRepository.
type SignatureRepo struct {
	q Querier
}

func NewSignatureRepository(q Querier) *SignatureRepo {
	return &SignatureRepo{q: q}
}

// Upsert remplace le XML signé de la facture (une re-signature écrase la
// précédente, contrainte UNIQUE sur invoice_id).
func (r *SignatureRepo) Upsert(ctx context.Context, sig *entity.InvoiceSignature) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO invoice_signatures (id, invoice_id, provider, unsigned_xml, unsigned_hash, signed_xml, signed_hash, signed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (invoice_id) DO UPDATE
		SET provider = EXCLUDED.provider,
		    unsigned_xml = EXCLUDED.unsigned_xml,
		    unsigned_hash = EXCLUDED.unsigned_hash,
		    signed_xml = EXCLUDED.signed_xml,
		    signed_hash = EXCLUDED.signed_hash,
		    signed_at = EXCLUDED.signed_at`,
		sig.ID, sig.InvoiceID, sig.Provider, sig.UnsignedXML, sig.UnsignedHash, sig.SignedXML, sig.SignedHash, sig.SignedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert signature: %w", err)
	}
	return nil
}

func (r *SignatureRepo) GetByInvoiceID(ctx context.Context, invoiceID string) (*entity.InvoiceSignature, error) {
	var s entity.InvoiceSignature
	err := r.q.QueryRow(ctx, `
		SELECT id, invoice_id, provider, COALESCE(unsigned_xml, ''), COALESCE(unsigned_hash, ''), signed_xml, COALESCE(signed_hash, ''), signed_at, created_at
		FROM invoice_signatures WHERE invoice_id = $1`, invoiceID).
		Scan(&s.ID, &s.InvoiceID, &s.Provider, &s.UnsignedXML, &s.UnsignedHash, &s.SignedXML, &s.SignedHash, &s.SignedAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get signature: %w", err)
	}
	return &s, nil
}
