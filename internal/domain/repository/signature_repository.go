package repository

import (
	"context"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
)

// SignatureRepository définit le port de persistance des XML signés (1:1 facture).
type SignatureRepository interface {
	// Upsert remplace le XML signé de la facture s'il existe déjà
	// (une re-signature écrase la précédente).
	Upsert(ctx context.Context, sig *entity.InvoiceSignature) error
	GetByInvoiceID(ctx context.Context, invoiceID string) (*entity.InvoiceSignature, error)
}
