package signing

import (
	"context"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/repository"
)

// TxRunner exécute une fonction dans une transaction couvrant le XML signé,
// l'état de signature de la facture et le journal d'audit.
type TxRunner interface {
	RunSignature(ctx context.Context, fn func(
		invoiceRepo repository.InvoiceRepository,
		signatureRepo repository.SignatureRepository,
		eventRepo repository.EventRepository,
	) error) error
}
