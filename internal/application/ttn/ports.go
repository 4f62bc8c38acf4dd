package ttn

import (
	"context"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/repository"
)

// TxRunner exécute une fonction dans une transaction couvrant l'état TTN de
// la facture, la file d'envois différés et le journal d'audit. Un envoi ne
// doit jamais laisser la file et l'état de la facture en désaccord.
type TxRunner interface {
	RunTTN(ctx context.Context, fn func(
		invoiceRepo repository.InvoiceRepository,
		queueRepo repository.QueueRepository,
		eventRepo repository.EventRepository,
	) error) error
}
