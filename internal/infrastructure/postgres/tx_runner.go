package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	appsigning "github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/signing"
	appttn "github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/ttn"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/repository"
)

var (
	_ appttn.TxRunner     = (*TxRunner)(nil)
	_ appsigning.TxRunner = (*TxRunner)(nil)
)

// TxRunner exécute des callbacks dans une transaction PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construit le runner avec le pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunTTN démarre une transaction, exécute fn avec les repos liés à la tx
// puis Commit ou Rollback. Sert aux transitions d'état TTN qui doivent
// rester cohérentes avec la file et le journal.
func (r *TxRunner) RunTTN(ctx context.Context, fn func(
	invoiceRepo repository.InvoiceRepository,
	queueRepo repository.QueueRepository,
	eventRepo repository.EventRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	invoiceRepo := NewInvoiceRepository(tx)
	queueRepo := NewQueueRepository(tx)
	eventRepo := NewEventRepository(tx)

	if err := fn(invoiceRepo, queueRepo, eventRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunSignature démarre une transaction avec les repos du parcours de
// signature (XML signé + état de la facture + journal).
func (r *TxRunner) RunSignature(ctx context.Context, fn func(
	invoiceRepo repository.InvoiceRepository,
	signatureRepo repository.SignatureRepository,
	eventRepo repository.EventRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	invoiceRepo := NewInvoiceRepository(tx)
	signatureRepo := NewSignatureRepository(tx)
	eventRepo := NewEventRepository(tx)

	if err := fn(invoiceRepo, signatureRepo, eventRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
