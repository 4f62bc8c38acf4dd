package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implémentation de InvoiceRepository (utilisable avec pool ou tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construit l'adaptateur. Passer un pool ou une tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

const invoiceColumns = `id, company_id, customer_id, doc_type, number, date, due_date, currency,
	       total_ht, total_vat, stamp_duty, total_ttc, notes, validated,
	       ttn_status, signature_status,
	       COALESCE(ttn_save_id, ''), COALESCE(ttn_ref, ''), COALESCE(ttn_error, ''),
	       submitted_at, decided_at, created_at, updated_at`

// Create persiste l'en-tête et les lignes de la facture.
func (r *InvoiceRepo) Create(ctx context.Context, invoice *entity.Invoice, items []*entity.InvoiceItem) error {
	if invoice.ID == "" {
		invoice.ID = uuid.New().String()
	}
	now := time.Now()
	if invoice.CreatedAt.IsZero() {
		invoice.CreatedAt = now
	}
	invoice.UpdatedAt = now
	if invoice.TTNStatus == "" {
		invoice.TTNStatus = entity.TTNStatusNotSent
	}
	if invoice.SignatureStatus == "" {
		invoice.SignatureStatus = entity.SignStatusNone
	}

	query := `
		INSERT INTO invoices (id, company_id, customer_id, doc_type, number, date, due_date, currency,
		                      total_ht, total_vat, stamp_duty, total_ttc, notes, validated,
		                      ttn_status, signature_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.q.Exec(ctx, query,
		invoice.ID, invoice.CompanyID, invoice.CustomerID, invoice.DocType, invoice.Number,
		invoice.Date, invoice.DueDate, invoice.Currency,
		invoice.TotalHT, invoice.TotalVAT, invoice.StampDuty, invoice.TotalTTC,
		nullIfEmpty(invoice.Notes), invoice.Validated,
		invoice.TTNStatus, invoice.SignatureStatus,
		invoice.CreatedAt, invoice.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("numéro de facture déjà utilisé: %w", domain.ErrConflict)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}

	for i, item := range items {
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		item.InvoiceID = invoice.ID
		if item.Position == 0 {
			item.Position = i + 1
		}
		_, err := r.q.Exec(ctx, `
			INSERT INTO invoice_items (id, invoice_id, position, description, quantity, unit_price, vat_rate, discount, line_ht, line_vat, line_ttc)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			item.ID, item.InvoiceID, item.Position, item.Description,
			item.Quantity, item.UnitPrice, item.VATRate, item.Discount,
			item.LineHT, item.LineVAT, item.LineTTC,
		)
		if err != nil {
			return fmt.Errorf("insert invoice item: %w", err)
		}
	}
	return nil
}

// GetByID retourne une facture complète.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	row := r.q.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	return scanInvoice(row)
}

// GetItemsByInvoiceID retourne les lignes de la facture dans l'ordre d'affichage.
func (r *InvoiceRepo) GetItemsByInvoiceID(ctx context.Context, invoiceID string) ([]*entity.InvoiceItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, invoice_id, position, description, quantity, unit_price, vat_rate, discount, line_ht, line_vat, line_ttc
		FROM invoice_items WHERE invoice_id = $1 ORDER BY position`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}
	defer rows.Close()
	var list []*entity.InvoiceItem
	for rows.Next() {
		var it entity.InvoiceItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.Position, &it.Description,
			&it.Quantity, &it.UnitPrice, &it.VATRate, &it.Discount,
			&it.LineHT, &it.LineVAT, &it.LineTTC); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		list = append(list, &it)
	}
	return list, rows.Err()
}

// ListByCompany liste les factures d'une entreprise, les plus récentes d'abord.
func (r *InvoiceRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Invoice, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.q.Query(ctx, `SELECT `+invoiceColumns+`
		FROM invoices WHERE company_id = $1
		ORDER BY date DESC, created_at DESC LIMIT $2 OFFSET $3`, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	var list []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

// Update réécrit les champs métier de la facture (hors état TTN).
func (r *InvoiceRepo) Update(ctx context.Context, invoice *entity.Invoice) error {
	invoice.UpdatedAt = time.Now()
	tag, err := r.q.Exec(ctx, `
		UPDATE invoices
		SET customer_id = $2, doc_type = $3, number = $4, date = $5, due_date = $6,
		    currency = $7, total_ht = $8, total_vat = $9, stamp_duty = $10, total_ttc = $11,
		    notes = $12, updated_at = $13
		WHERE id = $1`,
		invoice.ID, invoice.CustomerID, invoice.DocType, invoice.Number, invoice.Date, invoice.DueDate,
		invoice.Currency, invoice.TotalHT, invoice.TotalVAT, invoice.StampDuty, invoice.TotalTTC,
		nullIfEmpty(invoice.Notes), invoice.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetValidated pose le drapeau de validation comptable.
func (r *InvoiceRepo) SetValidated(ctx context.Context, id string, validated bool) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE invoices SET validated = $2, updated_at = now() WHERE id = $1`, id, validated)
	if err != nil {
		return fmt.Errorf("set validated: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateTTNStatusIf transition d'état atomique (verrou d'envoi).
func (r *InvoiceRepo) UpdateTTNStatusIf(ctx context.Context, id string, next string, allowedFrom []string) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE invoices SET ttn_status = $2, updated_at = now()
		WHERE id = $1 AND ttn_status = ANY($3)`,
		id, next, allowedFrom)
	if err != nil {
		return false, fmt.Errorf("transition ttn_status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// SetTTNResult enregistre l'issue d'un dépôt ou d'une consultation.
func (r *InvoiceRepo) SetTTNResult(ctx context.Context, invoice *entity.Invoice) error {
	_, err := r.q.Exec(ctx, `
		UPDATE invoices
		SET ttn_status   = $2,
		    ttn_save_id  = COALESCE($3, ttn_save_id),
		    ttn_ref      = COALESCE($4, ttn_ref),
		    ttn_error    = $5,
		    submitted_at = COALESCE($6, submitted_at),
		    decided_at   = COALESCE($7, decided_at),
		    updated_at   = now()
		WHERE id = $1`,
		invoice.ID, invoice.TTNStatus,
		nullIfEmpty(invoice.TTNSaveID), nullIfEmpty(invoice.TTNRef),
		nullIfEmpty(invoice.TTNError),
		invoice.SubmittedAt, invoice.DecidedAt,
	)
	if err != nil {
		return fmt.Errorf("set ttn result: %w", err)
	}
	return nil
}

// SetSignatureStatus met à jour l'état de signature.
func (r *InvoiceRepo) SetSignatureStatus(ctx context.Context, id string, status string) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE invoices SET signature_status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("set signature status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetTTNStatus retourne seulement les champs d'état TTN (polling léger).
func (r *InvoiceRepo) GetTTNStatus(ctx context.Context, id string) (*entity.Invoice, error) {
	const query = `
		SELECT id, company_id, ttn_status, signature_status,
		       COALESCE(ttn_save_id, ''), COALESCE(ttn_ref, ''), COALESCE(ttn_error, ''),
		       submitted_at, decided_at
		FROM invoices WHERE id = $1`
	var inv entity.Invoice
	err := r.q.QueryRow(ctx, query, id).Scan(
		&inv.ID, &inv.CompanyID, &inv.TTNStatus, &inv.SignatureStatus,
		&inv.TTNSaveID, &inv.TTNRef, &inv.TTNError,
		&inv.SubmittedAt, &inv.DecidedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get ttn status: %w", err)
	}
	return &inv, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*entity.Invoice, error) {
	var inv entity.Invoice
	var notes *string
	err := row.Scan(
		&inv.ID, &inv.CompanyID, &inv.CustomerID, &inv.DocType, &inv.Number,
		&inv.Date, &inv.DueDate, &inv.Currency,
		&inv.TotalHT, &inv.TotalVAT, &inv.StampDuty, &inv.TotalTTC,
		&notes, &inv.Validated,
		&inv.TTNStatus, &inv.SignatureStatus,
		&inv.TTNSaveID, &inv.TTNRef, &inv.TTNError,
		&inv.SubmittedAt, &inv.DecidedAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan invoice: %w", err)
	}
	inv.Notes = deref(notes)
	return &inv, nil
}
