package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/dto"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
	domteif "github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/teif"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/repository"
	pkgteif "github.com/zhanisana-byte/facturetn-crm-sub001/pkg/teif"
)

// InvoiceUseCase gère le cycle de vie des factures hors envoi TTN:
// création, consultation, modification et validation comptable.
type InvoiceUseCase struct {
	invoiceRepo  repository.InvoiceRepository
	customerRepo repository.CustomerRepository
	companyRepo  repository.CompanyRepository
}

// NewInvoiceUseCase construit le cas d'usage.
func NewInvoiceUseCase(
	invoiceRepo repository.InvoiceRepository,
	customerRepo repository.CustomerRepository,
	companyRepo repository.CompanyRepository,
) *InvoiceUseCase {
	return &InvoiceUseCase{
		invoiceRepo:  invoiceRepo,
		customerRepo: customerRepo,
		companyRepo:  companyRepo,
	}
}

// CreateInvoice crée la facture et ses lignes. Les totaux sont recalculés
// côté serveur, les montants fournis par le client sont ignorés.
func (uc *InvoiceUseCase) CreateInvoice(ctx context.Context, companyID, userID string, in dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if in.CustomerID == "" || in.Number == "" || len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	docType := in.DocType
	if docType == "" {
		docType = entity.DocTypeInvoice
	}
	switch docType {
	case entity.DocTypeInvoice, entity.DocTypeCreditNote, entity.DocTypeQuote:
	default:
		return nil, domain.ErrInvalidInput
	}
	currency := in.Currency
	if currency == "" {
		currency = pkgteif.CurrencyTND
	}
	if ok, err := uc.companyRepo.HasCapability(ctx, companyID, entity.CapabilityInvoicing); err != nil {
		return nil, err
	} else if !ok {
		return nil, domain.ErrForbidden
	}

	customer, err := uc.customerRepo.GetByID(ctx, in.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}

	date := in.Date
	if date.IsZero() {
		date = time.Now()
	}

	invoiceID := uuid.New().String()
	items := make([]*entity.InvoiceItem, 0, len(in.Items))
	for i, line := range in.Items {
		if line.Description == "" || !line.Quantity.GreaterThan(decimal.Zero) || line.UnitPrice.LessThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
		item := &entity.InvoiceItem{
			ID:          uuid.New().String(),
			InvoiceID:   invoiceID,
			Position:    i + 1,
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			VATRate:     line.VATRate,
			Discount:    line.Discount,
		}
		item.LineHT, item.LineVAT, item.LineTTC = domteif.LineTotals(item)
		items = append(items, item)
	}

	totals := domteif.ComputeTotals(items, in.StampDuty)
	now := time.Now()
	invoice := &entity.Invoice{
		ID:              invoiceID,
		CompanyID:       companyID,
		CustomerID:      in.CustomerID,
		DocType:         docType,
		Number:          in.Number,
		Date:            date,
		DueDate:         in.DueDate,
		Currency:        currency,
		TotalHT:         totals.HT,
		TotalVAT:        totals.VAT,
		StampDuty:       totals.StampDuty,
		TotalTTC:        totals.TTC,
		Notes:           in.Notes,
		TTNStatus:       entity.TTNStatusNotSent,
		SignatureStatus: entity.SignStatusNone,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := uc.invoiceRepo.Create(ctx, invoice, items); err != nil {
		return nil, err
	}
	return toInvoiceResponse(invoice, items), nil
}

// GetInvoice retourne la facture et ses lignes.
func (uc *InvoiceUseCase) GetInvoice(ctx context.Context, companyID, invoiceID string) (*dto.InvoiceResponse, error) {
	invoice, items, err := uc.fetchOwned(ctx, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(invoice, items), nil
}

// ListInvoices liste les factures de l'entreprise, paginées.
func (uc *InvoiceUseCase) ListInvoices(ctx context.Context, companyID string, page dto.PageRequest) ([]*dto.InvoiceResponse, error) {
	page.DefaultPage()
	invoices, err := uc.invoiceRepo.ListByCompany(ctx, companyID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, toInvoiceResponse(inv, nil))
	}
	return out, nil
}

// UpdateInvoice réécrit le contenu métier d'une facture encore modifiable.
// Une facture entrée dans le pipeline TTN (submitted ou terminal) est
// verrouillée.
func (uc *InvoiceUseCase) UpdateInvoice(ctx context.Context, companyID, invoiceID string, in dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	invoice, _, err := uc.fetchOwned(ctx, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.TTNStatus == entity.TTNStatusSubmitted || entity.TTNStatusTerminal(invoice.TTNStatus) {
		return nil, domain.ErrInvoiceLocked
	}
	if in.Number != "" {
		invoice.Number = in.Number
	}
	if !in.Date.IsZero() {
		invoice.Date = in.Date
	}
	if in.DueDate != nil {
		invoice.DueDate = in.DueDate
	}
	if in.Currency != "" {
		invoice.Currency = in.Currency
	}
	invoice.Notes = in.Notes
	invoice.UpdatedAt = time.Now()

	// Toute modification invalide la validation comptable: elle devra être
	// reposée avant un nouvel envoi.
	invoice.Validated = false
	if err := uc.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, err
	}
	if err := uc.invoiceRepo.SetValidated(ctx, invoice.ID, false); err != nil {
		return nil, err
	}
	items, err := uc.invoiceRepo.GetItemsByInvoiceID(ctx, invoice.ID)
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(invoice, items), nil
}

// ValidateInvoice pose le drapeau de validation comptable, préalable à
// l'envoi TTN. Réservé aux rôles admin et comptable (contrôlé au handler).
func (uc *InvoiceUseCase) ValidateInvoice(ctx context.Context, companyID, invoiceID string) error {
	invoice, _, err := uc.fetchOwned(ctx, companyID, invoiceID)
	if err != nil {
		return err
	}
	if invoice.TTNStatus == entity.TTNStatusSubmitted || entity.TTNStatusTerminal(invoice.TTNStatus) {
		return domain.ErrInvoiceLocked
	}
	return uc.invoiceRepo.SetValidated(ctx, invoiceID, true)
}

func (uc *InvoiceUseCase) fetchOwned(ctx context.Context, companyID, invoiceID string) (*entity.Invoice, []*entity.InvoiceItem, error) {
	invoice, err := uc.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, nil, err
	}
	if invoice.CompanyID != companyID {
		return nil, nil, domain.ErrForbidden
	}
	items, err := uc.invoiceRepo.GetItemsByInvoiceID(ctx, invoiceID)
	if err != nil {
		return nil, nil, err
	}
	return invoice, items, nil
}

func toInvoiceResponse(inv *entity.Invoice, items []*entity.InvoiceItem) *dto.InvoiceResponse {
	resp := &dto.InvoiceResponse{
		ID:              inv.ID,
		CompanyID:       inv.CompanyID,
		CustomerID:      inv.CustomerID,
		DocType:         inv.DocType,
		Number:          inv.Number,
		Date:            inv.Date.Format("2006-01-02"),
		Currency:        inv.Currency,
		TotalHT:         inv.TotalHT,
		TotalVAT:        inv.TotalVAT,
		StampDuty:       inv.StampDuty,
		TotalTTC:        inv.TotalTTC,
		Notes:           inv.Notes,
		Validated:       inv.Validated,
		TTNStatus:       inv.TTNStatus,
		SignatureStatus: inv.SignatureStatus,
		TTNRef:          inv.TTNRef,
	}
	if inv.DueDate != nil {
		resp.DueDate = inv.DueDate.Format("2006-01-02")
	}
	for _, item := range items {
		resp.Items = append(resp.Items, dto.InvoiceItemResponse{
			ID:          item.ID,
			Position:    item.Position,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			VATRate:     item.VATRate,
			Discount:    item.Discount,
			LineHT:      item.LineHT,
			LineVAT:     item.LineVAT,
			LineTTC:     item.LineTTC,
		})
	}
	return resp
}
