package ttn

import (
	"context"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/dto"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain"
	domteif "github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/teif"
	infrateif "github.com/zhanisana-byte/facturetn-crm-sub001/internal/infrastructure/teif"
)

// BuildDocument génère le XML TEIF en mode aperçu, sans exiger un dossier
// complet: les champs manquants reçoivent des valeurs neutres et les
// problèmes qui bloqueraient un dépôt réel sont listés à part.
func (uc *TTNUseCase) BuildDocument(ctx context.Context, companyID, invoiceID string) (*dto.DocumentPreviewResponse, error) {
	invoice, err := uc.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	company, err := uc.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	customer, err := uc.customerRepo.GetByID(ctx, invoice.CustomerID)
	if err != nil {
		return nil, err
	}
	items, err := uc.invoiceRepo.GetItemsByInvoiceID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	matricule := company.TaxID
	if credential, err := uc.credentialRepo.GetActive(ctx, companyID, uc.cfg.Environment); err == nil {
		matricule = credential.EffectiveMatricule(company.TaxID)
	}

	xmlBytes, err := uc.xmlBuilder.Build(&infrateif.BuildContext{
		Invoice:   invoice,
		Company:   company,
		Customer:  customer,
		Items:     items,
		Totals:    domteif.ComputeTotals(items, invoice.StampDuty),
		Matricule: matricule,
		Purpose:   infrateif.PurposePreview,
	})
	if err != nil {
		return nil, err
	}

	issues := domteif.ValidateForSubmission(invoice, items, company, customer)
	return &dto.DocumentPreviewResponse{
		InvoiceID: invoiceID,
		XML:       string(xmlBytes),
		Issues:    issues,
	}, nil
}

func totalsOf(sctx *sendContext) domteif.Totals {
	return domteif.ComputeTotals(sctx.items, sctx.invoice.StampDuty)
}
