package teif

import (
	"github.com/shopspring/decimal"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
	"github.com/zhanisana-byte/facturetn-crm-sub001/pkg/teif"
)

// ValidateForSubmission contrôle qu'une facture est complète pour le dépôt
// El Fatoora. Retourne la liste exhaustive des problèmes (nil si aucun):
// l'utilisateur corrige tout en un seul passage plutôt qu'erreur par erreur.
func ValidateForSubmission(
	invoice *entity.Invoice,
	items []*entity.InvoiceItem,
	company *entity.Company,
	customer *entity.Customer,
) domain.ValidationIssues {
	var issues domain.ValidationIssues

	add := func(code, field, message string) {
		issues = append(issues, domain.ValidationIssue{Code: code, Field: field, Message: message})
	}

	if invoice.DocType == entity.DocTypeQuote {
		add("doc_type", "doc_type", "Un devis ne peut pas être déposé à la TTN")
	}
	if invoice.Currency != "" && invoice.Currency != teif.CurrencyTND {
		add("currency", "currency", "La facture doit être libellée en TND")
	}
	if invoice.Number == "" {
		add("missing", "number", "Le numéro de facture est manquant")
	}
	if invoice.Date.IsZero() {
		add("missing", "date", "La date de facture est manquante")
	}

	if company == nil || company.TaxID == "" {
		add("missing", "company.tax_id", "Le matricule fiscal (MF) de la société est manquant")
	}
	if company == nil || company.Name == "" {
		add("missing", "company.name", "Le nom de la société est manquant")
	}
	if company == nil || company.Address == "" {
		add("missing", "company.address", "L'adresse de la société est manquante")
	}

	if customer == nil || customer.Name == "" {
		add("missing", "customer.name", "Le nom du client est manquant")
	}
	if customer == nil || customer.TaxID == "" {
		add("missing", "customer.tax_id", "Le matricule fiscal (MF) du client est manquant")
	}
	if customer == nil || customer.Address == "" {
		add("missing", "customer.address", "L'adresse du client est manquante")
	}

	if len(items) == 0 {
		add("missing", "items", "Au moins une ligne est obligatoire")
	}
	for _, item := range items {
		if item.Description == "" {
			add("missing", "items.description", "Description de ligne manquante")
		}
		if item.Quantity.LessThanOrEqual(decimal.Zero) {
			add("invalid", "items.qty", "Quantité de ligne invalide")
		}
		if item.UnitPrice.LessThan(decimal.Zero) {
			add("invalid", "items.price", "Prix unitaire de ligne négatif")
		}
	}

	return issues
}
