package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateCustomerRequest body pour POST /api/customers.
type CreateCustomerRequest struct {
	Name       string `json:"name"`
	TaxID      string `json:"tax_id"` // Matricule fiscal, requis pour l'envoi TTN
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
}

// CustomerResponse client dans les réponses.
type CustomerResponse struct {
	ID         string `json:"id"`
	CompanyID  string `json:"company_id"`
	Name       string `json:"name"`
	TaxID      string `json:"tax_id"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
}

// CreateInvoiceRequest body pour POST /api/invoices.
// Les totaux ne sont pas acceptés en entrée: ils sont recalculés ligne à
// ligne côté serveur (arrondi à 3 décimales).
type CreateInvoiceRequest struct {
	CustomerID string               `json:"customer_id"`
	DocType    string               `json:"doc_type,omitempty"` // invoice (défaut), credit_note, quote
	Number     string               `json:"number"`
	Date       time.Time            `json:"date"`
	DueDate    *time.Time           `json:"due_date,omitempty"`
	Currency   string               `json:"currency,omitempty"` // TND par défaut
	StampDuty  decimal.Decimal      `json:"stamp_duty,omitempty"`
	Notes      string               `json:"notes,omitempty"`
	Items      []InvoiceItemRequest `json:"items"`
}

// InvoiceItemRequest ligne de facture.
type InvoiceItemRequest struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	VATRate     decimal.Decimal `json:"vat_rate"`
	Discount    decimal.Decimal `json:"discount,omitempty"` // Remise en pourcentage
}

// InvoiceResponse facture avec lignes pour GET /api/invoices/:id.
type InvoiceResponse struct {
	ID              string                `json:"id"`
	CompanyID       string                `json:"company_id"`
	CustomerID      string                `json:"customer_id"`
	DocType         string                `json:"doc_type"`
	Number          string                `json:"number"`
	Date            string                `json:"date"`
	DueDate         string                `json:"due_date,omitempty"`
	Currency        string                `json:"currency"`
	TotalHT         decimal.Decimal       `json:"total_ht"`
	TotalVAT        decimal.Decimal       `json:"total_vat"`
	StampDuty       decimal.Decimal       `json:"stamp_duty"`
	TotalTTC        decimal.Decimal       `json:"total_ttc"`
	Notes           string                `json:"notes,omitempty"`
	Validated       bool                  `json:"validated"`
	TTNStatus       string                `json:"ttn_status"`
	SignatureStatus string                `json:"signature_status"`
	TTNRef          string                `json:"ttn_ref,omitempty"`
	Items           []InvoiceItemResponse `json:"items"`
}

// InvoiceItemResponse ligne de facture dans la réponse.
type InvoiceItemResponse struct {
	ID          string          `json:"id"`
	Position    int             `json:"position"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	VATRate     decimal.Decimal `json:"vat_rate"`
	Discount    decimal.Decimal `json:"discount"`
	LineHT      decimal.Decimal `json:"line_ht"`
	LineVAT     decimal.Decimal `json:"line_vat"`
	LineTTC     decimal.Decimal `json:"line_ttc"`
}
