package dto

import (
	"time"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain"
)

// SendInvoiceResponse issue d'un dépôt saveEfact.
type SendInvoiceResponse struct {
	InvoiceID string `json:"invoice_id"`
	TTNStatus string `json:"ttn_status"`
	TTNSaveID string `json:"ttn_save_id,omitempty"`
	Trimmed   bool   `json:"trimmed,omitempty"` // Sections facultatives retirées pour tenir sous la taille maximale
}

// ScheduleInvoiceRequest body pour POST /api/invoices/:id/ttn/schedule.
// ScheduledAt vide = maintenant + délai par défaut.
type ScheduleInvoiceRequest struct {
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// ScheduleInvoiceResponse intention d'envoi différé.
type ScheduleInvoiceResponse struct {
	InvoiceID   string    `json:"invoice_id"`
	TTNStatus   string    `json:"ttn_status"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

// TTNStatusResponse réponse légère pour le polling
// GET /api/invoices/:id/ttn/status.
type TTNStatusResponse struct {
	InvoiceID       string     `json:"invoice_id"`
	TTNStatus       string     `json:"ttn_status"`
	SignatureStatus string     `json:"signature_status"`
	TTNSaveID       string     `json:"ttn_save_id,omitempty"`
	TTNRef          string     `json:"ttn_ref,omitempty"`
	TTNError        string     `json:"ttn_error,omitempty"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	DecidedAt       *time.Time `json:"decided_at,omitempty"`
}

// ConsultResponse issue d'une consultation consultEfact.
type ConsultResponse struct {
	InvoiceID string `json:"invoice_id"`
	TTNStatus string `json:"ttn_status"`
	Etat      string `json:"etat,omitempty"` // Etat brut renvoyé par la TTN
	TTNRef    string `json:"ttn_ref,omitempty"`
	Message   string `json:"message,omitempty"`
	Changed   bool   `json:"changed"` // L'état local a-t-il évolué suite à la consultation
}

// DocumentPreviewResponse XML TEIF pour GET /api/invoices/:id/ttn/document.
type DocumentPreviewResponse struct {
	InvoiceID string                   `json:"invoice_id"`
	XML       string                   `json:"xml"`
	Issues    []domain.ValidationIssue `json:"issues,omitempty"` // Problèmes bloquants pour un envoi réel
}

// EventResponse entrée du journal d'audit TTN.
type EventResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Detail    string    `json:"detail,omitempty"` // JSON brut
	Actor     string    `json:"actor"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidationErrorResponse corps 422 listant tous les problèmes bloquants.
type ValidationErrorResponse struct {
	Code   string                   `json:"code"`
	Issues []domain.ValidationIssue `json:"issues"`
}
