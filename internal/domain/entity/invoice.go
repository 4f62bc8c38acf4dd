package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Types de documents (facture ou devis; seules les factures partent à la TTN).
const (
	DocTypeInvoice    = "invoice"
	DocTypeCreditNote = "credit_note" // Facture d'avoir
	DocTypeQuote      = "quote"
)

// États d'envoi TTN d'une facture.
const (
	TTNStatusNotSent   = "not_sent"  // Jamais envoyée
	TTNStatusScheduled = "scheduled" // Envoi différé planifié (voir ttn_invoice_queue)
	TTNStatusSubmitted = "submitted" // Déposée via saveEfact, décision TTN en attente
	TTNStatusAccepted  = "accepted"  // Acceptée par la TTN (terminal)
	TTNStatusRejected  = "rejected"  // Rejetée par la TTN (terminal)
)

// États de signature électronique d'une facture.
const (
	SignStatusNone    = "none"    // Aucune signature demandée ni produite
	SignStatusPending = "pending" // Parcours de signature en cours
	SignStatusSigned  = "signed"  // ds:Signature injectée dans le XML
	SignStatusFailed  = "failed"  // Le parcours a échoué
)

// TTNStatusTerminal indique si un état d'envoi est définitif.
func TTNStatusTerminal(status string) bool {
	return status == TTNStatusAccepted || status == TTNStatusRejected
}

// Invoice représente l'en-tête d'une facture (ou d'un devis).
type Invoice struct {
	ID              string
	CompanyID       string
	CustomerID      string
	DocType         string // invoice, quote
	Number          string // Référence du document (ex: FAC-2026-0042)
	Date            time.Time
	DueDate         *time.Time
	Currency        string // TND exigé pour l'envoi TTN
	TotalHT         decimal.Decimal
	TotalVAT        decimal.Decimal
	StampDuty       decimal.Decimal // Droit de timbre fiscal (I-1601)
	TotalTTC        decimal.Decimal
	Notes           string
	Validated       bool   // Validation comptable, préalable à l'envoi
	TTNStatus       string // voir constantes TTNStatus*
	SignatureStatus string // voir constantes SignStatus*
	TTNSaveID       string // idSaveEfact retourné par saveEfact (avant traitement noyau)
	TTNRef          string // generatedRef: référence unique générée par la TTN
	TTNError        string // Dernier message d'erreur TTN (texte brut)
	SubmittedAt     *time.Time
	DecidedAt       *time.Time // Date d'acceptation ou de rejet
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
