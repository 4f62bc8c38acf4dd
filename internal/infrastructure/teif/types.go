// Package teif implémente la génération du XML TEIF 1.8.8 pour la
// plateforme El Fatoora (Tunisie TradeNet).
package teif

import (
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
	domteif "github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/teif"
)

// Finalités de génération: l'aperçu tolère les champs manquants, le dépôt
// TTN exige un document complet.
const (
	PurposePreview = "preview"
	PurposeTTN     = "ttn"
)

// BuildContext contexte avec toutes les données nécessaires à la
// construction du document TEIF.
type BuildContext struct {
	Invoice  *entity.Invoice
	Company  *entity.Company  // Fournisseur (PartnerDetails I-62)
	Customer *entity.Customer // Client (PartnerDetails I-64)
	Items    []*entity.InvoiceItem
	Totals   domteif.Totals

	// Matricule matricule fiscal à présenter comme émetteur; si vide,
	// Company.TaxID est utilisé.
	Matricule string

	// Purpose preview ou ttn (contrôles stricts).
	Purpose string
}
