// Package teif contient les catalogues de codes du format Tunisian Electronic
// Invoice Format (TEIF) v1.8.8, norme d'échange de la plateforme El Fatoora
// opérée par Tunisie TradeNet (TTN).
package teif

// Racine du document.
const (
	Version          = "1.8.8"
	ControlingAgency = "TTN"
)

// =============================================================================
// Bgm - Types de document (DocumentType @code)
// =============================================================================

const (
	DocTypeFacture = "I-11" // Facture
	DocTypeAvoir   = "I-12" // Facture d'avoir
)

// DocTypeLabels libellés officiels des types de document.
var DocTypeLabels = map[string]string{
	DocTypeFacture: "Facture",
	DocTypeAvoir:   "Facture d'avoir",
}

// =============================================================================
// Dtm - Fonctions de date (DateText @functionCode), format ddMMyy
// =============================================================================

const (
	DateIssue = "I-31" // Date d'émission de la facture
	DateDue   = "I-32" // Date limite de paiement
)

// DateFormat format attendu par la TTN pour les DateText.
const DateFormat = "ddMMyy"

// =============================================================================
// PartnerSection - Fonctions des intervenants (PartnerDetails @functionCode)
// =============================================================================

const (
	PartnerSupplier = "I-62" // Fournisseur (émetteur de la facture)
	PartnerCustomer = "I-64" // Client (destinataire)
)

// PartnerIDTypeMF identifiant de type matricule fiscal (PartnerIdentifier @type).
const PartnerIDTypeMF = "I-01"

// =============================================================================
// Moa - Types de montant (Moa @amountTypeCode)
// =============================================================================

const (
	MoaLineUnitPrice = "I-183" // Prix unitaire HT de la ligne
	MoaLineHT        = "I-171" // Montant HT de la ligne (après remise)
	MoaInvoiceHT     = "I-176" // Total HT de la facture
	MoaTaxBase       = "I-177" // Base imposable par taux de TVA
	MoaTaxAmount     = "I-178" // Montant de taxe (par taux, ou droit de timbre)
	MoaTotalTax      = "I-181" // Total des taxes de la facture
	MoaTotalBase     = "I-182" // Total base imposable de la facture
	MoaInvoiceTTC    = "I-180" // Total TTC de la facture
)

// CurrencyCodeList référentiel des devises dans les attributs Moa.
const CurrencyCodeList = "ISO_4217"

// CurrencyTND seule devise admise pour le dépôt El Fatoora.
const CurrencyTND = "TND"

// =============================================================================
// InvoiceTax - Types de taxe (TaxTypeName @code)
// =============================================================================

const (
	TaxTVA        = "I-1602" // Taxe sur la valeur ajoutée
	TaxDroitTimbre = "I-1601" // Droit de timbre fiscal
)

// TaxLabels libellés des taxes dans TaxTypeName.
var TaxLabels = map[string]string{
	TaxTVA:        "TVA",
	TaxDroitTimbre: "droit de timbre",
}

// =============================================================================
// Ftx - Fonctions de texte libre (FtxDetail @functionCode)
// =============================================================================

const FtxNotes = "I-451" // Notes et mentions libres

// =============================================================================
// Divers
// =============================================================================

// UnitDefault unité de mesure par défaut des quantités (UNECE rec 20).
const UnitDefault = "C62"

// CountryCodeList référentiel des pays (Country @codeList).
const CountryCodeList = "ISO_3166-1"

// CountryTN code pays par défaut.
const CountryTN = "TN"

// AmountDecimals nombre de décimales des montants TEIF (millimes).
const AmountDecimals = 3

// MaxDocumentBytes taille maximale d'un document accepté par saveEfact.
const MaxDocumentBytes = 50_000
