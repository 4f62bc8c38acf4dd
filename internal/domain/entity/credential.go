package entity

import "time"

// Environnements TTN.
const (
	EnvTest = "test"
	EnvProd = "prod"
)

// Fournisseurs de signature configurables sur un identifiant TTN.
const (
	SignProviderNone     = "none"
	SignProviderDigiGo   = "digigo"    // Signature distante OAuth (opérateur DigiGo)
	SignProviderUSBAgent = "usb_agent" // Agent local + clé USB (appairage par jeton)
)

// États de configuration de la signature sur un identifiant.
const (
	ProviderStatusUnconfigured = "unconfigured"
	ProviderStatusPairing      = "pairing" // Appairage agent en attente de confirmation
	ProviderStatusPaired       = "paired"
	ProviderStatusError        = "error"
)

// Credential porte les identifiants webservice TTN d'une entreprise pour un
// environnement donné. Un seul identifiant actif par couple (company, env).
type Credential struct {
	ID                string
	CompanyID         string
	Environment       string // test, prod
	WSURL             string // Endpoint SOAP El Fatoora
	WSLogin           string
	WSPassword        string
	WSMatricule       string // Matricule fiscal à déclarer au WS; vide = TaxID de la Company
	SignatureProvider string // voir constantes SignProvider*
	SignatureStatus   string // voir constantes ProviderStatus*
	SignatureConfig   []byte // Configuration propre au fournisseur (JSON)
	RequireSignature  bool   // Bloque l'envoi tant que le XML n'est pas signé
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// EffectiveMatricule retourne le matricule à présenter au webservice:
// celui de l'identifiant s'il est renseigné, sinon celui de l'entreprise.
func (c *Credential) EffectiveMatricule(companyTaxID string) string {
	if c.WSMatricule != "" {
		return c.WSMatricule
	}
	return companyTaxID
}
