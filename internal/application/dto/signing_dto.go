package dto

import "time"

// StartDigiGoResponse sortie de POST /api/invoices/:id/sign/digigo/start.
// L'utilisateur est redirigé vers AuthorizeURL pour s'authentifier chez
// l'opérateur et approuver la signature.
type StartDigiGoResponse struct {
	State        string    `json:"state"`
	AuthorizeURL string    `json:"authorize_url"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// ConfirmDigiGoRequest body du retour de redirection
// POST /api/sign/digigo/confirm (state + code OAuth).
type ConfirmDigiGoRequest struct {
	State string `json:"state"`
	Code  string `json:"code"`
}

// ConfirmDigiGoResponse issue du parcours DigiGo. SignedHash est
// l'empreinte canonisée du document final, recalculée après injection.
type ConfirmDigiGoResponse struct {
	InvoiceID       string `json:"invoice_id"`
	SignatureStatus string `json:"signature_status"`
	SignedHash      string `json:"signed_hash"`
}

// CreatePairingTokenResponse jeton d'appairage agent, affiché une seule fois.
type CreatePairingTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PairAgentRequest body de POST /api/agent/pair (envoyé par l'agent local).
type PairAgentRequest struct {
	Token      string `json:"token"`
	Label      string `json:"label,omitempty"`      // Nom du poste, libre
	Thumbprint string `json:"thumbprint,omitempty"` // Empreinte du certificat de la clé USB
}

// PairAgentResponse confirme l'appairage à l'agent.
type PairAgentResponse struct {
	CredentialID string `json:"credential_id"`
	CompanyID    string `json:"company_id"`
	Environment  string `json:"environment"`
}

// CreateSignTokenResponse jeton de signature ponctuel + lien profond que le
// navigateur ouvre pour réveiller l'agent local.
type CreateSignTokenResponse struct {
	Token     string    `json:"token"`
	DeepLink  string    `json:"deep_link"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SignPayloadResponse XML à signer, récupéré par l'agent avec son jeton.
// Thumbprint rappelle le certificat déclaré à l'appairage pour que l'agent
// choisisse la bonne clé.
type SignPayloadResponse struct {
	InvoiceID  string `json:"invoice_id"`
	XML        string `json:"xml"`
	Thumbprint string `json:"thumbprint,omitempty"`
}

// SubmitSignedXMLRequest dépôt du XML signé par l'agent.
type SubmitSignedXMLRequest struct {
	Token     string `json:"token"`
	SignedXML string `json:"signed_xml"`
}

// SubmitSignedXMLResponse confirme le dépôt.
type SubmitSignedXMLResponse struct {
	InvoiceID       string `json:"invoice_id"`
	SignatureStatus string `json:"signature_status"`
	SignedHash      string `json:"signed_hash"`
}
