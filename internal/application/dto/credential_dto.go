package dto

// SaveCredentialRequest body pour PUT /api/ttn/credentials/:environment.
// Les champs absents du JSON (pointeurs nil) conservent la valeur en base,
// si bien que le mot de passe n'a jamais besoin d'être renvoyé par l'écran
// de configuration.
type SaveCredentialRequest struct {
	WSURL             *string `json:"ws_url,omitempty"`
	WSLogin           *string `json:"ws_login,omitempty"`
	WSPassword        *string `json:"ws_password,omitempty"`
	WSMatricule       *string `json:"ws_matricule,omitempty"`
	SignatureProvider *string `json:"signature_provider,omitempty"` // none, digigo, usb_agent
	RequireSignature  *bool   `json:"require_signature,omitempty"`
	IsActive          *bool   `json:"is_active,omitempty"`
}

// CredentialResponse identifiant TTN dans les réponses. Le mot de passe
// webservice n'apparaît jamais, seul HasPassword indique sa présence.
type CredentialResponse struct {
	ID                string `json:"id"`
	CompanyID         string `json:"company_id"`
	Environment       string `json:"environment"`
	WSURL             string `json:"ws_url,omitempty"`
	WSLogin           string `json:"ws_login,omitempty"`
	HasPassword       bool   `json:"has_password"`
	WSMatricule       string `json:"ws_matricule,omitempty"`
	SignatureProvider string `json:"signature_provider"`
	SignatureStatus   string `json:"signature_status"`
	RequireSignature  bool   `json:"require_signature"`
	IsActive          bool   `json:"is_active"`
}
