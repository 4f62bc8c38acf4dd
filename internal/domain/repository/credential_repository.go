package repository

import (
	"context"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
)

// CredentialPatch porte une mise à jour partielle d'identifiant TTN.
// Un pointeur nil signifie "champ non fourni, conserver la valeur actuelle".
type CredentialPatch struct {
	WSURL             *string
	WSLogin           *string
	WSPassword        *string
	WSMatricule       *string
	SignatureProvider *string
	RequireSignature  *bool
	IsActive          *bool
}

// CredentialRepository définit le port de persistance des identifiants TTN.
type CredentialRepository interface {
	// GetActive retourne l'identifiant actif du couple (company, environnement).
	// domain.ErrNotFound si aucun.
	GetActive(ctx context.Context, companyID, environment string) (*entity.Credential, error)
	GetByID(ctx context.Context, id string) (*entity.Credential, error)
	ListByCompany(ctx context.Context, companyID string) ([]*entity.Credential, error)

	// Save crée l'identifiant du couple (company, environnement) ou applique
	// le patch sur l'existant (mise à jour partielle, upsert).
	Save(ctx context.Context, companyID, environment string, patch CredentialPatch) (*entity.Credential, error)

	// SetSignatureState met à jour l'état d'appairage du fournisseur de
	// signature et sa configuration JSON.
	SetSignatureState(ctx context.Context, id, status string, config []byte) error
}
