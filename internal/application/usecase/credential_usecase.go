package usecase

import (
	"context"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/dto"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/repository"
	"github.com/zhanisana-byte/facturetn-crm-sub001/pkg/logger"
)

// CredentialUseCase gestion des identifiants webservice TTN d'une
// entreprise (un par environnement).
type CredentialUseCase struct {
	credentialRepo repository.CredentialRepository
	companyRepo    repository.CompanyRepository
	log            *logger.Logger
}

// NewCredentialUseCase construit le cas d'usage.
func NewCredentialUseCase(credentialRepo repository.CredentialRepository, companyRepo repository.CompanyRepository, log *logger.Logger) *CredentialUseCase {
	return &CredentialUseCase{credentialRepo: credentialRepo, companyRepo: companyRepo, log: log}
}

// Save crée ou met à jour partiellement l'identifiant de l'environnement.
// Changer de fournisseur de signature remet l'état d'appairage à zéro.
func (uc *CredentialUseCase) Save(ctx context.Context, companyID, environment string, in dto.SaveCredentialRequest) (*dto.CredentialResponse, error) {
	if !validEnvironment(environment) {
		return nil, domain.ErrInvalidInput
	}
	if in.SignatureProvider != nil {
		switch *in.SignatureProvider {
		case entity.SignProviderNone, entity.SignProviderDigiGo, entity.SignProviderUSBAgent:
		default:
			return nil, domain.ErrInvalidInput
		}
	}
	if ok, err := uc.companyRepo.HasCapability(ctx, companyID, entity.CapabilityTTN); err != nil {
		return nil, err
	} else if !ok {
		return nil, domain.ErrForbidden
	}

	previous, err := uc.credentialRepo.GetActive(ctx, companyID, environment)
	if err != nil && err != domain.ErrNotFound {
		return nil, err
	}

	credential, err := uc.credentialRepo.Save(ctx, companyID, environment, repository.CredentialPatch{
		WSURL:             in.WSURL,
		WSLogin:           in.WSLogin,
		WSPassword:        in.WSPassword,
		WSMatricule:       in.WSMatricule,
		SignatureProvider: in.SignatureProvider,
		RequireSignature:  in.RequireSignature,
		IsActive:          in.IsActive,
	})
	if err != nil {
		return nil, err
	}

	providerChanged := in.SignatureProvider != nil &&
		(previous == nil || previous.SignatureProvider != *in.SignatureProvider)
	if providerChanged {
		status := entity.ProviderStatusUnconfigured
		if err := uc.credentialRepo.SetSignatureState(ctx, credential.ID, status, []byte(`{}`)); err != nil {
			return nil, err
		}
		credential.SignatureStatus = status
		uc.log.Info().
			Str("company_id", companyID).
			Str("environment", environment).
			Str("provider", *in.SignatureProvider).
			Msg("fournisseur de signature changé, appairage remis à zéro")
	}

	return toCredentialResponse(credential), nil
}

// Get retourne l'identifiant actif de l'environnement, mot de passe masqué.
func (uc *CredentialUseCase) Get(ctx context.Context, companyID, environment string) (*dto.CredentialResponse, error) {
	if !validEnvironment(environment) {
		return nil, domain.ErrInvalidInput
	}
	credential, err := uc.credentialRepo.GetActive(ctx, companyID, environment)
	if err != nil {
		return nil, err
	}
	return toCredentialResponse(credential), nil
}

// List retourne tous les identifiants de l'entreprise, mots de passe masqués.
func (uc *CredentialUseCase) List(ctx context.Context, companyID string) ([]*dto.CredentialResponse, error) {
	credentials, err := uc.credentialRepo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.CredentialResponse, 0, len(credentials))
	for _, c := range credentials {
		out = append(out, toCredentialResponse(c))
	}
	return out, nil
}

func validEnvironment(environment string) bool {
	return environment == entity.EnvTest || environment == entity.EnvProd
}

func toCredentialResponse(c *entity.Credential) *dto.CredentialResponse {
	return &dto.CredentialResponse{
		ID:                c.ID,
		CompanyID:         c.CompanyID,
		Environment:       c.Environment,
		WSURL:             c.WSURL,
		WSLogin:           c.WSLogin,
		HasPassword:       c.WSPassword != "",
		WSMatricule:       c.WSMatricule,
		SignatureProvider: c.SignatureProvider,
		SignatureStatus:   c.SignatureStatus,
		RequireSignature:  c.RequireSignature,
		IsActive:          c.IsActive,
	}
}
