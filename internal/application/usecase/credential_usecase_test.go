package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/dto"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/usecase"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/repository"
	"github.com/zhanisana-byte/facturetn-crm-sub001/pkg/logger"
)

const credCompanyID = "c0000000-0000-0000-0000-0000000000aa"

type memCredentialRepo struct {
	seq         int
	credentials map[string]*entity.Credential // clé: companyID|environment
}

func (r *memCredentialRepo) key(companyID, environment string) string {
	return companyID + "|" + environment
}

func (r *memCredentialRepo) GetActive(_ context.Context, companyID, environment string) (*entity.Credential, error) {
	c, ok := r.credentials[r.key(companyID, environment)]
	if !ok || !c.IsActive {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memCredentialRepo) GetByID(_ context.Context, id string) (*entity.Credential, error) {
	for _, c := range r.credentials {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memCredentialRepo) ListByCompany(_ context.Context, companyID string) ([]*entity.Credential, error) {
	var out []*entity.Credential
	for _, c := range r.credentials {
		if c.CompanyID == companyID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memCredentialRepo) Save(_ context.Context, companyID, environment string, patch repository.CredentialPatch) (*entity.Credential, error) {
	c, ok := r.credentials[r.key(companyID, environment)]
	if !ok {
		r.seq++
		c = &entity.Credential{
			ID:                "cred-" + environment,
			CompanyID:         companyID,
			Environment:       environment,
			SignatureProvider: entity.SignProviderNone,
			SignatureStatus:   entity.ProviderStatusUnconfigured,
			IsActive:          true,
		}
		r.credentials[r.key(companyID, environment)] = c
	}
	if patch.WSURL != nil {
		c.WSURL = *patch.WSURL
	}
	if patch.WSLogin != nil {
		c.WSLogin = *patch.WSLogin
	}
	if patch.WSPassword != nil {
		c.WSPassword = *patch.WSPassword
	}
	if patch.WSMatricule != nil {
		c.WSMatricule = *patch.WSMatricule
	}
	if patch.SignatureProvider != nil {
		c.SignatureProvider = *patch.SignatureProvider
	}
	if patch.RequireSignature != nil {
		c.RequireSignature = *patch.RequireSignature
	}
	if patch.IsActive != nil {
		c.IsActive = *patch.IsActive
	}
	cp := *c
	return &cp, nil
}

func (r *memCredentialRepo) SetSignatureState(_ context.Context, id, status string, config []byte) error {
	for _, c := range r.credentials {
		if c.ID == id {
			c.SignatureStatus = status
			if config != nil {
				c.SignatureConfig = config
			}
			return nil
		}
	}
	return domain.ErrNotFound
}

type memCompanyRepo struct {
	capabilities map[string]bool
}

func (r *memCompanyRepo) Create(_ context.Context, _ *entity.Company) error  { return nil }
func (r *memCompanyRepo) Update(_ context.Context, _ *entity.Company) error  { return nil }
func (r *memCompanyRepo) GetByID(_ context.Context, _ string) (*entity.Company, error) {
	return nil, domain.ErrNotFound
}
func (r *memCompanyRepo) GetByTaxID(_ context.Context, _ string) (*entity.Company, error) {
	return nil, domain.ErrNotFound
}
func (r *memCompanyRepo) HasCapability(_ context.Context, _, capability string) (bool, error) {
	return r.capabilities[capability], nil
}

func ptr[T any](v T) *T { return &v }

func newCredentialUseCase() (*usecase.CredentialUseCase, *memCredentialRepo) {
	repo := &memCredentialRepo{credentials: map[string]*entity.Credential{}}
	companies := &memCompanyRepo{capabilities: map[string]bool{entity.CapabilityTTN: true}}
	log := logger.New(logger.Config{Env: "development", Level: "error"})
	return usecase.NewCredentialUseCase(repo, companies, log), repo
}

func TestSaveCredential_CreeLIdentifiant(t *testing.T) {
	uc, _ := newCredentialUseCase()

	resp, err := uc.Save(context.Background(), credCompanyID, entity.EnvTest, dto.SaveCredentialRequest{
		WSLogin:    ptr("login-test"),
		WSPassword: ptr("secret"),
	})
	require.NoError(t, err)

	assert.Equal(t, entity.EnvTest, resp.Environment)
	assert.Equal(t, "login-test", resp.WSLogin)
	assert.True(t, resp.HasPassword)
	assert.True(t, resp.IsActive)
}

// Le mot de passe n'est jamais renvoyé dans les réponses.
func TestSaveCredential_MotDePasseMasque(t *testing.T) {
	uc, repo := newCredentialUseCase()

	_, err := uc.Save(context.Background(), credCompanyID, entity.EnvTest, dto.SaveCredentialRequest{
		WSPassword: ptr("secret"),
	})
	require.NoError(t, err)

	resp, err := uc.Get(context.Background(), credCompanyID, entity.EnvTest)
	require.NoError(t, err)
	assert.True(t, resp.HasPassword)

	stored, err := repo.GetActive(context.Background(), credCompanyID, entity.EnvTest)
	require.NoError(t, err)
	assert.Equal(t, "secret", stored.WSPassword, "le mot de passe reste en base")
}

// Un PUT sans ws_password conserve le mot de passe existant: l'écran de
// configuration n'a jamais besoin de le réafficher.
func TestSaveCredential_PatchConserveLeMotDePasse(t *testing.T) {
	uc, repo := newCredentialUseCase()

	_, err := uc.Save(context.Background(), credCompanyID, entity.EnvTest, dto.SaveCredentialRequest{
		WSLogin:    ptr("login-test"),
		WSPassword: ptr("secret"),
	})
	require.NoError(t, err)

	_, err = uc.Save(context.Background(), credCompanyID, entity.EnvTest, dto.SaveCredentialRequest{
		WSLogin: ptr("nouveau-login"),
	})
	require.NoError(t, err)

	stored, err := repo.GetActive(context.Background(), credCompanyID, entity.EnvTest)
	require.NoError(t, err)
	assert.Equal(t, "nouveau-login", stored.WSLogin)
	assert.Equal(t, "secret", stored.WSPassword)
}

func TestSaveCredential_ChangementFournisseurRemetLAppairage(t *testing.T) {
	uc, repo := newCredentialUseCase()

	_, err := uc.Save(context.Background(), credCompanyID, entity.EnvTest, dto.SaveCredentialRequest{
		SignatureProvider: ptr(entity.SignProviderUSBAgent),
	})
	require.NoError(t, err)

	// L'agent se fait appairer entre-temps.
	stored, err := repo.GetActive(context.Background(), credCompanyID, entity.EnvTest)
	require.NoError(t, err)
	require.NoError(t, repo.SetSignatureState(context.Background(), stored.ID, entity.ProviderStatusPaired, []byte(`{"agent_label":"poste-1"}`)))

	resp, err := uc.Save(context.Background(), credCompanyID, entity.EnvTest, dto.SaveCredentialRequest{
		SignatureProvider: ptr(entity.SignProviderDigiGo),
	})
	require.NoError(t, err)

	assert.Equal(t, entity.SignProviderDigiGo, resp.SignatureProvider)
	assert.Equal(t, entity.ProviderStatusUnconfigured, resp.SignatureStatus)
}

// Resoummettre le même fournisseur ne casse pas un appairage en place.
func TestSaveCredential_MemeFournisseurConserveLAppairage(t *testing.T) {
	uc, repo := newCredentialUseCase()

	_, err := uc.Save(context.Background(), credCompanyID, entity.EnvTest, dto.SaveCredentialRequest{
		SignatureProvider: ptr(entity.SignProviderUSBAgent),
	})
	require.NoError(t, err)
	stored, err := repo.GetActive(context.Background(), credCompanyID, entity.EnvTest)
	require.NoError(t, err)
	require.NoError(t, repo.SetSignatureState(context.Background(), stored.ID, entity.ProviderStatusPaired, nil))

	resp, err := uc.Save(context.Background(), credCompanyID, entity.EnvTest, dto.SaveCredentialRequest{
		SignatureProvider: ptr(entity.SignProviderUSBAgent),
		RequireSignature:  ptr(true),
	})
	require.NoError(t, err)

	assert.Equal(t, entity.ProviderStatusPaired, resp.SignatureStatus)
	assert.True(t, resp.RequireSignature)
}

func TestSaveCredential_FournisseurInconnu(t *testing.T) {
	uc, _ := newCredentialUseCase()

	_, err := uc.Save(context.Background(), credCompanyID, entity.EnvTest, dto.SaveCredentialRequest{
		SignatureProvider: ptr("cloudsign"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSaveCredential_EnvironnementInconnu(t *testing.T) {
	uc, _ := newCredentialUseCase()

	_, err := uc.Save(context.Background(), credCompanyID, "staging", dto.SaveCredentialRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSaveCredential_SansCapaciteTTN(t *testing.T) {
	repo := &memCredentialRepo{credentials: map[string]*entity.Credential{}}
	companies := &memCompanyRepo{capabilities: map[string]bool{}}
	log := logger.New(logger.Config{Env: "development", Level: "error"})
	uc := usecase.NewCredentialUseCase(repo, companies, log)

	_, err := uc.Save(context.Background(), credCompanyID, entity.EnvTest, dto.SaveCredentialRequest{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// Les deux environnements sont indépendants l'un de l'autre.
func TestCredential_EnvironnementsSepares(t *testing.T) {
	uc, _ := newCredentialUseCase()

	_, err := uc.Save(context.Background(), credCompanyID, entity.EnvTest, dto.SaveCredentialRequest{
		WSLogin: ptr("login-test"),
	})
	require.NoError(t, err)
	_, err = uc.Save(context.Background(), credCompanyID, entity.EnvProd, dto.SaveCredentialRequest{
		WSLogin: ptr("login-prod"),
	})
	require.NoError(t, err)

	list, err := uc.List(context.Background(), credCompanyID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	prod, err := uc.Get(context.Background(), credCompanyID, entity.EnvProd)
	require.NoError(t, err)
	assert.Equal(t, "login-prod", prod.WSLogin)
	test, err := uc.Get(context.Background(), credCompanyID, entity.EnvTest)
	require.NoError(t, err)
	assert.Equal(t, "login-test", test.WSLogin)
}
