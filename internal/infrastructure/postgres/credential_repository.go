package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/repository"
)

var _ repository.CredentialRepository = (*CredentialRepo)(nil)

// CredentialRepo implémentation de CredentialRepository (utilisable avec pool ou tx).
type CredentialRepo struct {
	q Querier
}

// NewCredentialRepository construit l'adaptateur. Passer un pool ou une tx (Querier).
func NewCredentialRepository(q Querier) *CredentialRepo {
	return &CredentialRepo{q: q}
}

const credentialColumns = `id, company_id, environment,
	       COALESCE(ws_url, ''), COALESCE(ws_login, ''), COALESCE(ws_password, ''), COALESCE(ws_matricule, ''),
	       signature_provider, signature_status, signature_config, require_signature, is_active,
	       created_at, updated_at`

// GetActive retourne l'identifiant actif du couple (company, environnement).
func (r *CredentialRepo) GetActive(ctx context.Context, companyID, environment string) (*entity.Credential, error) {
	row := r.q.QueryRow(ctx, `SELECT `+credentialColumns+`
		FROM ttn_credentials
		WHERE company_id = $1 AND environment = $2 AND is_active`, companyID, environment)
	return scanCredential(row)
}

// GetByID retourne un identifiant par clé primaire.
func (r *CredentialRepo) GetByID(ctx context.Context, id string) (*entity.Credential, error) {
	row := r.q.QueryRow(ctx, `SELECT `+credentialColumns+` FROM ttn_credentials WHERE id = $1`, id)
	return scanCredential(row)
}

// ListByCompany liste tous les identifiants d'une entreprise.
func (r *CredentialRepo) ListByCompany(ctx context.Context, companyID string) ([]*entity.Credential, error) {
	rows, err := r.q.Query(ctx, `SELECT `+credentialColumns+`
		FROM ttn_credentials WHERE company_id = $1 ORDER BY environment`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()
	var list []*entity.Credential
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, cred)
	}
	return list, rows.Err()
}

// Save crée l'identifiant du couple (company, environnement) ou applique le
// patch sur l'existant. Les champs nil du patch conservent la valeur
// actuelle (mise à jour partielle, comme l'écran de configuration qui ne
// renvoie jamais le mot de passe s'il n'a pas changé).
func (r *CredentialRepo) Save(ctx context.Context, companyID, environment string, patch repository.CredentialPatch) (*entity.Credential, error) {
	existing, err := r.GetActive(ctx, companyID, environment)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if existing == nil {
		cred := &entity.Credential{
			ID:                uuid.New().String(),
			CompanyID:         companyID,
			Environment:       environment,
			SignatureProvider: entity.SignProviderNone,
			SignatureStatus:   entity.ProviderStatusUnconfigured,
			RequireSignature:  false,
			IsActive:          true,
		}
		applyPatch(cred, patch)
		_, err := r.q.Exec(ctx, `
			INSERT INTO ttn_credentials (id, company_id, environment, ws_url, ws_login, ws_password, ws_matricule,
			                             signature_provider, signature_status, require_signature, is_active,
			                             created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())`,
			cred.ID, cred.CompanyID, cred.Environment,
			nullIfEmpty(cred.WSURL), nullIfEmpty(cred.WSLogin), nullIfEmpty(cred.WSPassword), nullIfEmpty(cred.WSMatricule),
			cred.SignatureProvider, cred.SignatureStatus, cred.RequireSignature, cred.IsActive,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("identifiant déjà présent pour cet environnement: %w", domain.ErrConflict)
			}
			return nil, fmt.Errorf("insert credential: %w", err)
		}
		return r.GetByID(ctx, cred.ID)
	}

	applyPatch(existing, patch)
	_, err = r.q.Exec(ctx, `
		UPDATE ttn_credentials
		SET ws_url = $2, ws_login = $3, ws_password = $4, ws_matricule = $5,
		    signature_provider = $6, require_signature = $7, is_active = $8, updated_at = now()
		WHERE id = $1`,
		existing.ID,
		nullIfEmpty(existing.WSURL), nullIfEmpty(existing.WSLogin), nullIfEmpty(existing.WSPassword), nullIfEmpty(existing.WSMatricule),
		existing.SignatureProvider, existing.RequireSignature, existing.IsActive,
	)
	if err != nil {
		return nil, fmt.Errorf("update credential: %w", err)
	}
	return r.GetByID(ctx, existing.ID)
}

// SetSignatureState met à jour l'état d'appairage et la configuration JSON.
func (r *CredentialRepo) SetSignatureState(ctx context.Context, id, status string, config []byte) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE ttn_credentials
		SET signature_status = $2, signature_config = COALESCE($3, signature_config), updated_at = now()
		WHERE id = $1`, id, status, config)
	if err != nil {
		return fmt.Errorf("set signature state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func applyPatch(cred *entity.Credential, patch repository.CredentialPatch) {
	if patch.WSURL != nil {
		cred.WSURL = *patch.WSURL
	}
	if patch.WSLogin != nil {
		cred.WSLogin = *patch.WSLogin
	}
	if patch.WSPassword != nil {
		cred.WSPassword = *patch.WSPassword
	}
	if patch.WSMatricule != nil {
		cred.WSMatricule = *patch.WSMatricule
	}
	if patch.SignatureProvider != nil {
		cred.SignatureProvider = *patch.SignatureProvider
	}
	if patch.RequireSignature != nil {
		cred.RequireSignature = *patch.RequireSignature
	}
	if patch.IsActive != nil {
		cred.IsActive = *patch.IsActive
	}
}

func scanCredential(row rowScanner) (*entity.Credential, error) {
	var c entity.Credential
	err := row.Scan(
		&c.ID, &c.CompanyID, &c.Environment,
		&c.WSURL, &c.WSLogin, &c.WSPassword, &c.WSMatricule,
		&c.SignatureProvider, &c.SignatureStatus, &c.SignatureConfig, &c.RequireSignature, &c.IsActive,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan credential: %w", err)
	}
	return &c, nil
}
