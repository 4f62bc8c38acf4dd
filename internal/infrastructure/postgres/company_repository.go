package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/repository"
)

var _ repository.CompanyRepository = (*CompanyRepo)(nil)

// CompanyRepo implémentation de CompanyRepository (utilisable avec pool ou tx).
type CompanyRepo struct {
	q Querier
}

// NewCompanyRepository construit l'adaptateur. Passer un pool ou une tx (Querier).
func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{q: q}
}

// Create persiste une entreprise.
func (r *CompanyRepo) Create(ctx context.Context, company *entity.Company) error {
	if company.ID == "" {
		company.ID = uuid.New().String()
	}
	now := time.Now()
	company.CreatedAt, company.UpdatedAt = now, now
	if company.Status == "" {
		company.Status = "active"
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO companies (id, name, tax_id, address, city, postal_code, phone, email, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		company.ID, company.Name, company.TaxID, company.Address, company.City, company.PostalCode,
		company.Phone, company.Email, company.Status, company.CreatedAt, company.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("matricule fiscal déjà enregistré: %w", domain.ErrConflict)
		}
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

const companyColumns = `id, name, tax_id, COALESCE(address, ''), COALESCE(city, ''), COALESCE(postal_code, ''),
	       COALESCE(phone, ''), COALESCE(email, ''), status, created_at, updated_at`

// GetByID retourne une entreprise par identifiant.
func (r *CompanyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	return r.get(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id)
}

// GetByTaxID retourne une entreprise par matricule fiscal.
func (r *CompanyRepo) GetByTaxID(ctx context.Context, taxID string) (*entity.Company, error) {
	return r.get(ctx, `SELECT `+companyColumns+` FROM companies WHERE tax_id = $1`, taxID)
}

func (r *CompanyRepo) get(ctx context.Context, query, arg string) (*entity.Company, error) {
	var c entity.Company
	err := r.q.QueryRow(ctx, query, arg).Scan(
		&c.ID, &c.Name, &c.TaxID, &c.Address, &c.City, &c.PostalCode,
		&c.Phone, &c.Email, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return &c, nil
}

// Update réécrit les champs modifiables de l'entreprise.
func (r *CompanyRepo) Update(ctx context.Context, company *entity.Company) error {
	company.UpdatedAt = time.Now()
	tag, err := r.q.Exec(ctx, `
		UPDATE companies
		SET name = $2, tax_id = $3, address = $4, city = $5, postal_code = $6,
		    phone = $7, email = $8, status = $9, updated_at = $10
		WHERE id = $1`,
		company.ID, company.Name, company.TaxID, company.Address, company.City, company.PostalCode,
		company.Phone, company.Email, company.Status, company.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update company: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// HasCapability indique si la capacité est active et non expirée.
func (r *CompanyRepo) HasCapability(ctx context.Context, companyID, capability string) (bool, error) {
	var active bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM company_capabilities
			WHERE company_id = $1 AND capability = $2 AND is_active
			  AND (expires_at IS NULL OR expires_at > now())
		)`, companyID, capability).Scan(&active)
	if err != nil {
		return false, fmt.Errorf("check capability: %w", err)
	}
	return active, nil
}
