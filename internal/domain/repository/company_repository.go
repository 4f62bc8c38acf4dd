package repository

import (
	"context"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
)

// CompanyRepository définit le port de persistance pour Company.
type CompanyRepository interface {
	Create(ctx context.Context, company *entity.Company) error
	GetByID(ctx context.Context, id string) (*entity.Company, error)
	GetByTaxID(ctx context.Context, taxID string) (*entity.Company, error)
	Update(ctx context.Context, company *entity.Company) error

	// HasCapability indique si la capacité est active et non expirée pour
	// l'entreprise. Consulté avant toute opération TTN ou de signature.
	HasCapability(ctx context.Context, companyID, capability string) (bool, error)
}
