package repository

import (
	"context"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
)

// CustomerRepository définit le port de persistance pour Customer.
type CustomerRepository interface {
	Create(ctx context.Context, customer *entity.Customer) error
	GetByID(ctx context.Context, id string) (*entity.Customer, error)
	Update(ctx context.Context, customer *entity.Customer) error
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Customer, error)
}
