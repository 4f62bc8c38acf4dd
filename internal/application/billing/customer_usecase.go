package billing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/dto"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/repository"
)

// CustomerUseCase gestion des clients d'une entreprise.
type CustomerUseCase struct {
	customerRepo repository.CustomerRepository
}

func NewCustomerUseCase(customerRepo repository.CustomerRepository) *CustomerUseCase {
	return &CustomerUseCase{customerRepo: customerRepo}
}

// CreateCustomer crée un client. Le matricule fiscal est facultatif à la
// création mais sera exigé à l'envoi TTN.
func (uc *CustomerUseCase) CreateCustomer(ctx context.Context, companyID string, in dto.CreateCustomerRequest) (*dto.CustomerResponse, error) {
	if in.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	customer := &entity.Customer{
		ID:         uuid.New().String(),
		CompanyID:  companyID,
		Name:       in.Name,
		TaxID:      in.TaxID,
		Address:    in.Address,
		City:       in.City,
		PostalCode: in.PostalCode,
		Phone:      in.Phone,
		Email:      in.Email,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := uc.customerRepo.Create(ctx, customer); err != nil {
		return nil, err
	}
	return toCustomerResponse(customer), nil
}

// GetCustomer retourne un client de l'entreprise.
func (uc *CustomerUseCase) GetCustomer(ctx context.Context, companyID, customerID string) (*dto.CustomerResponse, error) {
	customer, err := uc.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return toCustomerResponse(customer), nil
}

// ListCustomers liste les clients, paginés.
func (uc *CustomerUseCase) ListCustomers(ctx context.Context, companyID string, page dto.PageRequest) ([]*dto.CustomerResponse, error) {
	page.DefaultPage()
	customers, err := uc.customerRepo.ListByCompany(ctx, companyID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.CustomerResponse, 0, len(customers))
	for _, c := range customers {
		out = append(out, toCustomerResponse(c))
	}
	return out, nil
}

// UpdateCustomer met à jour les coordonnées d'un client.
func (uc *CustomerUseCase) UpdateCustomer(ctx context.Context, companyID, customerID string, in dto.CreateCustomerRequest) (*dto.CustomerResponse, error) {
	customer, err := uc.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	if in.Name != "" {
		customer.Name = in.Name
	}
	customer.TaxID = in.TaxID
	customer.Address = in.Address
	customer.City = in.City
	customer.PostalCode = in.PostalCode
	customer.Phone = in.Phone
	customer.Email = in.Email
	customer.UpdatedAt = time.Now()
	if err := uc.customerRepo.Update(ctx, customer); err != nil {
		return nil, err
	}
	return toCustomerResponse(customer), nil
}

func toCustomerResponse(c *entity.Customer) *dto.CustomerResponse {
	return &dto.CustomerResponse{
		ID:         c.ID,
		CompanyID:  c.CompanyID,
		Name:       c.Name,
		TaxID:      c.TaxID,
		Address:    c.Address,
		City:       c.City,
		PostalCode: c.PostalCode,
		Phone:      c.Phone,
		Email:      c.Email,
	}
}
