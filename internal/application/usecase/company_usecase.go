package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/repository"
)

// CompanyInput entrée de création ou mise à jour d'entreprise.
type CompanyInput struct {
	Name       string `json:"name"`
	TaxID      string `json:"tax_id"` // Matricule fiscal tunisien
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
}

// CompanyUseCase gestion des entreprises.
type CompanyUseCase struct {
	companyRepo repository.CompanyRepository
}

func NewCompanyUseCase(companyRepo repository.CompanyRepository) *CompanyUseCase {
	return &CompanyUseCase{companyRepo: companyRepo}
}

// CreateCompany crée une entreprise. Le matricule fiscal doit être unique.
func (uc *CompanyUseCase) CreateCompany(ctx context.Context, in CompanyInput) (*entity.Company, error) {
	if in.Name == "" || in.TaxID == "" {
		return nil, domain.ErrInvalidInput
	}
	if existing, err := uc.companyRepo.GetByTaxID(ctx, in.TaxID); err == nil && existing != nil {
		return nil, domain.ErrConflict
	}
	now := time.Now()
	company := &entity.Company{
		ID:         uuid.New().String(),
		Name:       in.Name,
		TaxID:      in.TaxID,
		Address:    in.Address,
		City:       in.City,
		PostalCode: in.PostalCode,
		Phone:      in.Phone,
		Email:      in.Email,
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := uc.companyRepo.Create(ctx, company); err != nil {
		return nil, err
	}
	return company, nil
}

// GetCompany retourne une entreprise par identifiant.
func (uc *CompanyUseCase) GetCompany(ctx context.Context, id string) (*entity.Company, error) {
	return uc.companyRepo.GetByID(ctx, id)
}

// UpdateCompany met à jour les coordonnées d'une entreprise.
func (uc *CompanyUseCase) UpdateCompany(ctx context.Context, id string, in CompanyInput) (*entity.Company, error) {
	company, err := uc.companyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != "" {
		company.Name = in.Name
	}
	if in.TaxID != "" {
		company.TaxID = in.TaxID
	}
	company.Address = in.Address
	company.City = in.City
	company.PostalCode = in.PostalCode
	company.Phone = in.Phone
	company.Email = in.Email
	company.UpdatedAt = time.Now()
	if err := uc.companyRepo.Update(ctx, company); err != nil {
		return nil, err
	}
	return company, nil
}
