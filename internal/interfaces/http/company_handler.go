package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/dto"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/usecase"
)

// CompanyHandler gère la fiche entreprise.
type CompanyHandler struct {
	uc *usecase.CompanyUseCase
}

func NewCompanyHandler(uc *usecase.CompanyUseCase) *CompanyHandler {
	return &CompanyHandler{uc: uc}
}

// Create enregistre une nouvelle entreprise. Route publique: c'est le point
// d'entrée avant l'inscription du premier utilisateur.
// POST /api/companies
func (h *CompanyHandler) Create(c *fiber.Ctx) error {
	var in usecase.CompanyInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corps invalide"})
	}
	company, err := h.uc.CreateCompany(c.Context(), in)
	if err != nil {
		return handleDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(company)
}

// Get retourne l'entreprise de l'utilisateur courant.
// GET /api/company
func (h *CompanyHandler) Get(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token invalide"})
	}
	company, err := h.uc.GetCompany(c.Context(), companyID)
	if err != nil {
		return handleDomainError(c, err)
	}
	return c.JSON(company)
}

// Update met à jour les coordonnées de l'entreprise courante.
// PUT /api/company
func (h *CompanyHandler) Update(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token invalide"})
	}
	var in usecase.CompanyInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corps invalide"})
	}
	company, err := h.uc.UpdateCompany(c.Context(), companyID, in)
	if err != nil {
		return handleDomainError(c, err)
	}
	return c.JSON(company)
}
