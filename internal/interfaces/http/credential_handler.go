package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/dto"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/usecase"
)

// CredentialHandler gère les identifiants webservice TTN (réservé admin).
type CredentialHandler struct {
	uc *usecase.CredentialUseCase
}

func NewCredentialHandler(uc *usecase.CredentialUseCase) *CredentialHandler {
	return &CredentialHandler{uc: uc}
}

// Save crée ou met à jour partiellement l'identifiant d'un environnement.
// PUT /api/ttn/credentials/:environment
func (h *CredentialHandler) Save(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token invalide"})
	}
	var in dto.SaveCredentialRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corps invalide"})
	}
	credential, err := h.uc.Save(c.Context(), companyID, c.Params("environment"), in)
	if err != nil {
		return handleDomainError(c, err)
	}
	return c.JSON(credential)
}

// Get retourne l'identifiant actif d'un environnement, mot de passe masqué.
// GET /api/ttn/credentials/:environment
func (h *CredentialHandler) Get(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token invalide"})
	}
	credential, err := h.uc.Get(c.Context(), companyID, c.Params("environment"))
	if err != nil {
		return handleDomainError(c, err)
	}
	return c.JSON(credential)
}

// List retourne tous les identifiants de l'entreprise.
// GET /api/ttn/credentials
func (h *CredentialHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token invalide"})
	}
	credentials, err := h.uc.List(c.Context(), companyID)
	if err != nil {
		return handleDomainError(c, err)
	}
	return c.JSON(credentials)
}
