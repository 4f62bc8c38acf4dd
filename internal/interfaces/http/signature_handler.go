package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/dto"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/signing"
)

// SignatureHandler gère les parcours de signature côté utilisateur
// authentifié: DigiGo et émission des jetons agent.
type SignatureHandler struct {
	uc *signing.UseCase
}

func NewSignatureHandler(uc *signing.UseCase) *SignatureHandler {
	return &SignatureHandler{uc: uc}
}

// StartDigiGo démarre un parcours de signature distante.
// POST /api/invoices/:id/sign/digigo/start
func (h *SignatureHandler) StartDigiGo(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token invalide"})
	}
	resp, err := h.uc.StartDigiGo(c.Context(), companyID, userID, c.Params("id"))
	if err != nil {
		return handleDomainError(c, err)
	}
	return c.JSON(resp)
}

// ConfirmDigiGo conclut le parcours au retour de redirection OAuth.
// POST /api/sign/digigo/confirm
func (h *SignatureHandler) ConfirmDigiGo(c *fiber.Ctx) error {
	var in dto.ConfirmDigiGoRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corps invalide"})
	}
	resp, err := h.uc.ConfirmDigiGo(c.Context(), in)
	if err != nil {
		return handleDomainError(c, err)
	}
	return c.JSON(resp)
}

// CreatePairingToken émet un jeton d'appairage pour l'agent local.
// POST /api/agent/pairing-token (réservé admin)
func (h *SignatureHandler) CreatePairingToken(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token invalide"})
	}
	resp, err := h.uc.CreatePairingToken(c.Context(), companyID, userID)
	if err != nil {
		return handleDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// CreateSignToken émet un jeton de signature ponctuel et le lien profond
// qui réveille l'agent local.
// POST /api/invoices/:id/sign/agent/token
func (h *SignatureHandler) CreateSignToken(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token invalide"})
	}
	resp, err := h.uc.CreateSignToken(c.Context(), companyID, userID, c.Params("id"))
	if err != nil {
		return handleDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}
