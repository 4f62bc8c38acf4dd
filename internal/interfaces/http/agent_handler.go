package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/dto"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/signing"
)

// AgentHandler gère les appels de l'agent de signature local. Ces routes ne
// passent pas par le JWT: l'agent s'authentifie par ses jetons à usage
// unique.
type AgentHandler struct {
	uc *signing.UseCase
}

func NewAgentHandler(uc *signing.UseCase) *AgentHandler {
	return &AgentHandler{uc: uc}
}

// Pair consomme le jeton d'appairage collé dans l'agent.
// POST /api/agent/pair
func (h *AgentHandler) Pair(c *fiber.Ctx) error {
	var in dto.PairAgentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corps invalide"})
	}
	resp, err := h.uc.PairAgent(c.Context(), in)
	if err != nil {
		return handleDomainError(c, err)
	}
	return c.JSON(resp)
}

// SignPayload remet le XML à signer contre un jeton de signature valide.
// GET /api/agent/sign-payload?token=...
func (h *AgentHandler) SignPayload(c *fiber.Ctx) error {
	resp, err := h.uc.GetSignPayload(c.Context(), c.Query("token"))
	if err != nil {
		return handleDomainError(c, err)
	}
	return c.JSON(resp)
}

// SignedXML reçoit le XML signé de l'agent et consomme le jeton.
// POST /api/agent/signed-xml
func (h *AgentHandler) SignedXML(c *fiber.Ctx) error {
	var in dto.SubmitSignedXMLRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corps invalide"})
	}
	resp, err := h.uc.SubmitSignedXML(c.Context(), in)
	if err != nil {
		return handleDomainError(c, err)
	}
	return c.JSON(resp)
}
