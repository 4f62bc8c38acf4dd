package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/dto"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/ttn"
)

// InvoiceTTNHandler gère le pipeline d'envoi El Fatoora d'une facture.
type InvoiceTTNHandler struct {
	uc *ttn.TTNUseCase
}

func NewInvoiceTTNHandler(uc *ttn.TTNUseCase) *InvoiceTTNHandler {
	return &InvoiceTTNHandler{uc: uc}
}

// Send dépose la facture immédiatement via saveEfact.
// POST /api/invoices/:id/ttn/send
func (h *InvoiceTTNHandler) Send(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token invalide"})
	}
	resp, err := h.uc.Send(c.Context(), companyID, c.Params("id"), userID)
	if err != nil {
		return handleDomainError(c, err)
	}
	return c.JSON(resp)
}

// Schedule planifie un envoi différé.
// POST /api/invoices/:id/ttn/schedule
func (h *InvoiceTTNHandler) Schedule(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token invalide"})
	}
	var in dto.ScheduleInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corps invalide"})
	}
	resp, err := h.uc.Schedule(c.Context(), companyID, c.Params("id"), userID, in)
	if err != nil {
		return handleDomainError(c, err)
	}
	return c.JSON(resp)
}

// CancelSchedule annule une intention d'envoi différé.
// DELETE /api/invoices/:id/ttn/schedule
func (h *InvoiceTTNHandler) CancelSchedule(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token invalide"})
	}
	if err := h.uc.CancelSchedule(c.Context(), companyID, c.Params("id"), userID); err != nil {
		return handleDomainError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// Status retourne l'état TTN léger (polling frontend).
// GET /api/invoices/:id/ttn/status
func (h *InvoiceTTNHandler) Status(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token invalide"})
	}
	resp, err := h.uc.Status(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return handleDomainError(c, err)
	}
	return c.JSON(resp)
}

// Consult interroge consultEfact et synchronise l'état local.
// POST /api/invoices/:id/ttn/consult
func (h *InvoiceTTNHandler) Consult(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token invalide"})
	}
	resp, err := h.uc.Consult(c.Context(), companyID, c.Params("id"), userID)
	if err != nil {
		return handleDomainError(c, err)
	}
	return c.JSON(resp)
}

// Document retourne le XML TEIF en mode aperçu avec la liste des problèmes
// qui bloqueraient un dépôt réel.
// GET /api/invoices/:id/ttn/document
func (h *InvoiceTTNHandler) Document(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token invalide"})
	}
	resp, err := h.uc.BuildDocument(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return handleDomainError(c, err)
	}
	return c.JSON(resp)
}

// Events retourne le journal d'audit TTN de la facture.
// GET /api/invoices/:id/ttn/events
func (h *InvoiceTTNHandler) Events(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token invalide"})
	}
	events, err := h.uc.ListEvents(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return handleDomainError(c, err)
	}
	return c.JSON(events)
}
