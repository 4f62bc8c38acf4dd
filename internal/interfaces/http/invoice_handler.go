package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/billing"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/dto"
)

// InvoiceHandler gère le cycle de vie des factures (protégé).
type InvoiceHandler struct {
	uc *billing.InvoiceUseCase
}

func NewInvoiceHandler(uc *billing.InvoiceUseCase) *InvoiceHandler {
	return &InvoiceHandler{uc: uc}
}

// Create crée une facture avec ses lignes; les totaux sont recalculés.
// POST /api/invoices
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	userID := GetUserID(c)
	if companyID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token invalide"})
	}
	var in dto.CreateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corps invalide"})
	}
	invoice, err := h.uc.CreateInvoice(c.Context(), companyID, userID, in)
	if err != nil {
		return handleDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(invoice)
}

// GetByID retourne une facture et ses lignes.
// GET /api/invoices/:id
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token invalide"})
	}
	invoice, err := h.uc.GetInvoice(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return handleDomainError(c, err)
	}
	return c.JSON(invoice)
}

// List liste les factures de l'entreprise, paginées.
// GET /api/invoices
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token invalide"})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "pagination invalide"})
	}
	invoices, err := h.uc.ListInvoices(c.Context(), companyID, page)
	if err != nil {
		return handleDomainError(c, err)
	}
	return c.JSON(invoices)
}

// Update modifie une facture encore hors du pipeline TTN.
// PUT /api/invoices/:id
func (h *InvoiceHandler) Update(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token invalide"})
	}
	var in dto.CreateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corps invalide"})
	}
	invoice, err := h.uc.UpdateInvoice(c.Context(), companyID, c.Params("id"), in)
	if err != nil {
		return handleDomainError(c, err)
	}
	return c.JSON(invoice)
}

// Validate pose la validation comptable, préalable à l'envoi TTN.
// POST /api/invoices/:id/validate (rôles admin, comptable)
func (h *InvoiceHandler) Validate(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token invalide"})
	}
	if err := h.uc.ValidateInvoice(c.Context(), companyID, c.Params("id")); err != nil {
		return handleDomainError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}
