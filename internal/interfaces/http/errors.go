package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/dto"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain"
)

// handleDomainError traduit les erreurs de domaine en réponses HTTP. Les
// listes de validation partent en 422 avec le détail champ par champ; tout
// le reste suit la table des sentinelles.
func handleDomainError(c *fiber.Ctx, err error) error {
	var issues domain.ValidationIssues
	if errors.As(err, &issues) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ValidationErrorResponse{
			Code:   "INVOICE_INCOMPLETE",
			Issues: issues,
		})
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "ressource introuvable"})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "données invalides"})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "identifiants invalides"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "accès refusé"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "conflit avec l'état actuel"})
	case errors.Is(err, domain.ErrNotConfigured):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "TTN_NOT_CONFIGURED", Message: "connecteur TTN non configuré pour cet environnement"})
	case errors.Is(err, domain.ErrInvoiceLocked):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVOICE_LOCKED", Message: "envoi TTN déjà en cours ou terminé"})
	case errors.Is(err, domain.ErrQuoteNotSendable):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "QUOTE_NOT_SENDABLE", Message: "un devis ne peut pas être envoyé à la TTN"})
	case errors.Is(err, domain.ErrCurrencyNotAllowed):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "CURRENCY_NOT_ALLOWED", Message: "la facture doit être libellée en TND"})
	case errors.Is(err, domain.ErrValidationRequired):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION_REQUIRED", Message: "validation comptable requise avant l'envoi"})
	case errors.Is(err, domain.ErrSignatureRequired):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "SIGNATURE_REQUIRED", Message: "signature électronique requise avant l'envoi"})
	case errors.Is(err, domain.ErrTokenInvalid):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "TOKEN_INVALID", Message: "jeton invalide"})
	case errors.Is(err, domain.ErrTokenUsed):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "TOKEN_USED", Message: "jeton déjà utilisé"})
	case errors.Is(err, domain.ErrTokenExpired):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "TOKEN_EXPIRED", Message: "jeton expiré"})
	case errors.Is(err, domain.ErrSessionInvalid):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "SESSION_INVALID", Message: "session de signature introuvable ou déjà conclue"})
	case errors.Is(err, domain.ErrSessionExpired):
		return c.Status(fiber.StatusGone).JSON(dto.ErrorResponse{Code: "SESSION_EXPIRED", Message: "session de signature expirée"})
	case errors.Is(err, domain.ErrRemoteService):
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "REMOTE_SERVICE", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
