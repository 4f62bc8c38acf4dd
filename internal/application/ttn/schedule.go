package ttn

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/dto"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/repository"
)

// Schedule enregistre une intention d'envoi différé. Sans date fournie,
// l'envoi est planifié après le délai par défaut, ce qui laisse une fenêtre
// d'annulation après le clic. Replanifier une facture déjà planifiée déplace
// simplement la date.
func (uc *TTNUseCase) Schedule(ctx context.Context, companyID, invoiceID, userID string, in dto.ScheduleInvoiceRequest) (*dto.ScheduleInvoiceResponse, error) {
	if err := uc.requireTTNCapability(ctx, companyID); err != nil {
		return nil, err
	}
	sctx, err := uc.loadSendContext(ctx, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	// Mêmes règles bloquantes qu'un envoi immédiat: inutile de planifier un
	// dépôt qui échouera à coup sûr.
	if err := checkSendable(sctx); err != nil {
		return nil, err
	}

	scheduledAt := time.Now().Add(entity.DefaultScheduleDelay)
	if in.ScheduledAt != nil {
		if in.ScheduledAt.Before(time.Now()) {
			return nil, domain.ErrInvalidInput
		}
		scheduledAt = *in.ScheduledAt
	}

	entry := &entity.QueueEntry{
		ID:          uuid.New().String(),
		InvoiceID:   invoiceID,
		CompanyID:   companyID,
		ScheduledAt: scheduledAt,
		CreatedBy:   userID,
	}

	err = uc.txRunner.RunTTN(ctx, func(
		invoiceRepo repository.InvoiceRepository,
		queueRepo repository.QueueRepository,
		eventRepo repository.EventRepository,
	) error {
		ok, err := invoiceRepo.UpdateTTNStatusIf(ctx, invoiceID, entity.TTNStatusScheduled, sendableFrom)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInvoiceLocked
		}
		if err := queueRepo.Upsert(ctx, entry); err != nil {
			return err
		}
		return eventRepo.Append(ctx, newEvent(sctx.invoice, entity.EventTTNScheduled, userID, map[string]any{
			"scheduled_at": scheduledAt,
		}))
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("invoice_id", invoiceID).
		Time("scheduled_at", scheduledAt).
		Msg("envoi TTN planifié")

	return &dto.ScheduleInvoiceResponse{
		InvoiceID:   invoiceID,
		TTNStatus:   entity.TTNStatusScheduled,
		ScheduledAt: scheduledAt,
	}, nil
}

// CancelSchedule retire l'intention d'envoi différé tant que le scheduler ne
// l'a pas consommée. La facture revient à not_sent.
func (uc *TTNUseCase) CancelSchedule(ctx context.Context, companyID, invoiceID, userID string) error {
	invoice, err := uc.invoiceRepo.GetTTNStatus(ctx, invoiceID)
	if err != nil {
		return err
	}
	if invoice.CompanyID != companyID {
		return domain.ErrForbidden
	}

	return uc.txRunner.RunTTN(ctx, func(
		invoiceRepo repository.InvoiceRepository,
		queueRepo repository.QueueRepository,
		eventRepo repository.EventRepository,
	) error {
		ok, err := invoiceRepo.UpdateTTNStatusIf(ctx, invoiceID, entity.TTNStatusNotSent, []string{entity.TTNStatusScheduled})
		if err != nil {
			return err
		}
		if !ok {
			// Déjà partie ou jamais planifiée: rien à annuler.
			return domain.ErrConflict
		}
		if err := queueRepo.Delete(ctx, invoiceID); err != nil && err != domain.ErrNotFound {
			return err
		}
		return eventRepo.Append(ctx, newEvent(invoice, entity.EventTTNScheduleCancel, userID, nil))
	})
}
