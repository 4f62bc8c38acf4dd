package ttn

import (
	"context"
	"fmt"
	"time"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/dto"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
	domteif "github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/teif"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/repository"
	infrattn "github.com/zhanisana-byte/facturetn-crm-sub001/internal/infrastructure/ttn"
	pkgteif "github.com/zhanisana-byte/facturetn-crm-sub001/pkg/teif"
)

// Consult interroge consultEfact et synchronise l'état local avec la
// décision TTN. Un état terminal n'est jamais écrasé par une réponse
// ambiguë; une décision franche (acceptée/rejetée) l'emporte toujours.
func (uc *TTNUseCase) Consult(ctx context.Context, companyID, invoiceID, actor string) (*dto.ConsultResponse, error) {
	if err := uc.requireTTNCapability(ctx, companyID); err != nil {
		return nil, err
	}
	sctx, err := uc.loadSendContext(ctx, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	invoice := sctx.invoice
	if invoice.TTNSaveID == "" && invoice.TTNRef == "" {
		// Jamais déposée: rien à consulter.
		return nil, domain.ErrInvalidInput
	}

	criteria := infrattn.ConsultCriteria{DocumentType: documentTypeOf(invoice)}
	if invoice.TTNRef != "" {
		criteria.GeneratedRef = invoice.TTNRef
	} else {
		criteria.IDSaveEfact = invoice.TTNSaveID
	}

	result, err := uc.submitter.ConsultEfact(ctx, sctx.wsConfig, criteria)
	if err != nil {
		return nil, fmt.Errorf("consultEfact: %v: %w", err, domain.ErrRemoteService)
	}
	if !result.OK {
		return nil, fmt.Errorf("consultEfact refusé (HTTP %d): %w", result.HTTPStatus, domain.ErrRemoteService)
	}

	next, changed := domteif.NextStatus(invoice.TTNStatus, result.Etat)
	refUpdated := result.GeneratedRef != "" && result.GeneratedRef != invoice.TTNRef

	if changed || refUpdated {
		invoice.TTNStatus = next
		if result.GeneratedRef != "" {
			invoice.TTNRef = result.GeneratedRef
		}
		if changed && entity.TTNStatusTerminal(next) {
			now := time.Now()
			invoice.DecidedAt = &now
			invoice.TTNError = ""
			if next == entity.TTNStatusRejected {
				invoice.TTNError = result.Message
			}
		}
		err = uc.txRunner.RunTTN(ctx, func(
			invoiceRepo repository.InvoiceRepository,
			queueRepo repository.QueueRepository,
			eventRepo repository.EventRepository,
		) error {
			if err := invoiceRepo.SetTTNResult(ctx, invoice); err != nil {
				return err
			}
			if err := eventRepo.Append(ctx, newEvent(invoice, entity.EventTTNConsulted, actor, map[string]any{
				"etat":          result.Etat,
				"generated_ref": result.GeneratedRef,
			})); err != nil {
				return err
			}
			if changed && entity.TTNStatusTerminal(next) {
				decisionEvent := entity.EventTTNAccepted
				if next == entity.TTNStatusRejected {
					decisionEvent = entity.EventTTNRejected
				}
				return eventRepo.Append(ctx, newEvent(invoice, decisionEvent, actor, map[string]any{
					"etat":    result.Etat,
					"message": result.Message,
				}))
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else {
		// Pas de changement d'état: on trace quand même la consultation.
		if err := uc.eventRepo.Append(ctx, newEvent(invoice, entity.EventTTNConsulted, actor, map[string]any{
			"etat": result.Etat,
		})); err != nil {
			return nil, err
		}
	}

	return &dto.ConsultResponse{
		InvoiceID: invoiceID,
		TTNStatus: invoice.TTNStatus,
		Etat:      result.Etat,
		TTNRef:    invoice.TTNRef,
		Message:   result.Message,
		Changed:   changed,
	}, nil
}

// documentTypeOf retourne le code TEIF du type de document (I-11 facture,
// I-12 facture d'avoir).
func documentTypeOf(invoice *entity.Invoice) string {
	if invoice.DocType == entity.DocTypeCreditNote {
		return pkgteif.DocTypeAvoir
	}
	return pkgteif.DocTypeFacture
}
