package ttn

import (
	"context"
	"fmt"
	"time"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/dto"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/repository"
	infrateif "github.com/zhanisana-byte/facturetn-crm-sub001/internal/infrastructure/teif"
	pkgteif "github.com/zhanisana-byte/facturetn-crm-sub001/pkg/teif"
)

// sendableFrom liste les états depuis lesquels un dépôt peut partir. Une
// facture rejetée peut être corrigée puis redéposée.
var sendableFrom = []string{entity.TTNStatusNotSent, entity.TTNStatusScheduled, entity.TTNStatusRejected}

// Send dépose la facture sur El Fatoora via saveEfact. Le verrou optimiste
// sur ttn_status garantit qu'un seul dépôt gagne quand le bouton "envoyer"
// et le scheduler partent en même temps.
func (uc *TTNUseCase) Send(ctx context.Context, companyID, invoiceID, actor string) (*dto.SendInvoiceResponse, error) {
	if err := uc.requireTTNCapability(ctx, companyID); err != nil {
		return nil, err
	}
	sctx, err := uc.loadSendContext(ctx, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := checkSendable(sctx); err != nil {
		return nil, err
	}

	document, err := uc.documentForSend(ctx, sctx)
	if err != nil {
		// Document incomplet ou ingénérable: la facture est marquée rejetée
		// avec le détail, comme pour un refus TTN.
		uc.recordSendFailure(ctx, sctx.invoice, actor, err.Error())
		return nil, err
	}
	document, report, err := infrateif.EnforceMaxSize(document)
	if err != nil {
		uc.recordSendFailure(ctx, sctx.invoice, actor, err.Error())
		return nil, err
	}

	// Verrou: un seul acteur fait passer la facture en submitted.
	prev := sctx.invoice.TTNStatus
	locked, err := uc.invoiceRepo.UpdateTTNStatusIf(ctx, invoiceID, entity.TTNStatusSubmitted, sendableFrom)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, domain.ErrInvoiceLocked
	}

	// Trace avant l'appel: si le processus meurt pendant saveEfact, le
	// journal explique pourquoi la facture est restée en submitted.
	if err := uc.eventRepo.Append(ctx, newEvent(sctx.invoice, entity.EventTTNPending, actor, map[string]any{
		"document_size": report.FinalSize,
		"trimmed":       report.Trimmed,
	})); err != nil {
		// Le webservice n'a pas été appelé: on rend le verrou tel quel.
		if _, rerr := uc.invoiceRepo.UpdateTTNStatusIf(ctx, invoiceID, prev, []string{entity.TTNStatusSubmitted}); rerr != nil {
			uc.log.Error().Err(rerr).Str("invoice_id", invoiceID).Msg("restitution du verrou impossible")
		}
		return nil, err
	}

	result, err := uc.submitter.SaveEfact(ctx, sctx.wsConfig, document)
	if err != nil {
		uc.recordSendFailure(ctx, sctx.invoice, actor, err.Error())
		return nil, fmt.Errorf("saveEfact: %v: %w", err, domain.ErrRemoteService)
	}
	if !result.OK || result.IDSaveEfact == "" {
		msg := fmt.Sprintf("saveEfact refusé (HTTP %d)", result.HTTPStatus)
		uc.recordSendFailure(ctx, sctx.invoice, actor, msg)
		return nil, fmt.Errorf("%s: %w", msg, domain.ErrRemoteService)
	}

	now := time.Now()
	sctx.invoice.TTNStatus = entity.TTNStatusSubmitted
	sctx.invoice.TTNSaveID = result.IDSaveEfact
	sctx.invoice.TTNError = ""
	sctx.invoice.SubmittedAt = &now

	err = uc.txRunner.RunTTN(ctx, func(
		invoiceRepo repository.InvoiceRepository,
		queueRepo repository.QueueRepository,
		eventRepo repository.EventRepository,
	) error {
		if err := invoiceRepo.SetTTNResult(ctx, sctx.invoice); err != nil {
			return err
		}
		// L'intention différée est consommée, qu'elle existe ou non.
		if err := queueRepo.Delete(ctx, invoiceID); err != nil && err != domain.ErrNotFound {
			return err
		}
		return eventRepo.Append(ctx, newEvent(sctx.invoice, entity.EventTTNSubmitted, actor, map[string]any{
			"id_save_efact": result.IDSaveEfact,
			"document_size": report.FinalSize,
			"trimmed":       report.Trimmed,
		}))
	})
	if err != nil {
		// La TTN a accepté le dépôt mais la persistance a échoué: le cas le
		// plus dangereux. On retente l'écriture de l'idSaveEfact hors
		// transaction puis on trace coûte que coûte; la consultation sert de
		// rattrapage.
		if serr := uc.invoiceRepo.SetTTNResult(ctx, sctx.invoice); serr != nil {
			uc.log.Error().Err(serr).Str("invoice_id", invoiceID).
				Str("id_save_efact", result.IDSaveEfact).
				Msg("écriture de l'idSaveEfact impossible après dépôt accepté")
		}
		if perr := uc.eventRepo.Append(ctx, newEvent(sctx.invoice, entity.EventTTNUpdateBlocked, actor, map[string]any{
			"id_save_efact": result.IDSaveEfact,
			"error":         err.Error(),
		})); perr != nil {
			uc.log.Error().Err(perr).Str("invoice_id", invoiceID).
				Str("id_save_efact", result.IDSaveEfact).
				Msg("journalisation bloquée après dépôt accepté")
		}
		return nil, err
	}

	uc.log.Info().
		Str("invoice_id", invoiceID).
		Str("id_save_efact", result.IDSaveEfact).
		Bool("trimmed", report.Trimmed).
		Msg("facture déposée sur El Fatoora")

	return &dto.SendInvoiceResponse{
		InvoiceID: invoiceID,
		TTNStatus: entity.TTNStatusSubmitted,
		TTNSaveID: result.IDSaveEfact,
		Trimmed:   report.Trimmed,
	}, nil
}

// checkSendable applique les règles métier bloquantes avant tout dépôt.
func checkSendable(sctx *sendContext) error {
	if sctx.invoice.DocType == entity.DocTypeQuote {
		return domain.ErrQuoteNotSendable
	}
	if sctx.invoice.Currency != pkgteif.CurrencyTND {
		return domain.ErrCurrencyNotAllowed
	}
	if !sctx.invoice.Validated {
		return domain.ErrValidationRequired
	}
	if sctx.credential.RequireSignature && sctx.invoice.SignatureStatus != entity.SignStatusSigned {
		return domain.ErrSignatureRequired
	}
	return nil
}

// documentForSend retourne le XML à déposer: le XML signé s'il existe,
// sinon le document généré avec les contrôles stricts.
func (uc *TTNUseCase) documentForSend(ctx context.Context, sctx *sendContext) ([]byte, error) {
	if sctx.invoice.SignatureStatus == entity.SignStatusSigned {
		sig, err := uc.signatureRepo.GetByInvoiceID(ctx, sctx.invoice.ID)
		if err != nil {
			return nil, err
		}
		return []byte(sig.SignedXML), nil
	}
	return uc.xmlBuilder.Build(&infrateif.BuildContext{
		Invoice:   sctx.invoice,
		Company:   sctx.company,
		Customer:  sctx.customer,
		Items:     sctx.items,
		Totals:    totalsOf(sctx),
		Matricule: sctx.wsConfig.Matricule,
		Purpose:   infrateif.PurposeTTN,
	})
}

// recordSendFailure marque la facture rejetée avec le détail de l'échec et
// journalise. Une facture rejetée reste redéposable après correction. Best
// effort: un échec de persistance est logué mais ne masque pas l'erreur
// d'origine.
func (uc *TTNUseCase) recordSendFailure(ctx context.Context, invoice *entity.Invoice, actor, msg string) {
	invoice.TTNStatus = entity.TTNStatusRejected
	invoice.TTNError = msg
	err := uc.txRunner.RunTTN(ctx, func(
		invoiceRepo repository.InvoiceRepository,
		queueRepo repository.QueueRepository,
		eventRepo repository.EventRepository,
	) error {
		if err := invoiceRepo.SetTTNResult(ctx, invoice); err != nil {
			return err
		}
		return eventRepo.Append(ctx, newEvent(invoice, entity.EventTTNSubmitFailed, actor, map[string]any{
			"error": msg,
		}))
	})
	if err != nil {
		uc.log.Error().Err(err).Str("invoice_id", invoice.ID).Msg("échec de persistance après saveEfact en erreur")
	}
}
