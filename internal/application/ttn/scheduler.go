package ttn

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/repository"
	"github.com/zhanisana-byte/facturetn-crm-sub001/pkg/logger"
)

// maxAttempts nombre d'essais avant d'abandonner une intention d'envoi.
const maxAttempts = 5

// Scheduler balaie périodiquement la file ttn_invoice_queue et déclenche les
// envois échus. Les échecs transitoires sont réessayés au balayage suivant;
// après maxAttempts l'intention est abandonnée. La facture garde alors le
// statut rejeté posé par le dernier échec, avec la dernière erreur.
type Scheduler struct {
	uc        *TTNUseCase
	queueRepo repository.QueueRepository
	interval  time.Duration
	batchSize int
	log       *logger.Logger
}

// NewScheduler construit le worker.
func NewScheduler(uc *TTNUseCase, queueRepo repository.QueueRepository, interval time.Duration, batchSize int, log *logger.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	if batchSize <= 0 {
		batchSize = 20
	}
	return &Scheduler{uc: uc, queueRepo: queueRepo, interval: interval, batchSize: batchSize, log: log}
}

// Run boucle jusqu'à annulation du contexte. À lancer dans sa propre
// goroutine depuis main.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info().
		Dur("interval", s.interval).
		Int("batch_size", s.batchSize).
		Msg("scheduler d'envois TTN démarré")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("scheduler d'envois TTN arrêté")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep traite un lot d'intentions échues. Exporté pour les tests.
func (s *Scheduler) Sweep(ctx context.Context) {
	entries, err := s.queueRepo.ListDue(ctx, time.Now(), s.batchSize)
	if err != nil {
		s.log.Error().Err(err).Msg("lecture de la file d'envois différés impossible")
		return
	}
	for _, entry := range entries {
		s.processEntry(ctx, entry)
	}
}

func (s *Scheduler) processEntry(ctx context.Context, entry *entity.QueueEntry) {
	_, err := s.uc.Send(ctx, entry.CompanyID, entry.InvoiceID, entity.ActorScheduler)
	if err == nil {
		// Send a supprimé l'entrée de la file dans sa transaction.
		s.log.Info().Str("invoice_id", entry.InvoiceID).Msg("envoi différé effectué")
		return
	}

	if errors.Is(err, domain.ErrInvoiceLocked) || errors.Is(err, domain.ErrNotFound) {
		// Quelqu'un a déposé la facture entre-temps, ou elle a disparu:
		// l'intention n'a plus d'objet.
		if derr := s.queueRepo.Delete(ctx, entry.InvoiceID); derr != nil && !errors.Is(derr, domain.ErrNotFound) {
			s.log.Error().Err(derr).Str("invoice_id", entry.InvoiceID).Msg("purge d'une intention caduque impossible")
		}
		return
	}

	s.log.Warn().Err(err).
		Str("invoice_id", entry.InvoiceID).
		Int("attempts", entry.Attempts+1).
		Msg("envoi différé en échec")

	if rerr := s.queueRepo.RecordAttempt(ctx, entry.ID, err.Error()); rerr != nil {
		s.log.Error().Err(rerr).Str("invoice_id", entry.InvoiceID).Msg("enregistrement de l'essai impossible")
	}
	if entry.Attempts+1 >= maxAttempts {
		s.abandon(ctx, entry, err.Error())
	}
}

// abandon retire l'intention. Une facture encore en scheduled (échec avant
// tout marquage) redevient not_sent; une facture déjà rejetée le reste.
func (s *Scheduler) abandon(ctx context.Context, entry *entity.QueueEntry, lastErr string) {
	err := s.uc.txRunner.RunTTN(ctx, func(
		invoiceRepo repository.InvoiceRepository,
		queueRepo repository.QueueRepository,
		eventRepo repository.EventRepository,
	) error {
		if _, err := invoiceRepo.UpdateTTNStatusIf(ctx, entry.InvoiceID,
			entity.TTNStatusNotSent, []string{entity.TTNStatusScheduled}); err != nil {
			return err
		}
		if err := queueRepo.Delete(ctx, entry.InvoiceID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return eventRepo.Append(ctx, &entity.Event{
			ID:        uuid.New().String(),
			InvoiceID: entry.InvoiceID,
			CompanyID: entry.CompanyID,
			Type:      entity.EventTTNSubmitFailed,
			Detail:    []byte(`{"abandoned":true}`),
			Actor:     entity.ActorScheduler,
			CreatedAt: time.Now(),
		})
	})
	if err != nil {
		s.log.Error().Err(err).Str("invoice_id", entry.InvoiceID).Msg("abandon de l'intention impossible")
		return
	}
	s.log.Error().
		Str("invoice_id", entry.InvoiceID).
		Str("last_error", lastErr).
		Msg("intention d'envoi abandonnée après essais répétés")
}
