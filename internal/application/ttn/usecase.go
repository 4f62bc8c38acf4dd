package ttn

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/dto"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/repository"
	infrateif "github.com/zhanisana-byte/facturetn-crm-sub001/internal/infrastructure/teif"
	infrattn "github.com/zhanisana-byte/facturetn-crm-sub001/internal/infrastructure/ttn"
	"github.com/zhanisana-byte/facturetn-crm-sub001/pkg/logger"
)

// Config du connecteur El Fatoora côté cas d'usage.
type Config struct {
	DefaultWSURL string // Endpoint SOAP si l'identifiant n'en fixe pas
	Environment  string // test ou prod
}

// TTNUseCase orchestre le pipeline d'envoi El Fatoora: génération TEIF,
// dépôt saveEfact, planification différée et consultation d'état.
type TTNUseCase struct {
	invoiceRepo    repository.InvoiceRepository
	companyRepo    repository.CompanyRepository
	customerRepo   repository.CustomerRepository
	credentialRepo repository.CredentialRepository
	signatureRepo  repository.SignatureRepository
	queueRepo      repository.QueueRepository
	eventRepo      repository.EventRepository
	txRunner       TxRunner
	xmlBuilder     *infrateif.XMLBuilderService
	submitter      infrattn.Submitter
	cfg            Config
	log            *logger.Logger
}

// NewTTNUseCase construit le cas d'usage avec toutes ses dépendances.
func NewTTNUseCase(
	invoiceRepo repository.InvoiceRepository,
	companyRepo repository.CompanyRepository,
	customerRepo repository.CustomerRepository,
	credentialRepo repository.CredentialRepository,
	signatureRepo repository.SignatureRepository,
	queueRepo repository.QueueRepository,
	eventRepo repository.EventRepository,
	txRunner TxRunner,
	xmlBuilder *infrateif.XMLBuilderService,
	submitter infrattn.Submitter,
	cfg Config,
	log *logger.Logger,
) *TTNUseCase {
	return &TTNUseCase{
		invoiceRepo:    invoiceRepo,
		companyRepo:    companyRepo,
		customerRepo:   customerRepo,
		credentialRepo: credentialRepo,
		signatureRepo:  signatureRepo,
		queueRepo:      queueRepo,
		eventRepo:      eventRepo,
		txRunner:       txRunner,
		xmlBuilder:     xmlBuilder,
		submitter:      submitter,
		cfg:            cfg,
		log:            log,
	}
}

// sendContext regroupe les données chargées pour un envoi ou une consultation.
type sendContext struct {
	invoice    *entity.Invoice
	company    *entity.Company
	customer   *entity.Customer
	items      []*entity.InvoiceItem
	credential *entity.Credential
	wsConfig   infrattn.Config
}

// loadSendContext charge facture, entreprise, client, lignes et identifiant
// TTN actif, et vérifie l'appartenance à l'entreprise.
func (uc *TTNUseCase) loadSendContext(ctx context.Context, companyID, invoiceID string) (*sendContext, error) {
	invoice, err := uc.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	company, err := uc.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	customer, err := uc.customerRepo.GetByID(ctx, invoice.CustomerID)
	if err != nil {
		return nil, err
	}
	items, err := uc.invoiceRepo.GetItemsByInvoiceID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	credential, err := uc.loadCredential(ctx, companyID)
	if err != nil {
		return nil, err
	}
	sctx := &sendContext{
		invoice:    invoice,
		company:    company,
		customer:   customer,
		items:      items,
		credential: credential,
	}
	sctx.wsConfig = infrattn.Config{
		URL:       credential.WSURL,
		Login:     credential.WSLogin,
		Password:  credential.WSPassword,
		Matricule: credential.EffectiveMatricule(company.TaxID),
	}
	if sctx.wsConfig.URL == "" {
		sctx.wsConfig.URL = uc.cfg.DefaultWSURL
	}
	return sctx, nil
}

// loadCredential sélectionne l'identifiant actif de l'entreprise: la
// production est préférée quand elle est complète (login + mot de passe),
// sinon repli sur l'environnement de test. Un déploiement configuré en test
// ne touche jamais la production. ErrNotConfigured si aucun identifiant
// complet n'existe.
func (uc *TTNUseCase) loadCredential(ctx context.Context, companyID string) (*entity.Credential, error) {
	environments := []string{entity.EnvProd, entity.EnvTest}
	if uc.cfg.Environment == entity.EnvTest {
		environments = []string{entity.EnvTest}
	}
	for _, env := range environments {
		credential, err := uc.credentialRepo.GetActive(ctx, companyID, env)
		if err == domain.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		if credential.WSLogin != "" && credential.WSPassword != "" {
			return credential, nil
		}
	}
	return nil, domain.ErrNotConfigured
}

// requireTTNCapability vérifie que l'entreprise dispose de la capacité TTN.
func (uc *TTNUseCase) requireTTNCapability(ctx context.Context, companyID string) error {
	ok, err := uc.companyRepo.HasCapability(ctx, companyID, entity.CapabilityTTN)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrForbidden
	}
	return nil
}

// Status retourne l'état TTN léger d'une facture (polling frontend).
func (uc *TTNUseCase) Status(ctx context.Context, companyID, invoiceID string) (*dto.TTNStatusResponse, error) {
	invoice, err := uc.invoiceRepo.GetTTNStatus(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return &dto.TTNStatusResponse{
		InvoiceID:       invoice.ID,
		TTNStatus:       invoice.TTNStatus,
		SignatureStatus: invoice.SignatureStatus,
		TTNSaveID:       invoice.TTNSaveID,
		TTNRef:          invoice.TTNRef,
		TTNError:        invoice.TTNError,
		SubmittedAt:     invoice.SubmittedAt,
		DecidedAt:       invoice.DecidedAt,
	}, nil
}

// ListEvents retourne le journal d'audit TTN d'une facture.
func (uc *TTNUseCase) ListEvents(ctx context.Context, companyID, invoiceID string) ([]*dto.EventResponse, error) {
	invoice, err := uc.invoiceRepo.GetTTNStatus(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	events, err := uc.eventRepo.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.EventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, &dto.EventResponse{
			ID:        ev.ID,
			Type:      ev.Type,
			Detail:    string(ev.Detail),
			Actor:     ev.Actor,
			CreatedAt: ev.CreatedAt,
		})
	}
	return out, nil
}

// newEvent fabrique une entrée de journal avec charge utile JSON.
func newEvent(invoice *entity.Invoice, eventType, actor string, detail map[string]any) *entity.Event {
	var payload []byte
	if len(detail) > 0 {
		payload, _ = json.Marshal(detail)
	}
	return &entity.Event{
		ID:        uuid.New().String(),
		InvoiceID: invoice.ID,
		CompanyID: invoice.CompanyID,
		Type:      eventType,
		Detail:    payload,
		Actor:     actor,
		CreatedAt: time.Now(),
	}
}
