// Package signing orchestre les deux parcours de signature électronique des
// factures: la signature distante DigiGo (OAuth) et l'agent local à clé USB
// (appairage par jeton à usage unique).
package signing

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
	domteif "github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/teif"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/repository"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/infrastructure/digigo"
	infrateif "github.com/zhanisana-byte/facturetn-crm-sub001/internal/infrastructure/teif"
	"github.com/zhanisana-byte/facturetn-crm-sub001/pkg/logger"
	pkgteif "github.com/zhanisana-byte/facturetn-crm-sub001/pkg/teif"
)

// Config du parcours de signature côté cas d'usage.
type Config struct {
	Environment string // Environnement TTN dont on charge l'identifiant
	PublicURL   string // URL publique de l'API, pour les liens profonds agent
}

// UseCase regroupe les parcours DigiGo et agent local.
type UseCase struct {
	invoiceRepo    repository.InvoiceRepository
	companyRepo    repository.CompanyRepository
	customerRepo   repository.CustomerRepository
	credentialRepo repository.CredentialRepository
	signatureRepo  repository.SignatureRepository
	sessionRepo    repository.SignSessionRepository
	pairingRepo    repository.PairingTokenRepository
	signTokenRepo  repository.SignTokenRepository
	eventRepo      repository.EventRepository
	txRunner       TxRunner
	xmlBuilder     *infrateif.XMLBuilderService
	signer         digigo.Signer
	cfg            Config
	log            *logger.Logger
}

// NewUseCase construit le cas d'usage avec toutes ses dépendances.
func NewUseCase(
	invoiceRepo repository.InvoiceRepository,
	companyRepo repository.CompanyRepository,
	customerRepo repository.CustomerRepository,
	credentialRepo repository.CredentialRepository,
	signatureRepo repository.SignatureRepository,
	sessionRepo repository.SignSessionRepository,
	pairingRepo repository.PairingTokenRepository,
	signTokenRepo repository.SignTokenRepository,
	eventRepo repository.EventRepository,
	txRunner TxRunner,
	xmlBuilder *infrateif.XMLBuilderService,
	signer digigo.Signer,
	cfg Config,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		invoiceRepo:    invoiceRepo,
		companyRepo:    companyRepo,
		customerRepo:   customerRepo,
		credentialRepo: credentialRepo,
		signatureRepo:  signatureRepo,
		sessionRepo:    sessionRepo,
		pairingRepo:    pairingRepo,
		signTokenRepo:  signTokenRepo,
		eventRepo:      eventRepo,
		txRunner:       txRunner,
		xmlBuilder:     xmlBuilder,
		signer:         signer,
		cfg:            cfg,
		log:            log,
	}
}

// signContext regroupe les données d'un parcours de signature.
type signContext struct {
	invoice    *entity.Invoice
	company    *entity.Company
	customer   *entity.Customer
	items      []*entity.InvoiceItem
	credential *entity.Credential
}

// loadSignContext charge la facture et vérifie qu'elle est signable: doc
// non devis, validée, pas encore entrée dans le pipeline TTN.
func (uc *UseCase) loadSignContext(ctx context.Context, companyID, invoiceID string) (*signContext, error) {
	ok, err := uc.companyRepo.HasCapability(ctx, companyID, entity.CapabilitySignature)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrForbidden
	}
	invoice, err := uc.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	if invoice.DocType == entity.DocTypeQuote {
		return nil, domain.ErrQuoteNotSendable
	}
	if !invoice.Validated {
		return nil, domain.ErrValidationRequired
	}
	if invoice.TTNStatus == entity.TTNStatusSubmitted || entity.TTNStatusTerminal(invoice.TTNStatus) {
		return nil, domain.ErrInvoiceLocked
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
	credential, err := uc.credentialRepo.GetActive(ctx, companyID, uc.cfg.Environment)
	if err != nil {
		if err == domain.ErrNotFound {
			return nil, domain.ErrNotConfigured
		}
		return nil, err
	}
	return &signContext{
		invoice:    invoice,
		company:    company,
		customer:   customer,
		items:      items,
		credential: credential,
	}, nil
}

// buildUnsignedXML génère le document TEIF complet (contrôles stricts) que
// la signature va couvrir.
func (uc *UseCase) buildUnsignedXML(sctx *signContext) ([]byte, error) {
	return uc.xmlBuilder.Build(&infrateif.BuildContext{
		Invoice:   sctx.invoice,
		Company:   sctx.company,
		Customer:  sctx.customer,
		Items:     sctx.items,
		Totals:    totalsOf(sctx),
		Matricule: sctx.credential.EffectiveMatricule(sctx.company.TaxID),
		Purpose:   infrateif.PurposeTTN,
	})
}

// storeSignedXML enregistre les deux états du document avec leurs empreintes
// canonisées, passe la facture à signed et journalise, dans une seule
// transaction. L'empreinte du document signé est recalculée après injection
// et retournée à l'appelant.
func (uc *UseCase) storeSignedXML(ctx context.Context, invoice *entity.Invoice, provider string, unsignedXML, signedXML []byte, actor string) (string, error) {
	signedHash := pkgteif.CanonicalDigest(signedXML)
	sig := &entity.InvoiceSignature{
		ID:           uuid.New().String(),
		InvoiceID:    invoice.ID,
		Provider:     provider,
		UnsignedXML:  string(unsignedXML),
		UnsignedHash: pkgteif.CanonicalDigest(unsignedXML),
		SignedXML:    string(signedXML),
		SignedHash:   signedHash,
		SignedAt:     time.Now(),
	}
	err := uc.txRunner.RunSignature(ctx, func(
		invoiceRepo repository.InvoiceRepository,
		signatureRepo repository.SignatureRepository,
		eventRepo repository.EventRepository,
	) error {
		if err := signatureRepo.Upsert(ctx, sig); err != nil {
			return err
		}
		if err := invoiceRepo.SetSignatureStatus(ctx, invoice.ID, entity.SignStatusSigned); err != nil {
			return err
		}
		return eventRepo.Append(ctx, &entity.Event{
			ID:        uuid.New().String(),
			InvoiceID: invoice.ID,
			CompanyID: invoice.CompanyID,
			Type:      entity.EventSignatureCompleted,
			Detail:    mustJSON(map[string]any{"provider": provider, "signed_hash": signedHash}),
			Actor:     actor,
			CreatedAt: time.Now(),
		})
	})
	if err != nil {
		return "", err
	}
	return signedHash, nil
}

// markSignatureFailed passe la facture à failed et journalise, best effort.
func (uc *UseCase) markSignatureFailed(ctx context.Context, invoice *entity.Invoice, actor, msg string) {
	if err := uc.invoiceRepo.SetSignatureStatus(ctx, invoice.ID, entity.SignStatusFailed); err != nil {
		uc.log.Error().Err(err).Str("invoice_id", invoice.ID).Msg("passage à sign failed impossible")
	}
	event := &entity.Event{
		ID:        uuid.New().String(),
		InvoiceID: invoice.ID,
		CompanyID: invoice.CompanyID,
		Type:      entity.EventSignatureFailed,
		Detail:    mustJSON(map[string]any{"error": msg}),
		Actor:     actor,
		CreatedAt: time.Now(),
	}
	if err := uc.eventRepo.Append(ctx, event); err != nil {
		uc.log.Error().Err(err).Str("invoice_id", invoice.ID).Msg("journalisation de l'échec de signature impossible")
	}
}

func totalsOf(sctx *signContext) domteif.Totals {
	return domteif.ComputeTotals(sctx.items, sctx.invoice.StampDuty)
}

func mustJSON(detail map[string]any) []byte {
	payload, _ := json.Marshal(detail)
	return payload
}
