package ttn_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/ttn"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
	infrateif "github.com/zhanisana-byte/facturetn-crm-sub001/internal/infrastructure/teif"
	infrattn "github.com/zhanisana-byte/facturetn-crm-sub001/internal/infrastructure/ttn"
	"github.com/zhanisana-byte/facturetn-crm-sub001/pkg/logger"
)

func newTestUseCase(f *fixture) *ttn.TTNUseCase {
	return ttn.NewTTNUseCase(
		f.invoiceRepo, f.companyRepo, f.customerRepo, f.credentialRepo,
		f.signatureRepo, f.queueRepo, f.eventRepo,
		&fakeTxRunner{invoiceRepo: f.invoiceRepo, queueRepo: f.queueRepo, eventRepo: f.eventRepo, fail: f.txFail},
		infrateif.NewXMLBuilderService(),
		f.submitter,
		ttn.Config{DefaultWSURL: "https://ws.example.test/EfactService", Environment: entity.EnvTest},
		logger.New(logger.Config{Env: "development", Level: "error"}),
	)
}

// newProdUseCase même montage mais avec un déploiement configuré en
// production, pour exercer la sélection d'identifiant.
func newProdUseCase(f *fixture) *ttn.TTNUseCase {
	return ttn.NewTTNUseCase(
		f.invoiceRepo, f.companyRepo, f.customerRepo, f.credentialRepo,
		f.signatureRepo, f.queueRepo, f.eventRepo,
		&fakeTxRunner{invoiceRepo: f.invoiceRepo, queueRepo: f.queueRepo, eventRepo: f.eventRepo, fail: f.txFail},
		infrateif.NewXMLBuilderService(),
		f.submitter,
		ttn.Config{DefaultWSURL: "https://ws.example.test/EfactService", Environment: entity.EnvProd},
		logger.New(logger.Config{Env: "development", Level: "error"}),
	)
}

// saveOK scripte un saveEfact qui accepte le dépôt.
func saveOK(id string) func(infrattn.Config, []byte) (*infrattn.SaveResult, error) {
	return func(_ infrattn.Config, _ []byte) (*infrattn.SaveResult, error) {
		return &infrattn.SaveResult{OK: true, HTTPStatus: 200, IDSaveEfact: id}, nil
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Send
// ──────────────────────────────────────────────────────────────────────────────

func TestSend_DepotReussi(t *testing.T) {
	f := newFixture()
	f.submitter.saveFn = saveOK("SAVE-001")
	uc := newTestUseCase(f)

	resp, err := uc.Send(context.Background(), fixCompanyID, fixInvoiceID, fixUserID)
	require.NoError(t, err)

	assert.Equal(t, entity.TTNStatusSubmitted, resp.TTNStatus)
	assert.Equal(t, "SAVE-001", resp.TTNSaveID)

	inv := f.invoice()
	assert.Equal(t, entity.TTNStatusSubmitted, inv.TTNStatus)
	assert.Equal(t, "SAVE-001", inv.TTNSaveID)
	assert.Empty(t, inv.TTNError)
	require.NotNil(t, inv.SubmittedAt, "la date de dépôt doit être posée")

	assert.Equal(t, []string{entity.EventTTNPending, entity.EventTTNSubmitted}, f.eventRepo.types(fixInvoiceID),
		"la tentative puis le dépôt doivent être journalisés")
}

func TestSend_ConsommeIntentionPlanifiee(t *testing.T) {
	f := newFixture()
	f.submitter.saveFn = saveOK("SAVE-002")
	f.invoiceRepo.invoices[fixInvoiceID].TTNStatus = entity.TTNStatusScheduled
	f.queueRepo.entries[fixInvoiceID] = &entity.QueueEntry{
		ID: "q1", InvoiceID: fixInvoiceID, CompanyID: fixCompanyID,
	}
	uc := newTestUseCase(f)

	_, err := uc.Send(context.Background(), fixCompanyID, fixInvoiceID, fixUserID)
	require.NoError(t, err)

	_, err = f.queueRepo.GetByInvoiceID(context.Background(), fixInvoiceID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "l'intention différée doit être consommée")
}

func TestSend_DevisRefuse(t *testing.T) {
	f := newFixture()
	f.invoiceRepo.invoices[fixInvoiceID].DocType = entity.DocTypeQuote
	uc := newTestUseCase(f)

	_, err := uc.Send(context.Background(), fixCompanyID, fixInvoiceID, fixUserID)
	assert.ErrorIs(t, err, domain.ErrQuoteNotSendable)
}

func TestSend_DeviseNonTND(t *testing.T) {
	f := newFixture()
	f.invoiceRepo.invoices[fixInvoiceID].Currency = "EUR"
	uc := newTestUseCase(f)

	_, err := uc.Send(context.Background(), fixCompanyID, fixInvoiceID, fixUserID)
	assert.ErrorIs(t, err, domain.ErrCurrencyNotAllowed)
}

func TestSend_ValidationComptableRequise(t *testing.T) {
	f := newFixture()
	f.invoiceRepo.invoices[fixInvoiceID].Validated = false
	uc := newTestUseCase(f)

	_, err := uc.Send(context.Background(), fixCompanyID, fixInvoiceID, fixUserID)
	assert.ErrorIs(t, err, domain.ErrValidationRequired)
}

func TestSend_SignatureRequiseNonSignee(t *testing.T) {
	f := newFixture()
	f.credential().RequireSignature = true
	uc := newTestUseCase(f)

	_, err := uc.Send(context.Background(), fixCompanyID, fixInvoiceID, fixUserID)
	assert.ErrorIs(t, err, domain.ErrSignatureRequired)
}

func TestSend_SansIdentifiantConfigure(t *testing.T) {
	f := newFixture()
	f.credentialRepo.credentials = map[string]*entity.Credential{}
	uc := newTestUseCase(f)

	_, err := uc.Send(context.Background(), fixCompanyID, fixInvoiceID, fixUserID)
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

// ── Sélection d'identifiant selon l'environnement du déploiement ──

// En production, un client qui n'a configuré que l'environnement de test
// reste opérationnel: repli sur l'identifiant de test.
func TestSend_Prod_RepliSurIdentifiantTest(t *testing.T) {
	f := newFixture()
	var got infrattn.Config
	f.submitter.saveFn = func(cfg infrattn.Config, _ []byte) (*infrattn.SaveResult, error) {
		got = cfg
		return &infrattn.SaveResult{OK: true, HTTPStatus: 200, IDSaveEfact: "SAVE-030"}, nil
	}
	uc := newProdUseCase(f)

	_, err := uc.Send(context.Background(), fixCompanyID, fixInvoiceID, fixUserID)
	require.NoError(t, err)
	assert.Equal(t, "login-test", got.Login)
}

func TestSend_Prod_PrefereIdentifiantProd(t *testing.T) {
	f := newFixture()
	f.credentialRepo.put(&entity.Credential{
		ID:          "cr000000-0000-0000-0000-000000000002",
		CompanyID:   fixCompanyID,
		Environment: entity.EnvProd,
		WSLogin:     "login-prod",
		WSPassword:  "secret-prod",
		IsActive:    true,
	})
	var got infrattn.Config
	f.submitter.saveFn = func(cfg infrattn.Config, _ []byte) (*infrattn.SaveResult, error) {
		got = cfg
		return &infrattn.SaveResult{OK: true, HTTPStatus: 200, IDSaveEfact: "SAVE-031"}, nil
	}
	uc := newProdUseCase(f)

	_, err := uc.Send(context.Background(), fixCompanyID, fixInvoiceID, fixUserID)
	require.NoError(t, err)
	assert.Equal(t, "login-prod", got.Login)
}

// Un identifiant de production sans mot de passe n'est pas utilisable: le
// repli sur le test s'applique aussi dans ce cas.
func TestSend_Prod_IdentifiantProdIncomplet(t *testing.T) {
	f := newFixture()
	f.credentialRepo.put(&entity.Credential{
		ID:          "cr000000-0000-0000-0000-000000000003",
		CompanyID:   fixCompanyID,
		Environment: entity.EnvProd,
		WSLogin:     "login-prod",
		IsActive:    true,
	})
	var got infrattn.Config
	f.submitter.saveFn = func(cfg infrattn.Config, _ []byte) (*infrattn.SaveResult, error) {
		got = cfg
		return &infrattn.SaveResult{OK: true, HTTPStatus: 200, IDSaveEfact: "SAVE-032"}, nil
	}
	uc := newProdUseCase(f)

	_, err := uc.Send(context.Background(), fixCompanyID, fixInvoiceID, fixUserID)
	require.NoError(t, err)
	assert.Equal(t, "login-test", got.Login)
}

// Un déploiement de test ne touche jamais la production, même si c'est le
// seul identifiant configuré.
func TestSend_Test_IgnoreIdentifiantProd(t *testing.T) {
	f := newFixture()
	f.credentialRepo.credentials = map[string]*entity.Credential{}
	f.credentialRepo.put(&entity.Credential{
		ID:          "cr000000-0000-0000-0000-000000000004",
		CompanyID:   fixCompanyID,
		Environment: entity.EnvProd,
		WSLogin:     "login-prod",
		WSPassword:  "secret-prod",
		IsActive:    true,
	})
	uc := newTestUseCase(f)

	_, err := uc.Send(context.Background(), fixCompanyID, fixInvoiceID, fixUserID)
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestSend_SansCapaciteTTN(t *testing.T) {
	f := newFixture()
	f.companyRepo.capabilities[fixCompanyID][entity.CapabilityTTN] = false
	uc := newTestUseCase(f)

	_, err := uc.Send(context.Background(), fixCompanyID, fixInvoiceID, fixUserID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestSend_AutreEntreprise(t *testing.T) {
	f := newFixture()
	uc := newTestUseCase(f)

	_, err := uc.Send(context.Background(), "autre-company", fixInvoiceID, fixUserID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// Une facture déjà déposée ne repart pas: le verrou optimiste sur ttn_status
// renvoie ErrInvoiceLocked sans rappeler le webservice.
func TestSend_DejaDeposee_VerrouPerdu(t *testing.T) {
	f := newFixture()
	f.submitter.saveFn = saveOK("SAVE-003")
	f.invoiceRepo.invoices[fixInvoiceID].TTNStatus = entity.TTNStatusSubmitted
	uc := newTestUseCase(f)

	_, err := uc.Send(context.Background(), fixCompanyID, fixInvoiceID, fixUserID)
	assert.ErrorIs(t, err, domain.ErrInvoiceLocked)
	assert.Zero(t, f.submitter.saveCalls, "saveEfact ne doit pas être appelé")
}

func TestSend_RejeteeEstRedeposable(t *testing.T) {
	f := newFixture()
	f.submitter.saveFn = saveOK("SAVE-004")
	f.invoiceRepo.invoices[fixInvoiceID].TTNStatus = entity.TTNStatusRejected
	uc := newTestUseCase(f)

	resp, err := uc.Send(context.Background(), fixCompanyID, fixInvoiceID, fixUserID)
	require.NoError(t, err)
	assert.Equal(t, entity.TTNStatusSubmitted, resp.TTNStatus)
}

// Un échec réseau marque la facture rejetée avec le détail de l'erreur;
// une fois le problème corrigé, le dépôt peut repartir.
func TestSend_EchecWS_MarqueRejeteePuisRedeposable(t *testing.T) {
	f := newFixture()
	f.submitter.saveFn = func(_ infrattn.Config, _ []byte) (*infrattn.SaveResult, error) {
		return nil, errors.New("connexion refusée")
	}
	uc := newTestUseCase(f)

	_, err := uc.Send(context.Background(), fixCompanyID, fixInvoiceID, fixUserID)
	assert.ErrorIs(t, err, domain.ErrRemoteService)

	inv := f.invoice()
	assert.Equal(t, entity.TTNStatusRejected, inv.TTNStatus, "l'échec de dépôt vaut rejet")
	assert.Contains(t, inv.TTNError, "connexion refusée")
	assert.Equal(t, []string{entity.EventTTNPending, entity.EventTTNSubmitFailed},
		f.eventRepo.types(fixInvoiceID))

	f.submitter.saveFn = saveOK("SAVE-010")
	resp, err := uc.Send(context.Background(), fixCompanyID, fixInvoiceID, fixUserID)
	require.NoError(t, err)
	assert.Equal(t, entity.TTNStatusSubmitted, resp.TTNStatus)
	assert.Empty(t, f.invoice().TTNError, "le rejet précédent est effacé")
}

func TestSend_ReponseSansIDSaveEfact(t *testing.T) {
	f := newFixture()
	f.submitter.saveFn = func(_ infrattn.Config, _ []byte) (*infrattn.SaveResult, error) {
		return &infrattn.SaveResult{OK: false, HTTPStatus: 500}, nil
	}
	uc := newTestUseCase(f)

	_, err := uc.Send(context.Background(), fixCompanyID, fixInvoiceID, fixUserID)
	assert.ErrorIs(t, err, domain.ErrRemoteService)
	assert.Equal(t, entity.TTNStatusRejected, f.invoice().TTNStatus)
}

// Un document ingénérable (données client incomplètes) n'atteint jamais le
// webservice: la facture est rejetée avec le détail et l'échec journalisé.
func TestSend_DocumentIncomplet_MarqueRejetee(t *testing.T) {
	f := newFixture()
	f.customerRepo.customers[fixCustomerID].Name = ""
	uc := newTestUseCase(f)

	_, err := uc.Send(context.Background(), fixCompanyID, fixInvoiceID, fixUserID)
	require.Error(t, err)
	assert.Zero(t, f.submitter.saveCalls, "saveEfact ne doit pas être appelé")

	inv := f.invoice()
	assert.Equal(t, entity.TTNStatusRejected, inv.TTNStatus)
	assert.Contains(t, inv.TTNError, "client")
	assert.Equal(t, []string{entity.EventTTNSubmitFailed}, f.eventRepo.types(fixInvoiceID))
}

// La TTN a accepté le dépôt mais la persistance transactionnelle échoue:
// l'idSaveEfact est réécrit hors transaction et l'incident journalisé, pour
// que la consultation serve de rattrapage.
func TestSend_PersistanceBloqueeApresDepotAccepte(t *testing.T) {
	f := newFixture()
	f.submitter.saveFn = saveOK("SAVE-020")
	f.txFail = errors.New("connexion au pool perdue")
	uc := newTestUseCase(f)

	_, err := uc.Send(context.Background(), fixCompanyID, fixInvoiceID, fixUserID)
	require.Error(t, err)

	inv := f.invoice()
	assert.Equal(t, entity.TTNStatusSubmitted, inv.TTNStatus)
	assert.Equal(t, "SAVE-020", inv.TTNSaveID, "l'idSaveEfact doit survivre à l'échec de transaction")

	types := f.eventRepo.types(fixInvoiceID)
	require.Equal(t, []string{entity.EventTTNPending, entity.EventTTNUpdateBlocked}, types)
	events, _ := f.eventRepo.ListByInvoice(context.Background(), fixInvoiceID)
	assert.Contains(t, string(events[1].Detail), "SAVE-020")
}

// Le matricule de l'identifiant prime sur celui de l'entreprise, et l'URL
// par défaut est appliquée quand l'identifiant n'en fixe pas.
func TestSend_ConfigurationWS(t *testing.T) {
	f := newFixture()
	f.credential().WSMatricule = "9999999Z/A/M/000"
	var got infrattn.Config
	f.submitter.saveFn = func(cfg infrattn.Config, _ []byte) (*infrattn.SaveResult, error) {
		got = cfg
		return &infrattn.SaveResult{OK: true, HTTPStatus: 200, IDSaveEfact: "SAVE-005"}, nil
	}
	uc := newTestUseCase(f)

	_, err := uc.Send(context.Background(), fixCompanyID, fixInvoiceID, fixUserID)
	require.NoError(t, err)

	assert.Equal(t, "9999999Z/A/M/000", got.Matricule)
	assert.Equal(t, "https://ws.example.test/EfactService", got.URL)
	assert.Equal(t, "login-test", got.Login)
}
