package signing_test

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/signing"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
	domteif "github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/teif"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/repository"
	infrateif "github.com/zhanisana-byte/facturetn-crm-sub001/internal/infrastructure/teif"
	"github.com/zhanisana-byte/facturetn-crm-sub001/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dépôts en mémoire. Les opérations atomiques (Complete, Redeem) reproduisent
// la sémantique une-seule-gagne des UPDATE conditionnels Postgres.
// ──────────────────────────────────────────────────────────────────────────────

type fakeInvoiceRepo struct {
	mu       sync.Mutex
	invoices map[string]*entity.Invoice
	items    map[string][]*entity.InvoiceItem
}

func (r *fakeInvoiceRepo) Create(_ context.Context, invoice *entity.Invoice, items []*entity.InvoiceItem) error {
	r.invoices[invoice.ID] = invoice
	r.items[invoice.ID] = items
	return nil
}

func (r *fakeInvoiceRepo) GetByID(_ context.Context, id string) (*entity.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (r *fakeInvoiceRepo) GetItemsByInvoiceID(_ context.Context, invoiceID string) ([]*entity.InvoiceItem, error) {
	return r.items[invoiceID], nil
}

func (r *fakeInvoiceRepo) ListByCompany(_ context.Context, _ string, _, _ int) ([]*entity.Invoice, error) {
	return nil, nil
}

func (r *fakeInvoiceRepo) Update(_ context.Context, invoice *entity.Invoice) error {
	cp := *invoice
	r.invoices[invoice.ID] = &cp
	return nil
}

func (r *fakeInvoiceRepo) SetValidated(_ context.Context, id string, validated bool) error {
	r.invoices[id].Validated = validated
	return nil
}

func (r *fakeInvoiceRepo) UpdateTTNStatusIf(_ context.Context, id, next string, allowedFrom []string) (bool, error) {
	inv := r.invoices[id]
	for _, from := range allowedFrom {
		if inv.TTNStatus == from {
			inv.TTNStatus = next
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeInvoiceRepo) SetTTNResult(_ context.Context, invoice *entity.Invoice) error {
	inv := r.invoices[invoice.ID]
	inv.TTNStatus = invoice.TTNStatus
	inv.TTNSaveID = invoice.TTNSaveID
	inv.TTNRef = invoice.TTNRef
	inv.TTNError = invoice.TTNError
	return nil
}

func (r *fakeInvoiceRepo) SetSignatureStatus(_ context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return domain.ErrNotFound
	}
	inv.SignatureStatus = status
	return nil
}

func (r *fakeInvoiceRepo) GetTTNStatus(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.GetByID(ctx, id)
}

type fakeCompanyRepo struct {
	companies    map[string]*entity.Company
	capabilities map[string]map[string]bool
}

func (r *fakeCompanyRepo) Create(_ context.Context, c *entity.Company) error {
	r.companies[c.ID] = c
	return nil
}

func (r *fakeCompanyRepo) GetByID(_ context.Context, id string) (*entity.Company, error) {
	c, ok := r.companies[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (r *fakeCompanyRepo) GetByTaxID(_ context.Context, _ string) (*entity.Company, error) {
	return nil, domain.ErrNotFound
}

func (r *fakeCompanyRepo) Update(_ context.Context, c *entity.Company) error {
	r.companies[c.ID] = c
	return nil
}

func (r *fakeCompanyRepo) HasCapability(_ context.Context, companyID, capability string) (bool, error) {
	return r.capabilities[companyID][capability], nil
}

type fakeCustomerRepo struct {
	customers map[string]*entity.Customer
}

func (r *fakeCustomerRepo) Create(_ context.Context, c *entity.Customer) error {
	r.customers[c.ID] = c
	return nil
}

func (r *fakeCustomerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (r *fakeCustomerRepo) Update(_ context.Context, c *entity.Customer) error {
	r.customers[c.ID] = c
	return nil
}

func (r *fakeCustomerRepo) ListByCompany(_ context.Context, _ string, _, _ int) ([]*entity.Customer, error) {
	return nil, nil
}

type fakeCredentialRepo struct {
	credentials map[string]*entity.Credential
}

func (r *fakeCredentialRepo) GetActive(_ context.Context, companyID, environment string) (*entity.Credential, error) {
	c, ok := r.credentials[companyID+"|"+environment]
	if !ok || !c.IsActive {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (r *fakeCredentialRepo) GetByID(_ context.Context, id string) (*entity.Credential, error) {
	for _, c := range r.credentials {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeCredentialRepo) ListByCompany(_ context.Context, _ string) ([]*entity.Credential, error) {
	return nil, nil
}

func (r *fakeCredentialRepo) Save(_ context.Context, _, _ string, _ repository.CredentialPatch) (*entity.Credential, error) {
	return nil, domain.ErrNotFound
}

func (r *fakeCredentialRepo) SetSignatureState(_ context.Context, id, status string, config []byte) error {
	for _, c := range r.credentials {
		if c.ID == id {
			c.SignatureStatus = status
			if config != nil {
				c.SignatureConfig = config
			}
			return nil
		}
	}
	return domain.ErrNotFound
}

type fakeSignatureRepo struct {
	byInvoice map[string]*entity.InvoiceSignature
}

func (r *fakeSignatureRepo) Upsert(_ context.Context, sig *entity.InvoiceSignature) error {
	r.byInvoice[sig.InvoiceID] = sig
	return nil
}

func (r *fakeSignatureRepo) GetByInvoiceID(_ context.Context, invoiceID string) (*entity.InvoiceSignature, error) {
	sig, ok := r.byInvoice[invoiceID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return sig, nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*entity.SignSession // clé: state
}

func (r *fakeSessionRepo) Create(_ context.Context, session *entity.SignSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[session.State]; ok {
		return domain.ErrConflict
	}
	cp := *session
	r.sessions[session.State] = &cp
	return nil
}

func (r *fakeSessionRepo) GetByState(_ context.Context, state string) (*entity.SignSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[state]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepo) Complete(_ context.Context, state, status, errMsg string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[state]
	if !ok || s.Status != entity.SessionPending {
		return false, nil
	}
	s.Status = status
	s.Error = errMsg
	return true, nil
}

type fakePairingRepo struct {
	mu     sync.Mutex
	tokens map[string]*entity.PairingToken
}

func (r *fakePairingRepo) Create(_ context.Context, token *entity.PairingToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *token
	r.tokens[token.Token] = &cp
	return nil
}

func (r *fakePairingRepo) GetByToken(_ context.Context, token string) (*entity.PairingToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakePairingRepo) Redeem(_ context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok || t.UsedAt != nil {
		return false, nil
	}
	now := time.Now()
	t.UsedAt = &now
	return true, nil
}

type fakeSignTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*entity.SignToken
}

func (r *fakeSignTokenRepo) Create(_ context.Context, token *entity.SignToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *token
	r.tokens[token.Token] = &cp
	return nil
}

func (r *fakeSignTokenRepo) GetByToken(_ context.Context, token string) (*entity.SignToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeSignTokenRepo) Redeem(_ context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok || t.UsedAt != nil {
		return false, nil
	}
	now := time.Now()
	t.UsedAt = &now
	return true, nil
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events []*entity.Event
}

func (r *fakeEventRepo) Append(_ context.Context, event *entity.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *fakeEventRepo) ListByInvoice(_ context.Context, invoiceID string) ([]*entity.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Event
	for _, ev := range r.events {
		if ev.InvoiceID == invoiceID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) types(invoiceID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, ev := range r.events {
		if ev.InvoiceID == invoiceID {
			out = append(out, ev.Type)
		}
	}
	return out
}

type fakeTxRunner struct {
	invoiceRepo   *fakeInvoiceRepo
	signatureRepo *fakeSignatureRepo
	eventRepo     *fakeEventRepo
}

func (t *fakeTxRunner) RunSignature(ctx context.Context, fn func(
	repository.InvoiceRepository,
	repository.SignatureRepository,
	repository.EventRepository,
) error) error {
	return fn(t.invoiceRepo, t.signatureRepo, t.eventRepo)
}

// fakeSigner scripte le proxy TunSign.
type fakeSigner struct {
	exchangeErr error
	signErr     error
	signedBlock string // Bloc retourné par SignHash
	lastHashes  []string
}

func (s *fakeSigner) AuthorizeURL(state, hash, credentialID string, numSignatures int) (string, error) {
	return "https://digigo.example.test/authorize?state=" + state, nil
}

func (s *fakeSigner) ExchangeCode(_ context.Context, code string) (string, error) {
	if s.exchangeErr != nil {
		return "", s.exchangeErr
	}
	return "sad-" + code, nil
}

func (s *fakeSigner) SignHash(_ context.Context, _, _ string, hashes []string) (string, error) {
	s.lastHashes = hashes
	if s.signErr != nil {
		return "", s.signErr
	}
	return s.signedBlock, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Fixture: une facture validée, signable, avec un identifiant configuré.
// ──────────────────────────────────────────────────────────────────────────────

const (
	fixCompanyID    = "c0000000-0000-0000-0000-000000000001"
	fixCustomerID   = "c0000000-0000-0000-0000-000000000002"
	fixInvoiceID    = "f0000000-0000-0000-0000-000000000001"
	fixUserID       = "u0000000-0000-0000-0000-000000000001"
	fixCredentialID = "cr000000-0000-0000-0000-000000000001"

	// Bloc XAdES minimal tel que retourné par l'opérateur.
	sampleSignatureBlock = `<ds:Signature xmlns:ds="http://www.w3.org/2000/09/xmldsig#" Id="SigFrs"><ds:SignatureValue>dGVzdA==</ds:SignatureValue></ds:Signature>`
)

type fixture struct {
	invoiceRepo    *fakeInvoiceRepo
	companyRepo    *fakeCompanyRepo
	customerRepo   *fakeCustomerRepo
	credentialRepo *fakeCredentialRepo
	signatureRepo  *fakeSignatureRepo
	sessionRepo    *fakeSessionRepo
	pairingRepo    *fakePairingRepo
	signTokenRepo  *fakeSignTokenRepo
	eventRepo      *fakeEventRepo
	signer         *fakeSigner
}

func newFixture() *fixture {
	f := &fixture{
		invoiceRepo:    &fakeInvoiceRepo{invoices: map[string]*entity.Invoice{}, items: map[string][]*entity.InvoiceItem{}},
		companyRepo:    &fakeCompanyRepo{companies: map[string]*entity.Company{}, capabilities: map[string]map[string]bool{}},
		customerRepo:   &fakeCustomerRepo{customers: map[string]*entity.Customer{}},
		credentialRepo: &fakeCredentialRepo{credentials: map[string]*entity.Credential{}},
		signatureRepo:  &fakeSignatureRepo{byInvoice: map[string]*entity.InvoiceSignature{}},
		sessionRepo:    &fakeSessionRepo{sessions: map[string]*entity.SignSession{}},
		pairingRepo:    &fakePairingRepo{tokens: map[string]*entity.PairingToken{}},
		signTokenRepo:  &fakeSignTokenRepo{tokens: map[string]*entity.SignToken{}},
		eventRepo:      &fakeEventRepo{},
		signer:         &fakeSigner{signedBlock: sampleSignatureBlock},
	}

	f.companyRepo.companies[fixCompanyID] = &entity.Company{
		ID:      fixCompanyID,
		Name:    "Société Test SARL",
		TaxID:   "1234567A/A/M/000",
		Address: "12 avenue Habib Bourguiba",
		City:    "Tunis",
	}
	f.companyRepo.capabilities[fixCompanyID] = map[string]bool{
		entity.CapabilityTTN:       true,
		entity.CapabilitySignature: true,
	}

	f.customerRepo.customers[fixCustomerID] = &entity.Customer{
		ID:        fixCustomerID,
		CompanyID: fixCompanyID,
		Name:      "Client Exemple SA",
		TaxID:     "7654321B/A/M/000",
		Address:   "5 rue de Marseille",
		City:      "Sfax",
	}

	f.credentialRepo.credentials[fixCompanyID+"|"+entity.EnvTest] = &entity.Credential{
		ID:                fixCredentialID,
		CompanyID:         fixCompanyID,
		Environment:       entity.EnvTest,
		WSLogin:           "login-test",
		WSPassword:        "secret",
		SignatureProvider: entity.SignProviderDigiGo,
		SignatureStatus:   entity.ProviderStatusUnconfigured,
		SignatureConfig:   []byte(`{"credential_id":"digigo-cred-42"}`),
		IsActive:          true,
	}

	items := []*entity.InvoiceItem{
		{
			ID:          "i0000000-0000-0000-0000-000000000001",
			InvoiceID:   fixInvoiceID,
			Position:    1,
			Description: "Prestation de conseil",
			Quantity:    decimal.NewFromInt(2),
			UnitPrice:   decimal.NewFromInt(500),
			VATRate:     decimal.NewFromInt(19),
		},
	}
	for _, item := range items {
		item.LineHT, item.LineVAT, item.LineTTC = domteif.LineTotals(item)
	}
	totals := domteif.ComputeTotals(items, decimal.NewFromFloat(1.000))

	f.invoiceRepo.invoices[fixInvoiceID] = &entity.Invoice{
		ID:              fixInvoiceID,
		CompanyID:       fixCompanyID,
		CustomerID:      fixCustomerID,
		DocType:         entity.DocTypeInvoice,
		Number:          "FAC-2026-0042",
		Date:            time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		Currency:        "TND",
		TotalHT:         totals.HT,
		TotalVAT:        totals.VAT,
		StampDuty:       decimal.NewFromFloat(1.000),
		TotalTTC:        totals.TTC,
		Validated:       true,
		TTNStatus:       entity.TTNStatusNotSent,
		SignatureStatus: entity.SignStatusNone,
	}
	f.invoiceRepo.items[fixInvoiceID] = items

	return f
}

// useAgent bascule l'identifiant sur l'agent local appairé.
func (f *fixture) useAgent() {
	c := f.credentialRepo.credentials[fixCompanyID+"|"+entity.EnvTest]
	c.SignatureProvider = entity.SignProviderUSBAgent
	c.SignatureStatus = entity.ProviderStatusPaired
	c.SignatureConfig = []byte(`{"agent_label":"poste-compta"}`)
}

func (f *fixture) invoice() *entity.Invoice {
	inv, _ := f.invoiceRepo.GetByID(context.Background(), fixInvoiceID)
	return inv
}

func (f *fixture) credential() *entity.Credential {
	return f.credentialRepo.credentials[fixCompanyID+"|"+entity.EnvTest]
}

func newTestUseCase(f *fixture) *signing.UseCase {
	return signing.NewUseCase(
		f.invoiceRepo, f.companyRepo, f.customerRepo, f.credentialRepo,
		f.signatureRepo, f.sessionRepo, f.pairingRepo, f.signTokenRepo,
		f.eventRepo,
		&fakeTxRunner{invoiceRepo: f.invoiceRepo, signatureRepo: f.signatureRepo, eventRepo: f.eventRepo},
		infrateif.NewXMLBuilderService(),
		f.signer,
		signing.Config{Environment: entity.EnvTest, PublicURL: "https://api.facturetn.example"},
		logger.New(logger.Config{Env: "development", Level: "error"}),
	)
}
