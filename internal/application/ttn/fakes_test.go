package ttn_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
	domteif "github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/teif"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/repository"
	infrattn "github.com/zhanisana-byte/facturetn-crm-sub001/internal/infrastructure/ttn"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dépôts en mémoire pour les tests du cas d'usage. Le mutex partagé simule le
// comportement atomique des UPDATE conditionnels de l'implémentation Postgres.
// ──────────────────────────────────────────────────────────────────────────────

type fakeInvoiceRepo struct {
	mu       sync.Mutex
	invoices map[string]*entity.Invoice
	items    map[string][]*entity.InvoiceItem
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{
		invoices: map[string]*entity.Invoice{},
		items:    map[string][]*entity.InvoiceItem{},
	}
}

func (r *fakeInvoiceRepo) Create(_ context.Context, invoice *entity.Invoice, items []*entity.InvoiceItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
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
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[invoiceID], nil
}

func (r *fakeInvoiceRepo) ListByCompany(_ context.Context, companyID string, limit, offset int) ([]*entity.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Invoice
	for _, inv := range r.invoices {
		if inv.CompanyID == companyID {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeInvoiceRepo) Update(_ context.Context, invoice *entity.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.invoices[invoice.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *invoice
	r.invoices[invoice.ID] = &cp
	return nil
}

func (r *fakeInvoiceRepo) SetValidated(_ context.Context, id string, validated bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return domain.ErrNotFound
	}
	inv.Validated = validated
	return nil
}

func (r *fakeInvoiceRepo) UpdateTTNStatusIf(_ context.Context, id, next string, allowedFrom []string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return false, nil
	}
	for _, from := range allowedFrom {
		if inv.TTNStatus == from {
			inv.TTNStatus = next
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeInvoiceRepo) SetTTNResult(_ context.Context, invoice *entity.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[invoice.ID]
	if !ok {
		return domain.ErrNotFound
	}
	inv.TTNStatus = invoice.TTNStatus
	inv.TTNSaveID = invoice.TTNSaveID
	inv.TTNRef = invoice.TTNRef
	inv.TTNError = invoice.TTNError
	inv.SubmittedAt = invoice.SubmittedAt
	inv.DecidedAt = invoice.DecidedAt
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

func newFakeCompanyRepo() *fakeCompanyRepo {
	return &fakeCompanyRepo{
		companies:    map[string]*entity.Company{},
		capabilities: map[string]map[string]bool{},
	}
}

func (r *fakeCompanyRepo) Create(_ context.Context, company *entity.Company) error {
	r.companies[company.ID] = company
	return nil
}

func (r *fakeCompanyRepo) GetByID(_ context.Context, id string) (*entity.Company, error) {
	c, ok := r.companies[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (r *fakeCompanyRepo) GetByTaxID(_ context.Context, taxID string) (*entity.Company, error) {
	for _, c := range r.companies {
		if c.TaxID == taxID {
			return c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeCompanyRepo) Update(_ context.Context, company *entity.Company) error {
	r.companies[company.ID] = company
	return nil
}

func (r *fakeCompanyRepo) HasCapability(_ context.Context, companyID, capability string) (bool, error) {
	return r.capabilities[companyID][capability], nil
}

type fakeCustomerRepo struct {
	customers map[string]*entity.Customer
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{customers: map[string]*entity.Customer{}}
}

func (r *fakeCustomerRepo) Create(_ context.Context, customer *entity.Customer) error {
	r.customers[customer.ID] = customer
	return nil
}

func (r *fakeCustomerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (r *fakeCustomerRepo) Update(_ context.Context, customer *entity.Customer) error {
	r.customers[customer.ID] = customer
	return nil
}

func (r *fakeCustomerRepo) ListByCompany(_ context.Context, _ string, _, _ int) ([]*entity.Customer, error) {
	return nil, nil
}

type fakeCredentialRepo struct {
	credentials map[string]*entity.Credential // clé: companyID|environment
}

func newFakeCredentialRepo() *fakeCredentialRepo {
	return &fakeCredentialRepo{credentials: map[string]*entity.Credential{}}
}

func (r *fakeCredentialRepo) put(c *entity.Credential) {
	r.credentials[c.CompanyID+"|"+c.Environment] = c
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

func (r *fakeCredentialRepo) ListByCompany(_ context.Context, companyID string) ([]*entity.Credential, error) {
	var out []*entity.Credential
	for _, c := range r.credentials {
		if c.CompanyID == companyID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCredentialRepo) Save(_ context.Context, companyID, environment string, _ repository.CredentialPatch) (*entity.Credential, error) {
	c, ok := r.credentials[companyID+"|"+environment]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
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

func newFakeSignatureRepo() *fakeSignatureRepo {
	return &fakeSignatureRepo{byInvoice: map[string]*entity.InvoiceSignature{}}
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

type fakeQueueRepo struct {
	mu      sync.Mutex
	entries map[string]*entity.QueueEntry // clé: invoiceID
}

func newFakeQueueRepo() *fakeQueueRepo {
	return &fakeQueueRepo{entries: map[string]*entity.QueueEntry{}}
}

func (r *fakeQueueRepo) Upsert(_ context.Context, entry *entity.QueueEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.entries[entry.InvoiceID]; ok {
		existing.ScheduledAt = entry.ScheduledAt
		existing.Attempts = 0
		existing.LastError = ""
		return nil
	}
	cp := *entry
	r.entries[entry.InvoiceID] = &cp
	return nil
}

func (r *fakeQueueRepo) GetByInvoiceID(_ context.Context, invoiceID string) (*entity.QueueEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[invoiceID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *fakeQueueRepo) Delete(_ context.Context, invoiceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[invoiceID]; !ok {
		return domain.ErrNotFound
	}
	delete(r.entries, invoiceID)
	return nil
}

func (r *fakeQueueRepo) ListDue(_ context.Context, now time.Time, limit int) ([]*entity.QueueEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.QueueEntry
	for _, e := range r.entries {
		if !e.ScheduledAt.After(now) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeQueueRepo) RecordAttempt(_ context.Context, id, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.ID == id {
			e.Attempts++
			e.LastError = errMsg
			return nil
		}
	}
	return domain.ErrNotFound
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events []*entity.Event
}

func newFakeEventRepo() *fakeEventRepo { return &fakeEventRepo{} }

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

// types retourne les types d'événements journalisés pour la facture, dans
// l'ordre d'insertion.
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

// fakeTxRunner exécute la fonction directement sur les dépôts partagés,
// sans transaction réelle. Si fail est posé, la transaction échoue sans
// rien exécuter.
type fakeTxRunner struct {
	invoiceRepo *fakeInvoiceRepo
	queueRepo   *fakeQueueRepo
	eventRepo   *fakeEventRepo
	fail        error
}

func (t *fakeTxRunner) RunTTN(ctx context.Context, fn func(
	repository.InvoiceRepository,
	repository.QueueRepository,
	repository.EventRepository,
) error) error {
	if t.fail != nil {
		return t.fail
	}
	return fn(t.invoiceRepo, t.queueRepo, t.eventRepo)
}

// fakeSubmitter permet de scripter les réponses saveEfact/consultEfact.
type fakeSubmitter struct {
	mu          sync.Mutex
	saveCalls   int
	saveFn      func(cfg infrattn.Config, teifXML []byte) (*infrattn.SaveResult, error)
	consultFn   func(cfg infrattn.Config, criteria infrattn.ConsultCriteria) (*infrattn.ConsultResult, error)
	lastConsult infrattn.ConsultCriteria
}

func (s *fakeSubmitter) SaveEfact(_ context.Context, cfg infrattn.Config, teifXML []byte) (*infrattn.SaveResult, error) {
	s.mu.Lock()
	s.saveCalls++
	s.mu.Unlock()
	return s.saveFn(cfg, teifXML)
}

func (s *fakeSubmitter) ConsultEfact(_ context.Context, cfg infrattn.Config, criteria infrattn.ConsultCriteria) (*infrattn.ConsultResult, error) {
	s.mu.Lock()
	s.lastConsult = criteria
	s.mu.Unlock()
	return s.consultFn(cfg, criteria)
}

// ──────────────────────────────────────────────────────────────────────────────
// Fixture: une entreprise tunisienne complète avec une facture TND validée,
// prête à partir à la TTN.
// ──────────────────────────────────────────────────────────────────────────────

const (
	fixCompanyID  = "c0000000-0000-0000-0000-000000000001"
	fixCustomerID = "c0000000-0000-0000-0000-000000000002"
	fixInvoiceID  = "f0000000-0000-0000-0000-000000000001"
	fixUserID     = "u0000000-0000-0000-0000-000000000001"
)

type fixture struct {
	invoiceRepo    *fakeInvoiceRepo
	companyRepo    *fakeCompanyRepo
	customerRepo   *fakeCustomerRepo
	credentialRepo *fakeCredentialRepo
	signatureRepo  *fakeSignatureRepo
	queueRepo      *fakeQueueRepo
	eventRepo      *fakeEventRepo
	submitter      *fakeSubmitter
	txFail         error
}

func newFixture() *fixture {
	f := &fixture{
		invoiceRepo:    newFakeInvoiceRepo(),
		companyRepo:    newFakeCompanyRepo(),
		customerRepo:   newFakeCustomerRepo(),
		credentialRepo: newFakeCredentialRepo(),
		signatureRepo:  newFakeSignatureRepo(),
		queueRepo:      newFakeQueueRepo(),
		eventRepo:      newFakeEventRepo(),
		submitter:      &fakeSubmitter{},
	}

	f.companyRepo.companies[fixCompanyID] = &entity.Company{
		ID:      fixCompanyID,
		Name:    "Société Test SARL",
		TaxID:   "1234567A/A/M/000",
		Address: "12 avenue Habib Bourguiba",
		City:    "Tunis",
	}
	f.companyRepo.capabilities[fixCompanyID] = map[string]bool{
		entity.CapabilityInvoicing: true,
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

	f.credentialRepo.put(&entity.Credential{
		ID:          "cr000000-0000-0000-0000-000000000001",
		CompanyID:   fixCompanyID,
		Environment: entity.EnvTest,
		WSLogin:     "login-test",
		WSPassword:  "secret",
		IsActive:    true,
	})

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

func (f *fixture) invoice() *entity.Invoice {
	inv, _ := f.invoiceRepo.GetByID(context.Background(), fixInvoiceID)
	return inv
}

func (f *fixture) credential() *entity.Credential {
	c, _ := f.credentialRepo.GetActive(context.Background(), fixCompanyID, entity.EnvTest)
	return c
}
