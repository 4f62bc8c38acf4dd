// Package ttn implémente le client SOAP du webservice El Fatoora
// (Tunisie TradeNet). Opérations couvertes: saveEfact et consultEfact,
// d'après les spécifications web services v5.
package ttn

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const (
	// DefaultWSURL endpoint de production El Fatoora (sans ?wsdl).
	DefaultWSURL = "https://elfatoora.tn/ElfatouraServices/EfactService"

	soapNS    = "http://schemas.xmlsoap.org/soap/envelope/"
	serviceNS = "http://services.elfatoura.tradenet.com.tn/"

	// Le WS peut mettre plusieurs secondes à répondre; au-delà de 10 s on
	// abandonne et la facture reste consultable via consultEfact.
	defaultTimeout = 10 * time.Second

	maxResponseBytes = 1 << 20
)

// ── Ports ─────────────────────────────────────────────────────────────────────

// Config identifiants webservice d'un dépôt.
type Config struct {
	URL       string
	Login     string
	Password  string
	Matricule string
}

// SaveResult résultat de l'opération saveEfact.
type SaveResult struct {
	OK          bool
	HTTPStatus  int
	Raw         string
	IDSaveEfact string // Numéro unique généré avant traitement noyau
}

// ConsultCriteria critères de recherche de consultEfact; les champs vides
// sont omis de la requête.
type ConsultCriteria struct {
	DocumentNumber string
	IDSaveEfact    string
	GeneratedRef   string
	DocumentType   string
}

// ConsultResult résultat de l'opération consultEfact.
type ConsultResult struct {
	OK           bool
	HTTPStatus   int
	Raw          string
	GeneratedRef string
	Etat         string // État brut TTN (à interpréter via domain/teif.MapEtat)
	Message      string
}

// Submitter définit le port de dépôt et de consultation El Fatoora.
// L'implémentation concrète utilise SOAP; les tests injectent un fake.
type Submitter interface {
	// SaveEfact dépose le document TEIF (octets UTF-8, encodés base64 dans
	// l'enveloppe, le champ documentEfact étant un byte[] côté WS).
	SaveEfact(ctx context.Context, cfg Config, teifXML []byte) (*SaveResult, error)

	// ConsultEfact interroge l'état d'un dépôt.
	ConsultEfact(ctx context.Context, cfg Config, criteria ConsultCriteria) (*ConsultResult, error)
}

// ── Implémentation SOAP ───────────────────────────────────────────────────────

// SOAPClient implémente Submitter avec net/http. Le WS TTN impose des
// enveloppes SOAP 1.1 avec SOAPAction vide.
type SOAPClient struct {
	httpClient *http.Client
}

// NewSOAPClient construit le client avec le timeout réseau par défaut.
func NewSOAPClient() *SOAPClient {
	return &SOAPClient{httpClient: &http.Client{Timeout: defaultTimeout}}
}

// SaveEfact dépose le document et extrait idSaveEfact de la réponse.
func (c *SOAPClient) SaveEfact(ctx context.Context, cfg Config, teifXML []byte) (*SaveResult, error) {
	var body bytes.Buffer
	body.WriteString(`<ser:saveEfact>`)
	writeEscaped(&body, "login", cfg.Login)
	writeEscaped(&body, "password", cfg.Password)
	writeEscaped(&body, "matricule", cfg.Matricule)
	body.WriteString(`<documentEfact>`)
	body.WriteString(base64.StdEncoding.EncodeToString(teifXML))
	body.WriteString(`</documentEfact>`)
	body.WriteString(`</ser:saveEfact>`)

	status, raw, err := c.post(ctx, cfg.URL, body.Bytes())
	if err != nil {
		return nil, err
	}
	return ParseSaveResponse(status, raw), nil
}

// ConsultEfact interroge l'état du dépôt selon les critères fournis.
func (c *SOAPClient) ConsultEfact(ctx context.Context, cfg Config, criteria ConsultCriteria) (*ConsultResult, error) {
	var body bytes.Buffer
	body.WriteString(`<ser:consultEfact>`)
	writeEscaped(&body, "login", cfg.Login)
	writeEscaped(&body, "password", cfg.Password)
	writeEscaped(&body, "matricule", cfg.Matricule)
	body.WriteString(`<efactCriteria>`)
	if criteria.DocumentNumber != "" {
		writeEscaped(&body, "documentNumber", criteria.DocumentNumber)
	}
	if criteria.IDSaveEfact != "" {
		writeEscaped(&body, "idSaveEfact", criteria.IDSaveEfact)
	}
	if criteria.GeneratedRef != "" {
		writeEscaped(&body, "generatedRef", criteria.GeneratedRef)
	}
	if criteria.DocumentType != "" {
		writeEscaped(&body, "documentType", criteria.DocumentType)
	}
	body.WriteString(`</efactCriteria>`)
	body.WriteString(`</ser:consultEfact>`)

	status, raw, err := c.post(ctx, cfg.URL, body.Bytes())
	if err != nil {
		return nil, err
	}
	return ParseConsultResponse(status, raw), nil
}

func (c *SOAPClient) post(ctx context.Context, url string, soapBody []byte) (int, string, error) {
	if url == "" {
		url = DefaultWSURL
	}
	var envelope bytes.Buffer
	envelope.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	envelope.WriteString(`<soapenv:Envelope xmlns:soapenv="` + soapNS + `" xmlns:ser="` + serviceNS + `">`)
	envelope.WriteString(`<soapenv:Header/>`)
	envelope.WriteString(`<soapenv:Body>`)
	envelope.Write(soapBody)
	envelope.WriteString(`</soapenv:Body>`)
	envelope.WriteString(`</soapenv:Envelope>`)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(envelope.Bytes()))
	if err != nil {
		return 0, "", fmt.Errorf("ttn: créer la requête: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, "", fmt.Errorf("ttn: délai dépassé ou annulation: %w", ctx.Err())
		}
		return 0, "", fmt.Errorf("ttn: appel HTTP échoué: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, "", fmt.Errorf("ttn: lire la réponse: %w", err)
	}
	return resp.StatusCode, string(raw), nil
}

func writeEscaped(buf *bytes.Buffer, tag, value string) {
	buf.WriteString("<" + tag + ">")
	_ = xml.EscapeText(buf, []byte(value))
	buf.WriteString("</" + tag + ">")
}

// ── Analyse des réponses ──────────────────────────────────────────────────────

// ParseSaveResponse extrait idSaveEfact du <return> de la réponse saveEfact.
// Les implémentations TTN varient (préfixes de namespace, majuscules), d'où
// une extraction tolérante par expression régulière plutôt qu'un unmarshal
// strict de l'enveloppe.
func ParseSaveResponse(httpStatus int, raw string) *SaveResult {
	return &SaveResult{
		OK:          httpStatus >= 200 && httpStatus < 300,
		HTTPStatus:  httpStatus,
		Raw:         raw,
		IDSaveEfact: extractFirst(raw, "return"),
	}
}

// ParseConsultResponse extrait generatedRef, etat et message de la réponse
// consultEfact, en tolérant les variantes de casse observées entre
// environnements.
func ParseConsultResponse(httpStatus int, raw string) *ConsultResult {
	return &ConsultResult{
		OK:           httpStatus >= 200 && httpStatus < 300,
		HTTPStatus:   httpStatus,
		Raw:          raw,
		GeneratedRef: extractAny(raw, "generatedRef", "generatedREF", "GeneratedRef"),
		Etat:         extractAny(raw, "etat", "ETAT", "etatEfact", "ETATEFACT", "state", "STATUS", "status"),
		Message:      extractAny(raw, "message", "Message", "libelle", "LIBELLE", "errorMessage", "ERRORMESSAGE"),
	}
}

func extractFirst(raw, tag string) string {
	re := regexp.MustCompile(`(?i)<` + regexp.QuoteMeta(tag) + `>([^<]*)</` + regexp.QuoteMeta(tag) + `>`)
	if m := re.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func extractAny(raw string, tags ...string) string {
	for _, tag := range tags {
		if v := extractFirst(raw, tag); v != "" {
			return v
		}
	}
	return ""
}

var _ Submitter = (*SOAPClient)(nil)
