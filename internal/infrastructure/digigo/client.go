// Package digigo implémente le client du service de signature distante
// DigiGo (proxy TunSign). Le parcours est un OAuth2 "credential": URL
// d'autorisation, échange code → SAD, puis signature du hash.
package digigo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	proxyPath      = "/tunsign-proxy-webapp"
	defaultTimeout = 15 * time.Second
)

// Config paramètres du connecteur DigiGo (voir pkg/config).
type Config struct {
	BaseURL     string // ex: https://193.95.63.230
	ClientID    string
	RedirectURI string
}

// Signer définit le port de signature distante. L'implémentation concrète
// appelle le proxy TunSign; les tests injectent un fake.
type Signer interface {
	// AuthorizeURL construit l'URL vers laquelle rediriger l'utilisateur
	// pour autoriser numSignatures signature(s) du hash donné.
	AuthorizeURL(state, hash, credentialID string, numSignatures int) (string, error)

	// ExchangeCode échange le code d'autorisation contre le SAD
	// (Signature Activation Data).
	ExchangeCode(ctx context.Context, code string) (string, error)

	// SignHash signe le hash (SHA-256 base64) et retourne le bloc de
	// signature XAdES produit par l'opérateur.
	SignHash(ctx context.Context, credentialID, sad string, hashes []string) (string, error)
}

// Client implémente Signer au-dessus de net/http.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient construit le client. Le proxy TunSign est exposé derrière une
// adresse IP avec un certificat propre à l'opérateur; le transport est
// laissé au choix de l'appelant via http.DefaultTransport.
func NewClient(cfg Config) *Client {
	return &Client{cfg: cfg, httpClient: &http.Client{Timeout: defaultTimeout}}
}

// AuthorizeURL construit l'URL d'autorisation OAuth2 du proxy.
func (c *Client) AuthorizeURL(state, hash, credentialID string, numSignatures int) (string, error) {
	if c.cfg.BaseURL == "" || c.cfg.ClientID == "" || c.cfg.RedirectURI == "" {
		return "", fmt.Errorf("digigo: configuration incomplète (base URL, client ID ou redirect URI)")
	}
	if state == "" || hash == "" || credentialID == "" {
		return "", fmt.Errorf("digigo: state, hash et credentialId sont obligatoires")
	}
	if numSignatures < 1 {
		numSignatures = 1
	}

	u, err := url.Parse(c.cfg.BaseURL + proxyPath + "/oauth2/authorize")
	if err != nil {
		return "", fmt.Errorf("digigo: base URL invalide: %w", err)
	}
	q := u.Query()
	q.Set("redirectUri", c.cfg.RedirectURI)
	q.Set("responseType", "code")
	q.Set("scope", "credential")
	q.Set("credentialId", credentialID)
	q.Set("clientId", c.cfg.ClientID)
	q.Set("numSignatures", strconv.Itoa(numSignatures))
	q.Set("hash", hash)
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ExchangeCode échange le code contre le SAD. Les déploiements DigiGo
// renvoient le SAD sous des clés variables, d'où la lecture tolérante.
func (c *Client) ExchangeCode(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("digigo: code d'autorisation manquant")
	}
	u, err := url.Parse(c.cfg.BaseURL + proxyPath + "/oauth2/token")
	if err != nil {
		return "", fmt.Errorf("digigo: base URL invalide: %w", err)
	}
	q := u.Query()
	q.Set("clientId", c.cfg.ClientID)
	q.Set("redirectUri", c.cfg.RedirectURI)
	q.Set("grantType", "authorization_code")
	q.Set("code", code)
	u.RawQuery = q.Encode()

	raw, err := c.post(ctx, u.String(), "", nil)
	if err != nil {
		return "", err
	}

	var payload struct {
		Sad         string `json:"sad"`
		SAD         string `json:"SAD"`
		AccessToken string `json:"access_token"`
		Token       string `json:"token"`
	}
	_ = json.Unmarshal(raw, &payload)
	for _, sad := range []string{payload.Sad, payload.SAD, payload.AccessToken, payload.Token} {
		if sad != "" {
			return sad, nil
		}
	}
	return "", fmt.Errorf("digigo: SAD absent de la réponse token")
}

// SignHash demande la signature XAdES baseline B du ou des hashes.
func (c *Client) SignHash(ctx context.Context, credentialID, sad string, hashes []string) (string, error) {
	if credentialID == "" || sad == "" || len(hashes) == 0 {
		return "", fmt.Errorf("digigo: credentialId, SAD et hashes sont obligatoires")
	}
	body, err := json.Marshal(map[string]any{
		"credentialId":     credentialID,
		"sad":              sad,
		"hashes":           hashes,
		"hashAlgorithm":    "SHA256",
		"signatureFormat":  "XAdES",
		"conformanceLevel": "XAdES_BASELINE_B",
	})
	if err != nil {
		return "", err
	}

	raw, err := c.post(ctx, c.cfg.BaseURL+proxyPath+"/signHash", "application/json", body)
	if err != nil {
		return "", err
	}

	var payload struct {
		Signatures []string `json:"signatures"`
		Signature  string   `json:"signature"`
		Value      string   `json:"value"`
	}
	_ = json.Unmarshal(raw, &payload)
	if len(payload.Signatures) > 0 && payload.Signatures[0] != "" {
		return payload.Signatures[0], nil
	}
	if payload.Signature != "" {
		return payload.Signature, nil
	}
	if payload.Value != "" {
		return payload.Value, nil
	}
	return "", fmt.Errorf("digigo: signature vide dans la réponse signHash")
}

func (c *Client) post(ctx context.Context, rawURL, contentType string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("digigo: créer la requête: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("digigo: délai dépassé ou annulation: %w", ctx.Err())
		}
		return nil, fmt.Errorf("digigo: appel HTTP échoué: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("digigo: lire la réponse: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("digigo: HTTP %d: %s", resp.StatusCode, string(raw))
	}
	return raw, nil
}

var _ Signer = (*Client)(nil)
