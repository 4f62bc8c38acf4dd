package signing

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/dto"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
)

// deepLinkScheme schéma d'URL enregistré par l'agent local sur le poste.
const deepLinkScheme = "facturetn-agent"

// CreatePairingToken émet un jeton d'appairage à usage unique que
// l'utilisateur colle dans l'agent local. Le secret n'est montré qu'une
// seule fois; l'identifiant passe en état pairing en attendant l'agent.
func (uc *UseCase) CreatePairingToken(ctx context.Context, companyID, userID string) (*dto.CreatePairingTokenResponse, error) {
	ok, err := uc.companyRepo.HasCapability(ctx, companyID, entity.CapabilitySignature)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrForbidden
	}
	credential, err := uc.credentialRepo.GetActive(ctx, companyID, uc.cfg.Environment)
	if err != nil {
		if err == domain.ErrNotFound {
			return nil, domain.ErrNotConfigured
		}
		return nil, err
	}
	if credential.SignatureProvider != entity.SignProviderUSBAgent {
		return nil, domain.ErrNotConfigured
	}

	secret, err := newOpaqueToken()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	token := &entity.PairingToken{
		ID:           uuid.New().String(),
		Token:        secret,
		CredentialID: credential.ID,
		CompanyID:    companyID,
		CreatedBy:    userID,
		ExpiresAt:    now.Add(entity.PairingTokenTTL),
		CreatedAt:    now,
	}
	if err := uc.pairingRepo.Create(ctx, token); err != nil {
		return nil, err
	}
	if err := uc.credentialRepo.SetSignatureState(ctx, credential.ID, entity.ProviderStatusPairing, nil); err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("company_id", companyID).
		Str("credential_id", credential.ID).
		Msg("jeton d'appairage agent émis")

	return &dto.CreatePairingTokenResponse{
		Token:     secret,
		ExpiresAt: token.ExpiresAt,
	}, nil
}

// PairAgent consomme le jeton d'appairage présenté par l'agent local et
// passe l'identifiant en état paired. Si deux agents présentent le même
// jeton, un seul gagne.
func (uc *UseCase) PairAgent(ctx context.Context, in dto.PairAgentRequest) (*dto.PairAgentResponse, error) {
	if in.Token == "" {
		return nil, domain.ErrTokenInvalid
	}
	token, err := uc.pairingRepo.GetByToken(ctx, in.Token)
	if err != nil {
		if err == domain.ErrNotFound {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}
	if token.UsedAt != nil {
		return nil, domain.ErrTokenUsed
	}
	if token.Expired(time.Now()) {
		return nil, domain.ErrTokenExpired
	}
	won, err := uc.pairingRepo.Redeem(ctx, in.Token)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, domain.ErrTokenUsed
	}

	config := mustJSON(map[string]any{
		"agent_label": in.Label,
		"thumbprint":  in.Thumbprint,
		"paired_at":   time.Now().Format(time.RFC3339),
	})
	if err := uc.credentialRepo.SetSignatureState(ctx, token.CredentialID, entity.ProviderStatusPaired, config); err != nil {
		return nil, err
	}
	credential, err := uc.credentialRepo.GetByID(ctx, token.CredentialID)
	if err != nil {
		return nil, err
	}
	if err := uc.eventRepo.Append(ctx, &entity.Event{
		ID:        uuid.New().String(),
		CompanyID: token.CompanyID,
		Type:      entity.EventAgentPaired,
		Detail:    mustJSON(map[string]any{"agent_label": in.Label}),
		Actor:     entity.ActorAgent,
		CreatedAt: time.Now(),
	}); err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("company_id", token.CompanyID).
		Str("credential_id", token.CredentialID).
		Msg("agent local appairé")

	return &dto.PairAgentResponse{
		CredentialID: credential.ID,
		CompanyID:    credential.CompanyID,
		Environment:  credential.Environment,
	}, nil
}

// CreateSignToken émet un jeton de signature ponctuel pour une facture et
// le lien profond qui réveille l'agent local appairé.
func (uc *UseCase) CreateSignToken(ctx context.Context, companyID, userID, invoiceID string) (*dto.CreateSignTokenResponse, error) {
	sctx, err := uc.loadSignContext(ctx, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	if sctx.credential.SignatureProvider != entity.SignProviderUSBAgent {
		return nil, domain.ErrNotConfigured
	}
	if sctx.credential.SignatureStatus != entity.ProviderStatusPaired {
		return nil, domain.ErrNotConfigured
	}

	secret, err := newOpaqueToken()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	token := &entity.SignToken{
		ID:           uuid.New().String(),
		Token:        secret,
		InvoiceID:    invoiceID,
		CredentialID: sctx.credential.ID,
		CompanyID:    companyID,
		CreatedBy:    userID,
		ExpiresAt:    now.Add(entity.SignTokenTTL),
		CreatedAt:    now,
	}
	if err := uc.signTokenRepo.Create(ctx, token); err != nil {
		return nil, err
	}
	if err := uc.invoiceRepo.SetSignatureStatus(ctx, invoiceID, entity.SignStatusPending); err != nil {
		return nil, err
	}
	if err := uc.eventRepo.Append(ctx, &entity.Event{
		ID:        uuid.New().String(),
		InvoiceID: invoiceID,
		CompanyID: companyID,
		Type:      entity.EventSignTokenIssued,
		Actor:     userID,
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}

	deepLink := fmt.Sprintf("%s://sign?server=%s&token=%s",
		deepLinkScheme, url.QueryEscape(uc.cfg.PublicURL), url.QueryEscape(secret))

	return &dto.CreateSignTokenResponse{
		Token:     secret,
		DeepLink:  deepLink,
		ExpiresAt: token.ExpiresAt,
	}, nil
}

// GetSignPayload remet à l'agent le XML à signer. La consultation ne
// consomme pas le jeton: il n'est brûlé qu'au dépôt du XML signé.
func (uc *UseCase) GetSignPayload(ctx context.Context, rawToken string) (*dto.SignPayloadResponse, error) {
	token, err := uc.checkSignToken(ctx, rawToken)
	if err != nil {
		return nil, err
	}
	sctx, err := uc.loadSignContext(ctx, token.CompanyID, token.InvoiceID)
	if err != nil {
		return nil, err
	}
	unsigned, err := uc.buildUnsignedXML(sctx)
	if err != nil {
		return nil, err
	}
	return &dto.SignPayloadResponse{
		InvoiceID:  token.InvoiceID,
		XML:        string(unsigned),
		Thumbprint: parseAgentConfig(sctx.credential.SignatureConfig).Thumbprint,
	}, nil
}

// SubmitSignedXML reçoit le XML signé par l'agent, consomme le jeton et
// enregistre la signature.
func (uc *UseCase) SubmitSignedXML(ctx context.Context, in dto.SubmitSignedXMLRequest) (*dto.SubmitSignedXMLResponse, error) {
	token, err := uc.checkSignToken(ctx, in.Token)
	if err != nil {
		return nil, err
	}
	if !looksSignedXML(in.SignedXML) {
		return nil, domain.ErrInvalidInput
	}

	sctx, err := uc.loadSignContext(ctx, token.CompanyID, token.InvoiceID)
	if err != nil {
		return nil, err
	}
	unsigned, err := uc.buildUnsignedXML(sctx)
	if err != nil {
		return nil, err
	}

	won, err := uc.signTokenRepo.Redeem(ctx, in.Token)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, domain.ErrTokenUsed
	}

	signedHash, err := uc.storeSignedXML(ctx, sctx.invoice, entity.SignProviderUSBAgent, unsigned, []byte(in.SignedXML), entity.ActorAgent)
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("invoice_id", token.InvoiceID).
		Msg("facture signée via l'agent local")

	return &dto.SubmitSignedXMLResponse{
		InvoiceID:       token.InvoiceID,
		SignatureStatus: entity.SignStatusSigned,
		SignedHash:      signedHash,
	}, nil
}

// checkSignToken valide un jeton de signature sans le consommer.
func (uc *UseCase) checkSignToken(ctx context.Context, rawToken string) (*entity.SignToken, error) {
	if rawToken == "" {
		return nil, domain.ErrTokenInvalid
	}
	token, err := uc.signTokenRepo.GetByToken(ctx, rawToken)
	if err != nil {
		if err == domain.ErrNotFound {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}
	if token.UsedAt != nil {
		return nil, domain.ErrTokenUsed
	}
	if token.Expired(time.Now()) {
		return nil, domain.ErrTokenExpired
	}
	return token, nil
}

// agentConfig paramètres mémorisés à l'appairage de l'agent local.
type agentConfig struct {
	AgentLabel string `json:"agent_label"`
	Thumbprint string `json:"thumbprint"`
}

// parseAgentConfig lit la configuration d'appairage; une configuration
// absente ou illisible donne simplement des champs vides.
func parseAgentConfig(raw []byte) agentConfig {
	var cfg agentConfig
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &cfg)
	}
	return cfg
}

// looksSignedXML contrôle grossier: le document doit porter un élément
// Signature, quel que soit son préfixe.
func looksSignedXML(xml string) bool {
	return strings.Contains(xml, "<ds:Signature") || strings.Contains(xml, ":Signature") || strings.Contains(xml, "<Signature")
}

// newOpaqueToken fabrique un secret aléatoire de 256 bits, encodé hex.
func newOpaqueToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
