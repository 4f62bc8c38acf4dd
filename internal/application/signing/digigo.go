package signing

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/application/dto"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
	infrateif "github.com/zhanisana-byte/facturetn-crm-sub001/internal/infrastructure/teif"
	pkgteif "github.com/zhanisana-byte/facturetn-crm-sub001/pkg/teif"
)

// digigoConfig configuration propre au fournisseur, stockée dans
// ttn_credentials.signature_config.
type digigoConfig struct {
	CredentialID string `json:"credential_id"` // Identité de signature chez l'opérateur
}

// StartDigiGo démarre un parcours de signature distante: le XML est généré,
// son empreinte canonisée est calculée, une session est ouverte et l'URL
// d'autorisation de l'opérateur est retournée au frontend pour redirection.
func (uc *UseCase) StartDigiGo(ctx context.Context, companyID, userID, invoiceID string) (*dto.StartDigiGoResponse, error) {
	sctx, err := uc.loadSignContext(ctx, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	if sctx.credential.SignatureProvider != entity.SignProviderDigiGo {
		return nil, domain.ErrNotConfigured
	}
	providerCfg, err := parseDigiGoConfig(sctx.credential.SignatureConfig)
	if err != nil {
		return nil, err
	}

	unsigned, err := uc.buildUnsignedXML(sctx)
	if err != nil {
		return nil, err
	}
	digest := pkgteif.CanonicalDigest(unsigned)

	state := uuid.New().String()
	now := time.Now()
	session := &entity.SignSession{
		ID:        uuid.New().String(),
		State:     state,
		InvoiceID: invoiceID,
		CompanyID: companyID,
		UserID:    userID,
		Status:    entity.SessionPending,
		ExpiresAt: now.Add(entity.SignSessionTTL),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	authorizeURL, err := uc.signer.AuthorizeURL(state, digest, providerCfg.CredentialID, 1)
	if err != nil {
		return nil, err
	}

	if err := uc.invoiceRepo.SetSignatureStatus(ctx, invoiceID, entity.SignStatusPending); err != nil {
		return nil, err
	}
	if err := uc.eventRepo.Append(ctx, &entity.Event{
		ID:        uuid.New().String(),
		InvoiceID: invoiceID,
		CompanyID: companyID,
		Type:      entity.EventSignatureStarted,
		Detail:    mustJSON(map[string]any{"provider": entity.SignProviderDigiGo, "state": state}),
		Actor:     userID,
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("invoice_id", invoiceID).
		Str("state", state).
		Msg("parcours de signature DigiGo démarré")

	return &dto.StartDigiGoResponse{
		State:        state,
		AuthorizeURL: authorizeURL,
		ExpiresAt:    session.ExpiresAt,
	}, nil
}

// ConfirmDigiGo termine le parcours au retour de redirection: le code OAuth
// est échangé contre le SAD, le hash est signé puis la ds:Signature est
// injectée dans le XML. La session est à usage unique, seul le premier
// retour gagne.
func (uc *UseCase) ConfirmDigiGo(ctx context.Context, in dto.ConfirmDigiGoRequest) (*dto.ConfirmDigiGoResponse, error) {
	if in.State == "" || in.Code == "" {
		return nil, domain.ErrInvalidInput
	}
	session, err := uc.sessionRepo.GetByState(ctx, in.State)
	if err != nil {
		if err == domain.ErrNotFound {
			return nil, domain.ErrSessionInvalid
		}
		return nil, err
	}
	if session.Status != entity.SessionPending {
		return nil, domain.ErrSessionInvalid
	}
	if session.Expired(time.Now()) {
		_, _ = uc.sessionRepo.Complete(ctx, in.State, entity.SessionFailed, "session expirée")
		return nil, domain.ErrSessionExpired
	}

	sctx, err := uc.loadSignContext(ctx, session.CompanyID, session.InvoiceID)
	if err != nil {
		return nil, err
	}
	providerCfg, err := parseDigiGoConfig(sctx.credential.SignatureConfig)
	if err != nil {
		return nil, err
	}

	// Le document est regénéré à l'identique: même facture, même rendu.
	unsigned, err := uc.buildUnsignedXML(sctx)
	if err != nil {
		return nil, err
	}
	digest := pkgteif.CanonicalDigest(unsigned)

	sad, err := uc.signer.ExchangeCode(ctx, in.Code)
	if err != nil {
		uc.failSession(ctx, session, sctx.invoice, err.Error())
		return nil, fmt.Errorf("échange du code DigiGo: %v: %w", err, domain.ErrRemoteService)
	}
	block, err := uc.signer.SignHash(ctx, providerCfg.CredentialID, sad, []string{digest})
	if err != nil {
		uc.failSession(ctx, session, sctx.invoice, err.Error())
		return nil, fmt.Errorf("signHash DigiGo: %v: %w", err, domain.ErrRemoteService)
	}

	signatureXML, err := decodeSignatureBlock(block)
	if err != nil {
		uc.failSession(ctx, session, sctx.invoice, err.Error())
		return nil, err
	}
	signedXML, err := infrateif.InjectSignature(unsigned, signatureXML)
	if err != nil {
		uc.failSession(ctx, session, sctx.invoice, err.Error())
		return nil, err
	}

	// Un seul retour de redirection peut conclure la session.
	won, err := uc.sessionRepo.Complete(ctx, in.State, entity.SessionCompleted, "")
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, domain.ErrSessionInvalid
	}

	signedHash, err := uc.storeSignedXML(ctx, sctx.invoice, entity.SignProviderDigiGo, unsigned, signedXML, session.UserID)
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("invoice_id", session.InvoiceID).
		Msg("facture signée via DigiGo")

	return &dto.ConfirmDigiGoResponse{
		InvoiceID:       session.InvoiceID,
		SignatureStatus: entity.SignStatusSigned,
		SignedHash:      signedHash,
	}, nil
}

// failSession clôt la session en échec et marque la facture, best effort.
func (uc *UseCase) failSession(ctx context.Context, session *entity.SignSession, invoice *entity.Invoice, msg string) {
	if _, err := uc.sessionRepo.Complete(ctx, session.State, entity.SessionFailed, msg); err != nil {
		uc.log.Error().Err(err).Str("state", session.State).Msg("clôture de session en échec impossible")
	}
	uc.markSignatureFailed(ctx, invoice, session.UserID, msg)
}

func parseDigiGoConfig(raw []byte) (*digigoConfig, error) {
	var cfg digigoConfig
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("configuration DigiGo illisible: %w", domain.ErrNotConfigured)
		}
	}
	if cfg.CredentialID == "" {
		return nil, domain.ErrNotConfigured
	}
	return &cfg, nil
}

// decodeSignatureBlock interprète le bloc retourné par signHash: du XML
// brut ou sa forme base64 selon les déploiements de l'opérateur.
func decodeSignatureBlock(block string) ([]byte, error) {
	trimmed := strings.TrimSpace(block)
	if strings.Contains(trimmed, "<") {
		return []byte(trimmed), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(trimmed)
	if err == nil && strings.Contains(string(decoded), "<") {
		return decoded, nil
	}
	return nil, fmt.Errorf("bloc de signature DigiGo illisible: %w", domain.ErrRemoteService)
}
