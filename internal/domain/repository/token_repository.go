package repository

import (
	"context"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
)

// PairingTokenRepository définit le port des jetons d'appairage agent.
type PairingTokenRepository interface {
	Create(ctx context.Context, token *entity.PairingToken) error
	GetByToken(ctx context.Context, token string) (*entity.PairingToken, error)

	// Redeem consomme le jeton de manière atomique:
	// UPDATE ... SET used_at = now() WHERE token = $1 AND used_at IS NULL.
	// Retourne false si le jeton était déjà consommé (deux agents en course).
	Redeem(ctx context.Context, token string) (bool, error)
}

// SignTokenRepository définit le port des jetons de signature agent.
type SignTokenRepository interface {
	Create(ctx context.Context, token *entity.SignToken) error
	GetByToken(ctx context.Context, token string) (*entity.SignToken, error)

	// Redeem consomme le jeton au dépôt du XML signé (même garantie atomique
	// que PairingTokenRepository.Redeem).
	Redeem(ctx context.Context, token string) (bool, error)
}
