package repository

import (
	"context"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
)

// SignSessionRepository définit le port de persistance des sessions DigiGo.
type SignSessionRepository interface {
	Create(ctx context.Context, session *entity.SignSession) error
	GetByState(ctx context.Context, state string) (*entity.SignSession, error)

	// Complete passe la session de pending à completed ou failed de manière
	// atomique (UPDATE ... WHERE state = $1 AND status = 'pending').
	// Retourne false si la session n'était plus pendante.
	Complete(ctx context.Context, state, status, errMsg string) (bool, error)
}
