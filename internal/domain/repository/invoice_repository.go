package repository

import (
	"context"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
)

// InvoiceRepository définit le port de persistance pour Invoice et ses lignes.
// L'implémentation vit dans infrastructure.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice, items []*entity.InvoiceItem) error
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	GetItemsByInvoiceID(ctx context.Context, invoiceID string) ([]*entity.InvoiceItem, error)
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Invoice, error)

	// Update réécrit les champs métier de la facture (hors état TTN).
	Update(ctx context.Context, invoice *entity.Invoice) error

	// SetValidated pose le drapeau de validation comptable.
	SetValidated(ctx context.Context, id string, validated bool) error

	// UpdateTTNStatusIf effectue la transition d'état TTN de manière atomique:
	// UPDATE ... SET ttn_status = next WHERE id = $1 AND ttn_status = ANY(allowedFrom).
	// Retourne false si l'état courant n'était plus dans allowedFrom (course
	// perdue face à un autre envoi concurrent), sans erreur.
	UpdateTTNStatusIf(ctx context.Context, id string, next string, allowedFrom []string) (bool, error)

	// SetTTNResult enregistre l'issue d'un dépôt ou d'une consultation:
	// nouvel état, référence TTN et dernier message d'erreur.
	SetTTNResult(ctx context.Context, invoice *entity.Invoice) error

	// SetSignatureStatus met à jour l'état de signature de la facture.
	SetSignatureStatus(ctx context.Context, id string, status string) error

	// GetTTNStatus retourne seulement les champs d'état TTN (léger, pour polling).
	GetTTNStatus(ctx context.Context, id string) (*entity.Invoice, error)
}
