package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/entity"
	"github.com/zhanisana-byte/facturetn-crm-sub001/internal/domain/repository"
)

var _ repository.CustomerRepository = (*CustomerRepo)(nil)

// CustomerRepo implémentation de CustomerRepository (utilisable avec pool ou tx).
type CustomerRepo struct {
	q Querier
}

// NewCustomerRepository construit l'adaptateur. Passer un pool ou une tx (Querier).
func NewCustomerRepository(q Querier) *CustomerRepo {
	return &CustomerRepo{q: q}
}

const customerColumns = `id, company_id, name, COALESCE(tax_id, ''), COALESCE(address, ''),
	       COALESCE(city, ''), COALESCE(postal_code, ''), COALESCE(phone, ''), COALESCE(email, ''),
	       created_at, updated_at`

// Create persiste un client.
func (r *CustomerRepo) Create(ctx context.Context, customer *entity.Customer) error {
	if customer.ID == "" {
		customer.ID = uuid.New().String()
	}
	now := time.Now()
	customer.CreatedAt, customer.UpdatedAt = now, now
	_, err := r.q.Exec(ctx, `
		INSERT INTO customers (id, company_id, name, tax_id, address, city, postal_code, phone, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		customer.ID, customer.CompanyID, customer.Name, nullIfEmpty(customer.TaxID),
		customer.Address, customer.City, customer.PostalCode, customer.Phone, customer.Email,
		customer.CreatedAt, customer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// GetByID retourne un client.
func (r *CustomerRepo) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	var c entity.Customer
	err := r.q.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id).Scan(
		&c.ID, &c.CompanyID, &c.Name, &c.TaxID, &c.Address,
		&c.City, &c.PostalCode, &c.Phone, &c.Email,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &c, nil
}

// Update réécrit les champs du client.
func (r *CustomerRepo) Update(ctx context.Context, customer *entity.Customer) error {
	customer.UpdatedAt = time.Now()
	tag, err := r.q.Exec(ctx, `
		UPDATE customers
		SET name = $2, tax_id = $3, address = $4, city = $5, postal_code = $6,
		    phone = $7, email = $8, updated_at = $9
		WHERE id = $1`,
		customer.ID, customer.Name, nullIfEmpty(customer.TaxID),
		customer.Address, customer.City, customer.PostalCode, customer.Phone, customer.Email,
		customer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByCompany liste les clients d'une entreprise par nom.
func (r *CustomerRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Customer, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.q.Query(ctx, `SELECT `+customerColumns+`
		FROM customers WHERE company_id = $1 ORDER BY name LIMIT $2 OFFSET $3`,
		companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()
	var list []*entity.Customer
	for rows.Next() {
		var c entity.Customer
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.Name, &c.TaxID, &c.Address,
			&c.City, &c.PostalCode, &c.Phone, &c.Email,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}
