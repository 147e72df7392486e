package postgres

import (
	"context"
	"errors"
	"fmt"

	"woosync/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// CustomerRepo implements ports.CustomerRepository.
type CustomerRepo struct {
	pool Pool
}

// NewCustomerRepo creates a new CustomerRepo.
func NewCustomerRepo(pool Pool) *CustomerRepo {
	return &CustomerRepo{pool: pool}
}

const customerColumns = `id, name, email, phone, street, street2, city, zip, country_code, state, created_at`

// Create inserts a customer within a database transaction, so a failed order
// insert rolls the customer back with it.
func (r *CustomerRepo) Create(ctx context.Context, tx pgx.Tx, c *domain.Customer) error {
	query := `INSERT INTO customers (` + customerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := tx.Exec(ctx, query,
		c.ID, c.Name, c.Email, c.Phone, c.Street, c.Street2, c.City, c.Zip, c.CountryCode, c.State, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// GetByEmail fetches a customer by email, the match key for inbound orders.
// Returns nil when no customer has that email.
func (r *CustomerRepo) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE email = $1`

	c := &domain.Customer{}
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.Street, &c.Street2, &c.City, &c.Zip, &c.CountryCode, &c.State, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer by email: %w", err)
	}
	return c, nil
}

// Update refreshes a matched customer's contact fields within a transaction.
func (r *CustomerRepo) Update(ctx context.Context, tx pgx.Tx, c *domain.Customer) error {
	query := `UPDATE customers SET name = $1, phone = $2, street = $3, street2 = $4,
		city = $5, zip = $6, country_code = $7, state = $8 WHERE id = $9`

	tag, err := tx.Exec(ctx, query,
		c.Name, c.Phone, c.Street, c.Street2, c.City, c.Zip, c.CountryCode, c.State, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("customer not found: %s", c.ID)
	}
	return nil
}
