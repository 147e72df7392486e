package postgres

import (
	"context"
	"errors"
	"fmt"

	"woosync/internal/core/domain"
	"woosync/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OrderRepo implements ports.OrderRepository. The orders table carries a
// unique constraint on (connection_id, remote_order_key); Create translates
// a violation into ports.ErrDuplicateKey so the ingest layer can treat the
// replay as an idempotent hit. The constraint, not any prior check, is what
// keeps two concurrent deliveries from producing two orders.
type OrderRepo struct {
	pool Pool
}

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(pool Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

const orderColumns = `id, connection_id, number, remote_order_id, remote_order_key,
	customer_id, currency, payment_method, total, created_at`

// Create inserts the order and its lines within a database transaction.
func (r *OrderRepo) Create(ctx context.Context, tx pgx.Tx, o *domain.Order) error {
	query := `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := tx.Exec(ctx, query,
		o.ID, o.ConnectionID, o.Number, o.RemoteOrderID, o.RemoteOrderKey,
		o.CustomerID, o.Currency, o.PaymentMethod, o.Total, o.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ports.ErrDuplicateKey
		}
		return fmt.Errorf("insert order: %w", err)
	}

	lineQuery := `INSERT INTO order_lines (id, order_id, kind, name, sku,
		product_mirror_id, remote_product_id, quantity, unit_price, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	for _, l := range o.Lines {
		_, err := tx.Exec(ctx, lineQuery,
			l.ID, l.OrderID, l.Kind, l.Name, l.SKU,
			l.ProductMirrorID, l.RemoteProductID, l.Quantity, l.UnitPrice, l.Total,
		)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}
	return nil
}

// GetByRemoteKey fetches an order by its idempotency key within a
// connection. Returns nil when no such order exists.
func (r *OrderRepo) GetByRemoteKey(ctx context.Context, connectionID uuid.UUID, orderKey string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE connection_id = $1 AND remote_order_key = $2`
	return r.scanOrder(ctx, r.pool.QueryRow(ctx, query, connectionID, orderKey))
}

// GetByID fetches an order by UUID.
func (r *OrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return r.scanOrder(ctx, r.pool.QueryRow(ctx, query, id))
}

func (r *OrderRepo) scanOrder(ctx context.Context, row pgx.Row) (*domain.Order, error) {
	o := &domain.Order{}
	err := row.Scan(
		&o.ID, &o.ConnectionID, &o.Number, &o.RemoteOrderID, &o.RemoteOrderKey,
		&o.CustomerID, &o.Currency, &o.PaymentMethod, &o.Total, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	lines, err := r.listLines(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Lines = lines
	return o, nil
}

func (r *OrderRepo) listLines(ctx context.Context, orderID uuid.UUID) ([]domain.OrderLine, error) {
	query := `SELECT id, order_id, kind, name, sku, product_mirror_id, remote_product_id,
		quantity, unit_price, total FROM order_lines WHERE order_id = $1 ORDER BY id`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		l := domain.OrderLine{}
		err := rows.Scan(
			&l.ID, &l.OrderID, &l.Kind, &l.Name, &l.SKU, &l.ProductMirrorID, &l.RemoteProductID,
			&l.Quantity, &l.UnitPrice, &l.Total,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order line row: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order line rows: %w", err)
	}
	return lines, nil
}
