package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"woosync/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ConnectionRepo implements ports.ConnectionRepository.
type ConnectionRepo struct {
	pool Pool
}

// NewConnectionRepo creates a new ConnectionRepo.
func NewConnectionRepo(pool Pool) *ConnectionRepo {
	return &ConnectionRepo{pool: pool}
}

const connectionColumns = `id, name, store_url, consumer_key, consumer_secret,
	wp_username, wp_app_password, upload_strategy, sync_direction, conflict_policy,
	api_version, active, status, last_error, last_sync_at, created_at, updated_at`

// Create inserts a new connection.
func (r *ConnectionRepo) Create(ctx context.Context, conn *domain.Connection) error {
	query := `INSERT INTO connections (` + connectionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err := r.pool.Exec(ctx, query,
		conn.ID, conn.Name, conn.StoreURL, conn.ConsumerKey, conn.ConsumerSecret,
		conn.WPUsername, conn.WPAppPassword, conn.UploadStrategy, conn.SyncDirection, conn.ConflictPolicy,
		conn.APIVersion, conn.Active, conn.Status, conn.LastError, conn.LastSyncAt,
		conn.CreatedAt, conn.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert connection: %w", err)
	}
	return nil
}

// GetByID fetches a connection by UUID.
func (r *ConnectionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE id = $1`
	return scanConnection(r.pool.QueryRow(ctx, query, id))
}

// List fetches all connections, optionally only active ones.
func (r *ConnectionRepo) List(ctx context.Context, activeOnly bool) ([]domain.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	defer rows.Close()

	var conns []domain.Connection
	for rows.Next() {
		c := domain.Connection{}
		if err := scanConnectionInto(rows, &c); err != nil {
			return nil, fmt.Errorf("scan connection row: %w", err)
		}
		conns = append(conns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate connection rows: %w", err)
	}
	return conns, nil
}

// Update persists all mutable fields of a connection.
func (r *ConnectionRepo) Update(ctx context.Context, conn *domain.Connection) error {
	query := `UPDATE connections SET name = $1, store_url = $2, consumer_key = $3,
		consumer_secret = $4, wp_username = $5, wp_app_password = $6, upload_strategy = $7,
		sync_direction = $8, conflict_policy = $9, api_version = $10, active = $11,
		last_sync_at = $12, updated_at = $13
		WHERE id = $14`

	tag, err := r.pool.Exec(ctx, query,
		conn.Name, conn.StoreURL, conn.ConsumerKey,
		conn.ConsumerSecret, conn.WPUsername, conn.WPAppPassword, conn.UploadStrategy,
		conn.SyncDirection, conn.ConflictPolicy, conn.APIVersion, conn.Active,
		conn.LastSyncAt, time.Now(), conn.ID,
	)
	if err != nil {
		return fmt.Errorf("update connection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("connection not found: %s", conn.ID)
	}
	return nil
}

// UpdateStatus records the outcome of a connectivity probe or a fatal
// connection-level error.
func (r *ConnectionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ConnectionStatus, lastError *string) error {
	query := `UPDATE connections SET status = $1, last_error = $2, updated_at = $3 WHERE id = $4`

	tag, err := r.pool.Exec(ctx, query, status, lastError, time.Now(), id)
	if err != nil {
		return fmt.Errorf("update connection status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("connection not found: %s", id)
	}
	return nil
}

func scanConnection(row pgx.Row) (*domain.Connection, error) {
	c := &domain.Connection{}
	if err := scanConnectionInto(row, c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan connection: %w", err)
	}
	return c, nil
}

func scanConnectionInto(row pgx.Row, c *domain.Connection) error {
	return row.Scan(
		&c.ID, &c.Name, &c.StoreURL, &c.ConsumerKey, &c.ConsumerSecret,
		&c.WPUsername, &c.WPAppPassword, &c.UploadStrategy, &c.SyncDirection, &c.ConflictPolicy,
		&c.APIVersion, &c.Active, &c.Status, &c.LastError, &c.LastSyncAt,
		&c.CreatedAt, &c.UpdatedAt,
	)
}
