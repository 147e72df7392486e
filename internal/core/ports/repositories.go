package ports

import (
	"context"
	"errors"

	"woosync/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrDuplicateKey is returned by Create operations when a storage-level
// unique constraint fires. Callers translate it into their own outcome
// (an idempotency hit for orders, a conflict elsewhere).
var ErrDuplicateKey = errors.New("duplicate key")

// ConnectionRepository defines persistence operations for remote-store
// connections.
type ConnectionRepository interface {
	Create(ctx context.Context, conn *domain.Connection) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Connection, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Connection, error)
	Update(ctx context.Context, conn *domain.Connection) error
	// UpdateStatus records the outcome of a connectivity probe or a fatal
	// connection-level error.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ConnectionStatus, lastError *string) error
}

// ProductRepository defines persistence for product mirrors and their
// images. Upsert enforces (connection_id, remote_id) uniqueness at the
// storage boundary.
type ProductRepository interface {
	Upsert(ctx context.Context, m *domain.ProductMirror) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ProductMirror, error)
	GetByRemoteID(ctx context.Context, connectionID uuid.UUID, remoteID int64) (*domain.ProductMirror, error)
	GetBySKU(ctx context.Context, connectionID uuid.UUID, sku string) (*domain.ProductMirror, error)
	GetByName(ctx context.Context, connectionID uuid.UUID, name string) (*domain.ProductMirror, error)
	ListBySyncStatus(ctx context.Context, connectionID uuid.UUID, status domain.SyncStatus) ([]domain.ProductMirror, error)
	ListByConnection(ctx context.Context, connectionID uuid.UUID) ([]domain.ProductMirror, error)
	UpdateSyncState(ctx context.Context, m *domain.ProductMirror) error
	Delete(ctx context.Context, id uuid.UUID) error

	AddImage(ctx context.Context, img *domain.ProductImage) error
	ListImages(ctx context.Context, productID uuid.UUID) ([]domain.ProductImage, error)
	UpdateImageState(ctx context.Context, img *domain.ProductImage) error
}

// CustomerRepository defines persistence for customers.
type CustomerRepository interface {
	Create(ctx context.Context, tx pgx.Tx, c *domain.Customer) error
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
	Update(ctx context.Context, tx pgx.Tx, c *domain.Customer) error
}

// OrderRepository defines persistence for locally-created orders.
// Create inserts the order and its lines inside the given transaction and
// returns ErrDuplicateKey when (connection_id, remote_order_key) already
// exists — the atomic check-then-insert two concurrent deliveries rely on.
type OrderRepository interface {
	Create(ctx context.Context, tx pgx.Tx, o *domain.Order) error
	GetByRemoteKey(ctx context.Context, connectionID uuid.UUID, orderKey string) (*domain.Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
}

// WebhookRepository defines persistence for webhook endpoints and their
// immutable delivery logs.
type WebhookRepository interface {
	CreateEndpoint(ctx context.Context, ep *domain.WebhookEndpoint) error
	GetEndpointByToken(ctx context.Context, token string) (*domain.WebhookEndpoint, error)
	ListEndpoints(ctx context.Context, connectionID uuid.UUID) ([]domain.WebhookEndpoint, error)
	UpdateEndpoint(ctx context.Context, ep *domain.WebhookEndpoint) error

	// CreateLog appends one delivery record. Logs are never updated.
	CreateLog(ctx context.Context, log *domain.WebhookLog) error
	ListLogs(ctx context.Context, endpointID uuid.UUID, limit int) ([]domain.WebhookLog, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
