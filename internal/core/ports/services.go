package ports

import (
	"context"
	"time"

	"woosync/internal/core/domain"

	"github.com/google/uuid"
)

// CatalogClient is the typed client for the remote catalog API. Every call
// takes the Connection explicitly — there is no process-wide credential
// state. The client never retries; retry policy belongs to callers.
type CatalogClient interface {
	ListProducts(ctx context.Context, conn *domain.Connection, page, perPage int) ([]domain.RemoteProduct, error)
	GetProduct(ctx context.Context, conn *domain.Connection, remoteID int64) (*domain.RemoteProduct, error)
	CreateProduct(ctx context.Context, conn *domain.Connection, upd *domain.RemoteProductUpdate) (*domain.RemoteProduct, error)
	UpdateProduct(ctx context.Context, conn *domain.Connection, remoteID int64, upd *domain.RemoteProductUpdate) (*domain.RemoteProduct, error)
	DeleteProduct(ctx context.Context, conn *domain.Connection, remoteID int64) error
	// CountProducts probes connectivity and returns the remote catalog size.
	CountProducts(ctx context.Context, conn *domain.Connection) (int, error)
}

// MediaUploader posts raw image bytes to the secondary media-hosting
// endpoint (external-media strategy only).
type MediaUploader interface {
	UploadMedia(ctx context.Context, conn *domain.Connection, filename string, data []byte) (mediaID int64, url string, err error)
}

// ImageFetcher downloads one remote image. No retries inside; the image
// pipeline owns the retry budget.
type ImageFetcher interface {
	FetchImage(ctx context.Context, url string) ([]byte, error)
}

// OrderIdempotencyCache is the fast-path duplicate-delivery check. The DB
// unique constraint remains the source of truth; the cache only saves a
// round trip on replays.
type OrderIdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // cached order JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// --- Service Ports (Business Logic) ---

// SyncService is the per-record sync orchestrator.
type SyncService interface {
	// ApplyLocalChange runs the watched-field diff against the stored
	// mirror and pushes when required. Writes carrying the suppression
	// token never re-enter the machine.
	ApplyLocalChange(ctx context.Context, token domain.SyncToken, incoming *domain.ProductMirror) (*domain.ProductMirror, error)
	// PullConnection imports/refreshes all remote products of a connection.
	PullConnection(ctx context.Context, conn *domain.Connection) (*SyncReport, error)
	// PushPending pushes every pending mirror of a connection.
	PushPending(ctx context.Context, conn *domain.Connection) (*SyncReport, error)
	// DeleteProduct removes a mirror locally and requests remote deletion.
	DeleteProduct(ctx context.Context, conn *domain.Connection, productID uuid.UUID) error
}

// SyncReport summarizes one batch pass. Per-record failures are recorded on
// the records themselves; the report only counts them.
type SyncReport struct {
	Created int
	Updated int
	Skipped int
	Failed  int
	// Halted is set when a connection-level fatal error (auth) stopped the
	// pass early.
	Halted bool
}

// ImageService is the image upload/download pipeline.
type ImageService interface {
	// SyncImages uploads all non-synced images of a product using the
	// connection's strategy, then issues the catalog update that references
	// them. Idempotent.
	SyncImages(ctx context.Context, conn *domain.Connection, product *domain.ProductMirror) error
	// ImportImages downloads remote images for a freshly pulled product,
	// assigning positional sequences. One failing image never aborts the
	// rest.
	ImportImages(ctx context.Context, product *domain.ProductMirror, remote []domain.RemoteImage) error
}

// IngestService applies one inbound webhook delivery.
type IngestService interface {
	// Ingest validates, logs and idempotently applies a raw delivery for
	// the endpoint identified by token. The returned log reflects the final
	// outcome; err is non-nil only for infrastructure failures.
	Ingest(ctx context.Context, endpointToken string, body []byte, signature string) (*domain.WebhookLog, error)
}

// ConnectionService manages connection lifecycle and connectivity probes.
type ConnectionService interface {
	Create(ctx context.Context, conn *domain.Connection) error
	Update(ctx context.Context, conn *domain.Connection) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Connection, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Connection, error)
	// TestConnection probes the remote API and records the result on the
	// connection.
	TestConnection(ctx context.Context, id uuid.UUID) (int, error)
	// CreateEndpoint provisions a webhook endpoint with a fresh token.
	CreateEndpoint(ctx context.Context, ep *domain.WebhookEndpoint) error
}
