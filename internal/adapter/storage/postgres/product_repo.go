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

// ProductRepo implements ports.ProductRepository. The product_mirrors table
// carries a unique constraint on (connection_id, remote_id); Upsert leans on
// it so concurrent pulls of the same remote product converge on one row.
type ProductRepo struct {
	pool Pool
}

// NewProductRepo creates a new ProductRepo.
func NewProductRepo(pool Pool) *ProductRepo {
	return &ProductRepo{pool: pool}
}

const productColumns = `id, connection_id, remote_id, name, sku, regular_price,
	sale_price, description, on_sale, status, local_record_id, sync_direction,
	auto_sync, sync_status, last_error, last_sync_at, created_at, updated_at`

// Upsert inserts the mirror or refreshes the existing row. Mirrors tracking
// a remote product conflict on the partial (connection_id, remote_id) index;
// never-pushed local mirrors all carry remote_id 0 and hold no remote
// identity yet, so they conflict on primary key instead — two local-only
// products on one connection must stay two rows.
func (r *ProductRepo) Upsert(ctx context.Context, m *domain.ProductMirror) error {
	conflict := `ON CONFLICT (connection_id, remote_id) WHERE remote_id <> 0`
	if m.RemoteID == 0 {
		conflict = `ON CONFLICT (id)`
	}

	query := `INSERT INTO product_mirrors (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		` + conflict + ` DO UPDATE SET
			name = EXCLUDED.name, sku = EXCLUDED.sku,
			regular_price = EXCLUDED.regular_price, sale_price = EXCLUDED.sale_price,
			description = EXCLUDED.description, on_sale = EXCLUDED.on_sale,
			status = EXCLUDED.status, sync_status = EXCLUDED.sync_status,
			last_error = EXCLUDED.last_error, last_sync_at = EXCLUDED.last_sync_at,
			updated_at = EXCLUDED.updated_at
		RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		m.ID, m.ConnectionID, m.RemoteID, m.Name, m.SKU, m.RegularPrice,
		m.SalePrice, m.Description, m.OnSale, m.Status, m.LocalRecordID, m.SyncDirection,
		m.AutoSync, m.SyncStatus, m.LastError, m.LastSyncAt, m.CreatedAt, m.UpdatedAt,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("upsert product mirror: %w", err)
	}
	return nil
}

// GetByID fetches a mirror by UUID.
func (r *ProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ProductMirror, error) {
	query := `SELECT ` + productColumns + ` FROM product_mirrors WHERE id = $1`
	return scanProduct(r.pool.QueryRow(ctx, query, id))
}

// GetByRemoteID fetches a mirror by its remote catalog ID within a connection.
func (r *ProductRepo) GetByRemoteID(ctx context.Context, connectionID uuid.UUID, remoteID int64) (*domain.ProductMirror, error) {
	query := `SELECT ` + productColumns + ` FROM product_mirrors WHERE connection_id = $1 AND remote_id = $2`
	return scanProduct(r.pool.QueryRow(ctx, query, connectionID, remoteID))
}

// GetBySKU fetches a mirror by SKU within a connection.
func (r *ProductRepo) GetBySKU(ctx context.Context, connectionID uuid.UUID, sku string) (*domain.ProductMirror, error) {
	query := `SELECT ` + productColumns + ` FROM product_mirrors WHERE connection_id = $1 AND sku = $2`
	return scanProduct(r.pool.QueryRow(ctx, query, connectionID, sku))
}

// GetByName fetches a mirror by exact name within a connection.
func (r *ProductRepo) GetByName(ctx context.Context, connectionID uuid.UUID, name string) (*domain.ProductMirror, error) {
	query := `SELECT ` + productColumns + ` FROM product_mirrors WHERE connection_id = $1 AND name = $2`
	return scanProduct(r.pool.QueryRow(ctx, query, connectionID, name))
}

// ListBySyncStatus fetches all mirrors of a connection in the given state.
func (r *ProductRepo) ListBySyncStatus(ctx context.Context, connectionID uuid.UUID, status domain.SyncStatus) ([]domain.ProductMirror, error) {
	query := `SELECT ` + productColumns + ` FROM product_mirrors
		WHERE connection_id = $1 AND sync_status = $2 ORDER BY updated_at`
	return r.list(ctx, query, connectionID, status)
}

// ListByConnection fetches all mirrors of a connection.
func (r *ProductRepo) ListByConnection(ctx context.Context, connectionID uuid.UUID) ([]domain.ProductMirror, error) {
	query := `SELECT ` + productColumns + ` FROM product_mirrors WHERE connection_id = $1 ORDER BY remote_id`
	return r.list(ctx, query, connectionID)
}

// UpdateSyncState persists the sync state machine fields plus remote_id,
// which a successful first push assigns.
func (r *ProductRepo) UpdateSyncState(ctx context.Context, m *domain.ProductMirror) error {
	query := `UPDATE product_mirrors SET remote_id = $1, sync_status = $2, last_error = $3,
		last_sync_at = $4, updated_at = $5 WHERE id = $6`

	tag, err := r.pool.Exec(ctx, query, m.RemoteID, m.SyncStatus, m.LastError, m.LastSyncAt, time.Now(), m.ID)
	if err != nil {
		return fmt.Errorf("update product sync state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product mirror not found: %s", m.ID)
	}
	return nil
}

// Delete removes a mirror and (via FK cascade) its images.
func (r *ProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM product_mirrors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product mirror: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product mirror not found: %s", id)
	}
	return nil
}

const imageColumns = `id, product_id, name, alt, data, byte_size, sequence,
	remote_media_id, remote_url, sync_status, last_error, created_at`

// AddImage inserts one product image.
func (r *ProductRepo) AddImage(ctx context.Context, img *domain.ProductImage) error {
	query := `INSERT INTO product_images (` + imageColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.pool.Exec(ctx, query,
		img.ID, img.ProductID, img.Name, img.Alt, img.Data, img.ByteSize, img.Sequence,
		img.RemoteMediaID, img.RemoteURL, img.SyncStatus, img.LastError, img.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product image: %w", err)
	}
	return nil
}

// ListImages fetches a product's images in presentation order.
func (r *ProductRepo) ListImages(ctx context.Context, productID uuid.UUID) ([]domain.ProductImage, error) {
	query := `SELECT ` + imageColumns + ` FROM product_images WHERE product_id = $1 ORDER BY sequence`

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list product images: %w", err)
	}
	defer rows.Close()

	var images []domain.ProductImage
	for rows.Next() {
		img := domain.ProductImage{}
		err := rows.Scan(
			&img.ID, &img.ProductID, &img.Name, &img.Alt, &img.Data, &img.ByteSize, &img.Sequence,
			&img.RemoteMediaID, &img.RemoteURL, &img.SyncStatus, &img.LastError, &img.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan product image row: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product image rows: %w", err)
	}
	return images, nil
}

// UpdateImageState persists the per-image upload outcome.
func (r *ProductRepo) UpdateImageState(ctx context.Context, img *domain.ProductImage) error {
	query := `UPDATE product_images SET remote_media_id = $1, remote_url = $2,
		sync_status = $3, last_error = $4 WHERE id = $5`

	tag, err := r.pool.Exec(ctx, query, img.RemoteMediaID, img.RemoteURL, img.SyncStatus, img.LastError, img.ID)
	if err != nil {
		return fmt.Errorf("update product image state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product image not found: %s", img.ID)
	}
	return nil
}

func (r *ProductRepo) list(ctx context.Context, query string, args ...any) ([]domain.ProductMirror, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list product mirrors: %w", err)
	}
	defer rows.Close()

	var mirrors []domain.ProductMirror
	for rows.Next() {
		m := domain.ProductMirror{}
		if err := scanProductInto(rows, &m); err != nil {
			return nil, fmt.Errorf("scan product mirror row: %w", err)
		}
		mirrors = append(mirrors, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product mirror rows: %w", err)
	}
	return mirrors, nil
}

func scanProduct(row pgx.Row) (*domain.ProductMirror, error) {
	m := &domain.ProductMirror{}
	if err := scanProductInto(row, m); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan product mirror: %w", err)
	}
	return m, nil
}

func scanProductInto(row pgx.Row, m *domain.ProductMirror) error {
	return row.Scan(
		&m.ID, &m.ConnectionID, &m.RemoteID, &m.Name, &m.SKU, &m.RegularPrice,
		&m.SalePrice, &m.Description, &m.OnSale, &m.Status, &m.LocalRecordID, &m.SyncDirection,
		&m.AutoSync, &m.SyncStatus, &m.LastError, &m.LastSyncAt, &m.CreatedAt, &m.UpdatedAt,
	)
}
