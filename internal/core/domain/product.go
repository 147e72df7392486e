package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SyncStatus is the per-record synchronization state.
type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
	SyncError   SyncStatus = "error"
)

// ProductStatus mirrors the remote catalog lifecycle state.
type ProductStatus string

const (
	ProductDraft     ProductStatus = "draft"
	ProductPublished ProductStatus = "publish"
)

// ProductMirror is the local cached copy of one remote catalog entry.
// (ConnectionID, RemoteID) is unique; the storage layer enforces it.
type ProductMirror struct {
	ID           uuid.UUID `json:"id"`
	ConnectionID uuid.UUID `json:"connection_id"`
	RemoteID     int64     `json:"remote_id"`

	Name         string          `json:"name"`
	SKU          string          `json:"sku"`
	RegularPrice decimal.Decimal `json:"regular_price"`
	SalePrice    decimal.Decimal `json:"sale_price"`
	Description  string          `json:"description"`
	OnSale       bool            `json:"on_sale"`
	Status       ProductStatus   `json:"status"`

	// Link to the locally-owned business record, if any.
	LocalRecordID *uuid.UUID `json:"local_record_id,omitempty"`

	SyncDirection SyncDirection `json:"sync_direction"`
	AutoSync      bool          `json:"auto_sync"`

	SyncStatus SyncStatus `json:"sync_status"`
	LastError  *string    `json:"last_error,omitempty"`
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`

	Images []ProductImage `json:"images,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MarkSynced records a successful push/pull.
func (p *ProductMirror) MarkSynced(now time.Time) {
	p.SyncStatus = SyncSynced
	p.LastError = nil
	p.LastSyncAt = &now
}

// MarkError records a failed sync attempt, keeping the message for
// operator inspection.
func (p *ProductMirror) MarkError(msg string) {
	p.SyncStatus = SyncError
	p.LastError = &msg
}

// MarkPending re-enters the record into the sync pipeline. Called when a
// watched field changes, including after an error (manual retry path).
func (p *ProductMirror) MarkPending() {
	p.SyncStatus = SyncPending
	p.LastError = nil
}

// Watched fields: a change to any of these is significant enough to trigger
// a sync attempt. Changes to anything else never produce an outbound call.
const (
	FieldName         = "name"
	FieldRegularPrice = "regular_price"
	FieldSalePrice    = "sale_price"
	FieldDescription  = "description"
	FieldOnSale       = "on_sale"
	FieldStatus       = "status"
	FieldImages       = "images"
)

// WatchedChanges returns the watched fields whose values differ between the
// current mirror state and an incoming update. An empty result means the
// write must not trigger a sync.
func (p *ProductMirror) WatchedChanges(incoming *ProductMirror) []string {
	var changed []string
	if p.Name != incoming.Name {
		changed = append(changed, FieldName)
	}
	if !p.RegularPrice.Equal(incoming.RegularPrice) {
		changed = append(changed, FieldRegularPrice)
	}
	if !p.SalePrice.Equal(incoming.SalePrice) {
		changed = append(changed, FieldSalePrice)
	}
	if p.Description != incoming.Description {
		changed = append(changed, FieldDescription)
	}
	if p.OnSale != incoming.OnSale {
		changed = append(changed, FieldOnSale)
	}
	if p.Status != incoming.Status {
		changed = append(changed, FieldStatus)
	}
	return changed
}

// ImageSequenceStep is the spacing between assigned image positions.
// Gaps leave room for manual reordering without renumbering.
const ImageSequenceStep = 10

// ProductImage belongs to exactly one ProductMirror.
type ProductImage struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`

	Name     string `json:"name"`
	Alt      string `json:"alt"`
	Data     []byte `json:"-"`
	ByteSize int64  `json:"byte_size"`

	// Sequence is a multiple of ImageSequenceStep and defines presentation
	// order. Position on the remote side is Sequence / ImageSequenceStep.
	Sequence int `json:"sequence"`

	RemoteMediaID *int64 `json:"remote_media_id,omitempty"`
	RemoteURL     string `json:"remote_url,omitempty"`

	SyncStatus SyncStatus `json:"sync_status"`
	LastError  *string    `json:"last_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Position converts the local sequence into the remote position index.
func (i *ProductImage) Position() int {
	return i.Sequence / ImageSequenceStep
}

// MarkSynced records a successful upload.
func (i *ProductImage) MarkSynced() {
	i.SyncStatus = SyncSynced
	i.LastError = nil
}

// MarkError records an upload or download failure for this image only.
func (i *ProductImage) MarkError(msg string) {
	i.SyncStatus = SyncError
	i.LastError = &msg
}
