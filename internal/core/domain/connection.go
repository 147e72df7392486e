package domain

import (
	"time"

	"github.com/google/uuid"
)

// UploadStrategy selects how product images reach the remote store.
// Exactly one strategy is selected per connection.
type UploadStrategy string

const (
	// UploadExternalMedia uploads raw bytes to the WordPress media library
	// first, then references the returned media ID from the catalog update.
	// Two remote calls per image; needs the secondary credential pair.
	UploadExternalMedia UploadStrategy = "external_media"
	// UploadInlineBase64 embeds base64-encoded bytes directly in the catalog
	// update. One call for all of a product's images; size-bounded.
	UploadInlineBase64 UploadStrategy = "inline_base64"
)

// SyncDirection controls which way writes propagate for a record.
type SyncDirection string

const (
	SyncPush SyncDirection = "push" // local -> remote only
	SyncPull SyncDirection = "pull" // remote -> local only
	SyncBoth SyncDirection = "both"
)

// CanPush reports whether local changes may be written to the remote store.
func (d SyncDirection) CanPush() bool { return d == SyncPush || d == SyncBoth }

// CanPull reports whether remote changes may be written locally.
func (d SyncDirection) CanPull() bool { return d == SyncPull || d == SyncBoth }

// ConflictPolicy decides the winner when both systems changed the same
// watched field within one sync window.
type ConflictPolicy string

const (
	ConflictLocalWins  ConflictPolicy = "local_wins"
	ConflictRemoteWins ConflictPolicy = "remote_wins"
	// ConflictManual flags the record for operator resolution and never
	// auto-overwrites either side.
	ConflictManual ConflictPolicy = "manual"
)

// ConnectionStatus is the result of the last connectivity probe.
type ConnectionStatus string

const (
	ConnectionNotTested ConnectionStatus = "not_tested"
	ConnectionOK        ConnectionStatus = "ok"
	ConnectionError     ConnectionStatus = "error"
)

// Connection holds the credentials and sync policy for one remote store.
// Credential fields are opaque and must never appear in logs.
type Connection struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	StoreURL string    `json:"store_url"`

	ConsumerKey    string `json:"-"`
	ConsumerSecret string `json:"-"`

	// Secondary credential pair for the external-media upload strategy.
	WPUsername    string `json:"-"`
	WPAppPassword string `json:"-"`

	UploadStrategy UploadStrategy `json:"upload_strategy"`
	SyncDirection  SyncDirection  `json:"sync_direction"`
	ConflictPolicy ConflictPolicy `json:"conflict_policy"`
	APIVersion     string         `json:"api_version"`

	Active     bool             `json:"active"`
	Status     ConnectionStatus `json:"status"`
	LastError  *string          `json:"last_error,omitempty"`
	LastSyncAt *time.Time       `json:"last_sync_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsActive reports whether the connection may be used for sync traffic.
func (c *Connection) IsActive() bool {
	return c.Active
}

// HasMediaCredentials reports whether the secondary credential pair needed
// by the external-media strategy is configured.
func (c *Connection) HasMediaCredentials() bool {
	return c.WPUsername != "" && c.WPAppPassword != ""
}
