package domain

// SyncToken tags the origin of a product write. Internally-initiated writes
// carry the suppression token; every write consumer must check it and skip
// re-triggering the orchestrator, otherwise a bidirectional sync recurses
// forever.
type SyncToken uint8

const (
	// TokenUserWrite marks a write originating outside the sync machine.
	TokenUserWrite SyncToken = iota
	// TokenSyncWrite is the suppression token carried by writes the sync
	// machine applies to the other side.
	TokenSyncWrite
)

// Suppressed reports whether the write must not re-enter the sync machine.
func (t SyncToken) Suppressed() bool { return t == TokenSyncWrite }
