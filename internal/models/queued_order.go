package models

import (
	"encoding/json"
	"time"
)

// QueuedOrder is one locally persisted order awaiting remote confirmation.
// The payload is opaque to the queue: it is stored and forwarded unchanged.
type QueuedOrder struct {
	ID        int64           `json:"id"`
	Payload   json.RawMessage `json:"payload"`
	AuthToken string          `json:"auth_token"`
	Endpoint  string          `json:"endpoint,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	Synced    bool            `json:"synced"`
	SyncedAt  *time.Time      `json:"synced_at,omitempty"`
}

// SyncResult aggregates one reconciliation run. Never persisted.
type SyncResult struct {
	SuccessCount  int      `json:"success_count"`
	FailedCount   int      `json:"failed_count"`
	ErrorMessages []string `json:"error_messages"`
	// Unauthorized is set when at least one order was rejected with an
	// authentication failure, so callers can prompt for re-login instead
	// of retrying with the same credential.
	Unauthorized bool `json:"unauthorized,omitempty"`
}
