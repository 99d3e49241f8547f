package domain

import (
	"context"
	"encoding/json"

	"menupos/internal/models"
)

// OrderQueue is the durable order queue: the single source of truth for
// orders the remote service has not yet confirmed. Implementations
// serialize mutations internally.
type OrderQueue interface {
	Append(ctx context.Context, payload json.RawMessage, authToken, endpoint string) (int64, error)
	ListPending(ctx context.Context) ([]models.QueuedOrder, error)
	ListAll(ctx context.Context) ([]models.QueuedOrder, error)
	MarkSynced(ctx context.Context, id int64) error
	Remove(ctx context.Context, id int64) error
	Close() error
}

// Connectivity is the unified online/offline signal.
type Connectivity interface {
	// CheckOnline probes now, with a bounded wait.
	CheckOnline(ctx context.Context) bool
	// Online returns the last believed state without probing.
	Online() bool
	// Subscribe delivers the new state on every transition.
	Subscribe() <-chan bool
}

// Submitter is the order submission gate exposed to the UI layer.
type Submitter interface {
	SubmitOrder(ctx context.Context, order *models.Order, token string) models.SubmitResult
}

// Syncer drains the order queue against the remote service.
type Syncer interface {
	Reconcile(ctx context.Context, tokenOverride string) (models.SyncResult, error)
}

// SessionStore owns the cached login and printer preferences.
type SessionStore interface {
	Load(ctx context.Context) (*models.Session, error)
	Save(ctx context.Context, session *models.Session) error
	Clear(ctx context.Context) error
	LoadPrinters(ctx context.Context) (map[string]models.PrinterConfig, error)
	SavePrinters(ctx context.Context, configs map[string]models.PrinterConfig) error
}

// MenuCache holds menu snapshots so ordering keeps working offline.
type MenuCache interface {
	Put(ctx context.Context, menu *models.CachedMenu) error
	Get(ctx context.Context, restaurantID int64, restaurantName string) (*models.CachedMenu, error)
	Clear(ctx context.Context) error
}
