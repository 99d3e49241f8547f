package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"menupos/internal/models"

	"github.com/rs/zerolog"
)

// FileQueue keeps the order queue in a single JSON file, rewritten whole on
// every mutation. It matches the layout the desktop client used, so an
// existing offline-orders file can be carried over as-is.
type FileQueue struct {
	path   string
	logger *zerolog.Logger
	ids    idGenerator
	mu     sync.Mutex
}

func NewFileQueue(path string, logger *zerolog.Logger) (*FileQueue, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	q := &FileQueue{path: path, logger: logger}

	var maxID int64
	for _, o := range q.load() {
		if o.ID > maxID {
			maxID = o.ID
		}
	}
	q.ids.seed(maxID)

	logger.Info().Str("path", path).Msg("order store initialized")
	return q, nil
}

// load reads the whole record set. A missing file is an empty queue;
// unparseable content degrades to empty with a warning.
func (q *FileQueue) load() []models.QueuedOrder {
	raw, err := os.ReadFile(q.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			q.logger.Warn().Err(err).Str("path", q.path).Msg("failed to read order store, treating as empty")
		}
		return nil
	}

	var orders []models.QueuedOrder
	if err := json.Unmarshal(raw, &orders); err != nil {
		q.logger.Warn().Err(err).Str("path", q.path).Msg("order store is corrupt, treating as empty")
		return nil
	}
	return orders
}

// save replaces the whole file. Written to a temp file and renamed into
// place so a crash mid-write cannot corrupt the previous record set.
func (q *FileQueue) save(orders []models.QueuedOrder) error {
	data, err := json.MarshalIndent(orders, "", "  ")
	if err != nil {
		return fmt.Errorf("encode order store: %w", err)
	}

	tmp := q.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write order store: %w", err)
	}
	if err := os.Rename(tmp, q.path); err != nil {
		return fmt.Errorf("replace order store: %w", err)
	}
	return nil
}

func (q *FileQueue) Append(ctx context.Context, payload json.RawMessage, authToken, endpoint string) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	orders := q.load()
	id := q.ids.next()
	orders = append(orders, models.QueuedOrder{
		ID:        id,
		Payload:   payload,
		AuthToken: authToken,
		Endpoint:  endpoint,
		CreatedAt: time.Now().UTC(),
		Synced:    false,
	})

	if err := q.save(orders); err != nil {
		return 0, err
	}
	return id, nil
}

func (q *FileQueue) ListPending(ctx context.Context) ([]models.QueuedOrder, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var pending []models.QueuedOrder
	for _, o := range q.load() {
		if !o.Synced {
			pending = append(pending, o)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].ID < pending[j].ID
		}
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	return pending, nil
}

func (q *FileQueue) ListAll(ctx context.Context) ([]models.QueuedOrder, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	orders := q.load()
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

func (q *FileQueue) MarkSynced(ctx context.Context, id int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	orders := q.load()
	for i := range orders {
		if orders[i].ID == id {
			if orders[i].Synced {
				return nil
			}
			now := time.Now().UTC()
			orders[i].Synced = true
			orders[i].SyncedAt = &now
			return q.save(orders)
		}
	}
	return nil
}

func (q *FileQueue) Remove(ctx context.Context, id int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	orders := q.load()
	filtered := orders[:0]
	for _, o := range orders {
		if o.ID != id {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == len(orders) {
		return nil
	}
	return q.save(filtered)
}

func (q *FileQueue) Close() error {
	return nil
}
