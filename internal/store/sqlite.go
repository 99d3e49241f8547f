package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"menupos/internal/models"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// SQLiteQueue keeps the order queue in a local SQLite database.
type SQLiteQueue struct {
	db     *sql.DB
	logger *zerolog.Logger
	ids    idGenerator
	mu     sync.Mutex
}

func NewSQLiteQueue(path string, logger *zerolog.Logger) (*SQLiteQueue, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	db, err := openAndMigrate(path)
	if err != nil {
		// An unreadable store degrades to an empty one: move the corrupt
		// file aside and start over, availability over history.
		logger.Warn().Err(err).Str("path", path).Msg("order store unreadable, recreating empty")
		_ = os.Rename(path, path+".corrupt")
		db, err = openAndMigrate(path)
		if err != nil {
			return nil, fmt.Errorf("open order store: %w", err)
		}
	}

	q := &SQLiteQueue{db: db, logger: logger}

	var maxID sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(id) FROM order_queue`).Scan(&maxID); err == nil && maxID.Valid {
		q.ids.seed(maxID.Int64)
	}

	logger.Info().Str("path", path).Msg("order store initialized")
	return q, nil
}

func openAndMigrate(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS order_queue (
            id INTEGER PRIMARY KEY,
            payload TEXT NOT NULL,
            auth_token TEXT NOT NULL,
            endpoint TEXT NOT NULL DEFAULT '',
            created_at DATETIME NOT NULL,
            synced BOOLEAN NOT NULL DEFAULT 0,
            synced_at DATETIME
        )`,
		`CREATE INDEX IF NOT EXISTS idx_order_queue_synced ON order_queue(synced)`,
		`CREATE INDEX IF NOT EXISTS idx_order_queue_created_at ON order_queue(created_at)`,
	}
	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate order store: %w", err)
		}
	}

	return db, nil
}

func (q *SQLiteQueue) Append(ctx context.Context, payload json.RawMessage, authToken, endpoint string) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	id := q.ids.next()
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO order_queue (id, payload, auth_token, endpoint, created_at, synced) VALUES (?, ?, ?, ?, ?, 0)`,
		id, string(payload), authToken, endpoint, time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("append order: %w", err)
	}
	return id, nil
}

func (q *SQLiteQueue) ListPending(ctx context.Context) ([]models.QueuedOrder, error) {
	return q.list(ctx, `SELECT id, payload, auth_token, endpoint, created_at, synced, synced_at
        FROM order_queue WHERE synced = 0 ORDER BY created_at ASC, id ASC`)
}

func (q *SQLiteQueue) ListAll(ctx context.Context) ([]models.QueuedOrder, error) {
	return q.list(ctx, `SELECT id, payload, auth_token, endpoint, created_at, synced, synced_at
        FROM order_queue ORDER BY created_at DESC, id DESC`)
}

func (q *SQLiteQueue) list(ctx context.Context, query string) ([]models.QueuedOrder, error) {
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.QueuedOrder
	for rows.Next() {
		var o models.QueuedOrder
		var payload string
		var syncedAt sql.NullTime
		if err := rows.Scan(&o.ID, &payload, &o.AuthToken, &o.Endpoint, &o.CreatedAt, &o.Synced, &syncedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Payload = json.RawMessage(payload)
		if syncedAt.Valid {
			t := syncedAt.Time
			o.SyncedAt = &t
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (q *SQLiteQueue) MarkSynced(ctx context.Context, id int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	_, err := q.db.ExecContext(ctx,
		`UPDATE order_queue SET synced = 1, synced_at = ? WHERE id = ? AND synced = 0`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}

func (q *SQLiteQueue) Remove(ctx context.Context, id int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, err := q.db.ExecContext(ctx, `DELETE FROM order_queue WHERE id = ?`, id); err != nil {
		return fmt.Errorf("remove order: %w", err)
	}
	return nil
}

func (q *SQLiteQueue) Close() error {
	return q.db.Close()
}
