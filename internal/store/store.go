package store

import (
	"fmt"
	"sync"
	"time"

	"menupos/internal/config"
	"menupos/internal/domain"

	"github.com/rs/zerolog"
)

// Open selects the queue backend from config. Both backends satisfy
// domain.OrderQueue; the choice is made once at startup.
func Open(cfg config.StorageConfig, logger *zerolog.Logger) (domain.OrderQueue, error) {
	switch cfg.Driver {
	case "file":
		return NewFileQueue(cfg.Path, logger)
	case "sqlite", "":
		return NewSQLiteQueue(cfg.Path, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
	}
}

// idGenerator hands out timestamp-derived ids that never repeat within a
// store, even when two appends land in the same millisecond.
type idGenerator struct {
	mu   sync.Mutex
	last int64
}

// seed raises the floor so ids stay unique across restarts.
func (g *idGenerator) seed(maxExisting int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if maxExisting > g.last {
		g.last = maxExisting
	}
}

func (g *idGenerator) next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := time.Now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}
