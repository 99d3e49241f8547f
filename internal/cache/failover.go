package cache

import (
	"context"
	"sync/atomic"
	"time"

	"menupos/internal/domain"
	"menupos/internal/models"

	"github.com/rs/zerolog"
)

// FailoverMenuCache serves from the primary cache until it errors, then
// falls back to the secondary and retries the primary after a cooldown.
type FailoverMenuCache struct {
	primary   domain.MenuCache
	fallback  domain.MenuCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

func NewFailoverMenuCache(primary, fallback domain.MenuCache, logger *zerolog.Logger) *FailoverMenuCache {
	return &FailoverMenuCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (c *FailoverMenuCache) markDown(err error) {
	c.logger.Error().Err(err).Msg("primary menu cache failed, falling back to memory")
	c.isDown.Store(true)
	c.lastCheck.Store(time.Now().UnixNano())
}

func (c *FailoverMenuCache) shouldRetryPrimary() bool {
	return time.Since(time.Unix(0, c.lastCheck.Load())) > time.Minute
}

func (c *FailoverMenuCache) Put(ctx context.Context, menu *models.CachedMenu) error {
	if !c.isDown.Load() || c.shouldRetryPrimary() {
		err := c.primary.Put(ctx, menu)
		if err == nil {
			c.isDown.Store(false)
			// Mirror into the fallback so a later primary outage still
			// has something to serve.
			_ = c.fallback.Put(ctx, menu)
			return nil
		}
		c.markDown(err)
	}
	return c.fallback.Put(ctx, menu)
}

func (c *FailoverMenuCache) Get(ctx context.Context, restaurantID int64, restaurantName string) (*models.CachedMenu, error) {
	if !c.isDown.Load() || c.shouldRetryPrimary() {
		menu, err := c.primary.Get(ctx, restaurantID, restaurantName)
		if err == nil {
			c.isDown.Store(false)
			if menu != nil {
				return menu, nil
			}
			return c.fallback.Get(ctx, restaurantID, restaurantName)
		}
		c.markDown(err)
	}
	return c.fallback.Get(ctx, restaurantID, restaurantName)
}

func (c *FailoverMenuCache) Clear(ctx context.Context) error {
	var primaryErr error
	if !c.isDown.Load() {
		if primaryErr = c.primary.Clear(ctx); primaryErr != nil {
			c.markDown(primaryErr)
		}
	}
	return c.fallback.Clear(ctx)
}
