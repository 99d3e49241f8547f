package cache

import (
	"context"
	"sync"
	"time"

	"menupos/internal/models"
)

// MemoryMenuCache is the in-process fallback. Entries past their TTL are
// evicted on read.
type MemoryMenuCache struct {
	byID   sync.Map
	byName sync.Map
}

func NewMemoryMenuCache() *MemoryMenuCache {
	return &MemoryMenuCache{}
}

func (c *MemoryMenuCache) Put(ctx context.Context, menu *models.CachedMenu) error {
	if menu.RestaurantID != 0 {
		c.byID.Store(menu.RestaurantID, menu)
	}
	if menu.RestaurantName != "" {
		c.byName.Store(menu.RestaurantName, menu)
	}
	return nil
}

func (c *MemoryMenuCache) Get(ctx context.Context, restaurantID int64, restaurantName string) (*models.CachedMenu, error) {
	var val any
	var ok bool
	switch {
	case restaurantID != 0:
		val, ok = c.byID.Load(restaurantID)
	case restaurantName != "":
		val, ok = c.byName.Load(restaurantName)
	}
	if !ok {
		return nil, nil
	}

	menu := val.(*models.CachedMenu)
	if menu.Expired(time.Now()) {
		c.byID.Delete(menu.RestaurantID)
		c.byName.Delete(menu.RestaurantName)
		return nil, nil
	}
	return menu, nil
}

func (c *MemoryMenuCache) Clear(ctx context.Context) error {
	c.byID.Range(func(k, _ any) bool {
		c.byID.Delete(k)
		return true
	})
	c.byName.Range(func(k, _ any) bool {
		c.byName.Delete(k)
		return true
	})
	return nil
}
