package service

import (
	"context"
	"time"

	"menupos/internal/domain"
	"menupos/internal/models"
	"menupos/internal/remote"

	"github.com/rs/zerolog"
)

// MenuService serves the menu remote-first with a cached fallback, so
// staff can keep composing orders while the service is unreachable.
type MenuService struct {
	remote *remote.Client
	cache  domain.MenuCache
	ttl    time.Duration
	logger *zerolog.Logger
}

func NewMenuService(client *remote.Client, cache domain.MenuCache, ttl time.Duration, logger *zerolog.Logger) *MenuService {
	if ttl <= 0 {
		ttl = time.Duration(models.MenuCacheTTL) * time.Second
	}
	return &MenuService{remote: client, cache: cache, ttl: ttl, logger: logger}
}

// GetMenu fetches the restaurant menu. On success the snapshot is cached;
// on failure the last cached snapshot is served instead, flagged as such.
func (s *MenuService) GetMenu(ctx context.Context, restaurantID int64, restaurantName, token string) (*models.CachedMenu, bool, error) {
	products, err := s.remote.FetchProducts(ctx, restaurantName, restaurantID, token)
	if err == nil {
		now := time.Now().UTC()
		menu := &models.CachedMenu{
			RestaurantID:   restaurantID,
			RestaurantName: restaurantName,
			Products:       products,
			CachedAt:       now,
			ExpiresAt:      now.Add(s.ttl),
		}
		if cacheErr := s.cache.Put(ctx, menu); cacheErr != nil {
			s.logger.Warn().Err(cacheErr).Msg("failed to cache menu")
		}
		return menu, false, nil
	}

	s.logger.Warn().Err(err).Msg("menu fetch failed, trying cache")

	cached, cacheErr := s.cache.Get(ctx, restaurantID, restaurantName)
	if cacheErr != nil || cached == nil {
		return nil, false, err
	}
	return cached, true, nil
}
