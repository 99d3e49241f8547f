package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"menupos/internal/config"
	"menupos/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisMenuCache keeps menu snapshots in redis with a TTL, so restarts of
// this client do not lose the cached menu.
type RedisMenuCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient builds a client from config.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}
	return redis.NewClient(options)
}

func NewRedisMenuCache(client *redis.Client, ttl time.Duration) *RedisMenuCache {
	return &RedisMenuCache{client: client, ttl: ttl}
}

func menuKeyByID(restaurantID int64) string {
	return fmt.Sprintf("menu:id:%d", restaurantID)
}

func menuKeyByName(name string) string {
	return "menu:name:" + name
}

func (c *RedisMenuCache) Put(ctx context.Context, menu *models.CachedMenu) error {
	if c.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	data, err := json.Marshal(menu)
	if err != nil {
		return fmt.Errorf("marshal menu: %w", err)
	}

	pipe := c.client.Pipeline()
	if menu.RestaurantID != 0 {
		pipe.Set(ctx, menuKeyByID(menu.RestaurantID), data, c.ttl)
	}
	if menu.RestaurantName != "" {
		pipe.Set(ctx, menuKeyByName(menu.RestaurantName), data, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store menu in redis: %w", err)
	}
	return nil
}

func (c *RedisMenuCache) Get(ctx context.Context, restaurantID int64, restaurantName string) (*models.CachedMenu, error) {
	if c.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}

	var key string
	switch {
	case restaurantID != 0:
		key = menuKeyByID(restaurantID)
	case restaurantName != "":
		key = menuKeyByName(restaurantName)
	default:
		return nil, nil
	}

	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get menu from redis: %w", err)
	}

	var menu models.CachedMenu
	if err := json.Unmarshal([]byte(val), &menu); err != nil {
		return nil, fmt.Errorf("unmarshal menu: %w", err)
	}
	return &menu, nil
}

func (c *RedisMenuCache) Clear(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	iter := c.client.Scan(ctx, 0, "menu:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("clear menu cache: %w", err)
		}
	}
	return iter.Err()
}

// Ping verifies the redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}

// Close closes the redis connection.
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
