package models

import "time"

type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	CategoryID  int64   `json:"categoryId,omitempty"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	IsAvailable bool    `json:"isAvailable"`
}

type Category struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	SortOrder int64  `json:"sortOrder,omitempty"`
}

// CachedMenu is a restaurant menu snapshot held locally so the client can
// keep taking orders while the service is unreachable.
type CachedMenu struct {
	RestaurantID   int64      `json:"restaurant_id"`
	RestaurantName string     `json:"restaurant_name"`
	Products       []Product  `json:"products"`
	Categories     []Category `json:"categories"`
	CachedAt       time.Time  `json:"cached_at"`
	ExpiresAt      time.Time  `json:"expires_at"`
}

// Expired reports whether the snapshot is past its TTL.
func (m *CachedMenu) Expired(now time.Time) bool {
	return m == nil || !m.ExpiresAt.After(now)
}
