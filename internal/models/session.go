package models

import "time"

// User is the authenticated account returned by the remote service.
type User struct {
	ID          int64        `json:"id"`
	Mobile      string       `json:"mobile"`
	Name        string       `json:"name,omitempty"`
	Restaurants []Restaurant `json:"restaurants,omitempty"`
}

type Restaurant struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// RestaurantName returns the first linked restaurant, the one orders are
// composed against.
func (u *User) RestaurantName() string {
	if u == nil || len(u.Restaurants) == 0 {
		return ""
	}
	return u.Restaurants[0].Name
}

// Session is the cached login: who is signed in and with which token.
type Session struct {
	User     *User     `json:"user"`
	Token    string    `json:"token"`
	CachedAt time.Time `json:"cached_at"`
}

// PrinterConfig is the per-printer preference record kept for the UI shell.
// The core only stores it; device I/O happens elsewhere.
type PrinterConfig struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
	Enabled     bool   `json:"enabled"`
	PaperWidth  int    `json:"paper_width,omitempty"`
	Copies      int    `json:"copies,omitempty"`
}
