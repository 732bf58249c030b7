package domain

import "time"

// Site is a registered website whose traffic this service tracks.
// Domain is stored normalized: lowercase, no scheme, no trailing slash.
type Site struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Domain    string    `json:"domain" db:"domain"`
	Nickname  *string   `json:"nickname,omitempty" db:"nickname"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
