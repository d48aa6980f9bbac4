package model

import "time"

// Product is a catalog item whose prices are compared across sources.
type Product struct {
	ID          int64     `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	ImageURL    string    `json:"image_url" yaml:"image_url"`
	CreatedAt   time.Time `json:"created_at,omitempty" yaml:"-"`
}

// Session is the persisted login state behind a session token.
// UserID is nil when the session was never bound to a user.
type Session struct {
	Token    string `json:"token" yaml:"token"`
	UserID   *int64 `json:"user_id" yaml:"user_id"`
	LoggedIn bool   `json:"logged_in" yaml:"logged_in"`
}
