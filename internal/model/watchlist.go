package model

import "time"

// Action is a requested watchlist mutation.
type Action string

const (
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	return a == ActionAdd || a == ActionRemove
}

// Confirmed returns the action name reported back once a has been applied.
func (a Action) Confirmed() ConfirmedAction {
	if a == ActionRemove {
		return ConfirmedRemoved
	}
	return ConfirmedAdded
}

// ConfirmedAction is the mutation the server actually carried out.
type ConfirmedAction string

const (
	ConfirmedAdded   ConfirmedAction = "added"
	ConfirmedRemoved ConfirmedAction = "removed"
)

// WatchlistEntry marks a user's interest in one (product, source) listing.
// At most one entry exists per (UserID, ProductID, Source).
type WatchlistEntry struct {
	UserID    int64     `json:"user_id"`
	ProductID int64     `json:"product_id"`
	Source    string    `json:"source"`
	AddedAt   time.Time `json:"added_at"`
}

// ToggleResult reports the outcome of a watchlist mutation. Created is true
// when a row was inserted (add) or deleted (remove); false means the store
// was already in the requested state.
type ToggleResult struct {
	Action  ConfirmedAction `json:"action"`
	Created bool            `json:"created"`
}
