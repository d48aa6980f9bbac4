package store

import (
	"context"

	"github.com/sells-group/cartclash/internal/model"
)

// DefaultProductLimit caps ListProducts when no positive limit is given.
const DefaultProductLimit = 20

// Store defines the persistence interface for catalog, prices, watchlists
// and sessions.
type Store interface {
	// Catalog
	ListProducts(ctx context.Context, limit int) ([]model.Product, error)
	ProductExists(ctx context.Context, productID int64) (bool, error)
	UpsertProducts(ctx context.Context, products []model.Product) (int64, error)

	// Prices. Observations are append-only.
	AddObservations(ctx context.Context, obs []model.PriceObservation) (int64, error)
	LatestObservations(ctx context.Context, productID int64) ([]model.PriceObservation, error)

	// Watchlist. AddWatch inserts if absent and reports whether a row was
	// created; RemoveWatch reports whether a row was deleted.
	AddWatch(ctx context.Context, entry model.WatchlistEntry) (bool, error)
	RemoveWatch(ctx context.Context, userID, productID int64, source string) (bool, error)
	ListWatchlist(ctx context.Context, userID int64) ([]model.WatchlistEntry, error)

	// Sessions. GetSession returns (nil, nil) for unknown tokens.
	GetSession(ctx context.Context, token string) (*model.Session, error)
	SaveSession(ctx context.Context, sess model.Session) error

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

func productLimit(limit int) int {
	if limit <= 0 {
		return DefaultProductLimit
	}
	return limit
}
