// Package api exposes the catalog, price and watchlist operations over
// HTTP with JSON bodies.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sells-group/cartclash/internal/model"
	"github.com/sells-group/cartclash/internal/session"
	"github.com/sells-group/cartclash/internal/watchlist"
)

// Catalog lists products.
type Catalog interface {
	List(ctx context.Context, limit int) ([]model.Product, error)
}

// Prices returns the current per-source prices of a product.
type Prices interface {
	CurrentPrices(ctx context.Context, productID int64) ([]model.AggregatedPrice, error)
}

// Watchlist mutates and lists a user's watchlist.
type Watchlist interface {
	Apply(ctx context.Context, req watchlist.Request) (model.ToggleResult, error)
	List(ctx context.Context, userID int64) ([]model.WatchlistEntry, error)
}

// Pinger reports backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services behind the routes.
type Deps struct {
	Catalog   Catalog
	Prices    Prices
	Watchlist Watchlist
	Sessions  session.Resolver
	Health    Pinger
}

// Options tunes the router.
type Options struct {
	CORSOrigins []string
}

// NewRouter builds the HTTP handler.
func NewRouter(deps Deps, opts Options) http.Handler {
	h := &handlers{deps: deps}

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Not found."})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, watchErrorBody{Success: false, Error: "Invalid request method."})
	})

	r.Get("/health", h.health)
	r.Get("/products", h.listProducts)
	r.Get("/prices", h.getPrices)
	r.Get("/watchlist", h.listWatchlist)
	r.Post("/watchlist", h.toggleWatch)

	return r
}
