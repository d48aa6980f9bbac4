// Package watchlist implements the idempotent add/remove operation over a
// user's watched (product, source) listings.
package watchlist

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/sells-group/cartclash/internal/apperr"
	"github.com/sells-group/cartclash/internal/model"
)

// MaxSourceLen is the longest accepted source name, in characters.
const MaxSourceLen = 50

// Store persists watchlist membership. AddWatch must insert-if-absent in a
// single statement and report whether a row was created; RemoveWatch reports
// whether a row was deleted.
type Store interface {
	ProductExists(ctx context.Context, productID int64) (bool, error)
	AddWatch(ctx context.Context, entry model.WatchlistEntry) (bool, error)
	RemoveWatch(ctx context.Context, userID, productID int64, source string) (bool, error)
	ListWatchlist(ctx context.Context, userID int64) ([]model.WatchlistEntry, error)
}

// Request is one watchlist mutation on behalf of an authenticated user.
type Request struct {
	UserID    int64
	ProductID int64
	Source    string
	Action    model.Action
}

// Validate checks req and returns it with Source trimmed. All problems are
// reported together in one InvalidInput error.
func Validate(req Request) (Request, error) {
	req.Source = strings.TrimSpace(req.Source)
	req.Action = model.Action(strings.TrimSpace(string(req.Action)))

	var problems []string
	if req.UserID <= 0 {
		problems = append(problems, "Authenticated user is required.")
	}
	if req.ProductID <= 0 {
		problems = append(problems, "Invalid or missing Product ID.")
	}
	switch {
	case req.Source == "":
		problems = append(problems, "Source parameter is required.")
	case utf8.RuneCountInString(req.Source) > MaxSourceLen:
		problems = append(problems, "Source name is too long.")
	}
	if !req.Action.Valid() {
		problems = append(problems, `Invalid or missing action parameter (must be "add" or "remove").`)
	}

	if len(problems) > 0 {
		return req, apperr.InvalidInput(strings.Join(problems, " "))
	}
	return req, nil
}

// Service applies watchlist mutations.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a Service backed by store.
func NewService(store Store) *Service {
	return &Service{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Apply carries out req.Action. Adding an existing entry and removing an
// absent one both succeed with Created=false. The confirmed action always
// matches the requested one.
func (s *Service) Apply(ctx context.Context, req Request) (model.ToggleResult, error) {
	req, err := Validate(req)
	if err != nil {
		return model.ToggleResult{}, err
	}

	log := zap.L().With(
		zap.String("component", "watchlist"),
		zap.Int64("user_id", req.UserID),
		zap.Int64("product_id", req.ProductID),
		zap.String("source", req.Source),
		zap.String("action", string(req.Action)),
	)

	switch req.Action {
	case model.ActionAdd:
		exists, err := s.store.ProductExists(ctx, req.ProductID)
		if err != nil {
			log.Error("watchlist: product lookup failed", zap.Error(err))
			return model.ToggleResult{}, apperr.StorageUnavailable("A database error occurred processing your request. Please try again later.", err)
		}
		if !exists {
			return model.ToggleResult{}, apperr.NotFound("The specified product could not be found.")
		}

		created, err := s.store.AddWatch(ctx, model.WatchlistEntry{
			UserID:    req.UserID,
			ProductID: req.ProductID,
			Source:    req.Source,
			AddedAt:   s.now(),
		})
		if err != nil {
			log.Error("watchlist: add failed", zap.Error(err))
			return model.ToggleResult{}, apperr.StorageUnavailable("Could not add item to watchlist due to a database issue.", err)
		}
		log.Debug("watchlist: added", zap.Bool("created", created))
		return model.ToggleResult{Action: req.Action.Confirmed(), Created: created}, nil

	case model.ActionRemove:
		removed, err := s.store.RemoveWatch(ctx, req.UserID, req.ProductID, req.Source)
		if err != nil {
			log.Error("watchlist: remove failed", zap.Error(err))
			return model.ToggleResult{}, apperr.StorageUnavailable("Could not remove item from watchlist due to a database issue.", err)
		}
		log.Debug("watchlist: removed", zap.Bool("deleted", removed))
		return model.ToggleResult{Action: req.Action.Confirmed(), Created: removed}, nil
	}
	return model.ToggleResult{}, apperr.InvalidInput(`Invalid or missing action parameter (must be "add" or "remove").`)
}

// List returns the entries owned by userID, newest first.
func (s *Service) List(ctx context.Context, userID int64) ([]model.WatchlistEntry, error) {
	if userID <= 0 {
		return nil, apperr.InvalidInput("Authenticated user is required.")
	}
	entries, err := s.store.ListWatchlist(ctx, userID)
	if err != nil {
		zap.L().Error("watchlist: list failed", zap.Int64("user_id", userID), zap.Error(err))
		return nil, apperr.StorageUnavailable("A database error occurred loading your watchlist.", err)
	}
	return entries, nil
}
