// Package session resolves the authenticated actor behind an HTTP request.
// Issuing sessions is handled elsewhere; this package only reads them.
package session

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/cartclash/internal/apperr"
	"github.com/sells-group/cartclash/internal/model"
)

// DefaultCookieName is the cookie carrying the session token.
const DefaultCookieName = "cartclash_session"

// Actor identifies the authenticated user making a request.
type Actor struct {
	UserID int64
}

// Resolver returns the actor behind r, or an Unauthorized / Conflict error.
type Resolver interface {
	Resolve(r *http.Request) (Actor, error)
}

// Store loads persisted sessions. A missing token yields (nil, nil).
type Store interface {
	GetSession(ctx context.Context, token string) (*model.Session, error)
}

// StoreResolver resolves tokens against a session Store.
type StoreResolver struct {
	store      Store
	cookieName string
}

// NewStoreResolver creates a StoreResolver. An empty cookieName uses
// DefaultCookieName.
func NewStoreResolver(store Store, cookieName string) *StoreResolver {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &StoreResolver{store: store, cookieName: cookieName}
}

// Token extracts the session token from the Authorization header or cookie.
func (s *StoreResolver) Token(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if tok, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
	}
	if c, err := r.Cookie(s.cookieName); err == nil {
		return c.Value
	}
	return ""
}

// Resolve implements Resolver.
func (s *StoreResolver) Resolve(r *http.Request) (Actor, error) {
	token := s.Token(r)
	if token == "" {
		return Actor{}, errAuthRequired()
	}

	sess, err := s.store.GetSession(r.Context(), token)
	if err != nil {
		zap.L().Error("session: lookup failed", zap.Error(err))
		return Actor{}, apperr.StorageUnavailable("Database service is currently unavailable.", err)
	}
	return Evaluate(sess)
}

// Evaluate classifies a loaded session. A logged-in session without a usable
// user id is a Conflict rather than Unauthorized.
func Evaluate(sess *model.Session) (Actor, error) {
	if sess == nil {
		return Actor{}, errAuthRequired()
	}
	if sess.UserID == nil || *sess.UserID <= 0 {
		if sess.LoggedIn {
			zap.L().Warn("session: logged in without user id")
			return Actor{}, apperr.Conflict("Session synchronization error. Please log out and log back in.")
		}
		return Actor{}, errAuthRequired()
	}
	if !sess.LoggedIn {
		return Actor{}, errAuthRequired()
	}
	return Actor{UserID: *sess.UserID}, nil
}

func errAuthRequired() *apperr.Error {
	return apperr.Unauthorized("Authentication required. Please log in.")
}
