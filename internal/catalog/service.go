// Package catalog serves the product listing and loads catalog seed files
// into a store.
package catalog

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/cartclash/internal/apperr"
	"github.com/sells-group/cartclash/internal/model"
)

const (
	// MaxLimit caps how many products one listing may return.
	MaxLimit = 100

	PlaceholderDescription = "No description."
	PlaceholderImage       = "images/placeholder.png"
)

// Lister reads products ordered by ascending id.
type Lister interface {
	ListProducts(ctx context.Context, limit int) ([]model.Product, error)
}

// Service lists catalog products for display.
type Service struct {
	lister       Lister
	defaultLimit int
}

// NewService creates a Service. A non-positive defaultLimit means 20.
func NewService(lister Lister, defaultLimit int) *Service {
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	if defaultLimit > MaxLimit {
		defaultLimit = MaxLimit
	}
	return &Service{lister: lister, defaultLimit: defaultLimit}
}

// List returns up to limit products with display placeholders filled in.
func (s *Service) List(ctx context.Context, limit int) ([]model.Product, error) {
	switch {
	case limit <= 0:
		limit = s.defaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}

	products, err := s.lister.ListProducts(ctx, limit)
	if err != nil {
		zap.L().Error("catalog: list products failed", zap.Int("limit", limit), zap.Error(err))
		return nil, apperr.StorageUnavailable("A database error occurred fetching products.", err)
	}

	for i := range products {
		if products[i].Description == "" {
			products[i].Description = PlaceholderDescription
		}
		if products[i].ImageURL == "" {
			products[i].ImageURL = PlaceholderImage
		}
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}
