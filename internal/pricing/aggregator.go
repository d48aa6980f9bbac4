package pricing

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/cartclash/internal/apperr"
	"github.com/sells-group/cartclash/internal/model"
)

// Reader loads the observations of one product. Implementations return rows
// in insertion order and may already have reduced them to the latest row per
// source.
type Reader interface {
	LatestObservations(ctx context.Context, productID int64) ([]model.PriceObservation, error)
}

// Aggregator serves current prices for a product.
type Aggregator struct {
	reader Reader
	order  []string
}

// NewAggregator creates an Aggregator. A nil or empty order falls back to
// DefaultSourceOrder.
func NewAggregator(reader Reader, order []string) *Aggregator {
	if len(order) == 0 {
		order = DefaultSourceOrder
	}
	return &Aggregator{reader: reader, order: order}
}

// CurrentPrices returns one AggregatedPrice per source observed for
// productID. It has no side effects.
func (a *Aggregator) CurrentPrices(ctx context.Context, productID int64) ([]model.AggregatedPrice, error) {
	if productID <= 0 {
		return nil, apperr.NotFound("Valid Product ID is required.")
	}

	obs, err := a.reader.LatestObservations(ctx, productID)
	if err != nil {
		zap.L().Error("pricing: load observations failed",
			zap.Int64("product_id", productID),
			zap.Error(err),
		)
		return nil, apperr.StorageUnavailable("A database error occurred fetching prices.", err)
	}

	return Aggregate(productID, obs, a.order), nil
}
