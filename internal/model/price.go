package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceObservation is one recorded price snapshot for a product at a source.
// Observations are append-only; ID reflects insertion order.
type PriceObservation struct {
	ID          int64            `json:"id,omitempty"`
	ProductID   int64            `json:"product_id"`
	Source      string           `json:"source"`
	Price       *decimal.Decimal `json:"price"`
	URL         *string          `json:"url,omitempty"`
	IsAvailable bool             `json:"is_available"`
	ObservedAt  time.Time        `json:"observed_at"`
}

// AggregatedPrice is the current price of a product at one source.
type AggregatedPrice struct {
	ProductID   int64            `json:"product_id"`
	Source      string           `json:"source"`
	Price       *decimal.Decimal `json:"price"`
	IsAvailable bool             `json:"is_available"`
	URL         *string          `json:"url,omitempty"`
	IsLowest    bool             `json:"is_lowest"`
}

// Comparable reports whether the price takes part in lowest-price and
// difference computations: it must be both priced and available.
func (p AggregatedPrice) Comparable() bool {
	return p.Price != nil && p.IsAvailable
}
