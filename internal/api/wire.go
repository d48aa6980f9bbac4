package api

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/sells-group/cartclash/internal/model"
)

// wirePrice is a money value on the wire: a JSON number with two decimals, or
// null when the source has no price.
type wirePrice struct {
	d *decimal.Decimal
}

func (p wirePrice) MarshalJSON() ([]byte, error) {
	if p.d == nil {
		return []byte("null"), nil
	}
	return []byte(p.d.StringFixed(2)), nil
}

type priceRow struct {
	ProductID   int64     `json:"product_id"`
	Source      string    `json:"source"`
	Price       wirePrice `json:"price"`
	IsAvailable bool      `json:"is_available"`
	URL         *string   `json:"url,omitempty"`
	IsLowest    bool      `json:"is_lowest"`
}

type pricesResponse struct {
	Prices []model.AggregatedPrice `json:"prices"`
}

func (r pricesResponse) MarshalJSON() ([]byte, error) {
	rows := make([]priceRow, 0, len(r.Prices))
	for _, p := range r.Prices {
		rows = append(rows, priceRow{
			ProductID:   p.ProductID,
			Source:      p.Source,
			Price:       wirePrice{d: p.Price},
			IsAvailable: p.IsAvailable,
			URL:         p.URL,
			IsLowest:    p.IsLowest,
		})
	}
	return json.Marshal(struct {
		Prices []priceRow `json:"prices"`
	}{Prices: rows})
}
