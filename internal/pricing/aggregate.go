// Package pricing reduces stored price observations to one current price per
// source and derives the lowest-price highlight and price difference.
package pricing

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/sells-group/cartclash/internal/model"
)

// DefaultSourceOrder is the presentation order of known marketplaces. Sources
// not listed sort after these, lexicographically.
var DefaultSourceOrder = []string{"GeM", "Amazon", "Flipkart", "Myntra"}

// LatestPerSource keeps the most recent observation of each source. obs must
// be in insertion order: when two observations share the latest ObservedAt,
// the earlier one in obs wins. The result preserves first-seen source order.
func LatestPerSource(obs []model.PriceObservation) []model.PriceObservation {
	idx := make(map[string]int, len(obs))
	var out []model.PriceObservation
	for _, o := range obs {
		i, ok := idx[o.Source]
		if !ok {
			idx[o.Source] = len(out)
			out = append(out, o)
			continue
		}
		if o.ObservedAt.After(out[i].ObservedAt) {
			out[i] = o
		}
	}
	return out
}

// Aggregate turns the observations of one product into ordered current
// prices with the lowest price(s) marked.
func Aggregate(productID int64, obs []model.PriceObservation, order []string) []model.AggregatedPrice {
	latest := LatestPerSource(obs)
	prices := make([]model.AggregatedPrice, 0, len(latest))
	for _, o := range latest {
		prices = append(prices, model.AggregatedPrice{
			ProductID:   productID,
			Source:      o.Source,
			Price:       o.Price,
			IsAvailable: o.IsAvailable,
			URL:         o.URL,
		})
	}
	SortSources(prices, order)
	MarkLowest(prices)
	return prices
}

// SortSources orders prices by their position in order, then by source name.
func SortSources(prices []model.AggregatedPrice, order []string) {
	rank := make(map[string]int, len(order))
	for i, s := range order {
		rank[s] = i
	}
	rankOf := func(s string) int {
		if r, ok := rank[s]; ok {
			return r
		}
		return len(order)
	}
	sort.SliceStable(prices, func(i, j int) bool {
		ri, rj := rankOf(prices[i].Source), rankOf(prices[j].Source)
		if ri != rj {
			return ri < rj
		}
		return prices[i].Source < prices[j].Source
	})
}

// MarkLowest sets IsLowest on every comparable price equal to the minimum
// comparable price. Nothing is marked when no price is comparable.
func MarkLowest(prices []model.AggregatedPrice) {
	var lowest *decimal.Decimal
	for i := range prices {
		prices[i].IsLowest = false
		if !prices[i].Comparable() {
			continue
		}
		if lowest == nil || prices[i].Price.LessThan(*lowest) {
			lowest = prices[i].Price
		}
	}
	if lowest == nil {
		return
	}
	for i := range prices {
		if prices[i].Comparable() && prices[i].Price.Equal(*lowest) {
			prices[i].IsLowest = true
		}
	}
}

// Delta returns the absolute difference between the two comparable prices.
// ok is false unless exactly two prices are comparable.
func Delta(prices []model.AggregatedPrice) (delta decimal.Decimal, ok bool) {
	var pair []decimal.Decimal
	for _, p := range prices {
		if p.Comparable() {
			pair = append(pair, *p.Price)
		}
	}
	if len(pair) != 2 {
		return decimal.Zero, false
	}
	return pair[0].Sub(pair[1]).Abs(), true
}
