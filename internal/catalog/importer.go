package catalog

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/cartclash/internal/model"
)

// Writer persists seed content.
type Writer interface {
	UpsertProducts(ctx context.Context, products []model.Product) (int64, error)
	AddObservations(ctx context.Context, obs []model.PriceObservation) (int64, error)
	SaveSession(ctx context.Context, sess model.Session) error
}

// ImportResult counts what an import wrote.
type ImportResult struct {
	Products     int64 `json:"products"`
	Observations int64 `json:"observations"`
	Sessions     int   `json:"sessions"`
}

// Import validates seed and writes it through w. Products go first so
// observations can reference them. Observations are appended, never
// replaced, so importing the same file twice records the prices twice.
func Import(ctx context.Context, w Writer, seed *Seed) (ImportResult, error) {
	var res ImportResult
	log := zap.L().With(zap.String("component", "catalog.import"))

	obs := make([]model.PriceObservation, 0, len(seed.Prices))
	for i, p := range seed.Prices {
		o, err := p.Observation()
		if err != nil {
			return res, eris.Wrapf(err, "catalog: price entry %d", i+1)
		}
		obs = append(obs, o)
	}
	for i, p := range seed.Products {
		if p.ID <= 0 {
			return res, eris.Errorf("catalog: product entry %d: invalid id %d", i+1, p.ID)
		}
		if p.Name == "" {
			return res, eris.Errorf("catalog: product entry %d: name is required", i+1)
		}
	}

	if len(seed.Products) > 0 {
		n, err := w.UpsertProducts(ctx, seed.Products)
		if err != nil {
			return res, eris.Wrap(err, "catalog: upsert products")
		}
		res.Products = n
	}

	if len(obs) > 0 {
		n, err := w.AddObservations(ctx, obs)
		if err != nil {
			return res, eris.Wrap(err, "catalog: add observations")
		}
		res.Observations = n
	}

	for _, sess := range seed.Sessions {
		if sess.Token == "" {
			continue
		}
		if err := w.SaveSession(ctx, sess); err != nil {
			return res, eris.Wrap(err, "catalog: save session")
		}
		res.Sessions++
	}

	log.Info("catalog imported",
		zap.Int64("products", res.Products),
		zap.Int64("observations", res.Observations),
		zap.Int("sessions", res.Sessions),
	)
	return res, nil
}
