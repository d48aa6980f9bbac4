package catalog

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/cartclash/internal/model"
)

// maxSourceLen matches the width of the source column.
const maxSourceLen = 50

// Seed is the content of a catalog seed file.
type Seed struct {
	Products []model.Product `yaml:"products"`
	Prices   []SeedPrice     `yaml:"prices"`
	Sessions []model.Session `yaml:"sessions"`
}

// SeedPrice is one price observation as written in a seed file. Price is
// kept as text so the decimal digits survive decoding.
type SeedPrice struct {
	ProductID   int64     `yaml:"product_id"`
	Source      string    `yaml:"source"`
	Price       *string   `yaml:"price"`
	URL         *string   `yaml:"url"`
	IsAvailable *bool     `yaml:"is_available"`
	ObservedAt  time.Time `yaml:"observed_at"`
}

// Observation converts p into a PriceObservation. Availability defaults to
// true when the seed omits it.
func (p SeedPrice) Observation() (model.PriceObservation, error) {
	obs := model.PriceObservation{
		ProductID:   p.ProductID,
		Source:      strings.TrimSpace(p.Source),
		URL:         p.URL,
		IsAvailable: true,
		ObservedAt:  p.ObservedAt,
	}
	if p.IsAvailable != nil {
		obs.IsAvailable = *p.IsAvailable
	}
	if obs.ProductID <= 0 {
		return obs, eris.Errorf("catalog: invalid product_id %d", p.ProductID)
	}
	if obs.Source == "" {
		return obs, eris.New("catalog: source is required")
	}
	if utf8.RuneCountInString(obs.Source) > maxSourceLen {
		return obs, eris.Errorf("catalog: source %q is too long", obs.Source)
	}
	if p.Price != nil && strings.TrimSpace(*p.Price) != "" {
		d, err := decimal.NewFromString(strings.TrimSpace(*p.Price))
		if err != nil {
			return obs, eris.Wrapf(err, "catalog: parse price %q", *p.Price)
		}
		if d.IsNegative() {
			return obs, eris.Errorf("catalog: negative price %s", d)
		}
		d = d.Round(2)
		obs.Price = &d
	}
	if obs.URL != nil && strings.TrimSpace(*obs.URL) == "" {
		obs.URL = nil
	}
	return obs, nil
}

// LoadFile reads a seed from a .yaml, .yml or .xlsx file.
func LoadFile(path string) (*Seed, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "catalog: open seed")
		}
		defer f.Close() //nolint:errcheck
		return LoadYAML(f)
	case ".xlsx":
		return LoadXLSX(path)
	default:
		return nil, eris.Errorf("catalog: unsupported seed format %q", filepath.Ext(path))
	}
}

// LoadYAML decodes a YAML seed document.
func LoadYAML(r io.Reader) (*Seed, error) {
	var seed Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil {
		if err == io.EOF {
			return &seed, nil
		}
		return nil, eris.Wrap(err, "catalog: decode yaml seed")
	}
	return &seed, nil
}
