package catalog

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/cartclash/internal/model"
)

// Sheet names recognized in an XLSX seed workbook. The first row of each
// sheet is a header naming the columns; column order is free.
const (
	SheetProducts = "products"
	SheetPrices   = "prices"
	SheetSessions = "sessions"
)

// LoadXLSX reads a seed workbook. The products sheet is required; prices
// and sessions are optional.
func LoadXLSX(path string) (*Seed, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}

	seed := &Seed{}

	products, ok := f.Sheet[SheetProducts]
	if !ok {
		return nil, eris.Errorf("xlsx: sheet %q not found", SheetProducts)
	}
	err = eachRecord(products, func(line int, rec record) error {
		id, err := rec.intField("id")
		if err != nil {
			return eris.Wrapf(err, "xlsx: products row %d", line)
		}
		seed.Products = append(seed.Products, model.Product{
			ID:          id,
			Name:        rec.get("name"),
			Description: rec.get("description"),
			ImageURL:    rec.get("image_url"),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if prices, ok := f.Sheet[SheetPrices]; ok {
		err = eachRecord(prices, func(line int, rec record) error {
			p, err := rec.price()
			if err != nil {
				return eris.Wrapf(err, "xlsx: prices row %d", line)
			}
			seed.Prices = append(seed.Prices, p)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	if sessions, ok := f.Sheet[SheetSessions]; ok {
		err = eachRecord(sessions, func(line int, rec record) error {
			sess := model.Session{Token: rec.get("token"), LoggedIn: rec.flag("logged_in", false)}
			if rec.get("user_id") != "" {
				uid, err := rec.intField("user_id")
				if err != nil {
					return eris.Wrapf(err, "xlsx: sessions row %d", line)
				}
				sess.UserID = &uid
			}
			seed.Sessions = append(seed.Sessions, sess)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return seed, nil
}

// record is one sheet row keyed by lower-cased header name.
type record map[string]string

func (r record) get(col string) string {
	return strings.TrimSpace(r[col])
}

func (r record) intField(col string) (int64, error) {
	v := r.get(col)
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		// Numeric cells may come back formatted as floats.
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil || f != float64(int64(f)) {
			return 0, eris.Errorf("invalid %s %q", col, v)
		}
		n = int64(f)
	}
	return n, nil
}

func (r record) flag(col string, def bool) bool {
	switch strings.ToLower(r.get(col)) {
	case "":
		return def
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}

func (r record) price() (SeedPrice, error) {
	productID, err := r.intField("product_id")
	if err != nil {
		return SeedPrice{}, err
	}
	p := SeedPrice{ProductID: productID, Source: r.get("source")}
	if v := r.get("price"); v != "" {
		p.Price = &v
	}
	if v := r.get("url"); v != "" {
		p.URL = &v
	}
	available := r.flag("is_available", true)
	p.IsAvailable = &available
	if v := r.get("observed_at"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return SeedPrice{}, eris.Wrapf(err, "invalid observed_at %q", v)
		}
		p.ObservedAt = t.UTC()
	}
	return p, nil
}

// eachRecord calls fn for every non-empty data row of sheet. line is the
// 1-based spreadsheet row number.
func eachRecord(sheet *xlsx.Sheet, fn func(line int, rec record) error) error {
	if len(sheet.Rows) == 0 {
		return nil
	}
	header := rowToStrings(sheet.Rows[0])
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	for i, row := range sheet.Rows[1:] {
		cells := rowToStrings(row)
		rec := make(record, len(header))
		empty := true
		for j, name := range header {
			if j < len(cells) {
				rec[name] = cells[j]
				if strings.TrimSpace(cells[j]) != "" {
					empty = false
				}
			}
		}
		if empty {
			continue
		}
		if err := fn(i+2, rec); err != nil {
			return err
		}
	}
	return nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
