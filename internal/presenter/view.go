package presenter

import (
	"fmt"
	"io"
	"strings"

	"github.com/sells-group/cartclash/internal/apperr"
	"github.com/sells-group/cartclash/internal/pricing"
	"github.com/sells-group/cartclash/pkg/priceapi"
)

const (
	msgLoading = "Loading prices..."
	msgNoData  = "No price data found."
)

// CardView is a render-ready snapshot of a Card.
type CardView struct {
	ProductID  int64
	State      CardState
	Message    string
	Rows       []RowView
	Difference string
}

// RowView is one source listing.
type RowView struct {
	Source      string
	Price       string
	Unavailable bool
	Lowest      bool
	URL         string
	Button      *ButtonView
}

// ButtonView is the watch control of a row.
type ButtonView struct {
	State    ButtonState
	Label    string
	Disabled bool
	Error    string
}

// View snapshots the card for rendering.
func (c *Card) View() CardView {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := CardView{ProductID: c.productID, State: c.state}
	switch c.state {
	case CardInitial:
		return v
	case CardLoading:
		v.Message = msgLoading
		return v
	}

	if c.loadErr != nil {
		if priceapi.IsTransport(c.loadErr) {
			v.Message = "Failed to load prices. " + c.loadErr.Error()
		} else {
			v.Message = "Error: " + apperr.MessageOf(c.loadErr, c.loadErr.Error())
		}
		return v
	}
	if len(c.prices) == 0 {
		v.Message = msgNoData
		return v
	}

	for _, p := range c.prices {
		row := RowView{
			Source:      p.Source,
			Price:       FormatINR(p.Price),
			Unavailable: !p.IsAvailable,
			Lowest:      p.IsLowest,
		}
		if p.URL != nil {
			row.URL = *p.URL
		}
		if b, ok := c.buttons[p.Source]; ok {
			row.Button = &ButtonView{
				State:    b.state,
				Label:    b.state.Label(),
				Disabled: b.state == Toggling,
				Error:    b.lastErr,
			}
		}
		v.Rows = append(v.Rows, row)
	}
	if delta, ok := pricing.Delta(c.prices); ok {
		v.Difference = "Difference: " + FormatINR(&delta)
	}
	return v
}

// Render writes the card as plain text.
func (v CardView) Render(w io.Writer, title string) error {
	var b strings.Builder
	if title == "" {
		title = fmt.Sprintf("Product %d", v.ProductID)
	}
	b.WriteString(title + "\n")

	if v.Message != "" {
		b.WriteString("  " + v.Message + "\n")
	}
	for _, r := range v.Rows {
		line := fmt.Sprintf("  %-10s %12s", r.Source, r.Price)
		if r.Unavailable {
			line += " (Unavailable)"
		}
		if r.Lowest {
			line += " [lowest]"
		}
		if r.URL != "" {
			line += fmt.Sprintf("  Visit %s: %s", r.Source, r.URL)
		}
		if r.Button != nil {
			line += "  [" + r.Button.Label + "]"
			if r.Button.Error != "" {
				line += " " + r.Button.Error
			}
		}
		b.WriteString(line + "\n")
	}
	if v.Difference != "" {
		b.WriteString("  " + v.Difference + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func errorMessage(err error, fallback string) string {
	if priceapi.IsTransport(err) {
		return fallback
	}
	return apperr.MessageOf(err, fallback)
}
