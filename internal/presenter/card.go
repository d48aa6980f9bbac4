// Package presenter drives the client side of a price comparison: one Card
// per product fetches aggregated prices once and owns a watch button per
// listing whose state only ever follows server-confirmed actions.
package presenter

import (
	"context"
	"errors"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/cartclash/internal/model"
	"github.com/sells-group/cartclash/pkg/priceapi"
)

// CardState is the lifecycle of a product card.
type CardState int

const (
	CardInitial CardState = iota
	CardLoading
	CardLoaded
)

func (s CardState) String() string {
	switch s {
	case CardLoading:
		return "loading"
	case CardLoaded:
		return "loaded"
	default:
		return "initial"
	}
}

var (
	// ErrCompareRejected is returned when a card has already been compared.
	ErrCompareRejected = errors.New("presenter: compare already requested for this card")
	// ErrToggleInFlight is returned when a button is still waiting on a reply.
	ErrToggleInFlight = errors.New("presenter: watchlist update already in progress")
	// ErrNoButton is returned for a source without a watch button.
	ErrNoButton = errors.New("presenter: no watch button for source")
)

// Backend is the server side a card talks to. priceapi.Client satisfies it.
type Backend interface {
	Prices(ctx context.Context, productID int64) ([]model.AggregatedPrice, error)
	Watch(ctx context.Context, productID int64, source string, action model.Action) (*priceapi.WatchResult, error)
}

// Card is the presenter state of one product. It is safe for concurrent use;
// a compare and a toggle may be in flight at the same time.
type Card struct {
	productID int64
	backend   Backend
	loggedIn  bool

	mu      sync.Mutex
	state   CardState
	prices  []model.AggregatedPrice
	loadErr error
	buttons map[string]*Button
	seeded  map[string]bool
}

// NewCard creates a card in the initial state. Watch buttons are only
// offered to logged-in viewers.
func NewCard(productID int64, backend Backend, loggedIn bool) *Card {
	return &Card{
		productID: productID,
		backend:   backend,
		loggedIn:  loggedIn,
		buttons:   make(map[string]*Button),
		seeded:    make(map[string]bool),
	}
}

// ProductID returns the product the card shows.
func (c *Card) ProductID() int64 { return c.productID }

// State returns the card lifecycle state.
func (c *Card) State() CardState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SeedWatched marks sources the viewer already watches so their buttons
// start as watched once prices load.
func (c *Card) SeedWatched(sources ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range sources {
		c.seeded[s] = true
		if b, ok := c.buttons[s]; ok && b.state == Unwatched {
			b.state = Watched
		}
	}
}

// Compare fetches prices. It is accepted once per card; both success and
// failure leave the card loaded. The returned error is the load failure,
// which is also rendered by View.
func (c *Card) Compare(ctx context.Context) error {
	c.mu.Lock()
	if c.state != CardInitial {
		c.mu.Unlock()
		return ErrCompareRejected
	}
	c.state = CardLoading
	c.mu.Unlock()

	prices, err := c.backend.Prices(ctx, c.productID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = CardLoaded
	if err != nil {
		c.loadErr = err
		return eris.Wrapf(err, "presenter: load prices for product %d", c.productID)
	}
	c.prices = prices
	if c.loggedIn {
		for _, p := range prices {
			if p.Price == nil && p.URL == nil {
				continue
			}
			state := Unwatched
			if c.seeded[p.Source] {
				state = Watched
			}
			c.buttons[p.Source] = &Button{source: p.Source, state: state}
		}
	}
	return nil
}

// Toggle flips the watch button of source through the server. While the
// request is pending the button is Toggling and further toggles are
// rejected. On success the button takes the state the server confirmed; on
// failure it returns to its state before the request.
func (c *Card) Toggle(ctx context.Context, source string) (ButtonState, error) {
	c.mu.Lock()
	b, ok := c.buttons[source]
	if !ok {
		c.mu.Unlock()
		return Unwatched, ErrNoButton
	}
	if b.state == Toggling {
		c.mu.Unlock()
		return Toggling, ErrToggleInFlight
	}
	prev := b.state
	action := model.ActionAdd
	if prev == Watched {
		action = model.ActionRemove
	}
	b.state = Toggling
	b.lastErr = ""
	c.mu.Unlock()

	res, err := c.backend.Watch(ctx, c.productID, source, action)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil && res != nil && !res.Success {
		err = eris.New("presenter: watchlist update was not successful")
	}
	if err != nil {
		b.state = prev
		b.lastErr = errorMessage(err, "Could not update watchlist.")
		return prev, eris.Wrapf(err, "presenter: %s %s", action, source)
	}

	switch res.Action {
	case model.ConfirmedAdded:
		b.state = Watched
	case model.ConfirmedRemoved:
		b.state = Unwatched
	default:
		b.state = prev
		b.lastErr = "Could not update watchlist."
		return prev, eris.Errorf("presenter: unexpected confirmed action %q", res.Action)
	}
	return b.state, nil
}

// ButtonState returns the current state of source's button.
func (c *Card) ButtonState(source string) (ButtonState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.buttons[source]
	if !ok {
		return Unwatched, false
	}
	return b.state, true
}
