package api

import (
	"encoding/json"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/cartclash/internal/apperr"
	"github.com/sells-group/cartclash/internal/model"
	"github.com/sells-group/cartclash/internal/watchlist"
)

const maxBodyBytes = 64 << 10

// Watchlist reply messages.
const (
	msgAdded          = "Item added to your watchlist."
	msgAlreadyPresent = "Item is already in your watchlist."
	msgRemoved        = "Item removed from your watchlist."
	msgNotPresent     = "Item was not found in your watchlist (perhaps already removed)."
)

type handlers struct {
	deps Deps
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	if h.deps.Health != nil {
		if err := h.deps.Health.Ping(r.Context()); err != nil {
			zap.L().Warn("api: health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type productsResponse struct {
	Results []model.Product `json:"results"`
}

func (h *handlers) listProducts(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, apperr.InvalidInput("Limit must be a positive integer."))
			return
		}
		limit = n
	}

	products, err := h.deps.Catalog.List(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, productsResponse{Results: products})
}

func (h *handlers) getPrices(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r.URL.Query().Get("id"))
	if !ok {
		writeError(w, apperr.InvalidInput("Valid Product ID is required."))
		return
	}

	prices, err := h.deps.Prices.CurrentPrices(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if prices == nil {
		prices = []model.AggregatedPrice{}
	}
	writeJSON(w, http.StatusOK, pricesResponse{Prices: prices})
}

// toggleBody is the JSON form of a watchlist request. product_id may be a
// number or a numeric string.
type toggleBody struct {
	ProductID json.Number `json:"product_id"`
	Source    string      `json:"source"`
	Action    string      `json:"action"`
}

type toggleResponse struct {
	Success bool                  `json:"success"`
	Action  model.ConfirmedAction `json:"action"`
	Created bool                  `json:"created"`
	Message string                `json:"message"`
}

func (h *handlers) toggleWatch(w http.ResponseWriter, r *http.Request) {
	actor, err := h.deps.Sessions.Resolve(r)
	if err != nil {
		writeWatchError(w, err)
		return
	}

	body, err := decodeToggle(w, r)
	if err != nil {
		writeWatchError(w, err)
		return
	}

	productID, _ := parseID(body.ProductID.String())
	res, err := h.deps.Watchlist.Apply(r.Context(), watchlist.Request{
		UserID:    actor.UserID,
		ProductID: productID,
		Source:    body.Source,
		Action:    model.Action(strings.TrimSpace(body.Action)),
	})
	if err != nil {
		writeWatchError(w, err)
		return
	}

	status := http.StatusOK
	var msg string
	switch {
	case res.Action == model.ConfirmedAdded && res.Created:
		status, msg = http.StatusCreated, msgAdded
	case res.Action == model.ConfirmedAdded:
		msg = msgAlreadyPresent
	case res.Created:
		msg = msgRemoved
	default:
		msg = msgNotPresent
	}
	writeJSON(w, status, toggleResponse{Success: true, Action: res.Action, Created: res.Created, Message: msg})
}

type watchlistResponse struct {
	Success bool                   `json:"success"`
	Items   []model.WatchlistEntry `json:"items"`
}

func (h *handlers) listWatchlist(w http.ResponseWriter, r *http.Request) {
	actor, err := h.deps.Sessions.Resolve(r)
	if err != nil {
		writeWatchError(w, err)
		return
	}

	items, err := h.deps.Watchlist.List(r.Context(), actor.UserID)
	if err != nil {
		writeWatchError(w, err)
		return
	}
	if items == nil {
		items = []model.WatchlistEntry{}
	}
	writeJSON(w, http.StatusOK, watchlistResponse{Success: true, Items: items})
}

// decodeToggle reads a JSON or form-encoded watchlist request.
func decodeToggle(w http.ResponseWriter, r *http.Request) (toggleBody, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var body toggleBody
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return body, apperr.InvalidInput("Invalid request body.")
		}
		return body, nil
	}

	if err := r.ParseForm(); err != nil {
		return body, apperr.InvalidInput("Invalid request body.")
	}
	body.ProductID = json.Number(strings.TrimSpace(r.PostFormValue("product_id")))
	body.Source = r.PostFormValue("source")
	body.Action = r.PostFormValue("action")
	return body, nil
}

// parseID parses a positive integer id.
func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
