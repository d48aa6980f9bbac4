// Package priceapi provides a client for the cartclash HTTP API.
package priceapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/cartclash/internal/apperr"
	"github.com/sells-group/cartclash/internal/model"
)

// Client defines the cartclash API operations. Failed replies come back as
// *apperr.Error with the kind derived from the status code; transport
// failures are returned as-is. Requests are never retried.
type Client interface {
	Products(ctx context.Context, limit int) ([]model.Product, error)
	Prices(ctx context.Context, productID int64) ([]model.AggregatedPrice, error)
	Watch(ctx context.Context, productID int64, source string, action model.Action) (*WatchResult, error)
	Watchlist(ctx context.Context) ([]model.WatchlistEntry, error)
}

// WatchResult is the server's reply to a watchlist mutation.
type WatchResult struct {
	Success bool                  `json:"success"`
	Action  model.ConfirmedAction `json:"action"`
	Created bool                  `json:"created"`
	Message string                `json:"message"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets the API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithSessionToken sends token as a Bearer credential.
func WithSessionToken(token string) Option {
	return func(c *httpClient) {
		c.token = token
	}
}

// WithRateLimit paces requests to perSec with a burst of one. Zero or
// negative disables pacing.
func WithRateLimit(perSec float64) Option {
	return func(c *httpClient) {
		if perSec <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSec), 1)
	}
}

type httpClient struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a new API client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: "http://localhost:8080",
		http: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Products(ctx context.Context, limit int) ([]model.Product, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out struct {
		Results []model.Product `json:"results"`
	}
	if err := c.do(ctx, http.MethodGet, "/products", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *httpClient) Prices(ctx context.Context, productID int64) ([]model.AggregatedPrice, error) {
	q := url.Values{"id": {strconv.FormatInt(productID, 10)}}
	var out struct {
		Prices []model.AggregatedPrice `json:"prices"`
	}
	if err := c.do(ctx, http.MethodGet, "/prices", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Prices, nil
}

func (c *httpClient) Watch(ctx context.Context, productID int64, source string, action model.Action) (*WatchResult, error) {
	form := url.Values{
		"product_id": {strconv.FormatInt(productID, 10)},
		"source":     {source},
		"action":     {string(action)},
	}
	var out WatchResult
	if err := c.do(ctx, http.MethodPost, "/watchlist", nil, form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) Watchlist(ctx context.Context) ([]model.WatchlistEntry, error) {
	var out struct {
		Items []model.WatchlistEntry `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/watchlist", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// do sends one request and decodes a 2xx JSON reply into out.
func (c *httpClient) do(ctx context.Context, method, path string, query, form url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "priceapi: rate limit wait")
		}
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return eris.Wrapf(err, "priceapi: create request %s", path)
	}
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrapf(err, "priceapi: %s %s", method, path)
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return eris.Wrapf(err, "priceapi: read %s response", path)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, data)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrapf(err, "priceapi: unmarshal %s response", path)
	}
	return nil
}

// statusError turns an error reply into a classified error, preferring the
// server's own message.
func statusError(code int, data []byte) error {
	var body struct {
		Error string `json:"error"`
	}
	msg := ""
	if err := json.Unmarshal(data, &body); err == nil {
		msg = body.Error
	}
	if msg == "" {
		msg = http.StatusText(code)
	}
	return apperr.FromStatus(code, msg)
}

// IsTransport reports whether err came from the network or decoding rather
// than from a server reply.
func IsTransport(err error) bool {
	var ae *apperr.Error
	return err != nil && !errors.As(err, &ae)
}
