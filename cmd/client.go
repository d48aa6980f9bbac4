package main

import (
	"net/http"
	"time"

	"github.com/sells-group/cartclash/internal/config"
	"github.com/sells-group/cartclash/pkg/priceapi"
)

var clientToken string

// newAPIClient builds a priceapi client from config; a --token flag
// overrides the configured session token.
func newAPIClient(cc config.ClientConfig) (priceapi.Client, string) {
	token := cc.SessionToken
	if clientToken != "" {
		token = clientToken
	}
	timeout := time.Duration(cc.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return priceapi.NewClient(
		priceapi.WithBaseURL(cc.BaseURL),
		priceapi.WithHTTPClient(&http.Client{Timeout: timeout}),
		priceapi.WithSessionToken(token),
		priceapi.WithRateLimit(cc.RatePerSec),
	), token
}
