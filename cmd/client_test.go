//go:build !integration

package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/cartclash/internal/config"
	"github.com/sells-group/cartclash/internal/model"
	"github.com/sells-group/cartclash/internal/store"
	"github.com/sells-group/cartclash/pkg/priceapi"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.Catalog.DefaultLimit = 20
	c.Server.SessionCookie = "cartclash_session"
	return c
}

func newTestAPI(t *testing.T) (*httptest.Server, *store.MemoryStore) {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()

	_, err := mem.UpsertProducts(ctx, []model.Product{{ID: 7, Name: "Office Chair"}, {ID: 8, Name: "Stapler"}})
	require.NoError(t, err)

	p := func(s string) *decimal.Decimal {
		d := decimal.RequireFromString(s)
		return &d
	}
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	_, err = mem.AddObservations(ctx, []model.PriceObservation{
		{ProductID: 7, Source: "GeM", Price: p("199.99"), IsAvailable: true, ObservedAt: at},
		{ProductID: 7, Source: "GeM", Price: p("210.00"), IsAvailable: true, ObservedAt: at.Add(time.Hour)},
		{ProductID: 7, Source: "Amazon", Price: p("205.00"), IsAvailable: true, ObservedAt: at.Add(2 * time.Hour)},
	})
	require.NoError(t, err)

	uid := int64(1)
	require.NoError(t, mem.SaveSession(ctx, model.Session{Token: "good", UserID: &uid, LoggedIn: true}))

	srv := httptest.NewServer(buildRouter(mem, testConfig()))
	t.Cleanup(srv.Close)
	return srv, mem
}

func TestRunCompare(t *testing.T) {
	srv, _ := newTestAPI(t)
	client := priceapi.NewClient(priceapi.WithBaseURL(srv.URL), priceapi.WithSessionToken("good"))

	var out bytes.Buffer
	require.NoError(t, runCompare(context.Background(), client, []int64{7, 8}, true, 2, &out))

	s := out.String()
	assert.Contains(t, s, "Office Chair")
	assert.Contains(t, s, "₹210.00")
	assert.Contains(t, s, "₹205.00 [lowest]")
	assert.Contains(t, s, "[+ Watchlist]")
	assert.Contains(t, s, "Difference: ₹5.00")
	assert.Contains(t, s, "Stapler\n  No price data found.")
	assert.Less(t, bytes.Index(out.Bytes(), []byte("Office Chair")), bytes.Index(out.Bytes(), []byte("Stapler")))
}

func TestRunCompare_SeedsWatchedButtons(t *testing.T) {
	srv, mem := newTestAPI(t)
	_, err := mem.AddWatch(context.Background(), model.WatchlistEntry{UserID: 1, ProductID: 7, Source: "Amazon"})
	require.NoError(t, err)
	client := priceapi.NewClient(priceapi.WithBaseURL(srv.URL), priceapi.WithSessionToken("good"))

	var out bytes.Buffer
	require.NoError(t, runCompare(context.Background(), client, []int64{7}, true, 0, &out))
	assert.Contains(t, out.String(), "[- Remove]")
	assert.Contains(t, out.String(), "[+ Watchlist]")
}

func TestRunCompare_LoggedOutHasNoButtons(t *testing.T) {
	srv, _ := newTestAPI(t)
	client := priceapi.NewClient(priceapi.WithBaseURL(srv.URL))

	var out bytes.Buffer
	require.NoError(t, runCompare(context.Background(), client, []int64{7}, false, 1, &out))
	assert.NotContains(t, out.String(), "Watchlist]")
}

func TestRunWatch_AddThenRemove(t *testing.T) {
	srv, mem := newTestAPI(t)
	client := priceapi.NewClient(priceapi.WithBaseURL(srv.URL), priceapi.WithSessionToken("good"))
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, runWatch(ctx, client, 7, "GeM", model.ActionAdd, &out))
	assert.Equal(t, "GeM watched: [- Remove]\n", out.String())

	entries, err := mem.ListWatchlist(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	out.Reset()
	require.NoError(t, runWatch(ctx, client, 7, "GeM", model.ActionRemove, &out))
	assert.Equal(t, "GeM unwatched: [+ Watchlist]\n", out.String())

	entries, err = mem.ListWatchlist(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunWatch_Errors(t *testing.T) {
	srv, _ := newTestAPI(t)
	ctx := context.Background()

	client := priceapi.NewClient(priceapi.WithBaseURL(srv.URL), priceapi.WithSessionToken("good"))
	err := runWatch(ctx, client, 7, "Myntra", model.ActionAdd, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no listing for source "Myntra"`)

	anon := priceapi.NewClient(priceapi.WithBaseURL(srv.URL), priceapi.WithSessionToken("unknown"))
	err = runWatch(ctx, anon, 7, "GeM", model.ActionAdd, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Authentication required")
}

func TestInitStore(t *testing.T) {
	ctx := context.Background()

	st, err := initStore(ctx, config.StoreConfig{Driver: "memory"})
	require.NoError(t, err)
	assert.NoError(t, st.Ping(ctx))

	st, err = initStore(ctx, config.StoreConfig{Driver: "sqlite", DatabaseURL: t.TempDir() + "/cmd.db"})
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck
	require.NoError(t, st.Migrate(ctx))

	_, err = initStore(ctx, config.StoreConfig{Driver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}

func TestNewAPIClient_TokenPrecedence(t *testing.T) {
	t.Cleanup(func() { clientToken = "" })

	_, token := newAPIClient(config.ClientConfig{BaseURL: "http://localhost:8080", SessionToken: "from-env"})
	assert.Equal(t, "from-env", token)

	clientToken = "from-flag"
	_, token = newAPIClient(config.ClientConfig{BaseURL: "http://localhost:8080", SessionToken: "from-env"})
	assert.Equal(t, "from-flag", token)
}

func TestLoadedSessionTokenReachesClient(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CARTCLASH_CLIENT_SESSION_TOKEN", "good")

	c, err := config.Load()
	require.NoError(t, err)
	_, token := newAPIClient(c.Client)
	assert.Equal(t, "good", token)
}
