package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/cartclash/internal/model"
)

func newTestSQLite(t *testing.T) Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func newTestMemory(t *testing.T) Store {
	t.Helper()
	return NewMemory()
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func seedProducts(t *testing.T, s Store, ids ...int64) {
	t.Helper()
	products := make([]model.Product, 0, len(ids))
	for _, id := range ids {
		products = append(products, model.Product{ID: id, Name: "Product", Description: "desc"})
	}
	_, err := s.UpsertProducts(context.Background(), products)
	require.NoError(t, err)
}

func storeTestSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("ListProducts_OrderAndLimit", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		seedProducts(t, s, 3, 1, 2)

		got, err := s.ListProducts(ctx, 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, int64(1), got[0].ID)
		assert.Equal(t, int64(2), got[1].ID)

		all, err := s.ListProducts(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("UpsertProducts_Updates", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		seedProducts(t, s, 1)

		_, err := s.UpsertProducts(ctx, []model.Product{{ID: 1, Name: "Renamed", ImageURL: "images/1.png"}})
		require.NoError(t, err)

		got, err := s.ListProducts(ctx, 10)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Renamed", got[0].Name)
		assert.Equal(t, "images/1.png", got[0].ImageURL)
	})

	t.Run("ProductExists", func(t *testing.T) {
		s := newStore(t)
		seedProducts(t, s, 7)

		ok, err := s.ProductExists(context.Background(), 7)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = s.ProductExists(context.Background(), 8)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("LatestObservations_MostRecentPerSource", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		seedProducts(t, s, 7, 8)
		base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
		url := "https://amazon.in/dp/7"

		n, err := s.AddObservations(ctx, []model.PriceObservation{
			{ProductID: 7, Source: "GeM", Price: dec("200.00"), IsAvailable: true, ObservedAt: base.Add(2 * time.Hour)},
			{ProductID: 7, Source: "GeM", Price: dec("210.00"), IsAvailable: true, ObservedAt: base.Add(1 * time.Hour)},
			{ProductID: 7, Source: "Amazon", Price: dec("205.00"), URL: &url, IsAvailable: true, ObservedAt: base},
			{ProductID: 7, Source: "Flipkart", IsAvailable: false, ObservedAt: base},
			{ProductID: 8, Source: "GeM", Price: dec("1.00"), IsAvailable: true, ObservedAt: base.Add(5 * time.Hour)},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(5), n)

		got, err := s.LatestObservations(ctx, 7)
		require.NoError(t, err)
		require.Len(t, got, 3)

		bySource := map[string]model.PriceObservation{}
		for _, o := range got {
			bySource[o.Source] = o
		}
		require.NotNil(t, bySource["GeM"].Price)
		assert.True(t, bySource["GeM"].Price.Equal(decimal.RequireFromString("200")))
		assert.True(t, bySource["GeM"].ObservedAt.Equal(base.Add(2*time.Hour)))
		require.NotNil(t, bySource["Amazon"].URL)
		assert.Equal(t, url, *bySource["Amazon"].URL)
		assert.Nil(t, bySource["Flipkart"].Price)
		assert.False(t, bySource["Flipkart"].IsAvailable)
	})

	t.Run("LatestObservations_TieKeepsFirstInserted", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		seedProducts(t, s, 7)
		at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

		_, err := s.AddObservations(ctx, []model.PriceObservation{
			{ProductID: 7, Source: "GeM", Price: dec("100.00"), IsAvailable: true, ObservedAt: at},
			{ProductID: 7, Source: "GeM", Price: dec("90.00"), IsAvailable: true, ObservedAt: at},
		})
		require.NoError(t, err)

		got, err := s.LatestObservations(ctx, 7)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.True(t, got[0].Price.Equal(decimal.RequireFromString("100")))
	})

	t.Run("LatestObservations_UnknownProduct", func(t *testing.T) {
		s := newStore(t)

		got, err := s.LatestObservations(context.Background(), 404)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("Watchlist_AddIsIdempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		seedProducts(t, s, 7)
		entry := model.WatchlistEntry{UserID: 1, ProductID: 7, Source: "GeM", AddedAt: time.Now().UTC()}

		created, err := s.AddWatch(ctx, entry)
		require.NoError(t, err)
		assert.True(t, created)

		created, err = s.AddWatch(ctx, entry)
		require.NoError(t, err)
		assert.False(t, created)

		entries, err := s.ListWatchlist(ctx, 1)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "GeM", entries[0].Source)
	})

	t.Run("Watchlist_RemoveReportsDeletion", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		seedProducts(t, s, 7)

		_, err := s.AddWatch(ctx, model.WatchlistEntry{UserID: 1, ProductID: 7, Source: "GeM"})
		require.NoError(t, err)

		removed, err := s.RemoveWatch(ctx, 1, 7, "GeM")
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = s.RemoveWatch(ctx, 1, 7, "GeM")
		require.NoError(t, err)
		assert.False(t, removed)

		entries, err := s.ListWatchlist(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("Watchlist_ScopedPerUserNewestFirst", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		seedProducts(t, s, 7, 8)
		at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

		for _, e := range []model.WatchlistEntry{
			{UserID: 1, ProductID: 7, Source: "GeM", AddedAt: at},
			{UserID: 1, ProductID: 8, Source: "Amazon", AddedAt: at.Add(time.Minute)},
			{UserID: 2, ProductID: 7, Source: "GeM", AddedAt: at},
		} {
			_, err := s.AddWatch(ctx, e)
			require.NoError(t, err)
		}

		entries, err := s.ListWatchlist(ctx, 1)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, int64(8), entries[0].ProductID)
		assert.Equal(t, int64(7), entries[1].ProductID)
	})

	t.Run("Sessions", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		uid := int64(12)

		require.NoError(t, s.SaveSession(ctx, model.Session{Token: "abc", UserID: &uid, LoggedIn: true}))
		require.NoError(t, s.SaveSession(ctx, model.Session{Token: "orphan", LoggedIn: true}))

		got, err := s.GetSession(ctx, "abc")
		require.NoError(t, err)
		require.NotNil(t, got)
		require.NotNil(t, got.UserID)
		assert.Equal(t, int64(12), *got.UserID)
		assert.True(t, got.LoggedIn)

		got, err = s.GetSession(ctx, "orphan")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Nil(t, got.UserID)

		got, err = s.GetSession(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, got)

		require.NoError(t, s.SaveSession(ctx, model.Session{Token: "abc", UserID: &uid, LoggedIn: false}))
		got, err = s.GetSession(ctx, "abc")
		require.NoError(t, err)
		assert.False(t, got.LoggedIn)
	})

	t.Run("Ping", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.Ping(context.Background()))
	})
}

func TestSQLiteStore(t *testing.T) {
	storeTestSuite(t, newTestSQLite)
}

func TestMemoryStore(t *testing.T) {
	storeTestSuite(t, newTestMemory)
}
