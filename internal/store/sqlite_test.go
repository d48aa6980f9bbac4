package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/cartclash/internal/model"
)

func TestSQLite_MigrateIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	ctx := context.Background()
	require.NoError(t, st.Migrate(ctx))
	require.NoError(t, st.Migrate(ctx))
}

func TestSQLite_ReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Migrate(ctx))
	_, err = st.UpsertProducts(ctx, []model.Product{{ID: 1, Name: "Stapler"}})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	st, err = NewSQLite(dbPath)
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	ok, err := st.ProductExists(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSQLite_WatchRequiresProduct(t *testing.T) {
	st := newTestSQLite(t)

	_, err := st.AddWatch(context.Background(), model.WatchlistEntry{UserID: 1, ProductID: 99, Source: "GeM"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite: add watch")
}

func TestSQLite_EmptyBatches(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	n, err := st.AddObservations(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = st.UpsertProducts(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLite_UpsertProductsCountsRows(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	n, err := st.UpsertProducts(ctx, []model.Product{{ID: 1, Name: "Stapler"}, {ID: 2, Name: "Chair"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = st.UpsertProducts(ctx, []model.Product{{ID: 2, Name: "Office Chair"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
