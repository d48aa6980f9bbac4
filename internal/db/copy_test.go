package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var observationColumns = []string{"product_id", "source", "price", "url", "is_available", "observed_at"}

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.TODO(), nil, "price_observations", observationColumns, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"price_observations"}, observationColumns).WillReturnResult(2)

	rows := [][]any{
		{int64(7), "GeM", nil, nil, true, nil},
		{int64(7), "Amazon", nil, nil, false, nil},
	}
	n, err := CopyFrom(context.Background(), mock, "price_observations", observationColumns, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"price_observations"}, observationColumns).WillReturnError(fmt.Errorf("copy failed"))

	_, err = CopyFrom(context.Background(), mock, "price_observations", observationColumns, [][]any{{int64(1), "GeM", nil, nil, true, nil}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO price_observations")
	assert.NoError(t, mock.ExpectationsWereMet())
}
