package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/cartclash/internal/apperr"
	"github.com/sells-group/cartclash/internal/model"
)

type fakeLister struct {
	products  []model.Product
	err       error
	lastLimit int
}

func (f *fakeLister) ListProducts(_ context.Context, limit int) ([]model.Product, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if len(f.products) > limit {
		return f.products[:limit], nil
	}
	return f.products, nil
}

func TestList_Placeholders(t *testing.T) {
	fl := &fakeLister{products: []model.Product{
		{ID: 1, Name: "Stapler"},
		{ID: 2, Name: "Chair", Description: "Ergonomic", ImageURL: "images/chair.png"},
	}}
	svc := NewService(fl, 20)

	got, err := svc.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, PlaceholderDescription, got[0].Description)
	assert.Equal(t, PlaceholderImage, got[0].ImageURL)
	assert.Equal(t, "Ergonomic", got[1].Description)
	assert.Equal(t, "images/chair.png", got[1].ImageURL)
	assert.Equal(t, 20, fl.lastLimit)
}

func TestList_LimitBounds(t *testing.T) {
	fl := &fakeLister{}
	svc := NewService(fl, 0)

	_, err := svc.List(context.Background(), 500)
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, fl.lastLimit)

	_, err = svc.List(context.Background(), -3)
	require.NoError(t, err)
	assert.Equal(t, 20, fl.lastLimit)

	_, err = svc.List(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 5, fl.lastLimit)
}

func TestList_EmptyIsNotNil(t *testing.T) {
	got, err := NewService(&fakeLister{}, 20).List(context.Background(), 0)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestList_StorageFailure(t *testing.T) {
	svc := NewService(&fakeLister{err: errors.New("connection refused")}, 20)

	_, err := svc.List(context.Background(), 0)
	require.Error(t, err)
	assert.Equal(t, apperr.KindStorageUnavailable, apperr.KindOf(err))
	assert.Equal(t, "A database error occurred fetching products.", apperr.MessageOf(err, ""))
}
