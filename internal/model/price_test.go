package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAggregatedPrice_Comparable(t *testing.T) {
	price := decimal.RequireFromString("100")

	assert.True(t, AggregatedPrice{Price: &price, IsAvailable: true}.Comparable())
	assert.False(t, AggregatedPrice{Price: &price, IsAvailable: false}.Comparable())
	assert.False(t, AggregatedPrice{IsAvailable: true}.Comparable())
}

func TestAction(t *testing.T) {
	assert.True(t, ActionAdd.Valid())
	assert.True(t, ActionRemove.Valid())
	assert.False(t, Action("toggle").Valid())
	assert.False(t, Action("").Valid())

	assert.Equal(t, ConfirmedAdded, ActionAdd.Confirmed())
	assert.Equal(t, ConfirmedRemoved, ActionRemove.Confirmed())
}
