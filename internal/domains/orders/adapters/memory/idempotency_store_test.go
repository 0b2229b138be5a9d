package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/ports"
)

func TestIdempotencyStore(t *testing.T) {
	ctx := context.Background()
	store := NewIdempotencyStore()
	fixed := time.Date(2024, 10, 15, 8, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	got, err := store.Get(ctx, "10:key")
	require.NoError(t, err)
	assert.Nil(t, got)

	saved, err := store.Save(ctx, ports.IdempotencyRecord{Key: "10:key", RequestHash: "h1", OrderID: 7})
	require.NoError(t, err)
	assert.Equal(t, fixed, saved.CreatedAt)

	again, err := store.Save(ctx, ports.IdempotencyRecord{Key: "10:key", RequestHash: "h1", OrderID: 7})
	require.NoError(t, err)
	assert.EqualValues(t, 7, again.OrderID)

	conflict, err := store.Save(ctx, ports.IdempotencyRecord{Key: "10:key", RequestHash: "h2", OrderID: 8})
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)
	assert.EqualValues(t, 7, conflict.OrderID)

	got, err = store.Get(ctx, "10:key")
	require.NoError(t, err)
	assert.Equal(t, "h1", got.RequestHash)
}
