package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-meal-orders/internal/domains/audit/domain"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/audit/ports"
)

func TestStoreLatestActorAndList(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	at := time.Date(2024, 6, 12, 8, 0, 0, 0, time.UTC)

	require.NoError(t, store.Append(ctx,
		domain.OrderCreated(10, "PM-20240612-001", 5, "Morning", at),
		domain.RejectionRequested(2, "PM-20240612-001", "kitchen ran out of rice", at.Add(time.Minute)),
		domain.RejectionRequested(3, "PM-20240612-001", "second request from delivery", at.Add(2*time.Minute)),
		domain.OrderCreated(11, "PM-20240612-002", 3, "Morning", at.Add(3*time.Minute)),
	))

	actor, err := store.LatestActor(ctx, domain.ActionOrderRejectionRequested, "PM-20240612-001")
	require.NoError(t, err)
	require.NotNil(t, actor)
	require.Equal(t, int64(3), *actor)

	actor, err = store.LatestActor(ctx, domain.ActionOrderEditRequested, "PM-20240612-001")
	require.NoError(t, err)
	require.Nil(t, actor)

	all, err := store.List(ctx, ports.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	require.Equal(t, int64(4), all[0].ID)

	created, err := store.List(ctx, ports.Filter{Action: domain.ActionOrderCreated, Limit: 1})
	require.NoError(t, err)
	require.Len(t, created, 1)
	require.Equal(t, "PM-20240612-002", created[0].Subject)

	bySubject, err := store.List(ctx, ports.Filter{Subject: "PM-20240612-001"})
	require.NoError(t, err)
	require.Len(t, bySubject, 3)
}
