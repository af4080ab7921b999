package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradePulse/internal/domain/models"
	pkgcache "TradePulse/pkg/cache"
)

func openOrder(asset string) *models.ActiveOrder {
	return &models.ActiveOrder{
		AssetAddress: asset,
		OrderType:    models.OrderMarket,
		Size:         1.0,
		Status:       models.OrderPending,
		Timestamp:    time.Now().UTC(),
	}
}

func TestOrderStateStoreRoundTrip(t *testing.T) {
	s := NewCacheOrderStateStore(pkgcache.NewMemoryCache())
	ctx := context.Background()

	open, err := s.LoadOpenOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, open, "fresh store has no open orders")

	require.NoError(t, s.SaveOpenOrder(ctx, openOrder("mint1")))
	require.NoError(t, s.SaveOpenOrder(ctx, openOrder("mint2")))
	require.NoError(t, s.RemoveOpenOrder(ctx, "mint1"))

	open, err = s.LoadOpenOrders(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "mint2", open[0].AssetAddress)
	assert.Equal(t, models.OrderPending, open[0].Status)
}

func TestOrderStateStoreRemoveMissingIsNoop(t *testing.T) {
	s := NewCacheOrderStateStore(pkgcache.NewMemoryCache())
	require.NoError(t, s.RemoveOpenOrder(context.Background(), "unknown"))
}
