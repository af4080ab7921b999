package repository

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradePulse/internal/domain/models"
	pkgcache "TradePulse/pkg/cache"
)

type fakeSnapshotStore struct {
	stored    []*models.MarketSnapshot
	loadCalls int
	previous  *models.MarketSnapshot
}

func (f *fakeSnapshotStore) StoreSnapshot(_ context.Context, s *models.MarketSnapshot) error {
	f.stored = append(f.stored, s)
	return nil
}

func (f *fakeSnapshotStore) LoadPrevious(_ context.Context, _ string) (*models.MarketSnapshot, error) {
	f.loadCalls++
	return f.previous, nil
}

func (f *fakeSnapshotStore) QuerySnapshots(_ context.Context, _ string, _ int) ([]*models.MarketSnapshot, error) {
	return f.stored, nil
}

type lookupMetrics struct {
	hits, misses int
}

func (m *lookupMetrics) RecordSignal(string, string)     {}
func (m *lookupMetrics) RecordExecution(string, string)  {}
func (m *lookupMetrics) RecordError(string)              {}
func (m *lookupMetrics) RecordLastPrice(string, float64) {}
func (m *lookupMetrics) RecordLatency(string, float64)   {}
func (m *lookupMetrics) RecordLimiterWait(time.Duration) {}
func (m *lookupMetrics) RecordCacheHit(hit bool) {
	if hit {
		m.hits++
	} else {
		m.misses++
	}
}

func testSnap(asset string, price float64) *models.MarketSnapshot {
	return &models.MarketSnapshot{
		AssetAddress: asset,
		Price:        decimal.NewFromFloat(price),
		Volume24h:    decimal.NewFromFloat(1000),
		Timestamp:    time.Now().UTC(),
	}
}

func TestCachedStoreServesPreviousFromCache(t *testing.T) {
	inner := &fakeSnapshotStore{}
	s := NewCachedSnapshotStore(inner, pkgcache.NewMemoryCache(), time.Minute, nil, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, s.StoreSnapshot(ctx, testSnap("asset-1", 1.5)))

	prev, err := s.LoadPrevious(ctx, "asset-1")
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.True(t, prev.Price.Equal(decimal.NewFromFloat(1.5)))
	assert.Zero(t, inner.loadCalls, "cached snapshot must not hit the store")
}

func TestCachedStoreFallsThroughOnMiss(t *testing.T) {
	inner := &fakeSnapshotStore{previous: testSnap("asset-1", 2.0)}
	s := NewCachedSnapshotStore(inner, pkgcache.NewMemoryCache(), time.Minute, nil, zerolog.Nop())

	prev, err := s.LoadPrevious(context.Background(), "asset-1")
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, 1, inner.loadCalls)
	assert.True(t, prev.Price.Equal(decimal.NewFromFloat(2.0)))
}

func TestCachedStoreCountsLookups(t *testing.T) {
	inner := &fakeSnapshotStore{}
	m := &lookupMetrics{}
	s := NewCachedSnapshotStore(inner, pkgcache.NewMemoryCache(), time.Minute, m, zerolog.Nop())
	ctx := context.Background()

	_, err := s.LoadPrevious(ctx, "asset-1")
	require.NoError(t, err)
	require.NoError(t, s.StoreSnapshot(ctx, testSnap("asset-1", 1.5)))
	_, err = s.LoadPrevious(ctx, "asset-1")
	require.NoError(t, err)

	assert.Equal(t, 1, m.misses)
	assert.Equal(t, 1, m.hits)
}

func TestCachedStoreRefreshesOnStore(t *testing.T) {
	inner := &fakeSnapshotStore{}
	s := NewCachedSnapshotStore(inner, pkgcache.NewMemoryCache(), time.Minute, nil, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, s.StoreSnapshot(ctx, testSnap("asset-1", 1.0)))
	require.NoError(t, s.StoreSnapshot(ctx, testSnap("asset-1", 1.2)))

	prev, err := s.LoadPrevious(ctx, "asset-1")
	require.NoError(t, err)
	assert.True(t, prev.Price.Equal(decimal.NewFromFloat(1.2)), "cache must track the latest stored snapshot")
	assert.Len(t, inner.stored, 2)
}
