package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
	pkgcache "TradePulse/pkg/cache"
)

// CachedSnapshotStore decorates a SnapshotStore with a cache in front
// of LoadPrevious. The previous snapshot is read once per asset per
// polling cycle, so serving it from cache saves one ClickHouse round
// trip per cycle; StoreSnapshot refreshes the cached entry. Cache
// failures degrade to the underlying store.
type CachedSnapshotStore struct {
	inner   repository.SnapshotStore
	cache   pkgcache.Service
	ttl     time.Duration
	metrics repository.Metrics
	logger  zerolog.Logger
}

func NewCachedSnapshotStore(inner repository.SnapshotStore, cache pkgcache.Service, ttl time.Duration, metrics repository.Metrics, logger zerolog.Logger) *CachedSnapshotStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedSnapshotStore{
		inner:   inner,
		cache:   cache,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger.With().Str("component", "snapshot_cache").Logger(),
	}
}

func (s *CachedSnapshotStore) recordLookup(hit bool) {
	if s.metrics != nil {
		s.metrics.RecordCacheHit(hit)
	}
}

func snapshotKey(asset string) string { return pkgcache.GenerateKey("snapshot:latest", asset) }

func (s *CachedSnapshotStore) StoreSnapshot(ctx context.Context, snap *models.MarketSnapshot) error {
	if err := s.inner.StoreSnapshot(ctx, snap); err != nil {
		return err
	}
	// Stored as a JSON string so memory and redis layers behave the
	// same on read-back.
	b, err := json.Marshal(snap)
	if err != nil {
		return nil
	}
	if err := s.cache.Set(ctx, snapshotKey(snap.AssetAddress), string(b), s.ttl); err != nil {
		s.logger.Warn().Err(err).Str("asset", snap.AssetAddress).Msg("snapshot cache set failed")
	}
	return nil
}

func (s *CachedSnapshotStore) LoadPrevious(ctx context.Context, asset string) (*models.MarketSnapshot, error) {
	var raw string
	err := s.cache.Get(ctx, snapshotKey(asset), &raw)
	if err == nil {
		var snap models.MarketSnapshot
		if uerr := json.Unmarshal([]byte(raw), &snap); uerr == nil {
			s.recordLookup(true)
			return &snap, nil
		}
	}
	if err != nil && !errors.Is(err, pkgcache.ErrCacheMiss) {
		s.logger.Warn().Err(err).Str("asset", asset).Msg("snapshot cache get failed")
	}
	s.recordLookup(false)
	return s.inner.LoadPrevious(ctx, asset)
}

func (s *CachedSnapshotStore) QuerySnapshots(ctx context.Context, asset string, limit int) ([]*models.MarketSnapshot, error) {
	return s.inner.QuerySnapshots(ctx, asset, limit)
}

var _ repository.SnapshotStore = (*CachedSnapshotStore)(nil)
