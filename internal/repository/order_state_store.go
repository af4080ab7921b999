package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
	pkgcache "TradePulse/pkg/cache"
)

var openOrdersKey = pkgcache.GenerateKey("orders", "open")

// CacheOrderStateStore keeps the open-order map in the cache layer as
// one JSON document, so with redis enabled open orders survive a
// process restart. Writes go through a local mutex: the engine is the
// only writer and mutates single entries of the shared document.
type CacheOrderStateStore struct {
	cache pkgcache.Service
	mu    sync.Mutex
}

func NewCacheOrderStateStore(cache pkgcache.Service) *CacheOrderStateStore {
	return &CacheOrderStateStore{cache: cache}
}

func (s *CacheOrderStateStore) SaveOpenOrder(ctx context.Context, order *models.ActiveOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	orders, err := s.load(ctx)
	if err != nil {
		return err
	}
	orders[order.AssetAddress] = *order
	return s.save(ctx, orders)
}

func (s *CacheOrderStateStore) RemoveOpenOrder(ctx context.Context, asset string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	orders, err := s.load(ctx)
	if err != nil {
		return err
	}
	if _, ok := orders[asset]; !ok {
		return nil
	}
	delete(orders, asset)
	return s.save(ctx, orders)
}

func (s *CacheOrderStateStore) LoadOpenOrders(ctx context.Context) ([]models.ActiveOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	orders, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.ActiveOrder, 0, len(orders))
	for _, o := range orders {
		out = append(out, o)
	}
	return out, nil
}

func (s *CacheOrderStateStore) load(ctx context.Context) (map[string]models.ActiveOrder, error) {
	var raw string
	err := s.cache.Get(ctx, openOrdersKey, &raw)
	if errors.Is(err, pkgcache.ErrCacheMiss) {
		return map[string]models.ActiveOrder{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load open orders: %w", err)
	}
	var orders map[string]models.ActiveOrder
	if err := json.Unmarshal([]byte(raw), &orders); err != nil {
		return nil, fmt.Errorf("decode open orders: %w", err)
	}
	if orders == nil {
		orders = map[string]models.ActiveOrder{}
	}
	return orders, nil
}

func (s *CacheOrderStateStore) save(ctx context.Context, orders map[string]models.ActiveOrder) error {
	b, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("encode open orders: %w", err)
	}
	// no expiry: an open order stays resident until removed
	if err := s.cache.Set(ctx, openOrdersKey, string(b), 0); err != nil {
		return fmt.Errorf("save open orders: %w", err)
	}
	return nil
}

var _ repository.OrderStateStore = (*CacheOrderStateStore)(nil)
