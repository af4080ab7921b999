package repository

import (
	"context"
	"time"

	"TradePulse/internal/domain/models"
)

// MarketDataSource fetches raw market data for an asset. The upstream
// provider is rate limited; implementations must pass every call
// through the shared limiter and TTL cache.
type MarketDataSource interface {
	FetchSnapshot(ctx context.Context, asset string) (*models.MarketSnapshot, error)
	FetchPriceSeries(ctx context.Context, asset string, lookback int) ([]float64, error)
}

// SnapshotStore persists market snapshots. LoadPrevious returns the
// most recent snapshot stored strictly before now for the asset, or
// nil when none exists.
type SnapshotStore interface {
	StoreSnapshot(ctx context.Context, s *models.MarketSnapshot) error
	LoadPrevious(ctx context.Context, asset string) (*models.MarketSnapshot, error)
	QuerySnapshots(ctx context.Context, asset string, limit int) ([]*models.MarketSnapshot, error)
}

// SignalStore persists derived market signals.
type SignalStore interface {
	StoreSignal(ctx context.Context, sig *models.MarketSignal) error
	QuerySignals(ctx context.Context, asset string, limit int) ([]*models.MarketSignal, error)
}

// ExecutionStore persists terminal execution records.
type ExecutionStore interface {
	StoreExecution(ctx context.Context, rec *models.ExecutionRecord) error
	QueryExecutions(ctx context.Context, asset string, limit int) ([]*models.ExecutionRecord, error)
}

// SignalPublisher announces emitted signals to downstream consumers.
type SignalPublisher interface {
	PublishSignal(ctx context.Context, sig *models.MarketSignal) error
	Close() error
}

// Narrator is the opaque decision source: it consumes the computed
// analysis and returns a rationale plus a parsed action triple. The
// pipeline treats it as a capability, never as part of its own state
// machine.
type Narrator interface {
	Narrate(ctx context.Context, snapshot *models.MarketSnapshot, technical *models.TechnicalSignals, market *models.MarketContext, riskScore float64) (*models.TradingDecision, error)
}

// OrderPlacer is the external placement backend. It is invoked exactly
// once per successful ExecuteTrade call and returns a transaction
// reference.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, order *models.ActiveOrder) (txRef string, err error)
}

// OrderStateStore persists open orders so a restart can reseed the
// engine's active map instead of silently dropping them.
type OrderStateStore interface {
	SaveOpenOrder(ctx context.Context, order *models.ActiveOrder) error
	RemoveOpenOrder(ctx context.Context, asset string) error
	LoadOpenOrders(ctx context.Context) ([]models.ActiveOrder, error)
}

// Notifier is fire-and-forget: failures are logged, never block or
// fail the execution path.
type Notifier interface {
	NotifyExecution(ctx context.Context, rec *models.ExecutionRecord, decision *models.TradingDecision)
}

// PriceStream is an optional streaming feed of spot prices used to
// warm the snapshot cache between polling cycles.
type PriceStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.PriceTick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Metrics records pipeline observability counters.
type Metrics interface {
	RecordSignal(asset string, kind string)
	RecordExecution(asset string, side string)
	RecordError(kind string)
	RecordLastPrice(asset string, price float64)
	RecordLatency(op string, seconds float64)
	RecordCacheHit(hit bool)
	RecordLimiterWait(d time.Duration)
}
