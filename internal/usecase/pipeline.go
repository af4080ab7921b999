package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"TradePulse/internal/domain/models"
	drepo "TradePulse/internal/domain/repository"
	"TradePulse/internal/services/narrator"
	"TradePulse/internal/services/risk"
	"TradePulse/internal/services/signal"
	"TradePulse/internal/services/technical"
)

type PipelineConfig struct {
	LookbackHours    int
	ExecutionEnabled bool
}

// Pipeline runs the full per-asset cycle: fetch, enrich, persist,
// compare, score, narrate, execute. Each asset is independent; a
// failure in one cycle is logged and isolated, never propagated to
// other assets.
type Pipeline struct {
	cfg PipelineConfig

	source    drepo.MarketDataSource
	snapshots drepo.SnapshotStore
	signals   drepo.SignalStore
	execs     drepo.ExecutionStore
	publisher drepo.SignalPublisher

	analyzer  *technical.Analyzer
	generator *signal.Generator
	scorer    *risk.Scorer
	narrator  drepo.Narrator
	engine    TradeExecutor
	notifier  drepo.Notifier

	metrics drepo.Metrics
	logger  zerolog.Logger
}

// TradeExecutor is what the pipeline needs from the execution engine.
type TradeExecutor interface {
	ExecuteTrade(ctx context.Context, decision *models.TradingDecision, snapshot *models.MarketSnapshot) (*models.ExecutionRecord, error)
}

func NewPipeline(
	cfg PipelineConfig,
	source drepo.MarketDataSource,
	snapshots drepo.SnapshotStore,
	signals drepo.SignalStore,
	execs drepo.ExecutionStore,
	publisher drepo.SignalPublisher,
	analyzer *technical.Analyzer,
	generator *signal.Generator,
	scorer *risk.Scorer,
	narr drepo.Narrator,
	engine TradeExecutor,
	notifier drepo.Notifier,
	metrics drepo.Metrics,
	logger zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		source:    source,
		snapshots: snapshots,
		signals:   signals,
		execs:     execs,
		publisher: publisher,
		analyzer:  analyzer,
		generator: generator,
		scorer:    scorer,
		narrator:  narr,
		engine:    engine,
		notifier:  notifier,
		metrics:   metrics,
		logger:    logger.With().Str("component", "pipeline").Logger(),
	}
}

// ProcessAsset runs one full cycle for one asset.
func (p *Pipeline) ProcessAsset(ctx context.Context, asset string) error {
	started := time.Now()
	defer func() {
		p.metrics.RecordLatency("process_asset", time.Since(started).Seconds())
	}()

	snap, err := p.source.FetchSnapshot(ctx, asset)
	if err != nil {
		p.metrics.RecordError("fetch_snapshot")
		return err
	}
	price, _ := snap.Price.Float64()
	p.metrics.RecordLastPrice(asset, price)

	if prices, err := p.source.FetchPriceSeries(ctx, asset, p.cfg.LookbackHours); err != nil {
		// indicators degrade to their documented defaults
		p.logger.Warn().Err(err).Str("asset", asset).Msg("price series unavailable")
	} else {
		p.analyzer.Enrich(snap, prices)
	}
	tech := p.analyzer.Analyze(snap)

	previous, err := p.snapshots.LoadPrevious(ctx, asset)
	if err != nil {
		p.metrics.RecordError("load_previous")
		return err
	}

	if err := p.persist(ctx, "store_snapshot", func(ctx context.Context) error {
		return p.snapshots.StoreSnapshot(ctx, snap)
	}); err != nil {
		return err
	}

	market := narrator.BuildContext(snap)
	riskScore := p.scorer.Assess(snap, tech, market)

	sig, err := p.generator.Generate(snap, previous)
	if err != nil {
		p.metrics.RecordError("signal_validation")
		return err
	}
	if sig != nil {
		sig.RiskScore = decimal.NewFromFloat(riskScore)
		if side := sig.SignalType.Side(); side != "" {
			if sig.Metadata == nil {
				sig.Metadata = make(map[string]string, 1)
			}
			sig.Metadata["side"] = side
		}
		if err := sig.ValidateBounds(); err != nil {
			p.metrics.RecordError("signal_validation")
			return err
		}
		if err := p.persist(ctx, "store_signal", func(ctx context.Context) error {
			return p.signals.StoreSignal(ctx, sig)
		}); err != nil {
			return err
		}
		if err := p.publisher.PublishSignal(ctx, sig); err != nil {
			// downstream consumers catch up from storage
			p.metrics.RecordError("publish_signal")
			p.logger.Error().Err(err).Str("asset", asset).Msg("signal publish failed")
		}
		p.metrics.RecordSignal(asset, string(sig.SignalType))
	}

	decision, err := p.narrator.Narrate(ctx, snap, tech, market, riskScore)
	if err != nil {
		p.metrics.RecordError("narrate")
		return err
	}

	if !p.cfg.ExecutionEnabled || decision.Action == models.ActionHold {
		return nil
	}

	rec, err := p.engine.ExecuteTrade(ctx, decision, snap)
	if err != nil {
		// expected throttling conditions, not failures
		if errors.Is(err, models.ErrCooldownActive) || errors.Is(err, models.ErrConflictingOrder) {
			p.logger.Info().Err(err).Str("asset", asset).Msg("trade skipped")
			return nil
		}
		p.metrics.RecordError("execute_trade")
		return err
	}

	if err := p.persist(ctx, "store_execution", func(ctx context.Context) error {
		return p.execs.StoreExecution(ctx, rec)
	}); err != nil {
		p.logger.Error().Err(err).Str("asset", asset).Msg("execution record persist failed")
	}
	p.metrics.RecordExecution(asset, string(decision.Action))
	p.notifier.NotifyExecution(ctx, rec, decision)

	return nil
}

// persist retries a storage write once before giving up. Validation
// errors are never retried; a second identical write would fail the
// same way.
func (p *Pipeline) persist(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if err == nil {
		return nil
	}
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		p.metrics.RecordError(op)
		return err
	}
	p.logger.Warn().Err(err).Str("op", op).Msg("persist failed, retrying once")
	if err = fn(ctx); err != nil {
		p.metrics.RecordError(op)
		return err
	}
	return nil
}
