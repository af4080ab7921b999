package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/services/risk"
	"TradePulse/internal/services/signal"
	"TradePulse/internal/services/technical"
)

const testAsset = "So11111111111111111111111111111111111111112"

type fakeSource struct {
	snapshot *models.MarketSnapshot
	prices   []float64
	fetchErr error
}

func (f *fakeSource) FetchSnapshot(_ context.Context, _ string) (*models.MarketSnapshot, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.snapshot, nil
}

func (f *fakeSource) FetchPriceSeries(_ context.Context, _ string, _ int) ([]float64, error) {
	return f.prices, nil
}

type fakeSnapStore struct {
	previous  *models.MarketSnapshot
	stored    []*models.MarketSnapshot
	failFirst bool
	failAll   bool
	calls     int
}

func (f *fakeSnapStore) StoreSnapshot(_ context.Context, s *models.MarketSnapshot) error {
	f.calls++
	if f.failAll || (f.failFirst && f.calls == 1) {
		return errors.New("clickhouse unavailable")
	}
	f.stored = append(f.stored, s)
	return nil
}

func (f *fakeSnapStore) LoadPrevious(_ context.Context, _ string) (*models.MarketSnapshot, error) {
	return f.previous, nil
}

func (f *fakeSnapStore) QuerySnapshots(_ context.Context, _ string, _ int) ([]*models.MarketSnapshot, error) {
	return f.stored, nil
}

type fakeSignalStore struct{ stored []*models.MarketSignal }

func (f *fakeSignalStore) StoreSignal(_ context.Context, s *models.MarketSignal) error {
	f.stored = append(f.stored, s)
	return nil
}

func (f *fakeSignalStore) QuerySignals(_ context.Context, _ string, _ int) ([]*models.MarketSignal, error) {
	return f.stored, nil
}

type fakeExecStore struct{ stored []*models.ExecutionRecord }

func (f *fakeExecStore) StoreExecution(_ context.Context, r *models.ExecutionRecord) error {
	f.stored = append(f.stored, r)
	return nil
}

func (f *fakeExecStore) QueryExecutions(_ context.Context, _ string, _ int) ([]*models.ExecutionRecord, error) {
	return f.stored, nil
}

type fakePublisher struct {
	published []*models.MarketSignal
	err       error
}

func (f *fakePublisher) PublishSignal(_ context.Context, s *models.MarketSignal) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, s)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type stubNarrator struct{ action models.TradeAction }

func (s stubNarrator) Narrate(_ context.Context, snap *models.MarketSnapshot, tech *models.TechnicalSignals, market *models.MarketContext, riskScore float64) (*models.TradingDecision, error) {
	return &models.TradingDecision{
		AssetAddress: snap.AssetAddress,
		Action:       s.action,
		Size:         1,
		RiskScore:    riskScore,
		ExecutionParams: models.ExecutionParams{
			EntryType:   "Market",
			StopLoss:    0.05,
			TakeProfits: []float64{0.1},
			MaxSlippage: 0.01,
		},
	}, nil
}

type fakeExecutor struct {
	calls int
	err   error
}

func (f *fakeExecutor) ExecuteTrade(_ context.Context, d *models.TradingDecision, s *models.MarketSnapshot) (*models.ExecutionRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.ExecutionRecord{
		AssetAddress:   d.AssetAddress,
		OrderType:      models.OrderMarket,
		Size:           d.Size,
		ExecutionPrice: s.Price,
		Timestamp:      time.Now().UTC(),
		TxReference:    "tx-1",
	}, nil
}

type fakeNotifier struct{ calls int }

func (f *fakeNotifier) NotifyExecution(_ context.Context, _ *models.ExecutionRecord, _ *models.TradingDecision) {
	f.calls++
}

type nopMetrics struct{}

func (nopMetrics) RecordSignal(string, string)     {}
func (nopMetrics) RecordExecution(string, string)  {}
func (nopMetrics) RecordError(string)              {}
func (nopMetrics) RecordLastPrice(string, float64) {}
func (nopMetrics) RecordLatency(string, float64)   {}
func (nopMetrics) RecordCacheHit(bool)             {}
func (nopMetrics) RecordLimiterWait(time.Duration) {}

func pipelineSnapshot(price float64) *models.MarketSnapshot {
	return &models.MarketSnapshot{
		AssetAddress: testAsset,
		Price:        decimal.NewFromFloat(price),
		Volume24h:    decimal.NewFromFloat(100_000),
		MarketCap:    1_000_000,
		LiquidityUSD: 200_000,
		Timestamp:    time.Now().UTC(),
	}
}

type pipelineFixture struct {
	pipe      *Pipeline
	source    *fakeSource
	snaps     *fakeSnapStore
	signals   *fakeSignalStore
	execs     *fakeExecStore
	publisher *fakePublisher
	executor  *fakeExecutor
	notifier  *fakeNotifier
}

func newFixture(action models.TradeAction, executionEnabled bool) *pipelineFixture {
	f := &pipelineFixture{
		source:    &fakeSource{snapshot: pipelineSnapshot(1.10)},
		snaps:     &fakeSnapStore{},
		signals:   &fakeSignalStore{},
		execs:     &fakeExecStore{},
		publisher: &fakePublisher{},
		executor:  &fakeExecutor{},
		notifier:  &fakeNotifier{},
	}
	f.pipe = NewPipeline(
		PipelineConfig{LookbackHours: 48, ExecutionEnabled: executionEnabled},
		f.source, f.snaps, f.signals, f.execs, f.publisher,
		technical.NewAnalyzer(),
		signal.NewGenerator(signal.DefaultConfig(), zerolog.Nop()),
		risk.NewScorer(risk.DefaultConfig(), zerolog.Nop()),
		stubNarrator{action: action},
		f.executor,
		f.notifier,
		nopMetrics{},
		zerolog.Nop(),
	)
	return f
}

func TestProcessAssetFullCycle(t *testing.T) {
	f := newFixture(models.ActionBuy, true)
	f.snaps.previous = pipelineSnapshot(1.00) // +10% spike

	require.NoError(t, f.pipe.ProcessAsset(context.Background(), testAsset))

	require.Len(t, f.snaps.stored, 1, "snapshot stored")
	require.Len(t, f.signals.stored, 1, "signal stored")
	assert.Equal(t, models.SignalPriceSpike, f.signals.stored[0].SignalType)
	assert.Equal(t, "BUY", f.signals.stored[0].Metadata["side"],
		"signal carries the order side it implies")
	assert.False(t, f.signals.stored[0].RiskScore.Equal(decimal.NewFromFloat(0.5)),
		"risk score must come from the scorer, not the neutral default")
	require.Len(t, f.publisher.published, 1, "signal published")
	assert.Equal(t, 1, f.executor.calls, "buy decision executed")
	require.Len(t, f.execs.stored, 1, "execution record stored")
	assert.Equal(t, 1, f.notifier.calls, "notifier invoked")
}

func TestProcessAssetColdStart(t *testing.T) {
	f := newFixture(models.ActionHold, true)
	// no previous snapshot

	require.NoError(t, f.pipe.ProcessAsset(context.Background(), testAsset))

	assert.Len(t, f.snaps.stored, 1, "first observation is still persisted")
	assert.Empty(t, f.signals.stored, "cold start never produces a signal")
	assert.Empty(t, f.publisher.published)
}

func TestProcessAssetQuietMarketNoSignal(t *testing.T) {
	f := newFixture(models.ActionHold, true)
	f.snaps.previous = pipelineSnapshot(1.099) // ~0.1% move

	require.NoError(t, f.pipe.ProcessAsset(context.Background(), testAsset))
	assert.Empty(t, f.signals.stored)
	assert.Zero(t, f.executor.calls, "hold decision never reaches the engine")
}

func TestProcessAssetPersistRetriesOnce(t *testing.T) {
	f := newFixture(models.ActionHold, false)
	f.snaps.failFirst = true

	require.NoError(t, f.pipe.ProcessAsset(context.Background(), testAsset))
	assert.Equal(t, 2, f.snaps.calls)
	assert.Len(t, f.snaps.stored, 1)
}

func TestProcessAssetPersistFailureAborts(t *testing.T) {
	f := newFixture(models.ActionBuy, true)
	f.snaps.failAll = true
	f.snaps.previous = pipelineSnapshot(1.00)

	err := f.pipe.ProcessAsset(context.Background(), testAsset)
	require.Error(t, err)
	assert.Empty(t, f.signals.stored, "no signal after a failed snapshot persist")
	assert.Zero(t, f.executor.calls)
}

func TestProcessAssetPublishFailureIsIsolated(t *testing.T) {
	f := newFixture(models.ActionHold, true)
	f.snaps.previous = pipelineSnapshot(1.00)
	f.publisher.err = errors.New("broker down")

	require.NoError(t, f.pipe.ProcessAsset(context.Background(), testAsset),
		"a publish failure must not abort the cycle")
	assert.Len(t, f.signals.stored, 1, "signal still persisted")
}

func TestProcessAssetCooldownSkipIsNotAnError(t *testing.T) {
	f := newFixture(models.ActionBuy, true)
	f.executor.err = models.ErrCooldownActive

	require.NoError(t, f.pipe.ProcessAsset(context.Background(), testAsset))
	assert.Empty(t, f.execs.stored)
	assert.Zero(t, f.notifier.calls)
}

func TestProcessAssetExecutionDisabled(t *testing.T) {
	f := newFixture(models.ActionBuy, false)

	require.NoError(t, f.pipe.ProcessAsset(context.Background(), testAsset))
	assert.Zero(t, f.executor.calls)
}

func TestProcessAssetFetchFailurePropagates(t *testing.T) {
	f := newFixture(models.ActionHold, true)
	f.source.fetchErr = &models.TransientError{Op: "token_overview", Err: errors.New("429")}

	err := f.pipe.ProcessAsset(context.Background(), testAsset)
	require.Error(t, err)
	assert.True(t, models.IsTransient(err))
	assert.Empty(t, f.snaps.stored)
}
