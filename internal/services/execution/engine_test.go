package execution

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
)

type fakePlacer struct {
	calls int
	err   error
}

func (p *fakePlacer) PlaceOrder(_ context.Context, _ *models.ActiveOrder) (string, error) {
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	return "tx-abc123", nil
}

func validDecision() *models.TradingDecision {
	return &models.TradingDecision{
		AssetAddress: "So11111111111111111111111111111111111111112",
		Action:       models.ActionBuy,
		Size:         1.5,
		ExecutionParams: models.ExecutionParams{
			EntryType:   "Market",
			StopLoss:    0.05,
			TakeProfits: []float64{0.1, 0.2, 0.3},
			MaxSlippage: 0.01,
		},
	}
}

func marketSnapshot(price float64) *models.MarketSnapshot {
	return &models.MarketSnapshot{
		AssetAddress: "So11111111111111111111111111111111111111112",
		Price:        decimal.NewFromFloat(price),
		Timestamp:    time.Now().UTC(),
	}
}

func newTestEngine(placer *fakePlacer) *Engine {
	return NewEngine(DefaultConfig(), placer, zerolog.Nop())
}

func TestExecuteTradeSuccess(t *testing.T) {
	placer := &fakePlacer{}
	e := newTestEngine(placer)

	rec, err := e.ExecuteTrade(context.Background(), validDecision(), marketSnapshot(2.0))
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, 1, placer.calls)
	assert.Equal(t, "tx-abc123", rec.TxReference)
	assert.Equal(t, models.OrderMarket, rec.OrderType)
	assert.True(t, rec.ExecutionPrice.Equal(decimal.NewFromFloat(2.0)))

	assert.Len(t, e.History(), 1)
	assert.Empty(t, e.ActiveOrders(), "filled order must leave the active map")
}

func TestExecuteTradeGlobalCooldown(t *testing.T) {
	placer := &fakePlacer{}
	e := newTestEngine(placer)

	now := time.Now()
	e.now = func() time.Time { return now }

	_, err := e.ExecuteTrade(context.Background(), validDecision(), marketSnapshot(2.0))
	require.NoError(t, err)

	// a different asset two minutes later still hits the cooldown
	now = now.Add(2 * time.Minute)
	other := validDecision()
	other.AssetAddress = "other-asset"
	_, err = e.ExecuteTrade(context.Background(), other, marketSnapshot(1.0))
	require.ErrorIs(t, err, models.ErrCooldownActive)
	assert.Equal(t, 1, placer.calls)

	now = now.Add(4 * time.Minute)
	_, err = e.ExecuteTrade(context.Background(), other, marketSnapshot(1.0))
	require.NoError(t, err)
	assert.Equal(t, 2, placer.calls)
}

func TestExecuteTradeParamValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*models.ExecutionParams)
	}{
		{"slippage over engine max", func(p *models.ExecutionParams) { p.MaxSlippage = 0.5 }},
		{"zero stop loss", func(p *models.ExecutionParams) { p.StopLoss = 0 }},
		{"stop loss over half", func(p *models.ExecutionParams) { p.StopLoss = 0.6 }},
		{"no take profits", func(p *models.ExecutionParams) { p.TakeProfits = nil }},
		{"take profit below stop loss", func(p *models.ExecutionParams) {
			p.StopLoss = 0.2
			p.TakeProfits = []float64{0.3, 0.1}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			placer := &fakePlacer{}
			e := newTestEngine(placer)
			d := validDecision()
			tc.mutate(&d.ExecutionParams)

			_, err := e.ExecuteTrade(context.Background(), d, marketSnapshot(2.0))
			require.ErrorIs(t, err, models.ErrInvalidExecutionParams)
			assert.Zero(t, placer.calls, "validation must abort before placement")
			assert.Empty(t, e.ActiveOrders(), "validation must leave no partial state")
			assert.Empty(t, e.History())
		})
	}
}

func TestExecuteTradeConflictingOrder(t *testing.T) {
	placer := &fakePlacer{}
	e := newTestEngine(placer)

	d := validDecision()
	e.Restore([]models.ActiveOrder{{
		AssetAddress: d.AssetAddress,
		Status:       models.OrderPartiallyFilled,
		FilledAmount: 0.5,
	}})

	_, err := e.ExecuteTrade(context.Background(), d, marketSnapshot(2.0))
	require.ErrorIs(t, err, models.ErrConflictingOrder)
	assert.Zero(t, placer.calls)
}

func TestExecuteTradeTerminalPriorOrderDoesNotBlock(t *testing.T) {
	for _, status := range []models.OrderState{models.OrderFilled, models.OrderCancelled, models.OrderFailed} {
		t.Run(string(status), func(t *testing.T) {
			placer := &fakePlacer{}
			e := newTestEngine(placer)

			d := validDecision()
			// Restore drops non-open orders, so a terminal prior
			// state never re-enters the map
			e.Restore([]models.ActiveOrder{{AssetAddress: d.AssetAddress, Status: status}})

			_, err := e.ExecuteTrade(context.Background(), d, marketSnapshot(2.0))
			require.NoError(t, err)
			assert.Equal(t, 1, placer.calls)
		})
	}
}

func TestExecuteTradePlacementFailure(t *testing.T) {
	placer := &fakePlacer{err: errors.New("dex unavailable")}
	e := newTestEngine(placer)

	_, err := e.ExecuteTrade(context.Background(), validDecision(), marketSnapshot(2.0))
	require.Error(t, err)
	assert.Empty(t, e.ActiveOrders(), "failed order must not linger as open")
	assert.Empty(t, e.History(), "failed placement must not append a record")

	// failure must not arm the cooldown
	placer.err = nil
	_, err = e.ExecuteTrade(context.Background(), validDecision(), marketSnapshot(2.0))
	require.NoError(t, err)
}

type fakeOrderStore struct {
	saved   []string
	removed []string
	open    []models.ActiveOrder
}

func (s *fakeOrderStore) SaveOpenOrder(_ context.Context, o *models.ActiveOrder) error {
	s.saved = append(s.saved, o.AssetAddress)
	return nil
}

func (s *fakeOrderStore) RemoveOpenOrder(_ context.Context, asset string) error {
	s.removed = append(s.removed, asset)
	return nil
}

func (s *fakeOrderStore) LoadOpenOrders(context.Context) ([]models.ActiveOrder, error) {
	return s.open, nil
}

func TestExecuteTradePersistsOpenOrderLifecycle(t *testing.T) {
	store := &fakeOrderStore{}
	e := NewEngine(DefaultConfig(), &fakePlacer{}, zerolog.Nop(), WithOrderStore(store))

	_, err := e.ExecuteTrade(context.Background(), validDecision(), marketSnapshot(2.0))
	require.NoError(t, err)
	require.Len(t, store.saved, 1, "open order persisted before placement")
	require.Len(t, store.removed, 1, "terminal order removed from persistence")
	assert.Equal(t, store.saved[0], store.removed[0])
}

func TestExecuteTradePlacementFailureClearsPersistedOrder(t *testing.T) {
	store := &fakeOrderStore{}
	e := NewEngine(DefaultConfig(), &fakePlacer{err: errors.New("dex unavailable")}, zerolog.Nop(), WithOrderStore(store))

	_, err := e.ExecuteTrade(context.Background(), validDecision(), marketSnapshot(2.0))
	require.Error(t, err)
	assert.Len(t, store.saved, 1)
	assert.Len(t, store.removed, 1, "failed order must not stay persisted as open")
}

func TestPrepareOrderPriceLevels(t *testing.T) {
	e := newTestEngine(&fakePlacer{})
	d := validDecision()
	d.ExecutionParams.StopLoss = 0.1
	d.ExecutionParams.TakeProfits = []float64{0.2, 0.5}

	order := e.prepareOrder(d, marketSnapshot(100))
	assert.True(t, order.StopLoss.Equal(decimal.NewFromFloat(90)), "stop = entry x (1 - sl), got %s", order.StopLoss)
	require.Len(t, order.TakeProfits, 2)
	assert.True(t, order.TakeProfits[0].Equal(decimal.NewFromFloat(120)))
	assert.True(t, order.TakeProfits[1].Equal(decimal.NewFromFloat(150)))
	assert.Equal(t, models.OrderPending, order.Status)
}

func TestExecuteTradeLimitEntry(t *testing.T) {
	placer := &fakePlacer{}
	e := newTestEngine(placer)
	d := validDecision()
	d.ExecutionParams.EntryType = "Limit"

	rec, err := e.ExecuteTrade(context.Background(), d, marketSnapshot(2.0))
	require.NoError(t, err)
	assert.Equal(t, models.OrderLimit, rec.OrderType)
}
