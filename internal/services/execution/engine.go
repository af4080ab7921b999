package execution

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
)

type Config struct {
	MaxSlippage          float64       `yaml:"max_slippage" default:"0.02"`
	MinExecutionInterval time.Duration `yaml:"min_execution_interval" default:"5m"`
}

func DefaultConfig() Config {
	return Config{
		MaxSlippage:          0.02,
		MinExecutionInterval: 5 * time.Minute,
	}
}

// Engine owns the per-asset order state machine: at most one open
// order per asset address, a shared execution history, and a global
// cooldown between successful executions. All three live under one
// mutex; order placement is delegated to the backend while the lock
// is held so a concurrent call for the same asset cannot slip past
// the conflict check.
type Engine struct {
	cfg    Config
	placer repository.OrderPlacer
	store  repository.OrderStateStore
	logger zerolog.Logger

	mu            sync.Mutex
	activeOrders  map[string]*models.ActiveOrder
	history       []models.ExecutionRecord
	lastExecution time.Time

	now func() time.Time
}

type Option func(*Engine)

// WithOrderStore attaches persistence for the open-order map. Store
// failures are logged and never block an execution.
func WithOrderStore(store repository.OrderStateStore) Option {
	return func(e *Engine) { e.store = store }
}

func NewEngine(cfg Config, placer repository.OrderPlacer, logger zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		cfg:          cfg,
		placer:       placer,
		logger:       logger.With().Str("component", "execution_engine").Logger(),
		activeOrders: make(map[string]*models.ActiveOrder),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExecuteTrade validates, submits and records one trade. The
// cooldown applies engine-wide, not per asset: it throttles total
// trading cadence. Validation failures abort before any order state
// exists, so a rejected call leaves the engine untouched.
func (e *Engine) ExecuteTrade(ctx context.Context, decision *models.TradingDecision, snapshot *models.MarketSnapshot) (*models.ExecutionRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.lastExecution.IsZero() {
		if elapsed := e.now().Sub(e.lastExecution); elapsed < e.cfg.MinExecutionInterval {
			e.logger.Warn().
				Dur("remaining", e.cfg.MinExecutionInterval-elapsed).
				Msg("execution cooldown in effect")
			return nil, models.ErrCooldownActive
		}
	}

	if err := e.validateParams(&decision.ExecutionParams); err != nil {
		return nil, err
	}

	if existing, ok := e.activeOrders[decision.AssetAddress]; ok && existing.IsOpen() {
		e.logger.Warn().
			Str("asset", decision.AssetAddress).
			Str("status", string(existing.Status)).
			Msg("conflicting active order")
		return nil, models.ErrConflictingOrder
	}

	order := e.prepareOrder(decision, snapshot)
	e.activeOrders[order.AssetAddress] = order
	e.saveOpen(ctx, order)

	txRef, err := e.placer.PlaceOrder(ctx, order)
	if err != nil {
		order.Status = models.OrderFailed
		order.FailReason = err.Error()
		delete(e.activeOrders, order.AssetAddress)
		e.removeOpen(ctx, order.AssetAddress)
		return nil, fmt.Errorf("order placement: %w", err)
	}

	order.Status = models.OrderFilled
	rec := models.ExecutionRecord{
		AssetAddress:   order.AssetAddress,
		OrderType:      order.OrderType,
		Size:           order.Size,
		ExecutionPrice: order.EntryPrice,
		Slippage:       decision.ExecutionParams.MaxSlippage,
		Timestamp:      e.now().UTC(),
		TxReference:    txRef,
	}

	e.history = append(e.history, rec)
	delete(e.activeOrders, rec.AssetAddress)
	e.removeOpen(ctx, rec.AssetAddress)
	e.lastExecution = e.now()

	e.logger.Info().
		Str("asset", rec.AssetAddress).
		Str("order_type", string(rec.OrderType)).
		Float64("size", rec.Size).
		Str("price", rec.ExecutionPrice.String()).
		Str("tx", rec.TxReference).
		Msg("trade executed")

	return &rec, nil
}

func (e *Engine) validateParams(params *models.ExecutionParams) error {
	if params.MaxSlippage > e.cfg.MaxSlippage {
		return fmt.Errorf("%w: slippage %.4f exceeds maximum %.4f",
			models.ErrInvalidExecutionParams, params.MaxSlippage, e.cfg.MaxSlippage)
	}
	if params.StopLoss <= 0 || params.StopLoss > 0.5 {
		return fmt.Errorf("%w: stop loss %.4f outside (0, 0.5]",
			models.ErrInvalidExecutionParams, params.StopLoss)
	}
	if len(params.TakeProfits) == 0 {
		return fmt.Errorf("%w: no take profit levels", models.ErrInvalidExecutionParams)
	}
	for i, tp := range params.TakeProfits {
		if tp <= params.StopLoss {
			return fmt.Errorf("%w: take profit %d (%.4f) must exceed stop loss %.4f",
				models.ErrInvalidExecutionParams, i, tp, params.StopLoss)
		}
	}
	return nil
}

func (e *Engine) prepareOrder(decision *models.TradingDecision, snapshot *models.MarketSnapshot) *models.ActiveOrder {
	entry := snapshot.Price

	orderType := models.OrderMarket
	if decision.ExecutionParams.EntryType == "Limit" {
		orderType = models.OrderLimit
	}

	one := decimal.NewFromInt(1)
	stop := entry.Mul(one.Sub(decimal.NewFromFloat(decision.ExecutionParams.StopLoss)))
	takeProfits := make([]decimal.Decimal, 0, len(decision.ExecutionParams.TakeProfits))
	for _, tp := range decision.ExecutionParams.TakeProfits {
		takeProfits = append(takeProfits, entry.Mul(one.Add(decimal.NewFromFloat(tp))))
	}

	return &models.ActiveOrder{
		AssetAddress: decision.AssetAddress,
		OrderType:    orderType,
		Size:         decision.Size,
		EntryPrice:   entry,
		StopLoss:     stop,
		TakeProfits:  takeProfits,
		Status:       models.OrderPending,
		Timestamp:    e.now().UTC(),
	}
}

// ActiveOrders returns a copy of the open-order map.
func (e *Engine) ActiveOrders() map[string]models.ActiveOrder {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]models.ActiveOrder, len(e.activeOrders))
	for k, v := range e.activeOrders {
		out[k] = *v
	}
	return out
}

// History returns a copy of the execution history, oldest first.
func (e *Engine) History() []models.ExecutionRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.ExecutionRecord, len(e.history))
	copy(out, e.history)
	return out
}

func (e *Engine) saveOpen(ctx context.Context, order *models.ActiveOrder) {
	if e.store == nil {
		return
	}
	if err := e.store.SaveOpenOrder(ctx, order); err != nil {
		e.logger.Warn().Err(err).Str("asset", order.AssetAddress).Msg("open order persist failed")
	}
}

func (e *Engine) removeOpen(ctx context.Context, asset string) {
	if e.store == nil {
		return
	}
	if err := e.store.RemoveOpenOrder(ctx, asset); err != nil {
		e.logger.Warn().Err(err).Str("asset", asset).Msg("open order removal failed")
	}
}

// Restore seeds the open-order map from persisted state on startup.
func (e *Engine) Restore(orders []models.ActiveOrder) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range orders {
		o := orders[i]
		if o.IsOpen() {
			e.activeOrders[o.AssetAddress] = &o
		}
	}
}
