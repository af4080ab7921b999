package execution

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
)

// SimulatedPlacer fills orders instantly at the entry price and mints
// a synthetic transaction reference. It stands in for the DEX
// integration in paper-trading deployments.
type SimulatedPlacer struct {
	logger zerolog.Logger
}

func NewSimulatedPlacer(logger zerolog.Logger) *SimulatedPlacer {
	return &SimulatedPlacer{logger: logger.With().Str("component", "simulated_placer").Logger()}
}

func (p *SimulatedPlacer) PlaceOrder(_ context.Context, order *models.ActiveOrder) (string, error) {
	ref := fmt.Sprintf("sim-%s", uuid.New().String())
	p.logger.Info().
		Str("asset", order.AssetAddress).
		Str("order_type", string(order.OrderType)).
		Float64("size", order.Size).
		Str("entry_price", order.EntryPrice.String()).
		Str("tx", ref).
		Msg("order placed (simulated)")
	return ref, nil
}

var _ repository.OrderPlacer = (*SimulatedPlacer)(nil)
