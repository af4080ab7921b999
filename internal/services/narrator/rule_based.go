package narrator

import (
	"context"

	"github.com/rs/zerolog"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
)

// RuleBased narrates decisions deterministically from the computed
// analysis alone. It is the default when no analysis service is
// configured and the fallback when one is unreachable.
type RuleBased struct {
	cfg    Config
	logger zerolog.Logger
}

func NewRuleBased(cfg Config, logger zerolog.Logger) *RuleBased {
	return &RuleBased{
		cfg:    cfg,
		logger: logger.With().Str("component", "narrator").Logger(),
	}
}

func (n *RuleBased) Narrate(_ context.Context, snapshot *models.MarketSnapshot, technical *models.TechnicalSignals, market *models.MarketContext, riskScore float64) (*models.TradingDecision, error) {
	decision := n.cfg.assemble(snapshot, technical, market, riskScore, defaultReasoning(technical, riskScore))
	n.logger.Debug().
		Str("asset", decision.AssetAddress).
		Str("action", string(decision.Action)).
		Float64("confidence", decision.Confidence).
		Msg("decision narrated")
	return decision, nil
}

var _ repository.Narrator = (*RuleBased)(nil)
