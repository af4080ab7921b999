package repository

import (
	"context"

	"github.com/rs/zerolog"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
)

// LogNotifier announces executions in the structured log. Notification
// is fire-and-forget; there is nothing here that can fail the
// execution path.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "notifier").Logger()}
}

func (n *LogNotifier) NotifyExecution(_ context.Context, rec *models.ExecutionRecord, decision *models.TradingDecision) {
	n.logger.Info().
		Str("asset", rec.AssetAddress).
		Str("action", string(decision.Action)).
		Float64("size", rec.Size).
		Str("price", rec.ExecutionPrice.String()).
		Str("tx", rec.TxReference).
		Str("reasoning", decision.Reasoning).
		Msg("trade executed")
}

var _ repository.Notifier = (*LogNotifier)(nil)
