package repository

import (
	"context"

	"github.com/rs/zerolog"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
	"TradePulse/pkg/queue"
)

const (
	msgExecutionCompleted = "execution.completed"
	msgPriceTick          = "price.tick"
)

type executionEvent struct {
	Record   *models.ExecutionRecord `json:"record"`
	Decision *models.TradingDecision `json:"decision"`
}

// QueueNotifier fans execution events out through the redis-backed
// queue so alerting consumers pick them up out of process. Delivery is
// fire-and-forget: a publish failure is logged and the execution path
// moves on.
type QueueNotifier struct {
	q      queue.QueueService
	logger zerolog.Logger
}

func NewQueueNotifier(q queue.QueueService, logger zerolog.Logger) *QueueNotifier {
	return &QueueNotifier{q: q, logger: logger.With().Str("component", "queue_notifier").Logger()}
}

func (n *QueueNotifier) NotifyExecution(ctx context.Context, rec *models.ExecutionRecord, decision *models.TradingDecision) {
	n.logger.Info().
		Str("asset", rec.AssetAddress).
		Str("action", string(decision.Action)).
		Float64("size", rec.Size).
		Str("tx", rec.TxReference).
		Msg("trade executed")

	if err := n.q.PublishMessage(ctx, msgExecutionCompleted, executionEvent{Record: rec, Decision: decision}); err != nil {
		n.logger.Warn().Err(err).Str("asset", rec.AssetAddress).Msg("execution event publish failed")
	}
}

var _ repository.Notifier = (*QueueNotifier)(nil)

// QueueTickSink forwards accepted stream ticks onto the queue. Sits
// behind the tick pipeline, which owns validation, throttling and
// buffering.
type QueueTickSink struct {
	q queue.QueueService
}

func NewQueueTickSink(q queue.QueueService) *QueueTickSink {
	return &QueueTickSink{q: q}
}

func (s *QueueTickSink) Process(ctx context.Context, t *models.PriceTick) error {
	return s.q.PublishMessage(ctx, msgPriceTick, t)
}
