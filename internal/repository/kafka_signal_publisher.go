package repository

import (
	"context"
	"fmt"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
	pkgkafka "TradePulse/pkg/kafka"
)

// KafkaSignalPublisher announces signals on a Kafka topic, keyed by
// asset address so per-asset ordering survives partitioning.
type KafkaSignalPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaSignalPublisher(producer *pkgkafka.Producer, topic string) *KafkaSignalPublisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

func (p *KafkaSignalPublisher) PublishSignal(ctx context.Context, sig *models.MarketSignal) error {
	if err := p.producer.Publish(ctx, p.topic, []byte(sig.AssetAddress), sig); err != nil {
		return fmt.Errorf("publish signal %s: %w", sig.AssetAddress, err)
	}
	return nil
}

func (p *KafkaSignalPublisher) Close() error {
	return p.producer.Close()
}

// NopSignalPublisher is used when Kafka is disabled.
type NopSignalPublisher struct{}

func (NopSignalPublisher) PublishSignal(context.Context, *models.MarketSignal) error { return nil }
func (NopSignalPublisher) Close() error                                             { return nil }

var (
	_ repository.SignalPublisher = (*KafkaSignalPublisher)(nil)
	_ repository.SignalPublisher = NopSignalPublisher{}
)
