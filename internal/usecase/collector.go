package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"TradePulse/internal/domain/models"
	drepo "TradePulse/internal/domain/repository"
)

// TickSink consumes stream ticks between polling cycles.
type TickSink interface {
	Process(ctx context.Context, t *models.PriceTick) error
}

type CollectorConfig struct {
	Assets      []string
	Interval    time.Duration
	Concurrency int
}

// Collector drives the pipeline on a fixed interval. Assets within a
// cycle run concurrently up to the configured limit; the cycle checks
// for cancellation between assets so shutdown never waits for a full
// round. An optional price stream warms the last-price gauge between
// cycles.
type Collector struct {
	cfg     CollectorConfig
	pipe    *Pipeline
	stream  drepo.PriceStream
	sink    TickSink
	metrics drepo.Metrics
	logger  zerolog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewCollector(cfg CollectorConfig, pipe *Pipeline, stream drepo.PriceStream, sink TickSink, metrics drepo.Metrics, logger zerolog.Logger) *Collector {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Collector{
		cfg:     cfg,
		pipe:    pipe,
		stream:  stream,
		sink:    sink,
		metrics: metrics,
		logger:  logger.With().Str("component", "collector").Logger(),
	}
}

// Start launches the polling loop and, when configured, the price
// stream consumer. It returns immediately.
func (c *Collector) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})

	if c.stream != nil {
		if err := c.stream.Connect(ctx); err != nil {
			c.logger.Warn().Err(err).Msg("price stream connect failed, polling only")
		} else if err := c.stream.Subscribe(ctx); err != nil {
			c.logger.Warn().Err(err).Msg("price stream subscribe failed, polling only")
		} else {
			go c.consumeStream(ctx)
		}
	}

	go c.run(ctx)
	return nil
}

func (c *Collector) run(ctx context.Context) {
	defer close(c.done)

	// first cycle immediately, then on the interval
	c.cycle(ctx)
	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.cycle(ctx)
		}
	}
}

func (c *Collector) cycle(ctx context.Context) {
	started := time.Now()
	sem := make(chan struct{}, c.cfg.Concurrency)
	var wg sync.WaitGroup

	for _, asset := range c.cfg.Assets {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(asset string) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := c.pipe.ProcessAsset(ctx, asset); err != nil && ctx.Err() == nil {
				c.logger.Error().Err(err).Str("asset", asset).Msg("asset cycle failed")
			}
		}(asset)
	}
	wg.Wait()

	if ctx.Err() == nil {
		c.metrics.RecordLatency("cycle", time.Since(started).Seconds())
	}
}

func (c *Collector) consumeStream(ctx context.Context) {
	ticks, errs := c.stream.Read(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errs:
			if err != nil {
				c.metrics.RecordError("stream")
				if rerr := c.stream.Reconnect(ctx); rerr != nil {
					c.logger.Warn().Err(rerr).Msg("price stream reconnect failed")
					return
				}
				ticks, errs = c.stream.Read(ctx)
			}
		case t := <-ticks:
			if t == nil {
				continue
			}
			c.metrics.RecordLastPrice(t.AssetAddress, t.Price)
			if c.sink != nil {
				if err := c.sink.Process(ctx, t); err != nil {
					c.logger.Debug().Err(err).Str("asset", t.AssetAddress).Msg("tick sink rejected tick")
				}
			}
		}
	}
}

// Stop cancels the loop and waits for the in-flight cycle to notice.
func (c *Collector) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	if c.done != nil {
		<-c.done
	}
	if c.stream != nil {
		return c.stream.Close()
	}
	return nil
}
