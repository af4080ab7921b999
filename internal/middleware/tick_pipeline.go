package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
)

// Proc is the minimal downstream interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, t *models.PriceTick) error
}

// TickPipeline sits between the streaming price feed and its consumer.
// It validates incoming ticks, throttles per asset, and buffers when
// the downstream is unavailable so a slow consumer never stalls the
// websocket read loop.
type TickPipeline struct {
	proc     Proc
	metrics  domrepo.Metrics
	maxRPS   int
	bufSize  int
	bufCh    chan *models.PriceTick
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex
	lastSeen map[string]time.Time // per-asset last accepted time
}

type PipelineOption func(*TickPipeline)

// WithMaxRPS sets the max accepted ticks per second per asset.
func WithMaxRPS(n int) PipelineOption {
	return func(p *TickPipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *TickPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewTickPipeline creates a new pipeline.
func NewTickPipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *TickPipeline {
	p := &TickPipeline{
		proc:     proc,
		metrics:  metrics,
		maxRPS:   20,   // default throttle per asset
		bufSize:  1000, // default buffer
		bufCh:    make(chan *models.PriceTick, 1000),
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize != cap(p.bufCh) {
		p.bufCh = make(chan *models.PriceTick, p.bufSize)
	}
	return p
}

// Start launches background flushing of buffered ticks.
func (p *TickPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case t := <-p.bufCh:
				if t == nil {
					continue
				}
				if err := p.proc.Process(ctx, t); err != nil {
					// exponential backoff with cap
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- t:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *TickPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, throttles, and forwards the tick downstream,
// buffering on errors.
func (p *TickPipeline) Process(ctx context.Context, t *models.PriceTick) error {
	start := time.Now()
	if err := validateTick(t); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.allow(t.AssetAddress, start) {
		// throttled; drop silently
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.proc.Process(ctx, t); err != nil {
		p.metrics.RecordError("pipeline_process")
		// buffer non-blocking
		select {
		case p.bufCh <- t:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validateTick(t *models.PriceTick) error {
	if t == nil {
		return fmt.Errorf("tick nil")
	}
	if t.AssetAddress == "" {
		return fmt.Errorf("asset empty")
	}
	if t.Timestamp <= 0 {
		return fmt.Errorf("timestamp invalid")
	}
	if t.Price < 0 || t.Volume < 0 {
		return fmt.Errorf("negative price/volume")
	}
	return nil
}

func (p *TickPipeline) allow(asset string, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSeen[asset]
	if last.IsZero() {
		p.lastSeen[asset] = now
		return true
	}
	if now.Sub(last) < time.Second/time.Duration(p.maxRPS) {
		return false
	}
	p.lastSeen[asset] = now
	return true
}
