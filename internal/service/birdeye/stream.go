package birdeye

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
)

type StreamConfig struct {
	WebsocketURL   string        `yaml:"websocket_url" default:"wss://public-api.birdeye.so/socket/solana"`
	APIKey         string        `yaml:"api_key"`
	Assets         []string      `yaml:"assets"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"3s"`
	PingInterval   time.Duration `yaml:"ping_interval" default:"25s"`
}

// Stream implements a PriceStream backed by the Birdeye WebSocket
// price feed. It warms the snapshot cache between polling cycles.
//
// The mutex guards connection state and serializes writes: pings,
// subscribe frames and reconnects all go through it, so the socket
// never sees two concurrent writers. Each connection owns one ping
// loop, started on Connect and stopped on Close.
type Stream struct {
	cfg    StreamConfig
	logger zerolog.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	pingStop  chan struct{}
}

func NewStream(cfg StreamConfig, logger zerolog.Logger) repository.PriceStream {
	return &Stream{
		cfg:    cfg,
		logger: logger.With().Str("component", "birdeye_stream").Logger(),
	}
}

func (s *Stream) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?x-api-key=%s", s.cfg.WebsocketURL, s.cfg.APIKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("birdeye stream connect: %w", err)
	}

	s.mu.Lock()
	s.stopPingLocked()
	s.conn = conn
	s.connected = true
	s.pingStop = make(chan struct{})
	go s.pingLoop(conn, s.pingStop)
	s.mu.Unlock()

	s.logger.Info().Msg("price stream connected")
	return nil
}

func (s *Stream) pingLoop(conn *websocket.Conn, stop chan struct{}) {
	interval := s.cfg.PingInterval
	if interval <= 0 {
		interval = 25 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.conn == conn && s.connected {
				_ = conn.WriteMessage(websocket.PingMessage, nil)
			}
			s.mu.Unlock()
		}
	}
}

func (s *Stream) Subscribe(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil || !s.connected {
		return fmt.Errorf("birdeye stream not connected")
	}
	for _, asset := range s.cfg.Assets {
		msg := map[string]interface{}{
			"type": "SUBSCRIBE_PRICE",
			"data": map[string]string{
				"address":   asset,
				"chartType": "1m",
				"currency":  "usd",
			},
		}
		if err := s.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", asset, err)
		}
		s.logger.Debug().Str("asset", asset).Msg("subscribed")
	}
	return nil
}

type priceFrame struct {
	Type string `json:"type"`
	Data struct {
		Address  string  `json:"address"`
		Price    float64 `json:"o"`
		Close    float64 `json:"c"`
		Volume   float64 `json:"v"`
		UnixTime int64   `json:"unixTime"`
	} `json:"data"`
}

// Read streams price ticks and errors off the connection current at
// call time; after a reconnect the caller invokes Read again for the
// new connection. Ticks are dropped on backpressure rather than
// stalling the socket.
func (s *Stream) Read(ctx context.Context) (<-chan *models.PriceTick, <-chan error) {
	ticks := make(chan *models.PriceTick, 1024)
	errs := make(chan error, 1)

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	go func() {
		defer close(ticks)
		defer close(errs)
		if conn == nil {
			errs <- fmt.Errorf("birdeye stream conn nil")
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			default:
				_, b, err := conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("birdeye stream read: %w", err)
					return
				}
				var f priceFrame
				if err := json.Unmarshal(b, &f); err != nil {
					continue
				}
				if f.Type != "PRICE_DATA" {
					continue
				}
				tick := &models.PriceTick{
					AssetAddress: f.Data.Address,
					Price:        f.Data.Close,
					Volume:       f.Data.Volume,
					Timestamp:    f.Data.UnixTime,
				}
				select {
				case ticks <- tick:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return ticks, errs
}

func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	select {
	case <-time.After(s.cfg.ReconnectDelay):
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := s.Connect(ctx); err != nil {
		return err
	}
	return s.Subscribe(ctx)
}

// stopPingLocked stops the current connection's ping loop. Callers
// hold s.mu.
func (s *Stream) stopPingLocked() {
	if s.pingStop != nil {
		close(s.pingStop)
		s.pingStop = nil
	}
}

func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	s.stopPingLocked()
	if s.conn != nil {
		err := s.conn.Close()
		s.conn = nil
		return err
	}
	return nil
}

func (s *Stream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}
