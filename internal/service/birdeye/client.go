package birdeye

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
	"TradePulse/internal/service/cache"
	"TradePulse/internal/service/ratelimit"
	xhttp "TradePulse/pkg/http"
	"TradePulse/pkg/util"
)

type Config struct {
	BaseURL        string        `yaml:"base_url" default:"https://public-api.birdeye.so"`
	APIKey         string        `yaml:"api_key"`
	Timeout        time.Duration `yaml:"timeout" default:"10s"`
	Rate           float64       `yaml:"rate" default:"10"`
	Burst          float64       `yaml:"burst" default:"15"`
	OverviewTTL    time.Duration `yaml:"overview_ttl" default:"30s"`
	PriceSeriesTTL time.Duration `yaml:"price_series_ttl" default:"5m"`
	Attempts       int           `yaml:"attempts" default:"3"`
}

// Client fetches market data from the Birdeye REST API. Every request
// passes through the shared token bucket and the per-key TTL cache,
// so concurrent asset tasks neither exceed the upstream quota nor
// duplicate in-flight fetches.
type Client struct {
	cfg     Config
	http    *xhttp.Client
	limiter *ratelimit.Limiter
	cache   *cache.TTLCache
	metrics repository.Metrics
	logger  zerolog.Logger
}

func NewClient(cfg Config, limiter *ratelimit.Limiter, ttlCache *cache.TTLCache, metrics repository.Metrics, logger zerolog.Logger) *Client {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	return &Client{
		cfg:     cfg,
		http:    xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout)),
		limiter: limiter,
		cache:   ttlCache,
		metrics: metrics,
		logger:  logger.With().Str("component", "birdeye").Logger(),
	}
}

type apiEnvelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type tokenOverview struct {
	Address             string  `json:"address"`
	Symbol              string  `json:"symbol"`
	Price               float64 `json:"price"`
	Volume24hUSD        float64 `json:"v24hUSD"`
	Volume24hChangePct  float64 `json:"v24hChangePercent"`
	PriceChange24hPct   float64 `json:"priceChange24hPercent"`
	MarketCap           float64 `json:"marketCap"`
	Liquidity           float64 `json:"liquidity"`
	LiquidityChange24h  float64 `json:"liquidityChangePercent24h"`
	Holder              *int64  `json:"holder"`
	UniqueWallets24h    *int64  `json:"uniqueWallet24h"`
}

type pricePoint struct {
	UnixTime int64   `json:"unixTime"`
	Value    float64 `json:"value"`
}

type priceHistory struct {
	Items []pricePoint `json:"items"`
}

// FetchSnapshot returns the current market snapshot for an asset.
// Results are cached per asset for OverviewTTL; a cache hit skips the
// limiter entirely.
func (c *Client) FetchSnapshot(ctx context.Context, asset string) (*models.MarketSnapshot, error) {
	key := "overview:" + asset
	overview, err := cache.Execute(ctx, c.cache, key, c.cfg.OverviewTTL, func(ctx context.Context) (tokenOverview, error) {
		var env apiEnvelope[tokenOverview]
		err := c.get(ctx, "/defi/token_overview", map[string][]string{"address": {asset}}, &env)
		if err != nil {
			return tokenOverview{}, err
		}
		if !env.Success {
			return tokenOverview{}, fmt.Errorf("token_overview %s: %s", asset, env.Message)
		}
		return env.Data, nil
	})
	if err != nil {
		return nil, err
	}

	snap := &models.MarketSnapshot{
		AssetAddress:   overview.Address,
		Symbol:         overview.Symbol,
		Price:          decimal.NewFromFloat(overview.Price),
		Volume24h:      decimal.NewFromFloat(overview.Volume24hUSD),
		MarketCap:      overview.MarketCap,
		LiquidityUSD:   overview.Liquidity,
		PriceChange24h: overview.PriceChange24hPct,
		VolumeChange24: overview.Volume24hChangePct,
		LiquidityChg24: overview.LiquidityChange24h,
		HolderCount:    overview.Holder,
		ActiveWallets:  overview.UniqueWallets24h,
		Timestamp:      time.Now().UTC(),
	}
	if snap.AssetAddress == "" {
		snap.AssetAddress = asset
	}
	if verr := snap.Validate(); verr != nil {
		return nil, verr
	}
	return snap, nil
}

// FetchPriceSeries returns up to lookback closing prices, oldest
// first, for the indicator math.
func (c *Client) FetchPriceSeries(ctx context.Context, asset string, lookback int) ([]float64, error) {
	key := "history:" + asset + ":" + strconv.Itoa(lookback)
	return cache.Execute(ctx, c.cache, key, c.cfg.PriceSeriesTTL, func(ctx context.Context) ([]float64, error) {
		now := time.Now().UTC()
		from, to := util.AlignRange(now.Add(-time.Duration(lookback)*time.Hour), now, "1H")
		var env apiEnvelope[priceHistory]
		err := c.get(ctx, "/defi/history_price", map[string][]string{
			"address":      {asset},
			"address_type": {"token"},
			"type":         {"1H"},
			"time_from":    {strconv.FormatInt(from.Unix(), 10)},
			"time_to":      {strconv.FormatInt(to.Unix(), 10)},
		}, &env)
		if err != nil {
			return nil, err
		}
		if !env.Success {
			return nil, fmt.Errorf("history_price %s: %s", asset, env.Message)
		}
		prices := make([]float64, 0, len(env.Data.Items))
		for _, p := range env.Data.Items {
			prices = append(prices, p.Value)
		}
		if len(prices) > lookback {
			prices = prices[len(prices)-lookback:]
		}
		return prices, nil
	})
}

// get performs one rate-limited GET with bounded retries on transient
// failures. Client errors other than 429 fail immediately.
func (c *Client) get(ctx context.Context, path string, query map[string][]string, dest interface{}) error {
	var err error
	for attempt := 1; attempt <= c.cfg.Attempts; attempt++ {
		if wait := c.limiter.Acquire(); wait > 0 {
			if c.metrics != nil {
				c.metrics.RecordLimiterWait(wait)
			}
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err = c.http.SendAndParse(ctx, &xhttp.RequestOptions{
			Method:      xhttp.MethodGet,
			URL:         c.cfg.BaseURL + path,
			Headers:     map[string]string{"X-API-KEY": c.cfg.APIKey, "x-chain": "solana"},
			QueryParams: query,
		}, dest)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		err = &models.TransientError{Op: path, Err: err}
		if c.metrics != nil {
			c.metrics.RecordError("upstream_transient")
		}
		c.logger.Warn().Err(err).Int("attempt", attempt).Str("path", path).Msg("upstream fetch failed")

		select {
		case <-time.After(backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// backoff doubles per attempt starting at 200ms, capped at 2s.
func backoff(attempt int) time.Duration {
	d := 200 * time.Millisecond << uint(attempt-1)
	if d > 2*time.Second {
		return 2 * time.Second
	}
	return d
}

// retryable treats rate limiting, server errors and transport
// failures as transient. Other client errors fail immediately.
func retryable(err error) bool {
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return se.StatusCode == nethttp.StatusTooManyRequests || se.StatusCode >= 500
	}
	return true
}

var _ repository.MarketDataSource = (*Client)(nil)
