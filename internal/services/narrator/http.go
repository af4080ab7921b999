package narrator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
	xhttp "TradePulse/pkg/http"
)

// HTTPNarrator asks an external analysis service for the trade
// rationale. The service only supplies prose; the action, sizing and
// execution parameters always come from the deterministic rules, so
// an unreachable or slow service degrades to the rule-based rationale
// instead of blocking the cycle.
type HTTPNarrator struct {
	cfg      Config
	baseURL  string
	attempts int
	client   *xhttp.Client
	logger   zerolog.Logger
}

func NewHTTPNarrator(cfg Config, baseURL string, timeout time.Duration, logger zerolog.Logger) *HTTPNarrator {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPNarrator{
		cfg:      cfg,
		baseURL:  baseURL,
		attempts: 3,
		client:   xhttp.NewClient(xhttp.WithTimeout(timeout)),
		logger:   logger.With().Str("component", "narrator").Logger(),
	}
}

type narrateReq struct {
	AssetAddress    string  `json:"asset_address"`
	Price           string  `json:"price"`
	PriceChange24h  float64 `json:"price_change_24h"`
	VolumeChange24h float64 `json:"volume_change_24h"`
	TrendStrength   float64 `json:"trend_strength"`
	MomentumScore   float64 `json:"momentum_score"`
	VolatilityScore float64 `json:"volatility_score"`
	SignalType      string  `json:"signal_type"`
	MarketTrend     string  `json:"market_trend"`
	VolumeProfile   string  `json:"volume_profile"`
	RiskScore       float64 `json:"risk_score"`
}

type narrateResp struct {
	Analysis string `json:"analysis"`
}

func (n *HTTPNarrator) Narrate(ctx context.Context, snapshot *models.MarketSnapshot, technical *models.TechnicalSignals, market *models.MarketContext, riskScore float64) (*models.TradingDecision, error) {
	reasoning, err := n.fetchAnalysis(ctx, snapshot, technical, market, riskScore)
	if err != nil {
		n.logger.Warn().Err(err).
			Str("asset", snapshot.AssetAddress).
			Msg("analysis service unavailable, using rule-based rationale")
		reasoning = defaultReasoning(technical, riskScore)
	}
	return n.cfg.assemble(snapshot, technical, market, riskScore, reasoning), nil
}

func (n *HTTPNarrator) fetchAnalysis(ctx context.Context, snapshot *models.MarketSnapshot, technical *models.TechnicalSignals, market *models.MarketContext, riskScore float64) (string, error) {
	if n.baseURL == "" {
		return "", fmt.Errorf("narrator service url not configured")
	}

	req := narrateReq{
		AssetAddress:    snapshot.AssetAddress,
		Price:           snapshot.Price.String(),
		PriceChange24h:  snapshot.PriceChange24h,
		VolumeChange24h: snapshot.VolumeChange24,
		TrendStrength:   technical.TrendStrength,
		MomentumScore:   technical.MomentumScore,
		VolatilityScore: technical.VolatilityScore,
		SignalType:      technical.SignalType,
		MarketTrend:     market.MarketTrend,
		VolumeProfile:   market.VolumeProfile,
		RiskScore:       riskScore,
	}

	var resp narrateResp
	var err error
	for i := 1; i <= n.attempts; i++ {
		err = n.client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method:  xhttp.MethodPost,
			URL:     n.baseURL + "/analyze",
			Headers: map[string]string{"Content-Type": "application/json"},
			Body:    req,
		}, &resp)
		if err == nil {
			break
		}
		select {
		case <-time.After(time.Duration(i) * 50 * time.Millisecond):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", fmt.Errorf("post analyze: %w", err)
	}
	if resp.Analysis == "" {
		return "", fmt.Errorf("empty analysis in response")
	}
	return resp.Analysis, nil
}

var _ repository.Narrator = (*HTTPNarrator)(nil)
