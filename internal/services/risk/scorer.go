package risk

import (
	"github.com/rs/zerolog"

	"TradePulse/internal/domain/models"
)

// Weights for the five sub-scores. A zero weight drops the sub-score
// from the blend entirely.
type Weights struct {
	Liquidity  float64 `yaml:"liquidity" default:"0.30"`
	Volatility float64 `yaml:"volatility" default:"0.20"`
	Market     float64 `yaml:"market" default:"0.15"`
	Technical  float64 `yaml:"technical" default:"0.20"`
	Sentiment  float64 `yaml:"sentiment" default:"0.15"`
}

type Config struct {
	MinLiquidityUSD   float64 `yaml:"min_liquidity_usd" default:"10000"`
	MinLiquidityRatio float64 `yaml:"min_liquidity_ratio" default:"0.1"`
	Weights           Weights `yaml:"weights"`
}

func DefaultConfig() Config {
	return Config{
		MinLiquidityUSD:   10_000,
		MinLiquidityRatio: 0.1,
		Weights: Weights{
			Liquidity:  0.30,
			Volatility: 0.20,
			Market:     0.15,
			Technical:  0.20,
			Sentiment:  0.15,
		},
	}
}

// Scorer blends five sub-scores into one safety score in [0,1],
// 1.0 being safest. Each sub-score is clamped before weighting and
// the blend divides by the weights actually applied, so a missing
// input shrinks the denominator instead of dragging the score down.
type Scorer struct {
	cfg    Config
	logger zerolog.Logger
}

func NewScorer(cfg Config, logger zerolog.Logger) *Scorer {
	return &Scorer{
		cfg:    cfg,
		logger: logger.With().Str("component", "risk_scorer").Logger(),
	}
}

// Assess scores one asset. technical and market may be nil; their
// sub-scores are then dropped from the blend.
func (s *Scorer) Assess(snapshot *models.MarketSnapshot, technical *models.TechnicalSignals, market *models.MarketContext) float64 {
	var score, weightSum float64

	liq := s.liquidityScore(snapshot)
	score += liq * s.cfg.Weights.Liquidity
	weightSum += s.cfg.Weights.Liquidity

	if technical != nil {
		score += clamp01(1.0-technical.VolatilityScore) * s.cfg.Weights.Volatility
		weightSum += s.cfg.Weights.Volatility

		score += s.technicalScore(technical) * s.cfg.Weights.Technical
		weightSum += s.cfg.Weights.Technical
	}

	if market != nil {
		score += s.marketScore(market) * s.cfg.Weights.Market
		weightSum += s.cfg.Weights.Market
	}

	sent := s.sentimentScore(snapshot, market)
	score += sent * s.cfg.Weights.Sentiment
	weightSum += s.cfg.Weights.Sentiment

	if weightSum == 0 {
		return 0.5
	}
	final := score / weightSum

	s.logger.Debug().
		Str("asset", snapshot.AssetAddress).
		Float64("liquidity", liq).
		Float64("sentiment", sent).
		Float64("risk_score", final).
		Msg("risk assessed")

	return final
}

// liquidityScore builds up from ratio, volume and trend checks but is
// overridden to 0.0 outright when absolute liquidity sits under the
// configured minimum. Thin liquidity invalidates the rest of the
// analysis, so the floor is not a weighted input.
func (s *Scorer) liquidityScore(snapshot *models.MarketSnapshot) float64 {
	if snapshot.LiquidityUSD < s.cfg.MinLiquidityUSD {
		return 0.0
	}

	var score float64
	if snapshot.MarketCap > 0 {
		if snapshot.LiquidityUSD/snapshot.MarketCap >= s.cfg.MinLiquidityRatio {
			score += 0.4
		}
		volume, _ := snapshot.Volume24h.Float64()
		vr := volume / snapshot.MarketCap * 5.0
		if vr > 0.3 {
			vr = 0.3
		}
		score += vr
	}
	if snapshot.LiquidityChg24 > 0 {
		score += 0.2
	}
	return clamp01(score)
}

func (s *Scorer) marketScore(market *models.MarketContext) float64 {
	score := 0.5
	switch market.MarketTrend {
	case "Bullish":
		score += 0.2
	case "Bearish":
		score -= 0.2
	}
	if market.SectorPerformance > 0 {
		score += 0.1
	} else {
		score -= 0.1
	}
	if market.VolumeProfile == "High" {
		score += 0.1
	}
	return clamp01(score)
}

func (s *Scorer) technicalScore(technical *models.TechnicalSignals) float64 {
	score := technical.TrendStrength*0.4 + technical.MomentumScore*0.3
	switch technical.SignalType {
	case "Strong Uptrend":
		score += 0.2
	case "Strong Downtrend":
		score -= 0.1
	case "High Volatility":
		score -= 0.2
	case "Ranging":
		score += 0.1
	}
	return clamp01(score)
}

func (s *Scorer) sentimentScore(snapshot *models.MarketSnapshot, market *models.MarketContext) float64 {
	score := 0.5
	if snapshot.SocialSentiment != nil {
		score += (*snapshot.SocialSentiment - 0.5) * 0.3
	}
	if snapshot.ActiveWallets != nil && *snapshot.ActiveWallets > 1000 {
		score += 0.1
	}
	if snapshot.HolderCount != nil && *snapshot.HolderCount > 0 {
		score += 0.1
	}
	if market != nil {
		score += (market.SentimentScore - 0.5) * 0.2
	}
	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
