package narrator

import (
	"fmt"

	"TradePulse/internal/domain/models"
)

// Config bounds position sizing and execution parameters attached to
// every decision.
type Config struct {
	MaxSlippage     float64 `yaml:"max_slippage" default:"0.02"`
	MaxPositionSize float64 `yaml:"max_position_size" default:"10"`
	MinPositionSize float64 `yaml:"min_position_size" default:"0.1"`
}

func DefaultConfig() Config {
	return Config{
		MaxSlippage:     0.02,
		MaxPositionSize: 10,
		MinPositionSize: 0.1,
	}
}

// BuildContext derives the market context the risk scorer and
// narrator consume. Volume profile flips to High past a 50% 24h
// volume increase.
func BuildContext(s *models.MarketSnapshot) *models.MarketContext {
	profile := "Normal"
	if s.VolumeChange24 > 50.0 {
		profile = "High"
	}
	var liquidityScore float64
	if s.MarketCap > 0 {
		liquidityScore = s.LiquidityUSD / s.MarketCap
	}
	var sentiment float64
	if s.SocialSentiment != nil {
		sentiment = *s.SocialSentiment
	}
	return &models.MarketContext{
		MarketTrend:    "Neutral",
		LiquidityScore: liquidityScore,
		VolumeProfile:  profile,
		SentimentScore: sentiment,
	}
}

// assemble turns a risk/trend pair into a complete decision. The
// action thresholds read risk as a safety score: high safety plus a
// strong trend buys, low safety or a collapsing trend sells,
// everything in between holds.
func (c Config) assemble(s *models.MarketSnapshot, technical *models.TechnicalSignals, market *models.MarketContext, riskScore float64, reasoning string) *models.TradingDecision {
	action := models.ActionHold
	switch {
	case riskScore > 0.7 && technical.TrendStrength > 0.6:
		action = models.ActionBuy
	case riskScore < 0.3 || technical.TrendStrength < 0.2:
		action = models.ActionSell
	}

	stopLoss := 0.1
	if riskScore > 0.7 {
		stopLoss = 0.05
	}

	return &models.TradingDecision{
		AssetAddress: s.AssetAddress,
		Action:       action,
		Size:         c.positionSize(riskScore, technical.TrendStrength),
		Confidence:   technical.TrendStrength * (1.0 - riskScore),
		Reasoning:    reasoning,
		RiskScore:    riskScore,
		TechnicalSignals: *technical,
		MarketContext:    *market,
		ExecutionParams: models.ExecutionParams{
			EntryType:   "Market",
			TimeHorizon: technical.Timeframe,
			StopLoss:    stopLoss,
			TakeProfits: []float64{0.1, 0.2, 0.3},
			MaxSlippage: c.MaxSlippage,
		},
	}
}

func (c Config) positionSize(riskScore, trendStrength float64) float64 {
	base := c.MaxPositionSize * 0.2
	size := base * (1.0 - riskScore) * trendStrength
	if size < c.MinPositionSize {
		size = c.MinPositionSize
	}
	if size > c.MaxPositionSize {
		size = c.MaxPositionSize
	}
	return size
}

func defaultReasoning(technical *models.TechnicalSignals, riskScore float64) string {
	return fmt.Sprintf("%s regime, trend %.2f, momentum %.2f, risk score %.2f",
		technical.SignalType, technical.TrendStrength, technical.MomentumScore, riskScore)
}
