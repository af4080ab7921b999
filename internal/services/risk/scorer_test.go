package risk

import (
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"TradePulse/internal/domain/models"
)

func newTestScorer() *Scorer {
	return NewScorer(DefaultConfig(), zerolog.Nop())
}

func healthySnapshot() *models.MarketSnapshot {
	return &models.MarketSnapshot{
		AssetAddress:   "So11111111111111111111111111111111111111112",
		Price:          decimal.NewFromFloat(1.0),
		Volume24h:      decimal.NewFromFloat(500_000),
		MarketCap:      1_000_000,
		LiquidityUSD:   200_000,
		LiquidityChg24: 5.0,
	}
}

func neutralTechnical() *models.TechnicalSignals {
	return &models.TechnicalSignals{
		TrendStrength:   0.5,
		MomentumScore:   0.5,
		VolatilityScore: 0.5,
		SignalType:      "Mixed Signals",
	}
}

func neutralMarket() *models.MarketContext {
	return &models.MarketContext{
		MarketTrend:       "Neutral",
		SectorPerformance: 1.0,
		VolumeProfile:     "Normal",
		SentimentScore:    0.5,
	}
}

func TestAssessStaysInUnitRange(t *testing.T) {
	s := newTestScorer()
	got := s.Assess(healthySnapshot(), neutralTechnical(), neutralMarket())
	if got < 0 || got > 1 {
		t.Fatalf("score %v out of [0,1]", got)
	}
}

func TestAssessLiquidityHardFloor(t *testing.T) {
	s := newTestScorer()
	snap := healthySnapshot()
	snap.LiquidityUSD = 5_000 // under the 10k minimum

	floored := s.Assess(snap, neutralTechnical(), neutralMarket())
	healthy := s.Assess(healthySnapshot(), neutralTechnical(), neutralMarket())
	if floored >= healthy {
		t.Fatalf("sub-minimum liquidity should score lower: floored=%v healthy=%v", floored, healthy)
	}

	// the liquidity sub-score itself must be exactly zero
	if got := s.liquidityScore(snap); got != 0.0 {
		t.Fatalf("liquidity sub-score = %v, want hard 0.0", got)
	}
}

func TestLiquidityScoreFullMarks(t *testing.T) {
	s := newTestScorer()
	// ratio 0.2 >= 0.1 → +0.4; volume/mcap 0.5*5 capped → +0.3; rising → +0.2
	got := s.liquidityScore(healthySnapshot())
	if math.Abs(got-0.9) > 1e-9 {
		t.Fatalf("liquidity sub-score = %v, want 0.9", got)
	}
}

func TestAssessPartialScoringSkipsMissingInputs(t *testing.T) {
	s := newTestScorer()
	snap := healthySnapshot()

	// nil technical and market: only liquidity (0.30) and sentiment
	// (0.15) weights apply
	got := s.Assess(snap, nil, nil)
	wantLiq := 0.9
	wantSent := 0.5
	want := (wantLiq*0.30 + wantSent*0.15) / 0.45
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("partial score = %v, want %v", got, want)
	}
}

func TestMarketScoreNudges(t *testing.T) {
	s := newTestScorer()

	bull := neutralMarket()
	bull.MarketTrend = "Bullish"
	bull.VolumeProfile = "High"
	// 0.5 + 0.2 + 0.1 (sector > 0) + 0.1 = 0.9
	if got := s.marketScore(bull); math.Abs(got-0.9) > 1e-9 {
		t.Fatalf("bullish market score = %v, want 0.9", got)
	}

	bear := neutralMarket()
	bear.MarketTrend = "Bearish"
	bear.SectorPerformance = -2.0
	// 0.5 - 0.2 - 0.1 = 0.2
	if got := s.marketScore(bear); math.Abs(got-0.2) > 1e-9 {
		t.Fatalf("bearish market score = %v, want 0.2", got)
	}
}

func TestTechnicalScoreSignalNudges(t *testing.T) {
	s := newTestScorer()

	tech := neutralTechnical()
	tech.SignalType = "High Volatility"
	base := 0.5*0.4 + 0.5*0.3
	if got := s.technicalScore(tech); math.Abs(got-(base-0.2)) > 1e-9 {
		t.Fatalf("high-volatility technical score = %v, want %v", got, base-0.2)
	}

	tech.SignalType = "Strong Uptrend"
	if got := s.technicalScore(tech); math.Abs(got-(base+0.2)) > 1e-9 {
		t.Fatalf("uptrend technical score = %v, want %v", got, base+0.2)
	}
}

func TestSentimentScoreUsesOnChainAndSocial(t *testing.T) {
	s := newTestScorer()
	snap := healthySnapshot()
	sentiment := 0.9
	wallets := int64(5000)
	holders := int64(1200)
	snap.SocialSentiment = &sentiment
	snap.ActiveWallets = &wallets
	snap.HolderCount = &holders

	market := neutralMarket()
	market.SentimentScore = 0.8

	// 0.5 + 0.4*0.3 + 0.1 + 0.1 + 0.3*0.2
	want := 0.5 + 0.12 + 0.1 + 0.1 + 0.06
	if got := s.sentimentScore(snap, market); math.Abs(got-want) > 1e-9 {
		t.Fatalf("sentiment score = %v, want %v", got, want)
	}
}

func TestSubScoresClampBeforeWeighting(t *testing.T) {
	s := newTestScorer()
	tech := &models.TechnicalSignals{
		TrendStrength:   3.0, // out-of-range inputs must not leak
		MomentumScore:   3.0,
		VolatilityScore: -2.0,
		SignalType:      "Strong Uptrend",
	}
	if got := s.technicalScore(tech); got != 1.0 {
		t.Fatalf("technical sub-score should clamp to 1.0, got %v", got)
	}
	if got := clamp01(1.0 - tech.VolatilityScore); got != 1.0 {
		t.Fatalf("inverse volatility should clamp to 1.0, got %v", got)
	}
}
