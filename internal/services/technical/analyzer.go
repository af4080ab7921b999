package technical

import (
	"TradePulse/internal/domain/models"
)

// Analyzer derives ephemeral TechnicalSignals from a snapshot. All
// scores are normalized to [0,1] before they reach the risk scorer.
type Analyzer struct {
	rsiPeriod  int
	macdFast   int
	macdSlow   int
	macdSignal int
	bbPeriod   int
	bbStdDev   float64
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{
		rsiPeriod:  14,
		macdFast:   12,
		macdSlow:   26,
		macdSignal: 9,
		bbPeriod:   20,
		bbStdDev:   2.0,
	}
}

// Enrich fills the snapshot's technical fields from a price series,
// oldest first. A nil or short series leaves the documented defaults.
func (a *Analyzer) Enrich(s *models.MarketSnapshot, prices []float64) {
	rsi := RSI(prices, a.rsiPeriod)
	macd, macdSig := MACD(prices, a.macdFast, a.macdSlow, a.macdSignal)
	upper, lower := Bollinger(prices, a.bbPeriod, a.bbStdDev)
	s.RSI14 = &rsi
	s.MACD = &macd
	s.MACDSignal = &macdSig
	s.BollingerUpper = &upper
	s.BollingerLower = &lower
}

// Analyze computes the full TechnicalSignals set for one snapshot.
func (a *Analyzer) Analyze(s *models.MarketSnapshot) *models.TechnicalSignals {
	trend := a.trendStrength(s)
	momentum := a.momentumScore(s)
	volatility := a.volatilityScore(s)

	return &models.TechnicalSignals{
		TrendStrength:     trend,
		MomentumScore:     momentum,
		VolatilityScore:   volatility,
		SupportResistance: a.supportResistance(s),
		SignalType:        a.signalType(trend, momentum, volatility, s),
		Timeframe:         "4h",
	}
}

func (a *Analyzer) trendStrength(s *models.MarketSnapshot) float64 {
	priceWeight := 0.4
	if s.PriceChange24h > 0 {
		priceWeight = 0.6
	}
	volumeWeight := 0.3
	if s.VolumeChange24 > 0 {
		volumeWeight = 0.7
	}

	priceScore := clamp(s.PriceChange24h/100.0, -1, 1)
	volumeScore := clamp(s.VolumeChange24/200.0, -1, 1)

	trend := abs(priceScore*priceWeight + volumeScore*volumeWeight)

	if s.RSI14 == nil {
		return trend
	}
	rsi := *s.RSI14
	var rsiScore float64
	switch {
	case rsi > 70:
		rsiScore = (100 - rsi) / 30
	case rsi < 30:
		rsiScore = rsi / 30
	default:
		rsiScore = 0.5 + (rsi-50)/40
	}
	return (trend + rsiScore) / 2
}

func (a *Analyzer) momentumScore(s *models.MarketSnapshot) float64 {
	var score float64
	var signals int

	if s.RSI14 != nil {
		switch {
		case *s.RSI14 > 70:
			score += 1
		case *s.RSI14 < 30:
			score -= 1
		}
		signals++
	}

	if s.MACD != nil && s.MACDSignal != nil {
		if *s.MACD > *s.MACDSignal {
			score += 1
		} else {
			score -= 1
		}
		signals++
	}

	score += sign(s.PriceChange24h)
	signals++
	score += sign(s.VolumeChange24)
	signals++

	if signals == 0 {
		return 0.5
	}
	return (score/float64(signals) + 1) / 2
}

func (a *Analyzer) volatilityScore(s *models.MarketSnapshot) float64 {
	var volatility float64

	if s.BollingerUpper != nil && s.BollingerLower != nil {
		price, _ := s.Price.Float64()
		if price > 0 {
			volatility += (*s.BollingerUpper - *s.BollingerLower) / price
		}
	}

	volatility += abs(s.PriceChange24h) / 100.0
	volatility += abs(s.VolumeChange24) / 100.0

	v := volatility / 3.0
	if v > 1 {
		v = 1
	}
	return v
}

// supportResistance places naive ±10% levels around the spot price.
// A proper implementation would mine historical pivots; these levels
// only feed the narrator's context.
func (a *Analyzer) supportResistance(s *models.MarketSnapshot) []float64 {
	price, _ := s.Price.Float64()
	return []float64{price * 0.9, price * 1.1}
}

func (a *Analyzer) signalType(trend, momentum, volatility float64, s *models.MarketSnapshot) string {
	switch {
	case trend > 0.7 && momentum > 0.7:
		if s.PriceChange24h > 0 {
			return "Strong Uptrend"
		}
		return "Strong Downtrend"
	case volatility > 0.8:
		return "High Volatility"
	case trend < 0.3:
		return "Ranging"
	default:
		return "Mixed Signals"
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
