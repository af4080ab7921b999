package signal

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"TradePulse/internal/domain/models"
)

// Config holds the detection thresholds and confidence weights. All
// values are decimal so threshold comparisons against snapshot deltas
// never round.
type Config struct {
	PriceChangeThreshold decimal.Decimal
	VolumeSurgeThreshold decimal.Decimal
	BaseConfidence       decimal.Decimal
	PriceWeight          decimal.Decimal
	VolumeWeight         decimal.Decimal
}

// ConfigFromFloats converts the YAML-level float thresholds once at
// startup.
func ConfigFromFloats(priceThreshold, volumeThreshold, baseConfidence, priceWeight, volumeWeight float64) Config {
	return Config{
		PriceChangeThreshold: decimal.NewFromFloat(priceThreshold),
		VolumeSurgeThreshold: decimal.NewFromFloat(volumeThreshold),
		BaseConfidence:       decimal.NewFromFloat(baseConfidence),
		PriceWeight:          decimal.NewFromFloat(priceWeight),
		VolumeWeight:         decimal.NewFromFloat(volumeWeight),
	}
}

// Generator compares consecutive snapshots of one asset and emits at
// most one signal per comparison.
type Generator struct {
	cfg    Config
	logger zerolog.Logger
}

func NewGenerator(cfg Config, logger zerolog.Logger) *Generator {
	return &Generator{
		cfg:    cfg,
		logger: logger.With().Str("component", "signal_generator").Logger(),
	}
}

// Generate evaluates current against the immediately preceding
// snapshot. A nil previous is a cold start and never produces a
// signal. Detection priority is fixed: price spike, price drop, then
// volume surge; the first match wins.
//
// The confidence formula does not self-clamp. An out-of-range result
// is returned alongside the signal as a validation error so the
// caller can surface misconfigured weights instead of trading on a
// silently clipped value.
func (g *Generator) Generate(current, previous *models.MarketSnapshot) (*models.MarketSignal, error) {
	if previous == nil {
		return nil, nil
	}
	if previous.Price.IsZero() {
		return nil, &models.ValidationError{Field: "previous.price", Reason: "cannot compare against a zero price"}
	}

	priceChange := current.Price.Sub(previous.Price).Div(previous.Price)

	// A zero previous volume keeps the numerator but swaps the
	// denominator for 1 so a newly listed asset still registers a
	// surge instead of dividing by zero.
	var volumeChange *decimal.Decimal
	if !current.Volume24h.IsZero() || !previous.Volume24h.IsZero() {
		denom := previous.Volume24h
		if denom.IsZero() {
			denom = decimal.NewFromInt(1)
		}
		vc := current.Volume24h.Sub(previous.Volume24h).Div(denom)
		volumeChange = &vc
	}

	switch {
	case priceChange.GreaterThan(g.cfg.PriceChangeThreshold):
		// Spike and drop score on the magnitude of the move; a surge
		// keeps the signed price delta so a falling price drags its
		// confidence down.
		return g.emit(current, models.SignalPriceSpike, priceChange, priceChange.Abs(), volumeChange)
	case priceChange.LessThan(g.cfg.PriceChangeThreshold.Neg()):
		return g.emit(current, models.SignalPriceDrop, priceChange, priceChange.Abs(), volumeChange)
	case volumeChange != nil && volumeChange.GreaterThan(g.cfg.VolumeSurgeThreshold):
		return g.emit(current, models.SignalVolumeSurge, priceChange, priceChange, volumeChange)
	default:
		return nil, nil
	}
}

func (g *Generator) emit(current *models.MarketSnapshot, kind models.SignalType, priceChange, confidenceDelta decimal.Decimal, volumeChange *decimal.Decimal) (*models.MarketSignal, error) {
	vc := decimal.Zero
	if volumeChange != nil {
		vc = *volumeChange
	}

	confidence := g.cfg.BaseConfidence.
		Add(confidenceDelta.Mul(g.cfg.PriceWeight)).
		Add(vc.Mul(g.cfg.VolumeWeight))

	sig := models.NewMarketSignal(current.AssetAddress, kind, current.Price, current.Timestamp)
	sig.Confidence = confidence
	sig.PriceChange24h = &priceChange
	if volumeChange != nil {
		sig.VolumeChange24 = volumeChange
	}

	if err := sig.ValidateBounds(); err != nil {
		return nil, err
	}

	g.logger.Info().
		Str("asset", sig.AssetAddress).
		Str("signal_type", string(kind)).
		Str("price_change", priceChange.StringFixed(6)).
		Str("confidence", confidence.StringFixed(4)).
		Msg("market signal generated")

	return sig, nil
}

// Default thresholds mirror the shipped market config; config files
// override them per deployment.
func DefaultConfig() Config {
	return ConfigFromFloats(0.05, 1.0, 0.5, 0.3, 0.2)
}
