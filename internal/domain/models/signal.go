package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SignalType classifies a derived market signal.
type SignalType string

const (
	SignalBuy         SignalType = "buy"
	SignalSell        SignalType = "sell"
	SignalHold        SignalType = "hold"
	SignalStrongBuy   SignalType = "strong_buy"
	SignalStrongSell  SignalType = "strong_sell"
	SignalPriceSpike  SignalType = "price_spike"
	SignalPriceDrop   SignalType = "price_drop"
	SignalVolumeSurge SignalType = "volume_surge"
)

// Side maps a signal to the order side it implies. Hold maps to an
// empty side, meaning no order.
func (t SignalType) Side() string {
	switch t {
	case SignalBuy, SignalStrongBuy, SignalPriceSpike, SignalVolumeSurge:
		return "BUY"
	case SignalSell, SignalStrongSell, SignalPriceDrop:
		return "SELL"
	default:
		return ""
	}
}

// MarketSignal is a derived event: the snapshot comparison that
// produced it is atomic with its creation, and it is never mutated
// afterwards.
type MarketSignal struct {
	ID             string            `json:"id"`
	AssetAddress   string            `json:"asset_address"`
	SignalType     SignalType        `json:"signal_type"`
	Price          decimal.Decimal   `json:"price"`
	Confidence     decimal.Decimal   `json:"confidence"`
	RiskScore      decimal.Decimal   `json:"risk_score"`
	PriceChange24h *decimal.Decimal  `json:"price_change_24h,omitempty"`
	VolumeChange24 *decimal.Decimal  `json:"volume_change_24h,omitempty"`
	Timestamp      time.Time         `json:"timestamp"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// NewMarketSignal stamps identity and detection price. Confidence and
// risk default to the neutral 0.5 until scored.
func NewMarketSignal(address string, kind SignalType, price decimal.Decimal, at time.Time) *MarketSignal {
	half := decimal.NewFromFloat(0.5)
	return &MarketSignal{
		ID:           uuid.New().String(),
		AssetAddress: address,
		SignalType:   kind,
		Price:        price,
		Confidence:   half,
		RiskScore:    half,
		Timestamp:    at,
	}
}

// ValidateBounds enforces the unit-range invariant on confidence and
// risk. An out-of-range confidence means misconfigured thresholds or
// weights and must surface as an error, never be clamped away.
func (s *MarketSignal) ValidateBounds() error {
	one := decimal.NewFromInt(1)
	if s.Confidence.IsNegative() || s.Confidence.GreaterThan(one) {
		return &ValidationError{Field: "confidence", Reason: "must be between 0 and 1"}
	}
	if s.RiskScore.IsNegative() || s.RiskScore.GreaterThan(one) {
		return &ValidationError{Field: "risk_score", Reason: "must be between 0 and 1"}
	}
	return nil
}
