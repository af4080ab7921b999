package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketSnapshot is one observation of an asset at a point in time.
// Snapshots are append-only: a new one is stored each polling cycle,
// never mutated.
type MarketSnapshot struct {
	AssetAddress   string          `json:"asset_address"`
	Symbol         string          `json:"symbol"`
	Price          decimal.Decimal `json:"price"`
	Volume24h      decimal.Decimal `json:"volume_24h"`
	MarketCap      float64         `json:"market_cap"`
	LiquidityUSD   float64         `json:"liquidity_usd"`
	PriceChange24h float64         `json:"price_change_24h"` // percent
	VolumeChange24 float64         `json:"volume_change_24h"`
	LiquidityChg24 float64         `json:"liquidity_change_24h"`

	// Technical fields, filled in by the indicator engine when a price
	// series is available.
	RSI14          *float64 `json:"rsi_14,omitempty"`
	MACD           *float64 `json:"macd,omitempty"`
	MACDSignal     *float64 `json:"macd_signal,omitempty"`
	BollingerUpper *float64 `json:"bollinger_upper,omitempty"`
	BollingerLower *float64 `json:"bollinger_lower,omitempty"`

	// On-chain fields, optional.
	HolderCount   *int64 `json:"holder_count,omitempty"`
	ActiveWallets *int64 `json:"active_wallets,omitempty"`

	SocialSentiment *float64 `json:"social_sentiment,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Validate rejects snapshots that cannot be trusted for trading
// decisions before anything downstream sees them.
func (s *MarketSnapshot) Validate() error {
	if s.AssetAddress == "" {
		return &ValidationError{Field: "asset_address", Reason: "must not be empty"}
	}
	if !s.Price.IsPositive() {
		return &ValidationError{Field: "price", Reason: "must be positive"}
	}
	if s.Volume24h.IsNegative() {
		return &ValidationError{Field: "volume_24h", Reason: "must not be negative"}
	}
	return nil
}
