package models

// TechnicalSignals is computed fresh per evaluation from a snapshot
// and never persisted. All scores live in [0,1].
type TechnicalSignals struct {
	TrendStrength     float64   `json:"trend_strength"`
	MomentumScore     float64   `json:"momentum_score"`
	VolatilityScore   float64   `json:"volatility_score"`
	SupportResistance []float64 `json:"support_resistance"`
	SignalType        string    `json:"signal_type"`
	Timeframe         string    `json:"timeframe"`
}

// MarketContext carries the broad-market inputs the risk scorer nudges
// its categorical sub-scores with.
type MarketContext struct {
	MarketTrend       string  `json:"market_trend"` // "Bullish", "Bearish", "Neutral"
	SectorPerformance float64 `json:"sector_performance"`
	LiquidityScore    float64 `json:"liquidity_score"`
	VolumeProfile     string  `json:"volume_profile"` // "High", "Normal"
	SentimentScore    float64 `json:"sentiment_score"`
}

// TradeAction is the narrated decision outcome.
type TradeAction string

const (
	ActionBuy  TradeAction = "buy"
	ActionSell TradeAction = "sell"
	ActionHold TradeAction = "hold"
)

// ExecutionParams bound how a decision may be executed.
type ExecutionParams struct {
	EntryType   string    `json:"entry_type"` // "Market" or "Limit"
	TimeHorizon string    `json:"time_horizon"`
	StopLoss    float64   `json:"stop_loss"`   // fraction of entry price, (0, 0.5]
	TakeProfits []float64 `json:"take_profits"` // fractions above entry, each > StopLoss
	MaxSlippage float64   `json:"max_slippage"`
}

// TradingDecision is the assembled output of technical analysis, risk
// scoring and the narrator, handed to the execution engine.
type TradingDecision struct {
	AssetAddress     string           `json:"asset_address"`
	Action           TradeAction      `json:"action"`
	Size             float64          `json:"size"`
	Confidence       float64          `json:"confidence"`
	Reasoning        string           `json:"reasoning"`
	RiskScore        float64          `json:"risk_score"`
	TechnicalSignals TechnicalSignals `json:"technical_signals"`
	MarketContext    MarketContext    `json:"market_context"`
	ExecutionParams  ExecutionParams  `json:"execution_params"`
}
