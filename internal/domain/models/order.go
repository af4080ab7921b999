package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderType is the kind of order submitted to the placement backend.
type OrderType string

const (
	OrderMarket     OrderType = "market"
	OrderLimit      OrderType = "limit"
	OrderStopLoss   OrderType = "stop_loss"
	OrderTakeProfit OrderType = "take_profit"
)

// OrderState tracks an order through its lifecycle:
// pending -> partially_filled* -> filled | cancelled | failed.
type OrderState string

const (
	OrderPending         OrderState = "pending"
	OrderPartiallyFilled OrderState = "partially_filled"
	OrderFilled          OrderState = "filled"
	OrderCancelled       OrderState = "cancelled"
	OrderFailed          OrderState = "failed"
)

// ActiveOrder is an order that has not reached a terminal state. The
// execution engine holds at most one per asset address.
type ActiveOrder struct {
	AssetAddress string          `json:"asset_address"`
	OrderType    OrderType       `json:"order_type"`
	Size         float64         `json:"size"`
	EntryPrice   decimal.Decimal `json:"entry_price"`
	StopLoss     decimal.Decimal `json:"stop_loss"`
	TakeProfits  []decimal.Decimal `json:"take_profits"`
	FilledAmount float64         `json:"filled_amount"`
	Status       OrderState      `json:"status"`
	FailReason   string          `json:"fail_reason,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}

// IsOpen reports whether the order still blocks new orders for the
// same asset.
func (o *ActiveOrder) IsOpen() bool {
	return o.Status == OrderPending || o.Status == OrderPartiallyFilled
}

// ExecutionRecord is the immutable terminal record appended to history
// exactly once per completed order.
type ExecutionRecord struct {
	AssetAddress   string          `json:"asset_address"`
	OrderType      OrderType       `json:"order_type"`
	Size           float64         `json:"size"`
	ExecutionPrice decimal.Decimal `json:"execution_price"`
	Slippage       float64         `json:"slippage"`
	Timestamp      time.Time       `json:"timestamp"`
	TxReference    string          `json:"tx_reference,omitempty"`
}
