package models

// PriceTick is a single streamed spot-price update.
type PriceTick struct {
	AssetAddress string  `json:"asset_address"`
	Price        float64 `json:"price"`
	Volume       float64 `json:"volume"`
	Timestamp    int64   `json:"timestamp"` // unix seconds
}
