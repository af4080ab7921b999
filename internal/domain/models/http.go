package models

// Requests for the read API. Defined in domain for consistency and reuse.

type SignalsRequest struct {
	Asset string `query:"asset" json:"asset" validate:"required"`
	Limit int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=1000"`
}

type SnapshotsRequest struct {
	Asset string `query:"asset" json:"asset" validate:"required"`
	Limit int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=5000"`
}

type ExecutionsRequest struct {
	Asset string `query:"asset" json:"asset" validate:"required"`
	Limit int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=1000"`
}
