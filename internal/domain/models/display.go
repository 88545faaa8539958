package models

import "time"

// Direction tags the sign of a change for styling.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
	DirectionNone Direction = "none"
)

// PeriodChangeView is a render-ready change for one period.
type PeriodChangeView struct {
	Period      Period    `json:"period"`
	ValueText   string    `json:"value_text"`
	PercentText string    `json:"percent_text"`
	Direction   Direction `json:"direction"`
}

// ChartPoint is one plotted sample.
type ChartPoint struct {
	Timestamp int64   `json:"t"`
	Price     float64 `json:"p"`
}

// ChartProjection holds chart points plus axis bounds.
type ChartProjection struct {
	Points     []ChartPoint `json:"points"`
	MinPrice   float64      `json:"min_price"`
	MaxPrice   float64      `json:"max_price"`
	MinTime    int64        `json:"min_time"`
	MaxTime    int64        `json:"max_time"`
	PriceRange float64      `json:"price_range"`
	TimeRange  float64      `json:"time_range"`
}

// DisplayView is everything the kiosk renderer needs for one frame.
type DisplayView struct {
	Sequence    uint64             `json:"sequence"`
	GeneratedAt time.Time          `json:"generated_at"`
	Currency    string             `json:"currency"`
	Unit        string             `json:"unit"`
	HasPrice    bool               `json:"has_price"`
	Price       float64            `json:"price"`
	Timestamp   int64              `json:"timestamp"`
	PriceText   string             `json:"price_text"`
	TimeText    string             `json:"time_text"`
	Changes     []PeriodChangeView `json:"changes"`
	Status      DisplayStatus      `json:"status"`
	Chart       ChartProjection    `json:"chart"`
	Outcome     FetchOutcome       `json:"outcome"`
	StaleData   bool               `json:"stale_data"`
}
