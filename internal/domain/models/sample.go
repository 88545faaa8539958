package models

import "time"

// Sample is a single timestamped gold price.
type Sample struct {
	Timestamp int64   `json:"timestamp"` // epoch ms
	Price     float64 `json:"price"`
}

// Time returns the sample timestamp as time.Time.
func (s Sample) Time() time.Time { return time.UnixMilli(s.Timestamp) }

// Series is ordered ascending by timestamp with unique timestamps.
// An empty series means "no data".
type Series []Sample

// Period is a named rolling lookback window.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// DefaultPeriods returns the fixed lookback set with its default durations.
func DefaultPeriods() map[Period]time.Duration {
	return map[Period]time.Duration{
		PeriodDay:   24 * time.Hour,
		PeriodWeek:  7 * 24 * time.Hour,
		PeriodMonth: 30 * 24 * time.Hour,
	}
}

// PeriodOrder is the display order of periods.
var PeriodOrder = []Period{PeriodDay, PeriodWeek, PeriodMonth}

// ChangeResult describes the price move over a lookback window.
type ChangeResult struct {
	ChangeValue       float64 `json:"change_value"`
	ChangePercent     float64 `json:"change_percent"`
	BaselinePrice     float64 `json:"baseline_price"`
	BaselineTimestamp int64   `json:"baseline_timestamp"`
}
