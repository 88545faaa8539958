// Package change computes price changes over rolling lookback windows.
package change

import (
	"fmt"
	"time"

	"GoldPulse/internal/domain/models"
)

// NoData is the placeholder rendered for a missing change.
const NoData = "--"

// ComputeChange compares the latest sample against the baseline for the lookback.
// The baseline is the last sample at or before now-lookback; when every sample is newer,
// the oldest sample is used instead. Returns nil for an empty series.
func ComputeChange(s models.Series, lookback time.Duration, now time.Time) *models.ChangeResult {
	if len(s) == 0 {
		return nil
	}
	start := now.Add(-lookback).UnixMilli()

	baseline := s[0]
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].Timestamp <= start {
			baseline = s[i]
			break
		}
	}
	latest := s[len(s)-1]

	diff := latest.Price - baseline.Price
	pct := 0.0
	if baseline.Price != 0 {
		pct = diff / baseline.Price * 100
	}
	return &models.ChangeResult{
		ChangeValue:       diff,
		ChangePercent:     pct,
		BaselinePrice:     baseline.Price,
		BaselineTimestamp: baseline.Timestamp,
	}
}

// Direction tags a change result; nil maps to none.
func Direction(r *models.ChangeResult) models.Direction {
	switch {
	case r == nil:
		return models.DirectionNone
	case r.ChangeValue > 0:
		return models.DirectionUp
	case r.ChangeValue < 0:
		return models.DirectionDown
	default:
		return models.DirectionFlat
	}
}

// FormatValue renders the absolute change with an explicit sign and 2 decimals.
func FormatValue(r *models.ChangeResult) string {
	if r == nil {
		return NoData
	}
	return signed(r.ChangeValue, "")
}

// FormatPercent renders the percent change with an explicit sign and 2 decimals.
func FormatPercent(r *models.ChangeResult) string {
	if r == nil {
		return NoData
	}
	return signed(r.ChangePercent, "%")
}

func signed(v float64, suffix string) string {
	s := fmt.Sprintf("%.2f", v)
	switch {
	case s == "0.00" || s == "-0.00":
		return "0.00" + suffix
	case v > 0:
		return "+" + s + suffix
	default:
		return s + suffix
	}
}
