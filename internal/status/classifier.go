// Package status derives the kiosk trading-status badge from data freshness,
// an optional remote open/closed signal and the exchange calendar.
package status

import (
	"time"

	"GoldPulse/internal/domain/models"
)

const (
	TextActive  = "Trading"
	TextDelayed = "Delayed"
	TextStopped = "Closed"
)

// Thresholds bound data freshness.
type Thresholds struct {
	StaleWithRemote time.Duration
	Stale           time.Duration
	Closed          time.Duration
}

// DefaultThresholds returns 45m/15m staleness and a 2h closed cut-off.
func DefaultThresholds() Thresholds {
	return Thresholds{
		StaleWithRemote: 45 * time.Minute,
		Stale:           15 * time.Minute,
		Closed:          2 * time.Hour,
	}
}

// Classifier is stateless; every call is a pure function of its inputs.
type Classifier struct {
	th Thresholds
}

func NewClassifier(th Thresholds) *Classifier {
	return &Classifier{th: th}
}

// Classify evaluates, in order: remote closed, remote open, then freshness and schedule.
// A nil or unknown remote status falls through to the local heuristics.
func (c *Classifier) Classify(latest *int64, now time.Time, remote *models.RemoteMarketStatus, schedule ScheduleFunc) models.DisplayStatus {
	if remote != nil {
		switch remote.State {
		case models.MarketClosed:
			return stopped(remote.Detail)
		case models.MarketOpen:
			if latest == nil {
				return delayed("trading, no valid quote yet")
			}
			if age(*latest, now) > c.th.StaleWithRemote {
				return delayed("feed lagging")
			}
			return active()
		}
	}

	if latest == nil {
		return stopped("data unavailable")
	}
	if schedule != nil {
		if closed, reason := schedule(now); closed {
			return stopped(reason)
		}
	}
	a := age(*latest, now)
	if a > c.th.Closed {
		return stopped("no quotes for over " + c.th.Closed.String())
	}
	if a > c.th.Stale {
		return delayed("feed lagging")
	}
	return active()
}

func age(ts int64, now time.Time) time.Duration {
	return now.Sub(time.UnixMilli(ts))
}

func active() models.DisplayStatus {
	return models.DisplayStatus{Text: TextActive, StyleClass: models.StyleActive}
}

func delayed(tip string) models.DisplayStatus {
	return models.DisplayStatus{Text: TextDelayed, StyleClass: models.StyleDelayed, Tooltip: &tip}
}

func stopped(tip string) models.DisplayStatus {
	st := models.DisplayStatus{Text: TextStopped, StyleClass: models.StyleStopped}
	if tip != "" {
		st.Tooltip = &tip
	}
	return st
}
