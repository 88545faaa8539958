package models

import "time"

// MarketState is the open/closed signal reported by a remote status API.
type MarketState string

const (
	MarketOpen    MarketState = "open"
	MarketClosed  MarketState = "closed"
	MarketUnknown MarketState = "unknown"
)

// RemoteMarketStatus is a cached answer from the remote market-status API.
// It is replaced wholesale, never mutated.
type RemoteMarketStatus struct {
	State     MarketState `json:"state"`
	Detail    string      `json:"detail"`
	FetchedAt time.Time   `json:"fetched_at"`
	Source    string      `json:"source"`
}

// StyleClass is the visual class of the trading-status badge.
type StyleClass string

const (
	StyleActive  StyleClass = "active"
	StyleDelayed StyleClass = "delayed"
	StyleStopped StyleClass = "stopped"
)

// DisplayStatus is the derived trading status shown to the viewer.
type DisplayStatus struct {
	Text       string     `json:"text"`
	StyleClass StyleClass `json:"style_class"`
	Tooltip    *string    `json:"tooltip"`
}
