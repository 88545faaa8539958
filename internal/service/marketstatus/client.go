package marketstatus

import (
	"context"
	"fmt"
	"strings"
	"time"

	"GoldPulse/internal/domain/models"
	xhttp "GoldPulse/pkg/http"
)

const sourceName = "alphavantage"

// Config for the remote market-status API.
type Config struct {
	Endpoint   string
	APIKey     string
	MarketType string
	Timeout    time.Duration
}

// Client queries a MARKET_STATUS style endpoint.
type Client struct {
	cfg  Config
	http *xhttp.Client
	now  func() time.Time
}

func NewClient(cfg Config, client *xhttp.Client) *Client {
	if cfg.MarketType == "" {
		cfg.MarketType = "Forex"
	}
	return &Client{cfg: cfg, http: client, now: time.Now}
}

type market struct {
	MarketType    string `json:"market_type"`
	Region        string `json:"region"`
	CurrentStatus string `json:"current_status"`
	Notes         string `json:"notes"`
}

type statusResponse struct {
	Markets []market `json:"markets"`
}

// Fetch returns the state of the configured market. A response without that market
// yields state unknown, not an error.
func (c *Client) Fetch(ctx context.Context) (*models.RemoteMarketStatus, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	var resp statusResponse
	q := map[string][]string{"apikey": {c.cfg.APIKey}}
	if err := c.http.Get(ctx, c.cfg.Endpoint, q, &resp); err != nil {
		return nil, fmt.Errorf("market status: %w", err)
	}
	return c.interpret(resp), nil
}

func (c *Client) interpret(resp statusResponse) *models.RemoteMarketStatus {
	st := &models.RemoteMarketStatus{
		State:     models.MarketUnknown,
		FetchedAt: c.now(),
		Source:    sourceName,
	}
	for _, m := range resp.Markets {
		if !strings.EqualFold(strings.TrimSpace(m.MarketType), c.cfg.MarketType) {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(m.CurrentStatus), "open") {
			st.State = models.MarketOpen
		} else {
			st.State = models.MarketClosed
		}
		st.Detail = fmt.Sprintf("%s market %s", strings.ToLower(c.cfg.MarketType), st.State)
		if m.Notes != "" {
			st.Detail += ": " + m.Notes
		}
		return st
	}
	st.Detail = fmt.Sprintf("no %s entry in market status", strings.ToLower(c.cfg.MarketType))
	return st
}
