// Package goldorg is the client for the gold.org chart price API the edge proxy forwards to.
package goldorg

import (
	"context"
	"fmt"
	"strings"

	xhttp "GoldPulse/pkg/http"
)

// ChartRequest selects one currency/unit series over an epoch-ms window.
type ChartRequest struct {
	Currency string
	Unit     string
	Start    int64
	End      int64
}

// ChartResponse is the subset of the upstream payload the proxy forwards.
type ChartResponse struct {
	ChartData map[string]any `json:"chartData"`
}

// HasData reports whether chartData carries a non-empty series for currency.
func (r *ChartResponse) HasData(currency string) bool {
	if r == nil || r.ChartData == nil {
		return false
	}
	points, ok := r.ChartData[strings.ToUpper(currency)].([]any)
	return ok && len(points) > 0
}

type Client struct {
	baseURL string
	http    *xhttp.Client
}

func NewClient(baseURL string, client *xhttp.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: client}
}

// URL builds <base>/<ccy>/<unit>/<start>,<end>.
func (c *Client) URL(req ChartRequest) string {
	return fmt.Sprintf("%s/%s/%s/%d,%d", c.baseURL, req.Currency, req.Unit, req.Start, req.End)
}

func (c *Client) FetchChart(ctx context.Context, req ChartRequest) (*ChartResponse, error) {
	var out ChartResponse
	if err := c.http.Get(ctx, c.URL(req), nil, &out); err != nil {
		return nil, fmt.Errorf("gold.org chart %s/%s: %w", req.Currency, req.Unit, err)
	}
	return &out, nil
}
