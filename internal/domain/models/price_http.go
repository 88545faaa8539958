package models

import "strings"

// Requests for the edge proxy. Bound from the query string, then defaulted and validated.

type PriceQuery struct {
	Currency  string `query:"currency" default:"cny" validate:"oneof=cny usd eur gbp jpy aud cad chf inr"`
	Unit      string `query:"unit" default:"grams" validate:"oneof=grams ounces kilos"`
	TimeRange string `query:"timeRange" validate:"omitempty,oneof=5m 15m 1h 4h 1d 1w 1m"`
	StartTime string `query:"starttime"`
	EndTime   string `query:"endtime"`
	Debug     string `query:"debug"`
}

func (q *PriceQuery) Normalize() {
	q.Currency = strings.ToLower(strings.TrimSpace(q.Currency))
	q.Unit = strings.ToLower(strings.TrimSpace(q.Unit))
	q.TimeRange = strings.TrimSpace(q.TimeRange)
}

// DebugEnabled is true only for the literal "true".
func (q *PriceQuery) DebugEnabled() bool {
	return q.Debug == "true"
}

// PriceProxyResponse is the successful proxy payload.
type PriceProxyResponse struct {
	ChartData   map[string]any `json:"chartData"`
	Currency    string         `json:"currency"`
	Unit        string         `json:"unit"`
	TimeRange   string         `json:"timeRange,omitempty"`
	StartTime   int64          `json:"starttime"`
	EndTime     int64          `json:"endtime"`
	RequestTime string         `json:"requestTime"`
	System      *ProxyDebug    `json:"system,omitempty"`
}

// ProxyDebug is attached to responses when debug=true.
type ProxyDebug struct {
	RequestTime  string         `json:"request_time"`
	Params       map[string]any `json:"params"`
	Upstream     string         `json:"uri"`
	RetryURI     string         `json:"retryUri,omitempty"`
	Cached       bool           `json:"cached"`
	Duration     string         `json:"time"`
	ResponseSize int            `json:"response_size,omitempty"`
	Error        string         `json:"error,omitempty"`
}

// ProxyErrorResponse is the 502 body in debug mode.
type ProxyErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	System  *ProxyDebug `json:"system,omitempty"`
}
