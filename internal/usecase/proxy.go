package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"GoldPulse/internal/domain/models"
	drepo "GoldPulse/internal/domain/repository"
	"GoldPulse/internal/service/cache"
	"GoldPulse/internal/service/goldorg"
	svcmetrics "GoldPulse/internal/service/metrics"
	xhttp "GoldPulse/pkg/http"
	"GoldPulse/pkg/logger"
	"GoldPulse/pkg/util"
)

// timeRanges maps the accepted timeRange values to window lengths. "1m" is one month.
var timeRanges = map[string]time.Duration{
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"1h":  time.Hour,
	"4h":  4 * time.Hour,
	"1d":  24 * time.Hour,
	"1w":  7 * 24 * time.Hour,
	"1m":  30 * 24 * time.Hour,
}

// ChartSource is the secondary upstream.
type ChartSource interface {
	FetchChart(ctx context.Context, req goldorg.ChartRequest) (*goldorg.ChartResponse, error)
	URL(req goldorg.ChartRequest) string
}

type ProxyConfig struct {
	FallbackWindow time.Duration
	DefaultWindow  time.Duration
	CacheTTL       time.Duration
	Timeout        time.Duration
}

// ProxyRequest is a validated, fully resolved proxy call.
type ProxyRequest struct {
	Currency  string
	Unit      string
	TimeRange string
	Start     int64
	End       int64
	Debug     bool
	Params    map[string]any
	cacheKey  string
}

// ProxyResult carries the response and, on request, its debug record.
type ProxyResult struct {
	Response *models.PriceProxyResponse
	Debug    *models.ProxyDebug
	Cached   bool
	Fallback bool
}

// PriceProxy forwards chart requests to gold.org with one empty-data fallback.
type PriceProxy struct {
	cfg      ProxyConfig
	upstream ChartSource
	cache    cache.BytesCache
	clock    drepo.Clock
	log      *logger.Logger
}

func NewPriceProxy(cfg ProxyConfig, upstream ChartSource, c cache.BytesCache, clock drepo.Clock, log *logger.Logger) *PriceProxy {
	if cfg.FallbackWindow <= 0 {
		cfg.FallbackWindow = 48 * time.Hour
	}
	if cfg.DefaultWindow <= 0 {
		cfg.DefaultWindow = 10 * time.Minute
	}
	if clock == nil {
		clock = drepo.SystemClock{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &PriceProxy{cfg: cfg, upstream: upstream, cache: c, clock: clock, log: log}
}

// Resolve turns a validated query into a concrete window. timeRange wins over explicit
// times; a missing starttime or endtime takes its default from the last DefaultWindow.
func (p *PriceProxy) Resolve(q models.PriceQuery) (ProxyRequest, error) {
	now := p.clock.Now()
	req := ProxyRequest{
		Currency:  q.Currency,
		Unit:      q.Unit,
		TimeRange: q.TimeRange,
		Debug:     q.DebugEnabled(),
	}

	switch {
	case q.TimeRange != "":
		d, ok := timeRanges[q.TimeRange]
		if !ok {
			return req, xhttp.BadRequestErrorf("unsupported timeRange: %s", q.TimeRange)
		}
		req.End = now.UnixMilli()
		req.Start = now.Add(-d).UnixMilli()
		req.cacheKey = fmt.Sprintf("price|%s|%s|range=%s", req.Currency, req.Unit, req.TimeRange)
	default:
		req.End = now.UnixMilli()
		req.Start = now.Add(-p.cfg.DefaultWindow).UnixMilli()
		if q.StartTime != "" {
			v, ok := util.ParseEpochMillis(q.StartTime)
			if !ok {
				return req, xhttp.BadRequestError("invalid time range: starttime must be a positive integer")
			}
			req.Start = v
		}
		if q.EndTime != "" {
			v, ok := util.ParseEpochMillis(q.EndTime)
			if !ok {
				return req, xhttp.BadRequestError("invalid time range: endtime must be a positive integer")
			}
			req.End = v
		}
		if req.Start >= req.End {
			return req, xhttp.BadRequestError("invalid time range: starttime must be before endtime")
		}
		if q.StartTime == "" && q.EndTime == "" {
			req.cacheKey = fmt.Sprintf("price|%s|%s|default", req.Currency, req.Unit)
		} else {
			req.cacheKey = fmt.Sprintf("price|%s|%s|%d,%d", req.Currency, req.Unit, req.Start, req.End)
		}
	}

	req.Params = map[string]any{
		"currency":  req.Currency,
		"unit":      req.Unit,
		"starttime": req.Start,
		"endtime":   req.End,
		"debug":     req.Debug,
	}
	if req.TimeRange != "" {
		req.Params["timeRange"] = req.TimeRange
	}
	return req, nil
}

// Fetch serves req from cache or upstream. A returned error is always an *xhttp.AppError
// with status 502, and the result still carries the debug record when asked for.
func (p *PriceProxy) Fetch(ctx context.Context, req ProxyRequest) (*ProxyResult, error) {
	started := time.Now()
	res := &ProxyResult{}
	var dbg *models.ProxyDebug
	if req.Debug {
		dbg = &models.ProxyDebug{
			RequestTime: util.FormatDebugTime(p.clock.Now()),
			Params:      req.Params,
		}
		res.Debug = dbg
	}

	if resp, ok := p.fromCache(ctx, req.cacheKey); ok {
		res.Response, res.Cached = resp, true
		if dbg != nil {
			dbg.Cached = true
			dbg.Upstream = p.upstream.URL(p.chartRequest(req))
			p.finish(res, started)
		}
		return res, nil
	}

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	creq := p.chartRequest(req)
	if dbg != nil {
		dbg.Upstream = p.upstream.URL(creq)
	}
	chart, err := p.upstream.FetchChart(ctx, creq)
	svcmetrics.ProxyLatency.WithLabelValues(req.Currency).Observe(time.Since(started).Seconds())
	if err != nil {
		return res, p.fail(res, err, started)
	}

	if !chart.HasData(req.Currency) {
		creq = p.fallbackRequest(req, chart)
		res.Fallback = true
		if dbg != nil {
			dbg.RetryURI = p.upstream.URL(creq)
		}
		p.log.Debug("proxy upstream empty, retrying with fallback window",
			logger.String("currency", req.Currency),
			logger.Int64("start", creq.Start),
			logger.Int64("end", creq.End),
		)
		chart, err = p.upstream.FetchChart(ctx, creq)
		if err != nil {
			return res, p.fail(res, err, started)
		}
	}

	res.Response = &models.PriceProxyResponse{
		ChartData:   chart.ChartData,
		Currency:    strings.ToUpper(req.Currency),
		Unit:        req.Unit,
		TimeRange:   req.TimeRange,
		StartTime:   creq.Start,
		EndTime:     creq.End,
		RequestTime: p.clock.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
	p.toCache(ctx, req.cacheKey, res.Response)
	if dbg != nil {
		p.finish(res, started)
	}
	return res, nil
}

func (p *PriceProxy) chartRequest(req ProxyRequest) goldorg.ChartRequest {
	return goldorg.ChartRequest{Currency: req.Currency, Unit: req.Unit, Start: req.Start, End: req.End}
}

// fallbackRequest widens to FallbackWindow ending at the upstream asOfDate when it is
// usable, else at now.
func (p *PriceProxy) fallbackRequest(req ProxyRequest, chart *goldorg.ChartResponse) goldorg.ChartRequest {
	var asOf string
	if chart != nil {
		asOf, _ = chart.ChartData["asOfDate"].(string)
	}
	anchor := util.FallbackAnchor(asOf, p.clock.Now())
	return goldorg.ChartRequest{
		Currency: req.Currency,
		Unit:     req.Unit,
		Start:    anchor.Add(-p.cfg.FallbackWindow).UnixMilli(),
		End:      anchor.UnixMilli(),
	}
}

func (p *PriceProxy) fail(res *ProxyResult, err error, started time.Time) error {
	p.log.Warn("proxy upstream failed", logger.Error(err))
	if res.Debug != nil {
		res.Debug.Error = err.Error()
		res.Debug.Duration = secs(time.Since(started))
	}
	return xhttp.UpstreamError("failed to fetch gold price", err)
}

func (p *PriceProxy) finish(res *ProxyResult, started time.Time) {
	res.Debug.Duration = secs(time.Since(started))
	if b, err := json.Marshal(res.Response); err == nil {
		res.Debug.ResponseSize = len(b)
	}
	res.Response.System = res.Debug
}

func secs(d time.Duration) string {
	return fmt.Sprintf("%.3f secs", d.Seconds())
}

func (p *PriceProxy) fromCache(ctx context.Context, key string) (*models.PriceProxyResponse, bool) {
	if p.cache == nil || p.cfg.CacheTTL <= 0 || key == "" {
		return nil, false
	}
	b, ok, err := p.cache.GetBytes(ctx, key)
	if err != nil {
		p.log.Warn("proxy cache read failed", logger.String("key", key), logger.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var resp models.PriceProxyResponse
	if err := json.Unmarshal(b, &resp); err != nil {
		return nil, false
	}
	return &resp, true
}

func (p *PriceProxy) toCache(ctx context.Context, key string, resp *models.PriceProxyResponse) {
	if p.cache == nil || p.cfg.CacheTTL <= 0 || key == "" {
		return
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := p.cache.SetBytes(ctx, key, b, p.cfg.CacheTTL); err != nil {
		p.log.Warn("proxy cache write failed", logger.String("key", key), logger.Error(err))
	}
}
