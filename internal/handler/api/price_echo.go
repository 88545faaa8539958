package api

import (
	"errors"
	"net/http"

	models "GoldPulse/internal/domain/models"
	svcmetrics "GoldPulse/internal/service/metrics"
	"GoldPulse/internal/service/ratelimit"
	"GoldPulse/internal/usecase"
	xhttp "GoldPulse/pkg/http"
	xlogger "GoldPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PriceEchoHandler serves the edge proxy and the kiosk display endpoints.
type PriceEchoHandler struct {
	logger    *xlogger.Logger
	proxy     *usecase.PriceProxy
	dashboard *usecase.Dashboard
	limiter   *ratelimit.Limiter
	stream    http.Handler
}

func NewPriceEchoHandler(logger *xlogger.Logger, proxy *usecase.PriceProxy, dashboard *usecase.Dashboard, limiter *ratelimit.Limiter, stream http.Handler) *PriceEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &PriceEchoHandler{logger: logger, proxy: proxy, dashboard: dashboard, limiter: limiter, stream: stream}
}

func (h *PriceEchoHandler) RegisterRoutes(e *echo.Echo) {
	if h.proxy != nil {
		e.GET("/price", h.Price)
		e.HEAD("/price", h.Price)
	}
	if h.dashboard != nil {
		e.GET("/api/display", h.Display)
	}
	if h.stream != nil {
		e.GET("/ws", echo.WrapHandler(h.stream))
	}
	e.GET("/healthz", h.Health)
}

// Price forwards a chart request upstream. Errors are plain text unless debug=true.
func (h *PriceEchoHandler) Price(c echo.Context) error {
	if h.limiter != nil && !h.limiter.Allow(c.RealIP()) {
		svcmetrics.ProxyRequests.WithLabelValues("rate_limited").Inc()
		return xhttp.PlainTextError(c, xhttp.RateLimitedError("too many requests"))
	}

	req := &models.PriceQuery{}
	if verr := xhttp.ReadAndValidateQuery(c, req); verr != nil {
		svcmetrics.ProxyRequests.WithLabelValues("bad_request").Inc()
		return xhttp.PlainTextError(c, verr)
	}

	preq, err := h.proxy.Resolve(*req)
	if err != nil {
		svcmetrics.ProxyRequests.WithLabelValues("bad_request").Inc()
		return xhttp.PlainTextError(c, err)
	}

	res, err := h.proxy.Fetch(c.Request().Context(), preq)
	if err != nil {
		svcmetrics.ProxyRequests.WithLabelValues("upstream_error").Inc()
		h.logger.Warn("price proxy failed",
			xlogger.String("currency", preq.Currency),
			xlogger.String("ip", c.RealIP()),
			xlogger.Any("params", preq.Params),
			xlogger.Error(err),
		)
		if preq.Debug {
			var appErr *xhttp.AppError
			msg := err.Error()
			if errors.As(err, &appErr) && appErr.Err != nil {
				msg = appErr.Err.Error()
			}
			return c.JSON(http.StatusBadGateway, models.ProxyErrorResponse{
				Error:   "failed to fetch gold price",
				Message: msg,
				System:  res.Debug,
			})
		}
		return xhttp.PlainTextError(c, err)
	}

	result := "ok"
	switch {
	case res.Cached:
		result = "cached"
	case res.Fallback:
		result = "fallback"
	}
	svcmetrics.ProxyRequests.WithLabelValues(result).Inc()
	return c.JSON(http.StatusOK, res.Response)
}

// Display returns the latest applied DisplayView.
func (h *PriceEchoHandler) Display(c echo.Context) error {
	v, ok := h.dashboard.Current()
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("no display view yet"))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.SuccessResponse(c, v)
}

func (h *PriceEchoHandler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
