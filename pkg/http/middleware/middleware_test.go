package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	applogger "GoldPulse/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.Use(Recover(applogger.Nop()))
	e.Use(CORS(DefaultCORSConfig))
	e.GET("/ok", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/bad", func(c echo.Context) error { return c.String(http.StatusBadRequest, "nope") })
	e.GET("/panic", func(c echo.Context) error { panic("boom") })
	return e
}

func TestCORSHeadersOnEveryResponse(t *testing.T) {
	e := newEcho()
	for _, path := range []string{"/ok", "/bad"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"), path)
		assert.Equal(t, "GET, HEAD, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"), path)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Headers"), path)
	}
}

func TestCORSWildcardIgnoresOrigin(t *testing.T) {
	e := newEcho()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("Origin", "https://kiosk.example")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	e := newEcho()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/ok", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRecoverTurnsPanicInto500(t *testing.T) {
	e := newEcho()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(204))
	assert.Equal(t, "4xx", statusClass(429))
	assert.Equal(t, "5xx", statusClass(502))
}
