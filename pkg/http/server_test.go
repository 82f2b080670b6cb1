package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applogger "BrentPulse/pkg/logger"
)

type routes map[string]echo.HandlerFunc

func (r routes) RegisterRoutes(e *echo.Echo) {
	for path, h := range r {
		e.GET(path, h)
	}
}

func newTestServer() *Server {
	return NewServer(applogger.Nop(), []Handler{routes{
		"/ok": func(c echo.Context) error {
			return SuccessResponse(c, map[string]int{"n": 1})
		},
		"/boom": func(c echo.Context) error {
			panic("boom")
		},
	}}, WithMetricsPath(""))
}

func TestServer_PanicBecomesInternalError(t *testing.T) {
	s := newTestServer()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"ERR_INTERNAL"`)
}

func TestServer_RequestID(t *testing.T) {
	s := newTestServer()

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(echo.HeaderXRequestID, "abc-123")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(echo.HeaderXRequestID))
}

func TestServer_CORSExposesCacheHeader(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(echo.HeaderOrigin, "http://example.test")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlExposeHeaders), HeaderCache)
}

func TestServer_StartBindsEphemeralPort(t *testing.T) {
	a := newTestServer()
	a.config.Port = 0
	require.NoError(t, a.Start())
	defer a.Stop(context.Background())
	assert.NotEmpty(t, a.Addr())
}
