package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BrentPulse/internal/domain/models"
	icache "BrentPulse/internal/service/cache"
	"BrentPulse/internal/services/forecast"
	"BrentPulse/internal/services/regime"
	"BrentPulse/internal/usecase"
	xhttp "BrentPulse/pkg/http"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type stubSource struct {
	points []models.PricePoint
	err    error
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Load(_ context.Context, q models.PriceQuery) (models.PriceTable, error) {
	return models.PriceTable{Symbol: q.Symbol, Source: "stub", Points: s.points}, s.err
}

func daily(prices ...float64) []models.PricePoint {
	out := make([]models.PricePoint, len(prices))
	for i, p := range prices {
		out[i] = models.PricePoint{Time: day0.AddDate(0, 0, i), Price: p}
	}
	return out
}

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func setup(t *testing.T, ready bool) (*echo.Echo, *usecase.MarketAnalysis, *icache.TTLCache) {
	t.Helper()
	return setupWith(t, ready, regime.NewSegmenter(regime.WithPeriod(models.PeriodDay)))
}

func setupWith(t *testing.T, ready bool, seg *regime.Segmenter) (*echo.Echo, *usecase.MarketAnalysis, *icache.TTLCache) {
	t.Helper()
	src := &stubSource{points: daily(100, 100, 121, 121, 95, 95)}
	events := []models.Event{{Key: "drop", Title: "Drop", Date: day0.AddDate(0, 0, 4), From: day0.AddDate(0, 0, 3), To: day0.AddDate(0, 0, 5)}}
	a := usecase.NewMarketAnalysis(src,
		seg,
		forecast.NewAdapter(), &forecast.Holder{}, nil,
		usecase.AnalysisParams{Symbol: "BZ=F", ShortWindow: 2, LongWindow: 3, VolWindow: 2, MeanWindow: 3},
		events,
	)
	if ready {
		_, _, err := a.Refresh(context.Background())
		require.NoError(t, err)
	}
	cache := icache.NewTTLCache(100)
	h := NewAnalysisEchoHandler(nil, a, usecase.NewDashboardUseCase(a))
	h.SetCache(cache, time.Minute)

	e := echo.New()
	h.RegisterRoutes(e)
	NewHealthHandler(a).RegisterRoutes(e)
	return e, a, cache
}

func get(e *echo.Echo, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var errs []xhttp.AppError
	require.NoError(t, json.Unmarshal(env.Data, &errs))
	require.NotEmpty(t, errs)
	return errs[0].Code
}

func TestPhases_CacheHit(t *testing.T) {
	e, _, cache := setup(t, true)

	rec := get(e, "/api/phases?period=day")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var rep usecase.PhasesReport
	require.NoError(t, json.Unmarshal(env.Data, &rep))
	require.Len(t, rep.Phases, 2)
	assert.Equal(t, models.PhaseBull, rep.Phases[0].Kind)
	assert.Equal(t, 1, cache.Len())

	again := get(e, "/api/phases?period=day")
	require.Equal(t, http.StatusOK, again.Code)
	assert.Equal(t, "HIT", again.Header().Get("X-Cache"))
	assert.JSONEq(t, rec.Body.String(), again.Body.String())
}

func TestPhases_DefaultsFromSegmenter(t *testing.T) {
	e, _, _ := setupWith(t, true, regime.NewSegmenter(regime.WithThreshold(0.3), regime.WithPeriod(models.PeriodDay)))

	for target, want := range map[string]float64{
		"/api/phases":               0.3,
		"/api/phases?threshold=0.2": 0.2,
	} {
		rec := get(e, target)
		require.Equal(t, http.StatusOK, rec.Code, target)
		var env envelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		var rep usecase.PhasesReport
		require.NoError(t, json.Unmarshal(env.Data, &rep))
		assert.Equal(t, want, rep.Threshold, target)
		assert.Equal(t, models.PeriodDay, rep.Period, target)
	}

	rec := get(e, "/api/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var d usecase.Dashboard
	require.NoError(t, json.Unmarshal(env.Data, &d))
	require.NotNil(t, d.Phases)
	assert.Equal(t, 0.3, d.Phases.Threshold)
	assert.Equal(t, models.PeriodDay, d.Phases.Period)
	// 30% never reached on this path
	assert.Empty(t, d.Phases.Phases)
}

func TestPrices_MovingAverageWindows(t *testing.T) {
	e, _, _ := setup(t, true)

	rec := get(e, "/api/prices?short=10&long=50")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	for _, target := range []string{"/api/prices?short=5", "/api/prices?long=400"} {
		rec := get(e, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestPrices_RangeKeepsRollingHistory(t *testing.T) {
	e, _, _ := setup(t, true)

	rows := func(target string) []models.DerivedPoint {
		rec := get(e, target)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var env envelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		var list struct {
			Rows []models.DerivedPoint `json:"rows"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &list))
		return list.Rows
	}
	full := rows("/api/prices")
	cut := rows("/api/prices?from=2024-01-04")
	require.Len(t, full, 6)
	require.Len(t, cut, 3)
	assert.Equal(t, full[3].ShortMean, cut[0].ShortMean)
	assert.Equal(t, full[3].LongMean, cut[0].LongMean)
	assert.True(t, cut[0].LongMean.Valid)
}

func TestCacheKeyFollowsSnapshotVersion(t *testing.T) {
	e, a, cache := setup(t, true)

	require.Equal(t, http.StatusOK, get(e, "/api/summary").Code)
	_, _, err := a.Refresh(context.Background())
	require.NoError(t, err)
	rec := get(e, "/api/summary")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, 2, cache.Len())
}

func TestErrorMapping(t *testing.T) {
	e, _, _ := setup(t, true)

	tests := []struct {
		name   string
		target string
		status int
		code   string
	}{
		{"validation", "/api/phases?threshold=2", http.StatusBadRequest, "ERR_LT"},
		{"bad period", "/api/prices?period=hour", http.StatusBadRequest, "ERR_INVALID_PARAMETER"},
		{"missing window bounds", "/api/window", http.StatusBadRequest, "ERR_REQUIRED"},
		{"bad date", "/api/window?from=yesterday&to=2024-01-05", http.StatusBadRequest, "ERR_INVALID_PARAMETER"},
		{"inverted window", "/api/window?from=2024-01-05&to=2024-01-01", http.StatusBadRequest, "ERR_INVALID_PARAMETER"},
		{"empty window", "/api/window?from=2030-01-01&to=2030-02-01", http.StatusUnprocessableEntity, "ERR_DATA"},
		{"no model", "/api/forecast?days=3", http.StatusServiceUnavailable, "ERR_FORECAST_UNAVAILABLE"},
		{"unknown event", "/api/events/nope", http.StatusNotFound, "ERR_NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(e, tt.target)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}
}

func TestNotReady(t *testing.T) {
	e, _, _ := setup(t, false)

	for _, target := range []string{"/api/summary", "/api/phases", "/api/dashboard", "/healthz"} {
		rec := get(e, target)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, target)
		assert.Equal(t, "ERR_NOT_READY", errorCode(t, rec), target)
	}
}

func TestEndpoints(t *testing.T) {
	e, _, _ := setup(t, true)

	for _, target := range []string{
		"/api/prices?limit=2",
		"/api/prices?from=2024-01-02&to=2024-01-03&period=week",
		"/api/summary?window=2",
		"/api/seasonality",
		"/api/yearly",
		"/api/window?from=2024-01-02&to=2024-01-05&top=2",
		"/api/events",
		"/api/events/drop",
		"/api/dashboard",
		"/healthz",
	} {
		rec := get(e, target)
		assert.Equal(t, http.StatusOK, rec.Code, "%s: %s", target, rec.Body.String())
	}

	rec := get(e, "/api/prices?from=2024-01-02&to=2024-01-03")
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var list struct {
		Rows  []models.DerivedPoint `json:"rows"`
		Total int64                 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, int64(2), list.Total)

	rec = get(e, "/api/dashboard")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var d usecase.Dashboard
	require.NoError(t, json.Unmarshal(env.Data, &d))
	assert.Contains(t, d.Errors, "forecast")
	assert.NotNil(t, d.Summary)
}

func TestToAppError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, toAppError(errors.New("x")).Status)
	assert.Equal(t, http.StatusUnprocessableEntity, toAppError(models.DataErrorf("bad")).Status)
	assert.Equal(t, "ERR_NOT_READY", toAppError(models.ErrNotReady).Code)
}
