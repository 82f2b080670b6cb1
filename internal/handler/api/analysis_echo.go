package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"BrentPulse/internal/domain/models"
	icache "BrentPulse/internal/service/cache"
	"BrentPulse/internal/service/metrics"
	"BrentPulse/internal/usecase"
	xhttp "BrentPulse/pkg/http"
	xlogger "BrentPulse/pkg/logger"
	"BrentPulse/pkg/util"
)

// AnalysisEchoHandler serves the price analysis API.
type AnalysisEchoHandler struct {
	logger    *xlogger.Logger
	analysis  *usecase.MarketAnalysis
	dashboard *usecase.DashboardUseCase
	cache     icache.BytesCache
	cacheTTL  time.Duration
}

func NewAnalysisEchoHandler(logger *xlogger.Logger, analysis *usecase.MarketAnalysis, dashboard *usecase.DashboardUseCase) *AnalysisEchoHandler {
	metrics.Register()
	return &AnalysisEchoHandler{logger: logger, analysis: analysis, dashboard: dashboard}
}

// SetCache enables response caching. Keys include the snapshot version, so
// a refresh never serves stale rows.
func (h *AnalysisEchoHandler) SetCache(c icache.BytesCache, ttl time.Duration) {
	h.cache = c
	h.cacheTTL = ttl
}

func (h *AnalysisEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/prices", h.Prices)
	g.GET("/summary", h.Summary)
	g.GET("/phases", h.Phases)
	g.GET("/forecast", h.Forecast)
	g.GET("/seasonality", h.Seasonality)
	g.GET("/yearly", h.Yearly)
	g.GET("/window", h.Window)
	g.GET("/events", h.Events)
	g.GET("/events/:key", h.Event)
	g.GET("/dashboard", h.Dashboard)
}

func (h *AnalysisEchoHandler) Prices(c echo.Context) error {
	req := &models.PricesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	p := usecase.PricesParams{
		Period: models.Period(req.Period),
		Limit:  req.Limit,
		Short:  req.Short,
		Long:   req.Long,
	}
	if req.From != "" {
		p.From = util.TruncateDay(dateParam(req.From))
	}
	if req.To != "" {
		p.To = util.EndOfDay(dateParam(req.To))
	}
	return h.respond(c, "prices", true, func() (interface{}, error) {
		rows, err := h.analysis.Prices(p)
		if err != nil {
			return nil, err
		}
		return &xhttp.ListDataResponse{Rows: rows, Total: int64(len(rows))}, nil
	})
}

func (h *AnalysisEchoHandler) Summary(c echo.Context) error {
	req := &models.SummaryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.respond(c, "summary", true, func() (interface{}, error) {
		return h.analysis.Summary(req.Window)
	})
}

func (h *AnalysisEchoHandler) Phases(c echo.Context) error {
	req := &models.PhasesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.respond(c, "phases", true, func() (interface{}, error) {
		return h.analysis.Phases(req.Threshold, models.Period(req.Period))
	})
}

// Forecast is not cached: the model can be swapped without a new snapshot.
func (h *AnalysisEchoHandler) Forecast(c echo.Context) error {
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	var asOf time.Time
	if req.AsOf != "" {
		asOf = util.TruncateDay(dateParam(req.AsOf))
	}
	return h.respond(c, "forecast", false, func() (interface{}, error) {
		return h.analysis.Forecast(c.Request().Context(), req.Days, asOf)
	})
}

func (h *AnalysisEchoHandler) Seasonality(c echo.Context) error {
	return h.respond(c, "seasonality", true, func() (interface{}, error) {
		return h.analysis.Seasonality()
	})
}

func (h *AnalysisEchoHandler) Yearly(c echo.Context) error {
	return h.respond(c, "yearly", true, func() (interface{}, error) {
		return h.analysis.Yearly()
	})
}

func (h *AnalysisEchoHandler) Window(c echo.Context) error {
	req := &models.WindowRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	from, to := dateParam(req.From), dateParam(req.To)
	return h.respond(c, "window", true, func() (interface{}, error) {
		return h.analysis.Window(util.TruncateDay(from), util.EndOfDay(to), req.Top)
	})
}

func (h *AnalysisEchoHandler) Events(c echo.Context) error {
	events := h.analysis.Events()
	return xhttp.ListResponse(c, events, int64(len(events)))
}

func (h *AnalysisEchoHandler) Event(c echo.Context) error {
	req := &models.EventRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.respond(c, "event", true, func() (interface{}, error) {
		return h.analysis.Event(req.Key, req.Top)
	})
}

func (h *AnalysisEchoHandler) Dashboard(c echo.Context) error {
	req := &models.DashboardRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.respond(c, "dashboard", false, func() (interface{}, error) {
		return h.dashboard.GetDashboard(c.Request().Context(), usecase.DashboardParams{
			Threshold: req.Threshold,
			Period:    models.Period(req.Period),
			Days:      req.Days,
		})
	})
}

// respond runs fn and writes its result, going through the response cache
// when cacheable. Errors are mapped onto AppErrors.
func (h *AnalysisEchoHandler) respond(c echo.Context, endpoint string, cacheable bool, fn func() (interface{}, error)) error {
	start := time.Now()
	defer func() { metrics.AnalyticsLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	var key string
	if cacheable && h.cache != nil {
		snap, err := h.analysis.Snapshot()
		if err != nil {
			return h.fail(c, endpoint, err)
		}
		key = fmt.Sprintf("%s:v%d:%s", endpoint, snap.Version, c.Request().URL.RequestURI())
		b, ok, err := h.cache.GetBytes(c.Request().Context(), key)
		if err != nil && h.logger != nil {
			h.logger.Warn("response cache get error", xlogger.String("key", key), xlogger.Error(err))
		}
		metrics.CacheLookups.WithLabelValues(endpoint, metrics.CacheResult(ok)).Inc()
		if ok {
			return xhttp.CachedResponse(c, b, "HIT")
		}
	}

	data, err := fn()
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	if key == "" {
		return xhttp.SuccessResponse(c, data)
	}

	b, err := xhttp.MarshalSuccess(data)
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	if err := h.cache.SetBytes(c.Request().Context(), key, b, h.cacheTTL); err != nil && h.logger != nil {
		h.logger.Warn("response cache set error", xlogger.String("key", key), xlogger.Error(err))
	}
	return xhttp.CachedResponse(c, b, "MISS")
}

func (h *AnalysisEchoHandler) fail(c echo.Context, endpoint string, err error) error {
	appErr := toAppError(err)
	metrics.AnalyticsErrors.WithLabelValues(endpoint, appErr.Code).Inc()
	if appErr.Status >= http.StatusInternalServerError && h.logger != nil {
		h.logger.Error(endpoint+" usecase error", xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}
