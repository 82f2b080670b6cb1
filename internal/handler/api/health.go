package api

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"BrentPulse/internal/usecase"
	xhttp "BrentPulse/pkg/http"
)

// HealthHandler reports readiness: 200 once a snapshot is published. A
// failing database source only marks the service degraded, since the last
// snapshot is still served.
type HealthHandler struct {
	analysis *usecase.MarketAnalysis
}

func NewHealthHandler(analysis *usecase.MarketAnalysis) *HealthHandler {
	return &HealthHandler{analysis: analysis}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
}

type healthStatus struct {
	Status  string    `json:"status"`
	Version int64     `json:"version"`
	Source  string    `json:"source"`
	AsOf    time.Time `json:"as_of"`
	BuiltAt time.Time `json:"built_at"`
	Error   string    `json:"source_error,omitempty"`
}

func (h *HealthHandler) Health(c echo.Context) error {
	snap, err := h.analysis.Snapshot()
	if err != nil {
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	st := healthStatus{
		Status:  "ok",
		Version: snap.Version,
		Source:  snap.Source,
		AsOf:    snap.Series.Last().Time,
		BuiltAt: snap.BuiltAt,
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.analysis.SourceHealth(ctx); err != nil {
		st.Status = "degraded"
		st.Error = err.Error()
	}
	return xhttp.SuccessResponse(c, st)
}
