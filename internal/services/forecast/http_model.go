package forecast

import (
    "context"
    "fmt"
    "time"

    "BrentPulse/internal/domain/models"
    domsvc "BrentPulse/internal/domain/service"
)

// HTTPModel queries a remote model service that hosts the pre-fit model.
type HTTPModel struct{ base *HTTPServiceBase }

func NewHTTPModel(baseURL string, timeout time.Duration) *HTTPModel {
    return &HTTPModel{base: NewHTTPServiceBase(baseURL, timeout)}
}

type scheduleReq struct {
    Periods int `json:"periods"`
}

type scheduleResp struct {
    Times []time.Time `json:"times"`
}

type predictReq struct {
    Times []time.Time `json:"times"`
}

type predictResp struct {
    Estimates []models.Estimate `json:"estimates"`
}

func (m *HTTPModel) ExtendSchedule(ctx context.Context, periods int) ([]time.Time, error) {
    var sr scheduleResp
    if err := m.base.PostJSON(ctx, "/forecast/schedule", scheduleReq{Periods: periods}, &sr); err != nil {
        return nil, fmt.Errorf("post schedule: %w", err)
    }
    return sr.Times, nil
}

func (m *HTTPModel) Predict(ctx context.Context, schedule []time.Time) ([]models.Estimate, error) {
    var pr predictResp
    if err := m.base.PostJSON(ctx, "/forecast/predict", predictReq{Times: schedule}, &pr); err != nil {
        return nil, fmt.Errorf("post predict: %w", err)
    }
    if len(pr.Estimates) != len(schedule) {
        return nil, fmt.Errorf("predict returned %d estimates for %d times", len(pr.Estimates), len(schedule))
    }
    return pr.Estimates, nil
}

var _ domsvc.ForecastModel = (*HTTPModel)(nil)
