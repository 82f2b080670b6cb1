package service

import (
	"context"
	"time"

	"BrentPulse/internal/domain/models"
)

// ForecastModel is a pre-fit forecasting capability. It is only queried,
// never trained.
type ForecastModel interface {
	// ExtendSchedule returns the model's time schedule extended by periods
	// steps past its last known time.
	ExtendSchedule(ctx context.Context, periods int) ([]time.Time, error)
	// Predict returns point and interval estimates for each schedule time.
	Predict(ctx context.Context, schedule []time.Time) ([]models.Estimate, error)
}

// ModelDescriber is optionally implemented by models that publish
// out-of-sample quality figures.
type ModelDescriber interface {
	Name() string
	Quality() models.ModelQuality
}
