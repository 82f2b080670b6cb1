package repository

import (
	"context"

	"BrentPulse/internal/domain/models"
)

// PriceSource loads a daily price table. Rows are returned in ascending time
// order; validation of the values is left to the series builder.
type PriceSource interface {
	Name() string
	Load(ctx context.Context, q models.PriceQuery) (models.PriceTable, error)
}

// HealthChecker is implemented by sources backed by a database connection.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// PhasePublisher publishes phase change events downstream.
type PhasePublisher interface {
	PublishPhases(ctx context.Context, events []models.PhaseEvent) error
	Close() error
}

// Broadcaster pushes a message to every connected subscriber.
type Broadcaster interface {
	Broadcast(msg []byte)
}

type Metrics interface {
	RecordRefresh(source string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordPhases(kind string, n int)
	RecordForecastUnavailable()
}
