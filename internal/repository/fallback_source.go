package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"BrentPulse/internal/domain/models"
	domrepo "BrentPulse/internal/domain/repository"
	applogger "BrentPulse/pkg/logger"
)

var errEmptyTable = errors.New("source returned no rows")

// FallbackSource serves the primary source behind a circuit breaker and
// switches to the fallback when the primary fails, returns no rows, or the
// breaker is open.
type FallbackSource struct {
	primary  domrepo.PriceSource
	fallback domrepo.PriceSource
	cb       *gobreaker.CircuitBreaker
	l        *applogger.Logger
	metrics  domrepo.Metrics
}

type FallbackOption func(*fallbackSettings)

type fallbackSettings struct {
	failures uint32
	open     time.Duration
	l        *applogger.Logger
	metrics  domrepo.Metrics
}

// WithBreaker sets the consecutive failures that trip the breaker and how
// long it stays open.
func WithBreaker(failures uint32, open time.Duration) FallbackOption {
	return func(s *fallbackSettings) {
		if failures > 0 {
			s.failures = failures
		}
		if open > 0 {
			s.open = open
		}
	}
}

func WithFallbackLogger(l *applogger.Logger) FallbackOption {
	return func(s *fallbackSettings) { s.l = l }
}

func WithFallbackMetrics(m domrepo.Metrics) FallbackOption {
	return func(s *fallbackSettings) { s.metrics = m }
}

func NewFallbackSource(primary, fallback domrepo.PriceSource, opts ...FallbackOption) *FallbackSource {
	cfg := fallbackSettings{failures: 3, open: 5 * time.Minute}
	for _, o := range opts {
		o(&cfg)
	}

	st := gobreaker.Settings{Name: primary.Name()}
	st.ReadyToTrip = func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= cfg.failures }
	st.Timeout = cfg.open
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		if cfg.l != nil {
			cfg.l.Warn("price source breaker state change",
				applogger.String("source", name),
				applogger.String("from", from.String()),
				applogger.String("to", to.String()),
			)
		}
	}

	return &FallbackSource{
		primary:  primary,
		fallback: fallback,
		cb:       gobreaker.NewCircuitBreaker(st),
		l:        cfg.l,
		metrics:  cfg.metrics,
	}
}

func (s *FallbackSource) Name() string {
	if s.fallback == nil {
		return s.primary.Name()
	}
	return s.primary.Name() + "+" + s.fallback.Name()
}

// State reports the breaker state of the primary source.
func (s *FallbackSource) State() gobreaker.State { return s.cb.State() }

func (s *FallbackSource) Load(ctx context.Context, q models.PriceQuery) (models.PriceTable, error) {
	res, err := s.cb.Execute(func() (interface{}, error) {
		t, err := s.primary.Load(ctx, q)
		if err != nil {
			return nil, err
		}
		if len(t.Points) == 0 {
			return nil, errEmptyTable
		}
		return t, nil
	})
	if err == nil {
		return res.(models.PriceTable), nil
	}

	if s.metrics != nil {
		s.metrics.RecordError("source_fallback")
	}
	if s.fallback == nil {
		return models.PriceTable{}, fmt.Errorf("%s: %w", s.primary.Name(), err)
	}
	if s.l != nil {
		s.l.Warn("primary price source unavailable, using fallback",
			applogger.String("primary", s.primary.Name()),
			applogger.String("fallback", s.fallback.Name()),
			applogger.Error(err),
		)
	}

	t, ferr := s.fallback.Load(ctx, q)
	if ferr != nil {
		return models.PriceTable{}, fmt.Errorf("%s: %v; %s: %w", s.primary.Name(), err, s.fallback.Name(), ferr)
	}
	return t, nil
}

var _ domrepo.PriceSource = (*FallbackSource)(nil)
