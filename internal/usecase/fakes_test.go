package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"BrentPulse/internal/domain/models"
	domrepo "BrentPulse/internal/domain/repository"
	"BrentPulse/internal/services/forecast"
	"BrentPulse/internal/services/regime"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func daily(prices ...float64) []models.PricePoint {
	out := make([]models.PricePoint, len(prices))
	for i, p := range prices {
		out[i] = models.PricePoint{Time: day0.AddDate(0, 0, i), Price: p}
	}
	return out
}

type fakeSource struct {
	mu     sync.Mutex
	points []models.PricePoint
	err    error
	calls  int
}

func (s *fakeSource) Name() string { return "fake" }

func (s *fakeSource) Load(_ context.Context, q models.PriceQuery) (models.PriceTable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return models.PriceTable{}, s.err
	}
	return models.PriceTable{Symbol: q.Symbol, Source: "fake", Points: append([]models.PricePoint(nil), s.points...)}, nil
}

func (s *fakeSource) set(points []models.PricePoint, err error) {
	s.mu.Lock()
	s.points, s.err = points, err
	s.mu.Unlock()
}

type fakeMetrics struct {
	mu          sync.Mutex
	refreshes   map[string]int
	errs        map[string]int
	lastPrice   float64
	phases      map[string]int
	unavailable int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{refreshes: map[string]int{}, errs: map[string]int{}, phases: map[string]int{}}
}

func (m *fakeMetrics) RecordRefresh(source string) { m.mu.Lock(); m.refreshes[source]++; m.mu.Unlock() }
func (m *fakeMetrics) RecordError(kind string)     { m.mu.Lock(); m.errs[kind]++; m.mu.Unlock() }
func (m *fakeMetrics) RecordLastPrice(_ string, p float64) {
	m.mu.Lock()
	m.lastPrice = p
	m.mu.Unlock()
}
func (m *fakeMetrics) RecordLatency(string, float64) {}
func (m *fakeMetrics) RecordPhases(kind string, n int) {
	m.mu.Lock()
	m.phases[kind] = n
	m.mu.Unlock()
}
func (m *fakeMetrics) RecordForecastUnavailable() { m.mu.Lock(); m.unavailable++; m.mu.Unlock() }

type fakePublisher struct {
	mu     sync.Mutex
	events []models.PhaseEvent
	err    error
	closed bool
}

func (p *fakePublisher) PublishPhases(_ context.Context, events []models.PhaseEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return p.err
}

func (p *fakePublisher) Close() error { p.closed = true; return nil }

type fakeBroadcaster struct {
	mu   sync.Mutex
	msgs [][]byte
}

func (b *fakeBroadcaster) Broadcast(msg []byte) {
	b.mu.Lock()
	b.msgs = append(b.msgs, msg)
	b.mu.Unlock()
}

func (b *fakeBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.msgs)
}

// fakeModel forecasts a flat 80 with a ±10 band from day0 onwards.
type fakeModel struct {
	err   error
	lower float64
	// runs inside ExtendSchedule, e.g. to refresh mid-request
	onSchedule func()
}

func (m *fakeModel) Name() string                 { return "flat" }
func (m *fakeModel) Quality() models.ModelQuality { return models.ModelQuality{RMSE: 1.5, MAE: 1.1} }

func (m *fakeModel) ExtendSchedule(_ context.Context, periods int) ([]time.Time, error) {
	if m.onSchedule != nil {
		m.onSchedule()
	}
	if m.err != nil {
		return nil, m.err
	}
	out := make([]time.Time, 0, periods+10)
	for i := 0; i < periods+10; i++ {
		out = append(out, day0.AddDate(0, 0, i))
	}
	return out, nil
}

func (m *fakeModel) Predict(_ context.Context, schedule []time.Time) ([]models.Estimate, error) {
	lower := 70.0
	if m.lower != 0 {
		lower = m.lower
	}
	out := make([]models.Estimate, len(schedule))
	for i, t := range schedule {
		out[i] = models.Estimate{Time: t, Point: 80, Lower: lower, Upper: 90}
	}
	return out, nil
}

var errBoom = errors.New("boom")

func newAnalysis(src domrepo.PriceSource, m *fakeMetrics, model *fakeModel, events ...models.Event) *MarketAnalysis {
	var holder *forecast.Holder
	if model != nil {
		holder = forecast.NewHolder(model)
	} else {
		holder = &forecast.Holder{}
	}
	return NewMarketAnalysis(
		src,
		regime.NewSegmenter(regime.WithThreshold(0.2), regime.WithPeriod(models.PeriodDay)),
		forecast.NewAdapter(),
		holder,
		m,
		AnalysisParams{Symbol: "BZ=F", ShortWindow: 2, LongWindow: 3, VolWindow: 2, MeanWindow: 3, MaxHorizonDays: 30},
		events,
	)
}
