package regime

import (
	"BrentPulse/internal/domain/models"
	"BrentPulse/internal/services/series"
)

const (
	DefaultThreshold = 0.2
	DefaultPeriod    = models.PeriodMonth
)

// Segmenter runs Segment over a resampled PriceSeries.
type Segmenter struct {
	threshold float64
	period    models.Period
}

type Option func(*Segmenter)

func WithThreshold(t float64) Option { return func(s *Segmenter) { s.threshold = t } }

// WithPeriod sets the resampling granularity. PeriodDay segments raw points.
func WithPeriod(p models.Period) Option { return func(s *Segmenter) { s.period = p } }

func NewSegmenter(opts ...Option) *Segmenter {
	s := &Segmenter{threshold: DefaultThreshold, period: DefaultPeriod}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Segmenter) Threshold() float64    { return s.threshold }
func (s *Segmenter) Period() models.Period { return s.period }

// SegmentSeries resamples ps to the configured period and segments it.
// Phase indices refer to the resampled series.
func (s *Segmenter) SegmentSeries(ps *series.PriceSeries) ([]models.MarketPhase, error) {
	if ps == nil {
		return nil, models.DataErrorf("nil price series")
	}
	src := ps
	if s.period != models.PeriodDay {
		src = ps.Resample(s.period)
	}
	return Segment(src.Points(), s.threshold)
}
