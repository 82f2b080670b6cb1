// Package series holds the immutable, time-indexed price series and its
// derived rolling fields.
package series

import (
	"math"
	"sort"
	"sync"
	"time"

	"BrentPulse/internal/domain/models"
	"BrentPulse/internal/services/features"
)

// PriceSeries is an ordered, validated price series. It is immutable after
// Build; derived rolling fields are computed lazily and cached per window.
type PriceSeries struct {
	points      []models.PricePoint
	prices      []float64
	windowShort int
	windowLong  int

	mu    sync.Mutex
	means map[int][]models.OptionalFloat
	stds  map[int][]models.OptionalFloat
}

// Build validates raw and returns a PriceSeries. Timestamps must be strictly
// increasing and prices positive and finite; nothing is dropped or reordered.
func Build(raw []models.PricePoint, windowShort, windowLong int) (*PriceSeries, error) {
	if windowShort < 1 {
		return nil, models.InvalidParameterf("short window must be >= 1, got %d", windowShort)
	}
	if windowLong < 1 {
		return nil, models.InvalidParameterf("long window must be >= 1, got %d", windowLong)
	}
	if len(raw) == 0 {
		return nil, models.DataErrorf("price series is empty")
	}

	points := make([]models.PricePoint, len(raw))
	prices := make([]float64, len(raw))
	for i, p := range raw {
		if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) || p.Price <= 0 {
			return nil, models.DataErrorf("invalid price %v at %s (index %d)", p.Price, p.Time.Format(time.RFC3339), i)
		}
		if i > 0 && !p.Time.After(raw[i-1].Time) {
			return nil, models.DataErrorf("timestamps not strictly increasing at index %d (%s after %s)",
				i, p.Time.Format(time.RFC3339), raw[i-1].Time.Format(time.RFC3339))
		}
		points[i] = p
		prices[i] = p.Price
	}

	return &PriceSeries{
		points:      points,
		prices:      prices,
		windowShort: windowShort,
		windowLong:  windowLong,
		means:       make(map[int][]models.OptionalFloat),
		stds:        make(map[int][]models.OptionalFloat),
	}, nil
}

func (s *PriceSeries) Len() int { return len(s.points) }

// Points returns a copy of the underlying points.
func (s *PriceSeries) Points() []models.PricePoint {
	return append([]models.PricePoint(nil), s.points...)
}

func (s *PriceSeries) Prices() []float64 {
	return append([]float64(nil), s.prices...)
}

func (s *PriceSeries) At(i int) models.PricePoint { return s.points[i] }

func (s *PriceSeries) First() models.PricePoint { return s.points[0] }

func (s *PriceSeries) Last() models.PricePoint { return s.points[len(s.points)-1] }

func (s *PriceSeries) Windows() (short, long int) { return s.windowShort, s.windowLong }

// PriceAt returns the price observed exactly at t.
func (s *PriceSeries) PriceAt(t time.Time) (float64, bool) {
	i := sort.Search(len(s.points), func(i int) bool { return !s.points[i].Time.Before(t) })
	if i < len(s.points) && s.points[i].Time.Equal(t) {
		return s.points[i].Price, true
	}
	return 0, false
}

// Nearest returns the index of the point closest in time to t. Ties go to
// the earlier point.
func (s *PriceSeries) Nearest(t time.Time) int {
	i := sort.Search(len(s.points), func(i int) bool { return !s.points[i].Time.Before(t) })
	if i == 0 {
		return 0
	}
	if i == len(s.points) {
		return i - 1
	}
	if t.Sub(s.points[i-1].Time) <= s.points[i].Time.Sub(t) {
		return i - 1
	}
	return i
}

// RollingMean returns the trailing mean over window points.
func (s *PriceSeries) RollingMean(window int) ([]models.OptionalFloat, error) {
	if window < 1 {
		return nil, models.InvalidParameterf("rolling mean window must be >= 1, got %d", window)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.means[window]
	if !ok {
		v = features.RollingMean(s.prices, window)
		s.means[window] = v
	}
	return append([]models.OptionalFloat(nil), v...), nil
}

// RollingStd returns the trailing sample standard deviation over window points.
func (s *PriceSeries) RollingStd(window int) ([]models.OptionalFloat, error) {
	if window < 2 {
		return nil, models.InvalidParameterf("rolling std window must be >= 2, got %d", window)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.stds[window]
	if !ok {
		v = features.RollingStd(s.prices, window)
		s.stds[window] = v
	}
	return append([]models.OptionalFloat(nil), v...), nil
}

func (s *PriceSeries) PctChange() []models.OptionalFloat { return features.PctChange(s.prices) }

func (s *PriceSeries) Diff() []models.OptionalFloat { return features.Diff(s.prices) }

func (s *PriceSeries) LogReturns() []float64 { return features.ComputeLogReturns(s.prices) }

// RealizedVolatility is the annualized volatility of the latest window of
// log returns, with observations spaced one period apart. It is undefined
// until window returns exist.
func (s *PriceSeries) RealizedVolatility(window int, p models.Period) models.OptionalFloat {
	r := s.LogReturns()
	if window < 2 || len(r) < window {
		return models.OptionalFloat{}
	}
	return models.Some(features.RealizedVolatility(r, window, features.PeriodsPerYear(p)))
}

// Derived returns every point with its derived fields using the series'
// own moving average windows. volWindow selects the rolling std; a window
// below 2 leaves volatility undefined.
func (s *PriceSeries) Derived(volWindow int) []models.DerivedPoint {
	out, _ := s.DerivedWindows(s.windowShort, s.windowLong, volWindow)
	return out
}

// DerivedWindows is Derived with caller-chosen moving average windows.
func (s *PriceSeries) DerivedWindows(shortWindow, longWindow, volWindow int) ([]models.DerivedPoint, error) {
	short, err := s.RollingMean(shortWindow)
	if err != nil {
		return nil, err
	}
	long, err := s.RollingMean(longWindow)
	if err != nil {
		return nil, err
	}
	vol := make([]models.OptionalFloat, len(s.points))
	if volWindow >= 2 {
		vol, _ = s.RollingStd(volWindow)
	}
	pct := s.PctChange()
	diff := s.Diff()

	out := make([]models.DerivedPoint, len(s.points))
	for i, p := range s.points {
		out[i] = models.DerivedPoint{
			Time:      p.Time,
			Price:     p.Price,
			ShortMean: short[i],
			LongMean:  long[i],
			Vol:       vol[i],
			PctChange: pct[i],
			Diff:      diff[i],
		}
	}
	return out, nil
}

// Range returns the index range [lo, hi) of the points with from <= t <= to.
// A zero bound is open. An empty range is ErrData.
func (s *PriceSeries) Range(from, to time.Time) (lo, hi int, err error) {
	if !from.IsZero() {
		lo = sort.Search(len(s.points), func(i int) bool { return !s.points[i].Time.Before(from) })
	}
	hi = len(s.points)
	if !to.IsZero() {
		hi = sort.Search(len(s.points), func(i int) bool { return s.points[i].Time.After(to) })
	}
	if lo >= hi {
		return 0, 0, models.DataErrorf("no prices between %s and %s", from.Format(time.DateOnly), to.Format(time.DateOnly))
	}
	return lo, hi, nil
}

// Tail returns the last n points as a series.
func (s *PriceSeries) Tail(n int) *PriceSeries {
	if n <= 0 || n >= len(s.points) {
		return s.slice(0, len(s.points))
	}
	return s.slice(len(s.points)-n, len(s.points))
}

// Resample averages prices per period and labels each bucket with the period
// end date. Periods without observations produce no point.
func (s *PriceSeries) Resample(p models.Period) *PriceSeries {
	var out []models.PricePoint
	var bucket time.Time
	var sum float64
	var n int
	flush := func() {
		if n > 0 {
			out = append(out, models.PricePoint{Time: bucket, Price: sum / float64(n)})
		}
	}
	for _, pt := range s.points {
		end := p.End(pt.Time)
		if n > 0 && !end.Equal(bucket) {
			flush()
			sum, n = 0, 0
		}
		bucket = end
		sum += pt.Price
		n++
	}
	flush()
	return s.derive(out)
}

func (s *PriceSeries) slice(lo, hi int) *PriceSeries {
	return s.derive(append([]models.PricePoint(nil), s.points[lo:hi]...))
}

// derive wraps already-validated points with the same windows.
func (s *PriceSeries) derive(points []models.PricePoint) *PriceSeries {
	prices := make([]float64, len(points))
	for i, p := range points {
		prices[i] = p.Price
	}
	return &PriceSeries{
		points:      points,
		prices:      prices,
		windowShort: s.windowShort,
		windowLong:  s.windowLong,
		means:       make(map[int][]models.OptionalFloat),
		stds:        make(map[int][]models.OptionalFloat),
	}
}
