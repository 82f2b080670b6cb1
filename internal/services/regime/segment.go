// Package regime partitions a price path into alternating bull and bear
// phases using a percentage threshold rule.
package regime

import (
	"math"

	"BrentPulse/internal/domain/models"
)

type mode int

const (
	modeNone mode = iota
	modeBull
	modeBear
)

// Segment scans points once and returns the ordered bull/bear phases.
//
// A bull phase is confirmed when a value reaches trough*(1+threshold) and a
// bear phase when it falls to peak*(1-threshold). Bull confirmation is
// evaluated first. The confirming point starts the new phase, except for the
// first confirmation, whose phase starts at index 0 and so absorbs the
// initial ambiguous run. The phase still open at the last point is returned
// with Open set.
func Segment(points []models.PricePoint, threshold float64) ([]models.MarketPhase, error) {
	if math.IsNaN(threshold) || threshold <= 0 || threshold >= 1 {
		return nil, models.InvalidParameterf("threshold must be in (0,1), got %v", threshold)
	}
	if len(points) == 0 {
		return nil, models.DataErrorf("cannot segment an empty series")
	}
	for i, p := range points {
		if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) || p.Price <= 0 {
			return nil, models.DataErrorf("invalid value %v at index %d", p.Price, i)
		}
		if i > 0 && !p.Time.After(points[i-1].Time) {
			return nil, models.DataErrorf("timestamps not strictly increasing at index %d", i)
		}
	}

	phases := []models.MarketPhase{}
	if len(points) < 2 {
		return phases, nil
	}

	var (
		m      = modeNone
		peak   = points[0].Price
		trough = points[0].Price
		start  = 0
	)
	emit := func(k models.PhaseKind, end int, open bool) {
		phases = append(phases, newPhase(points, k, start, end, trough, peak, open))
	}

	for i := 1; i < len(points); i++ {
		v := points[i].Price
		switch {
		case m != modeBull && v >= trough*(1+threshold):
			if m == modeBear {
				emit(models.PhaseBear, i-1, false)
				start = i
			}
			m = modeBull
			peak = v
		case m != modeBear && v <= peak*(1-threshold):
			if m == modeBull {
				emit(models.PhaseBull, i-1, false)
				start = i
			}
			m = modeBear
			trough = v
		}

		switch m {
		case modeBull:
			peak = math.Max(peak, v)
		case modeBear:
			trough = math.Min(trough, v)
		}
	}

	switch m {
	case modeBull:
		emit(models.PhaseBull, len(points)-1, true)
	case modeBear:
		emit(models.PhaseBear, len(points)-1, true)
	}
	return phases, nil
}

func newPhase(points []models.PricePoint, k models.PhaseKind, start, end int, trough, peak float64, open bool) models.MarketPhase {
	p := models.MarketPhase{
		Kind:       k,
		StartIndex: start,
		EndIndex:   end,
		StartTime:  points[start].Time,
		EndTime:    points[end].Time,
		Trough:     trough,
		Peak:       peak,
		Open:       open,
	}
	if k == models.PhaseBull {
		p.Magnitude = (peak - trough) / trough
	} else {
		p.Magnitude = (trough - peak) / peak
	}
	return p
}

