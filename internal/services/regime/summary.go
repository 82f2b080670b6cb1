package regime

import "BrentPulse/internal/domain/models"

// Summarize aggregates a phase sequence: counts and mean magnitude per kind,
// strongest bull, deepest bear and the open phase, if any.
func Summarize(phases []models.MarketPhase) models.PhaseSummary {
	var sum models.PhaseSummary
	var bullTotal, bearTotal float64
	for i := range phases {
		p := phases[i]
		switch p.Kind {
		case models.PhaseBull:
			sum.Bulls++
			bullTotal += p.Magnitude
			if sum.StrongestBull == nil || p.Magnitude > sum.StrongestBull.Magnitude {
				sum.StrongestBull = &p
			}
		case models.PhaseBear:
			sum.Bears++
			bearTotal += p.Magnitude
			if sum.DeepestBear == nil || p.Magnitude < sum.DeepestBear.Magnitude {
				sum.DeepestBear = &p
			}
		}
		if p.Open {
			sum.Current = &p
		}
	}
	if sum.Bulls > 0 {
		sum.MeanBull = bullTotal / float64(sum.Bulls)
	}
	if sum.Bears > 0 {
		sum.MeanBear = bearTotal / float64(sum.Bears)
	}
	return sum
}

// Diff reports phases of next that are new or changed relative to prev,
// keyed by start time. Closed phases that were open in prev are reported as
// closed, newly seen phases as confirmed.
func Diff(prev, next []models.MarketPhase) (confirmed, closed []models.MarketPhase) {
	seen := make(map[int64]models.MarketPhase, len(prev))
	for _, p := range prev {
		seen[p.StartTime.UnixNano()] = p
	}
	for _, p := range next {
		old, ok := seen[p.StartTime.UnixNano()]
		switch {
		case !ok || old.Kind != p.Kind:
			confirmed = append(confirmed, p)
			if !p.Open {
				closed = append(closed, p)
			}
		case old.Open && !p.Open:
			closed = append(closed, p)
		}
	}
	return confirmed, closed
}
