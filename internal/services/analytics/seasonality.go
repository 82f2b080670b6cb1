package analytics

import (
	"time"

	"BrentPulse/internal/domain/models"
	"BrentPulse/internal/services/features"
	"BrentPulse/internal/services/series"
)

// MonthlySeasonality groups prices by calendar month across all years.
// Months without observations are omitted.
func MonthlySeasonality(ps *series.PriceSeries) ([]models.SeasonalStat, error) {
	if ps == nil || ps.Len() == 0 {
		return nil, models.DataErrorf("no prices for seasonality")
	}
	var buckets [12][]float64
	for _, p := range ps.Points() {
		m := p.Time.UTC().Month()
		buckets[m-1] = append(buckets[m-1], p.Price)
	}

	out := make([]models.SeasonalStat, 0, 12)
	for i, xs := range buckets {
		if len(xs) == 0 {
			continue
		}
		out = append(out, models.SeasonalStat{
			Month:  time.Month(i + 1),
			Count:  len(xs),
			Mean:   features.Mean(xs),
			Median: features.Quantile(xs, 0.5),
			Q1:     features.Quantile(xs, 0.25),
			Q3:     features.Quantile(xs, 0.75),
			Min:    features.Quantile(xs, 0),
			Max:    features.Quantile(xs, 1),
		})
	}
	return out, nil
}
