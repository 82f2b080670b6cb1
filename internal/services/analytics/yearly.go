package analytics

import (
	"BrentPulse/internal/domain/models"
	"BrentPulse/internal/services/features"
	"BrentPulse/internal/services/series"
)

// YearlySummary returns the mean price and mean rolling volatility per
// calendar year. Undefined volatility values are skipped.
func YearlySummary(ps *series.PriceSeries, volWindow int) ([]models.YearlyStat, error) {
	if ps == nil || ps.Len() == 0 {
		return nil, models.DataErrorf("no prices for yearly summary")
	}
	vol, err := ps.RollingStd(volWindow)
	if err != nil {
		return nil, err
	}

	var out []models.YearlyStat
	var prices, vols []float64
	year := 0
	flush := func() {
		if len(prices) == 0 {
			return
		}
		st := models.YearlyStat{Year: year, Count: len(prices), MeanPrice: features.Mean(prices)}
		if len(vols) > 0 {
			st.MeanVol = models.Some(features.Mean(vols))
		}
		out = append(out, st)
	}
	for i, p := range ps.Points() {
		y := p.Time.UTC().Year()
		if y != year {
			flush()
			year, prices, vols = y, nil, nil
		}
		prices = append(prices, p.Price)
		if vol[i].Valid {
			vols = append(vols, vol[i].Value)
		}
	}
	flush()
	return out, nil
}
