// Package analytics derives descriptive insights from a price series:
// headline metrics, seasonality, yearly averages and window statistics.
package analytics

import (
	"BrentPulse/internal/domain/models"
	"BrentPulse/internal/services/features"
	"BrentPulse/internal/services/series"
)

// Summarize returns the latest price, its day-over-day change, the mean of
// the trailing window points and their annualized realized volatility.
func Summarize(symbol string, ps *series.PriceSeries, window int) (models.PriceSummary, error) {
	if ps == nil || ps.Len() == 0 {
		return models.PriceSummary{}, models.DataErrorf("no prices to summarize")
	}
	if window < 1 {
		return models.PriceSummary{}, models.InvalidParameterf("summary window must be >= 1, got %d", window)
	}

	last := ps.Last()
	sum := models.PriceSummary{
		Symbol:  symbol,
		AsOf:    last.Time,
		Current: last.Price,
	}
	if n := ps.Len(); n >= 2 {
		prev := ps.At(n - 2).Price
		sum.Previous = models.Some(prev)
		sum.ChangePct = models.Some((last.Price - prev) / prev * 100)
	}
	tail := ps.Tail(window)
	sum.TrailingMean = features.Mean(tail.Prices())
	sum.TrailingCount = tail.Len()
	sum.RealizedVol = ps.RealizedVolatility(window, models.PeriodDay)
	return sum, nil
}
