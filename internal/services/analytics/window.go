package analytics

import (
	"sort"
	"time"

	"BrentPulse/internal/domain/models"
	"BrentPulse/internal/services/features"
	"BrentPulse/internal/services/series"
)

// WindowStats summarizes the prices between from and to (inclusive).
// Rolling volatility is computed over the full series so the window does not
// start inside a warm-up prefix. topN movers are ranked by percent change,
// largest first.
func WindowStats(ps *series.PriceSeries, from, to time.Time, volWindow, topN int) (models.WindowStats, error) {
	if ps == nil || ps.Len() == 0 {
		return models.WindowStats{}, models.DataErrorf("no prices for window")
	}
	if to.Before(from) {
		return models.WindowStats{}, models.InvalidParameterf("window end %s before start %s",
			to.Format(time.DateOnly), from.Format(time.DateOnly))
	}
	if topN < 0 {
		return models.WindowStats{}, models.InvalidParameterf("top movers must be >= 0, got %d", topN)
	}
	vol, err := ps.RollingStd(volWindow)
	if err != nil {
		return models.WindowStats{}, err
	}
	pct := ps.PctChange()
	diff := ps.Diff()

	var (
		st     = models.WindowStats{From: from, To: to}
		vols   []float64
		movers []models.Mover
	)
	for i, p := range ps.Points() {
		if p.Time.Before(from) || p.Time.After(to) {
			continue
		}
		if st.Count == 0 {
			st.StartPrice, st.MaxPrice, st.MinPrice = p.Price, p.Price, p.Price
		}
		st.Count++
		st.EndPrice = p.Price
		if p.Price > st.MaxPrice {
			st.MaxPrice = p.Price
		}
		if p.Price < st.MinPrice {
			st.MinPrice = p.Price
		}
		if vol[i].Valid {
			vols = append(vols, vol[i].Value)
		}
		if pct[i].Valid {
			movers = append(movers, models.Mover{
				Time:      p.Time,
				Price:     p.Price,
				Change:    diff[i].Value,
				ChangePct: pct[i].Value * 100,
			})
		}
	}
	if st.Count == 0 {
		return models.WindowStats{}, models.DataErrorf("no prices between %s and %s",
			from.Format(time.DateOnly), to.Format(time.DateOnly))
	}

	st.Change = st.EndPrice - st.StartPrice
	st.ChangePct = st.Change / st.StartPrice * 100
	if len(vols) > 0 {
		st.MeanVol = models.Some(features.Mean(vols))
	}
	sort.SliceStable(movers, func(i, j int) bool { return movers[i].ChangePct > movers[j].ChangePct })
	if len(movers) > topN {
		movers = movers[:topN]
	}
	st.TopMovers = movers
	return st, nil
}
