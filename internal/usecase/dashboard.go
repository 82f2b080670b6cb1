package usecase

import (
	"context"
	"sync"
	"time"

	"BrentPulse/internal/domain/models"
	"BrentPulse/internal/services/analytics"
)

// Dashboard bundles every report section. Sections that fail are left empty
// and their error is reported under Errors.
type Dashboard struct {
	Symbol      string                `json:"symbol"`
	Version     int64                 `json:"version"`
	Timestamp   time.Time             `json:"timestamp"`
	Summary     *models.PriceSummary  `json:"summary,omitempty"`
	Phases      *PhasesReport         `json:"phases,omitempty"`
	Forecast    *ForecastReport       `json:"forecast,omitempty"`
	Seasonality []models.SeasonalStat `json:"seasonality,omitempty"`
	Yearly      []models.YearlyStat   `json:"yearly,omitempty"`
	Errors      map[string]string     `json:"errors,omitempty"`
}

type DashboardParams struct {
	Threshold float64
	Period    models.Period
	Days      int
}

// DashboardUseCase fans the report sections out concurrently.
type DashboardUseCase struct {
	analysis *MarketAnalysis
	timeout  time.Duration
}

func NewDashboardUseCase(analysis *MarketAnalysis) *DashboardUseCase {
	return &DashboardUseCase{analysis: analysis, timeout: 10 * time.Second}
}

func (uc *DashboardUseCase) GetDashboard(ctx context.Context, p DashboardParams) (*Dashboard, error) {
	snap, err := uc.analysis.Snapshot()
	if err != nil {
		return nil, err
	}
	if p.Days <= 0 {
		p.Days = 7
	}

	// Overall timeout
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	res := &Dashboard{
		Symbol:    snap.Symbol,
		Version:   snap.Version,
		Timestamp: time.Now().UTC(),
		Errors:    map[string]string{},
	}

	type item struct {
		name string
		val  interface{}
		err  error
	}
	ch := make(chan item, 5)
	var wg sync.WaitGroup

	run := func(name string, fn func() (interface{}, error)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := fn()
			ch <- item{name, v, err}
		}()
	}
	// every section reads the same snapshot so Version describes all of them
	a := uc.analysis
	run("summary", func() (interface{}, error) { return a.summaryOf(snap, 0) })
	run("phases", func() (interface{}, error) { return a.phasesOf(snap, p.Threshold, p.Period) })
	run("forecast", func() (interface{}, error) { return a.forecastAt(ctx, p.Days, snap.Series.Last().Time) })
	run("seasonality", func() (interface{}, error) { return analytics.MonthlySeasonality(snap.Series) })
	run("yearly", func() (interface{}, error) { return a.yearlyOf(snap) })

	go func() { wg.Wait(); close(ch) }()

	for it := range ch {
		if it.err != nil {
			res.Errors[it.name] = it.err.Error()
			continue
		}
		switch it.name {
		case "summary":
			v := it.val.(models.PriceSummary)
			res.Summary = &v
		case "phases":
			v := it.val.(PhasesReport)
			res.Phases = &v
		case "forecast":
			v := it.val.(ForecastReport)
			res.Forecast = &v
		case "seasonality":
			res.Seasonality = it.val.([]models.SeasonalStat)
		case "yearly":
			res.Yearly = it.val.([]models.YearlyStat)
		}
	}

	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	return res, nil
}
