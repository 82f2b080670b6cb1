// Package forecast queries a pre-fit forecast model for a bounded window and
// validates its output.
package forecast

import (
	"context"
	"math"
	"time"

	"BrentPulse/internal/domain/models"
	domsvc "BrentPulse/internal/domain/service"
)

// DefaultSchedulePeriods is how far the model schedule is extended when the
// requested horizon is shorter.
const DefaultSchedulePeriods = 90

type Adapter struct {
	periods int
}

type AdapterOption func(*Adapter)

func WithSchedulePeriods(n int) AdapterOption {
	return func(a *Adapter) {
		if n > 0 {
			a.periods = n
		}
	}
}

func NewAdapter(opts ...AdapterOption) *Adapter {
	a := &Adapter{periods: DefaultSchedulePeriods}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Forecast returns validated rows covering [day(asOf), day(asOf)+horizonDays].
// Any model failure or malformed estimate yields ErrForecastUnavailable and
// no rows. There is no retry and no fallback model.
func (a *Adapter) Forecast(ctx context.Context, model domsvc.ForecastModel, horizonDays int, asOf time.Time) (models.ForecastRows, error) {
	if horizonDays < 1 {
		return nil, models.InvalidParameterf("horizon must be >= 1 day, got %d", horizonDays)
	}
	if model == nil {
		return nil, models.ForecastUnavailablef("no forecast model loaded")
	}

	periods := a.periods
	if horizonDays > periods {
		periods = horizonDays
	}

	schedule, err := model.ExtendSchedule(ctx, periods)
	if err != nil {
		return nil, models.ForecastUnavailable("extend schedule", err)
	}
	if len(schedule) == 0 {
		return nil, models.ForecastUnavailablef("model returned an empty schedule")
	}

	estimates, err := model.Predict(ctx, schedule)
	if err != nil {
		return nil, models.ForecastUnavailable("predict", err)
	}
	if err := validate(estimates); err != nil {
		return nil, err
	}

	start := truncateDay(asOf)
	end := start.AddDate(0, 0, horizonDays)
	if len(estimates) == 0 || estimates[0].Time.After(start) || estimates[len(estimates)-1].Time.Before(end) {
		return nil, models.ForecastUnavailablef("model output does not cover %s to %s",
			start.Format(time.DateOnly), end.Format(time.DateOnly))
	}

	rows := make(models.ForecastRows, 0, horizonDays+1)
	for _, e := range estimates {
		if e.Time.Before(start) || e.Time.After(end) {
			continue
		}
		rows = append(rows, models.ForecastRow{Time: e.Time, Point: e.Point, Lower: e.Lower, Upper: e.Upper})
	}
	return rows, nil
}

func validate(estimates []models.Estimate) error {
	for i, e := range estimates {
		if !finite(e.Point) || !finite(e.Lower) || !finite(e.Upper) {
			return models.ForecastUnavailablef("non-finite estimate at %s", e.Time.Format(time.DateOnly))
		}
		if e.Lower > e.Point || e.Point > e.Upper {
			return models.ForecastUnavailablef("interval [%v, %v] does not contain point %v at %s",
				e.Lower, e.Upper, e.Point, e.Time.Format(time.DateOnly))
		}
		if i > 0 && !e.Time.After(estimates[i-1].Time) {
			return models.ForecastUnavailablef("estimates out of order at index %d", i)
		}
	}
	return nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
