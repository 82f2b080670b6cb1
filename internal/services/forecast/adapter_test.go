package forecast

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BrentPulse/internal/domain/models"
)

type fakeModel struct {
	start      time.Time
	days       int
	periods    int
	scheduleFn func([]time.Time) []time.Time
	mutate     func([]models.Estimate)
	extendErr  error
	predictErr error
}

func (f *fakeModel) ExtendSchedule(_ context.Context, periods int) ([]time.Time, error) {
	f.periods = periods
	if f.extendErr != nil {
		return nil, f.extendErr
	}
	var out []time.Time
	for i := 0; i < f.days+periods; i++ {
		out = append(out, f.start.AddDate(0, 0, i))
	}
	if f.scheduleFn != nil {
		out = f.scheduleFn(out)
	}
	return out, nil
}

func (f *fakeModel) Predict(_ context.Context, schedule []time.Time) ([]models.Estimate, error) {
	if f.predictErr != nil {
		return nil, f.predictErr
	}
	out := make([]models.Estimate, len(schedule))
	for i, t := range schedule {
		p := 80 + float64(i)*0.1
		out[i] = models.Estimate{Time: t, Point: p, Lower: p - 2, Upper: p + 2}
	}
	if f.mutate != nil {
		f.mutate(out)
	}
	return out, nil
}

var base = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func TestAdapter_Forecast(t *testing.T) {
	m := &fakeModel{start: base, days: 30}
	asOf := base.AddDate(0, 0, 29).Add(15 * time.Hour)

	rows, err := NewAdapter().Forecast(context.Background(), m, 7, asOf)
	require.NoError(t, err)
	assert.Equal(t, 90, m.periods)
	require.Len(t, rows, 8)
	assert.Equal(t, base.AddDate(0, 0, 29), rows[0].Time)
	assert.Equal(t, base.AddDate(0, 0, 36), rows[7].Time)
	for _, r := range rows {
		assert.LessOrEqual(t, r.Lower, r.Point)
		assert.LessOrEqual(t, r.Point, r.Upper)
	}
	assert.Len(t, rows.Points(), 8)
}

func TestAdapter_LongHorizonExtendsSchedule(t *testing.T) {
	m := &fakeModel{start: base, days: 10}
	rows, err := NewAdapter(WithSchedulePeriods(5)).Forecast(context.Background(), m, 20, base.AddDate(0, 0, 9))
	require.NoError(t, err)
	assert.Equal(t, 20, m.periods)
	assert.Len(t, rows, 21)
}

func TestAdapter_InvalidBoundsYieldNoRows(t *testing.T) {
	m := &fakeModel{start: base, days: 30, mutate: func(es []models.Estimate) {
		es[len(es)-1].Lower, es[len(es)-1].Upper = es[len(es)-1].Upper, es[len(es)-1].Lower
	}}
	rows, err := NewAdapter().Forecast(context.Background(), m, 3, base.AddDate(0, 0, 29))
	assert.ErrorIs(t, err, models.ErrForecastUnavailable)
	assert.Empty(t, rows)
}

func TestAdapter_Failures(t *testing.T) {
	asOf := base.AddDate(0, 0, 29)
	boom := errors.New("boom")
	tests := []struct {
		name  string
		model *fakeModel
	}{
		{"extend error", &fakeModel{start: base, days: 30, extendErr: boom}},
		{"predict error", &fakeModel{start: base, days: 30, predictErr: boom}},
		{"empty schedule", &fakeModel{start: base, days: 30, scheduleFn: func([]time.Time) []time.Time { return nil }}},
		{"nan point", &fakeModel{start: base, days: 30, mutate: func(es []models.Estimate) { es[3].Point = math.NaN() }}},
		{"point above upper", &fakeModel{start: base, days: 30, mutate: func(es []models.Estimate) { es[40].Point = es[40].Upper + 1 }}},
		{"out of order", &fakeModel{start: base, days: 30, scheduleFn: func(ts []time.Time) []time.Time {
			ts[1], ts[2] = ts[2], ts[1]
			return ts
		}}},
		{"starts after as-of", &fakeModel{start: asOf.AddDate(0, 0, 1), days: 0}},
		{"ends before horizon", &fakeModel{start: base, days: 30, scheduleFn: func(ts []time.Time) []time.Time { return ts[:32] }}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := NewAdapter().Forecast(context.Background(), tt.model, 7, asOf)
			assert.ErrorIs(t, err, models.ErrForecastUnavailable)
			assert.Nil(t, rows)
		})
	}

	_, err := NewAdapter().Forecast(context.Background(), &fakeModel{start: base, days: 30, predictErr: boom}, 7, asOf)
	assert.ErrorIs(t, err, boom)
}

func TestAdapter_InvalidHorizonAndNilModel(t *testing.T) {
	_, err := NewAdapter().Forecast(context.Background(), &fakeModel{start: base, days: 3}, 0, base)
	assert.ErrorIs(t, err, models.ErrInvalidParameter)

	_, err = NewAdapter().Forecast(context.Background(), nil, 3, base)
	assert.ErrorIs(t, err, models.ErrForecastUnavailable)
}

func TestHolder(t *testing.T) {
	h := &Holder{}
	assert.Nil(t, h.Get())
	m := &fakeModel{}
	h.Set(m)
	assert.Same(t, m, h.Get())
	h.Set(nil)
	assert.Nil(t, h.Get())
}
