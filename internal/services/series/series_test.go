package series

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BrentPulse/internal/domain/models"
)

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func daily(start time.Time, prices ...float64) []models.PricePoint {
	out := make([]models.PricePoint, len(prices))
	for i, p := range prices {
		out[i] = models.PricePoint{Time: start.AddDate(0, 0, i), Price: p}
	}
	return out
}

func TestBuild_Validation(t *testing.T) {
	start := day(2024, 1, 1)
	tests := []struct {
		name  string
		raw   []models.PricePoint
		short int
		long  int
		want  error
	}{
		{"empty", nil, 2, 3, models.ErrData},
		{"zero price", daily(start, 1, 0, 2), 2, 3, models.ErrData},
		{"negative price", daily(start, 1, -2), 2, 3, models.ErrData},
		{"nan price", daily(start, 1, math.NaN()), 2, 3, models.ErrData},
		{"inf price", daily(start, math.Inf(1)), 2, 3, models.ErrData},
		{"duplicate time", []models.PricePoint{{Time: start, Price: 1}, {Time: start, Price: 2}}, 2, 3, models.ErrData},
		{"decreasing time", []models.PricePoint{{Time: start, Price: 1}, {Time: start.Add(-time.Hour), Price: 2}}, 2, 3, models.ErrData},
		{"short window", daily(start, 1, 2), 0, 3, models.ErrInvalidParameter},
		{"long window", daily(start, 1, 2), 2, 0, models.ErrInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.raw, tt.short, tt.long)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestBuild_CopiesInput(t *testing.T) {
	raw := daily(day(2024, 1, 1), 10, 11, 12)
	s, err := Build(raw, 2, 3)
	require.NoError(t, err)
	raw[0].Price = 999
	assert.Equal(t, 10.0, s.First().Price)
	pts := s.Points()
	pts[1].Price = 999
	assert.Equal(t, 11.0, s.At(1).Price)
}

func TestRollingFields(t *testing.T) {
	s, err := Build(daily(day(2024, 1, 1), 1, 2, 3, 4), 2, 3)
	require.NoError(t, err)

	short, err := s.RollingMean(2)
	require.NoError(t, err)
	assert.False(t, short[0].Valid)
	assert.InDelta(t, 1.5, short[1].Value, 1e-12)
	long, err := s.RollingMean(3)
	require.NoError(t, err)
	assert.False(t, long[1].Valid)
	assert.InDelta(t, 3.0, long[3].Value, 1e-12)

	_, err = s.RollingStd(1)
	assert.ErrorIs(t, err, models.ErrInvalidParameter)
	_, err = s.RollingMean(0)
	assert.ErrorIs(t, err, models.ErrInvalidParameter)

	std, err := s.RollingStd(2)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(0.5), std[3].Value, 1e-12)

	// cached copies are independent
	std[3] = models.OptionalFloat{}
	again, _ := s.RollingStd(2)
	assert.True(t, again[3].Valid)
}

func TestConstantSeriesStdIsZero(t *testing.T) {
	s, err := Build(daily(day(2024, 1, 1), 83.17, 83.17, 83.17, 83.17, 83.17), 2, 3)
	require.NoError(t, err)
	std, err := s.RollingStd(3)
	require.NoError(t, err)
	for i := 2; i < len(std); i++ {
		assert.Equal(t, 0.0, std[i].Value)
	}
}

func TestPriceAtAndNearest(t *testing.T) {
	s, err := Build([]models.PricePoint{
		{Time: day(2024, 1, 1), Price: 1},
		{Time: day(2024, 1, 4), Price: 2},
		{Time: day(2024, 1, 10), Price: 3},
	}, 1, 1)
	require.NoError(t, err)

	p, ok := s.PriceAt(day(2024, 1, 4))
	assert.True(t, ok)
	assert.Equal(t, 2.0, p)
	_, ok = s.PriceAt(day(2024, 1, 5))
	assert.False(t, ok)

	assert.Equal(t, 0, s.Nearest(day(2023, 6, 1)))
	assert.Equal(t, 1, s.Nearest(day(2024, 1, 5)))
	assert.Equal(t, 2, s.Nearest(day(2024, 1, 8)))
	assert.Equal(t, 2, s.Nearest(day(2025, 1, 1)))
}

func TestRangeAndTail(t *testing.T) {
	s, err := Build(daily(day(2024, 1, 1), 1, 2, 3, 4, 5), 1, 1)
	require.NoError(t, err)

	lo, hi, err := s.Range(day(2024, 1, 2), day(2024, 1, 4))
	require.NoError(t, err)
	assert.Equal(t, 1, lo)
	assert.Equal(t, 4, hi)

	lo, hi, err = s.Range(day(2024, 1, 3), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 2, lo)
	assert.Equal(t, 5, hi)

	_, _, err = s.Range(day(2025, 1, 1), day(2025, 2, 1))
	assert.ErrorIs(t, err, models.ErrData)

	assert.Equal(t, []float64{4, 5}, s.Tail(2).Prices())
	assert.Equal(t, 5, s.Tail(10).Len())
}

func TestResample_Monthly(t *testing.T) {
	raw := []models.PricePoint{
		{Time: day(2024, 1, 2), Price: 10},
		{Time: day(2024, 1, 20), Price: 20},
		{Time: day(2024, 3, 5), Price: 30},
		{Time: day(2024, 3, 6), Price: 40},
		{Time: day(2024, 3, 7), Price: 50},
	}
	s, err := Build(raw, 1, 1)
	require.NoError(t, err)

	m := s.Resample(models.PeriodMonth)
	require.Equal(t, 2, m.Len())
	assert.Equal(t, day(2024, 1, 31), m.At(0).Time)
	assert.InDelta(t, 15.0, m.At(0).Price, 1e-12)
	assert.Equal(t, day(2024, 3, 31), m.At(1).Time)
	assert.InDelta(t, 40.0, m.At(1).Price, 1e-12)

	y := s.Resample(models.PeriodYear)
	require.Equal(t, 1, y.Len())
	assert.Equal(t, day(2024, 12, 31), y.At(0).Time)
	assert.InDelta(t, 30.0, y.At(0).Price, 1e-12)
}

func TestResample_WeekEndsSunday(t *testing.T) {
	// 2024-01-01 is a Monday
	s, err := Build(daily(day(2024, 1, 1), 1, 2, 3, 4, 5, 6, 7, 8), 1, 1)
	require.NoError(t, err)
	w := s.Resample(models.PeriodWeek)
	require.Equal(t, 2, w.Len())
	assert.Equal(t, day(2024, 1, 7), w.At(0).Time)
	assert.InDelta(t, 4.0, w.At(0).Price, 1e-12)
	assert.Equal(t, day(2024, 1, 14), w.At(1).Time)
	assert.InDelta(t, 8.0, w.At(1).Price, 1e-12)
}

func TestDerived(t *testing.T) {
	s, err := Build(daily(day(2024, 1, 1), 100, 110, 99), 2, 3)
	require.NoError(t, err)
	d := s.Derived(2)
	require.Len(t, d, 3)
	assert.False(t, d[0].PctChange.Valid)
	assert.InDelta(t, 0.1, d[1].PctChange.Value, 1e-12)
	assert.InDelta(t, 105.0, d[1].ShortMean.Value, 1e-12)
	assert.True(t, d[2].LongMean.Valid)
	assert.True(t, d[1].Vol.Valid)
	assert.InDelta(t, -11.0, d[2].Diff.Value, 1e-12)
}

func TestDerivedWindows(t *testing.T) {
	s, err := Build(daily(day(2024, 1, 1), 10, 20, 30, 40), 2, 3)
	require.NoError(t, err)

	d, err := s.DerivedWindows(3, 4, 0)
	require.NoError(t, err)
	assert.False(t, d[1].ShortMean.Valid)
	assert.InDelta(t, 20.0, d[2].ShortMean.Value, 1e-12)
	assert.False(t, d[2].LongMean.Valid)
	assert.InDelta(t, 25.0, d[3].LongMean.Value, 1e-12)
	assert.False(t, d[3].Vol.Valid)

	_, err = s.DerivedWindows(0, 4, 0)
	assert.ErrorIs(t, err, models.ErrInvalidParameter)
}

func TestRealizedVolatility(t *testing.T) {
	flat, err := Build(daily(day(2024, 1, 1), 50, 50, 50, 50), 1, 1)
	require.NoError(t, err)
	v := flat.RealizedVolatility(3, models.PeriodDay)
	require.True(t, v.Valid)
	assert.Equal(t, 0.0, v.Value)

	assert.False(t, flat.RealizedVolatility(4, models.PeriodDay).Valid)
	assert.False(t, flat.RealizedVolatility(1, models.PeriodDay).Valid)

	s, err := Build(daily(day(2024, 1, 1), 100, 110, 100), 1, 1)
	require.NoError(t, err)
	r := math.Log(1.1)
	// sample std of {r, -r} is r*sqrt(2)
	want := r * math.Sqrt2 * math.Sqrt(252)
	assert.InDelta(t, want, s.RealizedVolatility(2, models.PeriodDay).Value, 1e-9)
	assert.InDelta(t, r*math.Sqrt2*math.Sqrt(12), s.RealizedVolatility(2, models.PeriodMonth).Value, 1e-9)
}
