package features

import (
    "math"
    "sort"

    "BrentPulse/internal/domain/models"
)

// Mean returns the arithmetic mean of xs summed left to right, or 0 if empty.
func Mean(xs []float64) float64 {
    if len(xs) == 0 {
        return 0
    }
    sum := 0.0
    for _, x := range xs {
        sum += x
    }
    return sum / float64(len(xs))
}

// SampleStd returns the n-1 standard deviation of xs. Deviations are taken
// relative to xs[0] first, so a constant window yields exactly 0.
func SampleStd(xs []float64) (float64, bool) {
    n := len(xs)
    if n < 2 {
        return 0, false
    }
    shift := xs[0]
    sum := 0.0
    for _, x := range xs {
        sum += x - shift
    }
    m := sum / float64(n)
    ss := 0.0
    for _, x := range xs {
        d := (x - shift) - m
        ss += d * d
    }
    return math.Sqrt(ss / float64(n-1)), true
}

// RollingMean computes the trailing mean over window points. The first
// window-1 positions are undefined.
func RollingMean(xs []float64, window int) []models.OptionalFloat {
    out := make([]models.OptionalFloat, len(xs))
    if window < 1 {
        return out
    }
    for i := window - 1; i < len(xs); i++ {
        out[i] = models.Some(Mean(xs[i-window+1 : i+1]))
    }
    return out
}

// RollingStd computes the trailing sample standard deviation over window
// points. Window must be at least 2; the first window-1 positions are undefined.
func RollingStd(xs []float64, window int) []models.OptionalFloat {
    out := make([]models.OptionalFloat, len(xs))
    if window < 2 {
        return out
    }
    for i := window - 1; i < len(xs); i++ {
        if sd, ok := SampleStd(xs[i-window+1 : i+1]); ok {
            out[i] = models.Some(sd)
        }
    }
    return out
}

// PctChange computes (x_t - x_{t-1}) / x_{t-1}. Undefined at the first point.
func PctChange(xs []float64) []models.OptionalFloat {
    out := make([]models.OptionalFloat, len(xs))
    for i := 1; i < len(xs); i++ {
        if xs[i-1] == 0 {
            continue
        }
        out[i] = models.Some((xs[i] - xs[i-1]) / xs[i-1])
    }
    return out
}

// Diff computes x_t - x_{t-1}. Undefined at the first point.
func Diff(xs []float64) []models.OptionalFloat {
    out := make([]models.OptionalFloat, len(xs))
    for i := 1; i < len(xs); i++ {
        out[i] = models.Some(xs[i] - xs[i-1])
    }
    return out
}

// ComputeLogReturns computes log returns r_t = ln(x_t / x_{t-1}).
// It returns a slice of length len(xs)-1, or nil if insufficient data.
func ComputeLogReturns(xs []float64) []float64 {
    if len(xs) < 2 {
        return nil
    }
    out := make([]float64, 0, len(xs)-1)
    for i := 1; i < len(xs); i++ {
        prev := xs[i-1]
        cur := xs[i]
        if prev <= 0 || cur <= 0 {
            out = append(out, 0)
            continue
        }
        out = append(out, math.Log(cur/prev))
    }
    return out
}

// RealizedVolatility computes annualized realized volatility over the latest
// window of log returns using the provided number of periods per year.
func RealizedVolatility(logReturns []float64, window int, periodsPerYear float64) float64 {
    if window <= 1 || len(logReturns) < window {
        return 0
    }
    sd, _ := SampleStd(logReturns[len(logReturns)-window:])
    // annualize
    return sd * math.Sqrt(periodsPerYear)
}

// PeriodsPerYear returns the approximate number of observations per year.
// Daily commodity quotes trade about 252 sessions a year.
func PeriodsPerYear(p models.Period) float64 {
    switch p {
    case models.PeriodWeek:
        return 52
    case models.PeriodMonth:
        return 12
    case models.PeriodYear:
        return 1
    default:
        return 252
    }
}

// Quantile returns the q-th quantile of xs using linear interpolation
// between closest ranks. xs need not be sorted.
func Quantile(xs []float64, q float64) float64 {
    if len(xs) == 0 {
        return math.NaN()
    }
    s := append([]float64(nil), xs...)
    sort.Float64s(s)
    if q <= 0 {
        return s[0]
    }
    if q >= 1 {
        return s[len(s)-1]
    }
    pos := q * float64(len(s)-1)
    lo := int(math.Floor(pos))
    hi := int(math.Ceil(pos))
    frac := pos - float64(lo)
    return s[lo] + (s[hi]-s[lo])*frac
}
