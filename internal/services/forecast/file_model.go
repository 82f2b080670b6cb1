package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"BrentPulse/internal/domain/models"
	domsvc "BrentPulse/internal/domain/service"
)

// FileModel is a pre-fit additive model loaded from its JSON serialization:
// a piecewise linear trend plus Fourier seasonalities, with a prediction
// interval that widens with the square root of days past the history end.
type FileModel struct {
	spec  modelSpec
	start time.Time
	end   time.Time
	z     float64
}

type modelSpec struct {
	Name          string              `json:"name"`
	HistoryStart  string              `json:"history_start"`
	HistoryEnd    string              `json:"history_end"`
	Trend         trendSpec           `json:"trend"`
	Seasonalities []seasonalitySpec   `json:"seasonalities"`
	Sigma         float64             `json:"sigma"`
	IntervalWidth float64             `json:"interval_width"`
	Quality       models.ModelQuality `json:"quality"`
}

type trendSpec struct {
	Base         float64          `json:"base"`
	Slope        float64          `json:"slope"` // per day
	Changepoints []changepointDef `json:"changepoints"`
}

type changepointDef struct {
	Date  string  `json:"date"`
	Delta float64 `json:"delta"` // slope change per day
	at    float64
}

type seasonalitySpec struct {
	Name       string       `json:"name"`
	PeriodDays float64      `json:"period_days"`
	Fourier    [][2]float64 `json:"fourier"` // (cos, sin) coefficient per order
}

// LoadFileModel reads a serialized model from path.
func LoadFileModel(path string) (*FileModel, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	return ParseFileModel(b)
}

// ParseFileModel decodes and validates a serialized model.
func ParseFileModel(b []byte) (*FileModel, error) {
	var spec modelSpec
	if err := json.Unmarshal(b, &spec); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}
	start, err := time.Parse(time.DateOnly, spec.HistoryStart)
	if err != nil {
		return nil, fmt.Errorf("parse model history_start: %w", err)
	}
	end, err := time.Parse(time.DateOnly, spec.HistoryEnd)
	if err != nil {
		return nil, fmt.Errorf("parse model history_end: %w", err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("model history_end %s before history_start %s", spec.HistoryEnd, spec.HistoryStart)
	}
	if spec.Sigma < 0 || !finite(spec.Sigma) {
		return nil, fmt.Errorf("model sigma must be a non-negative number")
	}
	if spec.IntervalWidth <= 0 || spec.IntervalWidth >= 1 {
		return nil, fmt.Errorf("model interval_width must be in (0,1), got %v", spec.IntervalWidth)
	}
	for i := range spec.Trend.Changepoints {
		cp := &spec.Trend.Changepoints[i]
		t, err := time.Parse(time.DateOnly, cp.Date)
		if err != nil {
			return nil, fmt.Errorf("parse model changepoint %d: %w", i, err)
		}
		cp.at = t.Sub(start).Hours() / 24
	}
	for _, s := range spec.Seasonalities {
		if s.PeriodDays <= 0 {
			return nil, fmt.Errorf("model seasonality %q has non-positive period", s.Name)
		}
	}

	return &FileModel{
		spec:  spec,
		start: start,
		end:   end,
		z:     math.Sqrt2 * math.Erfinv(spec.IntervalWidth),
	}, nil
}

func (m *FileModel) Name() string                 { return m.spec.Name }
func (m *FileModel) Quality() models.ModelQuality { return m.spec.Quality }
func (m *FileModel) HistoryEnd() time.Time        { return m.end }

// ExtendSchedule returns every day of the model history followed by periods
// future days.
func (m *FileModel) ExtendSchedule(ctx context.Context, periods int) ([]time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if periods < 0 {
		return nil, fmt.Errorf("periods must be >= 0, got %d", periods)
	}
	last := m.end.AddDate(0, 0, periods)
	out := make([]time.Time, 0, int(last.Sub(m.start).Hours()/24)+1)
	for d := m.start; !d.After(last); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out, nil
}

func (m *FileModel) Predict(ctx context.Context, schedule []time.Time) ([]models.Estimate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]models.Estimate, len(schedule))
	for i, t := range schedule {
		point := m.trend(t) + m.seasonal(t)
		half := m.z * m.spec.Sigma * math.Sqrt(math.Max(1, t.Sub(m.end).Hours()/24))
		out[i] = models.Estimate{Time: t, Point: point, Lower: point - half, Upper: point + half}
	}
	return out, nil
}

func (m *FileModel) days(t time.Time) float64 { return t.Sub(m.start).Hours() / 24 }

func (m *FileModel) trend(t time.Time) float64 {
	d := m.days(t)
	y := m.spec.Trend.Base + m.spec.Trend.Slope*d
	for _, cp := range m.spec.Trend.Changepoints {
		if d > cp.at {
			y += cp.Delta * (d - cp.at)
		}
	}
	return y
}

func (m *FileModel) seasonal(t time.Time) float64 {
	d := m.days(t)
	y := 0.0
	for _, s := range m.spec.Seasonalities {
		for k, c := range s.Fourier {
			x := 2 * math.Pi * float64(k+1) * d / s.PeriodDays
			y += c[0]*math.Cos(x) + c[1]*math.Sin(x)
		}
	}
	return y
}

var (
	_ domsvc.ForecastModel  = (*FileModel)(nil)
	_ domsvc.ModelDescriber = (*FileModel)(nil)
)
