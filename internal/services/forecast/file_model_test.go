package forecast

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleModel = `{
  "name": "brent-daily",
  "history_start": "2024-01-01",
  "history_end": "2024-01-31",
  "trend": {"base": 80, "slope": 0.1, "changepoints": [{"date": "2024-01-21", "delta": -0.2}]},
  "seasonalities": [{"name": "weekly", "period_days": 7, "fourier": [[0.5, 0.0]]}],
  "sigma": 2,
  "interval_width": 0.8,
  "quality": {"rmse": 4.35501, "mae": 3.512644}
}`

func TestParseFileModel(t *testing.T) {
	m, err := ParseFileModel([]byte(sampleModel))
	require.NoError(t, err)
	assert.Equal(t, "brent-daily", m.Name())
	assert.InDelta(t, 4.35501, m.Quality().RMSE, 1e-9)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), m.HistoryEnd())

	sched, err := m.ExtendSchedule(context.Background(), 90)
	require.NoError(t, err)
	assert.Len(t, sched, 31+90)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), sched[0])

	est, err := m.Predict(context.Background(), sched)
	require.NoError(t, err)
	require.Len(t, est, len(sched))

	// day 0: trend 80, seasonal cos(0)*0.5
	assert.InDelta(t, 80.5, est[0].Point, 1e-9)
	// day 30: 80 + 3 - 0.2*10 = 81 trend
	assert.InDelta(t, 81.0, m.trend(sched[30]), 1e-9)

	for _, e := range est {
		assert.LessOrEqual(t, e.Lower, e.Point)
		assert.LessOrEqual(t, e.Point, e.Upper)
	}
	// interval widens past the history end
	inHist := est[10].Upper - est[10].Lower
	far := est[len(est)-1].Upper - est[len(est)-1].Lower
	assert.Greater(t, far, inHist)
}

func TestParseFileModel_Invalid(t *testing.T) {
	for name, body := range map[string]string{
		"not json":        `{`,
		"bad date":        `{"history_start":"x","history_end":"2024-01-01","interval_width":0.8}`,
		"end before":      `{"history_start":"2024-02-01","history_end":"2024-01-01","interval_width":0.8}`,
		"bad width":       `{"history_start":"2024-01-01","history_end":"2024-01-02","interval_width":1.5}`,
		"neg sigma":       `{"history_start":"2024-01-01","history_end":"2024-01-02","interval_width":0.8,"sigma":-1}`,
		"bad period":      `{"history_start":"2024-01-01","history_end":"2024-01-02","interval_width":0.8,"seasonalities":[{"name":"y","period_days":0}]}`,
		"bad changepoint": `{"history_start":"2024-01-01","history_end":"2024-01-02","interval_width":0.8,"trend":{"changepoints":[{"date":"soon"}]}}`,
	} {
		_, err := ParseFileModel([]byte(body))
		assert.Error(t, err, name)
	}
}

func TestLoadFileModelWithAdapter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleModel), 0o600))

	m, err := LoadFileModel(path)
	require.NoError(t, err)

	rows, err := NewAdapter().Forecast(context.Background(), m, 15, time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, rows, 16)

	_, err = LoadFileModel(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
