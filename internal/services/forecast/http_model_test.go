package forecast

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BrentPulse/internal/domain/models"
)

func TestHTTPModel(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		switch r.URL.Path {
		case "/forecast/schedule":
			var req scheduleReq
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			var resp scheduleResp
			for i := 0; i < req.Periods; i++ {
				resp.Times = append(resp.Times, start.AddDate(0, 0, i))
			}
			_ = json.NewEncoder(w).Encode(resp)
		case "/forecast/predict":
			var req predictReq
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			var resp predictResp
			for _, ts := range req.Times {
				resp.Estimates = append(resp.Estimates, models.Estimate{Time: ts, Point: 80, Lower: 78, Upper: 82})
			}
			_ = json.NewEncoder(w).Encode(resp)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	m := NewHTTPModel(srv.URL, time.Second)
	rows, err := NewAdapter().Forecast(context.Background(), m, 5, start)
	require.NoError(t, err)
	assert.Len(t, rows, 6)
	assert.Equal(t, 80.0, rows[0].Point)
}

func TestHTTPModel_ServerErrorIsUnavailable(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "model offline", http.StatusInternalServerError)
	}))
	defer srv.Close()

	rows, err := NewAdapter().Forecast(context.Background(), NewHTTPModel(srv.URL, time.Second), 5, time.Now())
	assert.ErrorIs(t, err, models.ErrForecastUnavailable)
	assert.Empty(t, rows)
	assert.Equal(t, 1, calls, "no retries")
}

func TestHTTPServiceBase_NotInitialized(t *testing.T) {
	err := NewHTTPServiceBase("", time.Second).PostJSON(context.Background(), "/x", nil, nil)
	assert.Error(t, err)
}
