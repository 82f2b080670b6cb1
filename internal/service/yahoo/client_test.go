package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BrentPulse/internal/domain/models"
)

const chartBody = `{"chart":{"result":[{"meta":{"symbol":"BZ=F","currency":"USD"},
 "timestamp":[1704171600,1704258000,1704344400,1704430800,1704445000],
 "indicators":{"quote":[{"close":[75.89,null,78.25,77.59,78.01]}]}}],"error":null}}`

func TestClient_Load(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/BZ=F", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "1262304000", r.URL.Query().Get("period1"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL), WithRateLimit(100, 1))
	table, err := c.Load(context.Background(), models.PriceQuery{
		Symbol: "BZ=F",
		From:   time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "yahoo", table.Source)
	require.Len(t, table.Points, 3)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), table.Points[0].Time)
	assert.Equal(t, 75.89, table.Points[0].Price)
	assert.Equal(t, time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), table.Points[1].Time)
	// two bars on 2024-01-05: the later one wins
	assert.Equal(t, 78.01, table.Points[2].Price)
}

func TestClient_ChartError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	}))
	defer srv.Close()

	_, err := New(WithBaseURL(srv.URL)).Load(context.Background(), models.PriceQuery{Symbol: "NOPE"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No data found")
}

func TestClient_HTTPFailureAndMissingSymbol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := New(WithBaseURL(srv.URL)).Load(context.Background(), models.PriceQuery{Symbol: "BZ=F"})
	assert.Error(t, err)

	_, err = New(WithBaseURL(srv.URL)).Load(context.Background(), models.PriceQuery{})
	assert.Error(t, err)
}

func TestClient_RateLimitHonoursContext(t *testing.T) {
	c := New(WithBaseURL("http://127.0.0.1:0"), WithRateLimit(0.0001, 1))
	c.limiter.Allow() // drain the only token
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := c.Load(ctx, models.PriceQuery{Symbol: "BZ=F"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}
