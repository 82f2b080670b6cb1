package repository

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BrentPulse/internal/domain/models"
)

const sampleCSV = "Date;petrol_price\n2020-01-03;68,6\n2020-01-02;66,25\n\n2020-01-06;68,91\n"

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func TestCSVPriceSource_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brent.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	src := NewCSVPriceSource(WithCSVPath(path))
	assert.Equal(t, path, src.Path())
	table, err := src.Load(context.Background(), models.PriceQuery{Symbol: "BZ=F"})
	require.NoError(t, err)
	assert.Equal(t, "csv", table.Source)
	require.Len(t, table.Points, 3)
	assert.Equal(t, day(2020, 1, 2), table.Points[0].Time)
	assert.Equal(t, 66.25, table.Points[0].Price)
	assert.Equal(t, 68.6, table.Points[1].Price)
	assert.Equal(t, day(2020, 1, 6), table.Points[2].Time)

	filtered, err := src.Load(context.Background(), models.PriceQuery{From: day(2020, 1, 3), To: day(2020, 1, 3)})
	require.NoError(t, err)
	require.Len(t, filtered.Points, 1)
	assert.Equal(t, 68.6, filtered.Points[0].Price)
}

func TestCSVPriceSource_URLAndColumns(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("close,day\n70.5,2021-05-04\n"))
	}))
	defer srv.Close()

	src := NewCSVPriceSource(WithCSVURL(srv.URL, time.Second), WithCSVDelimiter(','), WithCSVColumns("day", "close"))
	table, err := src.Load(context.Background(), models.PriceQuery{})
	require.NoError(t, err)
	require.Len(t, table.Points, 1)
	assert.Equal(t, day(2021, 5, 4), table.Points[0].Time)
	assert.Equal(t, 70.5, table.Points[0].Price)
}

func TestCSVPriceSource_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("Date;petrol_price\nnot-a-date;1,0\n"), 0o600))
	_, err := NewCSVPriceSource(WithCSVPath(bad)).Load(context.Background(), models.PriceQuery{})
	assert.ErrorIs(t, err, models.ErrData)

	badPrice := filepath.Join(dir, "price.csv")
	require.NoError(t, os.WriteFile(badPrice, []byte("Date;petrol_price\n2020-01-02;n/a\n"), 0o600))
	_, err = NewCSVPriceSource(WithCSVPath(badPrice)).Load(context.Background(), models.PriceQuery{})
	assert.ErrorIs(t, err, models.ErrData)

	_, err = NewCSVPriceSource(WithCSVPath(filepath.Join(dir, "missing.csv"))).Load(context.Background(), models.PriceQuery{})
	assert.Error(t, err)

	_, err = NewCSVPriceSource().Load(context.Background(), models.PriceQuery{})
	assert.Error(t, err)
}

func TestParseDecimalComma(t *testing.T) {
	for in, want := range map[string]float64{
		"68,6":     68.6,
		"68.6":     68.6,
		"1.234,56": 1234.56,
		"1,234.56": 1234.56,
		" 70 ":     70,
	} {
		got, err := ParseDecimalComma(in)
		require.NoError(t, err, in)
		assert.InDelta(t, want, got, 1e-12, in)
	}
	_, err := ParseDecimalComma("abc")
	assert.Error(t, err)
}

type stubSource struct {
	name  string
	table models.PriceTable
	err   error
	calls int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Load(context.Context, models.PriceQuery) (models.PriceTable, error) {
	s.calls++
	return s.table, s.err
}

func TestFallbackSource(t *testing.T) {
	live := &stubSource{name: "yahoo", table: models.PriceTable{Source: "yahoo", Points: []models.PricePoint{{Time: day(2024, 1, 2), Price: 1}}}}
	static := &stubSource{name: "csv", table: models.PriceTable{Source: "csv", Points: []models.PricePoint{{Time: day(2020, 1, 2), Price: 2}}}}
	src := NewFallbackSource(live, static, WithBreaker(2, time.Hour))
	assert.Equal(t, "yahoo+csv", src.Name())

	table, err := src.Load(context.Background(), models.PriceQuery{})
	require.NoError(t, err)
	assert.Equal(t, "yahoo", table.Source)

	// empty live table falls back
	live.table = models.PriceTable{Source: "yahoo"}
	table, err = src.Load(context.Background(), models.PriceQuery{})
	require.NoError(t, err)
	assert.Equal(t, "csv", table.Source)

	// second consecutive failure trips the breaker; the live feed is no longer called
	live.err = errors.New("feed down")
	_, err = src.Load(context.Background(), models.PriceQuery{})
	require.NoError(t, err)
	assert.Equal(t, gobreaker.StateOpen, src.State())
	calls := live.calls
	table, err = src.Load(context.Background(), models.PriceQuery{})
	require.NoError(t, err)
	assert.Equal(t, "csv", table.Source)
	assert.Equal(t, calls, live.calls)
}

func TestFallbackSource_BothFail(t *testing.T) {
	src := NewFallbackSource(&stubSource{name: "yahoo", err: errors.New("down")}, &stubSource{name: "csv", err: errors.New("missing")})
	_, err := src.Load(context.Background(), models.PriceQuery{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "down")
	assert.Contains(t, err.Error(), "missing")

	noFallback := NewFallbackSource(&stubSource{name: "yahoo", err: errors.New("down")}, nil)
	assert.Equal(t, "yahoo", noFallback.Name())
	_, err = noFallback.Load(context.Background(), models.PriceQuery{})
	assert.Error(t, err)
}

func TestPriceQueries(t *testing.T) {
	q := models.PriceQuery{Symbol: "BZ=F", From: day(2010, 1, 1)}
	sql, args := chPriceQuery("market.brent_daily", q)
	assert.Equal(t, "SELECT day, close FROM market.brent_daily WHERE symbol = ? AND day >= ? ORDER BY day ASC", sql)
	assert.Len(t, args, 2)

	q.To = day(2020, 1, 1)
	sql, args = pgPriceQuery("market.brent_daily", q)
	assert.Equal(t, `SELECT day, close::float8 FROM "market"."brent_daily" WHERE symbol = $1 AND day >= $2 AND day <= $3 ORDER BY day ASC`, sql)
	assert.Len(t, args, 3)
}

func TestNewCHPriceSource_RejectsUnsafeTable(t *testing.T) {
	_, err := NewCHPriceSource(nil, "brent_daily; DROP TABLE brent_daily")
	assert.Error(t, err)

	src, err := NewCHPriceSource(nil, "market.brent_daily")
	require.NoError(t, err)
	assert.Equal(t, "clickhouse", src.Name())
}
