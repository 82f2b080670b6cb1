package repository

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"BrentPulse/internal/domain/models"
	domrepo "BrentPulse/internal/domain/repository"
	xhttp "BrentPulse/pkg/http"
	applogger "BrentPulse/pkg/logger"
	"BrentPulse/pkg/util"
)

// CSVPriceSource reads the static fallback dataset from a file or URL.
// The default layout is `Date;petrol_price` with a decimal comma.
type CSVPriceSource struct {
	path        string
	url         string
	delimiter   rune
	dateColumn  string
	priceColumn string
	client      *xhttp.Client
	l           *applogger.Logger
}

type CSVOption func(*CSVPriceSource)

func WithCSVPath(path string) CSVOption { return func(s *CSVPriceSource) { s.path = path } }

func WithCSVURL(url string, timeout time.Duration) CSVOption {
	return func(s *CSVPriceSource) {
		s.url = url
		s.client = xhttp.NewClient(xhttp.WithTimeout(timeout))
	}
}

func WithCSVDelimiter(r rune) CSVOption { return func(s *CSVPriceSource) { s.delimiter = r } }

func WithCSVColumns(date, price string) CSVOption {
	return func(s *CSVPriceSource) {
		s.dateColumn = date
		s.priceColumn = price
	}
}

func NewCSVPriceSource(opts ...CSVOption) *CSVPriceSource {
	s := &CSVPriceSource{
		delimiter:   ';',
		dateColumn:  "Date",
		priceColumn: "petrol_price",
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SetLogger injects a structured logger.
func (s *CSVPriceSource) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CSVPriceSource) Name() string { return "csv" }

// Path is the local file backing the source, if any.
func (s *CSVPriceSource) Path() string { return s.path }

func (s *CSVPriceSource) Load(ctx context.Context, q models.PriceQuery) (models.PriceTable, error) {
	start := time.Now()
	b, err := s.read(ctx)
	if err != nil {
		return models.PriceTable{}, err
	}
	points, err := s.parse(bytes.NewReader(b))
	if err != nil {
		if s.l != nil {
			s.l.Error("csv parse error", applogger.String("path", s.path), applogger.String("url", s.url), applogger.Error(err))
		}
		return models.PriceTable{}, err
	}
	points = filterRange(points, q.From, q.To)
	if s.l != nil {
		s.l.Info("csv load ok",
			applogger.String("path", s.path),
			applogger.String("url", s.url),
			applogger.Int("rows", len(points)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return models.PriceTable{Symbol: q.Symbol, Source: s.Name(), Points: points}, nil
}

func (s *CSVPriceSource) read(ctx context.Context) ([]byte, error) {
	switch {
	case s.path != "":
		b, err := os.ReadFile(s.path)
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		return b, nil
	case s.url != "":
		var b []byte
		if err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{Method: xhttp.MethodGet, URL: s.url}, &b); err != nil {
			return nil, fmt.Errorf("fetch csv: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("csv source has neither path nor url")
	}
}

func (s *CSVPriceSource) parse(r io.Reader) ([]models.PricePoint, error) {
	cr := csv.NewReader(r)
	cr.Comma = s.delimiter
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	dateIdx, priceIdx := 0, 1
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		switch {
		case strings.EqualFold(h, s.dateColumn):
			dateIdx = i
		case strings.EqualFold(h, s.priceColumn):
			priceIdx = i
		}
	}

	var out []models.PricePoint
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if len(rec) <= dateIdx || len(rec) <= priceIdx {
			return nil, models.DataErrorf("csv line %d has %d fields", line, len(rec))
		}
		if strings.TrimSpace(rec[dateIdx]) == "" && strings.TrimSpace(rec[priceIdx]) == "" {
			continue
		}
		day, ok := util.ParseDay(rec[dateIdx])
		if !ok {
			return nil, models.DataErrorf("csv line %d: bad date %q", line, rec[dateIdx])
		}
		price, err := ParseDecimalComma(rec[priceIdx])
		if err != nil {
			return nil, models.DataErrorf("csv line %d: %v", line, err)
		}
		out = append(out, models.PricePoint{Time: day, Price: price})
	}
	sortPoints(out)
	return out, nil
}

// ParseDecimalComma parses a price written with either a decimal comma or a
// decimal point. When both appear, the last one is the decimal separator.
func ParseDecimalComma(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	if i, j := strings.LastIndex(s, ","), strings.LastIndex(s, "."); i >= 0 && j >= 0 {
		if i > j {
			s = strings.ReplaceAll(s, ".", "")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("bad price %q: %w", s, err)
	}
	return d.InexactFloat64(), nil
}

func sortPoints(points []models.PricePoint) {
	sort.SliceStable(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
}

func filterRange(points []models.PricePoint, from, to time.Time) []models.PricePoint {
	if from.IsZero() && to.IsZero() {
		return points
	}
	out := points[:0:0]
	for _, p := range points {
		if !from.IsZero() && p.Time.Before(from) {
			continue
		}
		if !to.IsZero() && p.Time.After(to) {
			continue
		}
		out = append(out, p)
	}
	return out
}

var _ domrepo.PriceSource = (*CSVPriceSource)(nil)
