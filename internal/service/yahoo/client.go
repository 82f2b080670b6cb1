package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"BrentPulse/internal/domain/models"
	drepo "BrentPulse/internal/domain/repository"
	xhttp "BrentPulse/pkg/http"
	applogger "BrentPulse/pkg/logger"
	"BrentPulse/pkg/util"
)

const DefaultBaseURL = "https://query1.finance.yahoo.com"

// Client implements a PriceSource backed by the Yahoo Finance chart API.
type Client struct {
	baseURL string
	http    *xhttp.Client
	limiter *rate.Limiter
	now     func() time.Time
	l       *applogger.Logger
}

type Option func(*Client)

func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = u } }

// WithRateLimit paces outgoing requests.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

func WithHTTPClient(h *xhttp.Client) Option { return func(c *Client) { c.http = h } }

func WithLogger(l *applogger.Logger) Option { return func(c *Client) { c.l = l } }

// New creates a new Yahoo chart client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    xhttp.NewClient(xhttp.WithTimeout(10*time.Second), xhttp.WithUserAgent("Mozilla/5.0 (compatible; BrentPulse/1.0)")),
		limiter: rate.NewLimiter(rate.Limit(1), 2),
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Name() string { return "yahoo" }

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol   string `json:"symbol"`
		Currency string `json:"currency"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

// Load fetches daily closes for q.Symbol. Days without a close are skipped;
// when a day appears twice the later bar wins.
func (c *Client) Load(ctx context.Context, q models.PriceQuery) (models.PriceTable, error) {
	if q.Symbol == "" {
		return models.PriceTable{}, fmt.Errorf("yahoo: symbol is required")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return models.PriceTable{}, fmt.Errorf("yahoo rate limit: %w", err)
	}

	to := q.To
	if to.IsZero() {
		to = c.now().Add(24 * time.Hour)
	}
	var resp chartResponse
	start := time.Now()
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/v8/finance/chart/" + url.PathEscape(q.Symbol),
		QueryParams: map[string][]string{
			"period1":  {strconv.FormatInt(q.From.Unix(), 10)},
			"period2":  {strconv.FormatInt(to.Unix(), 10)},
			"interval": {"1d"},
			"events":   {"history"},
		},
	}, &resp)
	if err != nil {
		return models.PriceTable{}, fmt.Errorf("yahoo chart %s: %w", q.Symbol, err)
	}
	if resp.Chart.Error != nil {
		return models.PriceTable{}, fmt.Errorf("yahoo chart %s: %s: %s", q.Symbol, resp.Chart.Error.Code, resp.Chart.Error.Description)
	}

	points := toPoints(resp.Chart.Result)
	if c.l != nil {
		c.l.Info("yahoo chart ok",
			applogger.String("symbol", q.Symbol),
			applogger.Int("rows", len(points)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return models.PriceTable{Symbol: q.Symbol, Source: c.Name(), Points: points}, nil
}

func toPoints(results []chartResult) []models.PricePoint {
	byDay := make(map[time.Time]float64)
	for _, r := range results {
		if len(r.Indicators.Quote) == 0 {
			continue
		}
		closes := r.Indicators.Quote[0].Close
		for i, ts := range r.Timestamp {
			if i >= len(closes) || closes[i] == nil {
				continue
			}
			byDay[util.TruncateDay(time.Unix(ts, 0))] = *closes[i]
		}
	}
	out := make([]models.PricePoint, 0, len(byDay))
	for d, p := range byDay {
		out = append(out, models.PricePoint{Time: d, Price: p})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

var _ drepo.PriceSource = (*Client)(nil)
