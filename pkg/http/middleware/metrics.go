package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	applogger "BrentPulse/pkg/logger"
)

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brentpulse_http_requests_total",
			Help: "HTTP requests by route, status class and response cache outcome",
		},
		[]string{"route", "method", "class", "cache"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "brentpulse_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"route", "method", "class"},
	)

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "brentpulse_http_in_flight_requests",
		Help: "Current number of in-flight HTTP requests",
	})

	httpResponseSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "brentpulse_http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		},
		[]string{"route"},
	)

	regOnce sync.Once
)

// MetricsConfig selects what the request metrics middleware observes.
type MetricsConfig struct {
	// SlowThreshold logs requests at least this slow as warnings.
	SlowThreshold time.Duration
	// Skip lists route templates left out, e.g. long-lived websocket routes.
	Skip []string
	// CacheHeader names the response header carrying the cache outcome.
	CacheHeader string
}

// Metrics records request metrics labelled by the registered route template
// (e.g. "/api/events/:key"), which keeps label cardinality low. 5xx responses
// are logged as errors and slow requests as warnings.
func Metrics(l *applogger.Logger, cfg MetricsConfig) echo.MiddlewareFunc {
	regOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, httpInFlight, httpResponseSize)
	})
	skip := make(map[string]struct{}, len(cfg.Skip))
	for _, r := range cfg.Skip {
		skip[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			if _, ok := skip[route]; ok {
				return next(c)
			}
			method := c.Request().Method

			httpInFlight.Inc()
			defer httpInFlight.Dec()
			start := time.Now()

			if err := next(c); err != nil {
				c.Error(err)
			}

			code := c.Response().Status
			class := StatusClass(code)
			duration := time.Since(start)
			written := c.Response().Size
			cache := "none"
			if cfg.CacheHeader != "" {
				if v := c.Response().Header().Get(cfg.CacheHeader); v != "" {
					cache = v
				}
			}

			httpRequests.WithLabelValues(route, method, class, cache).Inc()
			httpDuration.WithLabelValues(route, method, class).Observe(duration.Seconds())
			httpResponseSize.WithLabelValues(route).Observe(float64(written))

			if l == nil {
				return nil
			}
			switch {
			case code >= 500:
				l.Error("http request failed",
					applogger.String("route", route),
					applogger.String("method", method),
					applogger.String("status", strconv.Itoa(code)),
					applogger.Duration("duration_ms", duration),
				)
			case cfg.SlowThreshold > 0 && duration >= cfg.SlowThreshold:
				l.Warn("http request slow",
					applogger.String("route", route),
					applogger.String("method", method),
					applogger.String("cache", cache),
					applogger.Duration("duration_ms", duration),
					applogger.Int64("bytes", written),
				)
			}
			return nil
		}
	}
}

func StatusClass(code int) string {
	if code < 100 || code >= 600 {
		return "5xx"
	}
	return strconv.Itoa(code/100) + "xx"
}
