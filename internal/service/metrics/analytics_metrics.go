package metrics

import (
    "sync"

    "github.com/prometheus/client_golang/prometheus"
)

var (
    once sync.Once

    AnalyticsLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "brentpulse",
            Subsystem: "api",
            Name:      "latency_seconds",
            Help:      "Latency of analytics endpoints",
            Buckets:   prometheus.DefBuckets,
        },
        []string{"endpoint"},
    )

    AnalyticsErrors = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "brentpulse",
            Subsystem: "api",
            Name:      "errors_total",
            Help:      "Errors by analytics endpoint and code",
        },
        []string{"endpoint", "code"},
    )

    CacheLookups = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "brentpulse",
            Subsystem: "api",
            Name:      "cache_lookups_total",
            Help:      "Response cache lookups by endpoint and result",
        },
        []string{"endpoint", "result"},
    )

    WSClients = prometheus.NewGauge(
        prometheus.GaugeOpts{
            Namespace: "brentpulse",
            Subsystem: "ws",
            Name:      "clients",
            Help:      "Connected websocket clients",
        },
    )
)

func Register() {
    once.Do(func() {
        prometheus.MustRegister(AnalyticsLatency, AnalyticsErrors, CacheLookups, WSClients)
    })
}

// CacheResult labels a lookup as hit or miss.
func CacheResult(hit bool) string {
    if hit {
        return "hit"
    }
    return "miss"
}
