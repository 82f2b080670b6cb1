package di

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"BrentPulse/internal/domain/models"
	"BrentPulse/internal/domain/repository"
	domsvc "BrentPulse/internal/domain/service"
	"BrentPulse/internal/handler/api"
	"BrentPulse/internal/handler/ws"
	internalrepo "BrentPulse/internal/repository"
	icache "BrentPulse/internal/service/cache"
	"BrentPulse/internal/service/ratelimit"
	"BrentPulse/internal/service/yahoo"
	"BrentPulse/internal/services/forecast"
	"BrentPulse/internal/services/regime"
	"BrentPulse/internal/usecase"
	pkgch "BrentPulse/pkg/clickhouse"
	"BrentPulse/pkg/config"
	xhttp "BrentPulse/pkg/http"
	pkgkafka "BrentPulse/pkg/kafka"
	applogger "BrentPulse/pkg/logger"
	"BrentPulse/pkg/metrics"
	"BrentPulse/pkg/postgres"
	"BrentPulse/pkg/server"
	"BrentPulse/pkg/util"
)

// ProvideKafkaProducer creates a Kafka producer, or nil when no broker is
// configured.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled() {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithClientID("brentpulse-"+cfg.Environment),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithWriteTimeout(cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideLogger builds the application logger. Error logs are aggregated into
// digests on the digest topic when Kafka is enabled.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if producer != nil && cfg.Kafka.DigestTopic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.DigestTopic,
			Publisher:      producer,
		})
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCSVSource creates the static CSV source used as the fallback of the
// live feed or as the primary source.
func ProvideCSVSource(cfg *config.Config, l *applogger.Logger) *internalrepo.CSVPriceSource {
	opts := []internalrepo.CSVOption{}
	if cfg.Source.CSV.Path != "" {
		opts = append(opts, internalrepo.WithCSVPath(cfg.Source.CSV.Path))
	} else if cfg.Source.CSV.URL != "" {
		opts = append(opts, internalrepo.WithCSVURL(cfg.Source.CSV.URL, cfg.Source.CSV.Timeout))
	}
	src := internalrepo.NewCSVPriceSource(opts...)
	src.SetLogger(l)
	return src
}

// ProvidePriceSource selects the configured price source. The returned
// cleanup closes any database client the source owns.
func ProvidePriceSource(cfg *config.Config, l *applogger.Logger, m repository.Metrics, csv *internalrepo.CSVPriceSource) (repository.PriceSource, func(), error) {
	switch cfg.Source.Type {
	case "csv":
		return csv, func() {}, nil
	case "clickhouse":
		ch := cfg.Source.ClickHouse
		client, err := pkgch.NewClient(
			pkgch.WithHost(ch.Host),
			pkgch.WithPort(ch.Port),
			pkgch.WithDatabase(ch.Database),
			pkgch.WithCredentials(ch.User, ch.Password),
			pkgch.WithMaxConnections(4, 2),
			pkgch.WithHTTP(ch.UseHTTP),
			pkgch.WithReadOnly(true),
			pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout),
			pkgch.WithMaxExecutionTime(ch.MaxExecutionTime),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("clickhouse client: %w", err)
		}
		src, err := internalrepo.NewCHPriceSource(client, ch.Table)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		src.SetLogger(l)
		return src, func() { _ = client.Close() }, nil
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		pool, err := postgres.NewPool(ctx, cfg.Source.Postgres.DSN,
			postgres.WithMaxConns(cfg.Source.Postgres.MaxConns),
			postgres.WithConnectTimeout(cfg.Source.Postgres.ConnectTimeout),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres pool: %w", err)
		}
		src := internalrepo.NewPGPriceSource(pool, cfg.Source.Postgres.Table)
		src.SetLogger(l)
		return src, pool.Close, nil
	default:
		feed := yahoo.New(
			yahoo.WithBaseURL(cfg.Source.Yahoo.BaseURL),
			yahoo.WithRateLimit(cfg.Source.Yahoo.RPS, cfg.Source.Yahoo.Burst),
			yahoo.WithHTTPClient(xhttp.NewClient(
				xhttp.WithTimeout(cfg.Source.Yahoo.Timeout),
				xhttp.WithUserAgent("Mozilla/5.0 (compatible; BrentPulse/1.0)"),
				xhttp.WithRetry(3, time.Second),
			)),
			yahoo.WithLogger(l),
		)
		src := internalrepo.NewFallbackSource(feed, csv,
			internalrepo.WithBreaker(cfg.Source.Breaker.Failures, cfg.Source.Breaker.OpenTimeout),
			internalrepo.WithFallbackLogger(l),
			internalrepo.WithFallbackMetrics(m),
		)
		return src, func() {}, nil
	}
}

// ProvideForecastHolder loads the configured model. A missing model file is
// not fatal: forecasts report unavailable until the file appears.
func ProvideForecastHolder(cfg *config.Config, l *applogger.Logger) (*forecast.Holder, error) {
	switch cfg.Forecast.ModelType {
	case "http":
		return forecast.NewHolder(forecast.NewHTTPModel(cfg.Forecast.ModelURL, cfg.Forecast.Timeout)), nil
	case "file":
		m, err := forecast.LoadFileModel(cfg.Forecast.ModelPath)
		if errors.Is(err, fs.ErrNotExist) {
			l.Warn("forecast model file not found", applogger.String("path", cfg.Forecast.ModelPath))
			return &forecast.Holder{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("forecast model: %w", err)
		}
		return forecast.NewHolder(m), nil
	default:
		return &forecast.Holder{}, nil
	}
}

func ProvideSegmenter(cfg *config.Config) *regime.Segmenter {
	return regime.NewSegmenter(
		regime.WithThreshold(cfg.Analysis.Threshold),
		regime.WithPeriod(models.Period(cfg.Analysis.Period)),
	)
}

func ProvideForecastAdapter(cfg *config.Config) *forecast.Adapter {
	return forecast.NewAdapter(forecast.WithSchedulePeriods(cfg.Forecast.SchedulePeriods))
}

// ProvideEvents converts the configured events.
func ProvideEvents(cfg *config.Config) ([]models.Event, error) {
	out := make([]models.Event, 0, len(cfg.Events))
	for _, e := range cfg.Events {
		date, ok1 := util.ParseDay(e.Date)
		from, ok2 := util.ParseDay(e.From)
		to, ok3 := util.ParseDay(e.To)
		if !ok1 || !ok2 || !ok3 {
			return nil, fmt.Errorf("event %q: unparseable date", e.Key)
		}
		if to.Before(from) {
			return nil, fmt.Errorf("event %q: to before from", e.Key)
		}
		out = append(out, models.Event{
			Key:   e.Key,
			Title: e.Title,
			Date:  date,
			From:  from,
			To:    to,
		})
	}
	return out, nil
}

func ProvideMarketAnalysis(
	cfg *config.Config,
	l *applogger.Logger,
	source repository.PriceSource,
	segmenter *regime.Segmenter,
	adapter *forecast.Adapter,
	holder *forecast.Holder,
	m repository.Metrics,
	events []models.Event,
) (*usecase.MarketAnalysis, error) {
	var start time.Time
	if cfg.Source.StartDate != "" {
		t, ok := util.ParseDay(cfg.Source.StartDate)
		if !ok {
			return nil, fmt.Errorf("source.start_date: unparseable %q", cfg.Source.StartDate)
		}
		start = t
	}
	a := usecase.NewMarketAnalysis(source, segmenter, adapter, holder, m, usecase.AnalysisParams{
		Symbol:         cfg.Source.Symbol,
		Start:          start,
		ShortWindow:    cfg.Analysis.ShortWindow,
		LongWindow:     cfg.Analysis.LongWindow,
		VolWindow:      cfg.Analysis.VolWindow,
		MeanWindow:     cfg.Analysis.MeanWindow,
		MaxHorizonDays: cfg.Forecast.MaxHorizon,
	}, events)
	a.SetLogger(l)
	return a, nil
}

// ProvidePhasePublisher publishes phase events to Kafka when enabled.
func ProvidePhasePublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.PhasePublisher {
	if producer == nil {
		return internalrepo.NopPhasePublisher{}
	}
	return internalrepo.NewKafkaPhasePublisher(producer, cfg.Kafka.PhaseTopic)
}

func ProvideHub(l *applogger.Logger) *ws.Hub {
	return ws.NewHub(ws.WithLogger(l))
}

func ProvideRefresher(
	cfg *config.Config,
	l *applogger.Logger,
	analysis *usecase.MarketAnalysis,
	m repository.Metrics,
	pub repository.PhasePublisher,
	hub *ws.Hub,
	holder *forecast.Holder,
	csv *internalrepo.CSVPriceSource,
) *usecase.Refresher {
	opts := []usecase.RefresherOption{
		usecase.WithInterval(cfg.Analysis.RefreshInterval),
		usecase.WithPublisher(pub),
		usecase.WithBroadcaster(hub),
		usecase.WithRefresherLogger(l),
	}
	if cfg.Analysis.WatchFiles {
		if cfg.Source.Type == "csv" || cfg.Source.Type == "yahoo" {
			opts = append(opts, usecase.WithWatchedData(csv.Path()))
		}
		if cfg.Forecast.ModelType == "file" {
			opts = append(opts, usecase.WithWatchedModel(cfg.Forecast.ModelPath, holder, loadFileModel))
		}
	}
	return usecase.NewRefresher(analysis, m, opts...)
}

func loadFileModel(path string) (domsvc.ForecastModel, error) {
	return forecast.LoadFileModel(path)
}

func ProvideDashboard(analysis *usecase.MarketAnalysis) *usecase.DashboardUseCase {
	return usecase.NewDashboardUseCase(analysis)
}

// ProvideResponseCache builds the response cache: in-process only, or a
// memory layer in front of Redis. It returns nil when caching is off.
func ProvideResponseCache(cfg *config.Config, l *applogger.Logger) (icache.BytesCache, func(), error) {
	switch cfg.Cache.Type {
	case "memory":
		return icache.NewTTLCache(cfg.Cache.MaxEntries), func() {}, nil
	case "redis":
		rc := icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			Prefix:   cfg.Cache.Redis.Prefix,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rc.Ping(ctx); err != nil {
			_ = rc.Close()
			return nil, nil, fmt.Errorf("response cache: %w", err)
		}
		l.Info("response cache connected", applogger.String("addr", cfg.Cache.Redis.Addr))
		return icache.NewLayered(icache.NewTTLCache(cfg.Cache.MaxEntries), rc, cfg.Cache.TTL/5), func() { _ = rc.Close() }, nil
	default:
		return nil, func() {}, nil
	}
}

func ProvideAnalysisHandler(
	cfg *config.Config,
	l *applogger.Logger,
	analysis *usecase.MarketAnalysis,
	dashboard *usecase.DashboardUseCase,
	cache icache.BytesCache,
) *api.AnalysisEchoHandler {
	h := api.NewAnalysisEchoHandler(l, analysis, dashboard)
	if cache != nil {
		h.SetCache(cache, cfg.Cache.TTL)
	}
	return h
}

func ProvideHealthHandler(analysis *usecase.MarketAnalysis) *api.HealthHandler {
	return api.NewHealthHandler(analysis)
}

// ProvideHTTPServer creates the echo server with every route registered.
func ProvideHTTPServer(
	cfg *config.Config,
	l *applogger.Logger,
	analysis *api.AnalysisEchoHandler,
	health *api.HealthHandler,
	hub *ws.Hub,
) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
	}
	if cfg.RateLimit.RPS > 0 {
		limiter := ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst, 10*time.Minute)
		opts = append(opts, xhttp.WithMiddleware(ratelimit.Middleware(limiter)))
	}
	return xhttp.NewServer(l, []xhttp.Handler{analysis, health, hub}, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	refresher *usecase.Refresher,
	httpServer *xhttp.Server,
	hub *ws.Hub,
) *server.App {
	return server.New(cfg, l, refresher, httpServer, hub)
}
