package config

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"BrentPulse/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"json" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Source    SourceConfig    `yaml:"source"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Forecast  ForecastConfig  `yaml:"forecast"`
	Cache     CacheConfig     `yaml:"cache"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Events    []EventConfig   `yaml:"events" validate:"dive"`
}

type SourceConfig struct {
	// Type is yahoo (live feed with CSV fallback), csv, clickhouse or postgres.
	Type      string `yaml:"type" default:"yahoo" validate:"oneof=yahoo csv clickhouse postgres"`
	Symbol    string `yaml:"symbol" default:"BZ=F" validate:"required"`
	StartDate string `yaml:"start_date" default:"2007-07-30"`
	Yahoo     struct {
		BaseURL string        `yaml:"base_url" default:"https://query1.finance.yahoo.com"`
		Timeout time.Duration `yaml:"timeout" default:"15s"`
		RPS     float64       `yaml:"rps" default:"1"`
		Burst   int           `yaml:"burst" default:"2"`
	} `yaml:"yahoo"`
	CSV struct {
		Path    string        `yaml:"path" default:"data/brent.csv"`
		URL     string        `yaml:"url"`
		Timeout time.Duration `yaml:"timeout" default:"30s"`
	} `yaml:"csv"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"default"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		Table            string        `yaml:"table" default:"brent_daily"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`
	Postgres struct {
		DSN      string `yaml:"dsn"`
		Table    string `yaml:"table" default:"brent_daily"`
		MaxConns       int32         `yaml:"max_conns" default:"4"`
		ConnectTimeout time.Duration `yaml:"connect_timeout" default:"5s"`
	} `yaml:"postgres"`
	Breaker struct {
		Failures    uint32        `yaml:"failures" default:"3"`
		OpenTimeout time.Duration `yaml:"open_timeout" default:"5m"`
	} `yaml:"breaker"`
}

type AnalysisConfig struct {
	ShortWindow     int           `yaml:"short_window" default:"20" validate:"gte=1"`
	LongWindow      int           `yaml:"long_window" default:"50" validate:"gte=1"`
	VolWindow       int           `yaml:"vol_window" default:"30" validate:"gte=2"`
	MeanWindow      int           `yaml:"mean_window" default:"30" validate:"gte=1"`
	Threshold       float64       `yaml:"threshold" default:"0.2" validate:"gt=0,lt=1"`
	Period          string        `yaml:"period" default:"month" validate:"oneof=day week month year"`
	RefreshInterval time.Duration `yaml:"refresh_interval" default:"1h"`
	WatchFiles      bool          `yaml:"watch_files" default:"true"`
}

type ForecastConfig struct {
	// ModelType is file or http; empty disables forecasting.
	ModelType       string        `yaml:"model_type" default:"file" validate:"omitempty,oneof=file http"`
	ModelPath       string        `yaml:"model_path" default:"models/brent_prophet.json"`
	ModelURL        string        `yaml:"model_url"`
	Timeout         time.Duration `yaml:"timeout" default:"10s"`
	SchedulePeriods int           `yaml:"schedule_periods" default:"90" validate:"gte=1"`
	DefaultHorizon  int           `yaml:"default_horizon" default:"7" validate:"gte=1"`
	MaxHorizon      int           `yaml:"max_horizon" default:"365" validate:"gtefield=DefaultHorizon"`
}

type CacheConfig struct {
	Type       string        `yaml:"type" default:"memory" validate:"oneof=none memory redis"`
	TTL        time.Duration `yaml:"ttl" default:"5m"`
	MaxEntries int           `yaml:"max_entries" default:"1024"`
	Redis      struct {
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"brentpulse:"`
	} `yaml:"redis"`
}

type KafkaConfig struct {
	Brokers      []string `yaml:"brokers"`
	PhaseTopic   string   `yaml:"phase_topic" default:"brent.phases"`
	DigestTopic  string   `yaml:"digest_topic"`
	RequiredAcks int      `yaml:"required_acks" default:"-1" validate:"oneof=-1 0 1"`
	Compression  string   `yaml:"compression" default:"gzip" validate:"oneof=none gzip snappy lz4 zstd"`
	Producer     struct {
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		Linger       time.Duration `yaml:"linger" default:"100ms"`
		BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
		BatchSize    int           `yaml:"batch_size" default:"100"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"producer"`
}

// Enabled reports whether any broker is configured.
func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" default:"20"`
	Burst int     `yaml:"burst" default:"40"`
}

type EventConfig struct {
	Key   string `yaml:"key" validate:"required"`
	Title string `yaml:"title" validate:"required"`
	Date  string `yaml:"date" validate:"required"`
	From  string `yaml:"from" validate:"required"`
	To    string `yaml:"to" validate:"required"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse applies defaults, then the YAML document, then validates.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("BRENT_ENV"); v != "" {
		c.Environment = v
	}
	if v := getenv("BRENT_SOURCE"); v != "" {
		c.Source.Type = v
	}
	if v := getenv("BRENT_FALLBACK_CSV"); v != "" {
		c.Source.CSV.Path = v
	}
	if v := getenv("BRENT_MODEL_PATH"); v != "" {
		c.Forecast.ModelType = "file"
		c.Forecast.ModelPath = v
	}
	if v := getenv("BRENT_MODEL_URL"); v != "" {
		c.Forecast.ModelType = "http"
		c.Forecast.ModelURL = v
	}
	if v := getenv("BRENT_PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
	if v := getenv("BRENT_THRESHOLD"); v != "" {
		c.Analysis.Threshold = util.ParseFloatDefault(v, c.Analysis.Threshold)
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitList(v)
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Cache.Type = "redis"
		c.Cache.Redis.Addr = v
	}
}

// Validate checks struct tags and the cross-field rules tags can't express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Analysis.ShortWindow > c.Analysis.LongWindow {
		return fmt.Errorf("analysis.short_window (%d) exceeds long_window (%d)", c.Analysis.ShortWindow, c.Analysis.LongWindow)
	}
	switch c.Source.Type {
	case "clickhouse":
		if c.Source.ClickHouse.Host == "" {
			return fmt.Errorf("source.clickhouse.host is required")
		}
	case "postgres":
		if c.Source.Postgres.DSN == "" {
			return fmt.Errorf("source.postgres.dsn is required")
		}
	case "csv":
		if c.Source.CSV.Path == "" && c.Source.CSV.URL == "" {
			return fmt.Errorf("source.csv.path or source.csv.url is required")
		}
	}
	if c.Forecast.ModelType == "http" && c.Forecast.ModelURL == "" {
		return fmt.Errorf("forecast.model_url is required")
	}
	seen := make(map[string]struct{}, len(c.Events))
	for _, e := range c.Events {
		if _, dup := seen[e.Key]; dup {
			return fmt.Errorf("events: duplicate key %q", e.Key)
		}
		seen[e.Key] = struct{}{}
	}
	return nil
}
