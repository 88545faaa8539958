package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"GoldPulse/pkg/util"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"2s"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Fetcher struct {
		PriceEndpoint  string        `yaml:"price_endpoint" default:"https://api.goldprice.yanrrd.com/price"`
		Currency       string        `yaml:"currency" default:"cny"`
		Unit           string        `yaml:"unit" default:"grams"`
		MaxAttempts    int           `yaml:"max_attempts" default:"3"`
		Backoff        time.Duration `yaml:"backoff" default:"1s"`
		AttemptTimeout time.Duration `yaml:"attempt_timeout" default:"10s"`
		FallbackWindow time.Duration `yaml:"fallback_window" default:"48h"`
		UserAgent      string        `yaml:"user_agent" default:"Mozilla/5.0 (Compatible; GoldPulse)"`
	} `yaml:"fetcher"`
	Periods struct {
		Day   time.Duration `yaml:"day" default:"24h"`
		Week  time.Duration `yaml:"week" default:"168h"`
		Month time.Duration `yaml:"month" default:"720h"`
	} `yaml:"periods"`
	Refresh struct {
		Interval time.Duration `yaml:"interval" default:"60s"`
	} `yaml:"refresh"`
	Status struct {
		StaleWithRemote time.Duration `yaml:"stale_with_remote" default:"45m"`
		Stale           time.Duration `yaml:"stale" default:"15m"`
		Closed          time.Duration `yaml:"closed" default:"2h"`
		Schedule        struct {
			Enabled                bool   `yaml:"enabled" default:"true"`
			Timezone               string `yaml:"timezone" default:"America/New_York"`
			WeekOpenMinute         int    `yaml:"week_open_minute" default:"1080"`
			WeekCloseMinute        int    `yaml:"week_close_minute" default:"1020"`
			MaintenanceStartMinute int    `yaml:"maintenance_start_minute" default:"1020"`
			MaintenanceEndMinute   int    `yaml:"maintenance_end_minute" default:"1080"`
		} `yaml:"schedule"`
		Remote struct {
			Enabled    bool          `yaml:"enabled"`
			Endpoint   string        `yaml:"endpoint" default:"https://www.alphavantage.co/query?function=MARKET_STATUS"`
			APIKey     string        `yaml:"api_key"`
			MarketType string        `yaml:"market_type" default:"Forex"`
			TTL        time.Duration `yaml:"ttl" default:"5m"`
			Timeout    time.Duration `yaml:"timeout" default:"10s"`
		} `yaml:"remote"`
	} `yaml:"status"`
	Display struct {
		Timezone       string `yaml:"timezone" default:"Local"`
		ChartMaxPoints int    `yaml:"chart_max_points" default:"240"`
	} `yaml:"display"`
	Proxy struct {
		Enabled         bool          `yaml:"enabled" default:"true"`
		UpstreamBaseURL string        `yaml:"upstream_base_url" default:"https://fsapi.gold.org/api/goldprice/v11/chart/price"`
		Timeout         time.Duration `yaml:"timeout" default:"15s"`
		FallbackWindow  time.Duration `yaml:"fallback_window" default:"48h"`
		DefaultWindow   time.Duration `yaml:"default_window" default:"10m"`
		CacheTTL        time.Duration `yaml:"cache_ttl" default:"15s"`
		RateCapacity    float64       `yaml:"rate_capacity" default:"20"`
		RatePerSecond   float64       `yaml:"rate_per_second" default:"5"`
	} `yaml:"proxy"`
	Cache struct {
		Backend string `yaml:"backend" default:"memory"`
		Redis   struct {
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		DisplayTopic string        `yaml:"display_topic" default:"goldpulse.display"`
		LogTopic     string        `yaml:"log_topic" default:"goldpulse.logs"`
		Compression  string        `yaml:"compression" default:"gzip"`
		RequiredAcks int           `yaml:"required_acks" default:"1"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"kafka"`
	Stream struct {
		Enabled      bool          `yaml:"enabled" default:"true"`
		PingInterval time.Duration `yaml:"ping_interval" default:"30s"`
		ClientBuffer int           `yaml:"client_buffer" default:"8"`
	} `yaml:"stream"`
}

// Default returns a configuration populated only from struct defaults.
func Default() *Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &c
}

// Load reads and parses a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes on top of the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := c.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return c, nil
}

// ApplyEnv overrides selected fields from the environment and re-validates.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("GOLDPULSE_ENV"); v != "" {
		c.Environment = v
	}
	if v := getenv("HTTP_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HTTP_PORT: %w", err)
		}
		c.Server.Port = p
	}
	if v := getenv("PRICE_ENDPOINT"); v != "" {
		c.Fetcher.PriceEndpoint = v
	}
	if v := getenv("MARKET_STATUS_API_KEY"); v != "" {
		c.Status.Remote.APIKey = v
		c.Status.Remote.Enabled = true
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Backend = "redis"
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitCSV(v)
		c.Kafka.Enabled = true
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return c.Validate()
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Fetcher.PriceEndpoint == "" {
		return fmt.Errorf("fetcher.price_endpoint is required")
	}
	if c.Fetcher.MaxAttempts < 1 {
		return fmt.Errorf("fetcher.max_attempts must be >= 1, got %d", c.Fetcher.MaxAttempts)
	}
	if c.Periods.Day <= 0 || c.Periods.Week <= 0 || c.Periods.Month <= 0 {
		return fmt.Errorf("periods must be positive")
	}
	if c.Refresh.Interval < time.Second {
		return fmt.Errorf("refresh.interval must be at least 1s, got %s", c.Refresh.Interval)
	}
	if c.Cache.Backend != "memory" && c.Cache.Backend != "redis" {
		return fmt.Errorf("cache.backend must be 'memory' or 'redis', got '%s'", c.Cache.Backend)
	}
	if c.Status.Remote.Enabled && c.Status.Remote.APIKey == "" {
		return fmt.Errorf("status.remote.api_key is required when remote status is enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Display.ChartMaxPoints < 2 {
		return fmt.Errorf("display.chart_max_points must be >= 2")
	}
	return nil
}
