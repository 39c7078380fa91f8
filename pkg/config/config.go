package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Logger struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logger"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"fluxcast"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"fluxcast.forecasts"`
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		Compression  string        `yaml:"compression" default:"gzip"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		BatchTimeout time.Duration `yaml:"batch_timeout" default:"1s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"kafka"`
	Cache struct {
		Enabled bool          `yaml:"enabled" default:"true"`
		TTL     time.Duration `yaml:"ttl" default:"5m"`
		Redis   struct {
			Enabled  bool   `yaml:"enabled"`
			Host     string `yaml:"host" default:"localhost"`
			Port     int    `yaml:"port" default:"6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Forecast ForecastConfig `yaml:"forecast"`
}

// ForecastConfig carries every statistical tunable with its production
// default. Zero values in the YAML fall back to these, so an empty
// forecast block is a valid configuration.
type ForecastConfig struct {
	Prior struct {
		Alpha float64 `yaml:"alpha" default:"2.0"`
		Beta  float64 `yaml:"beta" default:"0.5"`
	} `yaml:"prior"`
	Seasonality struct {
		MinMultiplier     float64 `yaml:"min_multiplier" default:"0.3"`
		MaxMultiplier     float64 `yaml:"max_multiplier" default:"3.0"`
		StrongShrinkBelow int     `yaml:"strong_shrink_below" default:"4"`
		MildShrinkBelow   int     `yaml:"mild_shrink_below" default:"8"`
	} `yaml:"seasonality"`
	HistoryDays    int `yaml:"history_days" default:"365"`
	ReferenceDays  int `yaml:"reference_days" default:"90"`
	HorizonDays    int `yaml:"horizon_days" default:"7"`
	MaxHorizonDays int `yaml:"max_horizon_days" default:"90"`
	MonteCarlo     struct {
		Samples int `yaml:"samples" default:"10000"`
		// Seed 0 draws fresh entropy per forecast; set non-zero only for
		// reproducible test runs.
		Seed uint64 `yaml:"seed"`
	} `yaml:"monte_carlo"`
}

// Load reads and parses a YAML configuration file, applying defaults
// for unset fields.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
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

	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Cache.Redis.Host = v
		c.Cache.Redis.Enabled = true
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	f := &c.Forecast
	if f.Prior.Alpha <= 0 || f.Prior.Beta <= 0 {
		return fmt.Errorf("forecast.prior must have positive alpha and beta")
	}
	if f.Seasonality.MinMultiplier <= 0 || f.Seasonality.MinMultiplier >= f.Seasonality.MaxMultiplier {
		return fmt.Errorf("forecast.seasonality multiplier bounds must satisfy 0 < min < max")
	}
	if f.MonteCarlo.Samples < 100 {
		return fmt.Errorf("forecast.monte_carlo.samples must be at least 100, got %d", f.MonteCarlo.Samples)
	}
	if f.HorizonDays < 1 || f.HorizonDays > f.MaxHorizonDays {
		return fmt.Errorf("forecast.horizon_days must be in [1, %d]", f.MaxHorizonDays)
	}
	return nil
}
