// Package config loads process configuration from defaults, an optional YAML
// file named by CONFIG_FILE and environment overrides, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/LocalHostDiluk/reinicializado/internal/infrastructure/redis"
	"github.com/LocalHostDiluk/reinicializado/pkg/kafka"
	"github.com/LocalHostDiluk/reinicializado/pkg/mongodb"
)

// Sequence counter backends.
const (
	SequenceBackendMongo = "mongo"
	SequenceBackendRedis = "redis"
)

// Config is the configuration shared by the retail processes.
type Config struct {
	ServiceName string `yaml:"service_name"`
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`

	Server   ServerConfig   `yaml:"server"`
	MongoDB  mongodb.Config `yaml:"mongodb"`
	Kafka    kafka.Config   `yaml:"kafka"`
	Redis    redis.Config   `yaml:"redis"`
	Tracing  TracingConfig  `yaml:"tracing"`
	Sequence SequenceConfig `yaml:"sequence"`
	Outbox   OutboxConfig   `yaml:"outbox"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	OpenAPIValidation bool          `yaml:"openapi_validation"`
}

// TracingConfig configures the OTLP exporter.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate"`
}

// SequenceConfig selects where document numbers are counted.
type SequenceConfig struct {
	Backend string `yaml:"backend"`
}

// OutboxConfig tunes the outbox relay.
type OutboxConfig struct {
	PollInterval   time.Duration `yaml:"poll_interval"`
	BatchSize      int           `yaml:"batch_size"`
	MaxRetries     int           `yaml:"max_retries"`
	ValidateEvents bool          `yaml:"validate_events"`
}

// Default returns the configuration used when nothing overrides it.
func Default(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Environment: "development",
		LogLevel:    "info",
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  30 * time.Second,
		},
		MongoDB: *mongodb.DefaultConfig(),
		Kafka:   *kafka.DefaultConfig(),
		Redis:   redis.Config{Addr: "localhost:6379", PoolSize: 10},
		Tracing: TracingConfig{
			Enabled:      true,
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
		Sequence: SequenceConfig{Backend: SequenceBackendMongo},
		Outbox: OutboxConfig{
			PollInterval:   time.Second,
			BatchSize:      100,
			MaxRetries:     10,
			ValidateEvents: true,
		},
	}
}

// Load builds the configuration for serviceName.
func Load(serviceName string) (*Config, error) {
	cfg := Default(serviceName)

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Server.Addr = getEnv("SERVER_ADDR", c.Server.Addr)
	c.MongoDB.URI = getEnv("MONGODB_URI", c.MongoDB.URI)
	c.MongoDB.Database = getEnv("MONGODB_DATABASE", c.MongoDB.Database)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Tracing.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.Tracing.OTLPEndpoint)
	c.Sequence.Backend = strings.ToLower(getEnv("SEQUENCE_BACKEND", c.Sequence.Backend))

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		c.Kafka.Brokers = splitList(brokers)
	}

	var err error
	if c.Tracing.Enabled, err = getEnvBool("TRACING_ENABLED", c.Tracing.Enabled); err != nil {
		return err
	}
	if c.Server.OpenAPIValidation, err = getEnvBool("OPENAPI_VALIDATION", c.Server.OpenAPIValidation); err != nil {
		return err
	}
	if c.Outbox.ValidateEvents, err = getEnvBool("OUTBOX_VALIDATE_EVENTS", c.Outbox.ValidateEvents); err != nil {
		return err
	}
	return nil
}

// Validate rejects configurations the processes cannot start with.
func (c *Config) Validate() error {
	if c.MongoDB.URI == "" || c.MongoDB.Database == "" {
		return fmt.Errorf("mongodb uri and database are required")
	}
	switch c.Sequence.Backend {
	case SequenceBackendMongo:
	case SequenceBackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis addr is required by the redis sequence backend")
		}
	default:
		return fmt.Errorf("unknown sequence backend %q", c.Sequence.Backend)
	}
	if c.Outbox.BatchSize <= 0 {
		return fmt.Errorf("outbox batch size must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
