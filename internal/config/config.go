// Package config loads and validates elementstore's configuration (spec §8
// ambient stack), grounded on the teacher's internal/config: a single
// struct tagged for both YAML and github.com/go-playground/validator/v10,
// loaded from a file and overlaid with environment variables, with struct
// tags documenting the valid range of every field rather than hiding it in
// a separate rule set.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment names the deployment tier.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Config is the complete configuration for an elementstore server process.
type Config struct {
	Environment Environment `yaml:"environment" validate:"required,oneof=development staging production"`
	Server      Server      `yaml:"server" validate:"required,dive"`
	Store       Store       `yaml:"store" validate:"required,dive"`
	Logging     Logging     `yaml:"logging" validate:"dive"`
	Tracing     Tracing     `yaml:"tracing" validate:"dive"`
}

// Server contains HTTP server configuration for the operation surface.
type Server struct {
	Address         string        `yaml:"address" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"required,min=1s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" validate:"required,min=1s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"required,min=1s"`
}

// Store contains the tablet-engine binding configuration: which AWS
// DynamoDB table backs the store, and which key package lays elements out
// on it.
type Store struct {
	Region       string        `yaml:"region" validate:"required"`
	Endpoint     string        `yaml:"endpoint" validate:"omitempty,url"` // LocalStack / local DynamoDB
	Table        string        `yaml:"table" validate:"required,min=3,max=255"`
	KeyPackage   string        `yaml:"key_package" validate:"required,oneof=byteentity classic"`
	MaxRetries   int           `yaml:"max_retries" validate:"min=0,max=10"`
	Timeout      time.Duration `yaml:"timeout" validate:"min=1s,max=5m"`
	CircuitBreak CircuitBreak  `yaml:"circuit_breaker" validate:"dive"`
}

// CircuitBreak configures the gobreaker wrapping every store call.
type CircuitBreak struct {
	MinimumRequests  uint32        `yaml:"minimum_requests" validate:"min=1,max=1000"`
	FailureRatio     float64       `yaml:"failure_ratio" validate:"min=0,max=1"`
	OpenDuration     time.Duration `yaml:"open_duration" validate:"min=1s,max=5m"`
	HalfOpenRequests uint32        `yaml:"half_open_requests" validate:"min=1,max=100"`
}

// Logging configures the zap logger.
type Logging struct {
	Level     string `yaml:"level" validate:"oneof=debug info warn error"`
	Format    string `yaml:"format" validate:"oneof=json console"`
	Sampling  bool   `yaml:"sampling"`
}

// Tracing configures the OpenTelemetry tracer.
type Tracing struct {
	Enabled        bool    `yaml:"enabled"`
	OTLPEndpoint   string  `yaml:"otlp_endpoint" validate:"omitempty,hostname_port"`
	SampleRatio    float64 `yaml:"sample_ratio" validate:"min=0,max=1"`
	ServiceName    string  `yaml:"service_name" validate:"required_if=Enabled true"`
}

func defaults() Config {
	return Config{
		Environment: Development,
		Server: Server{
			Address:         ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Store: Store{
			Region:     "us-west-2",
			Table:      "elementstore",
			KeyPackage: "byteentity",
			MaxRetries: 3,
			Timeout:    5 * time.Second,
			CircuitBreak: CircuitBreak{
				MinimumRequests:  5,
				FailureRatio:     0.5,
				OpenDuration:     30 * time.Second,
				HalfOpenRequests: 3,
			},
		},
		Logging: Logging{Level: "info", Format: "json"},
		Tracing: Tracing{Enabled: false, SampleRatio: 0.1},
	}
}

// Load reads configuration from the YAML file at path (if non-empty and
// present), overlays recognised environment variables, fills any unset
// field from defaults(), and validates the result.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("config: parsing %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	overlayEnv(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// overlayEnv lets a handful of environment variables override file-loaded
// values, for the knobs most often set per-deployment rather than checked
// into a config file.
func overlayEnv(cfg *Config) {
	if v := os.Getenv("ELEMENTSTORE_ENVIRONMENT"); v != "" {
		cfg.Environment = Environment(v)
	}
	if v := os.Getenv("ELEMENTSTORE_STORE_TABLE"); v != "" {
		cfg.Store.Table = v
	}
	if v := os.Getenv("ELEMENTSTORE_STORE_ENDPOINT"); v != "" {
		cfg.Store.Endpoint = v
	}
	if v := os.Getenv("ELEMENTSTORE_STORE_REGION"); v != "" {
		cfg.Store.Region = v
	}
	if v := os.Getenv("ELEMENTSTORE_STORE_KEYPACKAGE"); v != "" {
		cfg.Store.KeyPackage = v
	}
	if v := os.Getenv("ELEMENTSTORE_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("ELEMENTSTORE_TRACING_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tracing.Enabled = b
		}
	}
}

var validate = validator.New()

// Validate runs struct-tag validation over cfg.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
