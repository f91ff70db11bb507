// Package config provides configuration management for the PubMed fetch service.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the PubMed fetch service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Eutils contains NCBI E-utilities client settings.
	Eutils EutilsConfig `mapstructure:"eutils"`
	// Batch contains batch orchestration settings.
	Batch BatchConfig `mapstructure:"batch"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// Port is the HTTP server port (default: 8080).
	Port int `mapstructure:"port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// IdleTimeout is the maximum idle time for keep-alive connections.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Address returns the HTTP server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for the metrics endpoint.
	Path string `mapstructure:"path"`
	// Namespace prefixes all metric names.
	Namespace string `mapstructure:"namespace"`
}

// EutilsConfig holds NCBI E-utilities client settings.
type EutilsConfig struct {
	// BaseURL is the E-utilities API base URL.
	BaseURL string `mapstructure:"base_url"`
	// APIKey is the NCBI API key (loaded only from the environment
	// variable PUBMEDFETCH_EUTILS_API_KEY).
	APIKey string `mapstructure:"-"`
	// Tool identifies this client to NCBI.
	Tool string `mapstructure:"tool"`
	// Email is the contact address sent with every request.
	Email string `mapstructure:"email"`
	// Timeout is the per-request timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second (0 picks the NCBI
	// default for the key configuration).
	RateLimit float64 `mapstructure:"rate_limit"`
	// BurstSize is the maximum request burst.
	BurstSize int `mapstructure:"burst_size"`
	// MaxResults is the default search window size.
	MaxResults int `mapstructure:"max_results"`
}

// BatchConfig holds batch orchestration settings.
type BatchConfig struct {
	// MaxIdentifiers bounds how many identifiers one batch request may carry.
	MaxIdentifiers int `mapstructure:"max_identifiers"`
	// ChunkSizes overrides per-operation-kind chunk sizes, keyed by kind name.
	ChunkSizes map[string]int `mapstructure:"chunk_sizes"`
	// Delays overrides per-operation-kind inter-chunk delays, keyed by kind name.
	Delays map[string]time.Duration `mapstructure:"delays"`
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("PUBMEDFETCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/pubmed-fetch-service")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// The API key is a secret and is never read from config files.
	cfg.Eutils.APIKey = os.Getenv("PUBMEDFETCH_EUTILS_API_KEY")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults registers default values for all configuration keys.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)
	v.SetDefault("server.idle_timeout", time.Minute)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "pubmedfetch")

	v.SetDefault("eutils.base_url", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils")
	v.SetDefault("eutils.tool", "pubmed-fetch-service")
	v.SetDefault("eutils.email", "")
	v.SetDefault("eutils.timeout", 30*time.Second)
	v.SetDefault("eutils.rate_limit", 0.0)
	v.SetDefault("eutils.burst_size", 3)
	v.SetDefault("eutils.max_results", 20)

	v.SetDefault("batch.max_identifiers", 50)
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Eutils.BaseURL == "" {
		return errors.New("eutils.base_url is required")
	}
	if _, err := url.Parse(c.Eutils.BaseURL); err != nil {
		return fmt.Errorf("eutils.base_url is not a valid URL: %w", err)
	}
	if c.Eutils.RateLimit < 0 {
		return fmt.Errorf("eutils.rate_limit must not be negative, got %f", c.Eutils.RateLimit)
	}
	if c.Eutils.MaxResults < 0 {
		return fmt.Errorf("eutils.max_results must not be negative, got %d", c.Eutils.MaxResults)
	}
	if c.Batch.MaxIdentifiers <= 0 {
		return fmt.Errorf("batch.max_identifiers must be positive, got %d", c.Batch.MaxIdentifiers)
	}
	for kind, size := range c.Batch.ChunkSizes {
		if size <= 0 {
			return fmt.Errorf("batch.chunk_sizes.%s must be positive, got %d", kind, size)
		}
	}
	for kind, delay := range c.Batch.Delays {
		if delay < 0 {
			return fmt.Errorf("batch.delays.%s must not be negative, got %s", kind, delay)
		}
	}
	return nil
}
