package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/tvnz/video-generator/internal/domain/generation"
	"github.com/tvnz/video-generator/internal/model"
)

// DefaultMaxUploadBytes is the largest accepted request body (16 MiB).
const DefaultMaxUploadBytes int64 = 16 << 20

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	HTTPClient HTTPClientConfig `mapstructure:"http_client"`
	Runway     RunwayConfig     `mapstructure:"runway"`
	Upload     UploadConfig     `mapstructure:"upload"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Log        LogConfig        `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address        string        `mapstructure:"address"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	SwaggerEnabled bool          `mapstructure:"swagger_enabled"`
}

// HTTPClientConfig holds HTTP client configuration for connection pooling.
type HTTPClientConfig struct {
	// Connection pool settings
	MaxIdleConns        int           `mapstructure:"max_idle_conns"`
	MaxIdleConnsPerHost int           `mapstructure:"max_idle_conns_per_host"`
	MaxConnsPerHost     int           `mapstructure:"max_conns_per_host"`
	IdleConnTimeout     time.Duration `mapstructure:"idle_conn_timeout"`

	// Timeout settings
	DialTimeout         time.Duration `mapstructure:"dial_timeout"`
	TLSHandshakeTimeout time.Duration `mapstructure:"tls_handshake_timeout"`
	ResponseTimeout     time.Duration `mapstructure:"response_timeout"`

	// Keep-alive settings
	KeepAlive time.Duration `mapstructure:"keep_alive"`
}

// RunwayConfig holds the upstream generation API configuration.
type RunwayConfig struct {
	APIToken      string `mapstructure:"api_token"`
	BaseURL       string `mapstructure:"base_url"`
	APIVersion    string `mapstructure:"api_version"`
	Model         string `mapstructure:"model"`
	Ratio         string `mapstructure:"ratio"`
	Duration      int    `mapstructure:"duration"`
	DefaultPrompt string `mapstructure:"default_prompt"`

	// Timeout bounds a single upstream call including retries.
	Timeout              time.Duration `mapstructure:"timeout"`
	MaxRetries           uint64        `mapstructure:"max_retries"`
	RetryInitialInterval time.Duration `mapstructure:"retry_initial_interval"`

	// Circuit breaker
	BreakerFailureThreshold uint32        `mapstructure:"breaker_failure_threshold"`
	BreakerOpenTimeout      time.Duration `mapstructure:"breaker_open_timeout"`
}

// Parameters returns the fixed generation parameters.
func (c *RunwayConfig) Parameters() model.GenerationParameters {
	return model.GenerationParameters{
		Model:         c.Model,
		Ratio:         c.Ratio,
		Duration:      c.Duration,
		DefaultPrompt: c.DefaultPrompt,
	}
}

// UploadConfig holds upload handling configuration.
type UploadConfig struct {
	Dir               string   `mapstructure:"dir"`
	MaxBytes          int64    `mapstructure:"max_bytes"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// MetricsConfig holds Prometheus configuration.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from .env, config file and environment.
func Load() (*Config, error) {
	// A missing .env file is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()

	// Set config file name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/videogen")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found, use defaults and env
	}

	return fromViper(v)
}

// fromViper binds environment variables, unmarshals and validates.
func fromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("VIDEOGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyEnvOverrides(&cfg, v)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnvOverrides applies the well-known variables used by hosting platforms.
func applyEnvOverrides(cfg *Config, v *viper.Viper) {
	if token := os.Getenv("RUNWAY_API_TOKEN"); token != "" {
		cfg.Runway.APIToken = token
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Address = ":" + port
	}
	// Only /tmp is writable on AWS App Runner.
	if os.Getenv("AWS_EXECUTION_ENV") != "" && !v.InConfig("upload.dir") && os.Getenv("VIDEOGEN_UPLOAD_DIR") == "" {
		cfg.Upload.Dir = "/tmp/uploads"
	}
	if s := os.Getenv("VIDEOGEN_UPLOAD_ALLOWED_EXTENSIONS"); s != "" {
		cfg.Upload.AllowedExtensions = parseCommaSeparatedList(s)
	}
	if s := os.Getenv("VIDEOGEN_CORS_ALLOW_ORIGINS"); s != "" {
		cfg.CORS.AllowOrigins = parseCommaSeparatedList(s)
	}
}

// Validate checks the configuration for values the service cannot run with.
// A missing API token is not an error: requests report it instead.
func (c *Config) Validate() error {
	if c.Upload.Dir == "" {
		return errors.New("config: upload.dir is required")
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("config: upload.max_bytes must be positive, got %d", c.Upload.MaxBytes)
	}
	if _, err := generation.NewMediaPolicy(c.Upload.AllowedExtensions); err != nil {
		return fmt.Errorf("config: upload.allowed_extensions: %w", err)
	}
	if c.Runway.BaseURL == "" {
		return errors.New("config: runway.base_url is required")
	}
	if c.Runway.Timeout <= 0 {
		return fmt.Errorf("config: runway.timeout must be positive, got %s", c.Runway.Timeout)
	}
	return nil
}

func parseCommaSeparatedList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.swagger_enabled", false)

	// HTTP client defaults
	v.SetDefault("http_client.max_idle_conns", 100)
	v.SetDefault("http_client.max_idle_conns_per_host", 20)
	v.SetDefault("http_client.max_conns_per_host", 50)
	v.SetDefault("http_client.idle_conn_timeout", 90*time.Second)
	v.SetDefault("http_client.dial_timeout", 10*time.Second)
	v.SetDefault("http_client.tls_handshake_timeout", 10*time.Second)
	v.SetDefault("http_client.response_timeout", 0)
	v.SetDefault("http_client.keep_alive", 30*time.Second)

	// Runway defaults
	v.SetDefault("runway.api_token", "")
	v.SetDefault("runway.base_url", "https://api.dev.runwayml.com/v1")
	v.SetDefault("runway.api_version", "2024-11-06")
	params := model.DefaultGenerationParameters()
	v.SetDefault("runway.model", params.Model)
	v.SetDefault("runway.ratio", params.Ratio)
	v.SetDefault("runway.duration", params.Duration)
	v.SetDefault("runway.default_prompt", params.DefaultPrompt)
	v.SetDefault("runway.timeout", 60*time.Second)
	v.SetDefault("runway.max_retries", 2)
	v.SetDefault("runway.retry_initial_interval", 200*time.Millisecond)
	v.SetDefault("runway.breaker_failure_threshold", 5)
	v.SetDefault("runway.breaker_open_timeout", 30*time.Second)

	// Upload defaults
	v.SetDefault("upload.dir", "uploads")
	v.SetDefault("upload.max_bytes", DefaultMaxUploadBytes)
	v.SetDefault("upload.allowed_extensions", generation.DefaultExtensions())

	// CORS defaults
	v.SetDefault("cors.allow_origins", []string{"*"})

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "videogen")
	v.SetDefault("metrics.path", "/metrics")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}
