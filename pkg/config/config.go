// Package config loads the newsletter service configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variable overrides.
// Example: NEWSLETTER_DATABASE_HOST=db.internal
const EnvPrefix = "NEWSLETTER"

// EnvEnvironment selects the environment overlay file (local, production).
const EnvEnvironment = EnvPrefix + "_ENVIRONMENT"

// Config represents the newsletter service configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (NEWSLETTER_*)
//  2. Environment overlay file (<dir>/<environment>.yaml)
//  3. Configuration file (config.yaml)
//  4. Default values
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry tracing and profiling
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// Application configures the HTTP listener
	Application ApplicationSettings `mapstructure:"application" yaml:"application"`

	// Database configures the PostgreSQL connection
	Database DatabaseSettings `mapstructure:"database" yaml:"database"`

	// EmailClient configures the outbound email API
	EmailClient EmailClientSettings `mapstructure:"email_client" yaml:"email_client"`

	// Metrics controls the /metrics endpoint
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level: DEBUG, INFO, WARN, ERROR
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR" yaml:"level"`

	// Format is text or json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output is stdout, stderr, discard, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	Enabled    bool    `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string  `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure   bool    `mapstructure:"insecure" yaml:"insecure"`
	SampleRate float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1" yaml:"sample_rate"`

	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled      bool     `mapstructure:"enabled" yaml:"enabled"`
	Endpoint     string   `mapstructure:"endpoint" yaml:"endpoint"`
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig controls the Prometheus endpoint served by the API router.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// Load loads configuration from file, environment, and defaults.
//
// An empty configPath searches ./configuration/config.yaml and then
// $XDG_CONFIG_HOME/newsletter/config.yaml. A missing file is not an error:
// defaults plus environment overrides are used.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)
	registerDefaults(v, GetDefaultConfig())

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}
	if found {
		if err := mergeEnvironmentOverlay(v); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad is Load with a friendlier error when an explicit file is missing.
func MustLoad(configPath string) (*Config, error) {
	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Please create the configuration file:\n"+
				"  newsletter init --config %s",
				configPath, configPath)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as YAML with owner-only permissions.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}

	v.AddConfigPath("configuration")
	v.AddConfigPath(getConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

// registerDefaults makes every key known to viper. AutomaticEnv only
// applies to keys viper knows about when unmarshalling, so without this
// NEWSLETTER_* overrides would be ignored when no config file exists.
func registerDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output", d.Logging.Output)

	v.SetDefault("telemetry.enabled", d.Telemetry.Enabled)
	v.SetDefault("telemetry.endpoint", d.Telemetry.Endpoint)
	v.SetDefault("telemetry.insecure", d.Telemetry.Insecure)
	v.SetDefault("telemetry.sample_rate", d.Telemetry.SampleRate)
	v.SetDefault("telemetry.profiling.enabled", d.Telemetry.Profiling.Enabled)
	v.SetDefault("telemetry.profiling.endpoint", d.Telemetry.Profiling.Endpoint)
	v.SetDefault("telemetry.profiling.profile_types", d.Telemetry.Profiling.ProfileTypes)

	v.SetDefault("application.host", d.Application.Host)
	v.SetDefault("application.port", d.Application.Port)
	v.SetDefault("application.base_url", d.Application.BaseURL)
	v.SetDefault("application.shutdown_timeout", d.Application.ShutdownTimeout)
	v.SetDefault("application.read_timeout", d.Application.ReadTimeout)
	v.SetDefault("application.write_timeout", d.Application.WriteTimeout)
	v.SetDefault("application.idle_timeout", d.Application.IdleTimeout)
	v.SetDefault("application.max_body_size", d.Application.MaxBodySize.String())

	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.username", d.Database.Username)
	v.SetDefault("database.password", d.Database.Password.Expose())
	v.SetDefault("database.database_name", d.Database.DatabaseName)
	v.SetDefault("database.require_ssl", d.Database.RequireSSL)
	v.SetDefault("database.max_conns", d.Database.MaxConns)
	v.SetDefault("database.min_conns", d.Database.MinConns)
	v.SetDefault("database.max_conn_lifetime", d.Database.MaxConnLifetime)
	v.SetDefault("database.max_conn_idle_time", d.Database.MaxConnIdleTime)
	v.SetDefault("database.health_check_period", d.Database.HealthCheckPeriod)
	v.SetDefault("database.connect_timeout", d.Database.ConnectTimeout)
	v.SetDefault("database.query_timeout", d.Database.QueryTimeout)

	v.SetDefault("email_client.base_url", d.EmailClient.BaseURL)
	v.SetDefault("email_client.sender_email", d.EmailClient.SenderEmail)
	v.SetDefault("email_client.authorization_token", d.EmailClient.AuthorizationToken.Expose())
	v.SetDefault("email_client.timeout", d.EmailClient.Timeout)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
}

// readConfigFile reports whether a config file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// mergeEnvironmentOverlay merges <dir>/<environment>.yaml, next to the
// loaded file, when it exists.
func mergeEnvironmentOverlay(v *viper.Viper) error {
	env, err := ParseEnvironment(os.Getenv(EnvEnvironment))
	if err != nil {
		return err
	}

	overlay := filepath.Join(filepath.Dir(v.ConfigFileUsed()), string(env)+".yaml")
	f, err := os.Open(overlay)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", overlay, err)
	}
	defer func() { _ = f.Close() }()

	if err := v.MergeConfig(f); err != nil {
		return fmt.Errorf("failed to merge %s: %w", overlay, err)
	}
	return nil
}

func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// durationDecodeHook converts "30s"-style strings (and raw numbers, taken
// as nanoseconds) to time.Duration.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns $XDG_CONFIG_HOME/newsletter, ~/.config/newsletter,
// or "." when the home directory is unknown.
func getConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "newsletter")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "newsletter")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}
