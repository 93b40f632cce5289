package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/vango-dev/teamstore/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "teamstore.json"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "TEAMSTORE"

	// DefaultDSN stores the selection in a JSON file in the working directory.
	DefaultDSN = "file:teamstore-state.json"

	// DefaultKey is the storage key of the selected team.
	DefaultKey = "selectedTeam"

	// DefaultAddr is the default server address.
	DefaultAddr = "localhost:8090"

	// DefaultShutdownTimeout bounds graceful server shutdown.
	DefaultShutdownTimeout = "10s"
)

// Config represents the complete teamstore.json configuration.
type Config struct {
	// Storage selects and configures the persistent store.
	Storage StorageConfig `json:"storage"`

	// Server configures the HTTP/WebSocket server.
	Server ServerConfig `json:"server"`

	// Log configures structured logging.
	Log LogConfig `json:"log"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// StorageConfig contains storage settings.
type StorageConfig struct {
	// DSN selects the backend (see storage.Open). Empty means no persistence.
	DSN string `json:"dsn"`

	// Key is the storage key holding the selection.
	Key string `json:"key,omitempty"`

	// Prefix namespaces keys in shared backends (redis, s3).
	Prefix string `json:"prefix,omitempty"`

	// Table is the SQL table name.
	Table string `json:"table,omitempty"`

	// Strict fails startup on malformed stored values instead of falling
	// back to null.
	Strict bool `json:"strict,omitempty"`
}

// ServerConfig contains server settings.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty"`

	// Metrics exposes Prometheus metrics at /metrics.
	Metrics bool `json:"metrics,omitempty"`

	// Tracing wraps handlers with OpenTelemetry spans.
	Tracing bool `json:"tracing,omitempty"`

	// TracingEndpoint is the OTLP/HTTP collector URL spans are exported to
	// (e.g., "http://localhost:4318"). Without it spans stay in-process.
	TracingEndpoint string `json:"tracingEndpoint,omitempty" split_words:"true"`

	// ShutdownTimeout is a Go duration string (e.g., "10s").
	ShutdownTimeout string `json:"shutdownTimeout,omitempty" split_words:"true"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`

	// Format is "text" or "json".
	Format string `json:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Storage: StorageConfig{
			DSN: DefaultDSN,
			Key: DefaultKey,
		},
		Server: ServerConfig{
			Addr:            DefaultAddr,
			Metrics:         true,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for teamstore.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E101").
				WithDetail("No " + ConfigFileName + " found at " + path).
				Wrap(err)
		}
		return nil, errors.New("E101").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E101").
			WithDetail("Failed to parse " + path + ": " + err.Error()).
			WithSuggestion("Check that " + ConfigFileName + " is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// LoadOrDefault loads path if it exists and returns defaults otherwise.
// An empty path also yields defaults.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return New(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return New(), nil
	}
	return LoadFile(path)
}

// ApplyEnv overrides fields from TEAMSTORE_* environment variables.
func (c *Config) ApplyEnv() error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return errors.New("E102").Wrap(err)
	}
	c.applyDefaults()
	return nil
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E101").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New("E101").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
// An empty DSN is kept: it means "no persistence".
func (c *Config) applyDefaults() {
	if c.Storage.Key == "" {
		c.Storage.Key = DefaultKey
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Storage.Key) == "" {
		return errors.New("E103").WithDetail("storage.key must not be empty")
	}
	if _, err := c.ShutdownTimeout(); err != nil {
		return errors.New("E103").
			WithDetail("server.shutdownTimeout must be a duration such as \"10s\"").
			Wrap(err)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("E103").
			WithDetail("log.format must be \"text\" or \"json\", got " + c.Log.Format)
	}
	return nil
}

// ShutdownTimeout parses Server.ShutdownTimeout.
func (c *Config) ShutdownTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, errors.Newf(errors.CategoryConfig, "negative shutdown timeout %s", d)
	}
	return d, nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, errors.New("E103").
			WithDetail("log.level must be one of debug, info, warn, error").
			Wrap(err)
	}
	return level, nil
}
