package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables read by [ApplyEnv].
const (
	EnvAPIURL    = "NBX_API_URL"
	EnvPassword  = "NBX_PASSWORD"
	EnvDBPath    = "NBX_DB_PATH"
	EnvLogLevel  = "NBX_LOG_LEVEL"
	EnvRateLimit = "NBX_RATE_LIMIT"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API       APIConfig       `toml:"api"`
	Web       WebConfig       `toml:"web"`
	Database  DatabaseConfig  `toml:"database"`
	Dashboard DashboardConfig `toml:"dashboard"`
	Log       LogConfig       `toml:"log"`
	Dev       DevConfig       `toml:"dev"`

	// Password is only ever populated from the environment and is never written to disk by config helpers.
	Password string `toml:"-"`
}

// APIConfig contains settings for the notebook API client.
type APIConfig struct {
	BaseURL   string        `toml:"base_url"`
	Timeout   time.Duration `toml:"timeout"`
	RateLimit float64       `toml:"rate_limit"`
	Burst     int           `toml:"burst"`
}

// WebConfig points at the browser UI for the same deployment.
type WebConfig struct {
	URL string `toml:"url"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// DashboardConfig tunes the dashboard views.
type DashboardConfig struct {
	RecentLimit int `toml:"recent_limit"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// DevConfig contains settings for the reference API server.
type DevConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks values that would otherwise fail later in confusing ways.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("%w: api.base_url is required", ErrInvalidConfig)
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("%w: api.rate_limit must not be negative", ErrInvalidConfig)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("%w: api.timeout must not be negative", ErrInvalidConfig)
	}
	if c.Dashboard.RecentLimit < 0 {
		return fmt.Errorf("%w: dashboard.recent_limit must not be negative", ErrInvalidConfig)
	}
	return nil
}

// LoadDotEnv loads variables from the given .env files (default ".env") into the process environment.
//
// Missing files are ignored; existing environment variables are never overwritten.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	present := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}

	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// ApplyEnv overlays NBX_* environment variables onto the config using lookup (usually [os.LookupEnv]).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	if v, ok := lookup(EnvAPIURL); ok && v != "" {
		c.API.BaseURL = strings.TrimRight(v, "/")
	}
	if v, ok := lookup(EnvPassword); ok {
		c.Password = v
	}
	if v, ok := lookup(EnvDBPath); ok && v != "" {
		c.Database.Path = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		if _, err := ParseLevel(v); err != nil {
			return err
		}
		c.Log.Level = v
	}
	if v, ok := lookup(EnvRateLimit); ok && v != "" {
		rl, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, EnvRateLimit, err)
		}
		c.API.RateLimit = rl
	}

	return c.Validate()
}
