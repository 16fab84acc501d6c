package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"filefly/cmd/accounts"
	authapi "filefly/cmd/internal/auth/api"
	"filefly/cmd/internal/auth/session"
)

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	MaxHeaderBytes    int           `yaml:"max_header_bytes"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // error|warn|info|debug
	Format string `yaml:"format"` // console|json
	Color  bool   `yaml:"color"`
	// File, when set, receives an uncolored copy of every record.
	File string `yaml:"file"`
}

// StorageConfig selects and configures the account backend.
type StorageConfig struct {
	Driver      string `yaml:"driver"` // sqlite|postgres|memory
	Path        string `yaml:"path"`
	DatabaseURL string `yaml:"database_url"`
	Schema      string `yaml:"schema"`
	MaxConns    int32  `yaml:"max_conns"`
	MinConns    int32  `yaml:"min_conns"`
}

// RedisConfig enables the shared login limiter when Addr is set.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// Config mirrors the filefly.yaml schema.
type Config struct {
	HTTP     HTTPConfig      `yaml:"http"`
	Log      LogConfig       `yaml:"log"`
	Storage  StorageConfig   `yaml:"storage"`
	Redis    RedisConfig     `yaml:"redis"`
	Accounts accounts.Config `yaml:"accounts"`
	Sessions session.Config  `yaml:"sessions"`
	API      authapi.Config  `yaml:"api"`
}

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DefaultConfig returns a config that runs a single node on an embedded SQLite file.
func DefaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:              "127.0.0.1:8080",
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Storage: StorageConfig{
			Driver:   DriverSQLite,
			Path:     "./data/accounts.db",
			Schema:   "filefly",
			MaxConns: 10,
		},
		Accounts: accounts.DefaultConfig(),
		Sessions: session.DefaultConfig(),
		API:      authapi.DefaultConfig(),
	}
}

// LoadConfig builds the runtime config: defaults, then the YAML file at path
// (skipped when path is empty), then FILEFLY_* environment overrides.
// The result is validated.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path = strings.TrimSpace(path); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	cfg.Storage.Path = strings.TrimSpace(cfg.Storage.Path)
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		return errors.New("http.addr is required")
	}

	switch strings.ToLower(strings.TrimSpace(c.Log.Format)) {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	if _, ok := lookupLogLevel(c.Log.Level); !ok {
		return fmt.Errorf("log.level is invalid: %q", c.Log.Level)
	}

	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.Path == "" {
			return errors.New("storage.path is required for sqlite")
		}
	case DriverPostgres:
		if strings.TrimSpace(c.Storage.DatabaseURL) == "" {
			return errors.New("storage.database_url is required for postgres")
		}
		if c.Storage.MinConns < 0 || (c.Storage.MaxConns > 0 && c.Storage.MinConns > c.Storage.MaxConns) {
			return errors.New("storage.min_conns must be within [0..max_conns]")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("storage.driver must be sqlite, postgres or memory, got %q", c.Storage.Driver)
	}

	if c.Redis.DB < 0 {
		return errors.New("redis.db must not be negative")
	}

	if err := c.Accounts.Check(); err != nil {
		return fmt.Errorf("accounts: %w", err)
	}
	if err := c.Sessions.Validate(); err != nil {
		return fmt.Errorf("sessions: %w", err)
	}
	if err := c.API.Validate(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}
