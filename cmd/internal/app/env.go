package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"filefly/cmd/accounts"
	authapi "filefly/cmd/internal/auth/api"
	"filefly/cmd/internal/auth/session"
)

// applyEnv overlays FILEFLY_* variables onto cfg. App-level keys keep the current
// value when unparseable; component keys are parsed strictly by their packages.
func applyEnv(cfg *Config) error {
	cfg.HTTP.Addr = EnvString("FILEFLY_HTTP_ADDR", cfg.HTTP.Addr)
	cfg.HTTP.ReadHeaderTimeout = EnvDuration("FILEFLY_HTTP_READ_HEADER_TIMEOUT", cfg.HTTP.ReadHeaderTimeout)
	cfg.HTTP.ReadTimeout = EnvDuration("FILEFLY_HTTP_READ_TIMEOUT", cfg.HTTP.ReadTimeout)
	cfg.HTTP.WriteTimeout = EnvDuration("FILEFLY_HTTP_WRITE_TIMEOUT", cfg.HTTP.WriteTimeout)
	cfg.HTTP.IdleTimeout = EnvDuration("FILEFLY_HTTP_IDLE_TIMEOUT", cfg.HTTP.IdleTimeout)
	cfg.HTTP.ShutdownTimeout = EnvDuration("FILEFLY_HTTP_SHUTDOWN_TIMEOUT", cfg.HTTP.ShutdownTimeout)
	cfg.HTTP.MaxHeaderBytes = EnvInt("FILEFLY_HTTP_MAX_HEADER_BYTES", cfg.HTTP.MaxHeaderBytes)

	cfg.Log.Level = EnvString("FILEFLY_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = EnvString("FILEFLY_LOG_FORMAT", cfg.Log.Format)
	cfg.Log.Color = EnvBool("FILEFLY_LOG_COLOR", cfg.Log.Color)
	cfg.Log.File = EnvString("FILEFLY_LOG_FILE", cfg.Log.File)

	cfg.Storage.Driver = EnvString("FILEFLY_STORAGE_DRIVER", cfg.Storage.Driver)
	cfg.Storage.Path = EnvString("FILEFLY_STORAGE_PATH", cfg.Storage.Path)
	cfg.Storage.DatabaseURL = EnvString("FILEFLY_DATABASE_URL", cfg.Storage.DatabaseURL)
	cfg.Storage.Schema = EnvString("FILEFLY_DB_SCHEMA", cfg.Storage.Schema)
	cfg.Storage.MaxConns = EnvInt32("FILEFLY_DB_MAX_CONNS", cfg.Storage.MaxConns)
	cfg.Storage.MinConns = EnvInt32("FILEFLY_DB_MIN_CONNS", cfg.Storage.MinConns)

	cfg.Redis.Addr = EnvString("FILEFLY_REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Username = EnvString("FILEFLY_REDIS_USERNAME", cfg.Redis.Username)
	cfg.Redis.Password = EnvString("FILEFLY_REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = EnvInt("FILEFLY_REDIS_DB", cfg.Redis.DB)
	cfg.Redis.KeyPrefix = EnvString("FILEFLY_REDIS_KEY_PREFIX", cfg.Redis.KeyPrefix)

	if err := accounts.ApplyEnv(&cfg.Accounts); err != nil {
		return err
	}
	if err := session.ApplyEnv(&cfg.Sessions); err != nil {
		return err
	}
	authapi.ApplyEnv(&cfg.API)
	return nil
}

// EnvString reads a string env var with a default.
func EnvString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

// EnvBool reads a bool env var with a default.
func EnvBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// EnvInt reads a non-negative int env var with a default.
func EnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// EnvInt32 reads an int32 env var with a default.
func EnvInt32(key string, def int32) int32 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil || n < 0 {
		return def
	}
	return int32(n)
}

// EnvDuration reads a duration env var with a default.
func EnvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
