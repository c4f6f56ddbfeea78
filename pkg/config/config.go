package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config carries process-level settings. The conference shape itself lives
// in ScheduleConfig, loaded from a JSON file.
type Config struct {
	Env string

	Log    LogConfig
	Solver SolverConfig
	Export ExportConfig
	Serve  ServeConfig
}

type LogConfig struct {
	Level  string
	Format string
}

// SolverConfig bounds the external assignment solver invocation.
type SolverConfig struct {
	TimeLimit time.Duration
	Workers   int
}

// ExportConfig controls where snapshots and rendered documents land.
type ExportConfig struct {
	Dir string
}

// ServeConfig tunes the read-only programme viewer.
type ServeConfig struct {
	Port           int
	AllowedOrigins []string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing .env surfaces as a plain path error here because the
		// config file is set explicitly.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Solver = SolverConfig{
		TimeLimit: parseDuration(v.GetString("SOLVER_TIME_LIMIT"), 2*time.Minute),
		Workers:   v.GetInt("SOLVER_WORKERS"),
	}

	cfg.Export = ExportConfig{
		Dir: v.GetString("EXPORT_DIR"),
	}

	cfg.Serve = ServeConfig{
		Port:           v.GetInt("SERVE_PORT"),
		AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS")),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SOLVER_TIME_LIMIT", "2m")
	v.SetDefault("SOLVER_WORKERS", 8)

	v.SetDefault("EXPORT_DIR", "./exports")

	v.SetDefault("SERVE_PORT", 8080)
	v.SetDefault("ALLOWED_ORIGINS", "")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
