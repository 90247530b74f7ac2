// Package config loads server configuration from defaults, an optional
// config file, a .env file and CASHFLOW_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/warp/cashflow-engine/generic"
)

// Config holds application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Log       LogConfig       `mapstructure:"log"`
	CORS      CORSConfig      `mapstructure:"cors"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// SchedulerConfig holds materialization settings.
type SchedulerConfig struct {
	IncomeHorizon  int           `mapstructure:"income_horizon"`
	ExpenseHorizon int           `mapstructure:"expense_horizon"`
	ListLimit      int           `mapstructure:"list_limit"`
	SweepInterval  time.Duration `mapstructure:"sweep_interval"` // 0 disables the periodic sweep
	Timezone       string        `mapstructure:"timezone"`       // IANA name; decides what "today" is
}

// LogConfig holds slog settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text, json
}

// CORSConfig holds allowed browser origins.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads configuration. Precedence, highest first: CASHFLOW_* env vars
// (including those set by .env), the config file, defaults.
//
// The config file is CASHFLOW_CONFIG if set, otherwise ./cashflow.yaml when
// present. A .env file in the working directory is loaded first if present;
// envFile overrides its path and must exist.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("load env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	v := viper.New()
	setDefaults(v)

	if cfgPath := os.Getenv("CASHFLOW_CONFIG"); cfgPath != "" {
		v.SetConfigFile(cfgPath)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", cfgPath, err)
		}
	} else {
		v.SetConfigName("cashflow")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("CASHFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var c Config
	_ = v.Unmarshal(&c)
	return c
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("database.path", "cashflow.db")
	v.SetDefault("scheduler.income_horizon", 6)
	v.SetDefault("scheduler.expense_horizon", 3)
	v.SetDefault("scheduler.list_limit", 20)
	v.SetDefault("scheduler.sweep_interval", time.Duration(0))
	v.SetDefault("scheduler.timezone", "UTC")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	if c.Scheduler.IncomeHorizon < 1 {
		return fmt.Errorf("scheduler.income_horizon must be at least 1, got %d", c.Scheduler.IncomeHorizon)
	}
	if c.Scheduler.ExpenseHorizon < 1 {
		return fmt.Errorf("scheduler.expense_horizon must be at least 1, got %d", c.Scheduler.ExpenseHorizon)
	}
	if c.Scheduler.ListLimit < 1 {
		return fmt.Errorf("scheduler.list_limit must be at least 1, got %d", c.Scheduler.ListLimit)
	}
	if c.Scheduler.SweepInterval < 0 {
		return fmt.Errorf("scheduler.sweep_interval must not be negative, got %s", c.Scheduler.SweepInterval)
	}
	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("scheduler.timezone: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	return nil
}

// Horizons converts the scheduler settings for the engine.
func (c SchedulerConfig) Horizons() generic.Horizons {
	return generic.Horizons{Income: c.IncomeHorizon, Expense: c.ExpenseHorizon}
}

// Clock returns the wall clock in the configured timezone. Call only on a
// validated config.
func (c SchedulerConfig) Clock() generic.Clock {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return generic.SystemClock{Location: loc}
}

// Logger builds the slog logger described by c, writing to w.
func (c LogConfig) Logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(c.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
