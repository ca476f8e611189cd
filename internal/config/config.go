package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Event sinks.
const (
	EventsNone  = "none"
	EventsKafka = "kafka"
	EventsRedis = "redis"
)

// Config represents the top-level ledger.yaml configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Events  EventsConfig  `yaml:"events"`
	Log     LogConfig     `yaml:"log"`
}

// StorageConfig selects and locates the ledger store.
type StorageConfig struct {
	Driver      string `yaml:"driver" validate:"required,oneof=memory sqlite postgres"`
	Path        string `yaml:"path,omitempty" validate:"required_if=Driver sqlite"`
	DSN         string `yaml:"dsn,omitempty" validate:"required_if=Driver postgres"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

// EventsConfig controls where committed records are announced.
type EventsConfig struct {
	Driver        string   `yaml:"driver" validate:"required,oneof=none kafka redis"`
	Topic         string   `yaml:"topic" validate:"required_unless=Driver none"`
	Brokers       []string `yaml:"brokers,omitempty" validate:"required_if=Driver kafka"`
	RedisAddr     string   `yaml:"redis_addr,omitempty" validate:"required_if=Driver redis"`
	RedisPassword string   `yaml:"redis_password,omitempty"`
	RedisDB       int      `yaml:"redis_db,omitempty" validate:"gte=0"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level" validate:"required,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"required,oneof=text json"`
}

var validate = validator.New()

// Default returns a Config with sensible defaults for a local install.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Driver:      DriverSQLite,
			Path:        "ledger.db",
			AutoMigrate: true,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Events: EventsConfig{
			Driver: EventsNone,
			Topic:  "ledger.transaction_recorded",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment. Missing files are skipped; variables already set win.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (skipped when path is empty), then LEDGER_* environment variables.
// The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}
	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validating config: %w", err)
		}
		msgs := make([]string, len(verrs))
		for i, fe := range verrs {
			msgs[i] = fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("LEDGER_STORAGE_DRIVER", &cfg.Storage.Driver)
	str("LEDGER_STORAGE_PATH", &cfg.Storage.Path)
	str("LEDGER_DATABASE_URL", &cfg.Storage.DSN)
	str("LEDGER_SERVER_ADDR", &cfg.Server.Addr)
	str("LEDGER_EVENTS_DRIVER", &cfg.Events.Driver)
	str("LEDGER_EVENTS_TOPIC", &cfg.Events.Topic)
	str("LEDGER_REDIS_ADDR", &cfg.Events.RedisAddr)
	str("LEDGER_REDIS_PASSWORD", &cfg.Events.RedisPassword)
	str("LEDGER_LOG_LEVEL", &cfg.Log.Level)
	str("LEDGER_LOG_FORMAT", &cfg.Log.Format)

	if v, ok := lookup("LEDGER_KAFKA_BROKERS"); ok && v != "" {
		cfg.Events.Brokers = strings.Split(v, ",")
	}
	if v, ok := lookup("LEDGER_REDIS_DB"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LEDGER_REDIS_DB: %w", err)
		}
		cfg.Events.RedisDB = n
	}
	if v, ok := lookup("LEDGER_STORAGE_AUTO_MIGRATE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LEDGER_STORAGE_AUTO_MIGRATE: %w", err)
		}
		cfg.Storage.AutoMigrate = b
	}
	return nil
}
