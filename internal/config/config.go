package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/BruksfildServices01/tutor-scheduler/internal/timezone"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Env        string `env:"ENV" env-default:"development"`
	ServerPort string `env:"SERVER_PORT" env-default:"8080"`

	DBUrl          string        `env:"DATABASE_URL"`
	StorageDriver  string        `env:"STORAGE_DRIVER" env-default:"postgres"`
	StorageTimeout time.Duration `env:"STORAGE_TIMEOUT" env-default:"5s"`

	JWTSecret string `env:"JWT_SECRET" env-default:"changeme"`

	RedisURL string        `env:"REDIS_URL"`
	LockTTL  time.Duration `env:"LOCK_TTL" env-default:"10s"`

	Timezone    string   `env:"TIMEZONE" env-default:"UTC"`
	PromoteCron string   `env:"PROMOTE_CRON" env-default:"@every 5m"`
	RateLimit   string   `env:"RATE_LIMIT" env-default:"100-M"`
	CORSOrigins []string `env:"CORS_ORIGINS" env-separator:"," env-default:"*"`

	LogFile string `env:"LOG_FILE"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.StorageDriver {
	case DriverPostgres:
		if c.DBUrl == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver))
	}

	if !timezone.IsValid(c.Timezone) {
		errs = append(errs, fmt.Errorf("unknown TIMEZONE %q", c.Timezone))
	}
	if c.StorageTimeout < 0 {
		errs = append(errs, errors.New("STORAGE_TIMEOUT must not be negative"))
	}
	if c.LockTTL <= 0 {
		errs = append(errs, errors.New("LOCK_TTL must be positive"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func (c *Config) Location() *time.Location {
	return timezone.Location(c.Timezone)
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%s", c.ServerPort)
}
