package config

import (
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config struct {
	APIBaseURL string        `env:"API_BASE_URL"`
	APIPushURL string        `env:"API_PUSH_URL"`
	APITimeout time.Duration `env:"API_TIMEOUT" envDefault:"0s"`

	TelegramToken string `env:"TELEGRAM_TOKEN"`

	DBPath     string `env:"DB_PATH" envDefault:"roster-bot.db"`
	SessionKey string `env:"SESSION_KEY" envDefault:"example-auth"`

	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	MetricsAddr string `env:"METRICS_ADDR"`

	Reconnect ReconnectOptions
	Import    ImportOptions

	Workers   int `env:"WORKERS" envDefault:"4"`
	QueueSize int `env:"QUEUE_SIZE" envDefault:"32"`
}

type ReconnectOptions struct {
	Delay       time.Duration `env:"RECONNECT_DELAY" envDefault:"2s"`
	MaxDelay    time.Duration `env:"RECONNECT_MAX_DELAY" envDefault:"30s"`
	Multiplier  float64       `env:"RECONNECT_MULTIPLIER" envDefault:"2"`
	MaxAttempts uint64        `env:"RECONNECT_MAX_ATTEMPTS" envDefault:"10"`
}

type ImportOptions struct {
	Tick time.Duration `env:"IMPORT_TICK" envDefault:"200ms"`
	Step int           `env:"IMPORT_STEP" envDefault:"5"`
	Cap  int           `env:"IMPORT_CAP" envDefault:"95"`
}

// LoadConfig reads .env files when present and parses the environment.
func LoadConfig() (*Config, error) {
	if err := loadEnvFiles(".env", ".env.local"); err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parse environment")
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	return cfg, nil
}

func loadEnvFiles(files ...string) error {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return errors.Wrap(godotenv.Load(existing...), "load env files")
}

func (c *Config) RequireAPI() error {
	if c.APIBaseURL == "" {
		return ErrNoAPIBaseURL{}
	}
	return nil
}

func (c *Config) RequireTelegram() error {
	if err := c.RequireAPI(); err != nil {
		return err
	}
	if c.TelegramToken == "" {
		return ErrNoToken{}
	}
	return nil
}

type ErrNoToken struct{}

func (e ErrNoToken) Error() string {
	return "TELEGRAM_TOKEN is not set"
}

type ErrNoAPIBaseURL struct{}

func (e ErrNoAPIBaseURL) Error() string {
	return "API base URL is not configured (API_BASE_URL)"
}
