package app

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration loaded from environment
// variables. Database and redis settings are read by their own packages.
type Config struct {
	LogMode  string `env:"LOG_MODE" envDefault:"development"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	EngineName string `env:"ENGINE_NAME" envDefault:"echo"`

	WorkerEnabled      bool          `env:"WORKER_ENABLED" envDefault:"true"`
	WorkerConcurrency  int           `env:"WORKER_CONCURRENCY" envDefault:"4"`
	WorkerBatchSize    int           `env:"WORKER_BATCH_SIZE" envDefault:"25"`
	WorkerPollInterval time.Duration `env:"WORKER_POLL_INTERVAL" envDefault:"2s"`
	WorkerStaleClaim   time.Duration `env:"WORKER_STALE_CLAIM" envDefault:"5m"`

	RelayEnabled      bool          `env:"RELAY_ENABLED" envDefault:"true"`
	RelayBatchSize    int           `env:"RELAY_BATCH_SIZE" envDefault:"100"`
	RelayPollInterval time.Duration `env:"RELAY_POLL_INTERVAL" envDefault:"1s"`

	JanitorEnabled  bool          `env:"JANITOR_ENABLED" envDefault:"true"`
	OutboxRetention time.Duration `env:"OUTBOX_RETENTION" envDefault:"720h"`
	MaxAttempts     int           `env:"WORKER_MAX_ATTEMPTS" envDefault:"10"`

	// memory, redis or off
	ResolveCacheMode string        `env:"RESOLVE_CACHE" envDefault:"memory"`
	ResolveCacheTTL  time.Duration `env:"RESOLVE_CACHE_TTL" envDefault:"10m"`

	RedisAddr string `env:"REDIS_ADDR"`

	FallbackSeedFile string `env:"FALLBACK_SEED_FILE"`
}

func (c Config) UseRedis() bool { return c.RedisAddr != "" }

// LoadConfig reads .env when present, then the environment.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

type fallbackSeedFile struct {
	Fallbacks map[string][]string `yaml:"fallbacks"`
}

// LoadFallbackSeed reads the optional YAML file with default fallback
// chains applied to every new project, keyed by requested locale.
func LoadFallbackSeed(path string) (map[string][]string, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fallback seed: %w", err)
	}
	var f fallbackSeedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse fallback seed: %w", err)
	}
	return f.Fallbacks, nil
}
