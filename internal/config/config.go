package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Store selects which document-store backend the repositories use.
type Store string

const (
	StoreMemory Store = "memory"
	StoreMongo  Store = "mongo"
)

type Config struct {
	ServiceName string `split_words:"true" default:"storefront"`
	Env         string `default:"development"`
	HTTPAddr    string `split_words:"true" default:":8080"`

	Store Store `default:"memory"`

	MongoURI      string `split_words:"true" default:"mongodb://localhost:27017"`
	MongoDatabase string `split_words:"true" default:"storefront"`

	// RedisURL enables cross-instance cart snapshot fanout when set.
	RedisURL string `split_words:"true"`

	// JWTSecret verifies bearer tokens issued by the external identity provider.
	JWTSecret string `split_words:"true" default:"dev-secret"`

	ShutdownTimeoutSeconds int `split_words:"true" default:"10"`
}

// Load reads configuration from the environment, after sourcing an optional
// .env file. Missing .env is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("storefront", &cfg); err != nil {
		return nil, fmt.Errorf("config: process env: %w", err)
	}

	switch cfg.Store {
	case StoreMemory, StoreMongo:
	default:
		return nil, fmt.Errorf("config: unknown store backend %q", cfg.Store)
	}

	return &cfg, nil
}

// Environment returns the parsed deployment environment.
func (c *Config) Environment() Environment {
	return ParseEnvironment(c.Env)
}
