// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every recognised option.
type Config struct {
	// Reply decoration.
	AtReply    bool `env:"CIYI_AT_REPLY" envDefault:"false"`
	QuoteReply bool `env:"CIYI_QUOTE_REPLY" envDefault:"true"`

	// PassiveGuess treats bare two-character messages as guesses while a challenge is running.
	PassiveGuess bool `env:"CIYI_PASSIVE_GUESS" envDefault:"false"`

	MaxHistory uint `env:"CIYI_MAX_HISTORY" envDefault:"10"`
	MaxRank    uint `env:"CIYI_MAX_RANK" envDefault:"10"`

	CatalogURL     string        `env:"CIYI_CATALOG_URL" envDefault:"https://ci-ying.oss-cn-zhangjiakou.aliyuncs.com/v1/ci-yi-list"`
	CatalogTimeout time.Duration `env:"CIYI_CATALOG_TIMEOUT" envDefault:"10s"`
	Timezone       string        `env:"CIYI_TIMEZONE" envDefault:"Asia/Shanghai"`

	Store  string `env:"CIYI_STORE" envDefault:"sqlite"`
	DBPath string `env:"CIYI_DB" envDefault:"./data/ciyi.db"`

	AnswersFile string `env:"WORDS_ANSWERS_FILE"`
	AllowedFile string `env:"WORDS_ALLOWED_FILE"`

	Port          string  `env:"PORT" envDefault:"5175"`
	GatewaySecret string  `env:"CIYI_GATEWAY_SECRET"`
	RatePerSec    float64 `env:"CIYI_RATE_PER_SEC" envDefault:"5"`
	RateBurst     int     `env:"CIYI_RATE_BURST" envDefault:"10"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`
}

// Load parses the environment into a Config and checks it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	switch c.Store {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("config: CIYI_STORE must be sqlite or memory, got %q", c.Store)
	}
	if c.CatalogTimeout <= 0 {
		return fmt.Errorf("config: CIYI_CATALOG_TIMEOUT must be positive, got %s", c.CatalogTimeout)
	}
	if c.RatePerSec < 0 || c.RateBurst < 0 {
		return fmt.Errorf("config: rate limits must not be negative")
	}
	return nil
}
