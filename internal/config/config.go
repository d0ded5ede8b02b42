package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port      string `env:"PORT" envDefault:"8080"`
	DBUrl     string `env:"DB_URL"`
	JWTSecret string `env:"JWT_SECRET"`
	AppEnv    string `env:"APP_ENV" envDefault:"production"`

	// Starting coin grants for new accounts.
	SignupSilverCoins float64 `env:"SIGNUP_SILVER_COINS" envDefault:"100"`
	SignupGoldCoins   float64 `env:"SIGNUP_GOLD_COINS" envDefault:"0"`
	SignupBronzeCoins float64 `env:"SIGNUP_BRONZE_COINS" envDefault:"0"`
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	cfg.AppEnv = normalizeEnv(cfg.AppEnv)

	return cfg, nil
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}
