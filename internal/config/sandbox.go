package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// SandboxConfig configures the sandbox backend
type SandboxConfig struct {
	Port          string           `env:"SANDBOX_PORT" envDefault:"4000"`
	APIKey        string           `env:"UPSTREAM_API_KEY"`
	PayURL        string           `env:"SANDBOX_PAY_URL" envDefault:"http://localhost:4000/pay"`
	CodeTTL       time.Duration    `env:"SANDBOX_CODE_TTL" envDefault:"5m"`
	MaxAttempts   int              `env:"SANDBOX_CODE_MAX_ATTEMPTS" envDefault:"5"`
	TelegramToken string           `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChats map[string]int64 `env:"SANDBOX_TELEGRAM_CHATS" envKeyValSeparator:"="`
	Log           LogConfig        `envPrefix:"LOG_"`
}

// LoadSandbox reads the sandbox configuration
func LoadSandbox() (*SandboxConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	cfg := &SandboxConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.CodeTTL <= 0 {
		return nil, fmt.Errorf("invalid SANDBOX_CODE_TTL: %s", cfg.CodeTTL)
	}
	return cfg, nil
}
