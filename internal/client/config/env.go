package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// EnvConfig lists the environment variables read by parseEnv.
type EnvConfig struct {
	ClientID         string `env:"ROUNDUP_CLIENT_ID"`
	ClientSecret     string `env:"ROUNDUP_CLIENT_SECRET"`
	SeedRefreshToken string `env:"ROUNDUP_SEED_REFRESH_TOKEN"`
	APIBaseURL       string `env:"ROUNDUP_API_BASE_URL"`
	DatabasePath     string `env:"ROUNDUP_DB_PATH"`
	Env              string `env:"ROUNDUP_ENV"`
}

// parseEnv overlays Config with the non-empty environment variables.
func parseEnv(cfg *Config) error {
	var ec EnvConfig
	if err := cleanenv.ReadEnv(&ec); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}

	setString(&cfg.ClientID, ec.ClientID)
	setString(&cfg.ClientSecret, ec.ClientSecret)
	setString(&cfg.SeedRefreshToken, ec.SeedRefreshToken)
	setString(&cfg.APIBaseURL, ec.APIBaseURL)
	setString(&cfg.DatabasePath, ec.DatabasePath)
	setString(&cfg.Env, ec.Env)
	return nil
}
