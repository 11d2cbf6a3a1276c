package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/roundup/internal/flagx"
	"github.com/dmitrijs2005/roundup/internal/timex"
)

// JsonConfig is the on-disk form of Config. Durations use timex.Duration so
// both "90s" and integer nanoseconds are accepted.
type JsonConfig struct {
	Addr                        string         `json:"addr"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	ClientID                    string         `json:"client_id"`
	ClientSecret                string         `json:"client_secret"`
	SeedRefreshToken            string         `json:"seed_refresh_token"`
	Env                         string         `json:"env"`
}

// parseJson overlays config with the file named by -c or -config, if any.
// Fields missing from the file keep their current value.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	overlay(&config.Addr, c.Addr)
	overlay(&config.SecretKey, c.SecretKey)
	overlay(&config.ClientID, c.ClientID)
	overlay(&config.ClientSecret, c.ClientSecret)
	overlay(&config.SeedRefreshToken, c.SeedRefreshToken)
	overlay(&config.Env, c.Env)
	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	return nil
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
