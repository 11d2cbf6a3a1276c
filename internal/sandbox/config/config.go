// Package config handles configuration for the sandbox bank server,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the sandbox.
//
// Fields:
//   - Addr: bind address of the HTTP listener.
//   - SecretKey: HMAC secret for signing access tokens (HS256).
//   - AccessTokenValidityDuration: lifetime reported as expires_in.
//   - ClientID / ClientSecret: the only OAuth client accepted.
//   - SeedRefreshToken: the refresh token valid at startup.
//   - Env: logging environment, see logging.New.
type Config struct {
	Addr                        string
	SecretKey                   string
	AccessTokenValidityDuration time.Duration
	ClientID                    string
	ClientSecret                string
	SeedRefreshToken            string
	Env                         string
}

// LoadDefaults populates Config with development defaults. They match the
// values a local roundup client is configured with out of the box.
func (c *Config) LoadDefaults() {
	c.Addr = ":8080"
	c.SecretKey = "sandbox-secret-key"
	c.AccessTokenValidityDuration = 5 * time.Minute
	c.ClientID = "sandbox-client"
	c.ClientSecret = "sandbox-client-secret"
	c.SeedRefreshToken = "sandbox-seed-refresh-token"
	c.Env = "local"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
