package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/roundup/internal/buildinfo"
)

// Key sources for the credential store encryption key.
const (
	KeySourceKeyring    = "keyring"
	KeySourcePassphrase = "passphrase"
)

// Config holds runtime settings for the round-up CLI.
//
// Fields:
//   - APIBaseURL: root of the bank API and of its token endpoint.
//   - ClientID, ClientSecret: OAuth2 client identity.
//   - SeedRefreshToken: refresh token used when none is stored yet.
//   - DatabasePath: SQLite file holding credentials and the round-up cutoff.
//   - HTTPTimeout: per-request timeout of every HTTP call.
//   - KeySource: "keyring" or "passphrase".
//   - Env: logging flavour, "local" or "prod".
//   - UserAgent: sent on every request.
//   - AllowUntrustedDevice: start even when the device trust check fails.
//   - ReleaseBuild: enables the release-only device trust signals.
type Config struct {
	APIBaseURL           string
	ClientID             string
	ClientSecret         string
	SeedRefreshToken     string
	DatabasePath         string
	HTTPTimeout          time.Duration
	KeySource            string
	Env                  string
	UserAgent            string
	AllowUntrustedDevice bool
	ReleaseBuild         bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "https://api-sandbox.starlingbank.com"
	c.DatabasePath = defaultDatabasePath()
	c.HTTPTimeout = 15 * time.Second
	c.KeySource = KeySourceKeyring
	c.Env = "local"
	c.UserAgent = "roundup-cli/" + buildinfo.Version
	c.ReleaseBuild = buildinfo.IsRelease()
}

func defaultDatabasePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "roundup.db"
	}
	return filepath.Join(dir, "roundup", "roundup.db")
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if -c/-config is given), the environment and command-line flags.
// Later sources take precedence over earlier ones. args excludes the
// program name.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
