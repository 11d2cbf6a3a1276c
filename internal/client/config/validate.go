package config

import (
	"errors"
	"fmt"
	"net/url"
)

var ErrInvalidConfig = errors.New("invalid config")

// Validate checks the settings every run needs. Client credentials are
// required; the seed refresh token may be missing when one is already
// stored locally.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: api base url %q", ErrInvalidConfig, c.APIBaseURL)
	}
	if c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("%w: client id and secret are required (ROUNDUP_CLIENT_ID, ROUNDUP_CLIENT_SECRET)", ErrInvalidConfig)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("%w: database path is empty", ErrInvalidConfig)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("%w: http timeout must be positive", ErrInvalidConfig)
	}
	switch c.KeySource {
	case KeySourceKeyring, KeySourcePassphrase:
	default:
		return fmt.Errorf("%w: key source %q", ErrInvalidConfig, c.KeySource)
	}
	return nil
}
