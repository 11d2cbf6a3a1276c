package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/roundup/internal/flagx"
	"github.com/dmitrijs2005/roundup/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify the timeout either as a
// string like "15s" or as integer nanoseconds. Secrets are deliberately
// absent: they come from the environment.
type JsonConfig struct {
	APIBaseURL           string         `json:"api_base_url"`
	DatabasePath         string         `json:"database_path"`
	HTTPTimeout          timex.Duration `json:"http_timeout"`
	KeySource            string         `json:"key_source"`
	Env                  string         `json:"env"`
	UserAgent            string         `json:"user_agent"`
	AllowUntrustedDevice *bool          `json:"allow_untrusted_device"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Without one it does nothing. Only fields present in the
// file are copied.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.APIBaseURL, jc.APIBaseURL)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.KeySource, jc.KeySource)
	setString(&cfg.Env, jc.Env)
	setString(&cfg.UserAgent, jc.UserAgent)
	if jc.HTTPTimeout.Duration != 0 {
		cfg.HTTPTimeout = jc.HTTPTimeout.Duration
	}
	if jc.AllowUntrustedDevice != nil {
		cfg.AllowUntrustedDevice = *jc.AllowUntrustedDevice
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
