// Package config loads runtime configuration for the round-up CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Environment variables (see parseEnv), read with cleanenv. Secrets
//     live only here.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string          bank API base URL
//	-d string          local database path
//	-t int             HTTP timeout (seconds)
//	-k string          key source: keyring | passphrase
//	-allow-untrusted   skip the device trust gate
//
// Environment
//
//	ROUNDUP_CLIENT_ID, ROUNDUP_CLIENT_SECRET, ROUNDUP_SEED_REFRESH_TOKEN,
//	ROUNDUP_API_BASE_URL, ROUNDUP_DB_PATH, ROUNDUP_ENV
//
// # JSON schema
//
// The JSON loader uses timex.Duration for the timeout, so it can be either a
// string like "15s" or integer nanoseconds:
//
//	{
//	  "api_base_url": "https://api-sandbox.starlingbank.com",
//	  "database_path": "/home/me/.config/roundup/roundup.db",
//	  "http_timeout": "15s",
//	  "key_source": "keyring",
//	  "env": "local"
//	}
package config
