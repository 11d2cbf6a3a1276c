package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/roundup/internal/flagx"
)

var ownFlags = []string{"-a", "-d", "-t", "-k", "-allow-untrusted"}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string          bank API base URL
//	-d string          path of the local database
//	-t int             HTTP timeout in seconds
//	-k string          key source: keyring or passphrase
//	-allow-untrusted   start even if the device trust check fails
//
// Only the flags above are looked at (flagx.FilterArgs), so -c/-config and
// anything else on the command line do not interfere.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("roundup", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "bank API base URL")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path of the local database")
	timeout := fs.Int("t", int(cfg.HTTPTimeout.Seconds()), "HTTP timeout (in seconds)")
	fs.StringVar(&cfg.KeySource, "k", cfg.KeySource, "key source: keyring or passphrase")
	fs.BoolVar(&cfg.AllowUntrustedDevice, "allow-untrusted", cfg.AllowUntrustedDevice, "start even if the device trust check fails")

	if err := fs.Parse(flagx.FilterArgs(args, ownFlags)); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			cfg.HTTPTimeout = time.Duration(*timeout) * time.Second
		}
	})
	return nil
}
