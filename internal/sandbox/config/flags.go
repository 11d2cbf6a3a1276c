package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/roundup/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   bind address (e.g., ":8080")
//	-s string   JWT HMAC secret key
//	-t int      access token validity, seconds
//	-r string   seed refresh token
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("sandbox", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.Addr, "a", config.Addr, "address and port to run server")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	validity := fs.Int("t", int(config.AccessTokenValidityDuration.Seconds()), "access token validity (in seconds)")
	fs.StringVar(&config.SeedRefreshToken, "r", config.SeedRefreshToken, "seed refresh token")

	if err := fs.Parse(flagx.FilterArgs(args, []string{"-a", "-s", "-t", "-r"})); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.AccessTokenValidityDuration = time.Duration(*validity) * time.Second
		}
	})
	return nil
}
