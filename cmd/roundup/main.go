package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/roundup/internal/buildinfo"
	"github.com/dmitrijs2005/roundup/internal/client/cli"
	"github.com/dmitrijs2005/roundup/internal/client/config"
	"github.com/dmitrijs2005/roundup/internal/devicetrust"
	"github.com/dmitrijs2005/roundup/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Env, os.Stderr)
	if err != nil {
		return err
	}

	checker := devicetrust.NewChecker(devicetrust.Probes{}, log)
	if checker.IsCompromised(ctx, devicetrust.Platform{Release: cfg.ReleaseBuild}) {
		if !cfg.AllowUntrustedDevice {
			return fmt.Errorf("refusing to start: this device looks rooted or instrumented")
		}
		log.Warn(ctx, "device trust check failed, continuing because -allow-untrusted is set")
	}

	app, deps, err := cli.NewAppFromConfig(ctx, cfg, os.Stdin, os.Stdout, log)
	if err != nil {
		return err
	}
	defer deps.Close()

	return app.Run(ctx)
}
