package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/roundup/internal/buildinfo"
	"github.com/dmitrijs2005/roundup/internal/logging"
	"github.com/dmitrijs2005/roundup/internal/sandbox"
	"github.com/dmitrijs2005/roundup/internal/sandbox/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Env, os.Stdout)
	if err != nil {
		return err
	}

	return sandbox.NewServer(cfg, log).Run(ctx)
}
