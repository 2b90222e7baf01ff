package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/usermgmt/account-console/internal/console"
	"github.com/usermgmt/account-console/internal/core/session"
	"github.com/usermgmt/account-console/internal/infrastructure/backend"
	"github.com/usermgmt/account-console/internal/infrastructure/config"
	"github.com/usermgmt/account-console/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConsole(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	gw := backend.NewGateway(cfg.BaseURL, cfg.HTTPTimeout, log)
	sess := session.NewController(gw, log)
	c := console.New(sess, gw, os.Stdin, os.Stdout, log)

	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("console terminated")
	}
}
