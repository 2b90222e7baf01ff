package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/usermgmt/account-console/internal/core/domain"
	"github.com/usermgmt/account-console/internal/devserver"
	"github.com/usermgmt/account-console/internal/infrastructure/config"
	"github.com/usermgmt/account-console/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadServer(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	store := devserver.NewStore()
	if err := store.Seed(cfg.AdminUsername, cfg.AdminPassword, domain.RoleAdmin); err != nil {
		log.Fatal().Err(err).Msg("seeding admin account failed")
	}

	hub := devserver.NewHub()
	e := devserver.New(cfg, store, hub, log)

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("devserver listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}
