package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	"github.com/mmynk/authflow/internal/authcli"
	"github.com/mmynk/authflow/internal/config"
	"github.com/mmynk/authflow/internal/provider/remote"
	"github.com/mmynk/authflow/pkg/logging"
)

func main() {
	logger := logging.New(os.Stderr, logging.LevelFromEnv(slog.LevelWarn))

	var cfg config.Client
	if err := config.ParseEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "authflow: %v\n", err)
		os.Exit(1)
	}

	client := remote.New(&http.Client{Timeout: cfg.Timeout}, cfg.ServerURL, remote.NewSessionFile(cfg.SessionPath), logger)

	app := &authcli.App{
		Provider: client,
		Logger:   logger,
		Out:      os.Stdout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := app.Command().Run(ctx, os.Args)
	stop()
	client.Close()

	if errors.Is(err, authcli.ErrAuthFailed) {
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "authflow: %v\n", err)
		os.Exit(1)
	}
}
