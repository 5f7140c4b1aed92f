package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/intaked/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the intake HTTP server",
	Long: `Run the intake HTTP server.

Examples:
  # Run with defaults
  intaked serve

  # Run with a config file
  intaked serve --config /etc/intaked/config.yaml`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	var corrections server.Corrections
	if a.store != nil {
		corrections = a.store
	}

	srv, err := server.NewServer(a.pipeline, corrections, a.converter, a.logger.Named("http"), server.Config{
		Host:            a.cfg.Server.Host,
		Port:            a.cfg.Server.Port,
		Thresholds:      a.cfg.Match.Thresholds,
		OptionThreshold: a.cfg.Match.OptionThreshold,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		a.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
