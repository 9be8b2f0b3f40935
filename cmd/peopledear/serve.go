package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/peopledear/peopledear/api"
)

const shutdownTimeout = 30 * time.Second

func serveCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Run the HTTP API server.

On SIGINT/SIGTERM the server stops accepting connections, waits up to
30s for active requests, stops the rollover scheduler, flushes pending
notifications and closes the database.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(flags)
			if err != nil {
				return err
			}
			defer a.Close()
			return runServer(cmd.Context(), a)
		},
	}
}

func runServer(ctx context.Context, a *app) error {
	cfg := a.cfg
	handler := api.NewHandler(a.svc, a.logger)
	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		RateLimit:      cfg.HTTP.RateLimit,
		RateBurst:      cfg.HTTP.RateBurst,
	})

	if cfg.Scheduler.Enabled {
		sched := api.NewRolloverScheduler(a.svc, cfg.Scheduler.RolloverSpec, a.logger)
		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()
	}

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.logger.WithField("addr", cfg.HTTP.Addr).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	a.logger.Info("server stopped")
	return nil
}
