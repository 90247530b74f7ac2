package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/cashflow-engine/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API until SIGINT or SIGTERM.

On shutdown the server stops accepting connections, waits up to 30s for
active requests, stops the background sweep and closes the database.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	store, engine, err := openEngine()
	if err != nil {
		return err
	}
	defer store.Close()

	handler := api.NewHandler(store, engine)
	router := api.NewRouter(handler, cfg.CORS.AllowedOrigins)

	sweeper := api.NewSweepScheduler(engine.Scheduler, cfg.Scheduler.SweepInterval, logger)
	sweeper.Start()
	defer sweeper.Stop()

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", server.Addr, "schema_version", store.SchemaVersion())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			return err
		}
	case <-quit:
	}

	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return err
	}

	slog.Info("server stopped")
	return nil
}
