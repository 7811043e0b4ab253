package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/rapportini/internal/logging"
	"github.com/Tiliavir/rapportini/internal/server"
	"github.com/Tiliavir/rapportini/internal/storage"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API for the browser front end",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :3000)")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := env.cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	// The server logs to stdout like any long-running service.
	logger := logging.Setup(os.Stdout, env.cfg.Logging.Level, env.cfg.Logging.Format)
	store := storage.New(env.cfg.DataDir, storage.WithLogger(logger))

	// Create the record file up front so a bad data dir fails at startup.
	if _, err := store.LoadAll(); err != nil {
		slog.Error("cannot open record store", "dir", env.cfg.DataDir, "error", err)
		os.Exit(2)
	}

	srv := server.New(store, addr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("server starting",
		"addr", addr,
		"records", filepath.Join(store.Dir(), storage.RecordsFile),
		"csv", filepath.Join(store.Dir(), storage.ExportFile),
	)
	if err := serveUntil(ctx, srv, shutdownTimeout); err != nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}

const shutdownTimeout = 10 * time.Second

type httpService interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// serveUntil runs srv until ctx is done, then shuts it down and waits for
// in-flight requests to drain before returning.
func serveUntil(ctx context.Context, srv httpService, timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()

		slog.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}
