package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/spf13/cobra"

	fsstore "medilocator/internal/adapters/storage/firestore"
	pg "medilocator/internal/adapters/storage/postgres"
	"medilocator/internal/config"
	"medilocator/internal/platform/logger"
	"medilocator/internal/router"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta la API HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runServer(ctx, cfg, log)
		},
	}
}

func runServer(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	ropts := router.Options{Logger: log}

	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := pg.Open(cfg.DBDSN, cfg.DBMaxConns)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer closeDB(db, log)
		ropts.DB = db

	case config.BackendFirestore:
		client, err := fsstore.Open(ctx, cfg.FirestoreProjectID)
		if err != nil {
			return fmt.Errorf("open firestore: %w", err)
		}
		defer closeFirestore(client, log)
		ropts.Firestore = client
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.NewRouter(ropts),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr, "env": cfg.Env})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info("server stopped", nil)
	return nil
}

func closeDB(db *sql.DB, log logger.Logger) {
	if err := db.Close(); err != nil {
		log.Warn("close postgres", map[string]any{"error": err})
	}
}

func closeFirestore(client *firestore.Client, log logger.Logger) {
	if err := client.Close(); err != nil {
		log.Warn("close firestore", map[string]any{"error": err})
	}
}
