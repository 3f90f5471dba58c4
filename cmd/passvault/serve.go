package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"

	sqliteadapter "github.com/ericfisherdev/passvault/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/passvault/internal/adapter/driven/vaultcipher"
	httphandler "github.com/ericfisherdev/passvault/internal/adapter/driving/http"
	"github.com/ericfisherdev/passvault/internal/application"
	"github.com/ericfisherdev/passvault/internal/config"
	"github.com/ericfisherdev/passvault/internal/domain/port/driven"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}
	addServeFlags(cmd)
	return cmd
}

// addServeFlags registers the flags that override configuration keys.
func addServeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("listen-addr", "", "address to listen on (env PASSVAULT_LISTEN_ADDR)")
	f.String("db-path", "", "SQLite database path (env PASSVAULT_DB_PATH)")
	f.String("client-origin", "", "browser origin allowed by CORS (env PASSVAULT_CLIENT_ORIGIN)")
	f.String("principal-header", "", "header carrying the authenticated principal (env PASSVAULT_PRINCIPAL_HEADER)")
	f.String("log-level", "", "debug, info, warn or error (env PASSVAULT_LOG_LEVEL)")
}

func runServe(cmd *cobra.Command) error {
	// Destroys every enclave, including the vault key, on the way out.
	defer memguard.Purge()

	// 1. Load configuration (fail fast on a missing or malformed key).
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"client_origin", cfg.ClientOrigin,
		"principal_header", cfg.PrincipalHeader,
	)

	// 2. Build the vault cipher. The decoded key is wiped by vaultcipher.New.
	key, err := cfg.EncryptionKey.Bytes()
	if err != nil {
		return fmt.Errorf("decode encryption key: %w", err)
	}
	cipher, err := vaultcipher.New(key)
	if err != nil {
		return err
	}

	// 3. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 5. Run migrations on writer connection.
	schemaVersion, err := sqliteadapter.RunMigrations(db.Writer)
	if err != nil {
		return err
	}
	slog.Info("migrations complete", "schema_version", schemaVersion)

	// 6. Wire adapters and services.
	accountStore := sqliteadapter.NewAccountRepo(db)
	recordStore := sqliteadapter.NewCredentialRepo(db)

	credentialSvc := application.NewCredentialService(
		accountStore,
		recordStore,
		cipher,
		application.NewPasswordGenerator(),
		slog.Default(),
	)
	healthSvc := application.NewHealthService(map[string]driven.HealthChecker{
		"database": db,
	}, slog.Default())

	// 7. Create HTTP handler with middleware.
	apiHandler := httphandler.NewHandler(credentialSvc, healthSvc, slog.Default())
	handler := httphandler.NewServeMux(apiHandler, slog.Default(), httphandler.Options{
		ClientOrigin:    cfg.ClientOrigin,
		PrincipalHeader: cfg.PrincipalHeader,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	slog.Info("passvault started", "version", version, "listen_addr", cfg.ListenAddr)

	// 8. Wait for shutdown signal or a listener failure.
	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	// 9. Graceful shutdown with 10s timeout for in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
