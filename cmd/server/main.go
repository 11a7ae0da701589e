// Package main initializes and starts the GophNotes HTTP(S) server,
// setting up configuration, logging, database connections, repositories,
// services, handlers, and metrics.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/GophNotes/internal/config"
	"github.com/atinyakov/GophNotes/internal/db"
	"github.com/atinyakov/GophNotes/internal/logger"
	"github.com/atinyakov/GophNotes/internal/metrics"
	"github.com/atinyakov/GophNotes/internal/password"
	"github.com/atinyakov/GophNotes/internal/repository"
	"github.com/atinyakov/GophNotes/internal/server/handler/http"
	"github.com/atinyakov/GophNotes/internal/service"
	"github.com/atinyakov/GophNotes/internal/token"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Parse command-line, config file and environment configuration.
	options := config.Parse()
	if err := options.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	zapLogger := log.Log
	defer func() { _ = zapLogger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize PostgreSQL connection and apply migrations.
	postgresDB, err := db.InitPostgres(ctx, options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer func() {
		if err := postgresDB.Close(); err != nil {
			zapLogger.Error("failed to close database", zap.Error(err))
		}
	}()

	// Initialize repositories for users and notes.
	userRepo := repository.NewPostgresUserRepository(postgresDB)
	noteRepo := repository.NewPostgresNoteRepository(postgresDB)

	// Initialize business-logic services.
	hasher := password.NewBcryptHasher(options.BcryptCost)
	tokens := token.NewService(options.JWTSecret)
	authService := service.NewAuthService(userRepo, hasher, tokens, options.TokenTTL, zapLogger.Named("auth"))
	noteService := service.NewNoteService(noteRepo, zapLogger.Named("notes"))

	// Create HTTP handlers for auth and note endpoints.
	m := metrics.New()
	authHandler := &http.AuthHandler{AuthService: authService, Log: zapLogger, Metrics: m}
	noteHandler := &http.NoteHandler{NoteService: noteService, Log: zapLogger}

	// Build the router with middleware and routes.
	router := http.NewRouter(authHandler, noteHandler, zapLogger, m)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if options.TLSEnabled() {
			zapLogger.Info("starting HTTPS server", zap.String("addr", options.Port))
			errCh <- server.ListenAndServeTLS(options.TLSCertFile, options.TLSKeyFile)
			return
		}
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			zapLogger.Error("server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		zapLogger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
