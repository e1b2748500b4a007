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

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"

	"pairchat/api"
	"pairchat/auth"
	"pairchat/internal"
	"pairchat/repositories"
	"pairchat/runtime"
	"pairchat/runtime/workers"
	"pairchat/services"
	"pairchat/ws"
)

// Exit codes to provide meaningful status to the operating system or
// service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper. Its only responsibility
	// is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting. This pattern is preferred over calling
// os.Exit or panic directly because:
//  1. It ensures all 'defer' statements (like database cleanup) run
//     before the program exits.
//  2. It decouples the initialization logic from the entry point.
//  3. It provides a structured path for graceful shutdown of the HTTP
//     server and background workers.
func run() (int, error) {
	// 1. Configuration & Logger
	// A .env file is optional outside development.
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	logger := internal.LoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(buildBadgerOpts(config, logger))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		// Ensures the database lock is released and buffers are flushed
		// before the function returns.
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Repositories
	messageRepository := repositories.NewMessageRepository(db, logger, config.LimitMessages)
	userRepository, err := repositories.NewUserRepository(db)
	if err != nil {
		return exitRuntime, fmt.Errorf("user repository init failed: %w", err)
	}
	defer func() {
		_ = userRepository.Close()
	}()

	// 4. Fan-out channel & supervision
	registry := runtime.NewRegistry()
	fanout := runtime.NewFanout(logger, registry, config.BufferSize, config.SinkTimeout)
	sup := workers.NewSupervisor(logger, config.RestartInterval)
	sup.Add(fanout)

	// 5. Services and transport
	tokens := auth.NewTokens(config.JWTSecret, config.AuthTokenDuration)
	gate := auth.NewGate(tokens, userRepository)
	chatService := services.NewChatService(logger, messageRepository, userRepository, fanout)
	authService := services.NewAuthService(userRepository, tokens)
	liveHandler := ws.NewHandler(logger, gate, chatService, config.ConnectionBufferSize)
	server := api.NewServer(logger, gate, authService, chatService, liveHandler)

	// 6. Context & signals
	// NotifyContext captures OS signals and cancels the context to
	// trigger a shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 2)

	go func() {
		logger.Info("Starting fanout supervisor...")
		sup.Run(ctx)
	}()

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{
		Addr:              address,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for stop or error. Execution blocks here until a signal is
	// received or the server crashes.
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 8. Graceful shutdown: let active requests and sockets finish, then
	// stop the fanout worker.
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown did not finish cleanly", "error", err)
	}
	sup.Stop()
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		return options.WithLoggingLevel(badger.DEBUG)
	}
	return options.WithLoggingLevel(badger.ERROR)
}
