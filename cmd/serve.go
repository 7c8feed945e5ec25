package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"thoughtnet/internal/handlers"
	"thoughtnet/internal/services"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and WebSocket server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Connect to the document store
	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("Failed to close store")
		}
	}()
	log.Info().Str("driver", store.Driver).Msg("Store connection established")

	// Initialize services
	validator := services.NewValidator()
	feedHub := services.NewFeedHub(cfg.Feed.WriteTimeout)
	thoughtService := services.NewThoughtService(store.Thoughts, store.Users, validator, feedHub)
	userService := services.NewUserService(store.Users, store.Thoughts, validator, feedHub)

	// Setup router
	router := handlers.NewRouter(handlers.RouterDeps{
		Thoughts:  handlers.NewThoughtHandler(thoughtService),
		Users:     handlers.NewUserHandler(userService),
		WebSocket: handlers.NewWebSocketHandler(feedHub),
		Health:    handlers.NewHealthHandler(store, store.Driver, cfg.Store.Timeout),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-quit:
	}

	log.Info().Int("feed_connections", feedHub.Count()).Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	feedHub.Close()

	log.Info().Msg("Server exited")
	return nil
}
