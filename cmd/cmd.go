package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"thoughtnet/internal/config"
	"thoughtnet/internal/models"
	"thoughtnet/internal/repository"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	configPath string
	cfg        *config.Config

	rootCmd = &cobra.Command{
		Use:   "thoughtnet",
		Short: "Social network API for users, thoughts and reactions",
		Long: `thoughtnet serves a JSON API over users and their thoughts,
keeps each user's thoughts list in step with the thought documents and
streams changes to WebSocket clients.`,
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "path to the YAML config file")
	rootCmd.AddCommand(serveCmd, seedCmd, exportCmd)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(_ *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	loaded, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg = loaded

	setupLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	models.SetDisplayLocation(cfg.Server.Location())
	return nil
}

// openStore connects the configured document store driver
func openStore(ctx context.Context, cfg *config.Config) (*repository.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverMongo:
		return repository.OpenMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Store.Timeout)
	case config.DriverPostgres:
		ctx, cancel := context.WithTimeout(ctx, cfg.Store.Timeout)
		defer cancel()
		return repository.OpenPostgres(ctx, cfg.Database.DSN())
	case config.DriverMemory:
		log.Warn().Msg("Using in-memory store, data is lost on exit")
		return repository.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// setupLogger configures zerolog logger
func setupLogger(out io.Writer, level, format string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if format == "json" {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: out})
	}

	switch strings.ToLower(level) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
