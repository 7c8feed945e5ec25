package cmd

import (
	"context"
	"fmt"
	"time"

	"thoughtnet/internal/seed"
	"thoughtnet/internal/services"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var seedOpts seed.Options

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the configured store with fake users, thoughts and reactions",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&seedOpts.Users, "users", 10, "number of users to create")
	seedCmd.Flags().IntVar(&seedOpts.Thoughts, "thoughts", 30, "number of thoughts to create")
	seedCmd.Flags().IntVar(&seedOpts.Reactions, "reactions", 60, "number of reactions to add")
	seedCmd.Flags().IntVar(&seedOpts.Friends, "friends", 20, "number of friendships to add")
	seedCmd.Flags().Int64Var(&seedOpts.Seed, "seed", 0, "random seed, 0 for a random run")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close(context.Background())

	validator := services.NewValidator()
	userService := services.NewUserService(store.Users, store.Thoughts, validator, nil)
	thoughtService := services.NewThoughtService(store.Thoughts, store.Users, validator, nil)

	randomSeed := seedOpts.Seed
	if randomSeed == 0 {
		randomSeed = time.Now().UnixNano()
	}

	result, err := seed.NewSeeder(userService, thoughtService, randomSeed).Run(ctx, seedOpts)
	if err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}

	log.Info().
		Str("driver", store.Driver).
		Int64("seed", randomSeed).
		Int("users", len(result.Users)).
		Int("thoughts", len(result.Thoughts)).
		Msg("Store seeded")
	return nil
}
