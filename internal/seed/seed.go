// Package seed fills a store with demo users, thoughts and reactions.
// Everything goes through the services, so the usual integrity rules apply.
package seed

import (
	"context"
	"fmt"
	"strings"

	"thoughtnet/internal/models"
	"thoughtnet/internal/services"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/rs/zerolog/log"
)

// Options controls how much data is generated
type Options struct {
	Users     int
	Thoughts  int
	Reactions int
	Friends   int
	// Seed makes the generated data reproducible. Zero picks a random seed.
	Seed int64
}

// Result summarizes what a run created
type Result struct {
	Users     []*models.User
	Thoughts  []*models.Thought
	Reactions int
	Friends   int
}

// Seeder creates demo data through the user and thought services
type Seeder struct {
	users    *services.UserService
	thoughts *services.ThoughtService
	faker    *gofakeit.Faker
}

// NewSeeder creates a new seeder
func NewSeeder(users *services.UserService, thoughts *services.ThoughtService, seed int64) *Seeder {
	return &Seeder{
		users:    users,
		thoughts: thoughts,
		faker:    gofakeit.New(seed),
	}
}

// Run creates opts.Users users, then spreads opts.Thoughts thoughts,
// reactions and friendships across them.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Users <= 0 {
		return nil, fmt.Errorf("at least one user is required")
	}

	result := &Result{}
	for i := 0; i < opts.Users; i++ {
		user, err := s.users.CreateUser(ctx, services.CreateUserRequest{
			Username: fmt.Sprintf("%s%d", s.faker.Username(), i),
			Email:    fmt.Sprintf("%d.%s", i, s.faker.Email()),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create user %d: %w", i, err)
		}
		result.Users = append(result.Users, user)
	}

	for i := 0; i < opts.Thoughts; i++ {
		author := result.Users[s.faker.Number(0, len(result.Users)-1)]
		thought, err := s.thoughts.CreateThought(ctx, services.CreateThoughtRequest{
			ThoughtText: s.text(s.faker.Number(4, 16)),
			UserID:      author.ID.Hex(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create thought %d: %w", i, err)
		}
		result.Thoughts = append(result.Thoughts, thought)
	}

	if len(result.Thoughts) > 0 {
		for i := 0; i < opts.Reactions; i++ {
			thought := result.Thoughts[s.faker.Number(0, len(result.Thoughts)-1)]
			reactor := result.Users[s.faker.Number(0, len(result.Users)-1)]
			if _, err := s.thoughts.AddReaction(ctx, thought.ID.Hex(), services.AddReactionRequest{
				UserID:       reactor.ID.Hex(),
				ReactionBody: s.text(s.faker.Number(1, 6)),
			}); err != nil {
				return nil, fmt.Errorf("failed to add reaction %d: %w", i, err)
			}
			result.Reactions++
		}
	}

	if len(result.Users) > 1 {
		for i := 0; i < opts.Friends; i++ {
			a := s.faker.Number(0, len(result.Users)-1)
			b := s.faker.Number(0, len(result.Users)-1)
			if a == b {
				continue
			}
			if _, err := s.users.AddFriend(ctx, result.Users[a].ID.Hex(), result.Users[b].ID.Hex()); err != nil {
				return nil, fmt.Errorf("failed to add friend %d: %w", i, err)
			}
			result.Friends++
		}
	}

	log.Info().
		Int("users", len(result.Users)).
		Int("thoughts", len(result.Thoughts)).
		Int("reactions", result.Reactions).
		Int("friends", result.Friends).
		Msg("Seed complete")

	return result, nil
}

func (s *Seeder) text(words int) string {
	text := strings.TrimSpace(s.faker.Sentence(words))
	if runes := []rune(text); len(runes) > models.MaxTextLength {
		text = string(runes[:models.MaxTextLength])
	}
	return text
}
