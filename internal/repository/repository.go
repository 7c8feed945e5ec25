package repository

import (
	"context"
	"errors"
	"fmt"

	"thoughtnet/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned when no document matches the identifier.
var ErrNotFound = errors.New("document not found")

// ErrDuplicate is returned when a unique field is already taken.
var ErrDuplicate = errors.New("duplicate key")

// DuplicateError names the unique field that rejected a write.
type DuplicateError struct {
	Field string
}

// Error names the taken field
func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s already exists", e.Field)
}

// Is matches ErrDuplicate
func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// UserUpdate carries the user fields to overwrite. Nil means unchanged.
type UserUpdate struct {
	Username *string
	Email    *string
}

// ThoughtUpdate carries the thought fields to overwrite. Nil means unchanged.
type ThoughtUpdate struct {
	ThoughtText *string
}

// UserRepository stores user documents and their back-reference lists.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, id primitive.ObjectID, update UserUpdate) (*models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error

	// PushThought appends thoughtID to one user's thoughts list.
	PushThought(ctx context.Context, userID, thoughtID primitive.ObjectID) error
	// PullThought removes thoughtID from every user that lists it and
	// reports how many users changed.
	PullThought(ctx context.Context, thoughtID primitive.ObjectID) (int64, error)

	AddFriend(ctx context.Context, userID, friendID primitive.ObjectID) (*models.User, error)
	RemoveFriend(ctx context.Context, userID, friendID primitive.ObjectID) (*models.User, error)
	PullFriend(ctx context.Context, friendID primitive.ObjectID) (int64, error)
}

// ThoughtRepository stores thought documents with their embedded reactions.
type ThoughtRepository interface {
	Create(ctx context.Context, thought *models.Thought) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Thought, error)
	List(ctx context.Context) ([]*models.Thought, error)
	Update(ctx context.Context, id primitive.ObjectID, update ThoughtUpdate) (*models.Thought, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)

	// PushReaction appends reaction and returns the updated thought.
	PushReaction(ctx context.Context, thoughtID primitive.ObjectID, reaction models.Reaction) (*models.Thought, error)
	// PullReaction removes the reaction with reactionID, if present, and
	// returns the thought. A missing reaction is not an error.
	PullReaction(ctx context.Context, thoughtID, reactionID primitive.ObjectID) (*models.Thought, error)
}

// Store bundles the repositories of one driver with its lifecycle hooks.
type Store struct {
	Driver   string
	Users    UserRepository
	Thoughts ThoughtRepository

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

// Ping checks that the backing store is reachable
func (s *Store) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

// Close releases the backing connection
func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}
