package services

import (
	"context"
	"strings"
	"time"

	"thoughtnet/internal/models"
	"thoughtnet/internal/repository"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	msgUserNotFound    = "User not found"
	msgThoughtNotFound = "No thought found with this id!"
	msgThoughtDeleted  = "Thought deleted!"
)

// ThoughtService owns every write that touches thoughts, keeping each
// user's thoughts list and the embedded reactions in step with the
// thought documents. The two-collection writes are not atomic.
type ThoughtService struct {
	thoughtRepo repository.ThoughtRepository
	userRepo    repository.UserRepository
	validator   *Validator
	events      EventPublisher
	now         func() time.Time
}

// NewThoughtService creates a new thought service. A nil publisher disables events.
func NewThoughtService(
	thoughtRepo repository.ThoughtRepository,
	userRepo repository.UserRepository,
	validator *Validator,
	events EventPublisher,
) *ThoughtService {
	if events == nil {
		events = noopPublisher{}
	}
	return &ThoughtService{
		thoughtRepo: thoughtRepo,
		userRepo:    userRepo,
		validator:   validator,
		events:      events,
		now:         time.Now,
	}
}

// CreateThoughtRequest represents a request to create a thought
type CreateThoughtRequest struct {
	ThoughtText string `json:"thoughtText"`
	UserID      string `json:"userId"`
}

// UpdateThoughtRequest carries the mutable thought fields
type UpdateThoughtRequest struct {
	ThoughtText *string `json:"thoughtText"`
}

// AddReactionRequest represents a request to react to a thought
type AddReactionRequest struct {
	UserID       string `json:"userId"`
	ReactionBody string `json:"reactionBody"`
}

// ListThoughts returns every thought with the owner id hidden
func (s *ThoughtService) ListThoughts(ctx context.Context) ([]models.Thought, error) {
	thoughts, err := s.thoughtRepo.List(ctx)
	if err != nil {
		return nil, models.NewStoreError(err)
	}

	out := make([]models.Thought, 0, len(thoughts))
	for _, t := range thoughts {
		out = append(out, t.WithoutOwner())
	}
	return out, nil
}

// GetThought returns a single thought
func (s *ThoughtService) GetThought(ctx context.Context, id string) (*models.Thought, error) {
	thoughtID, err := models.ParseID(id)
	if err != nil {
		return nil, err
	}

	thought, err := s.thoughtRepo.GetByID(ctx, thoughtID)
	if err != nil {
		return nil, translate(err, msgThoughtNotFound)
	}
	return thought, nil
}

// CreateThought stores a thought for an existing user and appends its id
// to that user's thoughts list. A failure of the second write leaves the
// thought in place without a back-reference.
func (s *ThoughtService) CreateThought(ctx context.Context, req CreateThoughtRequest) (*models.Thought, error) {
	user, err := s.resolveUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	thought := &models.Thought{
		ID:          primitive.NewObjectID(),
		ThoughtText: req.ThoughtText,
		UserID:      user.ID,
		Username:    user.Username,
		CreatedAt:   s.now().UTC().Truncate(time.Millisecond),
		Reactions:   []models.Reaction{},
	}
	if err := s.validator.Struct(thought); err != nil {
		return nil, err
	}

	if err := s.thoughtRepo.Create(ctx, thought); err != nil {
		return nil, translate(err, msgThoughtNotFound)
	}

	if err := s.userRepo.PushThought(ctx, user.ID, thought.ID); err != nil {
		log.Warn().
			Err(err).
			Str("thought_id", thought.ID.Hex()).
			Str("user_id", user.ID.Hex()).
			Msg("Thought created without back-reference")
	}

	stored, err := s.thoughtRepo.GetByID(ctx, thought.ID)
	if err != nil {
		return nil, translate(err, msgThoughtNotFound)
	}
	created := stored.WithoutOwner()

	s.events.Publish(EventThoughtCreated, created)
	return &created, nil
}

// UpdateThought applies a partial update and re-runs validation
func (s *ThoughtService) UpdateThought(ctx context.Context, id string, req UpdateThoughtRequest) (*models.Thought, error) {
	thoughtID, err := models.ParseID(id)
	if err != nil {
		return nil, err
	}

	current, err := s.thoughtRepo.GetByID(ctx, thoughtID)
	if err != nil {
		return nil, translate(err, msgThoughtNotFound)
	}
	if req.ThoughtText != nil {
		current.ThoughtText = *req.ThoughtText
	}
	if err := s.validator.Struct(current); err != nil {
		return nil, err
	}

	updated, err := s.thoughtRepo.Update(ctx, thoughtID, repository.ThoughtUpdate{ThoughtText: req.ThoughtText})
	if err != nil {
		return nil, translate(err, msgThoughtNotFound)
	}

	s.events.Publish(EventThoughtUpdated, updated)
	return updated, nil
}

// DeleteThought removes a thought and pulls its id from every user that
// lists it, whoever the owner is.
func (s *ThoughtService) DeleteThought(ctx context.Context, id string) (*models.MessageResponse, error) {
	thoughtID, err := models.ParseID(id)
	if err != nil {
		return nil, err
	}

	if err := s.thoughtRepo.Delete(ctx, thoughtID); err != nil {
		return nil, translate(err, msgThoughtNotFound)
	}

	modified, err := s.userRepo.PullThought(ctx, thoughtID)
	if err != nil {
		return nil, models.NewStoreError(err)
	}

	log.Debug().
		Str("thought_id", thoughtID.Hex()).
		Int64("users_modified", modified).
		Msg("Thought back-references removed")

	s.events.Publish(EventThoughtDeleted, map[string]string{"_id": thoughtID.Hex()})
	return &models.MessageResponse{Message: msgThoughtDeleted}, nil
}

// AddReaction appends a reaction by an existing user to a thought
func (s *ThoughtService) AddReaction(ctx context.Context, thoughtID string, req AddReactionRequest) (*models.Thought, error) {
	tid, err := models.ParseID(thoughtID)
	if err != nil {
		return nil, err
	}

	user, err := s.resolveUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	reaction := models.Reaction{
		ReactionID:   primitive.NewObjectID(),
		ReactionBody: req.ReactionBody,
		UserID:       user.ID,
		Username:     user.Username,
		CreatedAt:    s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.validator.Struct(reaction); err != nil {
		return nil, err
	}

	thought, err := s.thoughtRepo.PushReaction(ctx, tid, reaction)
	if err != nil {
		return nil, translate(err, msgThoughtNotFound)
	}

	s.events.Publish(EventReactionAdded, thought)
	return thought, nil
}

// RemoveReaction pulls the reaction with reactionID from a thought.
// Removing a reaction that is not there leaves the thought unchanged.
func (s *ThoughtService) RemoveReaction(ctx context.Context, thoughtID, reactionID string) (*models.Thought, error) {
	tid, err := models.ParseID(thoughtID)
	if err != nil {
		return nil, err
	}
	rid, err := models.ParseID(reactionID)
	if err != nil {
		return nil, err
	}

	thought, err := s.thoughtRepo.PullReaction(ctx, tid, rid)
	if err != nil {
		return nil, translate(err, msgThoughtNotFound)
	}

	s.events.Publish(EventReactionRemoved, thought)
	return thought, nil
}

func (s *ThoughtService) resolveUser(ctx context.Context, id string) (*models.User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, models.NewNotFoundError(msgUserNotFound)
	}
	userID, err := models.ParseID(id)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, translate(err, msgUserNotFound)
	}
	return user, nil
}
