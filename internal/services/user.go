package services

import (
	"context"
	"strings"

	"thoughtnet/internal/models"
	"thoughtnet/internal/repository"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	msgNoUser       = "No user found with this id!"
	msgFriendNoUser = "Friend not found"
	msgUserDeleted  = "User and associated thoughts deleted!"
)

// UserService handles user-related business logic
type UserService struct {
	userRepo    repository.UserRepository
	thoughtRepo repository.ThoughtRepository
	validator   *Validator
	events      EventPublisher
}

// NewUserService creates a new user service. A nil publisher disables events.
func NewUserService(
	userRepo repository.UserRepository,
	thoughtRepo repository.ThoughtRepository,
	validator *Validator,
	events EventPublisher,
) *UserService {
	if events == nil {
		events = noopPublisher{}
	}
	return &UserService{
		userRepo:    userRepo,
		thoughtRepo: thoughtRepo,
		validator:   validator,
		events:      events,
	}
}

// CreateUserRequest represents a request to create a user
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// UpdateUserRequest carries the mutable user fields. Nil means unchanged.
type UpdateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

// ListUsers returns every user
func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, models.NewStoreError(err)
	}
	return users, nil
}

// GetUser returns a single user
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	userID, err := models.ParseID(id)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, translate(err, msgNoUser)
	}
	return user, nil
}

// CreateUser validates and stores a new user. Username and email must be unique.
func (s *UserService) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	user := &models.User{
		ID:       primitive.NewObjectID(),
		Username: strings.TrimSpace(req.Username),
		Email:    strings.TrimSpace(req.Email),
		Thoughts: []primitive.ObjectID{},
		Friends:  []primitive.ObjectID{},
	}
	if err := s.validator.Struct(user); err != nil {
		return nil, err
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, translate(err, msgNoUser)
	}

	log.Info().
		Str("user_id", user.ID.Hex()).
		Str("username", user.Username).
		Msg("User created")

	s.events.Publish(EventUserCreated, user)
	return user, nil
}

// UpdateUser applies a partial update. Thoughts keep the username they were created with.
func (s *UserService) UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*models.User, error) {
	userID, err := models.ParseID(id)
	if err != nil {
		return nil, err
	}

	current, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, translate(err, msgNoUser)
	}

	var update repository.UserUpdate
	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		current.Username = username
		update.Username = &username
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		current.Email = email
		update.Email = &email
	}
	if err := s.validator.Struct(current); err != nil {
		return nil, err
	}

	updated, err := s.userRepo.Update(ctx, userID, update)
	if err != nil {
		return nil, translate(err, msgNoUser)
	}
	return updated, nil
}

// DeleteUser removes a user, the thoughts they own and their entries in
// other users' friends lists. The follow-up writes are best-effort.
func (s *UserService) DeleteUser(ctx context.Context, id string) (*models.MessageResponse, error) {
	userID, err := models.ParseID(id)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return nil, translate(err, msgNoUser)
	}

	thoughtIDs, err := s.thoughtRepo.DeleteByUser(ctx, userID)
	if err != nil {
		return nil, models.NewStoreError(err)
	}
	for _, thoughtID := range thoughtIDs {
		if _, err := s.userRepo.PullThought(ctx, thoughtID); err != nil {
			return nil, models.NewStoreError(err)
		}
	}

	modified, err := s.userRepo.PullFriend(ctx, userID)
	if err != nil {
		return nil, models.NewStoreError(err)
	}

	log.Info().
		Str("user_id", userID.Hex()).
		Int("thoughts_deleted", len(thoughtIDs)).
		Int64("friends_updated", modified).
		Msg("User deleted")

	s.events.Publish(EventUserDeleted, map[string]any{
		"_id":      userID.Hex(),
		"thoughts": models.IDStrings(thoughtIDs),
	})
	return &models.MessageResponse{Message: msgUserDeleted}, nil
}

// AddFriend adds friendID to the user's friends list once
func (s *UserService) AddFriend(ctx context.Context, userID, friendID string) (*models.User, error) {
	uid, fid, err := parsePair(userID, friendID)
	if err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByID(ctx, fid); err != nil {
		return nil, translate(err, msgFriendNoUser)
	}

	user, err := s.userRepo.AddFriend(ctx, uid, fid)
	if err != nil {
		return nil, translate(err, msgNoUser)
	}
	return user, nil
}

// RemoveFriend pulls friendID from the user's friends list. Removing a
// user who is not a friend leaves the list unchanged.
func (s *UserService) RemoveFriend(ctx context.Context, userID, friendID string) (*models.User, error) {
	uid, fid, err := parsePair(userID, friendID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.RemoveFriend(ctx, uid, fid)
	if err != nil {
		return nil, translate(err, msgNoUser)
	}
	return user, nil
}

func parsePair(a, b string) (primitive.ObjectID, primitive.ObjectID, error) {
	first, err := models.ParseID(a)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, err
	}
	second, err := models.ParseID(b)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, err
	}
	return first, second, nil
}
