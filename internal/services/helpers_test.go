package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"thoughtnet/internal/models"
	"thoughtnet/internal/repository"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type publishedEvent struct {
	Type string
	Data any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(eventType string, data any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Type: eventType, Data: data})
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// failingUsers wraps a user repository and fails the selected operations.
type failingUsers struct {
	repository.UserRepository
	pushThought error
	pullThought error
}

func (f *failingUsers) PushThought(ctx context.Context, userID, thoughtID primitive.ObjectID) error {
	if f.pushThought != nil {
		return f.pushThought
	}
	return f.UserRepository.PushThought(ctx, userID, thoughtID)
}

func (f *failingUsers) PullThought(ctx context.Context, thoughtID primitive.ObjectID) (int64, error) {
	if f.pullThought != nil {
		return 0, f.pullThought
	}
	return f.UserRepository.PullThought(ctx, thoughtID)
}

// failingThoughts wraps a thought repository and fails List.
type failingThoughts struct {
	repository.ThoughtRepository
	list error
}

func (f *failingThoughts) List(ctx context.Context) ([]*models.Thought, error) {
	if f.list != nil {
		return nil, f.list
	}
	return f.ThoughtRepository.List(ctx)
}

var errStoreDown = errors.New("connection refused")

type fixture struct {
	store    *repository.Store
	thoughts *ThoughtService
	users    *UserService
	events   *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	events := &recordingPublisher{}
	validator := NewValidator()
	return &fixture{
		store:    store,
		thoughts: NewThoughtService(store.Thoughts, store.Users, validator, events),
		users:    NewUserService(store.Users, store.Thoughts, validator, events),
		events:   events,
	}
}

func (f *fixture) createUser(t *testing.T, name string) *models.User {
	t.Helper()
	user, err := f.users.CreateUser(context.Background(), CreateUserRequest{
		Username: name,
		Email:    name + "@example.com",
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) createThought(t *testing.T, user *models.User, text string) *models.Thought {
	t.Helper()
	thought, err := f.thoughts.CreateThought(context.Background(), CreateThoughtRequest{
		ThoughtText: text,
		UserID:      user.ID.Hex(),
	})
	require.NoError(t, err)
	return thought
}

func (f *fixture) reloadUser(t *testing.T, id primitive.ObjectID) *models.User {
	t.Helper()
	user, err := f.store.Users.GetByID(context.Background(), id)
	require.NoError(t, err)
	return user
}
