package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"thoughtnet/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewMemoryStore returns a Store kept entirely in process memory.
// Documents are copied on the way in and out, so callers never share state with the store.
func NewMemoryStore() *Store {
	return &Store{
		Driver:   "memory",
		Users:    NewMemoryUserRepository(),
		Thoughts: NewMemoryThoughtRepository(),
	}
}

// MemoryUserRepository keeps user documents in a map
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]*models.User
	order []primitive.ObjectID
}

// NewMemoryUserRepository creates an empty user repository
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[primitive.ObjectID]*models.User)}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	defer track("memory", usersCollection, "create")()

	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.Thoughts == nil {
		user.Thoughts = []primitive.ObjectID{}
	}
	if user.Friends == nil {
		user.Friends = []primitive.ObjectID{}
	}
	if _, exists := r.users[user.ID]; exists {
		return fmt.Errorf("failed to create user: %w", &DuplicateError{Field: "_id"})
	}
	if err := r.checkUnique(user.ID, user.Username, user.Email); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	r.users[user.ID] = cloneUser(user)
	r.order = append(r.order, user.ID)
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	defer track("memory", usersCollection, "get")()

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user not found: %w", ErrNotFound)
	}
	return cloneUser(user), nil
}

func (r *MemoryUserRepository) List(_ context.Context) ([]*models.User, error) {
	defer track("memory", usersCollection, "list")()

	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*models.User, 0, len(r.order))
	for _, id := range r.order {
		users = append(users, cloneUser(r.users[id]))
	}
	return users, nil
}

func (r *MemoryUserRepository) Update(_ context.Context, id primitive.ObjectID, update UserUpdate) (*models.User, error) {
	defer track("memory", usersCollection, "update")()

	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user not found: %w", ErrNotFound)
	}
	username, email := user.Username, user.Email
	if update.Username != nil {
		username = *update.Username
	}
	if update.Email != nil {
		email = *update.Email
	}
	if err := r.checkUnique(id, username, email); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	user.Username, user.Email = username, email
	return cloneUser(user), nil
}

func (r *MemoryUserRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	defer track("memory", usersCollection, "delete")()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return fmt.Errorf("user not found: %w", ErrNotFound)
	}
	delete(r.users, id)
	r.order = slices.DeleteFunc(r.order, func(v primitive.ObjectID) bool { return v == id })
	return nil
}

func (r *MemoryUserRepository) PushThought(_ context.Context, userID, thoughtID primitive.ObjectID) error {
	defer track("memory", usersCollection, "push_thought")()

	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("user not found: %w", ErrNotFound)
	}
	user.Thoughts = append(user.Thoughts, thoughtID)
	return nil
}

func (r *MemoryUserRepository) PullThought(_ context.Context, thoughtID primitive.ObjectID) (int64, error) {
	defer track("memory", usersCollection, "pull_thought")()

	r.mu.Lock()
	defer r.mu.Unlock()

	var modified int64
	for _, user := range r.users {
		if pullID(&user.Thoughts, thoughtID) {
			modified++
		}
	}
	return modified, nil
}

func (r *MemoryUserRepository) AddFriend(_ context.Context, userID, friendID primitive.ObjectID) (*models.User, error) {
	defer track("memory", usersCollection, "add_friend")()

	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return nil, fmt.Errorf("user not found: %w", ErrNotFound)
	}
	if !slices.Contains(user.Friends, friendID) {
		user.Friends = append(user.Friends, friendID)
	}
	return cloneUser(user), nil
}

func (r *MemoryUserRepository) RemoveFriend(_ context.Context, userID, friendID primitive.ObjectID) (*models.User, error) {
	defer track("memory", usersCollection, "remove_friend")()

	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return nil, fmt.Errorf("user not found: %w", ErrNotFound)
	}
	pullID(&user.Friends, friendID)
	return cloneUser(user), nil
}

func (r *MemoryUserRepository) PullFriend(_ context.Context, friendID primitive.ObjectID) (int64, error) {
	defer track("memory", usersCollection, "pull_friend")()

	r.mu.Lock()
	defer r.mu.Unlock()

	var modified int64
	for _, user := range r.users {
		if pullID(&user.Friends, friendID) {
			modified++
		}
	}
	return modified, nil
}

// checkUnique must be called with the lock held.
func (r *MemoryUserRepository) checkUnique(self primitive.ObjectID, username, email string) error {
	for id, other := range r.users {
		if id == self {
			continue
		}
		if other.Username == username {
			return &DuplicateError{Field: "username"}
		}
		if other.Email == email {
			return &DuplicateError{Field: "email"}
		}
	}
	return nil
}

// MemoryThoughtRepository keeps thought documents in a map
type MemoryThoughtRepository struct {
	mu       sync.RWMutex
	thoughts map[primitive.ObjectID]*models.Thought
	order    []primitive.ObjectID
}

// NewMemoryThoughtRepository creates an empty thought repository
func NewMemoryThoughtRepository() *MemoryThoughtRepository {
	return &MemoryThoughtRepository{thoughts: make(map[primitive.ObjectID]*models.Thought)}
}

func (r *MemoryThoughtRepository) Create(_ context.Context, thought *models.Thought) error {
	defer track("memory", thoughtsCollection, "create")()

	r.mu.Lock()
	defer r.mu.Unlock()

	if thought.ID.IsZero() {
		thought.ID = primitive.NewObjectID()
	}
	if thought.Reactions == nil {
		thought.Reactions = []models.Reaction{}
	}
	if _, exists := r.thoughts[thought.ID]; exists {
		return fmt.Errorf("failed to create thought: %w", &DuplicateError{Field: "_id"})
	}
	r.thoughts[thought.ID] = cloneThought(thought)
	r.order = append(r.order, thought.ID)
	return nil
}

func (r *MemoryThoughtRepository) GetByID(_ context.Context, id primitive.ObjectID) (*models.Thought, error) {
	defer track("memory", thoughtsCollection, "get")()

	r.mu.RLock()
	defer r.mu.RUnlock()

	thought, ok := r.thoughts[id]
	if !ok {
		return nil, fmt.Errorf("thought not found: %w", ErrNotFound)
	}
	return cloneThought(thought), nil
}

func (r *MemoryThoughtRepository) List(_ context.Context) ([]*models.Thought, error) {
	defer track("memory", thoughtsCollection, "list")()

	r.mu.RLock()
	defer r.mu.RUnlock()

	thoughts := make([]*models.Thought, 0, len(r.order))
	for _, id := range r.order {
		thoughts = append(thoughts, cloneThought(r.thoughts[id]))
	}
	return thoughts, nil
}

func (r *MemoryThoughtRepository) Update(_ context.Context, id primitive.ObjectID, update ThoughtUpdate) (*models.Thought, error) {
	defer track("memory", thoughtsCollection, "update")()

	r.mu.Lock()
	defer r.mu.Unlock()

	thought, ok := r.thoughts[id]
	if !ok {
		return nil, fmt.Errorf("thought not found: %w", ErrNotFound)
	}
	if update.ThoughtText != nil {
		thought.ThoughtText = *update.ThoughtText
	}
	return cloneThought(thought), nil
}

func (r *MemoryThoughtRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	defer track("memory", thoughtsCollection, "delete")()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.thoughts[id]; !ok {
		return fmt.Errorf("thought not found: %w", ErrNotFound)
	}
	r.remove(id)
	return nil
}

func (r *MemoryThoughtRepository) DeleteByUser(_ context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	defer track("memory", thoughtsCollection, "delete_by_user")()

	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []primitive.ObjectID
	for _, id := range r.order {
		if r.thoughts[id].UserID == userID {
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		r.remove(id)
	}
	return ids, nil
}

func (r *MemoryThoughtRepository) PushReaction(_ context.Context, thoughtID primitive.ObjectID, reaction models.Reaction) (*models.Thought, error) {
	defer track("memory", thoughtsCollection, "push_reaction")()

	r.mu.Lock()
	defer r.mu.Unlock()

	thought, ok := r.thoughts[thoughtID]
	if !ok {
		return nil, fmt.Errorf("thought not found: %w", ErrNotFound)
	}
	thought.Reactions = append(thought.Reactions, reaction)
	return cloneThought(thought), nil
}

func (r *MemoryThoughtRepository) PullReaction(_ context.Context, thoughtID, reactionID primitive.ObjectID) (*models.Thought, error) {
	defer track("memory", thoughtsCollection, "pull_reaction")()

	r.mu.Lock()
	defer r.mu.Unlock()

	thought, ok := r.thoughts[thoughtID]
	if !ok {
		return nil, fmt.Errorf("thought not found: %w", ErrNotFound)
	}
	thought.Reactions = slices.DeleteFunc(thought.Reactions, func(reaction models.Reaction) bool {
		return reaction.ReactionID == reactionID
	})
	return cloneThought(thought), nil
}

// remove must be called with the lock held.
func (r *MemoryThoughtRepository) remove(id primitive.ObjectID) {
	delete(r.thoughts, id)
	r.order = slices.DeleteFunc(r.order, func(v primitive.ObjectID) bool { return v == id })
}

// pullID removes every occurrence of id and reports whether anything changed.
func pullID(ids *[]primitive.ObjectID, id primitive.ObjectID) bool {
	before := len(*ids)
	*ids = slices.DeleteFunc(*ids, func(v primitive.ObjectID) bool { return v == id })
	return len(*ids) != before
}

func cloneUser(user *models.User) *models.User {
	out := *user
	out.Thoughts = append([]primitive.ObjectID{}, user.Thoughts...)
	out.Friends = append([]primitive.ObjectID{}, user.Friends...)
	return &out
}

func cloneThought(thought *models.Thought) *models.Thought {
	out := *thought
	out.Reactions = append([]models.Reaction{}, thought.Reactions...)
	return &out
}
