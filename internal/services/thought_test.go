package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"thoughtnet/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateThought_CopiesUsernameAndLinksUser(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	user := f.createUser(t, "amiko")

	fixed := time.Date(2024, 5, 1, 10, 0, 0, 123456789, time.UTC)
	f.thoughts.now = func() time.Time { return fixed }

	thought, err := f.thoughts.CreateThought(ctx, CreateThoughtRequest{ThoughtText: "hello", UserID: user.ID.Hex()})
	require.NoError(t, err)

	assert.Equal(t, "hello", thought.ThoughtText)
	assert.Equal(t, "amiko", thought.Username)
	assert.True(t, thought.UserID.IsZero(), "owner id is hidden from the response")
	assert.Equal(t, fixed.Truncate(time.Millisecond), thought.CreatedAt)
	assert.Empty(t, thought.Reactions)

	stored, err := f.store.Thoughts.GetByID(ctx, thought.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.UserID)

	reloaded := f.reloadUser(t, user.ID)
	assert.Equal(t, []primitive.ObjectID{thought.ID}, reloaded.Thoughts)

	assert.Contains(t, f.events.types(), EventThoughtCreated)
}

func TestCreateThought_UsernameIsSnapshot(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	user := f.createUser(t, "before")
	thought := f.createThought(t, user, "snapshot")

	renamed := "after"
	_, err := f.users.UpdateUser(ctx, user.ID.Hex(), UpdateUserRequest{Username: &renamed})
	require.NoError(t, err)

	got, err := f.thoughts.GetThought(ctx, thought.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "before", got.Username)
}

func TestCreateThought_UserErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		userID  string
		kind    models.ErrorKind
		message string
	}{
		{"unknown user", primitive.NewObjectID().Hex(), models.KindNotFound, "User not found"},
		{"missing user id", "", models.KindNotFound, "User not found"},
		{"malformed user id", "12345", models.KindInvalidID, `invalid id "12345"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			ctx := context.Background()

			_, err := f.thoughts.CreateThought(ctx, CreateThoughtRequest{ThoughtText: "hello", UserID: tt.userID})
			require.Error(t, err)
			assert.Equal(t, tt.kind, models.KindOf(err))
			assert.Equal(t, tt.message, models.MessageOf(err))

			thoughts, err := f.store.Thoughts.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, thoughts, "no thought may be persisted")
		})
	}
}

func TestCreateThought_TextLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{"empty", "", true},
		{"single character", "a", false},
		{"exactly 280", strings.Repeat("a", 280), false},
		{"281", strings.Repeat("a", 281), true},
		{"280 multibyte characters", strings.Repeat("é", 280), false},
		{"281 multibyte characters", strings.Repeat("é", 281), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			ctx := context.Background()
			user := f.createUser(t, "writer")

			thought, err := f.thoughts.CreateThought(ctx, CreateThoughtRequest{ThoughtText: tt.text, UserID: user.ID.Hex()})
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, tt.text, thought.ThoughtText)
				return
			}

			require.Error(t, err)
			assert.Equal(t, models.KindValidation, models.KindOf(err))
			assert.Empty(t, f.reloadUser(t, user.ID).Thoughts)
		})
	}
}

func TestCreateThought_BackReferenceFailureIsNotReported(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	user := f.createUser(t, "orphaned")

	users := &failingUsers{UserRepository: f.store.Users, pushThought: errStoreDown}
	svc := NewThoughtService(f.store.Thoughts, users, NewValidator(), nil)

	thought, err := svc.CreateThought(ctx, CreateThoughtRequest{ThoughtText: "still here", UserID: user.ID.Hex()})
	require.NoError(t, err)

	_, err = f.store.Thoughts.GetByID(ctx, thought.ID)
	assert.NoError(t, err, "the thought stays in place")
	assert.Empty(t, f.reloadUser(t, user.ID).Thoughts, "no back-reference was written")
}

func TestListThoughts(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	user := f.createUser(t, "lister")
	f.createThought(t, user, "one")
	f.createThought(t, user, "two")

	thoughts, err := f.thoughts.ListThoughts(ctx)
	require.NoError(t, err)
	require.Len(t, thoughts, 2)
	for _, th := range thoughts {
		assert.True(t, th.UserID.IsZero())
	}
	assert.Equal(t, "one", thoughts[0].ThoughtText)

	broken := NewThoughtService(&failingThoughts{ThoughtRepository: f.store.Thoughts, list: errStoreDown}, f.store.Users, NewValidator(), nil)
	_, err = broken.ListThoughts(ctx)
	require.Error(t, err)
	assert.Equal(t, models.KindStore, models.KindOf(err))
	assert.ErrorIs(t, err, errStoreDown)
}

func TestGetThought(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	user := f.createUser(t, "getter")
	created := f.createThought(t, user, "find me")

	got, err := f.thoughts.GetThought(ctx, created.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.UserID)
	assert.Equal(t, "find me", got.ThoughtText)

	_, err = f.thoughts.GetThought(ctx, primitive.NewObjectID().Hex())
	assert.Equal(t, models.KindNotFound, models.KindOf(err))
	assert.Equal(t, "No thought found with this id!", models.MessageOf(err))

	_, err = f.thoughts.GetThought(ctx, "xyz")
	assert.Equal(t, models.KindInvalidID, models.KindOf(err))
}

func TestUpdateThought(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	user := f.createUser(t, "editor")
	created := f.createThought(t, user, "draft")

	text := "final"
	updated, err := f.thoughts.UpdateThought(ctx, created.ID.Hex(), UpdateThoughtRequest{ThoughtText: &text})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.ThoughtText)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	unchanged, err := f.thoughts.UpdateThought(ctx, created.ID.Hex(), UpdateThoughtRequest{})
	require.NoError(t, err)
	assert.Equal(t, "final", unchanged.ThoughtText)

	tooLong := strings.Repeat("x", 281)
	_, err = f.thoughts.UpdateThought(ctx, created.ID.Hex(), UpdateThoughtRequest{ThoughtText: &tooLong})
	assert.Equal(t, models.KindValidation, models.KindOf(err))

	empty := ""
	_, err = f.thoughts.UpdateThought(ctx, created.ID.Hex(), UpdateThoughtRequest{ThoughtText: &empty})
	assert.Equal(t, models.KindValidation, models.KindOf(err))

	got, err := f.thoughts.GetThought(ctx, created.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "final", got.ThoughtText, "rejected updates leave the thought unchanged")

	_, err = f.thoughts.UpdateThought(ctx, primitive.NewObjectID().Hex(), UpdateThoughtRequest{ThoughtText: &text})
	assert.Equal(t, models.KindNotFound, models.KindOf(err))

	assert.Contains(t, f.events.types(), EventThoughtUpdated)
}

func TestDeleteThought(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	owner := f.createUser(t, "owner")
	other := f.createUser(t, "other")
	thought := f.createThought(t, owner, "short lived")
	keep := f.createThought(t, owner, "survivor")

	// a divergent back-reference held by a user who does not own the thought
	require.NoError(t, f.store.Users.PushThought(ctx, other.ID, thought.ID))

	resp, err := f.thoughts.DeleteThought(ctx, thought.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Thought deleted!", resp.Message)

	_, err = f.thoughts.GetThought(ctx, thought.ID.Hex())
	assert.Equal(t, models.KindNotFound, models.KindOf(err))

	users, err := f.store.Users.List(ctx)
	require.NoError(t, err)
	for _, u := range users {
		assert.NotContains(t, u.Thoughts, thought.ID)
	}
	assert.Equal(t, []primitive.ObjectID{keep.ID}, f.reloadUser(t, owner.ID).Thoughts)

	_, err = f.thoughts.DeleteThought(ctx, thought.ID.Hex())
	assert.Equal(t, models.KindNotFound, models.KindOf(err))
	assert.Equal(t, "No thought found with this id!", models.MessageOf(err))

	assert.Contains(t, f.events.types(), EventThoughtDeleted)
}

func TestDeleteThought_CleanupFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	user := f.createUser(t, "cleanup")
	thought := f.createThought(t, user, "dangling")

	users := &failingUsers{UserRepository: f.store.Users, pullThought: errStoreDown}
	svc := NewThoughtService(f.store.Thoughts, users, NewValidator(), nil)

	_, err := svc.DeleteThought(ctx, thought.ID.Hex())
	require.Error(t, err)
	assert.Equal(t, models.KindStore, models.KindOf(err))
}

func TestReactionRoundTrip(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	author := f.createUser(t, "author")
	reactor := f.createUser(t, "reactor")
	thought := f.createThought(t, author, "react please")

	existing, err := f.thoughts.AddReaction(ctx, thought.ID.Hex(), AddReactionRequest{UserID: author.ID.Hex(), ReactionBody: "self five"})
	require.NoError(t, err)
	before := existing.Reactions

	added, err := f.thoughts.AddReaction(ctx, thought.ID.Hex(), AddReactionRequest{UserID: reactor.ID.Hex(), ReactionBody: "nice"})
	require.NoError(t, err)
	require.Len(t, added.Reactions, 2)
	assert.Equal(t, 2, added.ReactionCount())

	reaction := added.Reactions[1]
	assert.False(t, reaction.ReactionID.IsZero())
	assert.Equal(t, "reactor", reaction.Username)
	assert.Equal(t, reactor.ID, reaction.UserID)
	assert.Equal(t, "nice", reaction.ReactionBody)

	removed, err := f.thoughts.RemoveReaction(ctx, thought.ID.Hex(), reaction.ReactionID.Hex())
	require.NoError(t, err)
	assert.Equal(t, before, removed.Reactions)

	assert.Subset(t, f.events.types(), []string{EventReactionAdded, EventReactionRemoved})
}

func TestAddReaction_Errors(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	user := f.createUser(t, "reactor")
	thought := f.createThought(t, user, "target")

	tests := []struct {
		name      string
		thoughtID string
		req       AddReactionRequest
		kind      models.ErrorKind
		message   string
	}{
		{"empty body", thought.ID.Hex(), AddReactionRequest{UserID: user.ID.Hex(), ReactionBody: ""}, models.KindValidation, "reactionBody is required"},
		{"body too long", thought.ID.Hex(), AddReactionRequest{UserID: user.ID.Hex(), ReactionBody: strings.Repeat("b", 281)}, models.KindValidation, "reactionBody must be at most 280 characters"},
		{"unknown user", thought.ID.Hex(), AddReactionRequest{UserID: primitive.NewObjectID().Hex(), ReactionBody: "hi"}, models.KindNotFound, "User not found"},
		{"unknown thought", primitive.NewObjectID().Hex(), AddReactionRequest{UserID: user.ID.Hex(), ReactionBody: "hi"}, models.KindNotFound, "No thought found with this id!"},
		{"malformed thought id", "bad", AddReactionRequest{UserID: user.ID.Hex(), ReactionBody: "hi"}, models.KindInvalidID, `invalid id "bad"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.thoughts.AddReaction(ctx, tt.thoughtID, tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.kind, models.KindOf(err))
			assert.Equal(t, tt.message, models.MessageOf(err))
		})
	}

	got, err := f.thoughts.GetThought(ctx, thought.ID.Hex())
	require.NoError(t, err)
	assert.Empty(t, got.Reactions, "failed reactions leave the list unchanged")
}

func TestRemoveReaction_Errors(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	user := f.createUser(t, "remover")
	thought := f.createThought(t, user, "target")
	withReaction, err := f.thoughts.AddReaction(ctx, thought.ID.Hex(), AddReactionRequest{UserID: user.ID.Hex(), ReactionBody: "keep"})
	require.NoError(t, err)

	t.Run("absent reaction is a no-op", func(t *testing.T) {
		got, err := f.thoughts.RemoveReaction(ctx, thought.ID.Hex(), primitive.NewObjectID().Hex())
		require.NoError(t, err)
		assert.Equal(t, withReaction.Reactions, got.Reactions)
	})

	t.Run("unknown thought", func(t *testing.T) {
		_, err := f.thoughts.RemoveReaction(ctx, primitive.NewObjectID().Hex(), withReaction.Reactions[0].ReactionID.Hex())
		assert.Equal(t, models.KindNotFound, models.KindOf(err))
	})

	t.Run("malformed reaction id", func(t *testing.T) {
		_, err := f.thoughts.RemoveReaction(ctx, thought.ID.Hex(), "not-hex")
		assert.Equal(t, models.KindInvalidID, models.KindOf(err))
	})
}
