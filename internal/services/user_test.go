package services

import (
	"context"
	"testing"

	"thoughtnet/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateUser(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.users.CreateUser(ctx, CreateUserRequest{Username: "  lernantino ", Email: "lernantino@gmail.com"})
	require.NoError(t, err)
	assert.Equal(t, "lernantino", user.Username)
	assert.Empty(t, user.Thoughts)
	assert.Equal(t, 0, user.FriendCount())
	assert.Contains(t, f.events.types(), EventUserCreated)

	tests := []struct {
		name    string
		req     CreateUserRequest
		message string
	}{
		{"duplicate username", CreateUserRequest{Username: "lernantino", Email: "other@gmail.com"}, "username already exists"},
		{"duplicate email", CreateUserRequest{Username: "other", Email: "lernantino@gmail.com"}, "email already exists"},
		{"missing username", CreateUserRequest{Username: "   ", Email: "x@y.io"}, "username is required"},
		{"bad email", CreateUserRequest{Username: "x", Email: "not-an-email"}, "email must match a valid email address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.users.CreateUser(ctx, tt.req)
			require.Error(t, err)
			assert.Equal(t, models.KindValidation, models.KindOf(err))
			assert.Equal(t, tt.message, models.MessageOf(err))
		})
	}
}

func TestGetAndListUsers(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	a := f.createUser(t, "a")
	f.createUser(t, "b")

	got, err := f.users.GetUser(ctx, a.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "a", got.Username)

	_, err = f.users.GetUser(ctx, primitive.NewObjectID().Hex())
	assert.Equal(t, models.KindNotFound, models.KindOf(err))

	_, err = f.users.GetUser(ctx, "nope")
	assert.Equal(t, models.KindInvalidID, models.KindOf(err))

	users, err := f.users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestUpdateUser(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	a := f.createUser(t, "a")
	f.createUser(t, "b")

	email := " new@example.com "
	updated, err := f.users.UpdateUser(ctx, a.ID.Hex(), UpdateUserRequest{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", updated.Email)
	assert.Equal(t, "a", updated.Username)

	taken := "b"
	_, err = f.users.UpdateUser(ctx, a.ID.Hex(), UpdateUserRequest{Username: &taken})
	assert.Equal(t, models.KindValidation, models.KindOf(err))

	bad := "nope"
	_, err = f.users.UpdateUser(ctx, a.ID.Hex(), UpdateUserRequest{Email: &bad})
	assert.Equal(t, models.KindValidation, models.KindOf(err))

	_, err = f.users.UpdateUser(ctx, primitive.NewObjectID().Hex(), UpdateUserRequest{Email: &email})
	assert.Equal(t, models.KindNotFound, models.KindOf(err))
}

func TestDeleteUser_Cascades(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	gone := f.createUser(t, "gone")
	friend := f.createUser(t, "friend")

	mine := f.createThought(t, gone, "mine")
	theirs := f.createThought(t, friend, "theirs")
	_, err := f.users.AddFriend(ctx, friend.ID.Hex(), gone.ID.Hex())
	require.NoError(t, err)
	// friend also keeps a back-reference to a thought owned by the deleted user
	require.NoError(t, f.store.Users.PushThought(ctx, friend.ID, mine.ID))

	resp, err := f.users.DeleteUser(ctx, gone.ID.Hex())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Message)

	_, err = f.users.GetUser(ctx, gone.ID.Hex())
	assert.Equal(t, models.KindNotFound, models.KindOf(err))

	_, err = f.thoughts.GetThought(ctx, mine.ID.Hex())
	assert.Equal(t, models.KindNotFound, models.KindOf(err))
	_, err = f.thoughts.GetThought(ctx, theirs.ID.Hex())
	assert.NoError(t, err)

	reloaded := f.reloadUser(t, friend.ID)
	assert.Empty(t, reloaded.Friends)
	assert.Equal(t, []primitive.ObjectID{theirs.ID}, reloaded.Thoughts)

	assert.Contains(t, f.events.types(), EventUserDeleted)

	_, err = f.users.DeleteUser(ctx, gone.ID.Hex())
	assert.Equal(t, models.KindNotFound, models.KindOf(err))
}

func TestFriends(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	a := f.createUser(t, "a")
	b := f.createUser(t, "b")

	user, err := f.users.AddFriend(ctx, a.ID.Hex(), b.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 1, user.FriendCount())

	user, err = f.users.AddFriend(ctx, a.ID.Hex(), b.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 1, user.FriendCount(), "adding twice keeps one entry")

	assert.Empty(t, f.reloadUser(t, b.ID).Friends, "friendship is one-directional")

	_, err = f.users.AddFriend(ctx, a.ID.Hex(), primitive.NewObjectID().Hex())
	assert.Equal(t, models.KindNotFound, models.KindOf(err))
	assert.Equal(t, "Friend not found", models.MessageOf(err))

	_, err = f.users.AddFriend(ctx, primitive.NewObjectID().Hex(), b.ID.Hex())
	assert.Equal(t, models.KindNotFound, models.KindOf(err))

	_, err = f.users.AddFriend(ctx, "bad", b.ID.Hex())
	assert.Equal(t, models.KindInvalidID, models.KindOf(err))

	user, err = f.users.RemoveFriend(ctx, a.ID.Hex(), b.ID.Hex())
	require.NoError(t, err)
	assert.Empty(t, user.Friends)

	user, err = f.users.RemoveFriend(ctx, a.ID.Hex(), b.ID.Hex())
	require.NoError(t, err)
	assert.Empty(t, user.Friends, "removing a non-friend is a no-op")
}
