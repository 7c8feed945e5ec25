package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"thoughtnet/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	thoughtRowColumns = []string{"id", "thought_text", "user_id", "username", "created_at", "reactions"}
	userRowColumns    = []string{"id", "username", "email", "thoughts", "friends"}
)

func newPgMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func thoughtRows(t *testing.T, thought models.Thought) *pgxmock.Rows {
	t.Helper()
	reactions, err := encodeReactions(thought.Reactions)
	require.NoError(t, err)
	return pgxmock.NewRows(thoughtRowColumns).AddRow(
		thought.ID.Hex(), thought.ThoughtText, thought.UserID.Hex(), thought.Username,
		thought.CreatedAt, []byte(reactions),
	)
}

func userRows(t *testing.T, user models.User) *pgxmock.Rows {
	t.Helper()
	thoughts, err := encodeIDList(user.Thoughts)
	require.NoError(t, err)
	friends, err := encodeIDList(user.Friends)
	require.NoError(t, err)
	return pgxmock.NewRows(userRowColumns).AddRow(
		user.ID.Hex(), user.Username, user.Email, []byte(thoughts), []byte(friends),
	)
}

func TestPostgresThoughtRepository_PushReaction(t *testing.T) {
	mock := newPgMock(t)
	repo := NewPostgresThoughtRepository(mock)

	thoughtID := primitive.NewObjectID()
	reaction := models.Reaction{
		ReactionID:   primitive.NewObjectID(),
		ReactionBody: "same here",
		UserID:       primitive.NewObjectID(),
		Username:     "bob",
		CreatedAt:    time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC),
	}
	encoded, err := encodeReaction(reaction)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`SET reactions = reactions || jsonb_build_array($2::jsonb)`)).
		WithArgs(thoughtID.Hex(), encoded).
		WillReturnRows(thoughtRows(t, models.Thought{
			ID:          thoughtID,
			ThoughtText: "hello",
			UserID:      primitive.NewObjectID(),
			Username:    "alice",
			CreatedAt:   reaction.CreatedAt,
			Reactions:   []models.Reaction{reaction},
		}))

	thought, err := repo.PushReaction(context.Background(), thoughtID, reaction)
	require.NoError(t, err)
	require.Len(t, thought.Reactions, 1)
	assert.Equal(t, reaction.ReactionID, thought.Reactions[0].ReactionID)
	assert.True(t, reaction.CreatedAt.Equal(thought.Reactions[0].CreatedAt))
}

func TestPostgresThoughtRepository_PullReaction(t *testing.T) {
	t.Run("filters by reaction id", func(t *testing.T) {
		mock := newPgMock(t)
		repo := NewPostgresThoughtRepository(mock)
		thoughtID, reactionID := primitive.NewObjectID(), primitive.NewObjectID()

		mock.ExpectQuery(regexp.QuoteMeta(`WITH ORDINALITY AS e(reaction, position)`)+`[\s\S]*`+
			regexp.QuoteMeta(`WHERE e.reaction->>'reactionId' <> $2`)).
			WithArgs(thoughtID.Hex(), reactionID.Hex()).
			WillReturnRows(thoughtRows(t, models.Thought{
				ID:          thoughtID,
				ThoughtText: "hello",
				UserID:      primitive.NewObjectID(),
				Username:    "alice",
				CreatedAt:   time.Now().UTC(),
			}))

		thought, err := repo.PullReaction(context.Background(), thoughtID, reactionID)
		require.NoError(t, err)
		assert.Empty(t, thought.Reactions)
	})

	t.Run("missing thought", func(t *testing.T) {
		mock := newPgMock(t)
		repo := NewPostgresThoughtRepository(mock)
		thoughtID, reactionID := primitive.NewObjectID(), primitive.NewObjectID()

		mock.ExpectQuery(regexp.QuoteMeta(`UPDATE thoughts SET reactions`)).
			WithArgs(thoughtID.Hex(), reactionID.Hex()).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.PullReaction(context.Background(), thoughtID, reactionID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPostgresThoughtRepository_DeleteByUser(t *testing.T) {
	mock := newPgMock(t)
	repo := NewPostgresThoughtRepository(mock)
	userID := primitive.NewObjectID()
	first, second := primitive.NewObjectID(), primitive.NewObjectID()

	mock.ExpectQuery(regexp.QuoteMeta(`DELETE FROM thoughts WHERE user_id = $1 RETURNING id`)).
		WithArgs(userID.Hex()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(first.Hex()).AddRow(second.Hex()))

	ids, err := repo.DeleteByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{first, second}, ids)
}

func TestPostgresUserRepository_PushThought(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{"appends to the owner", 1, nil},
		{"missing owner", 0, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newPgMock(t)
			repo := NewPostgresUserRepository(mock)
			userID, thoughtID := primitive.NewObjectID(), primitive.NewObjectID()

			mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET thoughts = thoughts || jsonb_build_array($2::text) WHERE id = $1`)).
				WithArgs(userID.Hex(), thoughtID.Hex()).
				WillReturnResult(pgxmock.NewResult("UPDATE", tt.affected))

			err := repo.PushThought(context.Background(), userID, thoughtID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPostgresUserRepository_PullThought(t *testing.T) {
	mock := newPgMock(t)
	repo := NewPostgresUserRepository(mock)
	thoughtID := primitive.NewObjectID()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET thoughts = thoughts - $1::text`) + `\s+` +
		regexp.QuoteMeta(`WHERE thoughts @> jsonb_build_array($1::text)`)).
		WithArgs(thoughtID.Hex()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	modified, err := repo.PullThought(context.Background(), thoughtID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), modified)
}

func TestPostgresUserRepository_AddFriend(t *testing.T) {
	t.Run("adds only when absent", func(t *testing.T) {
		mock := newPgMock(t)
		repo := NewPostgresUserRepository(mock)
		userID, friendID := primitive.NewObjectID(), primitive.NewObjectID()

		mock.ExpectQuery(regexp.QuoteMeta(`WHEN friends @> jsonb_build_array($2::text) THEN friends`)+`\s+`+
			regexp.QuoteMeta(`ELSE friends || jsonb_build_array($2::text)`)).
			WithArgs(userID.Hex(), friendID.Hex()).
			WillReturnRows(userRows(t, models.User{
				ID:       userID,
				Username: "alice",
				Email:    "alice@example.com",
				Thoughts: []primitive.ObjectID{},
				Friends:  []primitive.ObjectID{friendID},
			}))

		user, err := repo.AddFriend(context.Background(), userID, friendID)
		require.NoError(t, err)
		assert.Equal(t, []primitive.ObjectID{friendID}, user.Friends)
		assert.Equal(t, 1, user.FriendCount())
	})

	t.Run("missing user", func(t *testing.T) {
		mock := newPgMock(t)
		repo := NewPostgresUserRepository(mock)
		userID, friendID := primitive.NewObjectID(), primitive.NewObjectID()

		mock.ExpectQuery(regexp.QuoteMeta(`UPDATE users SET friends = CASE`)).
			WithArgs(userID.Hex(), friendID.Hex()).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.AddFriend(context.Background(), userID, friendID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
