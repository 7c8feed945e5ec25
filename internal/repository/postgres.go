package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"thoughtnet/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Scalars live in columns; the id lists and embedded reactions live in
// JSONB arrays so they keep document semantics (ordered push/pull).
const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
	id       TEXT PRIMARY KEY,
	username TEXT NOT NULL CONSTRAINT users_username_key UNIQUE,
	email    TEXT NOT NULL CONSTRAINT users_email_key UNIQUE,
	thoughts JSONB NOT NULL DEFAULT '[]'::jsonb,
	friends  JSONB NOT NULL DEFAULT '[]'::jsonb
);

CREATE TABLE IF NOT EXISTS thoughts (
	id           TEXT PRIMARY KEY,
	thought_text TEXT NOT NULL,
	user_id      TEXT NOT NULL,
	username     TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	reactions    JSONB NOT NULL DEFAULT '[]'::jsonb
);

CREATE INDEX IF NOT EXISTS thoughts_user_id_idx ON thoughts (user_id);
`

// Querier is the part of *pgxpool.Pool the Postgres repositories use
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// OpenPostgres connects to PostgreSQL, creates the tables if needed and returns a Store
func OpenPostgres(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{
		Driver:   "postgres",
		Users:    NewPostgresUserRepository(pool),
		Thoughts: NewPostgresThoughtRepository(pool),
		ping:     pool.Ping,
		close: func(context.Context) error {
			pool.Close()
			return nil
		},
	}, nil
}

// pgReaction is the JSONB shape of an embedded reaction
type pgReaction struct {
	ReactionID   string    `json:"reactionId"`
	ReactionBody string    `json:"reactionBody"`
	UserID       string    `json:"userId"`
	Username     string    `json:"username"`
	CreatedAt    time.Time `json:"createdAt"`
}

func encodeReaction(r models.Reaction) (string, error) {
	data, err := json.Marshal(pgReaction{
		ReactionID:   r.ReactionID.Hex(),
		ReactionBody: r.ReactionBody,
		UserID:       r.UserID.Hex(),
		Username:     r.Username,
		CreatedAt:    r.CreatedAt.UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode reaction: %w", err)
	}
	return string(data), nil
}

func encodeReactions(reactions []models.Reaction) (string, error) {
	out := make([]pgReaction, len(reactions))
	for i, r := range reactions {
		out[i] = pgReaction{
			ReactionID:   r.ReactionID.Hex(),
			ReactionBody: r.ReactionBody,
			UserID:       r.UserID.Hex(),
			Username:     r.Username,
			CreatedAt:    r.CreatedAt.UTC(),
		}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to encode reactions: %w", err)
	}
	return string(data), nil
}

func decodeReactions(raw []byte) ([]models.Reaction, error) {
	var stored []pgReaction
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("failed to decode reactions: %w", err)
	}
	out := make([]models.Reaction, 0, len(stored))
	for _, s := range stored {
		reactionID, err := primitive.ObjectIDFromHex(s.ReactionID)
		if err != nil {
			return nil, fmt.Errorf("failed to decode reaction id: %w", err)
		}
		userID, err := primitive.ObjectIDFromHex(s.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to decode reaction user id: %w", err)
		}
		out = append(out, models.Reaction{
			ReactionID:   reactionID,
			ReactionBody: s.ReactionBody,
			UserID:       userID,
			Username:     s.Username,
			CreatedAt:    s.CreatedAt,
		})
	}
	return out, nil
}

func decodeIDList(raw []byte) ([]primitive.ObjectID, error) {
	var hexes []string
	if err := json.Unmarshal(raw, &hexes); err != nil {
		return nil, fmt.Errorf("failed to decode id list: %w", err)
	}
	ids := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		id, err := primitive.ObjectIDFromHex(h)
		if err != nil {
			return nil, fmt.Errorf("failed to decode id %q: %w", h, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// pgDuplicate converts a unique violation into a DuplicateError, or returns nil.
func pgDuplicate(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}
	field := "key"
	switch {
	case strings.Contains(pgErr.ConstraintName, "username"):
		field = "username"
	case strings.Contains(pgErr.ConstraintName, "email"):
		field = "email"
	}
	return &DuplicateError{Field: field}
}

func encodeIDList(ids []primitive.ObjectID) (string, error) {
	data, err := json.Marshal(models.IDStrings(ids))
	if err != nil {
		return "", fmt.Errorf("failed to encode id list: %w", err)
	}
	return string(data), nil
}
