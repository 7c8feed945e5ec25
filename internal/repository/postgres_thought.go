package repository

import (
	"context"
	"errors"
	"fmt"

	"thoughtnet/internal/models"

	"github.com/jackc/pgx/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const thoughtColumns = `id, thought_text, user_id, username, created_at, reactions`

// PostgresThoughtRepository handles thought documents in PostgreSQL
type PostgresThoughtRepository struct {
	db Querier
}

// NewPostgresThoughtRepository creates a new thought repository
func NewPostgresThoughtRepository(db Querier) *PostgresThoughtRepository {
	return &PostgresThoughtRepository{db: db}
}

// Create inserts a new thought, assigning an id when missing
func (r *PostgresThoughtRepository) Create(ctx context.Context, thought *models.Thought) error {
	defer track("postgres", thoughtsCollection, "create")()

	if thought.ID.IsZero() {
		thought.ID = primitive.NewObjectID()
	}
	if thought.Reactions == nil {
		thought.Reactions = []models.Reaction{}
	}
	reactions, err := encodeReactions(thought.Reactions)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO thoughts (id, thought_text, user_id, username, created_at, reactions)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb)
	`
	_, err = r.db.Exec(ctx, query,
		thought.ID.Hex(), thought.ThoughtText, thought.UserID.Hex(), thought.Username,
		thought.CreatedAt, reactions,
	)
	if err != nil {
		return fmt.Errorf("failed to create thought: %w", err)
	}
	return nil
}

// GetByID retrieves a thought by ID
func (r *PostgresThoughtRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Thought, error) {
	defer track("postgres", thoughtsCollection, "get")()

	query := `SELECT ` + thoughtColumns + ` FROM thoughts WHERE id = $1`
	thought, err := scanThought(r.db.QueryRow(ctx, query, id.Hex()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("thought not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get thought: %w", err)
	}
	return thought, nil
}

// List returns every thought ordered by id, which follows creation order
func (r *PostgresThoughtRepository) List(ctx context.Context) ([]*models.Thought, error) {
	defer track("postgres", thoughtsCollection, "list")()

	rows, err := r.db.Query(ctx, `SELECT `+thoughtColumns+` FROM thoughts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list thoughts: %w", err)
	}
	defer rows.Close()

	thoughts := []*models.Thought{}
	for rows.Next() {
		thought, err := scanThought(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan thought: %w", err)
		}
		thoughts = append(thoughts, thought)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating thoughts: %w", err)
	}
	return thoughts, nil
}

// Update overwrites the provided fields and returns the new document
func (r *PostgresThoughtRepository) Update(ctx context.Context, id primitive.ObjectID, update ThoughtUpdate) (*models.Thought, error) {
	defer track("postgres", thoughtsCollection, "update")()

	query := `
		UPDATE thoughts SET thought_text = COALESCE($2, thought_text)
		WHERE id = $1
		RETURNING ` + thoughtColumns
	return r.updateReturning(ctx, query, id.Hex(), update.ThoughtText)
}

// Delete removes a thought by ID
func (r *PostgresThoughtRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	defer track("postgres", thoughtsCollection, "delete")()

	result, err := r.db.Exec(ctx, `DELETE FROM thoughts WHERE id = $1`, id.Hex())
	if err != nil {
		return fmt.Errorf("failed to delete thought: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("thought not found: %w", ErrNotFound)
	}
	return nil
}

// DeleteByUser removes every thought owned by userID and returns their ids
func (r *PostgresThoughtRepository) DeleteByUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	defer track("postgres", thoughtsCollection, "delete_by_user")()

	rows, err := r.db.Query(ctx, `DELETE FROM thoughts WHERE user_id = $1 RETURNING id`, userID.Hex())
	if err != nil {
		return nil, fmt.Errorf("failed to delete user thoughts: %w", err)
	}
	hexes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to collect deleted thought ids: %w", err)
	}

	ids := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		id, err := primitive.ObjectIDFromHex(h)
		if err != nil {
			return nil, fmt.Errorf("failed to decode thought id %q: %w", h, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// PushReaction appends a reaction to the thought's reactions list
func (r *PostgresThoughtRepository) PushReaction(ctx context.Context, thoughtID primitive.ObjectID, reaction models.Reaction) (*models.Thought, error) {
	defer track("postgres", thoughtsCollection, "push_reaction")()

	encoded, err := encodeReaction(reaction)
	if err != nil {
		return nil, err
	}
	query := `
		UPDATE thoughts SET reactions = reactions || jsonb_build_array($2::jsonb)
		WHERE id = $1
		RETURNING ` + thoughtColumns
	return r.updateReturning(ctx, query, thoughtID.Hex(), encoded)
}

// PullReaction removes the reaction whose reactionId equals reactionID
func (r *PostgresThoughtRepository) PullReaction(ctx context.Context, thoughtID, reactionID primitive.ObjectID) (*models.Thought, error) {
	defer track("postgres", thoughtsCollection, "pull_reaction")()

	query := `
		UPDATE thoughts SET reactions = COALESCE((
			SELECT jsonb_agg(e.reaction ORDER BY e.position)
			FROM jsonb_array_elements(reactions) WITH ORDINALITY AS e(reaction, position)
			WHERE e.reaction->>'reactionId' <> $2
		), '[]'::jsonb)
		WHERE id = $1
		RETURNING ` + thoughtColumns
	return r.updateReturning(ctx, query, thoughtID.Hex(), reactionID.Hex())
}

func (r *PostgresThoughtRepository) updateReturning(ctx context.Context, query string, args ...any) (*models.Thought, error) {
	thought, err := scanThought(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("thought not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update thought: %w", err)
	}
	return thought, nil
}

func scanThought(row pgx.Row) (*models.Thought, error) {
	var (
		id        string
		userID    string
		thought   models.Thought
		reactions []byte
	)
	err := row.Scan(&id, &thought.ThoughtText, &userID, &thought.Username, &thought.CreatedAt, &reactions)
	if err != nil {
		return nil, err
	}

	if thought.ID, err = primitive.ObjectIDFromHex(id); err != nil {
		return nil, fmt.Errorf("failed to decode thought id: %w", err)
	}
	if thought.UserID, err = primitive.ObjectIDFromHex(userID); err != nil {
		return nil, fmt.Errorf("failed to decode thought user id: %w", err)
	}
	if thought.Reactions, err = decodeReactions(reactions); err != nil {
		return nil, err
	}
	return &thought, nil
}
