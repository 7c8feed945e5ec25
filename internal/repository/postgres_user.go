package repository

import (
	"context"
	"errors"
	"fmt"

	"thoughtnet/internal/models"

	"github.com/jackc/pgx/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const userColumns = `id, username, email, thoughts, friends`

// PostgresUserRepository handles user documents in PostgreSQL
type PostgresUserRepository struct {
	db Querier
}

// NewPostgresUserRepository creates a new user repository
func NewPostgresUserRepository(db Querier) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// Create inserts a new user, assigning an id when missing
func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User) error {
	defer track("postgres", usersCollection, "create")()

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.Thoughts == nil {
		user.Thoughts = []primitive.ObjectID{}
	}
	if user.Friends == nil {
		user.Friends = []primitive.ObjectID{}
	}

	query := `
		INSERT INTO users (id, username, email, thoughts, friends)
		VALUES ($1, $2, $3, $4::jsonb, $5::jsonb)
	`
	thoughts, err := encodeIDList(user.Thoughts)
	if err != nil {
		return err
	}
	friends, err := encodeIDList(user.Friends)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, query, user.ID.Hex(), user.Username, user.Email, thoughts, friends)
	if err != nil {
		if dup := pgDuplicate(err); dup != nil {
			return fmt.Errorf("failed to create user: %w", dup)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *PostgresUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	defer track("postgres", usersCollection, "get")()

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, id.Hex()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// List returns every user ordered by id, which follows creation order
func (r *PostgresUserRepository) List(ctx context.Context) ([]*models.User, error) {
	defer track("postgres", usersCollection, "list")()

	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// Update overwrites the provided fields and returns the new document
func (r *PostgresUserRepository) Update(ctx context.Context, id primitive.ObjectID, update UserUpdate) (*models.User, error) {
	defer track("postgres", usersCollection, "update")()

	query := `
		UPDATE users
		SET username = COALESCE($2, username), email = COALESCE($3, email)
		WHERE id = $1
		RETURNING ` + userColumns
	user, err := scanUser(r.db.QueryRow(ctx, query, id.Hex(), update.Username, update.Email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", ErrNotFound)
		}
		if dup := pgDuplicate(err); dup != nil {
			return nil, fmt.Errorf("failed to update user: %w", dup)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// Delete removes a user by ID
func (r *PostgresUserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	defer track("postgres", usersCollection, "delete")()

	result, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id.Hex())
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %w", ErrNotFound)
	}
	return nil
}

// PushThought appends a thought id to the user's thoughts list
func (r *PostgresUserRepository) PushThought(ctx context.Context, userID, thoughtID primitive.ObjectID) error {
	defer track("postgres", usersCollection, "push_thought")()

	query := `UPDATE users SET thoughts = thoughts || jsonb_build_array($2::text) WHERE id = $1`
	result, err := r.db.Exec(ctx, query, userID.Hex(), thoughtID.Hex())
	if err != nil {
		return fmt.Errorf("failed to push thought: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %w", ErrNotFound)
	}
	return nil
}

// PullThought removes a thought id from every user referencing it
func (r *PostgresUserRepository) PullThought(ctx context.Context, thoughtID primitive.ObjectID) (int64, error) {
	defer track("postgres", usersCollection, "pull_thought")()

	query := `
		UPDATE users SET thoughts = thoughts - $1::text
		WHERE thoughts @> jsonb_build_array($1::text)
	`
	result, err := r.db.Exec(ctx, query, thoughtID.Hex())
	if err != nil {
		return 0, fmt.Errorf("failed to pull thought: %w", err)
	}
	return result.RowsAffected(), nil
}

// AddFriend adds friendID to the user's friends list unless already present
func (r *PostgresUserRepository) AddFriend(ctx context.Context, userID, friendID primitive.ObjectID) (*models.User, error) {
	defer track("postgres", usersCollection, "add_friend")()

	query := `
		UPDATE users SET friends = CASE
			WHEN friends @> jsonb_build_array($2::text) THEN friends
			ELSE friends || jsonb_build_array($2::text)
		END
		WHERE id = $1
		RETURNING ` + userColumns
	return r.updateReturning(ctx, query, userID.Hex(), friendID.Hex())
}

// RemoveFriend pulls friendID from the user's friends list
func (r *PostgresUserRepository) RemoveFriend(ctx context.Context, userID, friendID primitive.ObjectID) (*models.User, error) {
	defer track("postgres", usersCollection, "remove_friend")()

	query := `UPDATE users SET friends = friends - $2::text WHERE id = $1 RETURNING ` + userColumns
	return r.updateReturning(ctx, query, userID.Hex(), friendID.Hex())
}

// PullFriend removes friendID from every friends list
func (r *PostgresUserRepository) PullFriend(ctx context.Context, friendID primitive.ObjectID) (int64, error) {
	defer track("postgres", usersCollection, "pull_friend")()

	query := `
		UPDATE users SET friends = friends - $1::text
		WHERE friends @> jsonb_build_array($1::text)
	`
	result, err := r.db.Exec(ctx, query, friendID.Hex())
	if err != nil {
		return 0, fmt.Errorf("failed to pull friend: %w", err)
	}
	return result.RowsAffected(), nil
}

func (r *PostgresUserRepository) updateReturning(ctx context.Context, query string, args ...any) (*models.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var (
		id       string
		user     models.User
		thoughts []byte
		friends  []byte
	)
	if err := row.Scan(&id, &user.Username, &user.Email, &thoughts, &friends); err != nil {
		return nil, err
	}

	var err error
	if user.ID, err = primitive.ObjectIDFromHex(id); err != nil {
		return nil, fmt.Errorf("failed to decode user id: %w", err)
	}
	if user.Thoughts, err = decodeIDList(thoughts); err != nil {
		return nil, err
	}
	if user.Friends, err = decodeIDList(friends); err != nil {
		return nil, err
	}
	return &user, nil
}
