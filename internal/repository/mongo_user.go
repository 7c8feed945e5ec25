package repository

import (
	"context"
	"errors"
	"fmt"

	"thoughtnet/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const usersCollection = "users"

// MongoUserRepository handles user documents in MongoDB
type MongoUserRepository struct {
	coll *mongo.Collection
}

// NewMongoUserRepository creates a new user repository
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection(usersCollection)}
}

// EnsureIndexes creates the unique indexes on username and email
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "thoughts", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}

// Create inserts a new user, assigning an id when missing
func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) error {
	defer track("mongo", usersCollection, "create")()

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.Thoughts == nil {
		user.Thoughts = []primitive.ObjectID{}
	}
	if user.Friends == nil {
		user.Friends = []primitive.ObjectID{}
	}

	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("failed to create user: %w", &DuplicateError{Field: mongoDuplicateField(err)})
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *MongoUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	defer track("mongo", usersCollection, "get")()

	var user models.User
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// List returns every user in insertion order
func (r *MongoUserRepository) List(ctx context.Context) ([]*models.User, error) {
	defer track("mongo", usersCollection, "list")()

	cursor, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	users := []*models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

// Update overwrites the provided fields and returns the new document
func (r *MongoUserRepository) Update(ctx context.Context, id primitive.ObjectID, update UserUpdate) (*models.User, error) {
	set := bson.M{}
	if update.Username != nil {
		set["username"] = *update.Username
	}
	if update.Email != nil {
		set["email"] = *update.Email
	}
	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	defer track("mongo", usersCollection, "update")()
	user, err := r.findOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("failed to update user: %w", &DuplicateError{Field: mongoDuplicateField(err)})
		}
		return nil, err
	}
	return user, nil
}

// Delete removes a user by ID
func (r *MongoUserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	defer track("mongo", usersCollection, "delete")()

	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("user not found: %w", ErrNotFound)
	}
	return nil
}

// PushThought appends a thought id to the user's thoughts list
func (r *MongoUserRepository) PushThought(ctx context.Context, userID, thoughtID primitive.ObjectID) error {
	defer track("mongo", usersCollection, "push_thought")()

	result, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$push": bson.M{"thoughts": thoughtID}},
	)
	if err != nil {
		return fmt.Errorf("failed to push thought: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("user not found: %w", ErrNotFound)
	}
	return nil
}

// PullThought removes a thought id from every user referencing it
func (r *MongoUserRepository) PullThought(ctx context.Context, thoughtID primitive.ObjectID) (int64, error) {
	defer track("mongo", usersCollection, "pull_thought")()

	result, err := r.coll.UpdateMany(ctx,
		bson.M{"thoughts": thoughtID},
		bson.M{"$pull": bson.M{"thoughts": thoughtID}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to pull thought: %w", err)
	}
	return result.ModifiedCount, nil
}

// AddFriend adds friendID to the user's friends list unless already present
func (r *MongoUserRepository) AddFriend(ctx context.Context, userID, friendID primitive.ObjectID) (*models.User, error) {
	defer track("mongo", usersCollection, "add_friend")()
	return r.findOneAndUpdate(ctx,
		bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"friends": friendID}},
	)
}

// RemoveFriend pulls friendID from the user's friends list
func (r *MongoUserRepository) RemoveFriend(ctx context.Context, userID, friendID primitive.ObjectID) (*models.User, error) {
	defer track("mongo", usersCollection, "remove_friend")()
	return r.findOneAndUpdate(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"friends": friendID}},
	)
}

// PullFriend removes friendID from every friends list
func (r *MongoUserRepository) PullFriend(ctx context.Context, friendID primitive.ObjectID) (int64, error) {
	defer track("mongo", usersCollection, "pull_friend")()

	result, err := r.coll.UpdateMany(ctx,
		bson.M{"friends": friendID},
		bson.M{"$pull": bson.M{"friends": friendID}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to pull friend: %w", err)
	}
	return result.ModifiedCount, nil
}

func (r *MongoUserRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user models.User
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return &user, nil
}
