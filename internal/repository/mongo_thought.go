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

const thoughtsCollection = "thoughts"

// MongoThoughtRepository handles thought documents in MongoDB
type MongoThoughtRepository struct {
	coll *mongo.Collection
}

// NewMongoThoughtRepository creates a new thought repository
func NewMongoThoughtRepository(db *mongo.Database) *MongoThoughtRepository {
	return &MongoThoughtRepository{coll: db.Collection(thoughtsCollection)}
}

// EnsureIndexes creates the owner index used by user deletion
func (r *MongoThoughtRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create thought indexes: %w", err)
	}
	return nil
}

// Create inserts a new thought, assigning an id when missing
func (r *MongoThoughtRepository) Create(ctx context.Context, thought *models.Thought) error {
	defer track("mongo", thoughtsCollection, "create")()

	if thought.ID.IsZero() {
		thought.ID = primitive.NewObjectID()
	}
	if thought.Reactions == nil {
		thought.Reactions = []models.Reaction{}
	}

	if _, err := r.coll.InsertOne(ctx, thought); err != nil {
		return fmt.Errorf("failed to create thought: %w", err)
	}
	return nil
}

// GetByID retrieves a thought by ID
func (r *MongoThoughtRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Thought, error) {
	defer track("mongo", thoughtsCollection, "get")()

	var thought models.Thought
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&thought); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("thought not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get thought: %w", err)
	}
	return &thought, nil
}

// List returns every thought in insertion order
func (r *MongoThoughtRepository) List(ctx context.Context) ([]*models.Thought, error) {
	defer track("mongo", thoughtsCollection, "list")()

	cursor, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list thoughts: %w", err)
	}
	thoughts := []*models.Thought{}
	if err := cursor.All(ctx, &thoughts); err != nil {
		return nil, fmt.Errorf("failed to decode thoughts: %w", err)
	}
	return thoughts, nil
}

// Update overwrites the provided fields and returns the new document
func (r *MongoThoughtRepository) Update(ctx context.Context, id primitive.ObjectID, update ThoughtUpdate) (*models.Thought, error) {
	set := bson.M{}
	if update.ThoughtText != nil {
		set["thoughtText"] = *update.ThoughtText
	}
	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	defer track("mongo", thoughtsCollection, "update")()
	return r.findOneAndUpdate(ctx, id, bson.M{"$set": set})
}

// Delete removes a thought by ID
func (r *MongoThoughtRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	defer track("mongo", thoughtsCollection, "delete")()

	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete thought: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("thought not found: %w", ErrNotFound)
	}
	return nil
}

// DeleteByUser removes every thought owned by userID and returns their ids
func (r *MongoThoughtRepository) DeleteByUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	defer track("mongo", thoughtsCollection, "delete_by_user")()

	filter := bson.M{"userId": userID}
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to find user thoughts: %w", err)
	}
	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode user thoughts: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	ids := make([]primitive.ObjectID, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	if _, err := r.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return nil, fmt.Errorf("failed to delete user thoughts: %w", err)
	}
	return ids, nil
}

// PushReaction appends a reaction to the thought's reactions list
func (r *MongoThoughtRepository) PushReaction(ctx context.Context, thoughtID primitive.ObjectID, reaction models.Reaction) (*models.Thought, error) {
	defer track("mongo", thoughtsCollection, "push_reaction")()
	return r.findOneAndUpdate(ctx, thoughtID, bson.M{"$push": bson.M{"reactions": reaction}})
}

// PullReaction removes the reaction whose reactionId equals reactionID
func (r *MongoThoughtRepository) PullReaction(ctx context.Context, thoughtID, reactionID primitive.ObjectID) (*models.Thought, error) {
	defer track("mongo", thoughtsCollection, "pull_reaction")()
	return r.findOneAndUpdate(ctx, thoughtID, bson.M{
		"$pull": bson.M{"reactions": bson.M{"reactionId": reactionID}},
	})
}

func (r *MongoThoughtRepository) findOneAndUpdate(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Thought, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var thought models.Thought
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&thought); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("thought not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update thought: %w", err)
	}
	return &thought, nil
}
