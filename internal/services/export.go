package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"thoughtnet/internal/models"
	"thoughtnet/internal/repository"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ObjectPutter is the part of the S3 client the exporter needs
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Options configures the S3 client used for snapshots
type S3Options struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// NewS3Client builds an S3 client. Static credentials and a custom
// endpoint are used when set, otherwise the default AWS chain applies.
func NewS3Client(ctx context.Context, opts S3Options) (*s3.Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Snapshot is the exported document. Unlike API responses, reaction
// timestamps keep full precision in RFC 3339.
type Snapshot struct {
	ExportedAt time.Time         `json:"exportedAt"`
	Users      []*models.User    `json:"users"`
	Thoughts   []SnapshotThought `json:"thoughts"`
}

// SnapshotThought is a thought as stored, owner id included
type SnapshotThought struct {
	ID          primitive.ObjectID `json:"_id"`
	ThoughtText string             `json:"thoughtText"`
	UserID      primitive.ObjectID `json:"userId"`
	Username    string             `json:"username"`
	CreatedAt   time.Time          `json:"createdAt"`
	Reactions   []SnapshotReaction `json:"reactions"`
}

// SnapshotReaction is a reaction as stored
type SnapshotReaction struct {
	ReactionID   primitive.ObjectID `json:"reactionId"`
	ReactionBody string             `json:"reactionBody"`
	UserID       primitive.ObjectID `json:"userId"`
	Username     string             `json:"username"`
	CreatedAt    time.Time          `json:"createdAt"`
}

func snapshotThoughts(thoughts []*models.Thought) []SnapshotThought {
	out := make([]SnapshotThought, 0, len(thoughts))
	for _, t := range thoughts {
		reactions := make([]SnapshotReaction, 0, len(t.Reactions))
		for _, r := range t.Reactions {
			reactions = append(reactions, SnapshotReaction{
				ReactionID:   r.ReactionID,
				ReactionBody: r.ReactionBody,
				UserID:       r.UserID,
				Username:     r.Username,
				CreatedAt:    r.CreatedAt.UTC(),
			})
		}
		out = append(out, SnapshotThought{
			ID:          t.ID,
			ThoughtText: t.ThoughtText,
			UserID:      t.UserID,
			Username:    t.Username,
			CreatedAt:   t.CreatedAt.UTC(),
			Reactions:   reactions,
		})
	}
	return out
}

// ExportService writes JSON snapshots of both collections to S3
type ExportService struct {
	users    repository.UserRepository
	thoughts repository.ThoughtRepository
	client   ObjectPutter
	bucket   string
	prefix   string
	now      func() time.Time
}

// NewExportService creates a new export service
func NewExportService(
	users repository.UserRepository,
	thoughts repository.ThoughtRepository,
	client ObjectPutter,
	bucket, prefix string,
) *ExportService {
	return &ExportService{
		users:    users,
		thoughts: thoughts,
		client:   client,
		bucket:   bucket,
		prefix:   prefix,
		now:      time.Now,
	}
}

// Export reads every user and thought and uploads them as one object.
// It returns the object key.
func (s *ExportService) Export(ctx context.Context) (string, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list users: %w", err)
	}
	thoughts, err := s.thoughts.List(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list thoughts: %w", err)
	}

	exportedAt := s.now().UTC()
	body, err := json.Marshal(Snapshot{
		ExportedAt: exportedAt,
		Users:      users,
		Thoughts:   snapshotThoughts(thoughts),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	key := path.Join(s.prefix, fmt.Sprintf("snapshot-%d.json", exportedAt.Unix()))
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload snapshot: %w", err)
	}

	log.Info().
		Str("bucket", s.bucket).
		Str("key", key).
		Int("users", len(users)).
		Int("thoughts", len(thoughts)).
		Msg("Snapshot exported")

	return key, nil
}
