package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/site2data/graph-worker/internal/domain"
	"github.com/site2data/graph-worker/internal/logger"
)

type MongoConfig struct {
	URI              string
	Database         string
	JobsCollection   string
	ScenesCollection string
}

// MongoRepository implements JobsRepository and ScenesRepository against the
// shared document store.
type MongoRepository struct {
	client *mongo.Client
	jobs   *mongo.Collection
	scenes *mongo.Collection
	log    *logger.Logger
}

// NewMongoRepository connects and verifies the connection with a ping. A
// failure here means the worker must not start.
func NewMongoRepository(ctx context.Context, cfg MongoConfig, log *logger.Logger) (*MongoRepository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	database := client.Database(cfg.Database)
	return &MongoRepository{
		client: client,
		jobs:   database.Collection(cfg.JobsCollection),
		scenes: database.Collection(cfg.ScenesCollection),
		log:    log.With("component", "mongo_repository"),
	}, nil
}

func (r *MongoRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoRepository) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	var job domain.Job
	err := r.jobs.FindOne(ctx, bson.M{"jobId": jobID}).Decode(&job)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find job %s: %w", jobID, err)
	}
	return &job, nil
}

func (r *MongoRepository) SetJobStatus(ctx context.Context, jobID string, status domain.JobStatus) (bool, error) {
	result, err := r.jobs.UpdateOne(ctx, bson.M{"jobId": jobID}, bson.M{
		"$set": bson.M{
			"status":    status,
			"updatedAt": time.Now().UTC(),
		},
	})
	if err != nil {
		return false, fmt.Errorf("update job %s status: %w", jobID, err)
	}
	return result.MatchedCount > 0, nil
}

func (r *MongoRepository) CompleteJob(ctx context.Context, jobID, finalResultURL string) error {
	_, err := r.jobs.UpdateOne(ctx, bson.M{"jobId": jobID}, bson.M{
		"$set": bson.M{
			"status":         domain.JobStatusCompleted,
			"finalResultUrl": finalResultURL,
			"updatedAt":      time.Now().UTC(),
		},
	})
	if err != nil {
		return fmt.Errorf("mark job %s completed: %w", jobID, err)
	}
	return nil
}

func (r *MongoRepository) FailJob(ctx context.Context, jobID, errorMessage string) error {
	_, err := r.jobs.UpdateOne(ctx, bson.M{"jobId": jobID}, bson.M{
		"$set": bson.M{
			"status":       domain.JobStatusFailed,
			"errorMessage": errorMessage,
			"updatedAt":    time.Now().UTC(),
		},
	})
	if err != nil {
		return fmt.Errorf("mark job %s failed: %w", jobID, err)
	}
	return nil
}

// ListAnalyzedScenes returns the scenes eligible for graph generation.
// Individually malformed documents are skipped with a warning rather than
// failing the whole fetch.
func (r *MongoRepository) ListAnalyzedScenes(ctx context.Context, jobID string) ([]domain.Scene, error) {
	cursor, err := r.scenes.Find(ctx, bson.M{
		"jobId":  jobID,
		"status": domain.SceneStatusIndexed,
	})
	if err != nil {
		return nil, fmt.Errorf("find scenes for job %s: %w", jobID, err)
	}
	defer cursor.Close(ctx)

	scenes := make([]domain.Scene, 0)
	for cursor.Next(ctx) {
		var scene domain.Scene
		if err := cursor.Decode(&scene); err != nil {
			r.log.Warn("skipping scene with undecodable document", "job_id", jobID, "error", err)
			continue
		}
		scenes = append(scenes, scene)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate scenes for job %s: %w", jobID, err)
	}
	return scenes, nil
}
