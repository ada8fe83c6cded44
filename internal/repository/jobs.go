package repository

import (
	"context"
	"errors"

	"github.com/site2data/graph-worker/internal/domain"
)

var ErrNotFound = errors.New("resource not found")

// JobsRepository abstracts job status persistence. All writes are scoped to a
// single jobId; there is no cross-job coordination.
type JobsRepository interface {
	GetJob(ctx context.Context, jobID string) (*domain.Job, error)
	// SetJobStatus performs a partial status update and reports whether a job
	// document matched.
	SetJobStatus(ctx context.Context, jobID string, status domain.JobStatus) (bool, error)
	CompleteJob(ctx context.Context, jobID, finalResultURL string) error
	FailJob(ctx context.Context, jobID, errorMessage string) error
}

// ScenesRepository reads the analyzed scene records a job is built from.
type ScenesRepository interface {
	ListAnalyzedScenes(ctx context.Context, jobID string) ([]domain.Scene, error)
}
