package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/site2data/graph-worker/internal/artifact"
	"github.com/site2data/graph-worker/internal/domain"
	"github.com/site2data/graph-worker/internal/graph"
	"github.com/site2data/graph-worker/internal/logger"
	"github.com/site2data/graph-worker/internal/progress"
	"github.com/site2data/graph-worker/internal/queue"
	"github.com/site2data/graph-worker/internal/repository"
	"github.com/site2data/graph-worker/internal/storage"
)

const maxErrorMessageLen = 512

// Dependencies are the external collaborators a Processor sequences. All are
// injected so tests can substitute fakes.
type Dependencies struct {
	Jobs        repository.JobsRepository
	Scenes      repository.ScenesRepository
	Store       storage.ObjectStore
	Progress    progress.Publisher
	Acker       queue.Acknowledger
	DeadLetters queue.DeadLetterer
	Logger      *logger.Logger
}

// Processor runs the graph generation pipeline for one message at a time:
// status transition, scene fetch, graph build, serialization, packaging,
// upload, completion, acknowledgment.
type Processor struct {
	jobs        repository.JobsRepository
	scenes      repository.ScenesRepository
	store       storage.ObjectStore
	progress    progress.Publisher
	acker       queue.Acknowledger
	deadLetters queue.DeadLetterer
	log         *logger.Logger
}

func NewProcessor(deps Dependencies) *Processor {
	return &Processor{
		jobs:        deps.Jobs,
		scenes:      deps.Scenes,
		store:       deps.Store,
		progress:    deps.Progress,
		acker:       deps.Acker,
		deadLetters: deps.DeadLetters,
		log:         deps.Logger,
	}
}

// Process handles one message to a terminal outcome. The message is
// acknowledged on success and on permanent failure; it is left pending only
// when the failure handling itself cannot reach the job store, so the stream
// redelivers it after a restart.
func (p *Processor) Process(ctx context.Context, message queue.Message) {
	if strings.TrimSpace(message.JobID) == "" {
		p.log.Error("received message without jobId", "message_id", message.ID)
		if p.deadLetters != nil {
			if err := p.deadLetters.DeadLetter(ctx, message, "missing jobId"); err != nil {
				p.log.Error("failed to dead-letter malformed message", "message_id", message.ID, "error", err)
			}
		}
		p.acknowledge(ctx, message, p.log)
		return
	}

	log := p.log.With("job_id", message.JobID, "message_id", message.ID)
	log.Info("processing graph generation job")

	job, err := p.jobs.GetJob(ctx, message.JobID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		log.Warn("job document not found, proceeding")
	case err != nil:
		p.handleFailure(ctx, message, fmt.Errorf("load job: %w", err), log)
		return
	case job.Status.Terminal():
		// Redelivery after a crash between completion and ack: nothing left
		// to do but clear the pending entry.
		log.Info("job already in terminal state, skipping reprocessing", "status", job.Status)
		p.acknowledge(ctx, message, log)
		return
	}

	if err := p.run(ctx, message.JobID, log); err != nil {
		p.handleFailure(ctx, message, err, log)
		return
	}

	log.Info("job completed successfully")
	p.acknowledge(ctx, message, log)
}

func (p *Processor) run(ctx context.Context, jobID string, log *logger.Logger) error {
	matched, err := p.jobs.SetJobStatus(ctx, jobID, domain.JobStatusGeneratingGraph)
	if err != nil {
		return fmt.Errorf("mark generating graph: %w", err)
	}
	if !matched {
		log.Warn("no job document matched status update, proceeding")
	}
	p.publish(ctx, jobID, domain.JobStatusGeneratingGraph, 10, "Fetching scene data...", "")

	scenes, err := p.scenes.ListAnalyzedScenes(ctx, jobID)
	if err != nil {
		return fmt.Errorf("fetch analyzed scenes: %w", err)
	}
	if len(scenes) == 0 {
		return domain.ErrNoAnalyzedScenes
	}
	log.Info("fetched analyzed scenes", "count", len(scenes))
	p.publish(ctx, jobID, domain.JobStatusGeneratingGraph, 30, "Building relationship graph...", "")

	relationshipGraph := graph.BuildRelationshipGraph(scenes, log)
	p.publish(ctx, jobID, domain.JobStatusGeneratingGraph, 60, "Generating GEXF file...", "")

	gexfContent, err := artifact.EncodeGEXF(relationshipGraph)
	if err != nil {
		return fmt.Errorf("serialize graph: %w", err)
	}
	log.Info("generated GEXF content", "bytes", len(gexfContent))
	p.publish(ctx, jobID, domain.JobStatusGeneratingGraph, 80, "Creating results archive...", "")

	archive, err := artifact.Package(gexfContent)
	if err != nil {
		return fmt.Errorf("package results: %w", err)
	}
	log.Info("created results archive", "bytes", len(archive))

	objectKey := fmt.Sprintf("results/%s/analysis_results.zip", jobID)
	if err := p.store.Upload(ctx, objectKey, archive, artifact.ArchiveContentType); err != nil {
		return fmt.Errorf("upload results archive: %w", err)
	}
	finalResultURL := p.store.URL(objectKey)
	log.Info("uploaded results archive", "url", finalResultURL)

	if err := p.jobs.CompleteJob(ctx, jobID, finalResultURL); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	p.publish(ctx, jobID, domain.JobStatusCompleted, 100, "Analysis complete.", finalResultURL)
	return nil
}

// handleFailure drives the permanent-failure path: mark the job FAILED,
// publish a terminal event, acknowledge. A domain-level absence of data is
// logged at warning level; everything else is an error.
func (p *Processor) handleFailure(ctx context.Context, message queue.Message, procErr error, log *logger.Logger) {
	if errors.Is(procErr, domain.ErrNoAnalyzedScenes) {
		log.Warn("no analyzable data for job", "error", procErr)
	} else {
		log.Error("graph generation job failed", "error", procErr)
	}

	reason := truncate("Graph generation failed: "+procErr.Error(), maxErrorMessageLen)
	if err := p.jobs.FailJob(ctx, message.JobID, reason); err != nil {
		log.Error("failed to mark job FAILED, leaving message unacknowledged for redelivery", "error", err)
		return
	}
	p.publish(ctx, message.JobID, domain.JobStatusFailed, 0, reason, "")
	p.acknowledge(ctx, message, log)
}

func (p *Processor) acknowledge(ctx context.Context, message queue.Message, log *logger.Logger) {
	if err := p.acker.Ack(ctx, message.ID); err != nil {
		log.Error("failed to acknowledge message", "message_id", message.ID, "error", err)
	}
}

func (p *Processor) publish(ctx context.Context, jobID string, status domain.JobStatus, percent int, message, finalResultURL string) {
	p.progress.Publish(ctx, domain.ProgressEvent{
		JobID:          jobID,
		Status:         status,
		Progress:       percent,
		Message:        message,
		FinalResultURL: finalResultURL,
	})
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
