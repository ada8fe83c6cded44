package worker

import (
	"context"
	"time"

	"github.com/site2data/graph-worker/internal/logger"
	"github.com/site2data/graph-worker/internal/queue"
)

// Worker owns the consume loop: long-poll for one message, dispatch it
// synchronously, repeat until the context is canceled. Horizontal scale-out
// happens by running more worker processes in the same consumer group.
type Worker struct {
	consumer     queue.Consumer
	processor    *Processor
	errorBackoff time.Duration
	log          *logger.Logger
}

func NewWorker(consumer queue.Consumer, processor *Processor, errorBackoff time.Duration, log *logger.Logger) *Worker {
	if errorBackoff <= 0 {
		errorBackoff = 5 * time.Second
	}
	return &Worker{
		consumer:     consumer,
		processor:    processor,
		errorBackoff: errorBackoff,
		log:          log,
	}
}

// Run blocks until ctx is canceled. Shutdown is cooperative: the flag is
// observed between poll iterations, never mid-message, so an in-flight job
// always reaches a terminal outcome before the loop exits.
func (w *Worker) Run(ctx context.Context) {
	w.log.Info("worker started, waiting for jobs")

	for {
		if ctx.Err() != nil {
			w.log.Info("shutdown requested, exiting worker loop")
			return
		}

		message, err := w.consumer.ReadOne(ctx)
		if err != nil {
			if ctx.Err() != nil {
				w.log.Info("shutdown requested, exiting worker loop")
				return
			}
			w.log.Error("error reading from job stream", "error", err)
			if !w.sleep(ctx) {
				w.log.Info("shutdown requested, exiting worker loop")
				return
			}
			continue
		}
		if message == nil {
			// Poll timeout.
			continue
		}

		w.log.Info("received new message", "message_id", message.ID)
		// Processing must survive a shutdown signal arriving mid-message.
		w.processor.Process(context.WithoutCancel(ctx), *message)
	}
}

// sleep waits out the error backoff; returns false if ctx was canceled first.
func (w *Worker) sleep(ctx context.Context) bool {
	timer := time.NewTimer(w.errorBackoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
