package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/site2data/graph-worker/internal/domain"
	"github.com/site2data/graph-worker/internal/logger"
	"github.com/site2data/graph-worker/internal/queue"
)

// scriptedConsumer replays a fixed sequence of poll outcomes, then reports
// timeouts until the test cancels the context.
type scriptedConsumer struct {
	mu       sync.Mutex
	outcomes []pollOutcome
	acks     []string
	drained  chan struct{}
	once     sync.Once
}

type pollOutcome struct {
	message *queue.Message
	err     error
}

func (c *scriptedConsumer) ReadOne(context.Context) (*queue.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.outcomes) == 0 {
		c.once.Do(func() { close(c.drained) })
		return nil, nil
	}
	next := c.outcomes[0]
	c.outcomes = c.outcomes[1:]
	return next.message, next.err
}

func (c *scriptedConsumer) Ack(_ context.Context, messageID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.acks = append(c.acks, messageID)
	return nil
}

func newLoopFixture(consumer *scriptedConsumer) (*Worker, *fakeJobs) {
	jobs := newFakeJobs(&domain.Job{JobID: "job-1", Status: domain.JobStatusReceived})
	processor := NewProcessor(Dependencies{
		Jobs:     jobs,
		Scenes:   &fakeScenes{scenes: []domain.Scene{analyzedScene("s1", "Alice", "Bob")}},
		Store:    &fakeStore{},
		Progress: &fakePublisher{},
		Acker:    consumer,
		Logger:   logger.NewNop(),
	})
	return NewWorker(consumer, processor, time.Millisecond, logger.NewNop()), jobs
}

func TestWorkerDispatchesAndRecoversFromPollErrors(t *testing.T) {
	consumer := &scriptedConsumer{
		outcomes: []pollOutcome{
			{err: errors.New("broker unavailable")},
			{message: &queue.Message{ID: "1-0", JobID: "job-1"}},
		},
		drained: make(chan struct{}),
	}
	w, jobs := newLoopFixture(consumer)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	select {
	case <-consumer.drained:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not drain the scripted outcomes")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}

	if got := jobs.job(t, "job-1").Status; got != domain.JobStatusCompleted {
		t.Fatalf("expected dispatched job to complete, got %s", got)
	}
	consumer.mu.Lock()
	defer consumer.mu.Unlock()
	if len(consumer.acks) != 1 || consumer.acks[0] != "1-0" {
		t.Fatalf("expected one ack for message 1-0, got %v", consumer.acks)
	}
}

func TestWorkerStopsBetweenIterations(t *testing.T) {
	consumer := &scriptedConsumer{drained: make(chan struct{})}
	w, _ := newLoopFixture(consumer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not observe cancellation")
	}
}
