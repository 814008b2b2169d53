package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/coursecraft-api/pkg/jobs"
	"github.com/noah-isme/coursecraft-api/pkg/middleware/requestid"
)

// PlanningTask is one solver call together with its completion handling.
type PlanningTask func(ctx context.Context)

// PlanningDispatcher runs planning tasks inline or on a worker queue.
type PlanningDispatcher interface {
	Dispatch(ctx context.Context, name string, task PlanningTask) error
}

// InlineDispatcher runs tasks on the caller's goroutine.
type InlineDispatcher struct{}

// Dispatch runs the task immediately.
func (InlineDispatcher) Dispatch(ctx context.Context, name string, task PlanningTask) error {
	task(ctx)
	return nil
}

// QueueDispatcher runs tasks on the background worker queue. Tasks are never retried.
type QueueDispatcher struct {
	queue *jobs.Queue
}

// NewQueueDispatcher builds a dispatcher backed by a worker pool.
func NewQueueDispatcher(workers int, logger *zap.Logger) *QueueDispatcher {
	queue := jobs.NewQueue("planning", runPlanningJob, jobs.QueueConfig{
		Workers:    workers,
		MaxRetries: 0,
		Logger:     logger,
	})
	return &QueueDispatcher{queue: queue}
}

// Start launches the workers.
func (d *QueueDispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop drains the workers.
func (d *QueueDispatcher) Stop() {
	d.queue.Stop()
}

// Dispatch enqueues the task, carrying the caller's request id into the worker context.
func (d *QueueDispatcher) Dispatch(ctx context.Context, name string, task PlanningTask) error {
	rid := requestid.FromContext(ctx)
	return d.queue.Enqueue(jobs.Job{
		ID:   uuid.NewString(),
		Type: name,
		Payload: PlanningTask(func(workerCtx context.Context) {
			if rid != "" {
				workerCtx = requestid.WithValue(workerCtx, rid)
			}
			task(workerCtx)
		}),
	})
}

func runPlanningJob(ctx context.Context, job jobs.Job) error {
	task, ok := job.Payload.(PlanningTask)
	if !ok {
		return fmt.Errorf("job %s: unexpected payload %T", job.ID, job.Payload)
	}
	task(ctx)
	return nil
}
