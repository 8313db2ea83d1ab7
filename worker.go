package superdense

import (
	"context"
	"time"

	"github.com/theapemachine/errnie"
)

/*
Worker takes jobs off the pool queue and transmits each message through the
pool's backend. Every transmission builds its own circuit and execution, so
workers share nothing but the queue and the result space.
*/
type Worker struct {
	id   int
	pool *Pool
}

func (w *Worker) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-w.pool.jobs:
			if ctx.Err() != nil {
				w.pool.space.Store(closedResult(job))
				return
			}
			w.pool.space.Store(w.processJob(ctx, job))
		}
	}
}

func (w *Worker) processJob(ctx context.Context, job Job) Result {
	start := time.Now()

	var counts Counts
	attempts, err := job.RetryPolicy.do(ctx, func() (err error) {
		counts, err = Transmit(ctx, w.pool.backend, job.Message, job.Shots)
		return err
	})
	w.pool.metrics.recordJobExecution(start, job.Shots, err == nil)

	if err != nil {
		errnie.Info("worker %d: job %s failed after %d attempt(s): %v", w.id, job.ID, attempts, err)
	}

	return Result{
		JobID:     job.ID,
		Message:   job.Message,
		Counts:    counts,
		Error:     err,
		CreatedAt: time.Now(),
		TTL:       job.TTL,
	}
}
