package superdense

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/theapemachine/errnie"
)

/*
Pool transmits many messages concurrently. Each worker owns the executions it
runs, so no simulation state is shared; the only synchronisation is the job
queue and the result space.
*/
type Pool struct {
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	jobs       chan Job
	space      *resultSpace
	backend    Backend
	metrics    *Metrics
	regulators []Regulator
	config     *Config
	closeOnce  sync.Once
}

// NewPool starts config.PoolWorkers workers transmitting through backend.
func NewPool(ctx context.Context, backend Backend, config *Config, regulators ...Regulator) *Pool {
	if config == nil {
		config = NewConfig()
	}

	ctx, cancel := context.WithCancel(ctx)
	workers := max(config.PoolWorkers, 1)

	p := &Pool{
		ctx:        ctx,
		cancel:     cancel,
		jobs:       make(chan Job, workers*10),
		space:      newResultSpace(time.Minute),
		backend:    backend,
		metrics:    NewMetrics(),
		regulators: regulators,
		config:     config,
	}

	for i := 0; i < workers; i++ {
		p.startWorker(i)
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.collectMetrics()
	}()

	errnie.Info("pool started - workers %d, regulators %d", workers, len(regulators))
	return p
}

func (p *Pool) startWorker(id int) {
	worker := &Worker{id: id, pool: p}

	p.metrics.mu.Lock()
	p.metrics.WorkerCount++
	p.metrics.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		worker.run(p.ctx)
	}()
}

func (p *Pool) collectMetrics() {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.metrics.mu.Lock()
			p.metrics.JobQueueSize = len(p.jobs)
			p.metrics.mu.Unlock()

			for _, regulator := range p.regulators {
				regulator.Observe(p.metrics)
				regulator.Renormalize()
			}
		}
	}
}

/*
Schedule queues msg for transmission and returns a channel that receives the
result. Invalid messages, limited or closed pools and scheduling timeouts are
reported through the same channel.
*/
func (p *Pool) Schedule(msg string, opts ...JobOption) chan Result {
	job := newJob(msg, p.config.Shots, opts...)

	if err := ValidateMessage(msg); err != nil {
		return p.failed(job, err)
	}

	if p.ctx.Err() != nil {
		return p.failed(job, ErrPoolClosed)
	}

	reserved, limited := p.admit()
	if limited {
		p.metrics.recordLimited()
		return p.failed(job, ErrPoolLimited)
	}

	ch := p.space.Await(job.ID)

	timer := time.NewTimer(p.schedulingTimeout())
	defer timer.Stop()

	select {
	case p.jobs <- job:
		return ch
	case <-p.ctx.Done():
		release(reserved)
		p.space.Store(closedResult(job))
	case <-timer.C:
		release(reserved)
		p.space.Store(Result{
			JobID:   job.ID,
			Message: msg,
			Error:   fmt.Errorf("job %s scheduling timeout after %v", job.ID, p.schedulingTimeout()),
			TTL:     job.TTL,
		})
	}

	return ch
}

/*
admit consults every regulator in order. Quota taken by a QuotaRegulator is
returned when a later regulator refuses the job, so only admitted jobs use up
quota.
*/
func (p *Pool) admit() (reserved []QuotaRegulator, limited bool) {
	for _, regulator := range p.regulators {
		if regulator.Limit() {
			release(reserved)
			return nil, true
		}

		if quota, ok := regulator.(QuotaRegulator); ok {
			reserved = append(reserved, quota)
		}
	}

	return reserved, false
}

func release(reserved []QuotaRegulator) {
	for _, quota := range reserved {
		quota.Release()
	}
}

func (p *Pool) failed(job Job, err error) chan Result {
	ch := make(chan Result, 1)
	ch <- Result{
		JobID:     job.ID,
		Message:   job.Message,
		Error:     err,
		CreatedAt: time.Now(),
		TTL:       job.TTL,
	}
	close(ch)
	return ch
}

func (p *Pool) schedulingTimeout() time.Duration {
	if p.config.SchedulingTimeout > 0 {
		return p.config.SchedulingTimeout
	}
	return 5 * time.Second
}

func (p *Pool) Metrics() *Metrics {
	return p.metrics
}

/*
Close stops the workers and waits for them to exit. Jobs still queued, and
anyone still awaiting a result, receive ErrPoolClosed.
*/
func (p *Pool) Close() {
	if p == nil {
		return
	}

	p.closeOnce.Do(func() {
		errnie.Info("closing pool")
		p.cancel()
		p.wg.Wait()
		p.drain()
		p.space.Close()
		errnie.Info("pool closed")
	})
}

// drain answers the jobs left in the queue once no worker will take them.
func (p *Pool) drain() {
	for {
		select {
		case job := <-p.jobs:
			p.space.Store(closedResult(job))
		default:
			return
		}
	}
}

func closedResult(job Job) Result {
	return Result{
		JobID:     job.ID,
		Message:   job.Message,
		Error:     ErrPoolClosed,
		CreatedAt: time.Now(),
		TTL:       job.TTL,
	}
}
