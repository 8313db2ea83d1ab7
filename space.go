package superdense

import (
	"sync"
	"time"

	"github.com/theapemachine/errnie"
)

// Result is what a Pool delivers for a scheduled Job.
type Result struct {
	JobID     string
	Message   string
	Counts    Counts
	Error     error
	CreatedAt time.Time
	TTL       time.Duration
}

/*
resultSpace stores job results and hands them to whoever awaits them, whether
the await happens before or after the result arrives.
*/
type resultSpace struct {
	mu      sync.Mutex
	values  map[string]Result
	waiting map[string][]chan Result
	closed  bool
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

func newResultSpace(cleanupInterval time.Duration) *resultSpace {
	rs := &resultSpace{
		values:  make(map[string]Result),
		waiting: make(map[string][]chan Result),
		done:    make(chan struct{}),
	}

	rs.wg.Add(1)
	go func() {
		defer rs.wg.Done()
		rs.cleanup(cleanupInterval)
	}()

	return rs
}

// Store records the result for id and wakes every waiting channel.
func (rs *resultSpace) Store(result Result) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now()
	}
	rs.values[result.JobID] = result

	channels := rs.waiting[result.JobID]
	for _, ch := range channels {
		ch <- result
		close(ch)
	}
	delete(rs.waiting, result.JobID)

	errnie.Info("stored result for job %s (waiting %d, err %v)", result.JobID, len(channels), result.Error)
}

// Await returns a channel that receives the result for id exactly once.
func (rs *resultSpace) Await(id string) chan Result {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	ch := make(chan Result, 1)

	if result, ok := rs.values[id]; ok {
		ch <- result
		close(ch)
		return ch
	}

	if rs.closed {
		ch <- Result{JobID: id, Error: ErrPoolClosed, CreatedAt: time.Now()}
		close(ch)
		return ch
	}

	rs.waiting[id] = append(rs.waiting[id], ch)
	return ch
}

func (rs *resultSpace) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rs.done:
			return
		case <-ticker.C:
			rs.cleanupExpired(time.Now())
		}
	}
}

func (rs *resultSpace) cleanupExpired(now time.Time) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	for id, result := range rs.values {
		if result.TTL > 0 && now.Sub(result.CreatedAt) > result.TTL {
			delete(rs.values, id)
		}
	}
}

// Close stops the cleanup loop and answers every remaining waiter with ErrPoolClosed.
func (rs *resultSpace) Close() {
	rs.once.Do(func() {
		close(rs.done)

		rs.mu.Lock()
		rs.closed = true
		for id, channels := range rs.waiting {
			for _, ch := range channels {
				ch <- Result{JobID: id, Error: ErrPoolClosed, CreatedAt: time.Now()}
				close(ch)
			}
		}
		rs.waiting = make(map[string][]chan Result)
		rs.mu.Unlock()
	})
	rs.wg.Wait()
}
