package superdense

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/theapemachine/errnie"
)

// ErrNoAvailableBackends is returned when every balanced backend is down or at capacity.
var ErrNoAvailableBackends = errors.New("no backends available to run circuit")

// availability is implemented by backends that can report being down.
type availability interface {
	Available() bool
}

/*
LoadBalancer spreads circuit runs over several backends. Each run goes to the
backend with the fewest runs in flight, ties broken by the lower average
latency, so untried backends are used first. A backend never carries more
than capacity runs at once, and backends reporting themselves unavailable,
such as a BreakerBackend with an open breaker, are skipped.

It is a Backend itself, and a Regulator: a Pool in front of it refuses new
work while every backend is saturated.
*/
type LoadBalancer struct {
	mu sync.RWMutex

	backends []Backend
	loads    []int
	latency  []time.Duration
	capacity int
	metrics  *Metrics
}

/*
NewLoadBalancer balances over backends with at most capacity runs in flight
on each (minimum 1).
*/
func NewLoadBalancer(capacity int, backends ...Backend) *LoadBalancer {
	return &LoadBalancer{
		backends: backends,
		loads:    make([]int, len(backends)),
		latency:  make([]time.Duration, len(backends)),
		capacity: max(capacity, 1),
	}
}

// Run hands the circuit to the selected backend and records its latency.
func (lb *LoadBalancer) Run(ctx context.Context, circuit *Circuit, shots int) (Counts, error) {
	id, err := lb.acquire()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	counts, err := lb.backends[id].Run(ctx, circuit, shots)
	lb.RecordRunComplete(id, time.Since(start))

	return counts, err
}

func (lb *LoadBalancer) Observe(metrics *Metrics) {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	lb.metrics = metrics
}

// Limit reports true when no backend is both available and below capacity.
func (lb *LoadBalancer) Limit() bool {
	lb.mu.RLock()
	defer lb.mu.RUnlock()

	for i, load := range lb.loads {
		if load < lb.capacity && lb.available(i) {
			return false
		}
	}

	return true
}

func (lb *LoadBalancer) available(i int) bool {
	if backend, ok := lb.backends[i].(availability); ok {
		return backend.Available()
	}
	return true
}

// Renormalize clamps loads that drifted past capacity.
func (lb *LoadBalancer) Renormalize() {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	for i := range lb.loads {
		lb.loads[i] = min(lb.loads[i], lb.capacity)
	}
}

// SelectBackend picks the index of the backend the next run should go to.
func (lb *LoadBalancer) SelectBackend() (int, error) {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	return lb.selectBackend()
}

// acquire selects a backend and takes one of its slots under the same lock.
func (lb *LoadBalancer) acquire() (int, error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	id, err := lb.selectBackend()
	if err == nil {
		lb.loads[id]++
	}

	return id, err
}

func (lb *LoadBalancer) selectBackend() (int, error) {
	selected := -1

	for i, load := range lb.loads {
		if load >= lb.capacity || !lb.available(i) {
			continue
		}

		if selected == -1 {
			selected = i
			continue
		}

		if load < lb.loads[selected] {
			selected = i
		} else if load == lb.loads[selected] && lb.latency[i] < lb.latency[selected] {
			// An untried backend has zero latency and wins the tie.
			selected = i
		}
	}

	if selected == -1 {
		errnie.Info("load balancer: none of %d backends available below capacity %d", len(lb.backends), lb.capacity)
		return -1, ErrNoAvailableBackends
	}

	return selected, nil
}

func (lb *LoadBalancer) RecordRunStart(id int) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	if id >= 0 && id < len(lb.loads) {
		lb.loads[id]++
	}
}

// RecordRunComplete releases the slot and folds duration into a moving average.
func (lb *LoadBalancer) RecordRunComplete(id int, duration time.Duration) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	if id < 0 || id >= len(lb.loads) {
		return
	}

	lb.loads[id] = max(lb.loads[id]-1, 0)

	if lb.latency[id] == 0 {
		lb.latency[id] = duration
	} else {
		lb.latency[id] = (lb.latency[id]*4 + duration) / 5
	}
}
