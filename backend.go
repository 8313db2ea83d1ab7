package superdense

import (
	"context"
	"errors"
	"fmt"
)

/*
Backend executes a measured circuit and reports how often each classical
register value was observed. Implementations may be local simulators or
remote services; the protocol code depends on nothing beyond this contract.
*/
type Backend interface {
	Run(ctx context.Context, circuit *Circuit, shots int) (Counts, error)
}

/*
Simulator is the in-process, noiseless statevector backend. It holds no
state between runs: each Run builds a fresh Execution, so a Simulator can be
shared by any number of goroutines.
*/
type Simulator struct {
	opts []ExecutionOption
}

/*
NewSimulator returns a simulator sampling with config's seed, worker count
and gate strategy.

Parameters:
  - config: sampling settings; nil means NewConfig()

Returns:
  - *Simulator: ready to Run circuits concurrently
*/
func NewSimulator(config *Config) *Simulator {
	if config == nil {
		config = NewConfig()
	}

	return &Simulator{opts: config.ExecutionOptions()}
}

func (s *Simulator) Run(ctx context.Context, circuit *Circuit, shots int) (Counts, error) {
	return NewExecution(circuit, s.opts...).Run(ctx, shots)
}

/*
BreakerBackend guards a Backend, usually a remote one, with a circuit
breaker. While the breaker is open, runs fail fast with ErrBackendUnavailable.

Only failures of the wrapped backend count against the breaker. Errors that
describe the circuit itself are deterministic and would fail on any backend.
*/
type BreakerBackend struct {
	backend Backend
	breaker *CircuitBreaker
}

func NewBreakerBackend(backend Backend, config BreakerConfig) *BreakerBackend {
	return &BreakerBackend{
		backend: backend,
		breaker: NewCircuitBreaker(config.MaxFailures, config.ResetTimeout, config.HalfOpenMax),
	}
}

func (b *BreakerBackend) Breaker() *CircuitBreaker {
	return b.breaker
}

// Available reports whether the breaker would let a run through right now.
func (b *BreakerBackend) Available() bool {
	return b.breaker.Allow()
}

func (b *BreakerBackend) Run(ctx context.Context, circuit *Circuit, shots int) (Counts, error) {
	if !b.breaker.Allow() {
		return nil, ErrBackendUnavailable
	}

	counts, err := b.backend.Run(ctx, circuit, shots)
	switch {
	case err == nil:
		b.breaker.RecordSuccess()
	case isCircuitError(err):
		// Not the backend's fault.
	default:
		b.breaker.RecordFailure()
		return nil, fmt.Errorf("backend run: %w", err)
	}

	return counts, err
}

func isCircuitError(err error) bool {
	for _, target := range []error{
		ErrIndexOutOfRange,
		ErrNoMeasurement,
		ErrInvalidShots,
		context.Canceled,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

/*
NewBackend assembles the backend a config describes: one breaker-guarded
simulator, or a LoadBalancer over config.Simulators of them. The returned
regulators belong in front of it on a Pool.
*/
func NewBackend(config *Config) (Backend, []Regulator) {
	if config == nil {
		config = NewConfig()
	}

	if config.Simulators <= 1 {
		backend := NewBreakerBackend(NewSimulator(config), config.Breaker)
		return backend, config.Regulators(backend.Breaker())
	}

	backends := make([]Backend, config.Simulators)
	for i := range backends {
		backends[i] = NewBreakerBackend(NewSimulator(config), config.Breaker)
	}

	balancer := NewLoadBalancer(config.BackendCapacity, backends...)
	return balancer, config.Regulators(balancer)
}
