package superdense

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/theapemachine/errnie"
	"golang.org/x/sync/errgroup"
)

/*
ExecutionState tracks a single run of a circuit. Transitions only move
forward: Built → Running → Measured, or Built → Running → Failed.
*/
type ExecutionState int

const (
	ExecutionBuilt ExecutionState = iota
	ExecutionRunning
	ExecutionMeasured
	ExecutionFailed
)

func (s ExecutionState) String() string {
	switch s {
	case ExecutionBuilt:
		return "built"
	case ExecutionRunning:
		return "running"
	case ExecutionMeasured:
		return "measured"
	case ExecutionFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ExecutionOption configures an Execution.
type ExecutionOption func(*Execution)

// WithSeed fixes the sampling seed. Zero picks a random seed.
func WithSeed(seed uint64) ExecutionOption {
	return func(e *Execution) {
		e.seed = seed
	}
}

// WithWorkers splits the shots into that many independently seeded batches.
func WithWorkers(workers int) ExecutionOption {
	return func(e *Execution) {
		if workers > 0 {
			e.workers = workers
		}
	}
}

func WithStrategy(strategy Strategy) ExecutionOption {
	return func(e *Execution) {
		e.strategy = strategy
	}
}

/*
Execution owns one state vector for one pass over a circuit. The vector is
created from |0...0⟩ when Run starts, evolved by every gate in circuit order,
and sampled once per shot. An Execution runs once; running the same circuit
again needs a new Execution, which replays every gate from scratch.
*/
type Execution struct {
	mu       sync.Mutex
	circuit  *Circuit
	state    ExecutionState
	vector   *StateVector
	seed     uint64
	workers  int
	strategy Strategy
}

func NewExecution(circuit *Circuit, opts ...ExecutionOption) *Execution {
	e := &Execution{
		circuit:  circuit.Clone(),
		state:    ExecutionBuilt,
		workers:  1,
		strategy: StrategyIndex,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

func (e *Execution) State() ExecutionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// StateVector returns a copy of the pre-measurement state once the run has
// finished, or nil before that.
func (e *Execution) StateVector() *StateVector {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != ExecutionMeasured || e.vector == nil {
		return nil
	}
	return e.vector.Clone()
}

/*
Run simulates the circuit and samples shots outcomes from the final state.
The returned counts always sum to shots. On any error no counts are returned.
*/
func (e *Execution) Run(ctx context.Context, shots int) (Counts, error) {
	if shots < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidShots, shots)
	}

	if !e.circuit.Measured() {
		return nil, ErrNoMeasurement
	}

	e.mu.Lock()
	if e.state != ExecutionBuilt {
		state := e.state
		e.mu.Unlock()
		return nil, fmt.Errorf("%w (state %s)", ErrAlreadyMeasured, state)
	}
	e.state = ExecutionRunning
	e.mu.Unlock()

	start := time.Now()
	errnie.Info("execution started - ops %d, shots %d, strategy %s", e.circuit.Len(), shots, e.strategy)

	counts, vector, err := e.run(ctx, shots)

	e.mu.Lock()
	defer e.mu.Unlock()

	if err != nil {
		e.state = ExecutionFailed
		errnie.Info("execution failed - %v", err)
		return nil, err
	}

	e.vector = vector
	e.state = ExecutionMeasured
	errnie.Info("execution measured - counts %s in %v", counts, time.Since(start))

	return counts, nil
}

func (e *Execution) run(ctx context.Context, shots int) (Counts, *StateVector, error) {
	vector, err := NewStateVector(e.circuit.NumQubits())
	if err != nil {
		return nil, nil, err
	}

	for _, op := range e.circuit.ops {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		if err := Apply(vector, op, e.strategy); err != nil {
			return nil, nil, err
		}
	}

	counts, err := e.sample(ctx, vector, shots)
	if err != nil {
		return nil, nil, err
	}

	return counts, vector, nil
}

/*
sample draws shots basis states and maps each to its classical register value.
With more than one worker, shots are split into batches that each own an RNG
seeded from (seed, batch); the batch tallies are merged after all finish.
*/
func (e *Execution) sample(ctx context.Context, vector *StateVector, shots int) (Counts, error) {
	probs := vector.Probabilities()
	registers := e.registerTable(vector.Dim())

	seed := e.seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	workers := min(e.workers, shots)
	batches := make([]Counts, workers)

	g, gctx := errgroup.WithContext(ctx)
	for b := 0; b < workers; b++ {
		size := shots / workers
		if b < shots%workers {
			size++
		}

		g.Go(func() error {
			rng := rand.New(rand.NewPCG(seed, uint64(b)))
			tally := make(Counts)

			for shot := 0; shot < size; shot++ {
				if shot%1024 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				tally[registers[sampleIndex(probs, rng)]]++
			}

			batches[b] = tally
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	counts := make(Counts)
	for _, tally := range batches {
		counts.Merge(tally)
	}

	return counts, nil
}

// registerTable precomputes the classical register string for each basis state.
func (e *Execution) registerTable(dim int) []string {
	var bindings [][2]int
	for _, op := range e.circuit.ops {
		if op.Kind != OpMeasure {
			continue
		}
		for i, q := range op.Qubits {
			bindings = append(bindings, [2]int{q, op.Clbits[i]})
		}
	}

	n := e.circuit.NumClbits()
	table := make([]string, dim)
	for index := 0; index < dim; index++ {
		register := make([]byte, n)
		for i := range register {
			register[i] = '0'
		}
		for _, b := range bindings {
			if index>>b[0]&1 == 1 {
				register[n-1-b[1]] = '1'
			}
		}
		table[index] = string(register)
	}

	return table
}
