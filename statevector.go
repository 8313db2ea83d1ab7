package superdense

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand/v2"
	"strings"
)

const (
	// MaxQubits bounds the dense state vector at 2^10 amplitudes.
	MaxQubits = 10

	// NormTolerance is how far the squared norm may drift from 1 after a gate.
	NormTolerance = 1e-9
)

/*
StateVector holds the 2^N complex amplitudes of an N-qubit pure state.
Bit q of a basis-state index is the value of qubit q, so qubit 0 is the
least significant bit.

A StateVector is owned by a single execution and mutated in place by each
gate; it is never shared between goroutines.
*/
type StateVector struct {
	amplitudes []complex128
	numQubits  int
}

// NewStateVector returns the all-zero basis state |0...0⟩.
func NewStateVector(numQubits int) (*StateVector, error) {
	if numQubits < 1 || numQubits > MaxQubits {
		return nil, &IndexError{Register: "qubit count", Index: numQubits, Size: MaxQubits + 1}
	}

	amplitudes := make([]complex128, 1<<numQubits)
	amplitudes[0] = 1

	return &StateVector{
		amplitudes: amplitudes,
		numQubits:  numQubits,
	}, nil
}

// NumQubits is n for a vector of 2^n amplitudes.
func (sv *StateVector) NumQubits() int {
	return sv.numQubits
}

// Dim is the number of basis states.
func (sv *StateVector) Dim() int {
	return len(sv.amplitudes)
}

/*
Amplitude returns the amplitude of basis state index, where bit q of index
is the value of qubit q. It panics for an index outside [0, Dim()).
*/
func (sv *StateVector) Amplitude(index int) complex128 {
	return sv.amplitudes[index]
}

// Amplitudes returns a copy of the amplitude slice.
func (sv *StateVector) Amplitudes() []complex128 {
	out := make([]complex128, len(sv.amplitudes))
	copy(out, sv.amplitudes)
	return out
}

// Clone returns an independent copy.
func (sv *StateVector) Clone() *StateVector {
	return &StateVector{
		amplitudes: sv.Amplitudes(),
		numQubits:  sv.numQubits,
	}
}

// Norm is the sum of squared magnitudes of all amplitudes.
func (sv *StateVector) Norm() float64 {
	var total float64
	for _, amplitude := range sv.amplitudes {
		total += squaredMagnitude(amplitude)
	}
	return total
}

/*
CheckNorm verifies the normalization invariant. A violation means a gate was
applied incorrectly and is not recoverable by the caller.
*/
func (sv *StateVector) CheckNorm(tolerance float64) error {
	norm := sv.Norm()
	if math.IsNaN(norm) || math.Abs(norm-1) > tolerance {
		return fmt.Errorf("%w: norm %.12f", ErrNormalizationViolation, norm)
	}
	return nil
}

// Probabilities returns the Born-rule probability of each basis state.
func (sv *StateVector) Probabilities() []float64 {
	probs := make([]float64, len(sv.amplitudes))
	for i, amplitude := range sv.amplitudes {
		probs[i] = squaredMagnitude(amplitude)
	}
	return probs
}

/*
Sample draws one basis-state index with probability equal to the squared
magnitude of its amplitude. The draw is scaled by the probability total, so
rounding in the last few bits of the norm can never select a state whose
amplitude is exactly zero.
*/
func (sv *StateVector) Sample(rng *rand.Rand) int {
	return sampleIndex(sv.Probabilities(), rng)
}

func sampleIndex(probs []float64, rng *rand.Rand) int {
	var total float64
	last := 0
	for i, p := range probs {
		total += p
		if p > 0 {
			last = i
		}
	}

	r := rng.Float64() * total

	var cumulative float64
	for i, p := range probs {
		if p == 0 {
			continue
		}
		cumulative += p
		if r < cumulative {
			return i
		}
	}

	return last
}

// String renders the non-zero terms as (amplitude)|q_{n-1}...q_0⟩.
func (sv *StateVector) String() string {
	var terms []string
	for i, amplitude := range sv.amplitudes {
		if cmplx.Abs(amplitude) < 1e-12 {
			continue
		}
		terms = append(terms, fmt.Sprintf("%.4f|%0*b⟩", amplitude, sv.numQubits, i))
	}

	if len(terms) == 0 {
		return "0"
	}

	return strings.Join(terms, " + ")
}

func squaredMagnitude(c complex128) float64 {
	return real(c)*real(c) + imag(c)*imag(c)
}
