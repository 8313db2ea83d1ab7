package superdense

import (
	"fmt"
	"math"
)

// Matrix2 is a single-qubit operator, row-major.
type Matrix2 [2][2]complex128

var invSqrt2 = complex(1/math.Sqrt2, 0)

var (
	Identity2 = Matrix2{{1, 0}, {0, 1}}

	// Hadamard = 1/√2 * [1  1]
	//                   [1 -1]
	Hadamard = Matrix2{{invSqrt2, invSqrt2}, {invSqrt2, -invSqrt2}}

	PauliX = Matrix2{{0, 1}, {1, 0}}
	PauliZ = Matrix2{{1, 0}, {0, -1}}
)

/*
Strategy selects how gates are applied to a state vector. Both strategies
produce the same amplitudes to within floating-point tolerance.
*/
type Strategy string

const (
	// StrategyIndex walks the pairs of basis states that differ only in the
	// target bit and applies the 2x2 transform directly.
	StrategyIndex Strategy = "index"

	// StrategyMatrix builds the full 2^N x 2^N operator with Kronecker
	// products and left-multiplies the amplitude vector.
	StrategyMatrix Strategy = "matrix"
)

func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(name) {
	case StrategyIndex, "":
		return StrategyIndex, nil
	case StrategyMatrix:
		return StrategyMatrix, nil
	default:
		return "", fmt.Errorf("unknown gate strategy %q", name)
	}
}

/*
Matrix is a dense square operator over the full 2^N dimensional space.
*/
type Matrix struct {
	dim  int
	data []complex128
}

func NewMatrix(dim int) Matrix {
	return Matrix{dim: dim, data: make([]complex128, dim*dim)}
}

func (m Matrix) Dim() int {
	return m.dim
}

func (m Matrix) At(row, col int) complex128 {
	return m.data[row*m.dim+col]
}

func (m Matrix) set(row, col int, value complex128) {
	m.data[row*m.dim+col] = value
}

func matrixFrom2(m Matrix2) Matrix {
	out := NewMatrix(2)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			out.set(i, j, m[i][j])
		}
	}
	return out
}

// Kron returns the Kronecker product a ⊗ b.
func Kron(a, b Matrix) Matrix {
	out := NewMatrix(a.dim * b.dim)
	for i := 0; i < a.dim; i++ {
		for j := 0; j < a.dim; j++ {
			aij := a.At(i, j)
			if aij == 0 {
				continue
			}
			for k := 0; k < b.dim; k++ {
				for l := 0; l < b.dim; l++ {
					out.set(i*b.dim+k, j*b.dim+l, aij*b.At(k, l))
				}
			}
		}
	}
	return out
}

// MulVec returns m·v.
func (m Matrix) MulVec(v []complex128) []complex128 {
	out := make([]complex128, m.dim)
	for row := 0; row < m.dim; row++ {
		var sum complex128
		for col := 0; col < m.dim; col++ {
			sum += m.At(row, col) * v[col]
		}
		out[row] = sum
	}
	return out
}

/*
Expand places a single-qubit operator at position qubit of an n-qubit
register, with identity on every other qubit. Qubit n-1 is the leftmost
factor of the tensor product, matching the little-endian basis index.
*/
func Expand(m Matrix2, qubit, numQubits int) Matrix {
	op := matrixFrom2(Identity2)
	if numQubits-1 == qubit {
		op = matrixFrom2(m)
	}

	for q := numQubits - 2; q >= 0; q-- {
		factor := matrixFrom2(Identity2)
		if q == qubit {
			factor = matrixFrom2(m)
		}
		op = Kron(op, factor)
	}

	return op
}

// CNOTMatrix is the permutation matrix flipping target wherever control is 1.
func CNOTMatrix(control, target, numQubits int) Matrix {
	dim := 1 << numQubits
	out := NewMatrix(dim)
	controlBit, targetBit := 1<<control, 1<<target

	for col := 0; col < dim; col++ {
		row := col
		if col&controlBit != 0 {
			row = col ^ targetBit
		}
		out.set(row, col, 1)
	}

	return out
}

// ApplySingle applies m to qubit of the state vector in place.
func ApplySingle(sv *StateVector, m Matrix2, qubit int, strategy Strategy) {
	if strategy == StrategyMatrix {
		sv.amplitudes = Expand(m, qubit, sv.numQubits).MulVec(sv.amplitudes)
		return
	}

	bit := 1 << qubit
	for i := range sv.amplitudes {
		if i&bit != 0 {
			continue
		}
		j := i | bit
		a0, a1 := sv.amplitudes[i], sv.amplitudes[j]
		sv.amplitudes[i] = m[0][0]*a0 + m[0][1]*a1
		sv.amplitudes[j] = m[1][0]*a0 + m[1][1]*a1
	}
}

// ApplyCNOT swaps the amplitude pairs differing in target wherever control is 1.
func ApplyCNOT(sv *StateVector, control, target int, strategy Strategy) {
	if strategy == StrategyMatrix {
		sv.amplitudes = CNOTMatrix(control, target, sv.numQubits).MulVec(sv.amplitudes)
		return
	}

	controlBit, targetBit := 1<<control, 1<<target
	for i := range sv.amplitudes {
		if i&controlBit != 0 && i&targetBit == 0 {
			j := i | targetBit
			sv.amplitudes[i], sv.amplitudes[j] = sv.amplitudes[j], sv.amplitudes[i]
		}
	}
}

/*
Apply runs a single circuit operation against the state vector and then
enforces the normalization invariant. Measurements do not touch the vector
here; sampling happens once the whole program has run.
*/
func Apply(sv *StateVector, op Operation, strategy Strategy) error {
	if n := op.Kind.arity(); n > 0 && len(op.Qubits) != n {
		return fmt.Errorf("%v expects %d qubits, got %d", op.Kind, n, len(op.Qubits))
	}

	for _, q := range op.Qubits {
		if q < 0 || q >= sv.numQubits {
			return &IndexError{Register: "qubit", Index: q, Size: sv.numQubits}
		}
	}

	switch op.Kind {
	case OpH:
		ApplySingle(sv, Hadamard, op.Qubits[0], strategy)
	case OpX:
		ApplySingle(sv, PauliX, op.Qubits[0], strategy)
	case OpZ:
		ApplySingle(sv, PauliZ, op.Qubits[0], strategy)
	case OpCNOT:
		ApplyCNOT(sv, op.Qubits[0], op.Qubits[1], strategy)
	case OpMeasure:
		return nil
	default:
		return fmt.Errorf("unsupported operation %v", op.Kind)
	}

	if err := sv.CheckNorm(NormTolerance); err != nil {
		return fmt.Errorf("after %s: %w", op, err)
	}

	return nil
}
