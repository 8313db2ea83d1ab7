package superdense

import (
	"fmt"
	"strings"
)

/*
Circuit is an ordered, append-only program over a fixed number of qubits and
classical bits. Every append is validated immediately, so a circuit that was
built without error can always be executed.

Measurement is terminal: once a measure has been appended, only further
measurements may follow.
*/
type Circuit struct {
	numQubits int
	numClbits int
	ops       []Operation
	bound     map[int]bool
}

/*
NewCircuit creates an empty circuit over numQubits qubits, all starting in
|0⟩, and numClbits classical bits.

Parameters:
  - numQubits: between 1 and MaxQubits
  - numClbits: zero or more classical bits for measurement results

Returns:
  - *Circuit: the empty circuit
  - error: an *IndexError wrapping ErrIndexOutOfRange for a bad size
*/
func NewCircuit(numQubits, numClbits int) (*Circuit, error) {
	if numQubits < 1 || numQubits > MaxQubits {
		return nil, &IndexError{Register: "qubit count", Index: numQubits, Size: MaxQubits + 1}
	}

	if numClbits < 0 {
		return nil, &IndexError{Register: "clbit count", Index: numClbits, Size: 0}
	}

	return &Circuit{
		numQubits: numQubits,
		numClbits: numClbits,
		ops:       make([]Operation, 0),
		bound:     make(map[int]bool),
	}, nil
}

func (c *Circuit) NumQubits() int { return c.numQubits }
func (c *Circuit) NumClbits() int { return c.numClbits }

// Len is the number of operations appended so far.
func (c *Circuit) Len() int { return len(c.ops) }

// Operations returns a copy of the program in append order.
func (c *Circuit) Operations() []Operation {
	out := make([]Operation, len(c.ops))
	for i, op := range c.ops {
		out[i] = op.clone()
	}
	return out
}

// Measured reports whether a measurement has been appended.
func (c *Circuit) Measured() bool {
	return len(c.bound) > 0
}

// Clone returns an independent circuit with the same program, letting callers
// treat circuits as values.
func (c *Circuit) Clone() *Circuit {
	out := &Circuit{
		numQubits: c.numQubits,
		numClbits: c.numClbits,
		ops:       c.Operations(),
		bound:     make(map[int]bool, len(c.bound)),
	}
	for k := range c.bound {
		out.bound[k] = true
	}
	return out
}

/*
H appends a Hadamard on qubit. Like every gate appender it validates
immediately and leaves the circuit unchanged on error.

Returns:
  - error: *IndexError for an unknown qubit, ErrGateAfterMeasure once measured
*/
func (c *Circuit) H(qubit int) error {
	return c.appendGate(OpH, qubit)
}

// X appends a Pauli-X (bit flip) on qubit.
func (c *Circuit) X(qubit int) error {
	return c.appendGate(OpX, qubit)
}

// Z appends a Pauli-Z (phase flip) on qubit.
func (c *Circuit) Z(qubit int) error {
	return c.appendGate(OpZ, qubit)
}

/*
CNOT appends a controlled-NOT flipping target wherever control is 1.

Parameters:
  - control: the control qubit
  - target: the target qubit, distinct from control

Returns:
  - error: *IndexError, ErrSameQubit or ErrGateAfterMeasure
*/
func (c *Circuit) CNOT(control, target int) error {
	if control == target {
		return fmt.Errorf("cx q[%d],q[%d]: %w", control, target, ErrSameQubit)
	}
	return c.appendGate(OpCNOT, control, target)
}

/*
Measure binds qubits[i] to classical bit clbits[i]. Each classical bit can be
bound once; the whole call is rejected if any binding is invalid.
*/
func (c *Circuit) Measure(qubits, clbits []int) error {
	if len(qubits) == 0 || len(qubits) != len(clbits) {
		return fmt.Errorf("%d qubits, %d clbits: %w", len(qubits), len(clbits), ErrMeasureArity)
	}

	seen := make(map[int]bool, len(clbits))
	for i := range qubits {
		if err := c.checkQubit(qubits[i]); err != nil {
			return err
		}

		if clbits[i] < 0 || clbits[i] >= c.numClbits {
			return &IndexError{Register: "clbit", Index: clbits[i], Size: c.numClbits}
		}

		if c.bound[clbits[i]] || seen[clbits[i]] {
			return fmt.Errorf("c[%d]: %w", clbits[i], ErrClassicalBitReused)
		}
		seen[clbits[i]] = true
	}

	for k := range seen {
		c.bound[k] = true
	}

	c.ops = append(c.ops, Operation{
		Kind:   OpMeasure,
		Qubits: append([]int(nil), qubits...),
		Clbits: append([]int(nil), clbits...),
	})

	return nil
}

func (c *Circuit) appendGate(kind OpKind, qubits ...int) error {
	for _, q := range qubits {
		if err := c.checkQubit(q); err != nil {
			return err
		}
	}

	op := Operation{Kind: kind, Qubits: qubits}
	if c.Measured() {
		return fmt.Errorf("%s: %w", op, ErrGateAfterMeasure)
	}

	c.ops = append(c.ops, op)
	return nil
}

func (c *Circuit) checkQubit(q int) error {
	if q < 0 || q >= c.numQubits {
		return &IndexError{Register: "qubit", Index: q, Size: c.numQubits}
	}
	return nil
}

// QASM exports the program as OpenQASM 2.0 source.
func (c *Circuit) QASM() string {
	var b strings.Builder

	b.WriteString("OPENQASM 2.0;\n")
	b.WriteString("include \"qelib1.inc\";\n")
	fmt.Fprintf(&b, "qreg q[%d];\n", c.numQubits)
	if c.numClbits > 0 {
		fmt.Fprintf(&b, "creg c[%d];\n", c.numClbits)
	}

	for _, op := range c.ops {
		b.WriteString(op.String())
		b.WriteString("\n")
	}

	return b.String()
}

func (c *Circuit) String() string {
	names := make([]string, len(c.ops))
	for i, op := range c.ops {
		names[i] = strings.ReplaceAll(op.String(), "\n", " ")
	}
	return fmt.Sprintf("circuit(q=%d, c=%d)[%s]", c.numQubits, c.numClbits, strings.Join(names, " "))
}
