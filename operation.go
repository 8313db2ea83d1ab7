package superdense

import (
	"fmt"
	"strings"
)

type OpKind int

const (
	OpH OpKind = iota
	OpX
	OpZ
	OpCNOT
	OpMeasure
)

func (k OpKind) String() string {
	switch k {
	case OpH:
		return "h"
	case OpX:
		return "x"
	case OpZ:
		return "z"
	case OpCNOT:
		return "cx"
	case OpMeasure:
		return "measure"
	default:
		return fmt.Sprintf("op(%d)", int(k))
	}
}

// arity is the number of qubits a gate acts on; measurements take any number.
func (k OpKind) arity() int {
	switch k {
	case OpH, OpX, OpZ:
		return 1
	case OpCNOT:
		return 2
	default:
		return -1
	}
}

/*
Operation is one instruction of a circuit. For CNOT, Qubits is
[control, target]. For Measure, Qubits[i] is read into Clbits[i].

Operations are values: a circuit hands out copies and never mutates an
operation once appended.
*/
type Operation struct {
	Kind   OpKind
	Qubits []int
	Clbits []int
}

func (op Operation) clone() Operation {
	out := Operation{Kind: op.Kind}
	out.Qubits = append([]int(nil), op.Qubits...)
	if op.Clbits != nil {
		out.Clbits = append([]int(nil), op.Clbits...)
	}
	return out
}

// String renders the operation as OpenQASM 2.0. A multi-qubit measure
// becomes one statement per qubit.
func (op Operation) String() string {
	if op.Kind == OpMeasure {
		lines := make([]string, 0, len(op.Qubits))
		for i, q := range op.Qubits {
			c := -1
			if i < len(op.Clbits) {
				c = op.Clbits[i]
			}
			lines = append(lines, fmt.Sprintf("measure q[%d] -> c[%d];", q, c))
		}
		return strings.Join(lines, "\n")
	}

	args := make([]string, len(op.Qubits))
	for i, q := range op.Qubits {
		args[i] = fmt.Sprintf("q[%d]", q)
	}

	return fmt.Sprintf("%s %s;", op.Kind, strings.Join(args, ","))
}
