package superdense

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNewCircuit(t *testing.T) {
	Convey("Given circuit dimensions", t, func() {
		Convey("When they are valid", func() {
			c, err := NewCircuit(2, 2)

			So(err, ShouldBeNil)
			So(c.NumQubits(), ShouldEqual, 2)
			So(c.NumClbits(), ShouldEqual, 2)
			So(c.Len(), ShouldEqual, 0)
		})

		Convey("When the qubit count is out of range", func() {
			_, err := NewCircuit(0, 2)
			So(errors.Is(err, ErrIndexOutOfRange), ShouldBeTrue)
		})

		Convey("When the classical bit count is negative", func() {
			_, err := NewCircuit(2, -1)
			So(errors.Is(err, ErrIndexOutOfRange), ShouldBeTrue)
		})
	})
}

func TestCircuitAppend(t *testing.T) {
	Convey("Given an empty two-qubit circuit", t, func() {
		c, _ := NewCircuit(2, 2)

		Convey("When appending gates in range", func() {
			So(c.H(1), ShouldBeNil)
			So(c.CNOT(1, 0), ShouldBeNil)
			So(c.Z(1), ShouldBeNil)
			So(c.X(0), ShouldBeNil)

			Convey("Then they are kept in order", func() {
				ops := c.Operations()
				So(len(ops), ShouldEqual, 4)
				So(ops[0].Kind, ShouldEqual, OpH)
				So(ops[1].Kind, ShouldEqual, OpCNOT)
				So(ops[1].Qubits, ShouldResemble, []int{1, 0})
				So(ops[2].Kind, ShouldEqual, OpZ)
				So(ops[3].Kind, ShouldEqual, OpX)
			})
		})

		Convey("When a gate references a qubit outside the register", func() {
			err := c.X(2)

			Convey("Then it fails at append time with an IndexError", func() {
				var indexErr *IndexError
				So(errors.As(err, &indexErr), ShouldBeTrue)
				So(indexErr.Register, ShouldEqual, "qubit")
				So(indexErr.Index, ShouldEqual, 2)
				So(errors.Is(err, ErrIndexOutOfRange), ShouldBeTrue)
				So(c.Len(), ShouldEqual, 0)
			})
		})

		Convey("When CNOT uses the same qubit twice", func() {
			So(errors.Is(c.CNOT(1, 1), ErrSameQubit), ShouldBeTrue)
			So(c.Len(), ShouldEqual, 0)
		})

		Convey("When CNOT has a negative control", func() {
			So(errors.Is(c.CNOT(-1, 0), ErrIndexOutOfRange), ShouldBeTrue)
		})
	})
}

func TestCircuitMeasure(t *testing.T) {
	Convey("Given a two-qubit circuit", t, func() {
		c, _ := NewCircuit(2, 2)

		Convey("When measuring into a classical bit that does not exist", func() {
			err := c.Measure([]int{0}, []int{2})

			So(errors.Is(err, ErrIndexOutOfRange), ShouldBeTrue)
			So(c.Measured(), ShouldBeFalse)
		})

		Convey("When the qubit and classical lists differ in length", func() {
			So(errors.Is(c.Measure([]int{0, 1}, []int{0}), ErrMeasureArity), ShouldBeTrue)
			So(errors.Is(c.Measure(nil, nil), ErrMeasureArity), ShouldBeTrue)
		})

		Convey("When both qubits are measured", func() {
			So(c.Measure([]int{0, 1}, []int{0, 1}), ShouldBeNil)

			Convey("Then the circuit is measured", func() {
				So(c.Measured(), ShouldBeTrue)
			})

			Convey("Then further gates are rejected", func() {
				So(errors.Is(c.H(0), ErrGateAfterMeasure), ShouldBeTrue)
				So(c.Len(), ShouldEqual, 1)
			})

			Convey("Then a classical bit cannot be bound twice", func() {
				So(errors.Is(c.Measure([]int{0}, []int{1}), ErrClassicalBitReused), ShouldBeTrue)
			})
		})

		Convey("When one call binds the same classical bit twice", func() {
			So(errors.Is(c.Measure([]int{0, 1}, []int{0, 0}), ErrClassicalBitReused), ShouldBeTrue)
			So(c.Len(), ShouldEqual, 0)
		})
	})
}

func TestCircuitClone(t *testing.T) {
	Convey("Given a circuit and its clone", t, func() {
		c := NewBellPair()
		clone := c.Clone()

		Convey("When the clone is extended", func() {
			So(clone.X(AliceQubit), ShouldBeNil)
			So(clone.Measure([]int{0}, []int{0}), ShouldBeNil)

			Convey("Then the original is unchanged", func() {
				So(c.Len(), ShouldEqual, 2)
				So(c.Measured(), ShouldBeFalse)
				So(clone.Len(), ShouldEqual, 4)
			})
		})

		Convey("When returned operations are modified", func() {
			ops := c.Operations()
			ops[1].Qubits[0] = 0

			Convey("Then the circuit keeps its own copy", func() {
				So(c.Operations()[1].Qubits, ShouldResemble, []int{1, 0})
			})
		})
	})
}

func TestCircuitQASM(t *testing.T) {
	Convey("Given the decoded circuit for message 11", t, func() {
		c := NewBellPair()
		So(Encode(c, "11"), ShouldBeNil)
		So(AppendDecoder(c), ShouldBeNil)

		Convey("Then it exports as OpenQASM 2.0", func() {
			So(c.QASM(), ShouldEqual, `OPENQASM 2.0;
include "qelib1.inc";
qreg q[2];
creg c[2];
h q[1];
cx q[1],q[0];
z q[1];
x q[1];
cx q[1],q[0];
h q[1];
measure q[0] -> c[0];
measure q[1] -> c[1];
`)
		})
	})
}
