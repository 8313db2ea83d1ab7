package superdense

import (
	"errors"
	"math/rand/v2"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNewStateVector(t *testing.T) {
	Convey("Given a qubit count", t, func() {
		Convey("When it is within range", func() {
			sv, err := NewStateVector(2)

			Convey("Then the vector starts in |00⟩", func() {
				So(err, ShouldBeNil)
				So(sv.Dim(), ShouldEqual, 4)
				So(sv.Amplitude(0), ShouldEqual, complex(1, 0))
				So(sv.Norm(), ShouldEqual, 1.0)
				So(sv.String(), ShouldEqual, "(1.0000+0.0000i)|00⟩")
			})
		})

		Convey("When it is zero or too large", func() {
			for _, n := range []int{0, -1, MaxQubits + 1} {
				_, err := NewStateVector(n)
				So(errors.Is(err, ErrIndexOutOfRange), ShouldBeTrue)
			}
		})
	})
}

func TestStateVectorNorm(t *testing.T) {
	Convey("Given a state vector that drifted off the unit sphere", t, func() {
		sv, _ := NewStateVector(1)
		sv.amplitudes[0] = complex(1.1, 0)

		Convey("Then CheckNorm reports a normalization violation", func() {
			err := sv.CheckNorm(NormTolerance)
			So(errors.Is(err, ErrNormalizationViolation), ShouldBeTrue)
		})
	})

	Convey("Given a state vector within tolerance", t, func() {
		sv, _ := NewStateVector(1)
		sv.amplitudes[0] = complex(1+1e-12, 0)

		So(sv.CheckNorm(NormTolerance), ShouldBeNil)
	})
}

func TestStateVectorSample(t *testing.T) {
	Convey("Given a basis state", t, func() {
		sv, _ := NewStateVector(2)
		sv.amplitudes[0], sv.amplitudes[2] = 0, 1
		rng := rand.New(rand.NewPCG(1, 2))

		Convey("Then every sample returns that basis state", func() {
			for i := 0; i < 500; i++ {
				So(sv.Sample(rng), ShouldEqual, 2)
			}
		})
	})

	Convey("Given an equal superposition", t, func() {
		sv, _ := NewStateVector(1)
		ApplySingle(sv, Hadamard, 0, StrategyIndex)
		rng := rand.New(rand.NewPCG(7, 7))

		Convey("Then both outcomes are drawn roughly equally", func() {
			seen := [2]int{}
			for i := 0; i < 10000; i++ {
				seen[sv.Sample(rng)]++
			}
			So(seen[0], ShouldBeBetween, 4500, 5500)
			So(seen[1], ShouldBeBetween, 4500, 5500)
		})
	})

	Convey("Given probabilities that sum to slightly less than one", t, func() {
		probs := []float64{0, 0.4999999999, 0.4999999999, 0}
		rng := rand.New(rand.NewPCG(3, 4))

		Convey("Then zero-probability states are never drawn", func() {
			for i := 0; i < 1000; i++ {
				idx := sampleIndex(probs, rng)
				So(idx == 1 || idx == 2, ShouldBeTrue)
			}
		})
	})
}

func TestStateVectorClone(t *testing.T) {
	Convey("Given a cloned state vector", t, func() {
		sv, _ := NewStateVector(2)
		clone := sv.Clone()

		Convey("When the original is modified", func() {
			ApplySingle(sv, PauliX, 0, StrategyIndex)

			Convey("Then the clone is unaffected", func() {
				So(clone.Amplitude(0), ShouldEqual, complex(1, 0))
				So(sv.Amplitude(1), ShouldEqual, complex(1, 0))
			})
		})
	})
}
