package superdense

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

var errRemoteDown = errors.New("remote backend unreachable")

// flakyBackend fails its first failures runs, then delegates to the simulator.
type flakyBackend struct {
	failures int32
	calls    atomic.Int32
}

func (f *flakyBackend) Run(ctx context.Context, circuit *Circuit, shots int) (Counts, error) {
	if f.calls.Add(1) <= f.failures {
		return nil, errRemoteDown
	}
	return NewSimulator(nil).Run(ctx, circuit, shots)
}

func TestSimulator(t *testing.T) {
	Convey("Given a shared simulator", t, func() {
		sim := NewSimulator(nil)
		c := bellPairMeasured()

		Convey("When the same circuit runs twice", func() {
			first, err1 := sim.Run(context.Background(), c, 256)
			second, err2 := sim.Run(context.Background(), c, 256)

			Convey("Then each run is an independent execution", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(first.Total(), ShouldEqual, 256)
				So(second.Total(), ShouldEqual, 256)
			})

			Convey("Then only the correlated outcomes of the Bell pair appear", func() {
				for _, k := range first.Keys() {
					So(k, ShouldBeIn, []string{"00", "11"})
				}
			})
		})
	})
}

func TestBreakerBackend(t *testing.T) {
	Convey("Given a breaker in front of a backend that fails twice", t, func() {
		remote := &flakyBackend{failures: 2}
		backend := NewBreakerBackend(remote, BreakerConfig{
			MaxFailures:  2,
			ResetTimeout: 50 * time.Millisecond,
			HalfOpenMax:  1,
		})

		Convey("When two runs fail", func() {
			for i := 0; i < 2; i++ {
				_, err := Transmit(context.Background(), backend, "10", 16)
				So(errors.Is(err, errRemoteDown), ShouldBeTrue)
			}

			Convey("Then the breaker opens and runs fail fast", func() {
				So(backend.Breaker().State(), ShouldEqual, BreakerOpen)

				_, err := Transmit(context.Background(), backend, "10", 16)
				So(errors.Is(err, ErrBackendUnavailable), ShouldBeTrue)
				So(remote.calls.Load(), ShouldEqual, int32(2))
			})

			Convey("Then after the reset timeout a successful probe closes it", func() {
				time.Sleep(80 * time.Millisecond)

				counts, err := Transmit(context.Background(), backend, "10", 16)
				So(err, ShouldBeNil)
				So(counts, ShouldResemble, Counts{"10": 16})
				So(backend.Breaker().State(), ShouldEqual, BreakerClosed)
			})
		})
	})

	Convey("Given a breaker in front of a healthy backend", t, func() {
		backend := NewBreakerBackend(NewSimulator(nil), BreakerConfig{MaxFailures: 1, HalfOpenMax: 1})

		Convey("When a circuit error is returned", func() {
			_, err := backend.Run(context.Background(), NewBellPair(), 10)

			Convey("Then it is not held against the backend", func() {
				So(errors.Is(err, ErrNoMeasurement), ShouldBeTrue)
				So(backend.Breaker().State(), ShouldEqual, BreakerClosed)
			})
		})
	})
}

func TestNewBackend(t *testing.T) {
	Convey("Given the default config", t, func() {
		backend, regulators := NewBackend(nil)

		So(backend, ShouldHaveSameTypeAs, &BreakerBackend{})
		So(regulators, ShouldHaveLength, 1)
		So(regulators[0], ShouldEqual, backend.(*BreakerBackend).Breaker())
	})

	Convey("Given three simulators and a rate limit", t, func() {
		config := NewConfig()
		config.Simulators = 3
		config.RateLimit.Burst = 10

		backend, regulators := NewBackend(config)

		So(backend, ShouldHaveSameTypeAs, &LoadBalancer{})
		So(backend.(*LoadBalancer).backends, ShouldHaveLength, 3)
		So(regulators, ShouldHaveLength, 2)
		So(regulators[1], ShouldHaveSameTypeAs, &RateLimiter{})

		counts, err := Transmit(context.Background(), backend, "11", 64)
		So(err, ShouldBeNil)
		So(counts, ShouldResemble, Counts{"11": 64})
	})
}
