package superdense

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNewBackPressureRegulator(t *testing.T) {
	Convey("Given a new back pressure regulator", t, func() {
		regulator := NewBackPressureRegulator(100, time.Second)

		So(regulator.maxQueueSize, ShouldEqual, 100)
		So(regulator.targetLatency, ShouldEqual, time.Second)
		So(regulator.Pressure(), ShouldEqual, 0.0)
		So(regulator.Limit(), ShouldBeFalse)
	})
}

func TestBackPressureObserve(t *testing.T) {
	Convey("Given a back pressure regulator", t, func() {
		regulator := NewBackPressureRegulator(100, time.Second)

		Convey("A long queue of slow jobs should saturate the pressure", func() {
			metrics := NewMetrics()
			metrics.JobQueueSize = 80
			metrics.AverageJobLatency = 2 * time.Second
			regulator.Observe(metrics)

			// 0.8*0.6 + 2.0*0.4 caps at 1.
			So(regulator.Pressure(), ShouldEqual, 1.0)
			So(regulator.Limit(), ShouldBeTrue)
		})

		Convey("A short queue of fast jobs should stay under the limit", func() {
			metrics := NewMetrics()
			metrics.JobQueueSize = 20
			metrics.AverageJobLatency = time.Second / 2
			regulator.Observe(metrics)

			So(regulator.Pressure(), ShouldAlmostEqual, 0.32, 1e-9)
			So(regulator.Limit(), ShouldBeFalse)
		})
	})
}

func TestBackPressureRenormalize(t *testing.T) {
	Convey("Given a regulator under full pressure", t, func() {
		regulator := NewBackPressureRegulator(100, time.Second)
		regulator.currentPressure = 1.0

		Convey("Recovered metrics should bleed pressure off", func() {
			metrics := NewMetrics()
			metrics.JobQueueSize = 10
			metrics.AverageJobLatency = time.Millisecond
			regulator.metrics = metrics

			regulator.Renormalize()
			regulator.Renormalize()

			So(regulator.Pressure(), ShouldAlmostEqual, 0.8, 1e-9)
		})

		Convey("Without metrics nothing should change", func() {
			regulator.Renormalize()
			So(regulator.Pressure(), ShouldEqual, 1.0)
		})
	})
}

func TestBackPressurePool(t *testing.T) {
	Convey("Given a pool behind a saturated back pressure regulator", t, func() {
		regulator := NewBackPressureRegulator(1, time.Millisecond)
		regulator.currentPressure = 1.0

		pool := NewPool(context.Background(), NewSimulator(nil), NewConfig(), regulator)

		Reset(func() {
			pool.Close()
		})

		result := awaitResult(t, pool.Schedule("01"))
		So(errors.Is(result.Error, ErrPoolLimited), ShouldBeTrue)
	})
}
