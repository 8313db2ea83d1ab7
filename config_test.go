package superdense

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoadConfig(t *testing.T) {
	Convey("Given no config file and no environment", t, func() {
		config, err := LoadConfig("")

		Convey("Then the defaults apply", func() {
			So(err, ShouldBeNil)
			So(config, ShouldResemble, NewConfig())
			So(config.Shots, ShouldEqual, 1024)
		})
	})

	Convey("Given a yaml config file", t, func() {
		path := filepath.Join(t.TempDir(), "superdense.yaml")
		err := os.WriteFile(path, []byte(`
shots: 512
seed: 77
workers: 4
scheduling_timeout: 2s
breaker:
  reset_timeout: 1m
`), 0o600)
		So(err, ShouldBeNil)

		config, err := LoadConfig(path)

		Convey("Then file values override defaults", func() {
			So(err, ShouldBeNil)
			So(config.Shots, ShouldEqual, 512)
			So(config.Seed, ShouldEqual, uint64(77))
			So(config.Workers, ShouldEqual, 4)
			So(config.SchedulingTimeout, ShouldEqual, 2*time.Second)
			So(config.Breaker.ResetTimeout, ShouldEqual, time.Minute)
			So(config.Breaker.HalfOpenMax, ShouldEqual, 1)
		})
	})

	Convey("Given a missing config file", t, func() {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		So(err, ShouldNotBeNil)
	})
}

func TestLoadConfigEnvironment(t *testing.T) {
	Convey("Given environment overrides", t, func() {
		t.Setenv("SUPERDENSE_SHOTS", "2048")
		t.Setenv("SUPERDENSE_STRATEGY", "matrix")
		t.Setenv("SUPERDENSE_BREAKER_MAX_FAILURES", "9")

		config, err := LoadConfig("")

		So(err, ShouldBeNil)
		So(config.Shots, ShouldEqual, 2048)
		So(config.Strategy, ShouldEqual, "matrix")
		So(config.Breaker.MaxFailures, ShouldEqual, 9)
	})
}

func TestLoadConfigInvalid(t *testing.T) {
	Convey("Given invalid values", t, func() {
		t.Setenv("SUPERDENSE_SHOTS", "0")
		t.Setenv("SUPERDENSE_STRATEGY", "qudit")

		_, err := LoadConfig("")
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "shot count")
		So(err.Error(), ShouldContainSubstring, "qudit")
	})
}

func TestConfigExecutionOptions(t *testing.T) {
	Convey("Given a config", t, func() {
		config := NewConfig()
		config.Seed = 5
		config.Workers = 3
		config.Strategy = "matrix"

		exec := NewExecution(NewBellPair(), config.ExecutionOptions()...)

		So(exec.seed, ShouldEqual, uint64(5))
		So(exec.workers, ShouldEqual, 3)
		So(exec.strategy, ShouldEqual, StrategyMatrix)
	})
}

func TestConfigRegulators(t *testing.T) {
	Convey("Given the default config", t, func() {
		config := NewConfig()

		Convey("Only the breaker should regulate the pool", func() {
			breaker := NewCircuitBreaker(1, time.Minute, 1)
			regulators := config.Regulators(breaker)

			So(regulators, ShouldHaveLength, 1)
			So(regulators[0], ShouldEqual, breaker)
		})

		Convey("A positive burst should add a rate limiter", func() {
			config.RateLimit.Burst = 3
			regulators := config.Regulators()

			So(regulators, ShouldHaveLength, 1)
			So(regulators[0], ShouldHaveSameTypeAs, &RateLimiter{})
		})
	})
}

func TestConfigBackpressure(t *testing.T) {
	Convey("Given a queue bound in the environment", t, func() {
		t.Setenv("SUPERDENSE_BACKPRESSURE_MAX_QUEUE", "40")

		config, err := LoadConfig("")
		So(err, ShouldBeNil)
		So(config.Backpressure.MaxQueue, ShouldEqual, 40)
		So(config.Backpressure.TargetLatency, ShouldEqual, time.Second)

		regulators := config.Regulators()
		So(regulators, ShouldHaveLength, 1)
		So(regulators[0], ShouldHaveSameTypeAs, &BackPressureRegulator{})
	})
}
