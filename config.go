package superdense

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const DefaultShots = 1024

// BreakerConfig sizes the circuit breaker guarding a backend.
type BreakerConfig struct {
	MaxFailures  int           `mapstructure:"max_failures"`
	ResetTimeout time.Duration `mapstructure:"reset_timeout"`
	HalfOpenMax  int           `mapstructure:"half_open_max"`
}

// RateLimitConfig caps accepted transmissions; a zero Burst disables it.
type RateLimitConfig struct {
	Burst    int           `mapstructure:"burst"`
	Interval time.Duration `mapstructure:"interval"`
}

// BackpressureConfig bounds the job queue; a zero MaxQueue disables it.
type BackpressureConfig struct {
	MaxQueue      int           `mapstructure:"max_queue"`
	TargetLatency time.Duration `mapstructure:"target_latency"`
}

// Config holds every tunable of simulation, pool and backend regulation.
type Config struct {
	Shots             int                `mapstructure:"shots"`
	Seed              uint64             `mapstructure:"seed"`
	Workers           int                `mapstructure:"workers"`
	Strategy          string             `mapstructure:"strategy"`
	PoolWorkers       int                `mapstructure:"pool_workers"`
	SchedulingTimeout time.Duration      `mapstructure:"scheduling_timeout"`
	Simulators        int                `mapstructure:"simulators"`
	BackendCapacity   int                `mapstructure:"backend_capacity"`
	Breaker           BreakerConfig      `mapstructure:"breaker"`
	RateLimit         RateLimitConfig    `mapstructure:"rate_limit"`
	Backpressure      BackpressureConfig `mapstructure:"backpressure"`
}

// NewConfig returns the defaults every other source overrides.
func NewConfig() *Config {
	return &Config{
		Shots:             DefaultShots,
		Workers:           1,
		Strategy:          string(StrategyIndex),
		PoolWorkers:       4,
		SchedulingTimeout: 10 * time.Second,
		Simulators:        1,
		BackendCapacity:   4,
		Breaker: BreakerConfig{
			MaxFailures:  5,
			ResetTimeout: 30 * time.Second,
			HalfOpenMax:  1,
		},
		RateLimit: RateLimitConfig{
			Interval: time.Second,
		},
		Backpressure: BackpressureConfig{
			TargetLatency: time.Second,
		},
	}
}

/*
NewViper returns a viper instance carrying the defaults of NewConfig and
reading SUPERDENSE_* environment overrides, e.g. SUPERDENSE_SHOTS or
SUPERDENSE_BREAKER_MAX_FAILURES.
*/
func NewViper() *viper.Viper {
	defaults := NewConfig()

	v := viper.New()
	v.SetDefault("shots", defaults.Shots)
	v.SetDefault("seed", defaults.Seed)
	v.SetDefault("workers", defaults.Workers)
	v.SetDefault("strategy", defaults.Strategy)
	v.SetDefault("pool_workers", defaults.PoolWorkers)
	v.SetDefault("scheduling_timeout", defaults.SchedulingTimeout)
	v.SetDefault("simulators", defaults.Simulators)
	v.SetDefault("backend_capacity", defaults.BackendCapacity)
	v.SetDefault("breaker.max_failures", defaults.Breaker.MaxFailures)
	v.SetDefault("breaker.reset_timeout", defaults.Breaker.ResetTimeout)
	v.SetDefault("breaker.half_open_max", defaults.Breaker.HalfOpenMax)
	v.SetDefault("rate_limit.burst", defaults.RateLimit.Burst)
	v.SetDefault("rate_limit.interval", defaults.RateLimit.Interval)
	v.SetDefault("backpressure.max_queue", defaults.Backpressure.MaxQueue)
	v.SetDefault("backpressure.target_latency", defaults.Backpressure.TargetLatency)

	v.SetEnvPrefix("superdense")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

/*
LoadConfig builds a Config from defaults, an optional config file (any format
viper understands, picked by extension) and the environment.
*/
func LoadConfig(path string) (*Config, error) {
	v := NewViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	return ConfigFrom(v)
}

// ConfigFrom decodes and validates whatever v currently holds.
func ConfigFrom(v *viper.Viper) (*Config, error) {
	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

/*
Validate checks every setting and reports all problems at once.

Returns:
  - error: nil, or every violation joined with errors.Join
*/
func (c *Config) Validate() error {
	var errs []error

	if c.Shots < 1 {
		errs = append(errs, fmt.Errorf("shots: %w", ErrInvalidShots))
	}

	if c.Workers < 1 {
		errs = append(errs, errors.New("workers must be at least 1"))
	}

	if c.PoolWorkers < 1 {
		errs = append(errs, errors.New("pool_workers must be at least 1"))
	}

	if c.Simulators < 1 || c.BackendCapacity < 1 {
		errs = append(errs, errors.New("simulators and backend_capacity must be at least 1"))
	}

	if _, err := ParseStrategy(c.Strategy); err != nil {
		errs = append(errs, err)
	}

	if c.Breaker.MaxFailures < 1 || c.Breaker.HalfOpenMax < 1 {
		errs = append(errs, errors.New("breaker thresholds must be at least 1"))
	}

	if c.RateLimit.Burst < 0 || c.Backpressure.MaxQueue < 0 {
		errs = append(errs, errors.New("rate_limit.burst and backpressure.max_queue cannot be negative"))
	}

	return errors.Join(errs...)
}

// Regulators appends the regulators the config asks for to base.
func (c *Config) Regulators(base ...Regulator) []Regulator {
	regulators := append([]Regulator{}, base...)

	if c.RateLimit.Burst > 0 {
		regulators = append(regulators, NewRateLimiter(c.RateLimit.Burst, c.RateLimit.Interval))
	}

	if c.Backpressure.MaxQueue > 0 {
		regulators = append(regulators, NewBackPressureRegulator(c.Backpressure.MaxQueue, c.Backpressure.TargetLatency))
	}

	return regulators
}

// ExecutionOptions translates the sampling settings into execution options.
func (c *Config) ExecutionOptions() []ExecutionOption {
	strategy, err := ParseStrategy(c.Strategy)
	if err != nil {
		strategy = StrategyIndex
	}

	return []ExecutionOption{
		WithSeed(c.Seed),
		WithWorkers(c.Workers),
		WithStrategy(strategy),
	}
}
