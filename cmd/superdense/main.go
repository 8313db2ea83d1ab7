// Command superdense sends two-bit messages over one qubit each using a
// shared Bell pair, and prints the counts Bob measures.
//
//	superdense --shots 2048 00 01 10 11
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"github.com/theapemachine/errnie"
	"github.com/theapemachine/superdense"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "superdense:", err)
		os.Exit(1)
	}
}

// newFlagSet declares every command-line flag; settings flags map onto config keys in loadConfig.
func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("superdense", pflag.ContinueOnError)
	flags.String("config", "", "config file (yaml, toml or json)")
	flags.Bool("qasm", false, "print the OpenQASM program for each message")
	flags.Int("shots", superdense.DefaultShots, "measurement shots per message")
	flags.Uint64("seed", 0, "sampling seed, 0 for random")
	flags.Int("workers", 1, "parallel sampling batches per execution")
	flags.String("strategy", string(superdense.StrategyIndex), "gate application strategy: index or matrix")
	flags.Int("pool-workers", 4, "messages transmitted concurrently")
	flags.Int("simulators", 1, "simulators to balance runs over")
	flags.Int("rate-limit", 0, "transmissions accepted in a burst before throttling, 0 for unlimited")
	flags.Int("retries", 1, "attempts per message against a failing backend")
	return flags
}

func run(args []string) error {
	flags := newFlagSet()
	if err := flags.Parse(args); err != nil {
		return err
	}

	configPath, _ := flags.GetString("config")
	showQASM, _ := flags.GetBool("qasm")
	retries, _ := flags.GetInt("retries")

	config, err := loadConfig(configPath, flags)
	if err != nil {
		return err
	}

	messages := flags.Args()
	if len(messages) == 0 {
		messages = []string{"00", "01", "10", "11"}
	}

	if showQASM {
		for _, msg := range messages {
			c := superdense.NewBellPair()
			if err := superdense.Encode(c, msg); err != nil {
				return err
			}
			if err := superdense.AppendDecoder(c); err != nil {
				return err
			}
			fmt.Printf("// message %s\n%s\n", msg, c.QASM())
		}
	}

	backend, regulators := superdense.NewBackend(config)
	pool := superdense.NewPool(context.Background(), backend, config, regulators...)
	defer pool.Close()

	results := make([]chan superdense.Result, len(messages))
	for i, msg := range messages {
		results[i] = pool.Schedule(msg,
			superdense.WithShots(config.Shots),
			superdense.WithRetry(retries, &superdense.ExponentialBackoff{Initial: 100 * time.Millisecond}),
		)
	}

	var errs []error
	for i, ch := range results {
		result := <-ch
		if result.Error != nil {
			errs = append(errs, fmt.Errorf("message %q: %w", messages[i], result.Error))
			continue
		}

		received, err := superdense.Received(result.Counts)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		bell, _ := superdense.BellState(result.Message)
		fmt.Printf("sent %s (%s) -> received %s  counts %s\n", result.Message, bell, received, result.Counts)
	}

	errnie.Info("metrics %v", pool.Metrics().Export())
	return errors.Join(errs...)
}

func loadConfig(path string, flags *pflag.FlagSet) (*superdense.Config, error) {
	v := superdense.NewViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	for flag, key := range map[string]string{
		"shots":        "shots",
		"seed":         "seed",
		"workers":      "workers",
		"strategy":     "strategy",
		"pool-workers": "pool_workers",
		"simulators":   "simulators",
		"rate-limit":   "rate_limit.burst",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return nil, err
		}
	}

	return superdense.ConfigFrom(v)
}
