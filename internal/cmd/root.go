// Package cmd implements the flowbridge command line.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/a2y-d5l/flowbridge/internal/config"
)

// Execute runs the root command until it returns or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}

// NewRootCommand builds the command tree. Every call returns an independent
// tree with its own viper instance.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:   "flowbridge",
		Short: "Bridge a callback event source into a cancellable stream",
		Long: `flowbridge registers a callback with an event source, turns the values it
delivers into a stream, zips that stream with the synthetic sequence 0..N and
prints the pairs. Ticks come from stdin lines, a timer, or a key press.`,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return config.Init(v, cfgFile)
		},
	}

	d := config.Default()
	pf := root.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "config file (default is ./flowbridge.yaml or $HOME/.config/flowbridge/flowbridge.yaml)")
	pf.Int("seed", d.Source.Seed, "initial counter of the event source")
	pf.Int("threshold", d.Source.Threshold, "counter value after which the source completes")
	pf.Int("count", d.Driver.Count, "last element N of the synthetic sequence 0..N")
	pf.String("buffer", d.Bridge.Buffer, "bridge buffer policy (unbounded, conflate, bounded)")
	pf.Int("buffer-size", d.Bridge.BufferSize, "capacity of a bounded buffer")
	pf.String("delivery", d.Bridge.Delivery, "undeliverable value policy (swallow, fail-fast)")
	pf.Duration("send-timeout", d.Bridge.SendTimeout, "how long a tick may wait on a full bounded buffer (0 waits until teardown)")
	pf.Duration("interval", d.Driver.Interval, "tick the source periodically (0 ticks once per input line or key press)")
	pf.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	pf.String("log-file", d.Log.File, "write logs to this file instead of stderr")
	pf.String("metrics-addr", d.Metrics.Addr, "serve Prometheus metrics on this address (empty disables)")

	for key, flag := range map[string]string{
		"source.seed":         "seed",
		"source.threshold":    "threshold",
		"driver.count":        "count",
		"driver.interval":     "interval",
		"bridge.buffer":       "buffer",
		"bridge.buffer_size":  "buffer-size",
		"bridge.delivery":     "delivery",
		"bridge.send_timeout": "send-timeout",
		"log.level":           "log-level",
		"log.file":            "log-file",
		"metrics.addr":        "metrics-addr",
	} {
		_ = v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(newRunCommand(v), newTUICommand(v))
	return root
}
