// Package trigger drives an event source from outside: on a clock, or once per
// line of input. Triggers are the only callers of Tick in the binaries.
package trigger

import (
	"bufio"
	"context"
	"errors"
	"io"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/a2y-d5l/flowbridge"
	"github.com/a2y-d5l/flowbridge/internal/metrics"
)

// Source is the part of an event source a trigger needs.
type Source interface {
	Tick() error
	Completed() bool
}

// Recorder receives the result of every tick. *metrics.Bridge implements it.
type Recorder interface {
	Tick(result string)
}

// Option configures a trigger.
type Option func(*config)

type config struct {
	clock    clock.Clock
	logger   *zap.Logger
	recorder Recorder
}

// WithClock sets the clock used by Interval. Tests pass clock.NewMock().
func WithClock(c clock.Clock) Option {
	return func(cfg *config) {
		cfg.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithRecorder reports tick results to r.
func WithRecorder(r Recorder) Option {
	return func(cfg *config) {
		cfg.recorder = r
	}
}

func newConfig(opts []Option) config {
	cfg := config{clock: clock.New(), logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	return cfg
}

// Interval ticks src once per period until ctx ends or src completes.
//
// A tick that finds no registered callback is skipped: the consumer has not
// activated the bridge yet, or is between activations.
func Interval(ctx context.Context, src Source, every time.Duration, opts ...Option) error {
	if every <= 0 {
		return errors.New("trigger: interval must be positive")
	}
	cfg := newConfig(opts)

	ticker := cfg.clock.Ticker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := fire(src, cfg); err != nil {
				return err
			}
			if src.Completed() {
				cfg.logger.Debug("source completed, interval trigger stopping")
				return nil
			}
		}
	}
}

// Lines ticks src once per line read from r, the headless stand-in for a
// "tick" button. It returns when r is exhausted, ctx ends or src completes.
//
// Reading from r is not interruptible; when ctx ends first, the reading
// goroutine exits at the next line or at EOF.
func Lines(ctx context.Context, src Source, r io.Reader, opts ...Option) error {
	cfg := newConfig(opts)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan struct{})
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			if err := fire(src, cfg); err != nil {
				return err
			}
			if src.Completed() {
				return nil
			}
		}
	}
}

func fire(src Source, cfg config) error {
	err := src.Tick()
	switch {
	case err == nil:
		cfg.record(metrics.TickOK)
		return nil
	case errors.Is(err, flowbridge.ErrMisuse):
		cfg.record(metrics.TickMisuse)
		cfg.logger.Debug("tick skipped: no listener registered")
		return nil
	default:
		cfg.record(metrics.TickError)
		return err
	}
}

func (cfg config) record(result string) {
	if cfg.recorder != nil {
		cfg.recorder.Tick(result)
	}
}
