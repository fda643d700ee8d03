package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/a2y-d5l/flowbridge"
	"github.com/a2y-d5l/flowbridge/internal/config"
	"github.com/a2y-d5l/flowbridge/internal/driver"
	"github.com/a2y-d5l/flowbridge/internal/logging"
	"github.com/a2y-d5l/flowbridge/internal/metrics"
	"github.com/a2y-d5l/flowbridge/internal/trigger"
)

const (
	registerPoll    = 5 * time.Millisecond
	shutdownTimeout = 5 * time.Second
)

// pipeline holds the parts shared by the run and tui commands.
type pipeline struct {
	clock    clock.Clock
	cfg      *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.Bridge
	source   *flowbridge.EventSource
}

func newPipeline(cfg *config.Config, logger *zap.Logger) (*pipeline, error) {
	registry := prometheus.NewRegistry()
	m, err := metrics.New(registry)
	if err != nil {
		return nil, err
	}
	return &pipeline{
		clock:    clock.New(),
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		metrics:  m,
		source:   flowbridge.NewEventSource(cfg.Source.Seed, flowbridge.WithThreshold(cfg.Source.Threshold)),
	}, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
}

func (p *pipeline) driver(sink driver.Sink) (*driver.Driver, error) {
	opts, err := p.cfg.BridgeOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts, flowbridge.WithMetrics(p.metrics))

	return driver.New(p.source, sink,
		driver.WithCount(p.cfg.Driver.Count),
		driver.WithLogger(p.logger.Named("driver")),
		driver.WithBridgeOptions(opts...),
	), nil
}

func (p *pipeline) triggerOptions() []trigger.Option {
	return []trigger.Option{
		trigger.WithClock(p.clock),
		trigger.WithLogger(p.logger.Named("trigger")),
		trigger.WithRecorder(p.metrics),
	}
}

// awaitListener blocks until the bridge has registered with the source, so
// that early ticks are not lost to ErrMisuse. It reports false when ctx ends
// first.
func (p *pipeline) awaitListener(ctx context.Context) bool {
	if p.source.Registered() {
		return true
	}
	poll := p.clock.Ticker(registerPoll)
	defer poll.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-poll.C:
			if p.source.Registered() {
				return true
			}
		}
	}
}

// tickLines ticks once per line of r. When r is exhausted before the source
// completes, no further values can arrive and stop is called to end the run.
func (p *pipeline) tickLines(ctx context.Context, r io.Reader, stop context.CancelFunc) error {
	if !p.awaitListener(ctx) {
		return nil
	}
	if err := trigger.Lines(ctx, p.source, r, p.triggerOptions()...); err != nil {
		return fmt.Errorf("read ticks: %w", err)
	}
	if ctx.Err() == nil && !p.source.Completed() {
		p.logger.Info("input exhausted before the source completed, stopping")
		stop()
	}
	return nil
}

func (p *pipeline) tickInterval(ctx context.Context) error {
	if !p.awaitListener(ctx) {
		return nil
	}
	return trigger.Interval(ctx, p.source, p.cfg.Driver.Interval, p.triggerOptions()...)
}

// serveMetrics serves /metrics until ctx ends. It is a no-op when no address
// is configured.
func (p *pipeline) serveMetrics(ctx context.Context) error {
	if p.cfg.Metrics.Addr == "" {
		return nil
	}

	ln, err := net.Listen("tcp", p.cfg.Metrics.Addr)
	if err != nil {
		return fmt.Errorf("metrics: listen: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(p.registry))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()
	p.logger.Info("serving metrics", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-serveErr:
		return fmt.Errorf("metrics: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)
	if serr := <-serveErr; !errors.Is(serr, http.ErrServerClosed) {
		err = multierr.Append(err, serr)
	}
	return err
}
