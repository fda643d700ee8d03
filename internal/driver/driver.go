// Package driver wires an event source, a bridge and a synthetic sequence
// together and forwards the results to a sink.
//
// The driver never ticks the source. Ticks come from an external trigger (a
// key press, an input line, a timer) that calls EventSource.Tick.
package driver

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/a2y-d5l/flowbridge"
	"github.com/a2y-d5l/flowbridge/pkg/stream"
)

// DefaultCount is the last element of the default synthetic sequence.
const DefaultCount = 10

// Sink accepts the values produced by the driver. Post must not block
// indefinitely.
type Sink interface {
	Post(value string)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(string)

// Post calls f(value).
func (f SinkFunc) Post(value string) {
	f(value)
}

// Option configures a Driver.
type Option func(*config)

type config struct {
	logger     *zap.Logger
	bridgeOpts []flowbridge.Option
	count      int
}

// WithCount sets N for the synthetic sequence 0..N.
func WithCount(n int) Option {
	return func(c *config) {
		c.count = n
	}
}

// WithBridgeOptions passes options to the bridge built by Run.
func WithBridgeOptions(opts ...flowbridge.Option) Option {
	return func(c *config) {
		c.bridgeOpts = append(c.bridgeOpts, opts...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Driver runs the demonstration pipeline.
type Driver struct {
	src  flowbridge.Registrar
	sink Sink
	cfg  config
}

// New returns a Driver over src that posts to sink.
func New(src flowbridge.Registrar, sink Sink, opts ...Option) *Driver {
	cfg := config{logger: zap.NewNop(), count: DefaultCount}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Driver{src: src, sink: sink, cfg: cfg}
}

// FormatPair renders one zipped element.
func FormatPair(synthetic, value int) string {
	return fmt.Sprintf("%d -> %d", synthetic, value)
}

// Run zips the synthetic sequence with the bridged source and posts every
// pair, then consumes the synthetic sequence alone and posts every element.
//
// Run returns the bridge's terminal error (an *flowbridge.APIError or
// *flowbridge.DeliveryError); the second phase is skipped in that case.
// Cancelling ctx stops Run without error.
func (d *Driver) Run(ctx context.Context) error {
	bridge := flowbridge.NewBridge(d.src, append([]flowbridge.Option{
		flowbridge.WithLogger(d.cfg.logger.Named("bridge")),
	}, d.cfg.bridgeOpts...)...)
	synthetic := stream.Synthetic(d.cfg.count)

	zipped := stream.ZipWith[int, int, string](synthetic, bridge, FormatPair)
	n, err := d.forward(ctx, zipped)
	if err != nil {
		d.cfg.logger.Warn("zipped sequence failed", zap.Int("forwarded", n), zap.Error(err))
		return fmt.Errorf("driver: zip: %w", err)
	}
	d.cfg.logger.Info("zipped sequence ended", zap.Int("forwarded", n))
	if ctx.Err() != nil {
		return nil
	}

	n, err = d.forward(ctx, stream.Map(synthetic, strconv.Itoa))
	if err != nil {
		return fmt.Errorf("driver: synthetic: %w", err)
	}
	d.cfg.logger.Info("synthetic sequence ended", zap.Int("forwarded", n))
	return nil
}

func (d *Driver) forward(ctx context.Context, seq stream.Sequence[string]) (int, error) {
	s := seq.Activate(ctx)
	defer s.Cancel()

	n := 0
	for v := range s.Values() {
		d.cfg.logger.Debug("posting value", zap.String("value", v))
		d.sink.Post(v)
		n++
	}
	return n, s.Wait()
}
