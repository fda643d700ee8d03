package flowbridge

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/a2y-d5l/flowbridge/pkg/stream"
)

// DeliveryPolicy decides what happens when an activation cannot accept a value
// handed to its callback.
type DeliveryPolicy uint8

const (
	// DeliverySwallow drops the value and keeps the activation running. The
	// value is lost; the drop is logged at warn level and counted in
	// Stream.Drops and Metrics.
	DeliverySwallow DeliveryPolicy = iota

	// DeliveryFailFast ends the activation with a *DeliveryError.
	DeliveryFailFast
)

func (p DeliveryPolicy) String() string {
	switch p {
	case DeliverySwallow:
		return "swallow"
	case DeliveryFailFast:
		return "fail-fast"
	default:
		return fmt.Sprintf("DeliveryPolicy(%d)", uint8(p))
	}
}

// ParseDeliveryPolicy resolves a delivery policy name as used in
// configuration files.
func ParseDeliveryPolicy(name string) (DeliveryPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "swallow":
		return DeliverySwallow, nil
	case "fail-fast", "failfast":
		return DeliveryFailFast, nil
	default:
		return 0, fmt.Errorf("flowbridge: unknown delivery policy %q", name)
	}
}

// Metrics receives bridge activity counts. Implementations must be safe for
// concurrent use and must not block.
type Metrics interface {
	ActivationStarted()
	ActivationRejected()
	ValueAccepted()
	ValueDropped(reason string)
}

type nopMetrics struct{}

func (nopMetrics) ActivationStarted()  {}
func (nopMetrics) ActivationRejected() {}
func (nopMetrics) ValueAccepted()      {}
func (nopMetrics) ValueDropped(string) {}

// Option configures a Bridge.
type Option func(*config)

type config struct {
	logger      *zap.Logger
	metrics     Metrics
	policy      stream.Policy
	sendTimeout time.Duration
	delivery    DeliveryPolicy
}

func defaultConfig() config {
	return config{
		logger:   zap.NewNop(),
		metrics:  nopMetrics{},
		policy:   stream.Unbounded(),
		delivery: DeliverySwallow,
	}
}

// WithBufferPolicy sets the buffer policy of every activation.
//
// The default, stream.Unbounded(), keeps every value in tick order.
// stream.Conflate() trades that guarantee for constant memory and must be
// chosen explicitly.
func WithBufferPolicy(p stream.Policy) Option {
	return func(c *config) {
		c.policy = p
	}
}

// WithDeliveryPolicy sets what happens to a value the activation cannot
// accept. The default is DeliverySwallow.
func WithDeliveryPolicy(p DeliveryPolicy) Option {
	return func(c *config) {
		c.delivery = p
	}
}

// WithSendTimeout bounds how long a tick may wait for room in a bounded
// buffer before the value is treated as undeliverable. Zero waits until the
// consumer makes room or cancels.
func WithSendTimeout(d time.Duration) Option {
	return func(c *config) {
		c.sendTimeout = d
	}
}

// WithLogger sets the logger for the bridge.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics attaches a metrics sink.
func WithMetrics(m Metrics) Option {
	return func(c *config) {
		if m != nil {
			c.metrics = m
		}
	}
}
