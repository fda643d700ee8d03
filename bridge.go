package flowbridge

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/a2y-d5l/flowbridge/pkg/stream"
)

// Bridge exposes a callback-based source as a cold stream.Sequence[int].
//
// Nothing is registered with the source until Activate is called. Each
// activation owns its buffer and its callback, and unregisters from the source
// exactly once when it ends, whether the source completed, the source failed,
// or the consumer cancelled. At most one activation is live at a time; a
// concurrent activation fails with ErrActivationLive. When src is a Claimer
// (EventSource is) the rule holds per source, across every Bridge wrapping it.
type Bridge struct {
	src  Registrar
	cfg  config
	seq  atomic.Uint64
	live atomic.Bool
}

var _ stream.Sequence[int] = (*Bridge)(nil)

// NewBridge returns a Bridge over src.
func NewBridge(src Registrar, opts ...Option) *Bridge {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Bridge{src: src, cfg: cfg}
}

// Activate registers a new callback with the source and returns the stream
// of the values it receives.
//
// The stream ends normally when the source completes and with an *APIError
// when the source reports an error. If the source never ticks, the stream
// waits until ctx is cancelled or Cancel is called.
func (b *Bridge) Activate(ctx context.Context) *stream.Stream[int] {
	a := &activation{
		bridge: b,
		logger: b.cfg.logger.With(zap.Uint64("activation", b.seq.Add(1))),
	}
	a.buf = stream.NewBuffer[int](
		b.cfg.policy,
		stream.WithSendTimeout(b.cfg.sendTimeout),
		stream.WithDropHook(func(r stream.DropReason) {
			b.cfg.metrics.ValueDropped(r.String())
		}),
	)
	return stream.Bind(ctx, a.buf, a.attach)
}

// Live reports whether an activation is currently registered.
func (b *Bridge) Live() bool {
	return b.live.Load()
}

// activation is the per-activation handle: the callback registered with the
// source and the buffer it feeds.
type activation struct {
	bridge  *Bridge
	buf     *stream.Buffer[int]
	logger  *zap.Logger
	release func()
	once    sync.Once
}

func (a *activation) attach(context.Context) (func(), error) {
	if !a.bridge.live.CompareAndSwap(false, true) {
		return nil, a.reject("another activation of this bridge is live")
	}

	if c, ok := a.bridge.src.(Claimer); ok {
		release, err := c.Claim(a)
		if err != nil {
			a.bridge.live.Store(false)
			if !errors.Is(err, ErrActivationLive) {
				return nil, err
			}
			return nil, a.reject("the source's callback slot is taken")
		}
		a.release = release
	} else {
		a.bridge.src.Register(a)
		a.release = a.bridge.src.Unregister
	}

	a.bridge.cfg.metrics.ActivationStarted()
	a.logger.Debug("callback registered",
		zap.Stringer("policy", a.buf.Policy()),
		zap.Stringer("delivery", a.bridge.cfg.delivery),
	)
	return a.detach, nil
}

func (a *activation) detach() {
	a.once.Do(func() {
		a.release()
		a.bridge.live.Store(false)
		a.logger.Debug("callback unregistered", zap.Uint64("dropped", a.buf.Drops().Total()))
	})
}

func (a *activation) reject(reason string) error {
	a.bridge.cfg.metrics.ActivationRejected()
	a.logger.Warn("activation rejected", zap.String("reason", reason))
	return ErrActivationLive
}

func (a *activation) OnNextValue(value int) {
	a.handle(ValueEvent(value))
}

func (a *activation) OnAPIError(cause error) {
	a.handle(ErroredEvent(cause))
}

func (a *activation) OnCompleted() {
	a.handle(CompletedEvent())
}

func (a *activation) handle(ev Event) {
	switch ev.Kind {
	case EventValue:
		if err := a.buf.Offer(ev.Value); err != nil {
			a.undeliverable(ev.Value, err)
			return
		}
		a.bridge.cfg.metrics.ValueAccepted()

	case EventCompleted:
		a.logger.Debug("source completed")
		a.buf.Complete()

	case EventErrored:
		a.logger.Debug("source reported an error", zap.Error(ev.Err))
		a.buf.Fail(&APIError{Cause: ev.Err})
	}
}

func (a *activation) undeliverable(value int, err error) {
	derr := &DeliveryError{Value: value, Err: err}
	switch a.bridge.cfg.delivery {
	case DeliveryFailFast:
		a.logger.Debug("value undeliverable, failing activation", zap.Error(derr))
		a.buf.Fail(derr)
	default:
		a.logger.Warn("value undeliverable, dropped", zap.Error(derr))
	}
}
