package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrClosed is returned by Offer once the buffer has been closed by its
	// consumer side.
	ErrClosed = errors.New("stream: buffer closed")

	// ErrFull is returned by Offer when a Bounded buffer stayed full for longer
	// than the configured send timeout.
	ErrFull = errors.New("stream: buffer full")

	// ErrTerminated is returned by Offer after Complete or Fail.
	ErrTerminated = errors.New("stream: buffer terminated")
)

// Drops reports the number of values discarded by a Buffer.
type Drops struct {
	// Conflated is the number of pending values overwritten under Conflate.
	Conflated uint64

	// Rejected is the number of values Offer refused.
	Rejected uint64
}

// Total returns the sum of all drop counters.
func (d Drops) Total() uint64 {
	return d.Conflated + d.Rejected
}

// Buffer is the hand-off point between a push-style producer and the single
// goroutine that consumes an activation.
//
// Producers call Offer, Complete and Fail; the consumer calls Next and finally
// Close. Buffer is safe for concurrent use.
type Buffer[T any] struct {
	items     []T
	failed    error
	ready     chan struct{}
	space     chan struct{}
	done      chan struct{}
	cfg       bufferConfig
	conflated atomic.Uint64
	rejected  atomic.Uint64
	policy    Policy
	mu        sync.Mutex
	closeOnce sync.Once
	ended     bool
	closed    bool
}

// NewBuffer constructs a Buffer with the given policy.
func NewBuffer[T any](p Policy, opts ...BufferOption) *Buffer[T] {
	var c bufferConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}
	if c.sendTimeout < 0 {
		c.sendTimeout = 0
	}

	return &Buffer[T]{
		policy: p,
		cfg:    c,
		ready:  make(chan struct{}, 1),
		space:  make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Policy returns the buffer's policy.
func (b *Buffer[T]) Policy() Policy {
	return b.policy
}

// Offer hands v to the consumer according to the buffer's policy.
//
// Offer returns ErrClosed, ErrTerminated or ErrFull (wrapped) when the value
// was not accepted; the value is then counted as rejected.
func (b *Buffer[T]) Offer(v T) error {
	b.mu.Lock()
	if err := b.acceptingLocked(); err != nil {
		b.mu.Unlock()
		return b.reject(err)
	}

	switch b.policy.kind {
	case kindUnbounded:
		b.items = append(b.items, v)

	case kindConflate:
		if len(b.items) > 0 {
			b.items[0] = v
			b.mu.Unlock()
			b.drop(DropConflated)
			signal(b.ready)
			return nil
		}
		b.items = append(b.items, v)

	case kindBounded:
		var timeout <-chan time.Time
		if b.cfg.sendTimeout > 0 {
			t := time.NewTimer(b.cfg.sendTimeout)
			defer t.Stop()
			timeout = t.C
		}
		for len(b.items) >= b.policy.size {
			b.mu.Unlock()
			select {
			case <-b.space:
			case <-b.done:
			case <-timeout:
				return b.reject(fmt.Errorf("%w: no room after %s", ErrFull, b.cfg.sendTimeout))
			}
			b.mu.Lock()
			if err := b.acceptingLocked(); err != nil {
				b.mu.Unlock()
				return b.reject(err)
			}
		}
		b.items = append(b.items, v)

	default:
		b.mu.Unlock()
		panic(fmt.Errorf("unknown buffer policy: %v", b.policy))
	}

	b.mu.Unlock()
	signal(b.ready)
	return nil
}

// Complete marks the end of the values. Values already offered are still
// delivered by Next before it reports io.EOF.
func (b *Buffer[T]) Complete() {
	b.mu.Lock()
	if !b.closed && !b.ended && b.failed == nil {
		b.ended = true
	}
	b.mu.Unlock()
	signal(b.ready)
}

// Fail terminates the buffer with err. Next returns err on its next call,
// discarding values that were not received yet.
//
// Only the first terminal signal (Complete or Fail) takes effect.
func (b *Buffer[T]) Fail(err error) {
	if err == nil {
		return
	}
	b.mu.Lock()
	if !b.closed && !b.ended && b.failed == nil {
		b.failed = err
	}
	b.mu.Unlock()
	signal(b.ready)
}

// Next blocks until a value, the end of the values or a failure is available.
//
// Next returns io.EOF after Complete once every pending value has been
// received. When ctx ends first, Next returns context.Cause(ctx).
func (b *Buffer[T]) Next(ctx context.Context) (T, error) {
	var zero T
	for {
		b.mu.Lock()
		switch {
		case b.failed != nil:
			err := b.failed
			b.mu.Unlock()
			return zero, err
		case len(b.items) > 0:
			v := b.items[0]
			b.items[0] = zero
			b.items = b.items[1:]
			b.mu.Unlock()
			signal(b.space)
			return v, nil
		case b.ended:
			b.mu.Unlock()
			return zero, io.EOF
		case b.closed:
			b.mu.Unlock()
			return zero, ErrClosed
		}
		b.mu.Unlock()

		select {
		case <-b.ready:
		case <-b.done:
		case <-ctx.Done():
			return zero, context.Cause(ctx)
		}
	}
}

// Close invalidates the buffer. Pending values are discarded and blocked or
// later Offer calls return ErrClosed.
//
// Close is safe to call multiple times.
func (b *Buffer[T]) Close() {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		b.items = nil
		b.mu.Unlock()
		close(b.done)
	})
}

// Drops returns current drop counters.
func (b *Buffer[T]) Drops() Drops {
	if b == nil {
		return Drops{}
	}
	return Drops{
		Conflated: b.conflated.Load(),
		Rejected:  b.rejected.Load(),
	}
}

func (b *Buffer[T]) acceptingLocked() error {
	if b.closed {
		return ErrClosed
	}
	if b.ended || b.failed != nil {
		return ErrTerminated
	}
	return nil
}

func (b *Buffer[T]) reject(err error) error {
	b.drop(DropRejected)
	return err
}

func (b *Buffer[T]) drop(r DropReason) {
	switch r {
	case DropConflated:
		b.conflated.Add(1)
	case DropRejected:
		b.rejected.Add(1)
	}
	if b.cfg.onDrop != nil {
		b.cfg.onDrop(r)
	}
}

// signal performs a non-blocking send on a capacity-one wakeup channel.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
