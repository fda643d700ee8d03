package stream

import (
	"fmt"
	"strings"
	"time"
)

type policyKind uint8

const (
	kindUnbounded policyKind = iota
	kindConflate
	kindBounded
)

// Policy controls how a Buffer behaves when the consumer falls behind.
//
// The zero Policy is Unbounded.
type Policy struct {
	kind policyKind
	size int
}

// Unbounded queues every offered value. Offer never blocks and values are
// delivered in offer order. Memory grows with the consumer's lag.
func Unbounded() Policy {
	return Policy{kind: kindUnbounded}
}

// Conflate keeps at most one pending value. A newer offer overwrites a pending
// value the consumer has not received yet.
//
// This policy never blocks and bounds memory, but it forfeits the ordering and
// no-loss guarantees: consumers observe a subsequence of the offered values.
// Overwritten values are counted in Drops.Conflated.
func Conflate() Policy {
	return Policy{kind: kindConflate, size: 1}
}

// Bounded queues up to n values. Offer blocks while the queue is full, until
// the consumer makes room, the buffer is closed, or the send timeout elapses.
//
// Values <= 0 are normalized to 1.
func Bounded(n int) Policy {
	if n <= 0 {
		n = 1
	}
	return Policy{kind: kindBounded, size: n}
}

// Size returns the capacity of the policy, or 0 for Unbounded.
func (p Policy) Size() int {
	return p.size
}

func (p Policy) String() string {
	switch p.kind {
	case kindUnbounded:
		return "unbounded"
	case kindConflate:
		return "conflate"
	case kindBounded:
		return fmt.Sprintf("bounded(%d)", p.size)
	default:
		return fmt.Sprintf("policy(%d)", p.kind)
	}
}

// ParsePolicy resolves a policy name as used in configuration files.
//
// Accepted names are "unbounded", "conflate" and "bounded"; size is only
// consulted for "bounded".
func ParsePolicy(name string, size int) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "unbounded":
		return Unbounded(), nil
	case "conflate", "conflated":
		return Conflate(), nil
	case "bounded":
		if size <= 0 {
			return Policy{}, fmt.Errorf("stream: bounded policy needs a positive size, got %d", size)
		}
		return Bounded(size), nil
	default:
		return Policy{}, fmt.Errorf("stream: unknown buffer policy %q", name)
	}
}

// DropReason tells why a Buffer discarded a value.
type DropReason uint8

const (
	// DropConflated means a pending value was overwritten by a newer one.
	DropConflated DropReason = iota

	// DropRejected means Offer refused the value (buffer closed or full past
	// the send timeout).
	DropRejected
)

func (r DropReason) String() string {
	switch r {
	case DropConflated:
		return "conflated"
	case DropRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// BufferOption configures a Buffer.
type BufferOption func(*bufferConfig)

type bufferConfig struct {
	onDrop      func(DropReason)
	sendTimeout time.Duration
}

// WithSendTimeout bounds how long Offer may block under the Bounded policy.
//
// Zero (the default) waits until the consumer makes room or the buffer is
// closed. The timeout has no effect on Unbounded or Conflate.
func WithSendTimeout(d time.Duration) BufferOption {
	return func(c *bufferConfig) {
		c.sendTimeout = d
	}
}

// WithDropHook registers f to be called for every discarded value.
//
// f runs on the offering goroutine and must not block.
func WithDropHook(f func(DropReason)) BufferOption {
	return func(c *bufferConfig) {
		c.onDrop = f
	}
}
