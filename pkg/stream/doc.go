// Package stream provides cold, cancellable, single-consumer sequences.
//
// A Sequence does nothing until Activate is called. Each activation runs as
// one goroutine owned by the returned Stream handle and delivers values on an
// unbuffered channel. The caller owns the activation: Cancel stops it and
// returns once its teardown has completed, Wait reports how it ended.
//
// # Buffers
//
// Buffer is the hand-off point for push-style producers (callbacks) that cannot
// wait for a consumer to be ready. Bind connects a Buffer to a Stream and runs
// an attach/detach pair around the activation. Every buffer has an explicit
// policy:
//   - Unbounded: never blocks; every value is kept in offer order.
//   - Conflate: never blocks; keeps only the newest pending value. Opt-in,
//     and lossy by definition.
//   - Bounded(n): blocks the producer while n values are pending; an optional
//     send timeout turns a stuck consumer into an ErrFull rejection.
//
// Drop counts are exposed via Drops.
//
// # Termination
//
// An activation ends in one of three ways: the producer finishes (Wait returns
// nil), the producer fails (Wait returns the error), or the consumer cancels
// (Wait returns nil; cancellation is not a failure).
//
// # Combinators
//
// Range and Synthetic produce bounded integer sequences. Zip and ZipWith pair
// two sequences positionally and stop at the shorter one or at the first error.
package stream
