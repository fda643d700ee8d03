// Package flowbridge adapts a push-style, callback-driven event source into a
// cold, cancellable, single-consumer stream.
//
// # Event source
//
// EventSource is a counter with a single callback slot. Tick increments the
// counter and notifies the registered Callback with the new value, or
// completes the source once the counter exceeds its threshold. Ticking with no
// registered callback is a contract violation reported as ErrMisuse.
//
// # Bridge
//
// Bridge turns a Registrar (such as an EventSource) into a
// stream.Sequence[int]. Every Activate call:
//
//   - builds a stream.Buffer with the configured policy and a Callback that
//     feeds it, and registers the callback;
//   - forwards values to the consumer, ends the stream on completion and fails
//     it with an *APIError on OnAPIError;
//   - unregisters exactly once when the activation ends, for any reason, before
//     the stream reports Done. Consumer cancellation therefore never leaves a
//     callback behind that could fire into a dead consumer.
//
// # Delivery guarantees
//
// With the Unbounded (default) or Bounded buffer policies every value reaches
// the consumer in tick order. Conflate keeps only the newest pending value and
// is the only lossy policy; it must be selected explicitly with
// WithBufferPolicy.
//
// A value the activation cannot accept (its buffer was closed, or a bounded
// buffer stayed full past the send timeout) is handled by the DeliveryPolicy:
// DeliverySwallow drops it, logs a warning and counts it; DeliveryFailFast ends
// the activation with a *DeliveryError.
//
// # Cancellation
//
// Cancelling an activation is not a failure: Stream.Wait returns nil. Ticks
// that happen after an activation ended find no callback and return
// ErrMisuse; no value is ever delivered to an ended activation.
package flowbridge
