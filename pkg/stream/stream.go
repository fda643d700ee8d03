package stream

import (
	"context"
	"errors"
	"io"
	"iter"
)

var errNilContext = errors.New("stream: activate: nil context")

// Sequence is a cold source of values. Nothing happens until Activate is
// called, and every activation is independent of the others.
type Sequence[T any] interface {
	Activate(ctx context.Context) *Stream[T]
}

// SequenceFunc adapts a producer function to the Sequence interface.
//
// The function runs once per activation on its own goroutine. emit hands one
// value to the consumer and blocks until it is received; it returns a non-nil
// error once the activation is cancelled, and the function should then return
// that error. Returning nil ends the stream normally.
type SequenceFunc[T any] func(ctx context.Context, emit func(T) error) error

// Activate calls Start(ctx, f).
func (f SequenceFunc[T]) Activate(ctx context.Context) *Stream[T] {
	return Start(ctx, f)
}

// Stream is the handle of one running activation.
//
// Values are received from Values until it is closed. Wait then reports how
// the activation ended. Cancel stops the activation early and returns only
// after its teardown has run.
type Stream[T any] struct {
	err    error
	values chan T
	done   chan struct{}
	cancel context.CancelCauseFunc
	drops  func() Drops
}

// Start runs run as a new activation and returns its handle.
//
// The activation ends when run returns or ctx is cancelled. Cancellation is not
// a failure: Wait returns nil when run ended because of context.Canceled or
// context.DeadlineExceeded. Any other cause attached to ctx is reported as-is.
func Start[T any](ctx context.Context, run SequenceFunc[T]) *Stream[T] {
	s := &Stream[T]{
		values: make(chan T),
		done:   make(chan struct{}),
	}
	if ctx == nil {
		s.cancel = func(error) {}
		s.err = errNilContext
		close(s.values)
		close(s.done)
		return s
	}

	ctx, s.cancel = context.WithCancelCause(ctx)

	go func() {
		defer close(s.done)
		defer s.cancel(context.Canceled)

		err := run(ctx, func(v T) error {
			select {
			case s.values <- v:
				return nil
			case <-ctx.Done():
				return context.Cause(ctx)
			}
		})

		s.err = terminal(err)
		close(s.values)
	}()

	return s
}

// Bind starts an activation that forwards everything offered to buf.
//
// attach runs on the activation's goroutine before the first value is read;
// producers are expected to be connected to buf there. The returned detach
// function runs exactly once when the activation ends, whatever the cause,
// after buf has been closed and before Done is closed. If attach fails, the
// stream ends with its error and no detach runs.
func Bind[T any](
	ctx context.Context,
	buf *Buffer[T],
	attach func(context.Context) (detach func(), err error),
) *Stream[T] {
	s := Start(ctx, func(ctx context.Context, emit func(T) error) error {
		detach, err := attach(ctx)
		if err != nil {
			buf.Close()
			return err
		}
		defer func() {
			buf.Close()
			if detach != nil {
				detach()
			}
		}()

		for {
			v, err := buf.Next(ctx)
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			if err := emit(v); err != nil {
				return err
			}
		}
	})
	s.drops = buf.Drops
	return s
}

// Values returns the channel of values. It is closed when the activation ends.
func (s *Stream[T]) Values() <-chan T {
	if s == nil {
		ch := make(chan T)
		close(ch)
		return ch
	}
	return s.values
}

// Done returns a channel that closes once the activation has fully torn down.
func (s *Stream[T]) Done() <-chan struct{} {
	if s == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return s.done
}

// Wait blocks until the activation has torn down and returns its terminal
// error, nil for normal completion or cancellation.
func (s *Stream[T]) Wait() error {
	if s == nil {
		return nil
	}
	<-s.done
	return s.err
}

// Cancel stops the activation and blocks until its teardown has completed.
//
// Cancel is safe to call multiple times and after the activation has ended.
func (s *Stream[T]) Cancel() {
	if s == nil {
		return
	}
	s.cancel(context.Canceled)
	<-s.done
}

// All returns an iterator over the values. Breaking out of the loop cancels the
// activation.
func (s *Stream[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for v := range s.Values() {
			if !yield(v) {
				s.Cancel()
				return
			}
		}
	}
}

// Drops returns the drop counters of the buffer behind the stream, if any.
func (s *Stream[T]) Drops() Drops {
	if s == nil || s.drops == nil {
		return Drops{}
	}
	return s.drops()
}

// Collect activates seq and gathers every value until it ends.
func Collect[T any](ctx context.Context, seq Sequence[T]) ([]T, error) {
	s := seq.Activate(ctx)
	var out []T
	for v := range s.Values() {
		out = append(out, v)
	}
	return out, s.Wait()
}

func terminal(err error) error {
	if err == nil || IsCancellation(err) {
		return nil
	}
	return err
}

// IsCancellation reports whether err only signals that the consumer stopped.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
