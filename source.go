package flowbridge

import (
	"fmt"
	"sync"
)

// DefaultThreshold is the counter value after which an EventSource completes.
const DefaultThreshold = 10

// SourceOption configures an EventSource.
type SourceOption func(*EventSource)

// WithThreshold sets the completion threshold. The source completes on the
// first tick whose counter exceeds n.
func WithThreshold(n int) SourceOption {
	return func(s *EventSource) {
		s.threshold = n
	}
}

// EventSource is a push-style counter with a single callback slot.
//
// Each Tick increments the counter and notifies the registered callback with
// the new value, until the counter exceeds the threshold; that tick completes
// the source instead and every later tick is a no-op.
//
// EventSource serializes Register, Unregister, Tick and Fail. Callbacks run
// while the lock is held, so once Unregister returns no callback is running
// and none will run again until the next Register.
type EventSource struct {
	callback  Callback
	counter   int
	threshold int
	gen       uint64
	mu        sync.Mutex
	completed bool
}

var _ Claimer = (*EventSource)(nil)

// NewEventSource returns a source whose counter starts at seed.
func NewEventSource(seed int, opts ...SourceOption) *EventSource {
	s := &EventSource{
		counter:   seed,
		threshold: DefaultThreshold,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Register installs cb, replacing any previously registered callback.
func (s *EventSource) Register(cb Callback) {
	s.mu.Lock()
	s.callback = cb
	s.gen++
	s.mu.Unlock()
}

// Claim installs cb only if the slot is empty and returns a release function
// that clears the slot only while it still holds this registration. It fails
// with ErrActivationLive when a callback is already registered.
//
// release is safe to call more than once.
func (s *EventSource) Claim(cb Callback) (release func(), err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.callback != nil {
		return nil, ErrActivationLive
	}
	s.callback = cb
	s.gen++
	gen := s.gen

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.gen == gen {
				s.callback = nil
			}
			s.mu.Unlock()
		})
	}, nil
}

// Unregister clears the callback slot. It is a no-op when nothing is
// registered.
func (s *EventSource) Unregister() {
	s.mu.Lock()
	s.callback = nil
	s.mu.Unlock()
}

// Tick advances the source by one step and fires at most one callback.
//
// Tick is a no-op once the source has completed. Otherwise it requires a
// registered callback and returns an error matching ErrMisuse, leaving the
// counter untouched, when there is none.
func (s *EventSource) Tick() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completed {
		return nil
	}
	if s.callback == nil {
		return fmt.Errorf("%w: tick with no registered callback", ErrMisuse)
	}

	s.counter++
	if s.counter > s.threshold {
		s.completed = true
		s.callback.OnCompleted()
		return nil
	}
	s.callback.OnNextValue(s.counter)
	return nil
}

// Fail reports cause to the registered callback as an API error.
//
// Fail does not complete the source. It is a no-op once the source has
// completed and returns an error matching ErrMisuse when no callback is
// registered.
func (s *EventSource) Fail(cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completed {
		return nil
	}
	if s.callback == nil {
		return fmt.Errorf("%w: fail with no registered callback", ErrMisuse)
	}
	s.callback.OnAPIError(cause)
	return nil
}

// Counter returns the current counter value.
func (s *EventSource) Counter() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counter
}

// Completed reports whether the source has completed.
func (s *EventSource) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

// Registered reports whether a callback is registered.
func (s *EventSource) Registered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callback != nil
}
