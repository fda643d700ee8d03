package streamtest

import (
	"sync"
)

// Recorder records values for tests and diagnostics.
//
// Recorder is safe under concurrent Record calls.
type Recorder[T any] struct {
	values []T
	notify chan struct{}
	mu     sync.Mutex
}

// NewRecorder constructs a Recorder.
func NewRecorder[T any]() *Recorder[T] {
	return &Recorder[T]{notify: make(chan struct{}, 1)}
}

// Record appends v to the recorder.
func (r *Recorder[T]) Record(v T) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.values = append(r.values, v)
	r.mu.Unlock()

	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// Values returns a snapshot copy of recorded values.
func (r *Recorder[T]) Values() []T {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]T, len(r.values))
	copy(cp, r.values)
	return cp
}

// Len returns the number of recorded values.
func (r *Recorder[T]) Len() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.values)
}

// Changed returns a channel that receives after one or more Record calls.
// A nil Recorder never records, so its channel never receives.
func (r *Recorder[T]) Changed() <-chan struct{} {
	if r == nil {
		return nil
	}
	return r.notify
}

// Reset clears the recorder.
func (r *Recorder[T]) Reset() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.values = nil
	r.mu.Unlock()
}
