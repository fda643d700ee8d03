package flowbridge

import "fmt"

// Callback receives the notifications of an EventSource.
//
// Exactly one method is invoked per EventSource.Tick, or none once the source
// has completed. Methods are invoked while the source's lock is held and must
// not call back into the source.
type Callback interface {
	OnNextValue(value int)
	OnAPIError(cause error)
	OnCompleted()
}

// CallbackFuncs adapts plain functions to the Callback interface. Nil fields
// are ignored.
type CallbackFuncs struct {
	NextValue func(int)
	APIError  func(error)
	Completed func()
}

// OnNextValue calls f.NextValue(value).
func (f CallbackFuncs) OnNextValue(value int) {
	if f.NextValue != nil {
		f.NextValue(value)
	}
}

// OnAPIError calls f.APIError(cause).
func (f CallbackFuncs) OnAPIError(cause error) {
	if f.APIError != nil {
		f.APIError(cause)
	}
}

// OnCompleted calls f.Completed().
func (f CallbackFuncs) OnCompleted() {
	if f.Completed != nil {
		f.Completed()
	}
}

// Registrar is the registration surface of a callback-based source.
//
// EventSource implements Registrar. Register replaces any previous callback;
// Unregister clears it and is safe to call when nothing is registered.
type Registrar interface {
	Register(Callback)
	Unregister()
}

// Claimer is implemented by sources that can hand their single callback slot
// to one owner at a time. Bridge claims the slot instead of calling Register
// when its source is a Claimer, so activations of different Bridges over the
// same source cannot displace or clear each other's callback.
//
// Claim fails with ErrActivationLive while the slot is taken. The returned
// release clears the slot only if it still holds the claimed callback.
type Claimer interface {
	Claim(cb Callback) (release func(), err error)
}

// EventKind discriminates the variants of Event.
type EventKind uint8

const (
	// EventValue carries a value in Event.Value.
	EventValue EventKind = iota

	// EventCompleted marks the normal end of the values.
	EventCompleted

	// EventErrored carries the terminal cause in Event.Err.
	EventErrored
)

func (k EventKind) String() string {
	switch k {
	case EventValue:
		return "value"
	case EventCompleted:
		return "completed"
	case EventErrored:
		return "errored"
	default:
		return fmt.Sprintf("EventKind(%d)", uint8(k))
	}
}

// Event is one callback invocation, captured as a value.
type Event struct {
	Err   error
	Value int
	Kind  EventKind
}

// ValueEvent returns Event{Kind: EventValue, Value: v}.
func ValueEvent(v int) Event {
	return Event{Kind: EventValue, Value: v}
}

// CompletedEvent returns Event{Kind: EventCompleted}.
func CompletedEvent() Event {
	return Event{Kind: EventCompleted}
}

// ErroredEvent returns Event{Kind: EventErrored, Err: cause}.
func ErroredEvent(cause error) Event {
	return Event{Kind: EventErrored, Err: cause}
}

// EventCallback returns a Callback that turns every invocation into an Event
// and passes it to f.
func EventCallback(f func(Event)) Callback {
	return CallbackFuncs{
		NextValue: func(v int) { f(ValueEvent(v)) },
		APIError:  func(cause error) { f(ErroredEvent(cause)) },
		Completed: func() { f(CompletedEvent()) },
	}
}
