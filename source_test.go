package flowbridge_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a2y-d5l/flowbridge"
)

func recordEvents(src *flowbridge.EventSource) *[]flowbridge.Event {
	var events []flowbridge.Event
	src.Register(flowbridge.EventCallback(func(ev flowbridge.Event) {
		events = append(events, ev)
	}))
	return &events
}

func TestEventSource_TicksBelowThresholdEmitCounter(t *testing.T) {
	src := flowbridge.NewEventSource(0)
	events := recordEvents(src)

	for range 10 {
		require.NoError(t, src.Tick())
	}

	require.Len(t, *events, 10)
	for i, ev := range *events {
		assert.Equal(t, flowbridge.ValueEvent(i+1), ev)
	}
	assert.False(t, src.Completed())
	assert.Equal(t, 10, src.Counter())
}

func TestEventSource_CompletesAfterThreshold(t *testing.T) {
	src := flowbridge.NewEventSource(5, flowbridge.WithThreshold(10))
	events := recordEvents(src)

	for range 6 {
		require.NoError(t, src.Tick())
	}
	assert.Equal(t, []flowbridge.Event{
		flowbridge.ValueEvent(6),
		flowbridge.ValueEvent(7),
		flowbridge.ValueEvent(8),
		flowbridge.ValueEvent(9),
		flowbridge.ValueEvent(10),
		flowbridge.CompletedEvent(),
	}, *events)
	assert.True(t, src.Completed())

	require.NoError(t, src.Tick(), "ticking a completed source is a no-op")
	assert.Len(t, *events, 6)
	assert.Equal(t, 11, src.Counter())
}

func TestEventSource_CustomThreshold(t *testing.T) {
	src := flowbridge.NewEventSource(0, flowbridge.WithThreshold(2))
	events := recordEvents(src)

	for range 4 {
		require.NoError(t, src.Tick())
	}
	assert.Equal(t, []flowbridge.Event{
		flowbridge.ValueEvent(1),
		flowbridge.ValueEvent(2),
		flowbridge.CompletedEvent(),
	}, *events)
}

func TestEventSource_TickWithoutCallbackIsMisuse(t *testing.T) {
	src := flowbridge.NewEventSource(3)

	err := src.Tick()
	require.ErrorIs(t, err, flowbridge.ErrMisuse)
	assert.Equal(t, 3, src.Counter(), "a misused tick leaves the counter alone")
	assert.False(t, src.Completed())

	events := recordEvents(src)
	require.NoError(t, src.Tick())
	assert.Equal(t, []flowbridge.Event{flowbridge.ValueEvent(4)}, *events)
}

func TestEventSource_UnregisterIsIdempotent(t *testing.T) {
	src := flowbridge.NewEventSource(0)
	src.Unregister()
	src.Unregister()
	assert.False(t, src.Registered())

	events := recordEvents(src)
	assert.True(t, src.Registered())
	src.Unregister()
	src.Unregister()
	assert.False(t, src.Registered())

	require.ErrorIs(t, src.Tick(), flowbridge.ErrMisuse)
	assert.Empty(t, *events)
}

func TestEventSource_RegisterReplacesCallback(t *testing.T) {
	src := flowbridge.NewEventSource(0)
	first := recordEvents(src)
	second := recordEvents(src)

	require.NoError(t, src.Tick())
	assert.Empty(t, *first)
	assert.Equal(t, []flowbridge.Event{flowbridge.ValueEvent(1)}, *second)
}

func TestEventSource_ClaimIsExclusive(t *testing.T) {
	src := flowbridge.NewEventSource(0)
	var got []int
	release, err := src.Claim(flowbridge.CallbackFuncs{NextValue: func(v int) { got = append(got, v) }})
	require.NoError(t, err)

	_, err = src.Claim(flowbridge.CallbackFuncs{})
	require.ErrorIs(t, err, flowbridge.ErrActivationLive)

	require.NoError(t, src.Tick())
	assert.Equal(t, []int{1}, got)

	release()
	release()
	assert.False(t, src.Registered())

	release, err = src.Claim(flowbridge.CallbackFuncs{})
	require.NoError(t, err)
	release()
}

func TestEventSource_StaleReleaseKeepsNewRegistration(t *testing.T) {
	src := flowbridge.NewEventSource(0)
	release, err := src.Claim(flowbridge.CallbackFuncs{})
	require.NoError(t, err)

	events := recordEvents(src)
	release()

	assert.True(t, src.Registered())
	require.NoError(t, src.Tick())
	assert.Equal(t, []flowbridge.Event{flowbridge.ValueEvent(1)}, *events)
}

func TestEventSource_Fail(t *testing.T) {
	boom := errors.New("boom")
	src := flowbridge.NewEventSource(0)
	require.ErrorIs(t, src.Fail(boom), flowbridge.ErrMisuse)

	events := recordEvents(src)
	require.NoError(t, src.Fail(boom))
	require.Len(t, *events, 1)
	assert.Equal(t, flowbridge.EventErrored, (*events)[0].Kind)
	assert.ErrorIs(t, (*events)[0].Err, boom)
	assert.False(t, src.Completed(), "an API error does not complete the source")
}

func TestCallbackFuncs_NilFieldsAreIgnored(t *testing.T) {
	var cb flowbridge.CallbackFuncs
	cb.OnNextValue(1)
	cb.OnAPIError(errors.New("x"))
	cb.OnCompleted()
}

func TestEventKind_String(t *testing.T) {
	assert.Equal(t, "value", flowbridge.EventValue.String())
	assert.Equal(t, "completed", flowbridge.EventCompleted.String())
	assert.Equal(t, "errored", flowbridge.EventErrored.String())
	assert.Equal(t, "EventKind(9)", flowbridge.EventKind(9).String())
}
