package driver_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a2y-d5l/flowbridge"
	"github.com/a2y-d5l/flowbridge/internal/driver"
	"github.com/a2y-d5l/flowbridge/pkg/stream"
	"github.com/a2y-d5l/flowbridge/pkg/stream/streamtest"
)

const testTimeout = 2 * time.Second

func start(t *testing.T, d *driver.Driver) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background()) }()
	return done
}

func await(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(testTimeout):
		t.Fatal("driver did not finish")
		return nil
	}
}

func TestRun_ZipsThenReplaysSynthetic(t *testing.T) {
	src := flowbridge.NewEventSource(5)
	rec := streamtest.NewRecorder[string]()
	done := start(t, driver.New(src, driver.SinkFunc(rec.Record)))

	require.Eventually(t, src.Registered, testTimeout, time.Millisecond)
	for range 6 {
		require.NoError(t, src.Tick())
	}

	require.NoError(t, await(t, done))
	assert.Equal(t, []string{
		"0 -> 6", "1 -> 7", "2 -> 8", "3 -> 9", "4 -> 10",
		"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "10",
	}, rec.Values())
	assert.False(t, src.Registered())
}

func TestRun_SyntheticShorterThanBridge(t *testing.T) {
	src := flowbridge.NewEventSource(0)
	rec := streamtest.NewRecorder[string]()
	done := start(t, driver.New(src, driver.SinkFunc(rec.Record), driver.WithCount(2)))

	require.Eventually(t, src.Registered, testTimeout, time.Millisecond)
	for range 3 {
		require.NoError(t, src.Tick())
		<-rec.Changed()
	}

	require.NoError(t, await(t, done))
	assert.Equal(t, []string{"0 -> 1", "1 -> 2", "2 -> 3", "0", "1", "2"}, rec.Values())
	assert.False(t, src.Registered(), "the bridge is unregistered once the synthetic side ends")
}

func TestRun_APIErrorStopsTheDriver(t *testing.T) {
	boom := errors.New("boom")
	src := flowbridge.NewEventSource(5)
	rec := streamtest.NewRecorder[string]()
	done := start(t, driver.New(src, driver.SinkFunc(rec.Record)))

	require.Eventually(t, src.Registered, testTimeout, time.Millisecond)
	require.NoError(t, src.Tick())
	<-rec.Changed()
	require.NoError(t, src.Fail(boom))

	err := await(t, done)
	require.ErrorIs(t, err, boom)
	var apiErr *flowbridge.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, []string{"0 -> 6"}, rec.Values(), "the synthetic replay is skipped")
}

func TestRun_CancellationIsNotAnError(t *testing.T) {
	src := flowbridge.NewEventSource(0)
	rec := streamtest.NewRecorder[string]()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- driver.New(src, driver.SinkFunc(rec.Record)).Run(ctx) }()

	require.Eventually(t, src.Registered, testTimeout, time.Millisecond)
	cancel()

	require.NoError(t, await(t, done))
	assert.Empty(t, rec.Values())
	assert.False(t, src.Registered())
}

func TestRun_ConflatingBridge(t *testing.T) {
	src := flowbridge.NewEventSource(0, flowbridge.WithThreshold(3))
	rec := streamtest.NewRecorder[string]()
	d := driver.New(src, driver.SinkFunc(rec.Record),
		driver.WithCount(0),
		driver.WithBridgeOptions(flowbridge.WithBufferPolicy(stream.Conflate())),
	)
	done := start(t, d)

	require.Eventually(t, src.Registered, testTimeout, time.Millisecond)
	require.NoError(t, src.Tick())

	require.NoError(t, await(t, done))
	assert.Equal(t, []string{"0 -> 1", "0"}, rec.Values())
}

func TestRun_SecondDriverOnSameSourceIsRefused(t *testing.T) {
	src := flowbridge.NewEventSource(5)
	first := streamtest.NewRecorder[string]()
	done := start(t, driver.New(src, driver.SinkFunc(first.Record)))
	require.Eventually(t, src.Registered, testTimeout, time.Millisecond)

	second := streamtest.NewRecorder[string]()
	err := driver.New(src, driver.SinkFunc(second.Record)).Run(context.Background())
	require.ErrorIs(t, err, flowbridge.ErrActivationLive)
	assert.Empty(t, second.Values())

	for range 6 {
		require.NoError(t, src.Tick())
	}
	require.NoError(t, await(t, done))
	assert.Len(t, first.Values(), 16, "the running driver keeps its registration")
}

func TestFormatPair(t *testing.T) {
	assert.Equal(t, "3 -> 9", driver.FormatPair(3, 9))
}
