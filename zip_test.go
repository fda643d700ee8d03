package flowbridge_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a2y-d5l/flowbridge"
	"github.com/a2y-d5l/flowbridge/pkg/stream"
	"github.com/a2y-d5l/flowbridge/pkg/stream/streamtest"
)

func countingSynthetic(n int, emitted *atomic.Int32) stream.Sequence[int] {
	return stream.SequenceFunc[int](func(_ context.Context, emit func(int) error) error {
		for i := 0; i <= n; i++ {
			if err := emit(i); err != nil {
				return err
			}
			emitted.Add(1)
		}
		return nil
	})
}

func TestZip_BridgeWithSynthetic(t *testing.T) {
	src := newCountingSource(5)
	var emitted atomic.Int32
	zipped := stream.Zip[int, int](countingSynthetic(10, &emitted), flowbridge.NewBridge(src))

	s := zipped.Activate(context.Background())
	waitRegistered(t, src)
	for range 6 {
		require.NoError(t, src.Tick())
	}

	got, err := streamtest.Drain(t, s, testTimeout)
	require.NoError(t, err)
	assert.Equal(t, []stream.Pair[int, int]{
		{First: 0, Second: 6},
		{First: 1, Second: 7},
		{First: 2, Second: 8},
		{First: 3, Second: 9},
		{First: 4, Second: 10},
	}, got)
	assert.Equal(t, int32(1), src.unregisters.Load())
	assert.Less(t, emitted.Load(), int32(11), "the synthetic side is cancelled, not drained")
}

func TestZip_BridgeErrorAfterDeliveredPairs(t *testing.T) {
	boom := errors.New("boom")
	src := newCountingSource(5)
	var emitted atomic.Int32
	zipped := stream.Zip[int, int](countingSynthetic(10, &emitted), flowbridge.NewBridge(src))

	s := zipped.Activate(context.Background())
	waitRegistered(t, src)

	const k = 3
	for i := range k {
		require.NoError(t, src.Tick())
		select {
		case p := <-s.Values():
			assert.Equal(t, stream.Pair[int, int]{First: i, Second: 6 + i}, p)
		case <-time.After(testTimeout):
			t.Fatalf("pair %d not received", i)
		}
	}
	require.NoError(t, src.Fail(boom))

	rest, err := streamtest.Drain(t, s, testTimeout)
	assert.Empty(t, rest)
	require.ErrorIs(t, err, boom)
	var apiErr *flowbridge.APIError
	assert.ErrorAs(t, err, &apiErr)

	assert.LessOrEqual(t, emitted.Load(), int32(k+1))
	assert.Equal(t, int32(1), src.unregisters.Load())
	assert.False(t, src.Registered())
}

func TestZip_CancelUnregistersBridge(t *testing.T) {
	src := newCountingSource(0)
	s := stream.Zip[int, int](stream.Synthetic(10), flowbridge.NewBridge(src)).Activate(context.Background())
	waitRegistered(t, src)

	s.Cancel()
	assert.NoError(t, s.Wait())
	assert.Equal(t, int32(1), src.unregisters.Load())
	require.ErrorIs(t, src.Tick(), flowbridge.ErrMisuse)
}
