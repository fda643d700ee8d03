package streamtest

import (
	"testing"
	"time"

	"github.com/a2y-d5l/flowbridge/pkg/stream"
)

// Drain receives every value of s and returns them with s's terminal error.
//
// Drain fails the test if s has not ended within timeout. The stream is
// cancelled before failing so that no goroutine outlives the test.
func Drain[T any](tb testing.TB, s *stream.Stream[T], timeout time.Duration) ([]T, error) {
	tb.Helper()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var out []T
	for {
		select {
		case v, open := <-s.Values():
			if !open {
				return out, s.Wait()
			}
			out = append(out, v)
		case <-timer.C:
			s.Cancel()
			tb.Fatalf("stream did not end within %s (received %d values)", timeout, len(out))
			return out, nil
		}
	}
}
