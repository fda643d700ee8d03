package stream

import (
	"context"
	"fmt"
)

// Pair is one element of a zipped sequence.
type Pair[A, B any] struct {
	First  A
	Second B
}

func (p Pair[A, B]) String() string {
	return fmt.Sprintf("(%v, %v)", p.First, p.Second)
}

// Zip combines a and b positionally: element i is Pair{a_i, b_i}.
//
// Both sides are activated together and awaited concurrently. The zipped
// stream ends as soon as either side ends. If a side fails, the zipped stream
// fails with the same error at once. In every case the side that is still
// running is cancelled, and its teardown has completed before the zipped
// stream reports Done.
func Zip[A, B any](a Sequence[A], b Sequence[B]) Sequence[Pair[A, B]] {
	return ZipWith(a, b, func(x A, y B) Pair[A, B] {
		return Pair[A, B]{First: x, Second: y}
	})
}

// ZipWith is Zip with a combining function applied to every pair.
func ZipWith[A, B, K any](a Sequence[A], b Sequence[B], f func(A, B) K) Sequence[K] {
	return SequenceFunc[K](func(ctx context.Context, emit func(K) error) error {
		sa := a.Activate(ctx)
		defer sa.Cancel()
		sb := b.Activate(ctx)
		defer sb.Cancel()

		va, vb := sa.Values(), sb.Values()
		for {
			var (
				x        A
				y        B
				haveA    bool
				haveB    bool
				ina, inb = va, vb
			)
			for !haveA || !haveB {
				select {
				case v, open := <-ina:
					if !open {
						return sa.Wait()
					}
					x, haveA, ina = v, true, nil
				case v, open := <-inb:
					if !open {
						return sb.Wait()
					}
					y, haveB, inb = v, true, nil
				case <-ctx.Done():
					return context.Cause(ctx)
				}
			}
			if err := emit(f(x, y)); err != nil {
				return err
			}
		}
	})
}
