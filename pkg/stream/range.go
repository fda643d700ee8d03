package stream

import "context"

// Range returns a sequence of the integers from..to inclusive.
//
// Values are produced lazily, one per receive. The sequence is empty when
// to < from.
func Range(from, to int) Sequence[int] {
	return SequenceFunc[int](func(_ context.Context, emit func(int) error) error {
		for i := from; i <= to; i++ {
			if err := emit(i); err != nil {
				return err
			}
		}
		return nil
	})
}

// Synthetic returns the sequence 0..n inclusive, n+1 elements.
func Synthetic(n int) Sequence[int] {
	return Range(0, n)
}

// Of returns a sequence of the given values.
func Of[T any](values ...T) Sequence[T] {
	cp := append([]T(nil), values...)
	return SequenceFunc[T](func(_ context.Context, emit func(T) error) error {
		for _, v := range cp {
			if err := emit(v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Map returns a sequence that applies f to every value of seq.
func Map[T, K any](seq Sequence[T], f func(T) K) Sequence[K] {
	return SequenceFunc[K](func(ctx context.Context, emit func(K) error) error {
		src := seq.Activate(ctx)
		defer src.Cancel()
		for v := range src.Values() {
			if err := emit(f(v)); err != nil {
				return err
			}
		}
		return src.Wait()
	})
}
