package api

import "context"

type delivery[T any] struct {
	value T
	err   error
}

// awaitDelivery submits a photo store operation and waits for its callback.
// The operation itself is not bound to ctx: once submitted it runs to
// completion even if the client goes away, and only the wait is abandoned.
func awaitDelivery[T any](ctx context.Context, submit func(cb func(T, error))) (T, error) {
	ch := make(chan delivery[T], 1)
	submit(func(v T, err error) {
		ch <- delivery[T]{value: v, err: err}
	})

	select {
	case d := <-ch:
		return d.value, d.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
