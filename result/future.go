package result

import "context"

// Future is a Result being computed on another goroutine.
type Future[T any] struct {
	done chan struct{}
	res  Result[T]
}

// Go runs fn on a new goroutine with ctx. Cancelling ctx is propagated into
// fn, which is expected to abort its in-flight request.
func Go[T any](ctx context.Context, fn func(context.Context) Result[T]) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.res = fn(ctx)
	}()
	return f
}

// Done is closed once the Result is available.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Await blocks until the Result is ready or ctx ends. When ctx ends first no
// Result is delivered and ctx.Err() is returned.
func (f *Future[T]) Await(ctx context.Context) (Result[T], error) {
	select {
	case <-f.done:
		if err := ctx.Err(); err != nil {
			// Cancellation wins even if the call raced to completion.
			return Result[T]{}, err
		}
		return f.res, nil
	case <-ctx.Done():
		return Result[T]{}, ctx.Err()
	}
}
