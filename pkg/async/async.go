package async

import (
	"context"
	"time"
)

// Future represents the result of an asynchronous computation.
type Future[U any] struct {
	result U
	err    error
	done   chan struct{}
}

// Await blocks until the computation completes.
func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.result, f.err
}

// AwaitWithTimeout waits at most timeout. The computation keeps running after a timeout.
func (f *Future[U]) AwaitWithTimeout(timeout time.Duration) (U, error) {
	select {
	case <-f.done:
		return f.result, f.err
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-f.done:
		return f.result, f.err
	case <-timer.C:
		var zero U
		return zero, ErrTimeout
	}
}

// Async executes fn(ctx, param) in a goroutine.
func Async[T any, U any](ctx context.Context, param T, fn func(context.Context, T) (U, error)) *Future[U] {
	f := &Future[U]{done: make(chan struct{})}

	go func() {
		defer close(f.done)
		if err := ctx.Err(); err != nil {
			f.err = err
			return
		}
		f.result, f.err = fn(ctx, param)
	}()

	return f
}

// Run is Async for functions that only return an error.
func Run[T any](ctx context.Context, param T, fn func(context.Context, T) error) *Future[struct{}] {
	return Async(ctx, param, func(ctx context.Context, p T) (struct{}, error) {
		return struct{}{}, fn(ctx, p)
	})
}

// Settle waits for every future, sharing one deadline, and returns one error per future
// in the same order. Futures still running at the deadline report ErrTimeout.
func Settle[U any](timeout time.Duration, futures ...*Future[U]) []error {
	deadline := time.Now().Add(timeout)
	errs := make([]error, len(futures))
	for i, f := range futures {
		remaining := time.Until(deadline)
		if remaining < 0 {
			remaining = 0
		}
		_, errs[i] = f.AwaitWithTimeout(remaining)
	}
	return errs
}
