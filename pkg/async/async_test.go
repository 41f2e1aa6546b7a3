package async_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/membership/pkg/async"
)

func TestAsync_Await(t *testing.T) {
	t.Parallel()

	f := async.Async(context.Background(), 21, func(_ context.Context, n int) (int, error) {
		return n * 2, nil
	})
	v, err := f.Await()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestAsync_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	f := async.Run(ctx, "x", func(context.Context, string) error {
		called = true
		return nil
	})
	_, err := f.Await()
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestSettle(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	ctx := context.Background()

	ok := async.Run(ctx, 0, func(context.Context, int) error { return nil })
	failed := async.Run(ctx, 0, func(context.Context, int) error { return boom })
	slow := async.Run(ctx, 0, func(context.Context, int) error {
		time.Sleep(500 * time.Millisecond)
		return nil
	})

	errs := async.Settle(50*time.Millisecond, ok, failed, slow)
	require.Len(t, errs, 3)
	assert.NoError(t, errs[0])
	assert.ErrorIs(t, errs[1], boom)
	assert.ErrorIs(t, errs[2], async.ErrTimeout)
}
