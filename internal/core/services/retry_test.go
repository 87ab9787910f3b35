package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryPolicy_Backoff(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, InitialBackoff: 100 * time.Millisecond, MaxBackoff: 350 * time.Millisecond}

	assert.Equal(t, time.Duration(0), p.Backoff(0))
	assert.Equal(t, 100*time.Millisecond, p.Backoff(1))
	assert.Equal(t, 200*time.Millisecond, p.Backoff(2))
	assert.Equal(t, 350*time.Millisecond, p.Backoff(3))
	assert.Equal(t, 350*time.Millisecond, p.Backoff(10))
}

func TestRetryPolicy_Defaults(t *testing.T) {
	p := DefaultRetryPolicy()
	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, 200*time.Millisecond, p.Backoff(1))
}

func TestRetryPolicy_Do(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := fastRetry(3).Do(ctx, "op", func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("returns last error when attempts run out", func(t *testing.T) {
		calls := 0
		err := fastRetry(2).Do(ctx, "op", func(context.Context) error {
			calls++
			return errors.New("still down")
		})
		assert.EqualError(t, err, "still down")
		assert.Equal(t, 2, calls)
	})

	t.Run("zero attempts still tries once", func(t *testing.T) {
		calls := 0
		_ = RetryPolicy{}.Do(ctx, "op", func(context.Context) error {
			calls++
			return errors.New("fail")
		})
		assert.Equal(t, 1, calls)
	})

	t.Run("context errors are not retried", func(t *testing.T) {
		calls := 0
		err := fastRetry(5).Do(ctx, "op", func(context.Context) error {
			calls++
			return context.DeadlineExceeded
		})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled while waiting", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		p := RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Hour}
		err := p.Do(cctx, "op", func(context.Context) error {
			cancel()
			return errors.New("fail")
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
