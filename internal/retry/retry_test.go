package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicySucceedsAfterRetries(t *testing.T) {
	calls := 0
	p := Policy{MaxAttempts: 5, Backoff: func(int) time.Duration { return 0 }}

	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestPolicyExhaustsAttempts(t *testing.T) {
	calls := 0
	boom := errors.New("still broken")
	p := Policy{MaxAttempts: 5, Backoff: func(int) time.Duration { return 0 }}

	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 5, calls)
}

func TestPolicyStopsOnNonRetryable(t *testing.T) {
	fatal := errors.New("bad credentials format")
	calls := 0
	p := Policy{
		MaxAttempts: 5,
		Backoff:     func(int) time.Duration { return 0 },
		Retryable:   func(err error) bool { return !errors.Is(err, fatal) },
	}

	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return fatal
	})
	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestPolicyHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 0, Backoff: func(int) time.Duration { return 10 * time.Millisecond }}

	calls := 0
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	err := p.Do(ctx, func(context.Context) error {
		calls++
		return errors.New("transient")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, calls, 1)
}

func TestLinearBackoff(t *testing.T) {
	b := Linear(3*time.Second, 10*time.Second)
	assert.Equal(t, 3*time.Second, b(0))
	assert.Equal(t, 6*time.Second, b(1))
	assert.Equal(t, 9*time.Second, b(2))
	assert.Equal(t, 10*time.Second, b(3), "capped")
}

func TestExponentialBackoff(t *testing.T) {
	b := Exponential(500*time.Millisecond, 8*time.Second)
	assert.Equal(t, 500*time.Millisecond, b(0))
	assert.Equal(t, time.Second, b(1))
	assert.Equal(t, 2*time.Second, b(2))
	assert.Equal(t, 8*time.Second, b(5), "capped")
	assert.Equal(t, 8*time.Second, b(40), "overflow clamps to max")
}
