package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(attempts int) Config {
	return Config{MaxAttempts: attempts, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}
}

func TestDo_SucceedsAfterRetry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(3), "test", func(_ context.Context, attempt int) error {
		calls++
		if attempt < 2 {
			return errors.New("flaky")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDo_StopsAtMaxAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(3), "test", func(context.Context, int) error {
		calls++
		return errors.New("down")
	})

	require.Error(t, err)
	assert.Equal(t, "down", err.Error())
	assert.Equal(t, 3, calls)
}

func TestDo_PermanentErrorStopsImmediately(t *testing.T) {
	sentinel := errors.New("bad credentials")
	calls := 0
	err := Do(context.Background(), fastConfig(5), "test", func(context.Context, int) error {
		calls++
		return Permanent(sentinel)
	})

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
}

func TestDo_RetryableClassifier(t *testing.T) {
	cfg := fastConfig(4)
	cfg.Retryable = func(err error) bool { return err.Error() == "transient" }

	calls := 0
	err := Do(context.Background(), cfg, "test", func(context.Context, int) error {
		calls++
		return errors.New("fatal")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{MaxAttempts: 3, InitialDelay: time.Hour, Multiplier: 2}

	err := Do(ctx, cfg, "test", func(context.Context, int) error {
		cancel()
		return errors.New("down")
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestDelay(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 500*time.Millisecond, Delay(cfg, 1))
	assert.Equal(t, time.Second, Delay(cfg, 2))
	assert.Equal(t, 2*time.Second, Delay(cfg, 3))
	assert.Equal(t, 4*time.Second, Delay(cfg, 5), "capped at MaxDelay")
}
