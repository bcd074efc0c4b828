package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetting/pkg/platform/sentinel"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastConfig() Config {
	return Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
	}
}

func TestExecuteRetriesTemporaryFailure(t *testing.T) {
	exec := NewExecutor(fastConfig(), quietLogger())

	attempts := 0
	err := exec.Execute(context.Background(), "history.append", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return sentinel.ErrUnavailable
		}
		return nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestExecuteDoesNotRetryDuplicate(t *testing.T) {
	exec := NewExecutor(fastConfig(), quietLogger())

	attempts := 0
	err := exec.Execute(context.Background(), "history.append", func(context.Context) error {
		attempts++
		return fmt.Errorf("append: %w", sentinel.ErrDuplicate)
	}, nil)
	assert.ErrorIs(t, err, sentinel.ErrDuplicate)
	assert.Equal(t, 1, attempts)
}

func TestExecuteReturnsLastErrorWhenExhausted(t *testing.T) {
	exec := NewExecutor(fastConfig(), quietLogger())

	attempts := 0
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		return sentinel.ErrUnavailable
	}, nil)
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	assert.Equal(t, 3, attempts)
}

func TestExecuteOpensCircuitAfterFailures(t *testing.T) {
	cfg := fastConfig()
	cfg.RetryMaxAttempts = 1
	cfg.BreakerEnabled = true
	cfg.BreakerMinRequests = 2
	cfg.BreakerFailureRatio = 0.5
	cfg.BreakerOpenTimeout = time.Minute
	exec := NewExecutor(cfg, quietLogger())

	errDown := errors.New("connection refused")
	for i := 0; i < 2; i++ {
		err := exec.Execute(context.Background(), "op", func(context.Context) error { return errDown }, nil)
		require.ErrorIs(t, err, errDown)
	}

	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		t.Fatal("circuit should be open")
		return nil
	}, nil)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.True(t, IsCircuitOpen(err))
}

func TestExecuteStopsOnCancelledContext(t *testing.T) {
	exec := NewExecutor(fastConfig(), quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := exec.Execute(ctx, "op", func(context.Context) error {
		called = true
		return nil
	}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestConfigNormalize(t *testing.T) {
	cfg := Config{RetryInitialBackoff: time.Second, RetryMaxBackoff: time.Millisecond}.normalize()
	assert.Equal(t, DefaultConfig().RetryMaxAttempts, cfg.RetryMaxAttempts)
	assert.Equal(t, time.Second, cfg.RetryMaxBackoff)
	assert.Equal(t, DefaultConfig().RetryMultiplier, cfg.RetryMultiplier)
}
