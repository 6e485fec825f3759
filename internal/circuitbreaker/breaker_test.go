package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_TripsAfterThreshold(t *testing.T) {
	cfg := DefaultConfig("test")
	cfg.FailureThreshold = 2
	cfg.Timeout = time.Hour

	var transitions []gobreaker.State
	cfg.OnStateChange = func(_ string, _, to gobreaker.State) {
		transitions = append(transitions, to)
	}

	cb := New[int](cfg)
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		_, err := cb.Execute(func() (int, error) { return 0, boom })
		assert.ErrorIs(t, err, boom)
	}

	_, err := cb.Execute(func() (int, error) { return 1, nil })
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	require.Len(t, transitions, 1)
	assert.Equal(t, gobreaker.StateOpen, transitions[0])
}

func TestNew_PassesResults(t *testing.T) {
	cb := New[string](DefaultConfig("ok"))

	out, err := cb.Execute(func() (string, error) { return "pong", nil })
	require.NoError(t, err)
	assert.Equal(t, "pong", out)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestNew_IgnoresCallerCancellation(t *testing.T) {
	cfg := DefaultConfig("cancel")
	cfg.FailureThreshold = 2
	cfg.Timeout = time.Hour
	cb := New[int](cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 5; i++ {
		_, err := cb.Execute(func() (int, error) {
			return 0, fmt.Errorf("failed to fetch pools: %w", ctx.Err())
		})
		assert.ErrorIs(t, err, context.Canceled)
	}
	_, err := cb.Execute(func() (int, error) {
		return 0, fmt.Errorf("request timed out: %w", context.DeadlineExceeded)
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	out, err := cb.Execute(func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, out)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}
