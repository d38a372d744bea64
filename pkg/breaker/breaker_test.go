package breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute_PassesThroughResult(t *testing.T) {
	t.Parallel()

	cb := New("test", time.Minute)
	got, err := Execute(cb, func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestExecute_OpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	cb := New("test", time.Minute)
	boom := errors.New("broker down")

	for i := 0; i < consecutiveFailuresToTrip; i++ {
		_, err := Execute(cb, func() (struct{}, error) { return struct{}{}, boom })
		require.ErrorIs(t, err, boom)
	}

	calls := 0
	_, err := Execute(cb, func() (struct{}, error) {
		calls++
		return struct{}{}, nil
	})
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Zero(t, calls)
	assert.Equal(t, gobreaker.StateOpen, cb.State())
}
