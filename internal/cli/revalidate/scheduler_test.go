package revalidate

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelsystem/tso/internal/cli/bootstrap"
)

type countingRunner struct {
	runs  atomic.Int32
	state bootstrap.State
}

func (r *countingRunner) Run(ctx context.Context) (bootstrap.State, error) {
	r.runs.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return bootstrap.StateUnknown, context.Canceled
	}
	return r.state, nil
}

func TestNewScheduler_RejectsInvalidSchedule(t *testing.T) {
	_, err := NewScheduler(&countingRunner{}, "every five minutes", time.Second, zerolog.Nop())
	assert.Error(t, err)
}

func TestScheduler_Next(t *testing.T) {
	s, err := NewScheduler(&countingRunner{}, "*/15 * * * *", time.Second, zerolog.Nop())
	require.NoError(t, err)

	from := time.Date(2026, 3, 1, 10, 7, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 15, 0, 0, time.UTC), s.Next(from))

	every, err := NewScheduler(&countingRunner{}, "@every 5m", time.Second, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, from.Add(5*time.Minute), every.Next(from))
}

func TestScheduler_RunOnceAppliesTimeout(t *testing.T) {
	runner := &countingRunner{state: bootstrap.StateAuthenticated}
	s, err := NewScheduler(runner, "@every 1h", time.Second, zerolog.Nop())
	require.NoError(t, err)

	state, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, bootstrap.StateAuthenticated, state)
	assert.Equal(t, int32(1), runner.runs.Load())
}

func TestScheduler_TicksUntilStopped(t *testing.T) {
	runner := &countingRunner{state: bootstrap.StateUnauthenticated}
	s, err := NewScheduler(runner, "@every 1s", time.Second, zerolog.Nop())
	require.NoError(t, err)

	s.Start(context.Background())
	require.Eventually(t, func() bool { return runner.runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
	s.Stop()

	runs := runner.runs.Load()
	time.Sleep(1200 * time.Millisecond)
	assert.Equal(t, runs, runner.runs.Load())
}
