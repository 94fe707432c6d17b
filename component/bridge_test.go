package component

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wrtcore/fuelrt/errs"
	"github.com/wrtcore/fuelrt/fuel"
)

func newTestBridge(t *testing.T) (*Bridge, *fuel.Executor) {
	t.Helper()
	e := fuel.New(fuel.WithGlobalFuelLimit(100_000))
	return New(e, WithTaskTableCapacity(8)), e
}

func TestBridge_SpawnRequiresRegistration(t *testing.T) {
	b, _ := newTestBridge(t)
	_, err := b.SpawnComponentAsync(1, nil, func(w *fuel.Waker) fuel.Future {
		return fuel.FutureFunc(func() (fuel.PollOutcome, error) { return fuel.ReadyOutcome, nil })
	})
	require.Error(t, err)
	var coded *errs.CodedError
	require.ErrorAs(t, err, &coded)
	require.Equal(t, errs.CodeComponentNotRegistered, coded.Code)
}

func TestBridge_ConcurrencyCap(t *testing.T) {
	b, _ := newTestBridge(t)
	b.RegisterComponent(1, 1, 1000, fuel.Normal)

	makeFuture := func(w *fuel.Waker) fuel.Future {
		return fuel.FutureFunc(func() (fuel.PollOutcome, error) { return fuel.PendingOutcome, nil })
	}
	_, err := b.SpawnComponentAsync(1, nil, makeFuture)
	require.NoError(t, err)

	_, err = b.SpawnComponentAsync(1, nil, makeFuture)
	require.Error(t, err)
	var coded *errs.CodedError
	require.ErrorAs(t, err, &coded)
	require.Equal(t, errs.CodeComponentLimitExceeded, coded.Code)
}

func TestBridge_PollAsyncTasks_ReapsAndReturnsUnusedFuel(t *testing.T) {
	b, _ := newTestBridge(t)
	b.RegisterComponent(1, 4, 1000, fuel.Normal)

	ctID, err := b.SpawnComponentAsync(1, nil, func(w *fuel.Waker) fuel.Future {
		return fuel.FutureFunc(func() (fuel.PollOutcome, error) { return fuel.ReadyOutcome, nil })
	})
	require.NoError(t, err)

	result, err := b.PollAsyncTasks()
	require.NoError(t, err)
	require.Equal(t, 1, result.Completed)

	require.False(t, b.IsTaskReady(ctID)) // reaped, no longer tracked

	stats, ok := b.GetComponentStats(1)
	require.True(t, ok)
	require.Equal(t, 0, stats.ActiveTasks)
	require.Equal(t, uint64(1), stats.Completed)
	require.Greater(t, stats.FuelRemaining, fuel.Fuel(0)) // unused fuel returned
}

func TestBridge_TaskTableOverflowReturnsTooManyTasks(t *testing.T) {
	b, _ := newTestBridge(t)
	b.RegisterComponent(1, 100, 100_000, fuel.Normal)

	makeFuture := func(w *fuel.Waker) fuel.Future {
		return fuel.FutureFunc(func() (fuel.PollOutcome, error) { return fuel.PendingOutcome, nil })
	}
	// An explicit per-task budget: a nil budget would reserve the whole
	// component pool for the first task.
	fb := fuel.Fuel(1000)
	for i := 0; i < 8; i++ {
		_, err := b.SpawnComponentAsync(1, &fb, makeFuture)
		require.NoError(t, err)
	}

	_, err := b.SpawnComponentAsync(1, &fb, makeFuture)
	require.Error(t, err)
	var coded *errs.CodedError
	require.ErrorAs(t, err, &coded)
	require.Equal(t, errs.CodeTooManyTasks, coded.Code)
}

func TestBridge_SetGlobalFuelBudgetAndPollingStats(t *testing.T) {
	b, _ := newTestBridge(t)
	b.RegisterComponent(1, 4, 1000, fuel.Normal)

	ctID, err := b.SpawnComponentAsync(1, nil, func(w *fuel.Waker) fuel.Future {
		return fuel.FutureFunc(func() (fuel.PollOutcome, error) { return fuel.ReadyOutcome, nil })
	})
	require.NoError(t, err)
	_ = ctID

	b.SetGlobalFuelBudget(50)

	stats := b.GetPollingStats()
	require.Equal(t, uint64(1), stats.Spawned)
}

func TestBridge_IsTaskReady(t *testing.T) {
	b, e := newTestBridge(t)
	b.RegisterComponent(1, 4, 1000, fuel.Normal)

	ctID, err := b.SpawnComponentAsync(1, nil, func(w *fuel.Waker) fuel.Future {
		return fuel.FutureFunc(func() (fuel.PollOutcome, error) { return fuel.ReadyOutcome, nil })
	})
	require.NoError(t, err)
	require.True(t, b.IsTaskReady(ctID))

	_, err = e.PollTasks()
	require.NoError(t, err)
}
