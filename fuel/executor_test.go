package fuel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wrtcore/fuelrt/budget"
)

func yieldingForever(w *Waker) Future {
	return FutureFunc(func() (PollOutcome, error) { return YieldOutcome, nil })
}

func pendingForever(w *Waker) Future {
	return FutureFunc(func() (PollOutcome, error) { return PendingOutcome, nil })
}

// Deadlines are expressed in the executor's tick domain: one tick per
// PollTasks batch. A task whose deadline tick has passed fails with
// DeadlineMissed instead of being polled.
func TestExecutor_DeadlineMissed(t *testing.T) {
	e := New(WithGlobalFuelLimit(10_000))

	deadline := uint64(1)
	id, err := e.SpawnTask(1, 1000, Normal, &deadline, yieldingForever)
	require.NoError(t, err)

	// Tick 1: not past the deadline yet, task runs.
	_, err = e.PollTasks()
	require.NoError(t, err)
	status, _ := e.GetTaskStatus(id)
	require.Equal(t, Ready, status.State)

	// Tick 2: past the deadline, task fails without running.
	_, err = e.PollTasks()
	require.NoError(t, err)
	status, _ = e.GetTaskStatus(id)
	require.Equal(t, Failed, status.State)
	require.Equal(t, DeadlineMissed, status.FailureReason)
}

// With every task Waiting and no outstanding waker, the executor counts
// no-progress rounds and fails the stuck tasks once the grace is spent.
func TestExecutor_DeadlockDetection(t *testing.T) {
	e := New(WithGlobalFuelLimit(10_000), WithDeadlockGraceRounds(2))

	id, err := e.SpawnTask(1, 1000, Normal, nil, pendingForever)
	require.NoError(t, err)

	n, err := e.PollTasks()
	require.NoError(t, err)
	require.Equal(t, 1, n) // task suspends

	for i := 0; i < 2; i++ {
		n, err = e.PollTasks()
		require.NoError(t, err)
		require.Equal(t, 0, n)
	}

	status, ok := e.GetTaskStatus(id)
	require.True(t, ok)
	require.Equal(t, Failed, status.State)
	require.Equal(t, Deadlock, status.FailureReason)
}

// A wake arriving before the grace runs out resets nothing permanently:
// the woken task makes progress and no deadlock is declared.
func TestExecutor_WakeDefusesDeadlock(t *testing.T) {
	e := New(WithGlobalFuelLimit(10_000), WithDeadlockGraceRounds(2))

	var waker *Waker
	id, err := e.SpawnTask(1, 1000, Normal, nil, func(w *Waker) Future {
		waker = w
		woken := false
		return FutureFunc(func() (PollOutcome, error) {
			if woken {
				return ReadyOutcome, nil
			}
			woken = true
			return PendingOutcome, nil
		})
	})
	require.NoError(t, err)

	_, err = e.PollTasks()
	require.NoError(t, err)
	_, err = e.PollTasks() // one no-progress round
	require.NoError(t, err)

	waker.Wake()
	n, err := e.PollTasks()
	require.NoError(t, err)
	require.Equal(t, 1, n)

	status, _ := e.GetTaskStatus(id)
	require.Equal(t, Completed, status.State)
}

// Cancelling drops the future and returns unused fuel at the next poll.
func TestExecutor_CancelReapsFutureAndFuel(t *testing.T) {
	e := New(WithGlobalFuelLimit(10_000))

	id, err := e.SpawnTask(1, 500, Normal, nil, pendingForever)
	require.NoError(t, err)

	_, err = e.PollTasks()
	require.NoError(t, err)
	require.NoError(t, e.Cancel(id))

	_, err = e.PollTasks()
	require.NoError(t, err)

	stats := e.Stats()
	require.Equal(t, uint64(1), stats.Cancelled)
	// One poll cost 20 fuel; the remaining 480 of the task's 500 budget
	// flowed back to the pool when the future was dropped.
	require.Equal(t, Fuel(480), stats.FuelReturnedTotal)

	status, ok := e.GetTaskStatus(id)
	require.True(t, ok)
	require.Equal(t, Cancelled, status.State)
	require.Equal(t, TaskCancelled, status.FailureReason)
}

// Release frees the bounded slot of a terminal task; live tasks refuse.
func TestExecutor_Release(t *testing.T) {
	e := New(WithGlobalFuelLimit(10_000), WithMaxTasks(1))

	id, err := e.SpawnTask(1, 100, Normal, nil, func(w *Waker) Future {
		return FutureFunc(func() (PollOutcome, error) { return ReadyOutcome, nil })
	})
	require.NoError(t, err)

	require.Error(t, e.Release(id)) // still live

	_, err = e.PollTasks()
	require.NoError(t, err)
	require.NoError(t, e.Release(id))

	_, ok := e.GetTaskStatus(id)
	require.False(t, ok)

	// The slot is free again.
	_, err = e.SpawnTask(1, 100, Normal, nil, func(w *Waker) Future {
		return FutureFunc(func() (PollOutcome, error) { return ReadyOutcome, nil })
	})
	require.NoError(t, err)
}

// Under Off verification every metered cost multiplies to zero: tasks
// run on spawn reservations alone and never exhaust mid-flight.
func TestExecutor_VerificationOff_ZeroPollCost(t *testing.T) {
	e := New(WithGlobalFuelLimit(10_000), WithVerificationLevel(budget.Off))

	id, err := e.SpawnTask(1, 1, Normal, nil, func(w *Waker) Future {
		steps := 0
		return FutureFunc(func() (PollOutcome, error) {
			steps++
			if steps >= 10 {
				return ReadyOutcome, nil
			}
			return YieldOutcome, nil
		})
	})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, err := e.PollTasks()
		require.NoError(t, err)
	}

	status, _ := e.GetTaskStatus(id)
	require.Equal(t, Completed, status.State)
	require.Equal(t, Fuel(0), status.FuelConsumed)
}

// Redundant verification inflates the poll cost 16x, so the same future
// exhausts a budget that was comfortable under Basic.
func TestExecutor_VerificationRedundant_InflatesCost(t *testing.T) {
	e := New(WithGlobalFuelLimit(10_000), WithVerificationLevel(budget.Redundant))

	id, err := e.SpawnTask(1, 100, Normal, nil, yieldingForever)
	require.NoError(t, err)

	_, err = e.PollTasks()
	require.NoError(t, err)

	status, _ := e.GetTaskStatus(id)
	require.Equal(t, Failed, status.State)
	require.Equal(t, FuelExhausted, status.FailureReason)
}

func TestExecutor_WakeMeter(t *testing.T) {
	e := New(WithGlobalFuelLimit(10_000))

	var waker *Waker
	_, err := e.SpawnTask(1, 1000, Normal, nil, func(w *Waker) Future {
		waker = w
		return FutureFunc(func() (PollOutcome, error) { return PendingOutcome, nil })
	})
	require.NoError(t, err)

	_, err = e.PollTasks()
	require.NoError(t, err)

	waker.Wake()
	waker.Wake()
	require.Equal(t, 2*WakerCost, e.WakeMeter())
}

func TestExecutor_WakeAfterShutdownIsNoOp(t *testing.T) {
	e := New(WithGlobalFuelLimit(10_000))

	var waker *Waker
	_, err := e.SpawnTask(1, 1000, Normal, nil, func(w *Waker) Future {
		waker = w
		return FutureFunc(func() (PollOutcome, error) { return PendingOutcome, nil })
	})
	require.NoError(t, err)

	_, err = e.PollTasks()
	require.NoError(t, err)
	require.NoError(t, e.Shutdown())

	waker.Wake() // must not panic or resurrect anything
	require.Equal(t, Fuel(0), e.WakeMeter())
}

// A future returning an error fails the task; a panicking future is
// contained and recorded as a panic failure.
func TestExecutor_FutureErrorAndPanic(t *testing.T) {
	e := New(WithGlobalFuelLimit(10_000))

	errID, err := e.SpawnTask(1, 1000, Normal, nil, func(w *Waker) Future {
		return FutureFunc(func() (PollOutcome, error) { return PendingOutcome, errors.New("host fault") })
	})
	require.NoError(t, err)

	panicID, err := e.SpawnTask(1, 1000, Normal, nil, func(w *Waker) Future {
		return FutureFunc(func() (PollOutcome, error) { panic("unreachable instruction") })
	})
	require.NoError(t, err)

	_, err = e.PollTasks()
	require.NoError(t, err)

	status, _ := e.GetTaskStatus(errID)
	require.Equal(t, Failed, status.State)
	require.Equal(t, TaskError, status.FailureReason)

	status, _ = e.GetTaskStatus(panicID)
	require.Equal(t, Failed, status.State)
	require.Equal(t, TaskPanic, status.FailureReason)
}
