package component

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wrtcore/fuelrt/fuel"
)

// Terminal entries are reclaimed from the bounded task table, so churn
// through short-lived tasks never wedges a long-running component.
func TestBridge_ScavengeReclaimsTerminalEntries(t *testing.T) {
	e := fuel.New(fuel.WithGlobalFuelLimit(1_000_000))
	b := New(e, WithTaskTableCapacity(4))
	b.RegisterComponent(1, 16, 1000, fuel.Normal)

	oneShot := func(w *fuel.Waker) fuel.Future {
		return fuel.FutureFunc(func() (fuel.PollOutcome, error) { return fuel.ReadyOutcome, nil })
	}

	// Fill the table, complete everything, then keep spawning: each new
	// wave fits because PollAsyncTasks reaped the completed wave's entries.
	// Each task gets an explicit 100-fuel budget; a nil budget would
	// reserve the component's whole 1000-fuel pool for one task.
	fb := fuel.Fuel(100)
	for wave := 0; wave < 3; wave++ {
		for i := 0; i < 4; i++ {
			_, err := b.SpawnComponentAsync(1, &fb, oneShot)
			require.NoError(t, err)
		}
		result, err := b.PollAsyncTasks()
		require.NoError(t, err)
		require.Equal(t, 4, result.Completed)
	}

	stats, ok := b.GetComponentStats(1)
	require.True(t, ok)
	require.Equal(t, uint64(12), stats.Spawned)
	require.Equal(t, uint64(12), stats.Completed)
	require.Equal(t, 0, stats.ActiveTasks)
}

// Explicit Scavenge compacts without waiting for a failed insert.
func TestBridge_ExplicitScavenge(t *testing.T) {
	e := fuel.New(fuel.WithGlobalFuelLimit(1_000_000))
	b := New(e, WithTaskTableCapacity(4))
	b.RegisterComponent(1, 16, 1000, fuel.Normal)

	pending := func(w *fuel.Waker) fuel.Future {
		return fuel.FutureFunc(func() (fuel.PollOutcome, error) { return fuel.PendingOutcome, nil })
	}

	ctID, err := b.SpawnComponentAsync(1, nil, pending)
	require.NoError(t, err)

	b.Scavenge()

	// The live task survives compaction: still tracked and still Ready.
	require.True(t, b.IsTaskReady(ctID))

	_, err = b.PollAsyncTasks() // suspends on first poll
	require.NoError(t, err)
	require.False(t, b.IsTaskReady(ctID))

	stats, _ := b.GetComponentStats(1)
	require.Equal(t, 1, stats.ActiveTasks)
}
