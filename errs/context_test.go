package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContextualError_AddContextAndLatest(t *testing.T) {
	root := errors.New("root cause")
	ce := Wrap(root)

	ce.AddContext(NewErrorContext("comp-1", "bridge.go:10", "spawn failed", 100), 5)
	ce.AddContext(NewErrorContext("comp-1", "bridge.go:42", "poll failed", 200).WithTaskID(7), 3)

	require.Equal(t, uint64(8), ce.TotalFuel)
	require.Equal(t, root, ce.RootCause())

	latest, ok := ce.LatestContext()
	require.True(t, ok)
	require.Equal(t, "poll failed", latest.Message)
	require.True(t, latest.HasTaskID)
	require.Equal(t, uint64(7), latest.TaskID)
}

func TestContextualError_ChainMerge(t *testing.T) {
	a := Wrap(errors.New("a"))
	a.AddContext(NewErrorContext("comp-1", "a.go:1", "first", 10), 2)

	b := Wrap(errors.New("b"))
	b.AddContext(NewErrorContext("comp-2", "b.go:1", "second", 20), 4)

	a.Chain(b)
	require.Equal(t, uint64(6), a.TotalFuel)

	ctxs := a.Contexts()
	require.Len(t, ctxs, 2)
	require.Equal(t, "first", ctxs[0].Message)
	require.Equal(t, "second", ctxs[1].Message)
}

func TestContextualError_ChainRingOverflow(t *testing.T) {
	ce := Wrap(errors.New("root"))
	for i := 0; i < maxContextChain+2; i++ {
		ce.AddContextFree(NewErrorContext("c", "loc", "msg", uint64(i)))
	}
	ctxs := ce.Contexts()
	require.Len(t, ctxs, maxContextChain)
	// Oldest two entries (fuel 0, 1) were evicted; oldest retained is fuel=2.
	require.Equal(t, uint64(2), ctxs[0].FuelConsumedAtPt)
}

func TestContextualError_IsMatchesWrapperType(t *testing.T) {
	ce := Wrap(errors.New("root"))
	var target *ContextualError
	require.True(t, ce.Is(target))
	require.False(t, ce.Is(errors.New("unrelated")))
}
