package memory

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wrtcore/fuelrt/budget"
)

// A forward-overlapping move (dst inside the source window) must not let
// earlier chunk writes clobber source bytes later chunks still read.
func TestAtomicMemoryOps_CopyWithin_ForwardOverlap(t *testing.T) {
	p := NewNoStdProvider(2048)
	handler := NewSafeMemoryHandler(p, budget.Standard, nil)
	ops := NewAtomicMemoryOps(handler)

	data := make([]byte, 1000)
	for i := range data {
		data[i] = byte(i)
	}
	require.NoError(t, ops.AtomicWriteWithChecksum(0, data))

	// Shift right by 100: dst=100 aliases [100, 1000) of the source.
	require.NoError(t, ops.AtomicCopyWithin(0, 100, 1000))

	got, err := handler.BorrowSlice(100, 1000)
	require.NoError(t, err)
	require.Equal(t, data, got.Bytes())
	require.NoError(t, ops.VerifyWindow(100, 1000))
}

// A backward move (dst before src) copies front-to-back.
func TestAtomicMemoryOps_CopyWithin_Backward(t *testing.T) {
	p := NewNoStdProvider(2048)
	handler := NewSafeMemoryHandler(p, budget.Standard, nil)
	ops := NewAtomicMemoryOps(handler)

	data := make([]byte, 600)
	for i := range data {
		data[i] = byte(255 - i%256)
	}
	require.NoError(t, ops.AtomicWriteWithChecksum(200, data))
	require.NoError(t, ops.AtomicCopyWithin(200, 0, 600))

	got, err := handler.BorrowSlice(0, 600)
	require.NoError(t, err)
	require.Equal(t, data, got.Bytes())
}

// A copy's destination window is checksummed like a write, so later
// out-of-band corruption of the copied region is detectable.
func TestAtomicMemoryOps_CopyRecordsDestinationChecksum(t *testing.T) {
	p := NewNoStdProvider(256)
	handler := NewSafeMemoryHandler(p, budget.Standard, nil)
	ops := NewAtomicMemoryOps(handler)

	require.NoError(t, ops.AtomicWriteWithChecksum(0, []byte("payload-bytes")))
	require.NoError(t, ops.AtomicCopyWithin(0, 64, 13))
	require.NoError(t, ops.VerifyWindow(64, 13))

	raw, err := p.GetSliceMut(64, 13)
	require.NoError(t, err)
	raw.Bytes()[0] = 'X'

	require.Error(t, ops.VerifyWindow(64, 13))
}

// Windows never written through AtomicMemoryOps verify vacuously; only
// tracked windows can report a violation.
func TestAtomicMemoryOps_UntrackedWindowVerifies(t *testing.T) {
	p := NewNoStdProvider(128)
	handler := NewSafeMemoryHandler(p, budget.Standard, nil)
	ops := NewAtomicMemoryOps(handler)

	require.NoError(t, ops.VerifyWindow(0, 64))
}

func TestAtomicMemoryOps_WriteOutOfBounds(t *testing.T) {
	p := NewNoStdProvider(16)
	handler := NewSafeMemoryHandler(p, budget.Basic, nil)
	ops := NewAtomicMemoryOps(handler)

	require.Error(t, ops.AtomicWriteWithChecksum(8, make([]byte, 16)))
	require.Error(t, ops.AtomicCopyWithin(0, 8, 16))
}

func TestProvider_DeallocateLIFOReclaims(t *testing.T) {
	p := NewNoStdProvider(64)

	a, err := p.Allocate(32)
	require.NoError(t, err)
	b, err := p.Allocate(32)
	require.NoError(t, err)

	// Freeing the most recent allocation reclaims its bytes.
	require.NoError(t, p.Deallocate(b))
	c, err := p.Allocate(32)
	require.NoError(t, err)
	require.Equal(t, 32, c.Len())

	// Freeing out of LIFO order is a no-op: the bytes stay reserved.
	require.NoError(t, p.Deallocate(a))
	_, err = p.Allocate(1)
	require.Error(t, err)
}

func TestSafeMemoryHandler_ZeroSizeAllocation(t *testing.T) {
	p := NewNoStdProvider(64)

	strict := NewSafeMemoryHandler(p, budget.Basic, nil)
	_, err := strict.Allocate(0)
	require.Error(t, err)

	lax := NewSafeMemoryHandler(NewNoStdProvider(64), budget.Off, nil)
	_, err = lax.Allocate(0)
	require.NoError(t, err)
}

func TestSafeMemoryHandler_OperationEvents(t *testing.T) {
	p := NewNoStdProvider(64)
	h := NewSafeMemoryHandler(p, budget.Basic, nil)

	_, _ = h.BorrowSlice(0, 8)
	_, _ = h.GetSliceMut(0, 8)
	_, _ = h.BorrowSlice(0, 8)
	require.Equal(t, uint64(3), h.OperationEvents())
}
