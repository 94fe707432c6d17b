package platform

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMmapAllocator_AllocateGrowDeallocate(t *testing.T) {
	a := NewMmapAllocator()

	r, err := a.Allocate(1, 4)
	require.NoError(t, err)
	require.Equal(t, PageSize, r.Len())
	require.Equal(t, 4*PageSize, r.Cap())
	require.Len(t, r.Bytes(), PageSize)

	require.NoError(t, a.Grow(r, 2))
	require.Equal(t, 3*PageSize, r.Len())

	err = a.Grow(r, 10)
	require.Error(t, err)
	require.Equal(t, 3*PageSize, r.Len()) // failed grow leaves region unchanged

	require.NoError(t, a.Deallocate(r))
}

func TestMmapAllocator_InvalidPageCounts(t *testing.T) {
	a := NewMmapAllocator()
	_, err := a.Allocate(5, 2) // initial > max
	require.Error(t, err)
}

func TestMmapAllocator_ZeroInitialPages(t *testing.T) {
	a := NewMmapAllocator()
	r, err := a.Allocate(0, 2)
	require.NoError(t, err)
	require.Equal(t, 0, r.Len())

	require.NoError(t, a.Grow(r, 1))
	require.Equal(t, PageSize, r.Len())
}
