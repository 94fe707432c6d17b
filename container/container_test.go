package container

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// After N successful pushes, the (N+1)th fails with CapacityExceeded and
// leaves state unchanged.
func TestBoundedVec_CapacityExceeded(t *testing.T) {
	v := NewBoundedVec[int](3)
	require.NoError(t, v.Push(1))
	require.NoError(t, v.Push(2))
	require.NoError(t, v.Push(3))
	err := v.Push(4)
	require.Error(t, err)
	require.Equal(t, 3, v.Len())
	require.True(t, v.IsFull())
}

func TestBoundedVec_PushPopOrder(t *testing.T) {
	v := NewBoundedVec[string](4)
	require.NoError(t, v.Push("a"))
	require.NoError(t, v.Push("b"))
	item, ok := v.Pop()
	require.True(t, ok)
	require.Equal(t, "b", item)
	require.Equal(t, 1, v.Len())
}

func intKeyBytes(k int) []byte {
	return []byte{byte(k), byte(k >> 8), byte(k >> 16), byte(k >> 24)}
}

// Insert/get/remove round-trips preserve equality; get after remove
// returns false; len matches inserted minus removed.
func TestBoundedMap_RoundTrip(t *testing.T) {
	m := NewBoundedMap[int, string](8, intKeyBytes)
	require.NoError(t, m.Insert(1, "one"))
	require.NoError(t, m.Insert(2, "two"))
	require.NoError(t, m.Insert(3, "three"))
	require.Equal(t, 3, m.Len())

	v, ok := m.Get(2)
	require.True(t, ok)
	require.Equal(t, "two", v)

	require.True(t, m.Remove(2))
	_, ok = m.Get(2)
	require.False(t, ok)
	require.Equal(t, 2, m.Len())
}

func TestBoundedMap_CapacityExceeded(t *testing.T) {
	m := NewBoundedMap[int, int](2, intKeyBytes)
	require.NoError(t, m.Insert(1, 1))
	require.NoError(t, m.Insert(2, 2))
	err := m.Insert(3, 3)
	require.Error(t, err)
}

func TestBoundedMap_UpdateExisting(t *testing.T) {
	m := NewBoundedMap[int, int](2, intKeyBytes)
	require.NoError(t, m.Insert(1, 1))
	require.NoError(t, m.Insert(1, 2))
	require.Equal(t, 1, m.Len())
	v, _ := m.Get(1)
	require.Equal(t, 2, v)
}

func TestBoundedDeque_FIFO(t *testing.T) {
	d := NewBoundedDeque[int](3)
	require.NoError(t, d.PushBack(1))
	require.NoError(t, d.PushBack(2))
	require.NoError(t, d.PushBack(3))
	require.Error(t, d.PushBack(4))

	v, ok := d.PopFront()
	require.True(t, ok)
	require.Equal(t, 1, v)

	require.NoError(t, d.PushBack(4))
	v, _ = d.PopFront()
	require.Equal(t, 2, v)
	v, _ = d.PopFront()
	require.Equal(t, 3, v)
	v, _ = d.PopFront()
	require.Equal(t, 4, v)
	require.True(t, d.IsEmpty())
}

func TestBoundedStack_LIFO(t *testing.T) {
	s := NewBoundedStack[int](2)
	require.NoError(t, s.Push(1))
	require.NoError(t, s.Push(2))
	require.Error(t, s.Push(3))
	v, ok := s.Pop()
	require.True(t, ok)
	require.Equal(t, 2, v)
}

// Bounded string from valid UTF-8 bytes round-trips byte-exactly.
func TestBoundedString_RoundTrip(t *testing.T) {
	s, err := NewBoundedStringFromBytes(32, []byte("héllo wörld"))
	require.NoError(t, err)
	b, err := s.ToBytes()
	require.NoError(t, err)
	require.Equal(t, "héllo wörld", string(b))
}

func TestBoundedString_CapacityExceeded(t *testing.T) {
	_, err := NewBoundedStringFromBytes(4, []byte("hello"))
	require.Error(t, err)
}

func TestBoundedString_PushStrExceeds(t *testing.T) {
	s := NewBoundedString(5)
	require.NoError(t, s.PushStr("ab"))
	err := s.PushStr("cdef")
	require.Error(t, err)
	require.Equal(t, "ab", s.String())
}

func TestBoundedString_RejectsSurrogate(t *testing.T) {
	// 0xED 0xA0 0x80 encodes U+D800 in (invalid) WTF-8.
	_, err := NewBoundedStringFromBytes(8, []byte{0xED, 0xA0, 0x80})
	require.Error(t, err)
}
