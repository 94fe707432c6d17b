package container

import "github.com/wrtcore/fuelrt/errs"

// BoundedVec is a sequence of up to Capacity() items, never reallocating
// past its construction-time capacity. Push fails with CapacityExceeded
// once full instead of growing, the same discipline every bounded
// container in this runtime follows.
type BoundedVec[T any] struct {
	items []T
	cap   int
}

// NewBoundedVec constructs a BoundedVec with the given fixed capacity.
func NewBoundedVec[T any](capacity int) *BoundedVec[T] {
	return &BoundedVec[T]{items: make([]T, 0, capacity), cap: capacity}
}

func (v *BoundedVec[T]) Len() int      { return len(v.items) }
func (v *BoundedVec[T]) Capacity() int { return v.cap }
func (v *BoundedVec[T]) IsFull() bool  { return len(v.items) >= v.cap }
func (v *BoundedVec[T]) IsEmpty() bool { return len(v.items) == 0 }

// Push appends an item, failing with CapacityExceeded when full. On
// failure the vec's state is left entirely unchanged.
func (v *BoundedVec[T]) Push(item T) error {
	if v.IsFull() {
		return errs.New(errs.Core, errs.CodeCapacityExceeded, "BoundedVec: capacity exceeded")
	}
	v.items = append(v.items, item)
	return nil
}

// Pop removes and returns the last item, if any.
func (v *BoundedVec[T]) Pop() (T, bool) {
	var zero T
	if len(v.items) == 0 {
		return zero, false
	}
	n := len(v.items) - 1
	item := v.items[n]
	v.items[n] = zero
	v.items = v.items[:n]
	return item, true
}

// Get returns the item at index, if in range.
func (v *BoundedVec[T]) Get(index int) (T, bool) {
	var zero T
	if index < 0 || index >= len(v.items) {
		return zero, false
	}
	return v.items[index], true
}

// Set overwrites the item at index, if in range.
func (v *BoundedVec[T]) Set(index int, item T) bool {
	if index < 0 || index >= len(v.items) {
		return false
	}
	v.items[index] = item
	return true
}

// Clear empties the vec without shrinking its backing capacity.
func (v *BoundedVec[T]) Clear() {
	var zero T
	for i := range v.items {
		v.items[i] = zero
	}
	v.items = v.items[:0]
}

// Each iterates items in insertion order; fn returning false stops
// iteration early.
func (v *BoundedVec[T]) Each(fn func(index int, item T) bool) {
	for i, item := range v.items {
		if !fn(i, item) {
			return
		}
	}
}

// Slice returns a read-only view of the underlying items; callers must
// not retain it past the next mutation.
func (v *BoundedVec[T]) Slice() []T {
	return v.items
}

// ToBytes serialises the vec using the supplied per-element encoder,
// laying out [count:4][elem bytes...].
func (v *BoundedVec[T]) ToBytes(encode func(T) ([]byte, error)) ([]byte, error) {
	out := make([]byte, 4)
	putU32(out, uint32(len(v.items)))
	for _, item := range v.items {
		b, err := encode(item)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// FromBytesInto decodes a byte image produced by ToBytes back into v,
// overwriting its current contents. Returns CapacityExceeded if the
// encoded count exceeds v's capacity.
func (v *BoundedVec[T]) FromBytesInto(data []byte, decode FromBytesFunc[T]) error {
	if len(data) < 4 {
		return errs.New(errs.Parse, errs.CodeSizeOverflow, "BoundedVec: truncated header")
	}
	count := int(getU32(data))
	if count > v.cap {
		return errs.New(errs.Core, errs.CodeCapacityExceeded, "BoundedVec: decoded count exceeds capacity")
	}
	data = data[4:]
	v.Clear()
	for i := 0; i < count; i++ {
		item, n, err := decode(data)
		if err != nil {
			return err
		}
		v.items = append(v.items, item)
		data = data[n:]
	}
	return nil
}

func putU32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func getU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
