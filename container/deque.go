package container

import "github.com/wrtcore/fuelrt/errs"

// BoundedDeque is a ring buffer over a fixed-capacity backing slice, with
// independent head/tail indices so both PushBack/PopFront (FIFO, as used
// by stream.Stream's buffer) and PushFront/PopBack (full deque) are O(1).
type BoundedDeque[T any] struct {
	items []T
	head  int
	count int
	cap   int
}

func NewBoundedDeque[T any](capacity int) *BoundedDeque[T] {
	return &BoundedDeque[T]{items: make([]T, capacity), cap: capacity}
}

func (d *BoundedDeque[T]) Len() int      { return d.count }
func (d *BoundedDeque[T]) Capacity() int { return d.cap }
func (d *BoundedDeque[T]) IsFull() bool  { return d.count >= d.cap }
func (d *BoundedDeque[T]) IsEmpty() bool { return d.count == 0 }

func (d *BoundedDeque[T]) index(offset int) int {
	return (d.head + offset) % d.cap
}

// PushBack appends to the tail.
func (d *BoundedDeque[T]) PushBack(item T) error {
	if d.IsFull() {
		return errs.New(errs.Core, errs.CodeCapacityExceeded, "BoundedDeque: capacity exceeded")
	}
	d.items[d.index(d.count)] = item
	d.count++
	return nil
}

// PushFront prepends to the head.
func (d *BoundedDeque[T]) PushFront(item T) error {
	if d.IsFull() {
		return errs.New(errs.Core, errs.CodeCapacityExceeded, "BoundedDeque: capacity exceeded")
	}
	d.head = (d.head - 1 + d.cap) % d.cap
	d.items[d.head] = item
	d.count++
	return nil
}

// PopFront removes and returns the head item.
func (d *BoundedDeque[T]) PopFront() (T, bool) {
	var zero T
	if d.IsEmpty() {
		return zero, false
	}
	item := d.items[d.head]
	d.items[d.head] = zero
	d.head = (d.head + 1) % d.cap
	d.count--
	return item, true
}

// PopBack removes and returns the tail item.
func (d *BoundedDeque[T]) PopBack() (T, bool) {
	var zero T
	if d.IsEmpty() {
		return zero, false
	}
	idx := d.index(d.count - 1)
	item := d.items[idx]
	d.items[idx] = zero
	d.count--
	return item, true
}

// Front returns the head item without removing it.
func (d *BoundedDeque[T]) Front() (T, bool) {
	var zero T
	if d.IsEmpty() {
		return zero, false
	}
	return d.items[d.head], true
}

// Back returns the tail item without removing it.
func (d *BoundedDeque[T]) Back() (T, bool) {
	var zero T
	if d.IsEmpty() {
		return zero, false
	}
	return d.items[d.index(d.count-1)], true
}

// At returns the item at logical offset i from the head (0-indexed).
func (d *BoundedDeque[T]) At(i int) (T, bool) {
	var zero T
	if i < 0 || i >= d.count {
		return zero, false
	}
	return d.items[d.index(i)], true
}

// ToBytes serialises the deque head-to-tail as [count:4][elem bytes...],
// using the supplied per-element encoder. The ring's physical layout is
// not preserved, only the logical order.
func (d *BoundedDeque[T]) ToBytes(encode func(T) ([]byte, error)) ([]byte, error) {
	out := AppendU32(nil, uint32(d.count))
	for i := 0; i < d.count; i++ {
		b, err := encode(d.items[d.index(i)])
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// FromBytesInto decodes a byte image produced by ToBytes back into d,
// replacing its current contents. Returns CapacityExceeded if the
// encoded count exceeds d's capacity.
func (d *BoundedDeque[T]) FromBytesInto(data []byte, decode FromBytesFunc[T]) error {
	count32, n, err := DecodeU32(data)
	if err != nil {
		return err
	}
	count := int(count32)
	if count > d.cap {
		return errs.New(errs.Core, errs.CodeCapacityExceeded, "BoundedDeque: decoded count exceeds capacity")
	}
	data = data[n:]

	var zero T
	for i := range d.items {
		d.items[i] = zero
	}
	d.head = 0
	d.count = 0

	for i := 0; i < count; i++ {
		item, in, err := decode(data)
		if err != nil {
			return err
		}
		data = data[in:]
		d.items[d.count] = item
		d.count++
	}
	return nil
}
