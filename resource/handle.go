// Package resource implements the bounded handle tables backing Component
// Model own<T>/borrow<T> semantics: a fixed-capacity slot array indexed by
// a 32-bit handle, where handle 0 is permanently reserved as the null
// handle and never resolves.
package resource

import (
	"github.com/wrtcore/fuelrt/errs"
)

// DefaultCapacity is the per-type table size used when a caller does not
// choose one.
const DefaultCapacity = 1024

// Handle is a 32-bit index into a Table. The zero Handle is reserved and
// never resolves to an entry.
type Handle uint32

// ownership distinguishes an owning slot (holds the value) from a
// borrowing slot (only references an owning slot).
type ownership uint8

const (
	ownershipOwned ownership = iota
	ownershipBorrowed
)

type entry[T any] struct {
	occupied    bool
	kind        ownership
	value       T
	owner       Handle // valid when kind == ownershipBorrowed
	borrowCount uint32 // valid when kind == ownershipOwned
}

// Table is a bounded, linear-probed resource handle table for a single
// Component Model resource type T.
type Table[T any] struct {
	slots []entry[T]
	next  int // search cursor into slots, 0-based
}

// NewTable constructs a Table with the given capacity. Capacity <= 0 uses
// DefaultCapacity.
func NewTable[T any](capacity int) *Table[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Table[T]{slots: make([]entry[T], capacity)}
}

func (t *Table[T]) resolve(h Handle) (int, error) {
	if h == 0 {
		return 0, errs.New(errs.Resource, errs.CodeInvalidHandle, "null handle never resolves")
	}
	idx := int(h) - 1
	if idx < 0 || idx >= len(t.slots) || !t.slots[idx].occupied {
		return 0, errs.New(errs.Resource, errs.CodeInvalidHandle, "handle does not resolve to a live entry")
	}
	return idx, nil
}

// alloc finds an empty slot, searching linearly from t.next and wrapping.
func (t *Table[T]) alloc() (int, error) {
	n := len(t.slots)
	for i := 0; i < n; i++ {
		idx := (t.next + i) % n
		if !t.slots[idx].occupied {
			t.next = (idx + 1) % n
			return idx, nil
		}
	}
	return 0, errs.New(errs.Resource, errs.CodeHandleLimitExceeded, "resource table is full")
}

// NewOwn allocates a new owning entry holding value, returning its handle.
func (t *Table[T]) NewOwn(value T) (Handle, error) {
	idx, err := t.alloc()
	if err != nil {
		return 0, err
	}
	t.slots[idx] = entry[T]{occupied: true, kind: ownershipOwned, value: value}
	return Handle(idx + 1), nil
}

// NewBorrow allocates a new borrowing entry referencing ownHandle,
// incrementing its refcount.
func (t *Table[T]) NewBorrow(ownHandle Handle) (Handle, error) {
	ownIdx, err := t.resolve(ownHandle)
	if err != nil {
		return 0, err
	}
	if t.slots[ownIdx].kind != ownershipOwned {
		return 0, errs.New(errs.Resource, errs.CodeInvalidHandle, "borrow target is not an owning handle")
	}
	idx, err := t.alloc()
	if err != nil {
		return 0, err
	}
	t.slots[idx] = entry[T]{occupied: true, kind: ownershipBorrowed, owner: ownHandle}
	t.slots[ownIdx].borrowCount++
	return Handle(idx + 1), nil
}

// Get returns the resource value reachable through handle, whether handle
// names an owning or a borrowing entry.
func (t *Table[T]) Get(handle Handle) (T, error) {
	var zero T
	idx, err := t.resolve(handle)
	if err != nil {
		return zero, err
	}
	e := &t.slots[idx]
	if e.kind == ownershipBorrowed {
		ownIdx, err := t.resolve(e.owner)
		if err != nil {
			return zero, err
		}
		return t.slots[ownIdx].value, nil
	}
	return e.value, nil
}

// Drop releases handle. Dropping a borrow decrements the owner's refcount
// and returns (zero, false, nil). Dropping an owning handle with
// outstanding borrows fails with ResourceBusy; dropping an owning handle
// with no outstanding borrows frees the slot and returns its value.
func (t *Table[T]) Drop(handle Handle) (T, bool, error) {
	var zero T
	idx, err := t.resolve(handle)
	if err != nil {
		return zero, false, err
	}
	e := t.slots[idx]

	if e.kind == ownershipBorrowed {
		if ownIdx, err := t.resolve(e.owner); err == nil {
			if t.slots[ownIdx].borrowCount > 0 {
				t.slots[ownIdx].borrowCount--
			}
		}
		t.slots[idx] = entry[T]{}
		return zero, false, nil
	}

	if e.borrowCount > 0 {
		return zero, false, errs.New(errs.Resource, errs.CodeResourceBusy, "owning handle has outstanding borrows")
	}
	t.slots[idx] = entry[T]{}
	return e.value, true, nil
}

// Len reports the number of live entries (owning and borrowing combined).
func (t *Table[T]) Len() int {
	n := 0
	for _, e := range t.slots {
		if e.occupied {
			n++
		}
	}
	return n
}

// Capacity is the fixed number of slots this table was constructed with.
func (t *Table[T]) Capacity() int { return len(t.slots) }
