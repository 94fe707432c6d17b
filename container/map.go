package container

import "github.com/wrtcore/fuelrt/errs"

type slotState uint8

const (
	slotEmpty slotState = iota
	slotOccupied
	slotTombstone
)

type mapSlot[K comparable, V any] struct {
	state slotState
	key   K
	value V
}

// BoundedMap is an open-addressed hash map over N fixed slots, using
// linear probing and full key equality to break hash collisions. Load
// factor is never resized: once all N slots have been occupied at some
// point without being permanently reclaimed, further inserts fail with
// CapacityExceeded. Rehashing never occurs.
//
// KeyBytes must return a platform-independent byte encoding of a key,
// used only for slot selection (never for equality, which always uses Go
// ==).
type BoundedMap[K comparable, V any] struct {
	slots    []mapSlot[K, V]
	cap      int
	size     int
	keyBytes func(K) []byte
}

func NewBoundedMap[K comparable, V any](capacity int, keyBytes func(K) []byte) *BoundedMap[K, V] {
	return &BoundedMap[K, V]{
		slots:    make([]mapSlot[K, V], capacity),
		cap:      capacity,
		keyBytes: keyBytes,
	}
}

func (m *BoundedMap[K, V]) Len() int      { return m.size }
func (m *BoundedMap[K, V]) Capacity() int { return m.cap }
func (m *BoundedMap[K, V]) IsFull() bool  { return m.size >= m.cap }

func (m *BoundedMap[K, V]) probe(key K) int {
	h := fnv1a64(m.keyBytes(key))
	return int(h % uint64(m.cap))
}

// Insert adds or updates key -> value. Fails with CapacityExceeded when
// the map is full and key is not already present.
func (m *BoundedMap[K, V]) Insert(key K, value V) error {
	if m.cap == 0 {
		return errs.New(errs.Core, errs.CodeCapacityExceeded, "BoundedMap: zero capacity")
	}
	start := m.probe(key)
	firstTombstone := -1
	for i := 0; i < m.cap; i++ {
		idx := (start + i) % m.cap
		slot := &m.slots[idx]
		switch slot.state {
		case slotEmpty:
			target := idx
			if firstTombstone >= 0 {
				target = firstTombstone
			}
			m.slots[target] = mapSlot[K, V]{state: slotOccupied, key: key, value: value}
			m.size++
			return nil
		case slotTombstone:
			if firstTombstone < 0 {
				firstTombstone = idx
			}
		case slotOccupied:
			if slot.key == key {
				slot.value = value
				return nil
			}
		}
	}
	if firstTombstone >= 0 {
		m.slots[firstTombstone] = mapSlot[K, V]{state: slotOccupied, key: key, value: value}
		m.size++
		return nil
	}
	return errs.New(errs.Core, errs.CodeCapacityExceeded, "BoundedMap: capacity exceeded")
}

func (m *BoundedMap[K, V]) findIndex(key K) int {
	if m.cap == 0 {
		return -1
	}
	start := m.probe(key)
	for i := 0; i < m.cap; i++ {
		idx := (start + i) % m.cap
		slot := &m.slots[idx]
		switch slot.state {
		case slotEmpty:
			return -1
		case slotOccupied:
			if slot.key == key {
				return idx
			}
		}
	}
	return -1
}

// Get returns the value for key, and whether it was present.
func (m *BoundedMap[K, V]) Get(key K) (V, bool) {
	var zero V
	idx := m.findIndex(key)
	if idx < 0 {
		return zero, false
	}
	return m.slots[idx].value, true
}

// Remove deletes key, returning whether it was present. The vacated slot
// becomes a tombstone so later probes past it still find their target.
func (m *BoundedMap[K, V]) Remove(key K) bool {
	idx := m.findIndex(key)
	if idx < 0 {
		return false
	}
	var zeroK K
	var zeroV V
	m.slots[idx] = mapSlot[K, V]{state: slotTombstone, key: zeroK, value: zeroV}
	m.size--
	return true
}

// Each iterates occupied entries in slot order: implementation-defined
// but deterministic for a given insertion history.
func (m *BoundedMap[K, V]) Each(fn func(key K, value V) bool) {
	for i := range m.slots {
		if m.slots[i].state == slotOccupied {
			if !fn(m.slots[i].key, m.slots[i].value) {
				return
			}
		}
	}
}

// ToBytes serialises the map as [count:4][key bytes, value bytes]...,
// entries in slot order, using the supplied per-element encoders.
func (m *BoundedMap[K, V]) ToBytes(encodeK func(K) ([]byte, error), encodeV func(V) ([]byte, error)) ([]byte, error) {
	out := AppendU32(nil, uint32(m.size))
	var err error
	m.Each(func(key K, value V) bool {
		var kb, vb []byte
		if kb, err = encodeK(key); err != nil {
			return false
		}
		if vb, err = encodeV(value); err != nil {
			return false
		}
		out = append(out, kb...)
		out = append(out, vb...)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FromBytesInto decodes a byte image produced by ToBytes back into m,
// replacing its current contents. Returns CapacityExceeded if the
// encoded count exceeds m's capacity. Slot placement is re-derived from
// the keys, so the decoded map is probe-equivalent to inserting the
// entries fresh.
func (m *BoundedMap[K, V]) FromBytesInto(data []byte, decodeK FromBytesFunc[K], decodeV FromBytesFunc[V]) error {
	count32, n, err := DecodeU32(data)
	if err != nil {
		return err
	}
	count := int(count32)
	if count > m.cap {
		return errs.New(errs.Core, errs.CodeCapacityExceeded, "BoundedMap: decoded count exceeds capacity")
	}
	data = data[n:]

	for i := range m.slots {
		m.slots[i] = mapSlot[K, V]{}
	}
	m.size = 0

	for i := 0; i < count; i++ {
		key, kn, err := decodeK(data)
		if err != nil {
			return err
		}
		data = data[kn:]
		value, vn, err := decodeV(data)
		if err != nil {
			return err
		}
		data = data[vn:]
		if err := m.Insert(key, value); err != nil {
			return err
		}
	}
	return nil
}
