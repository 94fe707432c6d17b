package container

// BoundedStack is a BoundedVec used in LIFO discipline: Push/Pop/Peek at
// the tail. It is a thin naming wrapper rather than a distinct data
// structure, the same way the runtime's BoundedVec already supports O(1)
// push/pop at its end.
type BoundedStack[T any] struct {
	vec *BoundedVec[T]
}

func NewBoundedStack[T any](capacity int) *BoundedStack[T] {
	return &BoundedStack[T]{vec: NewBoundedVec[T](capacity)}
}

func (s *BoundedStack[T]) Len() int      { return s.vec.Len() }
func (s *BoundedStack[T]) Capacity() int { return s.vec.Capacity() }
func (s *BoundedStack[T]) IsFull() bool  { return s.vec.IsFull() }
func (s *BoundedStack[T]) IsEmpty() bool { return s.vec.IsEmpty() }

func (s *BoundedStack[T]) Push(item T) error { return s.vec.Push(item) }
func (s *BoundedStack[T]) Pop() (T, bool)    { return s.vec.Pop() }

// Peek returns the top item without removing it.
func (s *BoundedStack[T]) Peek() (T, bool) {
	return s.vec.Get(s.vec.Len() - 1)
}
