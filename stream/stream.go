// Package stream implements the fuel-metered FIFO backing Component Model
// stream<T> types: a bounded ring buffer with producer/consumer state
// transitions and an optional waker to notify a suspended consumer.
package stream

import (
	"github.com/wrtcore/fuelrt/container"
	"github.com/wrtcore/fuelrt/errs"
	"github.com/wrtcore/fuelrt/fuel"
)

// Fuel costs, kept in one place per this runtime's fuel-cost-table
// convention (mirrors fuel.SpawnCost and friends).
const (
	CreateCost    fuel.Fuel = 10
	PollCost      fuel.Fuel = 5
	YieldItemCost fuel.Fuel = 3
	CloseCost     fuel.Fuel = 8
	PerItemCost   fuel.Fuel = 2
)

// State is a Stream's lifecycle state.
type State uint8

const (
	Active State = iota
	Waiting
	Completed
	Failed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Active:
		return "Active"
	case Waiting:
		return "Waiting"
	case Completed:
		return "Completed"
	case Failed:
		return "Failed"
	case Cancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// IsTerminal reports whether s is a sink state: once reached, yield_item
// fails and poll_next returns Ready(None) as soon as any items still
// buffered have been delivered.
func (s State) IsTerminal() bool { return s == Completed || s == Failed || s == Cancelled }

// Stream is a single-producer, single-consumer fuel-metered FIFO of up to
// 256 buffered items of type T.
type Stream[T any] struct {
	id           uint64
	componentID  fuel.ComponentID
	state        State
	buffer       *container.BoundedDeque[T]
	fuelBudget   fuel.Fuel
	fuelConsumed fuel.Fuel
	isBounded    bool
	maxItems     int
	waker        *fuel.Waker
}

func newStream[T any](id uint64, componentID fuel.ComponentID, fuelBudget fuel.Fuel, isBounded bool, maxItems int) *Stream[T] {
	return &Stream[T]{
		id:          id,
		componentID: componentID,
		state:       Active,
		buffer:      container.NewBoundedDeque[T](256),
		fuelBudget:  fuelBudget,
		isBounded:   isBounded,
		maxItems:    maxItems,
	}
}

// SetWaker installs the consumer's waker, called whenever YieldItem
// transitions the stream from Waiting back to Active.
func (s *Stream[T]) SetWaker(w *fuel.Waker) { s.waker = w }

func (s *Stream[T]) chargeFuel(cost fuel.Fuel) error {
	s.fuelConsumed += cost
	if s.fuelConsumed > s.fuelBudget {
		s.state = Failed
		return errs.New(errs.Async, errs.CodeFuelExhausted, "stream fuel budget exhausted")
	}
	return nil
}

// ID reports this stream's identity within its owning Manager.
func (s *Stream[T]) ID() uint64 { return s.id }

// ComponentID reports the component this stream originates from or
// targets, as registered at creation.
func (s *Stream[T]) ComponentID() fuel.ComponentID { return s.componentID }

// State reports the current lifecycle state.
func (s *Stream[T]) State() State { return s.state }

// FuelConsumed reports fuel charged against this stream so far.
func (s *Stream[T]) FuelConsumed() fuel.Fuel { return s.fuelConsumed }

// YieldItem pushes item into the buffer. Fails with StreamClosed once the
// stream has reached a terminal state, or ResourceLimitExceeded if the
// stream is bounded and the buffer is already at max_items.
func (s *Stream[T]) YieldItem(item T) error {
	if s.state.IsTerminal() {
		return errs.New(errs.Async, errs.CodeStreamClosed, "yield_item on a closed stream")
	}
	if err := s.chargeFuel(YieldItemCost); err != nil {
		return err
	}
	if s.isBounded && s.buffer.Len() >= s.maxItems {
		return errs.New(errs.Resource, errs.CodeResourceLimitExceeded, "bounded stream at max_items")
	}
	if err := s.buffer.PushBack(item); err != nil {
		return errs.New(errs.Resource, errs.CodeResourceLimitExceeded, "stream buffer at capacity")
	}
	if s.state == Waiting {
		s.state = Active
		if s.waker != nil {
			s.waker.Wake()
		}
	}
	return nil
}

// PollResult is the outcome of PollNext: either an item, an empty-but-open
// signal (Waiting), or a terminal completion (Done).
type PollResult[T any] struct {
	Item    T
	HasItem bool
	Done    bool
}

// PollNext removes and returns the oldest buffered item, transitions to
// Waiting if the buffer is empty and the stream is still open, and returns
// Ready(None)-equivalent (Done, no item) once the stream is terminal and
// its buffer is empty.
func (s *Stream[T]) PollNext() (PollResult[T], error) {
	if s.state.IsTerminal() && s.buffer.IsEmpty() {
		return PollResult[T]{Done: true}, nil
	}
	if err := s.chargeFuel(PollCost); err != nil {
		return PollResult[T]{}, err
	}
	item, ok := s.buffer.PopFront()
	if !ok {
		if !s.state.IsTerminal() {
			s.state = Waiting
		}
		return PollResult[T]{Done: s.state.IsTerminal()}, nil
	}
	if err := s.chargeFuel(PerItemCost); err != nil {
		return PollResult[T]{}, err
	}
	return PollResult[T]{Item: item, HasItem: true}, nil
}

// Complete transitions the stream to Completed. Already-terminal streams
// are a no-op.
func (s *Stream[T]) Complete() error {
	if s.state.IsTerminal() {
		return nil
	}
	if err := s.chargeFuel(CloseCost); err != nil {
		return err
	}
	s.state = Completed
	return nil
}

// Cancel transitions the stream to Cancelled, dropping any buffered items.
func (s *Stream[T]) Cancel() error {
	if s.state.IsTerminal() {
		return nil
	}
	if err := s.chargeFuel(CloseCost); err != nil {
		return err
	}
	s.state = Cancelled
	for {
		if _, ok := s.buffer.PopFront(); !ok {
			break
		}
	}
	return nil
}
