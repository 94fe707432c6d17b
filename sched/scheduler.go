// Package sched implements the pluggable ready-task selection policies
// on top of the fuel.Scheduler interface the executor consumes. Cooperative is also available as the executor's own
// zero-configuration default; this package exists for PriorityBased,
// RoundRobin, and the two Deadline variants.
package sched

import (
	"fmt"

	"github.com/wrtcore/fuelrt/fuel"
)

// Policy selects which of the four ready-task orderings a Scheduler
// enforces.
type Policy uint8

const (
	// Cooperative is strict FIFO over the ready set.
	Cooperative Policy = iota
	// PriorityBased always returns the highest-priority ready task;
	// ties break FIFO. Starvation of lower-priority tasks is accepted:
	// hard-real-time work must preempt background work indefinitely.
	PriorityBased
	// RoundRobin rotates strictly across the ready set, ignoring
	// priority entirely.
	RoundRobin
	// DeadlineSoft returns the earliest-deadline task first. The policy
	// itself never fails a task; the executor's own deadline check
	// (comparing against the task's tick) is what fails a task, this
	// policy only affects ordering.
	DeadlineSoft
	// DeadlineHard is identical in ordering to DeadlineSoft. The executor
	// does not tell the two apart: under every policy it fails a task
	// whose deadline tick has passed with DeadlineMissed at poll time.
	DeadlineHard
)

func (p Policy) String() string {
	switch p {
	case Cooperative:
		return "Cooperative"
	case PriorityBased:
		return "PriorityBased"
	case RoundRobin:
		return "RoundRobin"
	case DeadlineSoft:
		return "Deadline(soft)"
	case DeadlineHard:
		return "Deadline(hard)"
	default:
		return fmt.Sprintf("Policy(%d)", uint8(p))
	}
}

// taskMeta is the bookkeeping a Scheduler needs to rebuild a ready-set
// entry for a task transitioning back to Ready from Waiting, since the
// fuel.Scheduler interface's UpdateTaskState call doesn't repeat the
// task's priority/deadline.
type taskMeta struct {
	componentID fuel.ComponentID
	priority    fuel.Priority
	deadline    *uint64
}

// Scheduler implements fuel.Scheduler for one of the four Policy
// orderings. It is not safe for concurrent use — the executor always
// calls into it while holding its own lock, so the ready queue is only
// ever mutated under a single guard.
type Scheduler struct {
	policy Policy
	seq    uint64

	meta    map[fuel.TaskID]taskMeta
	waiting map[fuel.TaskID]struct{}
	total   int

	// exactly one of these is populated, chosen by policy at New.
	fifo     []fuel.TaskID
	priority *byIDHeap[int64]
	deadline *byIDHeap[uint64]

	fuelConsumed  fuel.Fuel
	scheduleCount uint64
}

// New constructs a Scheduler enforcing policy.
func New(policy Policy) *Scheduler {
	s := &Scheduler{
		policy:  policy,
		meta:    make(map[fuel.TaskID]taskMeta),
		waiting: make(map[fuel.TaskID]struct{}),
	}
	switch policy {
	case PriorityBased:
		s.priority = newByIDHeap[int64]()
	case DeadlineSoft, DeadlineHard:
		s.deadline = newByIDHeap[uint64]()
	}
	return s
}

// priorityKey orders High before Normal before Low (ascending key, since
// byIDHeap is a min-heap): negate the priority value.
func priorityKey(p fuel.Priority) int64 { return -int64(p) }

func deadlineKey(d *uint64) uint64 {
	if d == nil {
		return ^uint64(0) // no deadline sorts last
	}
	return *d
}

func (s *Scheduler) enqueue(id fuel.TaskID, m taskMeta) {
	s.seq++
	switch s.policy {
	case PriorityBased:
		s.priority.push(uint64(id), priorityKey(m.priority), s.seq)
	case DeadlineSoft, DeadlineHard:
		s.deadline.push(uint64(id), deadlineKey(m.deadline), s.seq)
	default: // Cooperative, RoundRobin
		s.fifo = append(s.fifo, id)
	}
}

func (s *Scheduler) dequeue(id fuel.TaskID) {
	switch s.policy {
	case PriorityBased:
		s.priority.remove(uint64(id))
	case DeadlineSoft, DeadlineHard:
		s.deadline.remove(uint64(id))
	default:
		for i, t := range s.fifo {
			if t == id {
				s.fifo = append(s.fifo[:i], s.fifo[i+1:]...)
				break
			}
		}
	}
}

// AddTask registers a newly-spawned task as Ready.
func (s *Scheduler) AddTask(id fuel.TaskID, componentID fuel.ComponentID, priority fuel.Priority, fuelQuota fuel.Fuel, deadline *uint64) {
	m := taskMeta{componentID: componentID, priority: priority, deadline: deadline}
	s.meta[id] = m
	s.total++
	s.enqueue(id, m)
}

// RemoveTask drops id from the scheduler entirely.
func (s *Scheduler) RemoveTask(id fuel.TaskID) {
	s.dequeue(id)
	delete(s.waiting, id)
	if _, ok := s.meta[id]; ok {
		delete(s.meta, id)
		if s.total > 0 {
			s.total--
		}
	}
}

// UpdateTaskState applies a state transition the executor observed. Only
// Waiting and Ready are meaningful here (the rest are terminal and just
// clear bookkeeping) — Ready always means "put back in the ready set,"
// whether resuming from Waiting via a Wake or cooperatively yielding.
func (s *Scheduler) UpdateTaskState(id fuel.TaskID, fuelConsumed fuel.Fuel, newState fuel.AsyncTaskState) {
	s.fuelConsumed += fuelConsumed
	switch newState {
	case fuel.Waiting:
		s.waiting[id] = struct{}{}
	case fuel.Ready:
		delete(s.waiting, id)
		if m, ok := s.meta[id]; ok {
			s.enqueue(id, m)
		}
	case fuel.Completed, fuel.Cancelled, fuel.Failed:
		delete(s.waiting, id)
		delete(s.meta, id)
		if s.total > 0 {
			s.total--
		}
	}
}

// NextTask returns the next task to poll per this Scheduler's policy, or
// false if the ready set is empty.
func (s *Scheduler) NextTask() (fuel.TaskID, bool) {
	switch s.policy {
	case PriorityBased:
		id, ok := s.priority.pop()
		if !ok {
			return 0, false
		}
		s.scheduleCount++
		return fuel.TaskID(id), true
	case DeadlineSoft, DeadlineHard:
		id, ok := s.deadline.pop()
		if !ok {
			return 0, false
		}
		s.scheduleCount++
		return fuel.TaskID(id), true
	default:
		if len(s.fifo) == 0 {
			return 0, false
		}
		id := s.fifo[0]
		s.fifo = s.fifo[1:]
		s.scheduleCount++
		return id, true
	}
}

func (s *Scheduler) readyCount() int {
	switch s.policy {
	case PriorityBased:
		return s.priority.len()
	case DeadlineSoft, DeadlineHard:
		return s.deadline.len()
	default:
		return len(s.fifo)
	}
}

// Statistics returns the current ready/waiting/fuel counters.
func (s *Scheduler) Statistics() fuel.SchedulingStatistics {
	ready := s.readyCount()
	efficiency := 1.0
	if s.total > 0 {
		efficiency = float64(ready) / float64(s.total)
	}
	return fuel.SchedulingStatistics{
		TotalTasks:         s.total,
		ReadyCount:         ready,
		WaitingCount:       len(s.waiting),
		TotalFuelConsumed:  s.fuelConsumed,
		TotalScheduleCount: s.scheduleCount,
		EfficiencyMetric:   efficiency,
	}
}
