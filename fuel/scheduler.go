package fuel

// SchedulingStatistics is the counters surfaced by a Scheduler, shared
// between the executor's default FIFO policy and the richer policies the
// sched package builds on top of this interface.
type SchedulingStatistics struct {
	TotalTasks         int
	ReadyCount         int
	WaitingCount       int
	TotalFuelConsumed  Fuel
	TotalScheduleCount uint64
	EfficiencyMetric   float64
}

// Scheduler chooses the next task to poll among the ready set. The
// executor owns task state transitions and fuel accounting; a Scheduler
// only answers "what next" and keeps its own bookkeeping in step via the
// Add/Remove/UpdateTaskState calls the executor issues as state changes.
//
// Implementations are not safe for concurrent use: the executor serialises
// every call to a Scheduler behind its own lock.
type Scheduler interface {
	AddTask(id TaskID, componentID ComponentID, priority Priority, fuelQuota Fuel, deadline *uint64)
	RemoveTask(id TaskID)
	UpdateTaskState(id TaskID, fuelConsumed Fuel, newState AsyncTaskState)
	NextTask() (TaskID, bool)
	Statistics() SchedulingStatistics
}

// fifoScheduler is the executor's built-in Cooperative policy: strict
// FIFO over the ready set, no priority, no deadlines. It is the default
// when no Scheduler option is supplied.
type fifoScheduler struct {
	ready    []TaskID
	waiting  map[TaskID]struct{}
	known    map[TaskID]struct{}
	fuel     Fuel
	schedCnt uint64
}

func newFIFOScheduler() *fifoScheduler {
	return &fifoScheduler{
		waiting: make(map[TaskID]struct{}),
		known:   make(map[TaskID]struct{}),
	}
}

func (s *fifoScheduler) AddTask(id TaskID, _ ComponentID, _ Priority, _ Fuel, _ *uint64) {
	s.known[id] = struct{}{}
	s.ready = append(s.ready, id)
}

// RemoveTask is idempotent: the executor may remove a task that a
// terminal UpdateTaskState already retired.
func (s *fifoScheduler) RemoveTask(id TaskID) {
	delete(s.waiting, id)
	delete(s.known, id)
	for i, t := range s.ready {
		if t == id {
			s.ready = append(s.ready[:i], s.ready[i+1:]...)
			break
		}
	}
}

func (s *fifoScheduler) UpdateTaskState(id TaskID, fuelConsumed Fuel, newState AsyncTaskState) {
	s.fuel += fuelConsumed
	switch newState {
	case Waiting:
		s.waiting[id] = struct{}{}
	case Ready:
		// Requeue unconditionally: NextTask already removed id from
		// s.ready before the executor polled it, so re-adding here is
		// always a fresh entry, whether id is resuming from Waiting (an
		// external Wake) or re-arming itself after a cooperative yield.
		delete(s.waiting, id)
		s.ready = append(s.ready, id)
	case Completed, Cancelled, Failed:
		delete(s.waiting, id)
		delete(s.known, id)
	}
}

func (s *fifoScheduler) NextTask() (TaskID, bool) {
	if len(s.ready) == 0 {
		return 0, false
	}
	id := s.ready[0]
	s.ready = s.ready[1:]
	s.schedCnt++
	return id, true
}

func (s *fifoScheduler) Statistics() SchedulingStatistics {
	efficiency := 1.0
	if len(s.known) > 0 {
		efficiency = float64(len(s.ready)) / float64(len(s.known))
	}
	return SchedulingStatistics{
		TotalTasks:         len(s.known),
		ReadyCount:         len(s.ready),
		WaitingCount:       len(s.waiting),
		TotalFuelConsumed:  s.fuel,
		TotalScheduleCount: s.schedCnt,
		EfficiencyMetric:   efficiency,
	}
}
