package fuel

import (
	"sync"
	"sync/atomic"

	"github.com/wrtcore/fuelrt/budget"
	"github.com/wrtcore/fuelrt/container"
	"github.com/wrtcore/fuelrt/errs"
	"github.com/wrtcore/fuelrt/log"
)

func taskIDBytes(id TaskID) []byte {
	return []byte{
		byte(id), byte(id >> 8), byte(id >> 16), byte(id >> 24),
		byte(id >> 32), byte(id >> 40), byte(id >> 48), byte(id >> 56),
	}
}

// Executor is the deterministic, single-threaded cooperative scheduler at
// the heart of this runtime: every spawn reserves fuel from a global
// pool, every poll step charges a known cost, and exhausting a task's
// budget fails it immediately with no further polling. The executor
// itself is driven by an external loop calling PollTasks — it never
// spawns its own goroutine, so the core performs no blocking operation.
type Executor struct {
	mu sync.Mutex

	tasks     *container.BoundedMap[TaskID, *fuelAsyncTask]
	scheduler Scheduler
	nextID    atomic.Uint64

	globalFuelRemaining atomic.Int64
	globalFuelPeak      atomic.Uint64

	verification  budget.VerificationLevel
	deadlockGrace uint64
	noProgress    uint64

	// ticks counts PollTasks batches; deadlines are expressed in this
	// monotonic tick domain, with the embedding host responsible for
	// mapping real time onto ticks before setting a deadline.
	ticks atomic.Uint64

	logger log.Logger
	handle *executorHandle

	// Pending wakes keep arrival order: replay determinism requires that
	// two tasks woken between the same pair of polls re-enter the ready
	// set in the order their wakes arrived, not in map-iteration order.
	wakeMu         sync.Mutex
	pendingWakes   []TaskID
	pendingWakeSet map[TaskID]struct{}
	wakeMeter      atomic.Uint64

	shutdown atomic.Bool

	spawned      atomic.Uint64
	completed    atomic.Uint64
	failed       atomic.Uint64
	cancelled    atomic.Uint64
	fuelSpent    atomic.Uint64
	fuelReturned atomic.Uint64
}

// New constructs an Executor. The default scheduler is Cooperative
// (FIFO); pass WithScheduler to install another Scheduler instead, such
// as one built by sched.New.
func New(opts ...ExecutorOption) *Executor {
	cfg := resolveExecutorOptions(opts)
	e := &Executor{
		tasks:         container.NewBoundedMap[TaskID, *fuelAsyncTask](cfg.maxTasks, taskIDBytes),
		scheduler:     cfg.scheduler,
		verification:  cfg.verification,
		deadlockGrace: cfg.deadlockGrace,
		logger:        cfg.logger,
	}
	e.globalFuelRemaining.Store(int64(cfg.globalFuel))
	e.handle = newExecutorHandle(e)
	return e
}

// multiplier is the verification level's cost inflation factor. Off is
// genuinely zero: an uninstrumented configuration charges nothing per
// poll or wake, only the fixed spawn reservation.
func (e *Executor) multiplier() Fuel {
	return Fuel(e.verification.Multiplier())
}

// SpawnTask reserves SpawnCost plus the task's whole fuel budget from
// the global pool and registers a new task built from makeFuture, which
// receives the task's own Waker so self-rescheduling futures (e.g. ones
// with no external wake source) can re-arm themselves before yielding.
// Whatever the task leaves unspent flows back to the pool when it
// reaches a terminal state.
func (e *Executor) SpawnTask(componentID ComponentID, fuelBudget Fuel, priority Priority, deadline *uint64, makeFuture func(*Waker) Future) (TaskID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.shutdown.Load() {
		return 0, errs.New(errs.Async, errs.CodeCancelled, "Executor: spawn after shutdown")
	}
	if e.tasks.IsFull() {
		return 0, errs.New(errs.Core, errs.CodeCapacityExceeded, "Executor: task table full")
	}
	if !e.reserveGlobalFuel(SpawnCost + fuelBudget) {
		return 0, errs.New(errs.Async, errs.CodeFuelExhausted, "Executor: global fuel pool exhausted")
	}

	id := TaskID(e.nextID.Add(1))
	waker := &Waker{taskID: id, handle: e.handle}
	future := makeFuture(waker)

	t := &fuelAsyncTask{
		id:          id,
		componentID: componentID,
		priority:    priority,
		future:      future,
		state:       Ready,
		fuelBudget:  fuelBudget,
		deadline:    deadline,
	}
	if err := e.tasks.Insert(id, t); err != nil {
		e.returnGlobalFuel(SpawnCost + fuelBudget)
		return 0, err
	}
	e.scheduler.AddTask(id, componentID, priority, fuelBudget, deadline)
	e.spawned.Add(1)
	return id, nil
}

// reserveGlobalFuel subtracts cost from the remaining pool, refusing if
// that would drive it negative, and keeps a CAS-tracked high-water mark
// of total fuel drawn. Stats reports draws and give-backs separately;
// their difference is net consumption.
func (e *Executor) reserveGlobalFuel(cost Fuel) bool {
	for {
		cur := e.globalFuelRemaining.Load()
		if cur < int64(cost) {
			return false
		}
		if e.globalFuelRemaining.CompareAndSwap(cur, cur-int64(cost)) {
			e.fuelSpent.Add(uint64(cost))
			e.casMaxPeak(uint64(cost))
			return true
		}
	}
}

func (e *Executor) returnGlobalFuel(amount Fuel) {
	e.globalFuelRemaining.Add(int64(amount))
	e.fuelReturned.Add(uint64(amount))
}

func (e *Executor) casMaxPeak(delta uint64) {
	for {
		cur := e.globalFuelPeak.Load()
		next := cur + delta
		if e.globalFuelPeak.CompareAndSwap(cur, next) {
			return
		}
	}
}

// SetGlobalFuelLimit sets the remaining global pool to budget. Existing
// tasks keep their own per-task budgets untouched.
func (e *Executor) SetGlobalFuelLimit(limit Fuel) {
	e.globalFuelRemaining.Store(int64(limit))
}

// queueWake records that id was woken. It never touches task or
// scheduler state directly — Wake is callable from inside a task's own
// Poll step (while the executor's main lock is held by that very
// PollTasks call) as well as from unrelated goroutines, so the only safe
// thing to do here is record the intent behind a lock of its own and let
// the next PollTasks call apply it.
func (e *Executor) queueWake(id TaskID) {
	e.wakeMu.Lock()
	if e.pendingWakeSet == nil {
		e.pendingWakeSet = make(map[TaskID]struct{})
	}
	if _, dup := e.pendingWakeSet[id]; !dup {
		e.pendingWakeSet[id] = struct{}{}
		e.pendingWakes = append(e.pendingWakes, id)
	}
	e.wakeMu.Unlock()
	e.wakeMeter.Add(uint64(WakerCost))
}

// drainWakes applies every wake queued since the last call, in arrival
// order: a Waiting task moves to Ready after being charged WakerCost;
// anything else (already Ready, terminal, or unknown) is dropped
// silently.
func (e *Executor) drainWakes() {
	e.wakeMu.Lock()
	woken := e.pendingWakes
	e.pendingWakes = nil
	e.pendingWakeSet = nil
	e.wakeMu.Unlock()

	for _, id := range woken {
		t, ok := e.tasks.Get(id)
		if !ok || t.state != Waiting {
			continue
		}
		cost := WakerCost * e.multiplier()
		if t.chargeFuel(cost) {
			e.failTask(t, FuelExhausted)
			continue
		}
		t.state = Ready
		e.scheduler.UpdateTaskState(id, cost, Ready)
	}
}

// Cancel marks task as Cancelled. The executor drops its future and
// reclaims unused fuel at the next PollTasks call.
func (e *Executor) Cancel(id TaskID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tasks.Get(id)
	if !ok {
		return errs.New(errs.Resource, errs.CodeInvalidHandle, "Executor: unknown task id")
	}
	if t.state.IsTerminal() {
		return nil
	}
	t.state = Cancelled
	t.failureReason = TaskCancelled
	return nil
}

func (e *Executor) failTask(t *fuelAsyncTask, reason FailureReason) {
	t.state = Failed
	t.failureReason = reason
	t.future = nil
	e.scheduler.UpdateTaskState(t.id, 0, Failed)
	e.failed.Add(1)
	if unused := t.remainingFuel(); unused > 0 {
		e.returnGlobalFuel(unused)
	}
	if e.logger.IsEnabled(log.LevelWarn) {
		e.logger.Log(log.Entry{
			Level:        log.LevelWarn,
			Category:     "fuel",
			TaskID:       uint64(t.id),
			HasTaskID:    true,
			FuelConsumed: uint64(t.fuelConsumed),
			Message:      "task failed: " + reason.String(),
		})
	}
}

// reapCancelled drops the futures of tasks cancelled since the last
// batch, returning their unused fuel. Runs with e.mu held.
func (e *Executor) reapCancelled() {
	e.tasks.Each(func(id TaskID, t *fuelAsyncTask) bool {
		if t.state != Cancelled || t.future == nil {
			return true
		}
		t.future = nil
		e.scheduler.RemoveTask(id)
		e.cancelled.Add(1)
		if unused := t.remainingFuel(); unused > 0 {
			e.returnGlobalFuel(unused)
		}
		return true
	})
}

// PollTasks polls one batch of ready tasks (as many as the scheduler
// currently reports ready), running each to its next suspension point,
// its budget's exhaustion, or completion. It never blocks and never
// re-polls a task twice within the same batch, even if that task's own
// wake (direct or via a self-rearming future) makes it ready again
// mid-batch.
func (e *Executor) PollTasks() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.shutdown.Load() {
		return 0, errs.New(errs.Async, errs.CodeCancelled, "Executor: poll after shutdown")
	}

	e.ticks.Add(1)
	e.reapCancelled()
	e.drainWakes()

	var batch []TaskID
	seen := make(map[TaskID]struct{})
	for {
		id, ok := e.scheduler.NextTask()
		if !ok {
			break
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		batch = append(batch, id)
	}

	polled := 0
	for _, id := range batch {
		t, ok := e.tasks.Get(id)
		if !ok || t.state.IsTerminal() {
			continue
		}
		e.pollOne(t)
		polled++
	}

	if polled == 0 {
		e.checkDeadlock()
	} else {
		e.noProgress = 0
	}
	return polled, nil
}

// pollOne advances a single task one step.
func (e *Executor) pollOne(t *fuelAsyncTask) {
	if t.deadline != nil && e.ticks.Load() > *t.deadline {
		e.failTask(t, DeadlineMissed)
		return
	}

	pollCost := PollBaseCost * e.multiplier()
	if t.chargeFuel(pollCost) {
		e.failTask(t, FuelExhausted)
		return
	}

	t.state = Running
	outcome, err, panicked := func() (o PollOutcome, ferr error, p bool) {
		defer func() {
			if r := recover(); r != nil {
				p = true
			}
		}()
		o, ferr = t.future.Poll()
		return o, ferr, false
	}()

	if panicked {
		e.failTask(t, TaskPanic)
		return
	}
	if err != nil {
		e.failTask(t, TaskError)
		return
	}

	switch outcome {
	case ReadyOutcome:
		t.state = Completed
		t.future = nil
		e.scheduler.UpdateTaskState(t.id, 0, Completed)
		e.completed.Add(1)
		if unused := t.remainingFuel(); unused > 0 {
			e.returnGlobalFuel(unused)
		}
	case PendingOutcome:
		t.state = Waiting
		e.scheduler.UpdateTaskState(t.id, 0, Waiting)
	case YieldOutcome:
		t.state = Ready
		e.scheduler.UpdateTaskState(t.id, 0, Ready)
	}
}

// Ticks reports how many PollTasks batches have run: the monotonic tick
// domain task deadlines are expressed in.
func (e *Executor) Ticks() uint64 {
	return e.ticks.Load()
}

// WakeMeter reports total fuel charged to the global wake-meter across
// every Waker invocation, whatever context the wake originated from.
func (e *Executor) WakeMeter() Fuel {
	return Fuel(e.wakeMeter.Load())
}

// checkDeadlock counts a no-progress round whenever a PollTasks call
// polls nothing while at least one task remains Waiting; after
// deadlockGrace consecutive such rounds every Waiting task is failed
// with Deadlock, on the grounds that no outstanding waker is going to
// arrive.
func (e *Executor) checkDeadlock() {
	hasWaiting := false
	e.tasks.Each(func(_ TaskID, t *fuelAsyncTask) bool {
		if t.state == Waiting {
			hasWaiting = true
			return false
		}
		return true
	})
	if !hasWaiting {
		e.noProgress = 0
		return
	}
	e.noProgress++
	if e.noProgress < e.deadlockGrace {
		return
	}
	e.tasks.Each(func(_ TaskID, t *fuelAsyncTask) bool {
		if t.state == Waiting {
			e.failTask(t, Deadlock)
		}
		return true
	})
	e.noProgress = 0
}

// GetTaskStatus returns a snapshot of task id's current status.
func (e *Executor) GetTaskStatus(id TaskID) (TaskStatus, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tasks.Get(id)
	if !ok {
		return TaskStatus{}, false
	}
	return t.status(), true
}

// Release removes a terminal task from the executor's bounded table,
// freeing its slot for future spawns. Releasing a task that is still
// running fails; the caller must Cancel it and poll once first.
func (e *Executor) Release(id TaskID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tasks.Get(id)
	if !ok {
		return errs.New(errs.Resource, errs.CodeInvalidHandle, "Executor: unknown task id")
	}
	if !t.state.IsTerminal() {
		return errs.New(errs.Resource, errs.CodeResourceBusy, "Executor: task has not reached a terminal state")
	}
	if t.state == Cancelled && t.future != nil {
		// Cancelled but not yet reaped: settle its accounting now rather
		// than waiting for the next PollTasks.
		t.future = nil
		e.cancelled.Add(1)
		if unused := t.remainingFuel(); unused > 0 {
			e.returnGlobalFuel(unused)
		}
	}
	e.scheduler.RemoveTask(id)
	e.tasks.Remove(id)
	return nil
}

// Shutdown transitions every non-terminal task to Cancelled, drops their
// futures, returns unused fuel to the "unused" accounting pool, and
// invalidates the executor's weak handle so any outstanding Wakers become
// no-ops.
func (e *Executor) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.shutdown.Swap(true) {
		return nil
	}
	e.tasks.Each(func(id TaskID, t *fuelAsyncTask) bool {
		if !t.state.IsTerminal() {
			t.state = Cancelled
			t.failureReason = TaskCancelled
			e.cancelled.Add(1)
			if unused := t.remainingFuel(); unused > 0 {
				e.returnGlobalFuel(unused)
			}
		}
		t.future = nil
		return true
	})
	e.handle.invalidate()
	return nil
}

// Stats returns a point-in-time snapshot of cumulative executor counters.
func (e *Executor) Stats() ExecutorStats {
	return ExecutorStats{
		Spawned:           e.spawned.Load(),
		Completed:         e.completed.Load(),
		Failed:            e.failed.Load(),
		Cancelled:         e.cancelled.Load(),
		FuelConsumedTotal: Fuel(e.fuelSpent.Load()),
		FuelReturnedTotal: Fuel(e.fuelReturned.Load()),
	}
}

// SchedulingStatistics exposes the active scheduler's counters.
func (e *Executor) SchedulingStatistics() SchedulingStatistics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scheduler.Statistics()
}
