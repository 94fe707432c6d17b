// Package component implements the binding between Component Model task
// semantics and the fuel executor: component registration, per-component
// concurrency/fuel caps, and the bounded component-task-id to
// executor-task-id mapping async calls are dispatched through.
package component

import (
	"sync"

	"github.com/wrtcore/fuelrt/container"
	"github.com/wrtcore/fuelrt/errs"
	"github.com/wrtcore/fuelrt/fuel"
	"github.com/wrtcore/fuelrt/log"
)

// TaskID identifies an async task from the calling component's point of
// view; the Bridge maps it onto the executor's own fuel.TaskID.
type TaskID uint64

func taskIDBytes(id TaskID) []byte {
	return []byte{byte(id), byte(id >> 8), byte(id >> 16), byte(id >> 24), byte(id >> 32), byte(id >> 40), byte(id >> 48), byte(id >> 56)}
}

type componentRecord struct {
	id                 fuel.ComponentID
	maxConcurrentTasks int
	fuelBudget         fuel.Fuel
	fuelRemaining      fuel.Fuel
	priority           fuel.Priority
	active             int
	spawned            uint64
	completed          uint64
	failed             uint64
}

// Stats is a point-in-time snapshot of one component's bridge bookkeeping.
type Stats struct {
	ComponentID        fuel.ComponentID
	MaxConcurrentTasks int
	ActiveTasks        int
	Spawned            uint64
	Completed          uint64
	Failed             uint64
	FuelBudget         fuel.Fuel
	FuelRemaining      fuel.Fuel
}

// PollResult summarises one PollAsyncTasks call across every
// bridge-tracked task.
type PollResult struct {
	Polled        int
	Completed     int
	Failed        int
	Waiting       int
	FuelConsumed  fuel.Fuel
	FuelRemaining fuel.Fuel
}

// Bridge binds registered components to a shared fuel.Executor.
type Bridge struct {
	mu       sync.Mutex
	executor *fuel.Executor
	cap      int
	logger   log.Logger

	components map[fuel.ComponentID]*componentRecord
	taskMap    *container.BoundedMap[TaskID, fuel.TaskID]
	nextTaskID uint64
}

type bridgeOptions struct {
	taskTableCapacity int
	logger            log.Logger
}

// BridgeOption configures a New Bridge.
type BridgeOption func(*bridgeOptions)

// WithTaskTableCapacity bounds the bridge-wide component-task-id table.
// Defaults to 4096.
func WithTaskTableCapacity(n int) BridgeOption {
	return func(o *bridgeOptions) { o.taskTableCapacity = n }
}

// WithLogger attaches a logger for structured diagnostics. Defaults to
// log.NoOp().
func WithLogger(l log.Logger) BridgeOption {
	return func(o *bridgeOptions) { o.logger = l }
}

func resolveBridgeOptions(opts []BridgeOption) *bridgeOptions {
	cfg := &bridgeOptions{taskTableCapacity: 4096}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.taskTableCapacity <= 0 {
		cfg.taskTableCapacity = 4096
	}
	if cfg.logger == nil {
		cfg.logger = log.NoOp()
	}
	return cfg
}

// New constructs a Bridge dispatching onto executor.
func New(executor *fuel.Executor, opts ...BridgeOption) *Bridge {
	cfg := resolveBridgeOptions(opts)
	return &Bridge{
		executor:   executor,
		cap:        cfg.taskTableCapacity,
		logger:     cfg.logger,
		components: make(map[fuel.ComponentID]*componentRecord),
		taskMap:    container.NewBoundedMap[TaskID, fuel.TaskID](cfg.taskTableCapacity, taskIDBytes),
	}
}

// RegisterComponent registers componentID with its concurrency and fuel
// caps. Re-registering an already-known componentID resets its record.
func (b *Bridge) RegisterComponent(componentID fuel.ComponentID, maxConcurrentTasks int, fuelBudget fuel.Fuel, priority fuel.Priority) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.components[componentID] = &componentRecord{
		id:                 componentID,
		maxConcurrentTasks: maxConcurrentTasks,
		fuelBudget:         fuelBudget,
		fuelRemaining:      fuelBudget,
		priority:           priority,
	}
}

// SpawnComponentAsync spawns a new async task on behalf of componentID. A
// nil fuelBudget gives the task the component's whole registered
// fuelBudget; an explicit value gives it that amount. Either way the
// task's budget is reserved from the component's remaining fuel pool, and
// the spawn fails with ComponentFuelExhausted when the pool holds less.
func (b *Bridge) SpawnComponentAsync(componentID fuel.ComponentID, fuelBudget *fuel.Fuel, makeFuture func(*fuel.Waker) fuel.Future) (TaskID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.components[componentID]
	if !ok {
		return 0, errs.New(errs.Component, errs.CodeComponentNotRegistered, "component not registered")
	}
	if rec.active >= rec.maxConcurrentTasks {
		return 0, errs.New(errs.Component, errs.CodeComponentLimitExceeded, "component at max concurrent tasks")
	}

	taskFuel := rec.fuelBudget
	if fuelBudget != nil {
		taskFuel = *fuelBudget
	}
	if taskFuel > rec.fuelRemaining {
		return 0, errs.New(errs.Component, errs.CodeComponentFuelExhausted, "component fuel budget exhausted")
	}

	etID, err := b.executor.SpawnTask(componentID, taskFuel, rec.priority, nil, makeFuture)
	if err != nil {
		return 0, err
	}

	ctID := TaskID(b.nextTaskID + 1)
	if err := b.taskMap.Insert(ctID, etID); err != nil {
		b.scavengeLocked()
		if err := b.taskMap.Insert(ctID, etID); err != nil {
			_ = b.executor.Cancel(etID)
			return 0, errs.New(errs.Component, errs.CodeTooManyTasks, "component task table full")
		}
	}
	b.nextTaskID++
	rec.fuelRemaining -= taskFuel
	rec.active++
	rec.spawned++
	return ctID, nil
}

// IsTaskReady reports whether ctID currently has a result the host can
// collect: it is Ready to be polled, or already Completed.
func (b *Bridge) IsTaskReady(ctID TaskID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	etID, ok := b.taskMap.Get(ctID)
	if !ok {
		return false
	}
	status, ok := b.executor.GetTaskStatus(etID)
	if !ok {
		return false
	}
	return status.State == fuel.Ready || status.State == fuel.Completed
}

// PollAsyncTasks drives the underlying executor one batch forward, then
// reaps every bridge-tracked task that reached a terminal state, returning
// unused fuel to its component's pool.
func (b *Bridge) PollAsyncTasks() (PollResult, error) {
	polled, err := b.executor.PollTasks()
	if err != nil {
		return PollResult{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	result := PollResult{Polled: polled}
	var toRemove []TaskID

	b.taskMap.Each(func(ctID TaskID, etID fuel.TaskID) bool {
		status, ok := b.executor.GetTaskStatus(etID)
		if !ok {
			toRemove = append(toRemove, ctID)
			return true
		}
		switch status.State {
		case fuel.Completed:
			result.Completed++
			result.FuelConsumed += status.FuelConsumed
			b.reapLocked(ctID, etID, status)
			toRemove = append(toRemove, ctID)
		case fuel.Failed, fuel.Cancelled:
			result.Failed++
			result.FuelConsumed += status.FuelConsumed
			b.reapLocked(ctID, etID, status)
			toRemove = append(toRemove, ctID)
		case fuel.Waiting:
			result.Waiting++
		}
		return true
	})

	for _, ctID := range toRemove {
		b.taskMap.Remove(ctID)
	}

	for _, rec := range b.components {
		result.FuelRemaining += rec.fuelRemaining
	}
	return result, nil
}

// reapLocked decrements the owning component's active count, returns
// unused fuel to its pool, and releases the executor's own slot for the
// task. Must be called with b.mu held.
func (b *Bridge) reapLocked(ctID TaskID, etID fuel.TaskID, status fuel.TaskStatus) {
	_ = b.executor.Release(etID)
	rec, ok := b.components[status.ComponentID]
	if !ok {
		return
	}
	rec.active--
	if status.FailureReason == fuel.NoFailure {
		rec.completed++
	} else {
		rec.failed++
	}
	if status.FuelConsumed < status.FuelBudget {
		rec.fuelRemaining += status.FuelBudget - status.FuelConsumed
	}
}

// scavengeLocked compacts the task-id table by rebuilding it with only
// non-terminal entries, dropping entries of tasks that reached a terminal
// state but have not been reaped by PollAsyncTasks yet. Must be called
// with b.mu held.
func (b *Bridge) scavengeLocked() {
	before := b.taskMap.Len()
	fresh := container.NewBoundedMap[TaskID, fuel.TaskID](b.cap, taskIDBytes)
	b.taskMap.Each(func(ctID TaskID, etID fuel.TaskID) bool {
		if status, ok := b.executor.GetTaskStatus(etID); ok && !status.State.IsTerminal() {
			_ = fresh.Insert(ctID, etID)
		}
		return true
	})
	b.taskMap = fresh
	if b.logger.IsEnabled(log.LevelDebug) {
		b.logger.Log(log.Entry{
			Level:    log.LevelDebug,
			Category: "component",
			Message:  "task table compacted",
			Fields:   map[string]any{"before": before, "after": fresh.Len()},
		})
	}
}

// Scavenge compacts the bounded task-id table on demand, in addition to
// the automatic compaction SpawnComponentAsync triggers when the table is
// full. Safe to call periodically from an idle host loop.
func (b *Bridge) Scavenge() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scavengeLocked()
}

// SetGlobalFuelBudget sets the executor's shared fuel pool, shrinking or
// growing the ceiling every component's async tasks draw from.
func (b *Bridge) SetGlobalFuelBudget(limit fuel.Fuel) {
	b.executor.SetGlobalFuelLimit(limit)
}

// GetPollingStats returns the underlying executor's cumulative task
// counters (spawned, completed, failed, cancelled) and fuel drawn and
// returned, for a host that wants bridge-wide visibility without querying
// each component individually.
func (b *Bridge) GetPollingStats() fuel.ExecutorStats {
	return b.executor.Stats()
}

// GetComponentStats returns a snapshot of componentID's bridge bookkeeping.
func (b *Bridge) GetComponentStats(componentID fuel.ComponentID) (Stats, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.components[componentID]
	if !ok {
		return Stats{}, false
	}
	return Stats{
		ComponentID:        rec.id,
		MaxConcurrentTasks: rec.maxConcurrentTasks,
		ActiveTasks:        rec.active,
		Spawned:            rec.spawned,
		Completed:          rec.completed,
		Failed:             rec.failed,
		FuelBudget:         rec.fuelBudget,
		FuelRemaining:      rec.fuelRemaining,
	}, true
}
