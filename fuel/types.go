// Package fuel implements the deterministic, fuel-metered async executor:
// the single-threaded cooperative scheduler in which every suspension
// point charges a known cost, so execution timing is reproducible across
// platforms for safety certification.
package fuel

import "fmt"

// Fuel is a virtual-cycle counter spent by every observable operation.
type Fuel uint64

// TaskID identifies a task spawned onto an Executor. Zero is never
// issued.
type TaskID uint64

// ComponentID identifies the component a task was spawned on behalf of.
type ComponentID uint64

// Priority orders tasks within PriorityBased scheduling policies.
type Priority uint8

const (
	Low Priority = iota
	Normal
	High
	Critical
)

func (p Priority) String() string {
	switch p {
	case Low:
		return "Low"
	case Normal:
		return "Normal"
	case High:
		return "High"
	case Critical:
		return "Critical"
	default:
		return fmt.Sprintf("Priority(%d)", uint8(p))
	}
}

// FailureReason distinguishes the ways a task can end up in the Failed
// state.
type FailureReason uint8

const (
	NoFailure FailureReason = iota
	FuelExhausted
	Timeout
	TaskCancelled
	TaskPanic
	TaskError
	Deadlock
	DeadlineMissed
)

func (r FailureReason) String() string {
	switch r {
	case NoFailure:
		return "None"
	case FuelExhausted:
		return "FuelExhausted"
	case Timeout:
		return "Timeout"
	case TaskCancelled:
		return "Cancelled"
	case TaskError:
		return "Error"
	case TaskPanic:
		return "Panic"
	case Deadlock:
		return "Deadlock"
	case DeadlineMissed:
		return "DeadlineMissed"
	default:
		return fmt.Sprintf("FailureReason(%d)", uint8(r))
	}
}

// AsyncTaskState is the closed set of states a task moves through.
// Pending/Ready/Running/Waiting are transient; Completed/Cancelled/Failed
// are terminal sinks.
type AsyncTaskState uint8

const (
	Pending AsyncTaskState = iota
	Ready
	Running
	Waiting
	Completed
	Cancelled
	Failed
)

func (s AsyncTaskState) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Ready:
		return "Ready"
	case Running:
		return "Running"
	case Waiting:
		return "Waiting"
	case Completed:
		return "Completed"
	case Cancelled:
		return "Cancelled"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("AsyncTaskState(%d)", uint8(s))
	}
}

// IsTerminal reports whether s is a sink state no further poll can leave.
func (s AsyncTaskState) IsTerminal() bool {
	return s == Completed || s == Cancelled || s == Failed
}

// TaskStatus is the point-in-time snapshot returned by GetTaskStatus.
type TaskStatus struct {
	ID            TaskID
	ComponentID   ComponentID
	Priority      Priority
	State         AsyncTaskState
	FailureReason FailureReason
	FuelBudget    Fuel
	FuelConsumed  Fuel
	Deadline      *uint64
}

// ExecutorStats is the point-in-time counters exposed by Executor.Stats.
type ExecutorStats struct {
	Spawned           uint64
	Completed         uint64
	Failed            uint64
	Cancelled         uint64
	FuelConsumedTotal Fuel
	FuelReturnedTotal Fuel
}

// Stable fuel-cost table. Every recorded operation type has a fixed base
// cost. PollBaseCost and WakerCost are multiplied by the active
// budget.VerificationLevel's Multiplier() when charged to a task's budget;
// SpawnCost is drawn from the global pool unscaled, and the global
// wake-meter adds WakerCost unscaled.
// These values are part of the replay ABI and must never change once
// published, only gain siblings.
const (
	SpawnCost    Fuel = 15
	PollBaseCost Fuel = 20
	WakerCost    Fuel = 5
	ContextCost  Fuel = 2
)
