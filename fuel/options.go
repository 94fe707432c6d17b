package fuel

import (
	"github.com/wrtcore/fuelrt/budget"
	"github.com/wrtcore/fuelrt/log"
)

// executorOptions holds configuration resolved at Executor construction.
type executorOptions struct {
	verification   budget.VerificationLevel
	globalFuel     Fuel
	maxTasks       int
	deadlockGrace  uint64
	scheduler      Scheduler
	logger         log.Logger
}

// ExecutorOption configures a New Executor.
type ExecutorOption interface {
	applyExecutor(*executorOptions)
}

type executorOptionFunc func(*executorOptions)

func (f executorOptionFunc) applyExecutor(o *executorOptions) { f(o) }

// WithVerificationLevel sets the verification level whose Multiplier()
// inflates every per-poll and per-waker fuel charge.
func WithVerificationLevel(level budget.VerificationLevel) ExecutorOption {
	return executorOptionFunc(func(o *executorOptions) { o.verification = level })
}

// WithGlobalFuelLimit sets the ceiling SpawnTask draws from. Equivalent
// to calling SetGlobalFuelLimit immediately after New.
func WithGlobalFuelLimit(limit Fuel) ExecutorOption {
	return executorOptionFunc(func(o *executorOptions) { o.globalFuel = limit })
}

// WithMaxTasks bounds the executor's task table. SpawnTask past this
// many concurrently-live tasks fails with Core/CapacityExceeded.
func WithMaxTasks(n int) ExecutorOption {
	return executorOptionFunc(func(o *executorOptions) { o.maxTasks = n })
}

// WithDeadlockGraceRounds sets how many consecutive empty-progress
// PollTasks calls, while tasks remain Waiting, the executor tolerates
// before declaring Deadlock. The right threshold depends on how the
// embedding host sources wakes, so it is a knob rather than a constant.
func WithDeadlockGraceRounds(rounds uint64) ExecutorOption {
	return executorOptionFunc(func(o *executorOptions) { o.deadlockGrace = rounds })
}

// WithScheduler overrides the default Cooperative (FIFO) policy with any
// Scheduler, such as one of the policies in the sched package.
func WithScheduler(s Scheduler) ExecutorOption {
	return executorOptionFunc(func(o *executorOptions) { o.scheduler = s })
}

// WithLogger attaches a logger for structured diagnostics. Defaults to
// log.NoOp().
func WithLogger(l log.Logger) ExecutorOption {
	return executorOptionFunc(func(o *executorOptions) { o.logger = l })
}

func resolveExecutorOptions(opts []ExecutorOption) *executorOptions {
	cfg := &executorOptions{
		verification:  budget.Basic,
		globalFuel:    1 << 32,
		maxTasks:      4096,
		deadlockGrace: 8,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyExecutor(cfg)
	}
	if cfg.scheduler == nil {
		cfg.scheduler = newFIFOScheduler()
	}
	if cfg.logger == nil {
		cfg.logger = log.NoOp()
	}
	return cfg
}
