package intercept

import (
	"sync"

	"github.com/wrtcore/fuelrt/errs"
	"github.com/wrtcore/fuelrt/fuel"
	"github.com/wrtcore/fuelrt/log"
)

// HostCallCost is the stable fuel cost of one host-boundary crossing,
// charged by Metering on every BeforeCall. Part of the replay ABI.
const HostCallCost fuel.Fuel = 25

// Metering charges a fixed fuel cost per host call against a budget
// fixed at construction, and refuses further crossings once the budget
// is spent. A zero budget meters without enforcing.
type Metering struct {
	mu     sync.Mutex
	budget fuel.Fuel
	spent  fuel.Fuel
	calls  uint64
}

// NewMetering builds a Metering strategy with the given host-call fuel
// budget; 0 disables enforcement but still counts.
func NewMetering(budget fuel.Fuel) *Metering {
	return &Metering{budget: budget}
}

func (m *Metering) BeforeCall(_ CallContext, args []CoreValue) ([]CoreValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.budget != 0 && m.spent+HostCallCost > m.budget {
		return nil, errs.New(errs.Async, errs.CodeFuelExhausted, "host-call fuel budget exhausted")
	}
	m.spent += HostCallCost
	m.calls++
	return args, nil
}

func (m *Metering) AfterCall(_ CallContext, _, results []CoreValue) ([]CoreValue, error) {
	return results, nil
}

// Spent reports total fuel charged to host calls so far.
func (m *Metering) Spent() fuel.Fuel {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.spent
}

// Calls reports how many crossings were admitted.
func (m *Metering) Calls() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Logging records every crossing through a log.Logger, before and after,
// without ever rewriting or refusing anything.
type Logging struct {
	logger log.Logger
}

// NewLogging builds a Logging strategy writing to logger (log.NoOp if
// nil).
func NewLogging(logger log.Logger) *Logging {
	if logger == nil {
		logger = log.NoOp()
	}
	return &Logging{logger: logger}
}

func (l *Logging) BeforeCall(ctx CallContext, args []CoreValue) ([]CoreValue, error) {
	if l.logger.IsEnabled(log.LevelDebug) {
		l.logger.Log(log.Entry{
			Level:    log.LevelDebug,
			Category: "intercept",
			Message:  "host call",
			Fields: map[string]any{
				"function": ctx.Function,
				"source":   uint64(ctx.Source),
				"target":   uint64(ctx.Target),
				"args":     len(args),
			},
		})
	}
	return args, nil
}

func (l *Logging) AfterCall(ctx CallContext, _, results []CoreValue) ([]CoreValue, error) {
	if l.logger.IsEnabled(log.LevelDebug) {
		l.logger.Log(log.Entry{
			Level:    log.LevelDebug,
			Category: "intercept",
			Message:  "host call returned",
			Fields: map[string]any{
				"function": ctx.Function,
				"results":  len(results),
			},
		})
	}
	return results, nil
}
