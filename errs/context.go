package errs

import (
	"fmt"
	"strings"
)

// maxContextChain is the compile-time bound on a ContextualError's chain,
// per the runtime's bounded-container discipline: contexts never cause an
// unbounded allocation, even under an error storm.
const maxContextChain = 16

// contextStringBound matches BoundedString's typical small-message ceiling
// so ErrorContext stays a fixed-size value the same way every other
// runtime record does.
const contextStringBound = 256

// ErrorContext is a single bounded annotation in a ContextualError's chain.
type ErrorContext struct {
	ComponentID      string
	TaskID           uint64
	HasTaskID        bool
	Location         string
	Message          string
	FuelConsumedAtPt uint64
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// NewErrorContext builds an ErrorContext, truncating oversized fields to
// the runtime's bounded-string ceiling rather than failing: context
// recording must never itself be a source of allocation failure.
func NewErrorContext(componentID, location, message string, fuelAtPoint uint64) ErrorContext {
	return ErrorContext{
		ComponentID:      truncate(componentID, contextStringBound),
		Location:         truncate(location, contextStringBound),
		Message:          truncate(message, contextStringBound),
		FuelConsumedAtPt: fuelAtPoint,
	}
}

func (c ErrorContext) WithTaskID(id uint64) ErrorContext {
	c.TaskID = id
	c.HasTaskID = true
	return c
}

// ContextualError wraps a root error with a bounded chain of ErrorContext
// entries. When the chain would exceed maxContextChain, the oldest entry
// is dropped and the newest is retained — the chain is a ring, not a
// growing list.
type ContextualError struct {
	Root        error
	chain       [maxContextChain]ErrorContext
	chainLen    int
	chainStart  int
	TotalFuel   uint64
}

// Wrap creates a new ContextualError rooted at err.
func Wrap(err error) *ContextualError {
	return &ContextualError{Root: err}
}

// AddContext appends a context entry, charging contextCost fuel against
// TotalFuel. When the budget for wrapping is exhausted, the caller should
// prefer AddContextFree, which records without charging — degrading to
// recording-only rather than dropping the context entirely, per the
// runtime's error-propagation policy.
func (e *ContextualError) AddContext(ctx ErrorContext, contextCost uint64) *ContextualError {
	e.TotalFuel += contextCost
	e.push(ctx)
	return e
}

// AddContextFree appends a context entry without charging fuel, used once
// the fuel budget backing error-context wrapping has been exhausted.
func (e *ContextualError) AddContextFree(ctx ErrorContext) *ContextualError {
	e.push(ctx)
	return e
}

func (e *ContextualError) push(ctx ErrorContext) {
	if e.chainLen < maxContextChain {
		idx := (e.chainStart + e.chainLen) % maxContextChain
		e.chain[idx] = ctx
		e.chainLen++
		return
	}
	// Chain full: drop oldest, retain newest.
	e.chain[e.chainStart] = ctx
	e.chainStart = (e.chainStart + 1) % maxContextChain
}

// RootCause returns the error this chain is rooted at.
func (e *ContextualError) RootCause() error { return e.Root }

// LatestContext returns the most recently added context entry, if any.
func (e *ContextualError) LatestContext() (ErrorContext, bool) {
	if e.chainLen == 0 {
		return ErrorContext{}, false
	}
	return e.chain[(e.chainStart+e.chainLen-1)%maxContextChain], true
}

// Chain merges other's context entries onto e, oldest-to-newest, and sums
// fuel totals. Used when an error surfaces through a second call boundary
// that already built its own ContextualError, rather than discarding one
// chain in favor of the other.
func (e *ContextualError) Chain(other *ContextualError) *ContextualError {
	if other == nil {
		return e
	}
	e.TotalFuel += other.TotalFuel
	for _, ctx := range other.Contexts() {
		e.push(ctx)
	}
	return e
}

// Contexts returns the chain in insertion order (oldest retained first).
func (e *ContextualError) Contexts() []ErrorContext {
	out := make([]ErrorContext, e.chainLen)
	for i := 0; i < e.chainLen; i++ {
		out[i] = e.chain[(e.chainStart+i)%maxContextChain]
	}
	return out
}

// Error implements the error interface: root message plus the latest
// context.
func (e *ContextualError) Error() string {
	if e.chainLen == 0 {
		if e.Root == nil {
			return "contextual error"
		}
		return e.Root.Error()
	}
	latest := e.chain[(e.chainStart+e.chainLen-1)%maxContextChain]
	if e.Root == nil {
		return latest.Message
	}
	return fmt.Sprintf("%s: %s", e.Root.Error(), latest.Message)
}

// Unwrap exposes the root error for errors.Is/errors.As.
func (e *ContextualError) Unwrap() error {
	return e.Root
}

// Is reports whether target is itself a *ContextualError, letting callers
// match on the wrapper type regardless of contents, mirroring
// errors.Is chains that only care about the shape of the failure.
func (e *ContextualError) Is(target error) bool {
	_, ok := target.(*ContextualError)
	return ok
}

// FormatWithContext renders the full chain deterministically: root cause
// first, then every retained context oldest-to-newest.
func (e *ContextualError) FormatWithContext() string {
	var b strings.Builder
	if e.Root != nil {
		b.WriteString(e.Root.Error())
	} else {
		b.WriteString("<no root error>")
	}
	for _, ctx := range e.Contexts() {
		b.WriteString("\n  at ")
		if ctx.ComponentID != "" {
			b.WriteString(ctx.ComponentID)
			b.WriteString(" ")
		}
		b.WriteString(ctx.Location)
		if ctx.HasTaskID {
			fmt.Fprintf(&b, " task=%d", ctx.TaskID)
		}
		fmt.Fprintf(&b, " fuel=%d: %s", ctx.FuelConsumedAtPt, ctx.Message)
	}
	return b.String()
}
