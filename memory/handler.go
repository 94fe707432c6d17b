package memory

import (
	"sync/atomic"

	"github.com/wrtcore/fuelrt/budget"
	"github.com/wrtcore/fuelrt/errs"
	"github.com/wrtcore/fuelrt/log"
)

// SafeMemoryHandler wraps a Provider with a VerificationLevel that scales
// the cost and intensity of every integrity check, and records a global
// operation-event counter every time a slice is borrowed or mutated.
type SafeMemoryHandler struct {
	provider Provider
	level    budget.VerificationLevel
	opEvents atomic.Uint64
	logger   log.Logger
}

// NewSafeMemoryHandler wraps provider with the given VerificationLevel.
func NewSafeMemoryHandler(provider Provider, level budget.VerificationLevel, logger log.Logger) *SafeMemoryHandler {
	if logger == nil {
		logger = log.NoOp()
	}
	return &SafeMemoryHandler{provider: provider, level: level, logger: logger}
}

func (h *SafeMemoryHandler) Level() budget.VerificationLevel { return h.level }
func (h *SafeMemoryHandler) OperationEvents() uint64         { return h.opEvents.Load() }
func (h *SafeMemoryHandler) Capacity() int                   { return h.provider.Capacity() }

// BorrowSlice records an operation event and returns an immutable window
// whose checksum is recomputed over the bytes as they stand at borrow
// time. Detecting mutation after the borrow is the caller's job, via
// SafeSlice.VerifyIntegrity or an AtomicMemoryOps window.
func (h *SafeMemoryHandler) BorrowSlice(offset, length int) (SafeSlice, error) {
	h.opEvents.Add(1)
	return h.provider.BorrowSlice(offset, length)
}

// GetSliceMut records an operation event and returns a mutable window.
func (h *SafeMemoryHandler) GetSliceMut(offset, length int) (*SafeSliceMut, error) {
	h.opEvents.Add(1)
	return h.provider.GetSliceMut(offset, length)
}

// VerifyIntegrity performs a full-handler integrity pass. Under Full
// verification a failed check is retried once before being surfaced;
// repeated failure is fatal.
func (h *SafeMemoryHandler) VerifyIntegrity() error {
	if err := h.provider.VerifyIntegrity(); err != nil {
		if h.level >= budget.Full {
			if retryErr := h.provider.VerifyIntegrity(); retryErr == nil {
				h.logger.Log(log.Entry{Level: log.LevelWarn, Category: "memory", Message: "integrity check recovered on retry"})
				return nil
			}
		}
		return err
	}
	return nil
}

// Allocate requests size bytes from the provider, rejecting zero-size
// requests once verification is at Basic or above.
func (h *SafeMemoryHandler) Allocate(size int) (SafeSlice, error) {
	if size == 0 && h.level >= budget.Basic {
		return SafeSlice{}, errs.New(errs.Memory, errs.CodeAllocationRefused, "SafeMemoryHandler: zero-size allocation rejected")
	}
	return h.provider.Allocate(size)
}

func (h *SafeMemoryHandler) Deallocate(s SafeSlice) error {
	return h.provider.Deallocate(s)
}
