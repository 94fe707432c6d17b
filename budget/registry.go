package budget

import (
	"sync"
	"sync/atomic"

	"github.com/wrtcore/fuelrt/errs"
	"github.com/wrtcore/fuelrt/log"
)

type lifecycle uint32

const (
	lifecycleUninitialized lifecycle = iota
	lifecycleInitialized
	lifecycleLocked
)

// crateState is the mutable, atomically-updated ledger backing a single
// Record. allocated/peak are atomics so concurrent crates can request
// allocations without a shared lock, matching the concurrency model's
// "budget counters: atomic; writers may be any registered crate;
// invariants enforced by CAS" rule.
type crateState struct {
	maxBytes    uint64
	safetyLevel SafetyLevel
	allocated   atomic.Uint64
	peak        atomic.Uint64
	samples     *sampleRing
}

// System is the capability & budget registry: the central gatekeeper
// every allocation in the runtime is brokered through. It is an
// explicit, host-owned value rather than a process-wide singleton, so
// parallel hosts (and parallel tests) get fully isolated registries;
// a process-wide default is opt-in via Install.
type System struct {
	mu           sync.RWMutex // guards crates/capabilities population, init-time only
	crates       map[CrateId]*crateState
	capabilities map[CrateId]Capability

	totalBudget    uint64
	totalAllocated atomic.Uint64
	totalPeak      atomic.Uint64

	enforcement EnforcementLevel
	safetyLevel SafetyLevel

	state atomic.Uint32 // lifecycle

	logger  log.Logger
	sampleN int
}

// SystemOption configures a System at construction.
type SystemOption func(*systemOptions)

type systemOptions struct {
	logger  log.Logger
	sampleN int
}

func WithLogger(l log.Logger) SystemOption {
	return func(o *systemOptions) { o.logger = l }
}

// WithSampleRing sets the capacity of the per-crate allocation sampling
// ring used by RecentSamples; 0 disables sampling (the default).
func WithSampleRing(capacity int) SystemOption {
	return func(o *systemOptions) { o.sampleN = capacity }
}

func resolveSystemOptions(opts []SystemOption) *systemOptions {
	cfg := &systemOptions{logger: log.NoOp()}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// NewSystem constructs an uninitialized System. Initialize must be called
// before any crate registration or allocation request.
func NewSystem(opts ...SystemOption) *System {
	cfg := resolveSystemOptions(opts)
	return &System{
		crates:       make(map[CrateId]*crateState),
		capabilities: make(map[CrateId]Capability),
		logger:       cfg.logger,
		sampleN:      cfg.sampleN,
	}
}

// Initialize performs the once-only system-wide setup. A second call
// fails with AlreadyInitialized. The configuration fields are written
// before the lifecycle store publishes them, so any caller observing the
// initialized state also observes the configuration.
func (s *System) Initialize(totalBudget uint64, enforcement EnforcementLevel, safetyLevel SafetyLevel) error {
	s.mu.Lock()
	if lifecycle(s.state.Load()) != lifecycleUninitialized {
		s.mu.Unlock()
		return errs.New(errs.Capability, errs.CodeAlreadyInitialized, "budget.System: already initialized")
	}
	s.totalBudget = totalBudget
	s.enforcement = enforcement
	s.safetyLevel = safetyLevel
	s.state.Store(uint32(lifecycleInitialized))
	s.mu.Unlock()
	s.logger.Log(log.Entry{Level: log.LevelInfo, Category: "budget", Message: "system initialized",
		Fields: map[string]any{"total_budget": totalBudget, "enforcement": enforcement.String(), "safety_level": safetyLevel.String()}})
	return nil
}

func (s *System) mustBeOpen() error {
	switch lifecycle(s.state.Load()) {
	case lifecycleUninitialized:
		return errs.New(errs.Capability, errs.CodeAccessDenied, "budget.System: not initialized")
	case lifecycleLocked:
		return errs.New(errs.Capability, errs.CodePostInitAllocation, "budget.System: registration closed after lock-down")
	default:
		return nil
	}
}

// RegisterCrate installs a budget Record for id. Must precede any
// allocation request from that crate, and must happen before
// CompleteInitialization — capability tables are written only during
// initialisation and read-only thereafter, per the runtime's concurrency
// model.
func (s *System) RegisterCrate(id CrateId, maxBytes uint64, safetyLevel SafetyLevel) error {
	if err := s.mustBeOpen(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cs := &crateState{maxBytes: maxBytes, safetyLevel: safetyLevel}
	if s.sampleN > 0 {
		cs.samples = newSampleRing(s.sampleN)
	}
	s.crates[id] = cs
	return nil
}

// RegisterCapability installs a named Capability the context can later
// retrieve via GetCapability.
func (s *System) RegisterCapability(id CrateId, cap Capability) error {
	if err := s.mustBeOpen(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capabilities[id] = cap
	return nil
}

// GetCapability returns the capability registered for id.
func (s *System) GetCapability(id CrateId) (Capability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cap, ok := s.capabilities[id]
	if !ok {
		return nil, errs.New(errs.Capability, errs.CodeCapabilityNotFound, "budget.System: no capability registered for crate")
	}
	return cap, nil
}

// singleAllocationCeiling returns the maximum single-allocation size
// permitted under SafetyCritical enforcement, expressed as a fraction of
// the total budget: 10%, or 12.5% for ASIL-C/D. Only SafetyCritical
// enforces this ceiling; Strict enforces per-crate/system budgets but not
// this additional single-allocation cap. The fraction is of the total
// budget, not of the requesting crate's own ceiling.
func (s *System) singleAllocationCeiling() uint64 {
	fraction := 10
	if s.safetyLevel == ASILC || s.safetyLevel == ASILD {
		fraction = 125 // out of 1000, i.e. 12.5%
		return s.totalBudget * uint64(fraction) / 1000
	}
	return s.totalBudget * uint64(fraction) / 100
}

// RequestAllocation evaluates whether a size-byte allocation from id is
// permitted, atomically reserving it on Approved. Under every enforcement
// level an uninitialized system returns SafetyViolation and an
// unregistered crate returns CrateBudgetExceeded. Beyond that, Permissive
// approves (after recording), Strict enforces budgets, and SafetyCritical
// additionally forbids any allocation once CompleteInitialization has
// run.
func (s *System) RequestAllocation(id CrateId, size uint64) AllocationResult {
	state := lifecycle(s.state.Load())
	if state == lifecycleUninitialized {
		return SafetyViolation
	}

	enforcement := s.enforcement
	if enforcement == SafetyCritical && state == lifecycleLocked {
		return InitializationComplete
	}

	s.mu.RLock()
	cs, ok := s.crates[id]
	s.mu.RUnlock()
	if !ok {
		return CrateBudgetExceeded
	}

	if enforcement != Permissive {
		if cs.safetyLevel >= ASILC && size == 0 {
			return SafetyViolation
		}
	}
	if enforcement == SafetyCritical {
		if size > s.singleAllocationCeiling() && s.totalBudget > 0 {
			return SafetyViolation
		}
	}

	for {
		cur := cs.allocated.Load()
		next := cur + size
		if enforcement != Permissive && next > cs.maxBytes {
			return CrateBudgetExceeded
		}
		if cs.allocated.CompareAndSwap(cur, next) {
			break
		}
	}

	for {
		cur := s.totalAllocated.Load()
		next := cur + size
		if enforcement != Permissive && s.totalBudget > 0 && next > s.totalBudget {
			// Roll back the crate-level reservation before reporting failure.
			subAtomicSaturating(&cs.allocated, size)
			return SystemBudgetExceeded
		}
		if s.totalAllocated.CompareAndSwap(cur, next) {
			break
		}
	}

	casMaxUint64(&cs.peak, cs.allocated.Load())
	casMaxUint64(&s.totalPeak, s.totalAllocated.Load())
	if cs.samples != nil {
		cs.samples.record(size, cs.allocated.Load())
	}

	s.logger.Log(log.Entry{Level: log.LevelDebug, Category: "budget", Message: "allocation approved",
		Fields: map[string]any{"crate": id.String(), "size": size}})
	return Approved
}

// ReleaseAllocation returns size bytes to id's budget, e.g. when a
// provider is deallocated or a task's unused fuel-adjacent memory is
// reclaimed.
func (s *System) ReleaseAllocation(id CrateId, size uint64) {
	s.mu.RLock()
	cs, ok := s.crates[id]
	s.mu.RUnlock()
	if !ok {
		return
	}
	subAtomicSaturating(&cs.allocated, size)
	subAtomicSaturating(&s.totalAllocated, size)
}

// CompleteInitialization monotonically transitions the registry to its
// locked state. For SafetyCritical enforcement, every subsequent Allocate
// operation is rejected regardless of remaining budget.
func (s *System) CompleteInitialization() {
	s.state.CompareAndSwap(uint32(lifecycleInitialized), uint32(lifecycleLocked))
	s.logger.Log(log.Entry{Level: log.LevelInfo, Category: "budget", Message: "initialization complete, registry locked"})
}

// IsLocked reports whether CompleteInitialization has run.
func (s *System) IsLocked() bool {
	return lifecycle(s.state.Load()) == lifecycleLocked
}

// Snapshot returns the current Record for a crate.
func (s *System) Snapshot(id CrateId) (Record, bool) {
	s.mu.RLock()
	cs, ok := s.crates[id]
	s.mu.RUnlock()
	if !ok {
		return Record{}, false
	}
	return Record{
		MaxBytes:       cs.maxBytes,
		AllocatedBytes: cs.allocated.Load(),
		PeakBytes:      cs.peak.Load(),
		SafetyLevel:    cs.safetyLevel,
	}, true
}

// Stats returns a system-wide allocation snapshot, mirroring a crate-level
// Record but scoped to the whole registry.
func (s *System) Stats() SystemStats {
	s.mu.RLock()
	totalBudget := s.totalBudget
	s.mu.RUnlock()
	return SystemStats{
		TotalBudget:    totalBudget,
		TotalAllocated: s.totalAllocated.Load(),
		TotalPeak:      s.totalPeak.Load(),
		IsLocked:       s.IsLocked(),
	}
}

// TotalAllocated returns the system-wide allocated byte count.
func (s *System) TotalAllocated() uint64 { return s.totalAllocated.Load() }

// TotalPeak returns the system-wide peak allocated byte count.
func (s *System) TotalPeak() uint64 { return s.totalPeak.Load() }

// RecentSamples returns the most recent allocation samples recorded for
// id, if sampling was enabled via WithSampleRing. Purely a diagnostics
// convenience — never load-bearing for any invariant.
func (s *System) RecentSamples(id CrateId) []Sample {
	s.mu.RLock()
	cs, ok := s.crates[id]
	s.mu.RUnlock()
	if !ok || cs.samples == nil {
		return nil
	}
	return cs.samples.snapshot()
}

// AllocationError converts a non-Approved AllocationResult into a typed
// *errs.CodedError, for allocation paths that surface errors rather than
// result values.
func AllocationError(result AllocationResult) error {
	switch result {
	case Approved:
		return nil
	case CrateBudgetExceeded:
		return errs.New(errs.Memory, errs.CodeCrateBudgetExceeded, "crate budget exceeded")
	case SystemBudgetExceeded:
		return errs.New(errs.Memory, errs.CodeSystemBudgetExceeded, "system budget exceeded")
	case InitializationComplete:
		return errs.New(errs.Capability, errs.CodePostInitAllocation, "allocation refused after initialization lock-down")
	case SafetyViolation:
		return errs.New(errs.Safety, errs.CodeSafetyViolation, "allocation violates safety-critical constraint")
	default:
		return errs.New(errs.Core, errs.CodeAllocationRefused, "unknown allocation result")
	}
}

func casMaxUint64(v *atomic.Uint64, candidate uint64) {
	for {
		cur := v.Load()
		if candidate <= cur {
			return
		}
		if v.CompareAndSwap(cur, candidate) {
			return
		}
	}
}

func subAtomicSaturating(v *atomic.Uint64, amount uint64) {
	for {
		cur := v.Load()
		next := cur
		if amount > cur {
			next = 0
		} else {
			next = cur - amount
		}
		if v.CompareAndSwap(cur, next) {
			return
		}
	}
}
