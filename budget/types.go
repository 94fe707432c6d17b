// Package budget implements the capability & budget registry: the central
// gatekeeper that records a per-crate allocation ceiling at initialisation,
// dispenses capability tokens, and — for safety-critical configurations —
// forbids any allocation once the system has completed initialisation.
package budget

import "fmt"

// CrateId names every producer of allocations in the runtime. Budgets are
// attributed per origin so a single misbehaving crate cannot starve the
// rest of the system.
type CrateId uint8

const (
	Foundation CrateId = iota
	RuntimeCrate
	Decoder
	ComponentCrate
	Host
	Debug
	Platform
	Sync
	Intercept
	Format
	Instructions
	Logging
	Panic
	Wasi
	crateIdCount
)

func (c CrateId) String() string {
	switch c {
	case Foundation:
		return "Foundation"
	case RuntimeCrate:
		return "Runtime"
	case Decoder:
		return "Decoder"
	case ComponentCrate:
		return "Component"
	case Host:
		return "Host"
	case Debug:
		return "Debug"
	case Platform:
		return "Platform"
	case Sync:
		return "Sync"
	case Intercept:
		return "Intercept"
	case Format:
		return "Format"
	case Instructions:
		return "Instructions"
	case Logging:
		return "Logging"
	case Panic:
		return "Panic"
	case Wasi:
		return "Wasi"
	default:
		return fmt.Sprintf("CrateId(%d)", uint8(c))
	}
}

// SafetyLevel is totally ordered: QM is the least stringent, ASIL-D the
// most. It maps isomorphically onto DAL-E..A and SIL-1..4, which this
// runtime does not model as distinct types; a single ordered scale
// suffices.
type SafetyLevel uint8

const (
	QM SafetyLevel = iota
	ASILA
	ASILB
	ASILC
	ASILD
)

func (s SafetyLevel) String() string {
	switch s {
	case QM:
		return "QM"
	case ASILA:
		return "ASIL-A"
	case ASILB:
		return "ASIL-B"
	case ASILC:
		return "ASIL-C"
	case ASILD:
		return "ASIL-D"
	default:
		return fmt.Sprintf("SafetyLevel(%d)", uint8(s))
	}
}

// DALEquivalent returns the DO-178C Design Assurance Level corresponding
// to s (DAL-E..A, least to most stringent).
func (s SafetyLevel) DALEquivalent() string {
	switch s {
	case QM:
		return "DAL-E"
	case ASILA:
		return "DAL-D"
	case ASILB:
		return "DAL-C"
	case ASILC:
		return "DAL-B"
	case ASILD:
		return "DAL-A"
	default:
		return "DAL-E"
	}
}

// SILEquivalent returns the IEC 61508 Safety Integrity Level (1-4, 0 for
// QM) corresponding to s.
func (s SafetyLevel) SILEquivalent() int {
	switch s {
	case QM:
		return 0
	case ASILA:
		return 1
	case ASILB:
		return 2
	case ASILC:
		return 3
	case ASILD:
		return 4
	default:
		return 0
	}
}

// VerificationLevel is a dial controlling integrity-check intensity and
// the fuel-cost inflation factor applied to every metered operation.
type VerificationLevel uint8

const (
	Off VerificationLevel = iota
	Basic
	Sampling
	Standard
	Full
	Redundant
)

func (v VerificationLevel) String() string {
	switch v {
	case Off:
		return "Off"
	case Basic:
		return "Basic"
	case Sampling:
		return "Sampling"
	case Standard:
		return "Standard"
	case Full:
		return "Full"
	case Redundant:
		return "Redundant"
	default:
		return fmt.Sprintf("VerificationLevel(%d)", uint8(v))
	}
}

// Multiplier is the stable fuel-cost inflation factor for v. It is part
// of the replay ABI and must be preserved byte-exactly across
// implementations.
func (v VerificationLevel) Multiplier() uint64 {
	switch v {
	case Off:
		return 0
	case Basic:
		return 1
	case Sampling:
		return 2
	case Standard:
		return 4
	case Full:
		return 8
	case Redundant:
		return 16
	default:
		return 1
	}
}

// EnforcementLevel governs how strictly the registry enforces budgets.
type EnforcementLevel uint8

const (
	// Permissive warns but never blocks an allocation request.
	Permissive EnforcementLevel = iota
	// Strict enforces budgets, and allows new allocations after lock-down
	// provided they remain within budget.
	Strict
	// SafetyCritical enforces budgets AND forbids any allocation once
	// CompleteInitialization has been called, regardless of budget.
	SafetyCritical
)

func (e EnforcementLevel) String() string {
	switch e {
	case Permissive:
		return "Permissive"
	case Strict:
		return "Strict"
	case SafetyCritical:
		return "SafetyCritical"
	default:
		return fmt.Sprintf("EnforcementLevel(%d)", uint8(e))
	}
}

// Record is the budget ledger for a single CrateId.
type Record struct {
	MaxBytes       uint64
	AllocatedBytes uint64
	PeakBytes      uint64
	SafetyLevel    SafetyLevel
}

// RemainingBytes is MaxBytes less AllocatedBytes, floored at zero.
func (r Record) RemainingBytes() uint64 {
	if r.AllocatedBytes >= r.MaxBytes {
		return 0
	}
	return r.MaxBytes - r.AllocatedBytes
}

// UtilizationPercent is AllocatedBytes as a percentage of MaxBytes.
func (r Record) UtilizationPercent() uint64 {
	if r.MaxBytes == 0 {
		return 0
	}
	return r.AllocatedBytes * 100 / r.MaxBytes
}

// SystemStats is a point-in-time snapshot of the registry's system-wide
// allocation bookkeeping, the global counterpart to a per-crate Record.
type SystemStats struct {
	TotalBudget    uint64
	TotalAllocated uint64
	TotalPeak      uint64
	IsLocked       bool
}

// RemainingBytes is TotalBudget less TotalAllocated, floored at zero.
func (s SystemStats) RemainingBytes() uint64 {
	if s.TotalAllocated >= s.TotalBudget {
		return 0
	}
	return s.TotalBudget - s.TotalAllocated
}

// UtilizationPercent is TotalAllocated as a percentage of TotalBudget.
func (s SystemStats) UtilizationPercent() uint64 {
	if s.TotalBudget == 0 {
		return 0
	}
	return s.TotalAllocated * 100 / s.TotalBudget
}

// AllocationResult is the closed set of outcomes request_allocation can
// produce.
type AllocationResult uint8

const (
	Approved AllocationResult = iota
	CrateBudgetExceeded
	SystemBudgetExceeded
	InitializationComplete
	SafetyViolation
)

func (r AllocationResult) String() string {
	switch r {
	case Approved:
		return "Approved"
	case CrateBudgetExceeded:
		return "CrateBudgetExceeded"
	case SystemBudgetExceeded:
		return "SystemBudgetExceeded"
	case InitializationComplete:
		return "InitializationComplete"
	case SafetyViolation:
		return "SafetyViolation"
	default:
		return fmt.Sprintf("AllocationResult(%d)", uint8(r))
	}
}
