// Package errs implements the stable error taxonomy that crosses every
// boundary in this runtime: a closed category enumeration, a numeric code
// stable within each category, and a bounded context chain for wrapping
// errors as they propagate through the executor and component bridge.
//
// The (Category, Code) pair is part of the stable ABI (see the runtime's
// design notes on deterministic replay): implementations must not renumber
// existing codes.
package errs

import "fmt"

// Category is the closed set of error origins recognised by the runtime.
type Category uint8

const (
	Core Category = iota
	Parse
	Validation
	Type
	Runtime
	Memory
	Resource
	Async
	Capability
	Component
	Safety
	System
)

func (c Category) String() string {
	switch c {
	case Core:
		return "Core"
	case Parse:
		return "Parse"
	case Validation:
		return "Validation"
	case Type:
		return "Type"
	case Runtime:
		return "Runtime"
	case Memory:
		return "Memory"
	case Resource:
		return "Resource"
	case Async:
		return "Async"
	case Capability:
		return "Capability"
	case Component:
		return "Component"
	case Safety:
		return "Safety"
	case System:
		return "System"
	default:
		return fmt.Sprintf("Category(%d)", uint8(c))
	}
}

// Code is a category-scoped numeric error code. Stable codes are grouped by
// category the way the ABI table in the runtime's external-interfaces
// design reserves 0x01xx for Memory, 0x02xx for Async, and so on.
type Code uint16

// Stable (Category, Code) pairs. New codes must be appended, never
// renumbered or removed, since replay logs and host integrations key on
// these values.
const (
	// Memory, 0x01xx.
	CodeOutOfBounds          Code = 0x0101
	CodeIntegrityViolation   Code = 0x0102
	CodeAllocationRefused    Code = 0x0103
	CodeSizeOverflow         Code = 0x0104
	CodeCrateBudgetExceeded  Code = 0x0105
	CodeSystemBudgetExceeded Code = 0x0106

	// Async, 0x02xx.
	CodeFuelExhausted   Code = 0x0201
	CodeCancelled       Code = 0x0202
	CodeTimeout         Code = 0x0203
	CodeTaskPanic       Code = 0x0204
	CodeDeadlock        Code = 0x0205
	CodeStreamClosed    Code = 0x0206
	CodeDeadlineMissed  Code = 0x0207

	// Capability/Security, 0x03xx.
	CodeAccessDenied         Code = 0x0301
	CodeVerificationTooLow   Code = 0x0302
	CodePostInitAllocation   Code = 0x0303
	CodeAlreadyInitialized   Code = 0x0304
	CodeCapabilityNotFound   Code = 0x0305

	// Resource, 0x04xx.
	CodeHandleLimitExceeded   Code = 0x0401
	CodeInvalidHandle         Code = 0x0402
	CodeResourceBusy          Code = 0x0403
	CodeResourceLimitExceeded Code = 0x0404

	// Component, 0x05xx.
	CodeComponentNotRegistered Code = 0x0501
	CodeComponentLimitExceeded Code = 0x0502
	CodeTooManyTasks           Code = 0x0503
	CodeComponentFuelExhausted Code = 0x0504

	// Safety, 0x06xx.
	CodeSafetyViolation Code = 0x0601

	// Core, 0x07xx.
	CodeCapacityExceeded Code = 0x0701
)

// CodedError is the leaf error type every fallible operation in this
// runtime returns: it always carries a category, a stable code, a human
// message, and the fuel counter observed at the point of failure.
type CodedError struct {
	Category     Category
	Code         Code
	Message      string
	FuelConsumed uint64
}

func New(category Category, code Code, message string) *CodedError {
	return &CodedError{Category: category, Code: code, Message: message}
}

func (e *CodedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s/%#04x", e.Category, uint16(e.Code))
	}
	return fmt.Sprintf("%s/%#04x: %s", e.Category, uint16(e.Code), e.Message)
}

// WithFuel returns a copy of e stamped with the fuel counter observed at
// the failure point.
func (e *CodedError) WithFuel(fuel uint64) *CodedError {
	cp := *e
	cp.FuelConsumed = fuel
	return &cp
}
