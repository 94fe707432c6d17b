package budget

import "github.com/wrtcore/fuelrt/errs"

// OperationKind is the sum type of memory operations a Capability can be
// asked to verify.
type OperationKind uint8

const (
	OpAllocate OperationKind = iota
	OpRead
	OpWrite
	OpDeallocate
	OpCopy
)

// Operation is a concrete memory operation presented to a Capability for
// verification.
type Operation struct {
	Kind     OperationKind
	Size     uint64
	Offset   uint64
	Len      uint64
	SrcOff   uint64
	DstOff   uint64
	CopyLen  uint64
}

func AllocateOp(size uint64) Operation { return Operation{Kind: OpAllocate, Size: size} }
func ReadOp(offset, length uint64) Operation {
	return Operation{Kind: OpRead, Offset: offset, Len: length}
}
func WriteOp(offset, length uint64) Operation {
	return Operation{Kind: OpWrite, Offset: offset, Len: length}
}
func DeallocateOp() Operation { return Operation{Kind: OpDeallocate} }
func CopyOp(src, dst, length uint64) Operation {
	return Operation{Kind: OpCopy, SrcOff: src, DstOff: dst, CopyLen: length}
}

// Capability is an unforgeable token proving the right to perform a class
// of memory operations. It is owned by the context that requested it and
// must never be duplicated except via CloneCapability.
type Capability interface {
	Verify(op Operation) error
	MaxAllocationSize() uint64
	VerificationLevel() VerificationLevel
	CloneCapability() Capability
}

// DynamicCapability permits allocations up to a runtime-configured
// ceiling; it is the capability a DynamicProvider is authorised by.
type DynamicCapability struct {
	Max   uint64
	Level VerificationLevel
}

func NewDynamicCapability(max uint64, level VerificationLevel) *DynamicCapability {
	return &DynamicCapability{Max: max, Level: level}
}

func (c *DynamicCapability) Verify(op Operation) error {
	return verifyAgainstCeiling(op, c.Max, c.Level)
}
func (c *DynamicCapability) MaxAllocationSize() uint64        { return c.Max }
func (c *DynamicCapability) VerificationLevel() VerificationLevel { return c.Level }
func (c *DynamicCapability) CloneCapability() Capability {
	cp := *c
	return &cp
}

// StaticCapability authorises a single compile-time-known allocation size
// N; it is the capability that backs a NoStdProvider[N].
type StaticCapability struct {
	N     uint64
	Level VerificationLevel
}

func NewStaticCapability(n uint64, level VerificationLevel) *StaticCapability {
	return &StaticCapability{N: n, Level: level}
}

func (c *StaticCapability) Verify(op Operation) error {
	return verifyAgainstCeiling(op, c.N, c.Level)
}
func (c *StaticCapability) MaxAllocationSize() uint64        { return c.N }
func (c *StaticCapability) VerificationLevel() VerificationLevel { return c.Level }
func (c *StaticCapability) CloneCapability() Capability {
	cp := *c
	return &cp
}

// VerifiedCapability is the ASIL-D variant: a static size N plus an
// attached set of proof identifiers, asserting the allocation's safety
// has been established by out-of-band mathematical proof (e.g. a model
// checker obligation discharged at build time). This runtime does not
// itself check proofs — it records which were attached, the same way a
// certification package records evidence without re-deriving it.
type VerifiedCapability struct {
	N      uint64
	Proofs []string
	Level  VerificationLevel
}

func NewVerifiedCapability(n uint64, proofs []string) *VerifiedCapability {
	return &VerifiedCapability{N: n, Proofs: proofs, Level: Redundant}
}

func (c *VerifiedCapability) Verify(op Operation) error {
	if len(c.Proofs) == 0 {
		return errs.New(errs.Safety, errs.CodeSafetyViolation, "VerifiedCapability: no proofs attached")
	}
	return verifyAgainstCeiling(op, c.N, c.Level)
}
func (c *VerifiedCapability) MaxAllocationSize() uint64        { return c.N }
func (c *VerifiedCapability) VerificationLevel() VerificationLevel { return c.Level }
func (c *VerifiedCapability) CloneCapability() Capability {
	proofs := make([]string, len(c.Proofs))
	copy(proofs, c.Proofs)
	return &VerifiedCapability{N: c.N, Proofs: proofs, Level: c.Level}
}

func verifyAgainstCeiling(op Operation, ceiling uint64, level VerificationLevel) error {
	switch op.Kind {
	case OpAllocate:
		if op.Size == 0 && level >= Basic {
			return errs.New(errs.Memory, errs.CodeAllocationRefused, "zero-size allocation rejected under Basic+ verification")
		}
		if op.Size > ceiling {
			return errs.New(errs.Memory, errs.CodeAllocationRefused, "allocation exceeds capability ceiling")
		}
	case OpRead, OpWrite:
		if op.Offset+op.Len > ceiling {
			return errs.New(errs.Memory, errs.CodeOutOfBounds, "access window exceeds capability ceiling")
		}
	case OpCopy:
		if op.SrcOff+op.CopyLen > ceiling || op.DstOff+op.CopyLen > ceiling {
			return errs.New(errs.Memory, errs.CodeOutOfBounds, "copy window exceeds capability ceiling")
		}
	case OpDeallocate:
		// always permitted once held
	}
	return nil
}
