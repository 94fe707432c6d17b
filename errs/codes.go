package errs

// codeInfo is one row of the normative code table: the category a code
// belongs to and its stable symbolic name.
type codeInfo struct {
	category Category
	name     string
}

// codeTable is the normative mapping from every stable code to its
// category and name. Hosts and replay tooling key on this table; rows are
// append-only.
var codeTable = map[Code]codeInfo{
	CodeOutOfBounds:          {Memory, "OutOfBounds"},
	CodeIntegrityViolation:   {Memory, "IntegrityViolation"},
	CodeAllocationRefused:    {Memory, "AllocationRefused"},
	CodeSizeOverflow:         {Memory, "SizeOverflow"},
	CodeCrateBudgetExceeded:  {Memory, "CrateBudgetExceeded"},
	CodeSystemBudgetExceeded: {Memory, "SystemBudgetExceeded"},

	CodeFuelExhausted:  {Async, "FuelExhausted"},
	CodeCancelled:      {Async, "Cancelled"},
	CodeTimeout:        {Async, "Timeout"},
	CodeTaskPanic:      {Async, "Panic"},
	CodeDeadlock:       {Async, "Deadlock"},
	CodeStreamClosed:   {Async, "StreamClosed"},
	CodeDeadlineMissed: {Async, "DeadlineMissed"},

	CodeAccessDenied:       {Capability, "AccessDenied"},
	CodeVerificationTooLow: {Capability, "VerificationTooLow"},
	CodePostInitAllocation: {Capability, "PostInitAllocation"},
	CodeAlreadyInitialized: {Capability, "AlreadyInitialized"},
	CodeCapabilityNotFound: {Capability, "CapabilityNotFound"},

	CodeHandleLimitExceeded:   {Resource, "HandleLimitExceeded"},
	CodeInvalidHandle:         {Resource, "InvalidHandle"},
	CodeResourceBusy:          {Resource, "ResourceBusy"},
	CodeResourceLimitExceeded: {Resource, "ResourceLimitExceeded"},

	CodeComponentNotRegistered: {Component, "ComponentNotRegistered"},
	CodeComponentLimitExceeded: {Component, "ComponentLimitExceeded"},
	CodeTooManyTasks:           {Component, "TooManyTasks"},
	CodeComponentFuelExhausted: {Component, "ComponentFuelExhausted"},

	CodeSafetyViolation: {Safety, "SafetyViolation"},

	CodeCapacityExceeded: {Core, "CapacityExceeded"},
}

// CategoryOf returns the category a stable code belongs to, and whether
// the code is known to this build.
func CategoryOf(code Code) (Category, bool) {
	info, ok := codeTable[code]
	return info.category, ok
}

// CodeName returns the stable symbolic name for a code, or "" if the
// code is not in the table.
func CodeName(code Code) string {
	return codeTable[code].name
}

// KnownCodes returns every code in the normative table, in unspecified
// order. Intended for replay tooling and exhaustiveness tests.
func KnownCodes() []Code {
	out := make([]Code, 0, len(codeTable))
	for c := range codeTable {
		out = append(out, c)
	}
	return out
}
