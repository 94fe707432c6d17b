package budget

import (
	"sync"

	"github.com/wrtcore/fuelrt/errs"
)

// The default registry is opt-in: nothing in this module reads it unless
// the host installed one, so parallel hosts (and parallel tests) that
// construct their own System values never observe each other.
var (
	defaultMu  sync.RWMutex
	defaultSys *System
)

// Install makes sys the process-wide default registry returned by
// Default. Installing twice fails with AlreadyInitialized; there is
// deliberately no uninstall, matching the registry's own once-only
// lifecycle.
func Install(sys *System) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultSys != nil {
		return errs.New(errs.Capability, errs.CodeAlreadyInitialized, "budget: default registry already installed")
	}
	defaultSys = sys
	return nil
}

// Default returns the installed process-wide registry, or an error if the
// host never opted in via Install.
func Default() (*System, error) {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	if defaultSys == nil {
		return nil, errs.New(errs.Capability, errs.CodeAccessDenied, "budget: no default registry installed")
	}
	return defaultSys, nil
}
