// Package platform implements the PageAllocator boundary the core
// exposes to platform-specific virtual memory: page-granular
// allocate/grow/deallocate, with an optional trailing guard page to turn
// an out-of-bounds linear-memory access into an immediate fault rather
// than silent corruption.
package platform

import "github.com/wrtcore/fuelrt/errs"

// PageSize is the fixed page granularity this core imposes on every
// PageAllocator implementation.
const PageSize = 64 * 1024

// PageAllocator is the boundary the core drives to reserve, grow, and
// release linear memory backing a wasm instance. Implementations decide
// how (and whether) to back pages with real virtual memory.
type PageAllocator interface {
	// Allocate reserves a region sized for maxPages, committing the first
	// initialPages as read/write, and returns the usable (initialPages)
	// window.
	Allocate(initialPages, maxPages int) (*Region, error)
	// Grow extends r's usable window by additionalPages, failing if that
	// would exceed the region's reserved maximum.
	Grow(r *Region, additionalPages int) error
	// Deallocate releases every page (including any guard page) backing
	// r. r must not be used afterward.
	Deallocate(r *Region) error
}

// Region is one allocator-owned reservation: a base address, its current
// committed (read/write) byte window, and the ceiling it was reserved
// against at Allocate time.
type Region struct {
	base        []byte // full reservation, including any guard page
	usableBytes int     // currently committed read/write prefix of base
	maxBytes    int     // ceiling usableBytes may grow to
}

// Bytes returns the currently committed read/write window. The returned
// slice aliases the allocator's backing memory and must not be retained
// past a Grow or Deallocate call on the same Region.
func (r *Region) Bytes() []byte { return r.base[:r.usableBytes] }

// Len is the current committed size in bytes.
func (r *Region) Len() int { return r.usableBytes }

// Cap is the reserved ceiling in bytes.
func (r *Region) Cap() int { return r.maxBytes }

func validatePages(initialPages, maxPages int) error {
	if initialPages < 0 || maxPages < 0 || initialPages > maxPages {
		return errs.New(errs.Memory, errs.CodeSizeOverflow, "platform: invalid page counts")
	}
	return nil
}
