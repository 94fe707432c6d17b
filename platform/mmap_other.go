//go:build !linux

package platform

import "github.com/wrtcore/fuelrt/errs"

// MmapAllocator is the non-Linux fallback PageAllocator: a plain
// heap-backed reservation with no real guard page, since PROT_NONE
// reservations are POSIX/Linux-specific in this runtime's dependency set.
// An out-of-bounds access here panics on a Go slice bounds check instead
// of faulting on unmapped memory — weaker than the Linux guard-page
// behavior, but memory-safe.
type MmapAllocator struct{}

// NewMmapAllocator constructs the fallback PageAllocator.
func NewMmapAllocator() *MmapAllocator { return &MmapAllocator{} }

func (a *MmapAllocator) Allocate(initialPages, maxPages int) (*Region, error) {
	if err := validatePages(initialPages, maxPages); err != nil {
		return nil, err
	}
	maxBytes := maxPages * PageSize
	r := &Region{base: make([]byte, maxBytes), maxBytes: maxBytes}
	r.usableBytes = initialPages * PageSize
	return r, nil
}

func (a *MmapAllocator) Grow(r *Region, additionalPages int) error {
	if additionalPages < 0 {
		return errs.New(errs.Memory, errs.CodeSizeOverflow, "platform: negative grow")
	}
	newUsable := r.usableBytes + additionalPages*PageSize
	if newUsable > r.maxBytes {
		return errs.New(errs.Memory, errs.CodeAllocationRefused, "platform: grow exceeds reserved max_pages")
	}
	r.usableBytes = newUsable
	return nil
}

func (a *MmapAllocator) Deallocate(r *Region) error {
	r.base = nil
	r.usableBytes = 0
	r.maxBytes = 0
	return nil
}
