//go:build linux

package platform

import (
	"golang.org/x/sys/unix"

	"github.com/wrtcore/fuelrt/errs"
)

// MmapAllocator is the Linux PageAllocator: it reserves a PROT_NONE
// address range sized for max_pages plus one trailing guard page up
// front, then mprotects a growing read/write prefix as pages commit. An
// access past the committed prefix (including any Grow the host never
// called) lands on PROT_NONE memory and faults immediately, rather than
// silently reading or corrupting adjacent heap memory.
type MmapAllocator struct{}

// NewMmapAllocator constructs the Linux mmap-backed PageAllocator.
func NewMmapAllocator() *MmapAllocator { return &MmapAllocator{} }

func (a *MmapAllocator) Allocate(initialPages, maxPages int) (*Region, error) {
	if err := validatePages(initialPages, maxPages); err != nil {
		return nil, err
	}
	maxBytes := maxPages * PageSize
	total := maxBytes + PageSize // reserve one trailing guard page

	base, err := unix.Mmap(-1, 0, total, unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, errs.New(errs.Memory, errs.CodeAllocationRefused, "platform: mmap reservation failed")
	}

	r := &Region{base: base, maxBytes: maxBytes}
	initialBytes := initialPages * PageSize
	if initialBytes > 0 {
		if err := unix.Mprotect(base[:initialBytes], unix.PROT_READ|unix.PROT_WRITE); err != nil {
			_ = unix.Munmap(base)
			return nil, errs.New(errs.Memory, errs.CodeAllocationRefused, "platform: mprotect of initial pages failed")
		}
	}
	r.usableBytes = initialBytes
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
	if additionalPages == 0 {
		return nil
	}
	if err := unix.Mprotect(r.base[r.usableBytes:newUsable], unix.PROT_READ|unix.PROT_WRITE); err != nil {
		return errs.New(errs.Memory, errs.CodeAllocationRefused, "platform: mprotect during grow failed")
	}
	r.usableBytes = newUsable
	return nil
}

func (a *MmapAllocator) Deallocate(r *Region) error {
	if err := unix.Munmap(r.base); err != nil {
		return errs.New(errs.Memory, errs.CodeAllocationRefused, "platform: munmap failed")
	}
	r.base = nil
	r.usableBytes = 0
	r.maxBytes = 0
	return nil
}
