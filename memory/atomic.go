package memory

import (
	"hash/crc32"
	"sync"

	"github.com/wrtcore/fuelrt/errs"
)

// copyChunkSize bounds each step of AtomicCopyWithin so a single copy
// never holds the mutex across an unbounded memmove.
const copyChunkSize = 256

// windowKey identifies one checked window of the underlying provider.
type windowKey struct {
	offset int
	length int
}

// AtomicMemoryOps wraps a SafeMemoryHandler with a single mutex ensuring
// write-plus-checksum-update is atomic with respect to concurrent
// readers. It keeps the last-written checksum per window, so a later
// VerifyWindow detects any mutation of the underlying bytes that did not
// go through this type — the out-of-band corruption case integrity
// checking exists to catch.
type AtomicMemoryOps struct {
	mu      sync.Mutex
	handler *SafeMemoryHandler
	windows map[windowKey]uint32
}

func NewAtomicMemoryOps(handler *SafeMemoryHandler) *AtomicMemoryOps {
	return &AtomicMemoryOps{handler: handler, windows: make(map[windowKey]uint32)}
}

// AtomicWriteWithChecksum locks, verifies the destination window is
// writable, writes bytes at offset, records the window's new checksum,
// then unlocks. The checksum observed by the next VerifyWindow on the
// same window reflects exactly this write.
func (a *AtomicMemoryOps) AtomicWriteWithChecksum(offset int, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	slice, err := a.handler.GetSliceMut(offset, len(data))
	if err != nil {
		return err
	}
	if err := slice.Write(0, data); err != nil {
		return err
	}
	slice.UpdateChecksum()
	a.windows[windowKey{offset, len(data)}] = crc32.ChecksumIEEE(slice.Bytes())
	return nil
}

// VerifyWindow recomputes the checksum for the given window and compares
// it against the last one recorded by an atomic write or copy, surfacing
// Memory/IntegrityViolation on mismatch. A window never written through
// this type has no recorded checksum and verifies vacuously.
func (a *AtomicMemoryOps) VerifyWindow(offset, length int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	slice, err := a.handler.BorrowSlice(offset, length)
	if err != nil {
		return err
	}
	want, tracked := a.windows[windowKey{offset, length}]
	if !tracked {
		return nil
	}
	if crc32.ChecksumIEEE(slice.Bytes()) != want {
		return errs.New(errs.Memory, errs.CodeIntegrityViolation, "AtomicMemoryOps: window checksum mismatch")
	}
	return nil
}

// AtomicCopyWithin locks, verifies both the source and destination
// windows, copies length bytes from src to dst in bounded chunks (never
// more than copyChunkSize at a time), and records the destination's new
// checksum before unlocking.
func (a *AtomicMemoryOps) AtomicCopyWithin(src, dst, length int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	srcSlice, err := a.handler.BorrowSlice(src, length)
	if err != nil {
		return err
	}
	dstSlice, err := a.handler.GetSliceMut(dst, length)
	if err != nil {
		return err
	}

	// src and dst may alias the same backing buffer (e.g. shifting a
	// region within one provider). Chunking a forward copy would let an
	// early chunk's write clobber source bytes a later chunk still needs
	// to read, so when dst falls inside the source window we walk the
	// chunks back-to-front instead, mirroring memmove's overlap handling.
	if dst > src && dst < src+length {
		off := length
		for off > 0 {
			n := off
			if n > copyChunkSize {
				n = copyChunkSize
			}
			off -= n
			if err := dstSlice.Write(off, srcSlice.Bytes()[off:off+n]); err != nil {
				return errs.New(errs.Memory, errs.CodeOutOfBounds, "AtomicCopyWithin: chunk write failed")
			}
		}
	} else {
		remaining := length
		srcOff, dstOff := 0, 0
		for remaining > 0 {
			n := remaining
			if n > copyChunkSize {
				n = copyChunkSize
			}
			if err := dstSlice.Write(dstOff, srcSlice.Bytes()[srcOff:srcOff+n]); err != nil {
				return errs.New(errs.Memory, errs.CodeOutOfBounds, "AtomicCopyWithin: chunk write failed")
			}
			srcOff += n
			dstOff += n
			remaining -= n
		}
	}
	dstSlice.UpdateChecksum()
	a.windows[windowKey{dst, length}] = crc32.ChecksumIEEE(dstSlice.Bytes())
	return nil
}
