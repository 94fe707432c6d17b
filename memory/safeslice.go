// Package memory implements the bounded, integrity-checked memory
// subsystem: fixed-size Providers, the SafeSlice/SafeSliceMut views that
// carry a running checksum over their data window, a SafeMemoryHandler
// that scales integrity-check intensity to a VerificationLevel, and
// AtomicMemoryOps, which makes write-plus-checksum-update atomic with
// respect to concurrent readers.
package memory

import (
	"hash/crc32"

	"github.com/wrtcore/fuelrt/errs"
)

// SafeSlice is a read-only view into a Provider's backing buffer, plus the
// checksum observed at the time the view was taken.
type SafeSlice struct {
	data     []byte
	checksum uint32
}

func (s SafeSlice) Len() int        { return len(s.data) }
func (s SafeSlice) Bytes() []byte   { return s.data }
func (s SafeSlice) Checksum() uint32 { return s.checksum }

// VerifyIntegrity recomputes the checksum over the current window and
// compares it against the one observed at slice creation time.
func (s SafeSlice) VerifyIntegrity() error {
	if crc32.ChecksumIEEE(s.data) != s.checksum {
		return errs.New(errs.Memory, errs.CodeIntegrityViolation, "SafeSlice: checksum mismatch")
	}
	return nil
}

// SafeSliceMut is a mutable view into a Provider's backing buffer. Every
// mutation through Write must be followed by UpdateChecksum before the
// slice is released; a single-byte mutation without recomputation fails
// subsequent verification.
type SafeSliceMut struct {
	data     []byte
	checksum uint32
}

func (s *SafeSliceMut) Len() int      { return len(s.data) }
func (s *SafeSliceMut) Bytes() []byte { return s.data }

// Write copies src into the slice at the given offset, without updating
// the checksum — callers must call UpdateChecksum afterwards.
func (s *SafeSliceMut) Write(offset int, src []byte) error {
	if offset < 0 || offset+len(src) > len(s.data) {
		return errs.New(errs.Memory, errs.CodeOutOfBounds, "SafeSliceMut: write out of bounds")
	}
	copy(s.data[offset:], src)
	return nil
}

// UpdateChecksum recomputes the checksum over the current data window.
func (s *SafeSliceMut) UpdateChecksum() {
	s.checksum = crc32.ChecksumIEEE(s.data)
}

// VerifyIntegrity recomputes the checksum and compares it to the last
// value UpdateChecksum recorded.
func (s *SafeSliceMut) VerifyIntegrity() error {
	if crc32.ChecksumIEEE(s.data) != s.checksum {
		return errs.New(errs.Memory, errs.CodeIntegrityViolation, "SafeSliceMut: checksum mismatch")
	}
	return nil
}

// ReadOnly returns an immutable SafeSlice snapshot of the current window.
func (s *SafeSliceMut) ReadOnly() SafeSlice {
	return SafeSlice{data: s.data, checksum: s.checksum}
}

func newSafeSlice(data []byte) SafeSlice {
	return SafeSlice{data: data, checksum: crc32.ChecksumIEEE(data)}
}

func newSafeSliceMut(data []byte) *SafeSliceMut {
	return &SafeSliceMut{data: data, checksum: crc32.ChecksumIEEE(data)}
}
