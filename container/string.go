package container

import (
	"unicode/utf8"

	"github.com/wrtcore/fuelrt/errs"
)

// BoundedString holds up to N bytes of validated UTF-8. Construction from
// arbitrary bytes runs a full validity pass and rejects any code point in
// the UTF-16 surrogate range, which the Component Model disallows in
// string values even though it can't occur in well-formed UTF-8 produced
// by Go's standard decoder — defence against encoders that emit WTF-8.
type BoundedString struct {
	data []byte
	cap  int
}

func NewBoundedString(capacity int) *BoundedString {
	return &BoundedString{data: make([]byte, 0, capacity), cap: capacity}
}

func (s *BoundedString) Len() int      { return len(s.data) }
func (s *BoundedString) Capacity() int { return s.cap }
func (s *BoundedString) IsFull() bool  { return len(s.data) >= s.cap }
func (s *BoundedString) String() string {
	return string(s.data)
}
func (s *BoundedString) Bytes() []byte {
	return s.data
}

func validateUTF8(b []byte) error {
	if !utf8.Valid(b) {
		return errs.New(errs.Validation, errs.CodeSizeOverflow, "BoundedString: invalid UTF-8")
	}
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r >= 0xD800 && r <= 0xDFFF {
			return errs.New(errs.Validation, errs.CodeSizeOverflow, "BoundedString: surrogate code point rejected")
		}
		b = b[size:]
	}
	return nil
}

// NewBoundedStringFromBytes validates b as UTF-8 and wraps it, failing if
// it exceeds capacity or contains invalid/surrogate code points.
func NewBoundedStringFromBytes(capacity int, b []byte) (*BoundedString, error) {
	if len(b) > capacity {
		return nil, errs.New(errs.Core, errs.CodeCapacityExceeded, "BoundedString: byte length exceeds capacity")
	}
	if err := validateUTF8(b); err != nil {
		return nil, err
	}
	out := make([]byte, len(b), capacity)
	copy(out, b)
	return &BoundedString{data: out, cap: capacity}, nil
}

// PushStr appends s, failing without mutation if the result would exceed
// capacity or s is not valid UTF-8.
func (s *BoundedString) PushStr(str string) error {
	b := []byte(str)
	if err := validateUTF8(b); err != nil {
		return err
	}
	if len(s.data)+len(b) > s.cap {
		return errs.New(errs.Core, errs.CodeCapacityExceeded, "BoundedString: push_str exceeds capacity")
	}
	s.data = append(s.data, b...)
	return nil
}

// ToBytes round-trips byte-exactly: the stored byte image is already the
// canonical UTF-8 representation.
func (s *BoundedString) ToBytes() ([]byte, error) {
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out, nil
}

func (s *BoundedString) SerializedSize() int {
	return len(s.data)
}

func (s *BoundedString) Checksum() uint32 {
	return uint32(fnv1a64(s.data))
}
