package container

import "github.com/wrtcore/fuelrt/errs"

// Primitive little-endian codecs shared by the containers' byte-stream
// serialisation and by element types that want a fixed-size image without
// hand-rolling shifts at every call site.

// AppendU32 appends v to dst little-endian.
func AppendU32(dst []byte, v uint32) []byte {
	return append(dst, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// AppendU64 appends v to dst little-endian.
func AppendU64(dst []byte, v uint64) []byte {
	return append(dst,
		byte(v), byte(v>>8), byte(v>>16), byte(v>>24),
		byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
}

// DecodeU32 reads a little-endian uint32 from the front of data,
// returning the value and the 4 bytes consumed.
func DecodeU32(data []byte) (uint32, int, error) {
	if len(data) < 4 {
		return 0, 0, errs.New(errs.Parse, errs.CodeSizeOverflow, "codec: truncated u32")
	}
	return uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24, 4, nil
}

// DecodeU64 reads a little-endian uint64 from the front of data,
// returning the value and the 8 bytes consumed.
func DecodeU64(data []byte) (uint64, int, error) {
	if len(data) < 8 {
		return 0, 0, errs.New(errs.Parse, errs.CodeSizeOverflow, "codec: truncated u64")
	}
	lo := uint64(data[0]) | uint64(data[1])<<8 | uint64(data[2])<<16 | uint64(data[3])<<24
	hi := uint64(data[4]) | uint64(data[5])<<8 | uint64(data[6])<<16 | uint64(data[7])<<24
	return lo | hi<<32, 8, nil
}

// U64Bytes returns the 8-byte little-endian image of v. Handy as a
// BoundedMap key-bytes function for integer-keyed maps.
func U64Bytes(v uint64) []byte {
	return AppendU64(nil, v)
}
