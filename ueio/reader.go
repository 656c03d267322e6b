// Package ueio implements the little-endian primitives shared by the
// Unreal Engine file formats: pak indexes, packages, mappings and
// localization tables.
package ueio

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ossrs/go-oryx-lib/errors"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// MaxStringLength bounds FString lengths so corrupt data fails fast
// instead of allocating gigabytes.
const MaxStringLength = 1 << 20

var ErrShortRead = errors.New("unexpected end of data")

// Guid is the engine's four dword GUID layout.
type Guid [4]uint32

// IsZero reports whether every dword is zero.
func (g Guid) IsZero() bool {
	return g == Guid{}
}

func (g Guid) String() string {
	return fmt.Sprintf("%08X%08X%08X%08X", g[0], g[1], g[2], g[3])
}

// ParseGuid parses 32 hex digits, the format the editor prints GUIDs in.
func ParseGuid(s string) (Guid, error) {
	var g Guid
	if len(s) != 32 {
		return g, errors.Errorf("guid %q must be 32 hex digits", s)
	}
	for i := range g {
		if _, err := fmt.Sscanf(s[i*8:i*8+8], "%08X", &g[i]); err != nil {
			return g, errors.Wrapf(err, "parse guid %q", s)
		}
	}
	return g, nil
}

// Reader is a cursor over an in-memory buffer. The first error is sticky:
// once a read fails every later read returns zero values and Err reports
// the original failure.
type Reader struct {
	data []byte
	pos  int64
	err  error
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) Err() error {
	return r.err
}

// Fail records err unless an earlier error is already recorded.
func (r *Reader) Fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *Reader) Pos() int64 {
	return r.pos
}

func (r *Reader) Len() int64 {
	return int64(len(r.data))
}

// Remaining is the number of unread bytes.
func (r *Reader) Remaining() int64 {
	if r.pos >= int64(len(r.data)) {
		return 0
	}
	return int64(len(r.data)) - r.pos
}

func (r *Reader) Seek(pos int64) {
	if pos < 0 || pos > int64(len(r.data)) {
		r.Fail(errors.Wrapf(ErrShortRead, "seek to %v of %v", pos, len(r.data)))
		return
	}
	r.pos = pos
}

func (r *Reader) Skip(n int64) {
	r.Seek(r.pos + n)
}

func (r *Reader) take(n int64) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.pos+n > int64(len(r.data)) {
		r.Fail(errors.Wrapf(ErrShortRead, "read %v bytes at %v of %v", n, r.pos, len(r.data)))
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

// Bytes returns a copy of the next n bytes.
func (r *Reader) Bytes(n int64) []byte {
	b := r.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (r *Reader) Uint8() uint8 {
	if b := r.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *Reader) Int8() int8 {
	return int8(r.Uint8())
}

func (r *Reader) Uint16() uint16 {
	if b := r.take(2); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

func (r *Reader) Int16() int16 {
	return int16(r.Uint16())
}

func (r *Reader) Uint32() uint32 {
	if b := r.take(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (r *Reader) Int32() int32 {
	return int32(r.Uint32())
}

func (r *Reader) Uint64() uint64 {
	if b := r.take(8); b != nil {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

func (r *Reader) Int64() int64 {
	return int64(r.Uint64())
}

func (r *Reader) Float32() float32 {
	return math.Float32frombits(r.Uint32())
}

func (r *Reader) Float64() float64 {
	return math.Float64frombits(r.Uint64())
}

// Bool32 reads the engine's four byte boolean.
func (r *Reader) Bool32() bool {
	v := r.Uint32()
	if v > 1 {
		r.Fail(errors.Errorf("invalid bool value %v at %v", v, r.pos-4))
		return false
	}
	return v == 1
}

func (r *Reader) Guid() Guid {
	var g Guid
	for i := range g {
		g[i] = r.Uint32()
	}
	return g
}

// Count reads an int32 element count and checks it against the remaining
// data assuming every element takes at least minSize bytes.
func (r *Reader) Count(minSize int64) int {
	n := r.Int32()
	if r.err != nil {
		return 0
	}
	if n < 0 || (minSize > 0 && int64(n)*minSize > r.Remaining()) {
		r.Fail(errors.Errorf("invalid element count %v at %v", n, r.pos-4))
		return 0
	}
	return int(n)
}

var utf16Decoder = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// String reads an FString. Positive lengths are Latin-1 characters,
// negative lengths are UTF-16LE code units; both include the terminator.
func (r *Reader) String() string {
	n := r.Int32()
	if r.err != nil || n == 0 {
		return ""
	}
	if n > MaxStringLength || n < -MaxStringLength {
		r.Fail(errors.Errorf("invalid string length %v at %v", n, r.pos-4))
		return ""
	}
	if n > 0 {
		b := r.take(int64(n))
		if b == nil {
			return ""
		}
		s, err := charmap.ISO8859_1.NewDecoder().Bytes(trimNul(b, 1))
		if err != nil {
			r.Fail(errors.Wrapf(err, "decode latin-1 string at %v", r.pos))
			return ""
		}
		return string(s)
	}
	b := r.take(int64(-n) * 2)
	if b == nil {
		return ""
	}
	s, err := utf16Decoder.NewDecoder().Bytes(trimNul(b, 2))
	if err != nil {
		r.Fail(errors.Wrapf(err, "decode utf16 string at %v", r.pos))
		return ""
	}
	return string(s)
}

// StringLength peeks the next FString length without consuming it.
func (r *Reader) StringLength() int32 {
	if r.err != nil || r.Remaining() < 4 {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(r.data[r.pos:]))
}

func trimNul(b []byte, width int) []byte {
	if len(b) < width {
		return b
	}
	for _, c := range b[len(b)-width:] {
		if c != 0 {
			return b
		}
	}
	return b[:len(b)-width]
}
