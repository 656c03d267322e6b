package ueio

import (
	"bytes"
	"encoding/binary"
	"math"
	"unicode/utf16"
)

// Writer is the inverse of Reader. Test fixtures use it to build synthetic
// archives, packages and mapping files.
type Writer struct {
	bytes.Buffer
}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) Uint8(v uint8) {
	w.WriteByte(v)
}

func (w *Writer) Uint16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.Write(b[:])
}

func (w *Writer) Uint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.Write(b[:])
}

func (w *Writer) Int32(v int32) {
	w.Uint32(uint32(v))
}

func (w *Writer) Uint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.Write(b[:])
}

func (w *Writer) Int64(v int64) {
	w.Uint64(uint64(v))
}

func (w *Writer) Float32(v float32) {
	w.Uint32(math.Float32bits(v))
}

func (w *Writer) Float64(v float64) {
	w.Uint64(math.Float64bits(v))
}

func (w *Writer) Bool32(v bool) {
	if v {
		w.Uint32(1)
		return
	}
	w.Uint32(0)
}

func (w *Writer) Guid(g Guid) {
	for _, v := range g {
		w.Uint32(v)
	}
}

// String writes an FString, switching to UTF-16 when s is not ASCII.
func (w *Writer) String(s string) {
	if s == "" {
		w.Int32(0)
		return
	}
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		w.Int32(int32(len(s) + 1))
		w.WriteString(s)
		w.WriteByte(0)
		return
	}
	units := utf16.Encode([]rune(s))
	w.Int32(-int32(len(units) + 1))
	for _, u := range units {
		w.Uint16(u)
	}
	w.Uint16(0)
}
