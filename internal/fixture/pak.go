// Package fixture builds small synthetic pak archives and packages for
// tests. It writes the formats independently of the readers so a reader
// bug cannot hide behind a matching writer bug in the same code path.
package fixture

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"crypto/aes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ErwinsExpertise/go-wwise-export/ueio"
	"github.com/pierrec/lz4/v4"
)

const pakMagic = 0x5A6F12E1

// Key is a fixed AES-256 key for encrypted fixtures.
var Key = []byte("0123456789abcdef0123456789abcdef")

// KeyHex is Key in the form the config file carries it.
const KeyHex = "0x3031323334353637383961626364656630313233343536373839616263646566"

type PakFile struct {
	Name        string
	Data        []byte
	Compression string
	BlockSize   int
	Encrypted   bool
}

type Pak struct {
	Version        int32
	MountPoint     string
	EncryptIndex   bool
	EncryptionGuid ueio.Guid
	Files          []PakFile
}

type builtEntry struct {
	name       string
	offset     int64
	size       int64
	usize      int64
	method     uint32
	blocks     [][2]int64 // relative to the entry, as stored from v5 on
	blockSizes []int64
	blockSize  uint32
	encrypted  bool
}

func pad16(b []byte) []byte {
	if n := len(b) % aes.BlockSize; n != 0 {
		b = append(b, make([]byte, aes.BlockSize-n)...)
	}
	return b
}

// Encrypt pads b to the AES block size and encrypts it with Key in ECB mode.
func Encrypt(b []byte) []byte {
	out := pad16(append([]byte(nil), b...))
	block, err := aes.NewCipher(Key)
	if err != nil {
		panic(err)
	}
	for i := 0; i < len(out); i += aes.BlockSize {
		block.Encrypt(out[i:i+aes.BlockSize], out[i:i+aes.BlockSize])
	}
	return out
}

func compress(method string, data []byte) []byte {
	var buf bytes.Buffer
	switch strings.ToLower(method) {
	case "zlib":
		w := zlib.NewWriter(&buf)
		w.Write(data)
		w.Close()
	case "gzip":
		w := gzip.NewWriter(&buf)
		w.Write(data)
		w.Close()
	case "lz4":
		var c lz4.Compressor
		dst := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := c.CompressBlock(data, dst)
		if err != nil || n == 0 {
			panic(fmt.Sprintf("lz4 fixture data must be compressible: %v", err))
		}
		return dst[:n]
	default:
		panic("unknown fixture compression " + method)
	}
	return buf.Bytes()
}

func (p *Pak) methods() []string {
	var names []string
	for _, f := range p.Files {
		if f.Compression == "" {
			continue
		}
		found := false
		for _, n := range names {
			found = found || n == f.Compression
		}
		if !found {
			names = append(names, f.Compression)
		}
	}
	return names
}

func (p *Pak) methodIndex(name string) uint32 {
	if name == "" {
		return 0
	}
	if p.Version < 8 {
		switch strings.ToLower(name) {
		case "zlib":
			return 0x01
		case "gzip":
			return 0x02
		}
		panic("method not available before v8: " + name)
	}
	for i, n := range p.methods() {
		if n == name {
			return uint32(i + 1)
		}
	}
	panic("unreachable")
}

func headerSize(version int32, compressed bool, blocks int) int64 {
	size := int64(8 + 8 + 8 + 4 + 20)
	if version <= 1 {
		size += 8
	}
	if version >= 3 {
		if compressed {
			size += 4 + int64(blocks)*16
		}
		size += 5
	}
	return size
}

func (p *Pak) writeEntry(w *ueio.Writer, e *builtEntry, offset int64) {
	w.Int64(offset)
	w.Int64(e.size)
	w.Int64(e.usize)
	w.Uint32(e.method)
	if p.Version <= 1 {
		w.Int64(0)
	}
	w.Write(make([]byte, 20))
	if p.Version >= 3 {
		if e.method != 0 {
			w.Int32(int32(len(e.blocks)))
			for _, b := range e.blocks {
				start, end := b[0], b[1]
				if p.Version < 5 {
					start += e.offset
					end += e.offset
				}
				w.Int64(start)
				w.Int64(end)
			}
		}
		var flags uint8
		if e.encrypted {
			flags |= 1
		}
		w.Uint8(flags)
		w.Uint32(e.blockSize)
	}
}

func (p *Pak) encodeEntry(w *ueio.Writer, e *builtEntry) {
	var value uint32
	blockSizeBits := uint32(0x3f)
	if e.blockSize%2048 == 0 && e.blockSize>>11 < 0x3f {
		blockSizeBits = e.blockSize >> 11
	}
	value |= blockSizeBits
	value |= uint32(len(e.blocks)) << 6
	value |= e.method << 23
	if e.encrypted {
		value |= 1 << 22
	}
	value |= 1 << 31 // offsets and sizes always fit 32 bits here
	value |= 1 << 30
	value |= 1 << 29
	w.Uint32(value)
	if blockSizeBits == 0x3f {
		w.Uint32(e.blockSize)
	}
	w.Uint32(uint32(e.offset))
	w.Uint32(uint32(e.usize))
	if e.method != 0 {
		w.Uint32(uint32(e.size))
	}
	if len(e.blocks) == 1 && !e.encrypted {
		return
	}
	for _, s := range e.blockSizes {
		w.Uint32(uint32(s))
	}
}

// Bytes serializes the archive.
func (p *Pak) Bytes() []byte {
	if p.Version == 0 {
		p.Version = 11
	}
	if p.MountPoint == "" {
		p.MountPoint = "../../../"
	}
	body := ueio.NewWriter()
	entries := make([]*builtEntry, 0, len(p.Files))

	for _, f := range p.Files {
		e := &builtEntry{name: f.Name, offset: int64(body.Len()), usize: int64(len(f.Data)), encrypted: f.Encrypted}
		e.method = p.methodIndex(f.Compression)

		var payload []byte
		if f.Compression == "" {
			e.size = int64(len(f.Data))
			payload = f.Data
			if f.Encrypted {
				payload = Encrypt(f.Data)
			}
		} else {
			blockSize := f.BlockSize
			if blockSize == 0 {
				blockSize = 0x10000
			}
			var chunks [][]byte
			for start := 0; start < len(f.Data); start += blockSize {
				end := start + blockSize
				if end > len(f.Data) {
					end = len(f.Data)
				}
				chunks = append(chunks, compress(f.Compression, f.Data[start:end]))
			}
			e.blockSize = uint32(blockSize)
			if len(chunks) == 1 {
				e.blockSize = uint32(len(f.Data))
			}
			cursor := headerSize(p.Version, true, len(chunks))
			for _, c := range chunks {
				e.blocks = append(e.blocks, [2]int64{cursor, cursor + int64(len(c))})
				e.blockSizes = append(e.blockSizes, int64(len(c)))
				if f.Encrypted {
					c = Encrypt(c)
				}
				payload = append(payload, c...)
				cursor += int64(len(c))
			}
			e.size = int64(len(payload))
		}

		p.writeEntry(body, e, 0)
		body.Write(payload)
		entries = append(entries, e)
	}

	var index []byte
	if p.Version >= 10 {
		index = p.pathHashIndex(body, entries)
	} else {
		iw := ueio.NewWriter()
		iw.String(p.MountPoint)
		iw.Int32(int32(len(entries)))
		for _, e := range entries {
			iw.String(e.name)
			p.writeEntry(iw, e, e.offset)
		}
		index = p.sealIndex(iw.Bytes())
	}

	indexOffset := int64(body.Len())
	body.Write(index)
	p.writeFooter(body, indexOffset, int64(len(index)))
	return body.Bytes()
}

func (p *Pak) sealIndex(b []byte) []byte {
	if p.EncryptIndex {
		return Encrypt(b)
	}
	return b
}

// pathHashIndex writes the directory index into body and returns the
// primary index bytes.
func (p *Pak) pathHashIndex(body *ueio.Writer, entries []*builtEntry) []byte {
	encoded := ueio.NewWriter()
	type dirFile struct {
		name   string
		offset int32
	}
	dirs := map[string][]dirFile{}
	for _, e := range entries {
		offset := encoded.Len()
		p.encodeEntry(encoded, e)
		dir, file := filepath.ToSlash(filepath.Dir(e.name)), filepath.Base(e.name)
		if dir == "." {
			dir = "/"
		} else {
			dir += "/"
		}
		dirs[dir] = append(dirs[dir], dirFile{file, int32(offset)})
	}

	names := make([]string, 0, len(dirs))
	for d := range dirs {
		names = append(names, d)
	}
	sort.Strings(names)

	dw := ueio.NewWriter()
	dw.Int32(int32(len(names)))
	for _, d := range names {
		dw.String(d)
		dw.Int32(int32(len(dirs[d])))
		for _, f := range dirs[d] {
			dw.String(f.name)
			dw.Int32(f.offset)
		}
	}
	dirIndex := p.sealIndex(dw.Bytes())
	dirOffset := int64(body.Len())
	body.Write(dirIndex)

	iw := ueio.NewWriter()
	iw.String(p.MountPoint)
	iw.Int32(int32(len(entries)))
	iw.Uint64(0)
	iw.Bool32(false)
	iw.Bool32(true)
	iw.Int64(dirOffset)
	iw.Int64(int64(len(dirIndex)))
	iw.Write(make([]byte, 20))
	iw.Int32(int32(encoded.Len()))
	iw.Write(encoded.Bytes())
	iw.Int32(0)
	return p.sealIndex(iw.Bytes())
}

func (p *Pak) writeFooter(w *ueio.Writer, indexOffset, indexSize int64) {
	if p.Version >= 7 {
		w.Guid(p.EncryptionGuid)
	}
	if p.EncryptIndex {
		w.Uint8(1)
	} else {
		w.Uint8(0)
	}
	w.Uint32(pakMagic)
	w.Int32(p.Version)
	w.Int64(indexOffset)
	w.Int64(indexSize)
	w.Write(make([]byte, 20))
	if p.Version == 9 {
		w.Uint8(0)
	}
	if p.Version >= 8 {
		methods := p.methods()
		for i := 0; i < 5; i++ {
			name := make([]byte, 32)
			if i < len(methods) {
				copy(name, methods[i])
			}
			w.Write(name)
		}
	}
}

// WriteFile serializes the archive to path, creating parent directories.
func (p *Pak) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, p.Bytes(), 0644)
}
