package pak

import (
	"github.com/ErwinsExpertise/go-wwise-export/ueio"
)

const (
	entryFlagEncrypted = 0x01
	entryFlagDeleted   = 0x02
)

// Block is one compression block. Offsets are absolute in the archive.
type Block struct {
	Start int64
	End   int64
}

// Entry describes one file stored in the archive.
type Entry struct {
	Name             string
	Offset           int64
	Size             int64
	UncompressedSize int64
	// Compression is the method name, empty when stored uncompressed.
	Compression string
	Blocks      []Block
	BlockSize   uint32
	Encrypted   bool
	Deleted     bool

	// headerSize is the size of the entry copy written in front of the data.
	headerSize int64
}

func (e *Entry) IsCompressed() bool {
	return e.Compression != ""
}

// entryHeaderSize is the serialized size of an entry record for version.
func entryHeaderSize(version int32, compressed bool, blocks int) int64 {
	// Offset, Size, UncompressedSize, compression method and hash.
	size := int64(8 + 8 + 8 + 4 + 20)
	if version <= VersionInitial {
		size += 8 // timestamp
	}
	if version >= VersionCompressionEncryption {
		if compressed {
			size += 4 + int64(blocks)*16
		}
		size += 1 + 4 // flags and block size
	}
	return size
}

// readEntry reads an index record in the full serialized layout.
func readEntry(r *ueio.Reader, info *Info) (Entry, error) {
	var e Entry
	e.Offset = r.Int64()
	e.Size = r.Int64()
	e.UncompressedSize = r.Int64()
	method, err := info.compressionMethod(r.Uint32())
	if err != nil {
		return e, err
	}
	e.Compression = method
	if info.Version <= VersionInitial {
		r.Int64()
	}
	r.Skip(20)

	if info.Version >= VersionCompressionEncryption {
		if e.IsCompressed() {
			n := r.Count(16)
			e.Blocks = make([]Block, n)
			for i := range e.Blocks {
				e.Blocks[i].Start = r.Int64()
				e.Blocks[i].End = r.Int64()
			}
		}
		flags := r.Uint8()
		e.Encrypted = flags&entryFlagEncrypted != 0
		e.Deleted = flags&entryFlagDeleted != 0
		e.BlockSize = r.Uint32()
	} else if e.IsCompressed() {
		return e, wrapf(ErrUnsupported, "compressed entry in version %v archive", info.Version)
	}

	if info.Version >= VersionRelativeChunkOffsets {
		for i := range e.Blocks {
			e.Blocks[i].Start += e.Offset
			e.Blocks[i].End += e.Offset
		}
	}
	e.headerSize = entryHeaderSize(info.Version, e.IsCompressed(), len(e.Blocks))
	return e, r.Err()
}

// Bit layout of the packed entry flags word used from v10 on.
const (
	encodedOffset32           = 1 << 31
	encodedUncompressedSize32 = 1 << 30
	encodedSize32             = 1 << 29
	encodedMethodShift        = 23
	encodedMethodMask         = 0x3f
	encodedEncrypted          = 1 << 22
	encodedBlockCountShift    = 6
	encodedBlockCountMask     = 0xffff
	encodedBlockSizeMask      = 0x3f
)

// decodeEntry reads a bit-packed entry from the encoded entries blob.
func decodeEntry(r *ueio.Reader, info *Info) (Entry, error) {
	var e Entry
	value := r.Uint32()

	if bits := value & encodedBlockSizeMask; bits == encodedBlockSizeMask {
		e.BlockSize = r.Uint32()
	} else {
		e.BlockSize = bits << 11
	}

	method, err := info.compressionMethod((value >> encodedMethodShift) & encodedMethodMask)
	if err != nil {
		return e, err
	}
	e.Compression = method
	e.Encrypted = value&encodedEncrypted != 0
	blockCount := int((value >> encodedBlockCountShift) & encodedBlockCountMask)

	if value&encodedOffset32 != 0 {
		e.Offset = int64(r.Uint32())
	} else {
		e.Offset = r.Int64()
	}
	if value&encodedUncompressedSize32 != 0 {
		e.UncompressedSize = int64(r.Uint32())
	} else {
		e.UncompressedSize = r.Int64()
	}
	if e.IsCompressed() {
		if value&encodedSize32 != 0 {
			e.Size = int64(r.Uint32())
		} else {
			e.Size = r.Int64()
		}
	} else {
		e.Size = e.UncompressedSize
	}

	e.headerSize = entryHeaderSize(info.Version, e.IsCompressed(), blockCount)
	if blockCount > 0 {
		e.Blocks = make([]Block, blockCount)
		start := e.Offset + e.headerSize
		if blockCount == 1 && !e.Encrypted {
			e.Blocks[0] = Block{Start: start, End: start + e.Size}
		} else {
			for i := range e.Blocks {
				size := int64(r.Uint32())
				e.Blocks[i] = Block{Start: start, End: start + size}
				if e.Encrypted {
					size = align16(size)
				}
				start += size
			}
		}
		if blockCount == 1 && e.BlockSize == 0 {
			e.BlockSize = uint32(e.UncompressedSize)
		}
	}
	return e, r.Err()
}
