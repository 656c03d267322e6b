package uasset

import (
	"bytes"
	"compress/zlib"
	"io"

	"github.com/ErwinsExpertise/go-wwise-export/ueio"
	"github.com/ossrs/go-oryx-lib/errors"
)

// Bulk data flags.
const (
	BulkPayloadAtEndOfFile      = 0x0001
	BulkSerializeCompressedZLIB = 0x0002
	BulkUnused                  = 0x0020
	BulkForceInlinePayload      = 0x0040
	BulkPayloadInSeparateFile   = 0x0100
	BulkDuplicateNonOptional    = 0x0400
	BulkOptionalPayload         = 0x0800
	BulkSize64Bit               = 0x2000
	BulkBadDataVersion          = 0x8000
	BulkNoOffsetFixUp           = 0x10000
)

// BulkData is a payload stored outside the regular property stream:
// inline after the header, at the end of the package, or in a companion
// .ubulk or .uptnl file.
type BulkData struct {
	Flags        uint32
	ElementCount int64
	SizeOnDisk   int64
	OffsetInFile int64

	pkg    *Package
	inline []byte
}

func (p *Package) readBulkData(r *ueio.Reader) (*BulkData, error) {
	b := &BulkData{pkg: p}
	if len(p.DataResources) > 0 {
		i := r.Int32()
		if i < 0 || int(i) >= len(p.DataResources) {
			return nil, errors.Wrapf(ErrInvalidIndex, "data resource %v of %v", i, len(p.DataResources))
		}
		d := &p.DataResources[i]
		b.Flags = d.LegacyBulkDataFlags
		b.ElementCount = d.RawSize
		b.SizeOnDisk = d.SerialSize
		b.OffsetInFile = d.SerialOffset
	} else {
		b.Flags = r.Uint32()
		if b.Flags&BulkSize64Bit != 0 {
			b.ElementCount = r.Int64()
			b.SizeOnDisk = r.Int64()
		} else {
			b.ElementCount = int64(r.Int32())
			b.SizeOnDisk = int64(r.Int32())
		}
		b.OffsetInFile = r.Int64()
	}
	if b.Flags&BulkNoOffsetFixUp == 0 {
		b.OffsetInFile += p.Summary.BulkDataStartOffset
	}
	if len(p.DataResources) == 0 && b.Flags&BulkBadDataVersion != 0 {
		r.Uint16()
		b.Flags &^= BulkBadDataVersion
	}
	if len(p.DataResources) == 0 && b.Flags&BulkDuplicateNonOptional != 0 {
		r.Uint32() // duplicate flags
		if b.Flags&BulkSize64Bit != 0 {
			r.Int64()
		} else {
			r.Int32()
		}
		r.Int64() // duplicate offset
	}
	if err := r.Err(); err != nil {
		return nil, errors.Wrapf(err, "bulk data header")
	}
	if b.SizeOnDisk < 0 || b.ElementCount < 0 {
		return nil, errors.Errorf("invalid bulk data sizes %v/%v", b.SizeOnDisk, b.ElementCount)
	}

	if b.Flags&BulkForceInlinePayload != 0 && b.Flags&BulkUnused == 0 {
		if b.SizeOnDisk > r.Remaining() {
			return nil, errors.Errorf("inline bulk data of %v bytes with %v left", b.SizeOnDisk, r.Remaining())
		}
		b.inline = r.Bytes(b.SizeOnDisk)
	}
	return b, nil
}

// Location names where the payload lives.
func (b *BulkData) Location() string {
	switch {
	case b.Flags&BulkUnused != 0:
		return "unused"
	case b.Flags&BulkForceInlinePayload != 0:
		return "inline"
	case b.Flags&BulkOptionalPayload != 0:
		return OptionalExtension
	case b.Flags&BulkPayloadInSeparateFile != 0:
		return BulkExtension
	}
	return "end of file"
}

// Bytes loads and, when needed, decompresses the payload.
func (b *BulkData) Bytes() ([]byte, error) {
	if b.Flags&BulkUnused != 0 || b.ElementCount == 0 {
		return nil, nil
	}

	var stored []byte
	switch {
	case b.Flags&BulkForceInlinePayload != 0:
		stored = b.inline
	case b.Flags&(BulkOptionalPayload|BulkPayloadInSeparateFile) != 0:
		ext := BulkExtension
		if b.Flags&BulkOptionalPayload != 0 {
			ext = OptionalExtension
		}
		file, err := b.pkg.payload(ext)
		if err != nil {
			return nil, err
		}
		if stored, err = sliceRange(file, b.OffsetInFile, b.SizeOnDisk); err != nil {
			return nil, errors.Wrapf(err, "%v%v", b.pkg.Name, ext)
		}
	default:
		var err error
		if stored, err = sliceRange(b.pkg.data, b.OffsetInFile, b.SizeOnDisk); err != nil {
			return nil, errors.Wrapf(err, "%v", b.pkg.Name)
		}
	}

	if b.Flags&BulkSerializeCompressedZLIB != 0 {
		return decompressChunked(stored, b.ElementCount)
	}
	return stored, nil
}

func sliceRange(data []byte, offset, size int64) ([]byte, error) {
	if offset < 0 || size < 0 || offset+size > int64(len(data)) {
		return nil, errors.Wrapf(ErrNoBulkData, "range %v+%v outside %v bytes", offset, size, len(data))
	}
	out := make([]byte, size)
	copy(out, data[offset:offset+size])
	return out, nil
}

// decompressChunked inflates the engine's chunked zlib stream: a tag, the
// chunk size, a summary, per-chunk sizes and then the chunk data.
func decompressChunked(data []byte, size int64) ([]byte, error) {
	r := ueio.NewReader(data)
	if tag := r.Uint64(); tag != PackageTag {
		return nil, errors.Errorf("compressed bulk data tag %#x", tag)
	}
	chunkSize := r.Int64()
	r.Int64() // total compressed
	total := r.Int64()
	if chunkSize <= 0 || total != size {
		return nil, errors.Errorf("compressed bulk data sizes %v/%v, expected %v", chunkSize, total, size)
	}
	chunks := int((total + chunkSize - 1) / chunkSize)
	if int64(chunks)*16 > r.Remaining() {
		return nil, errors.Errorf("compressed bulk data has %v chunks in %v bytes", chunks, r.Remaining())
	}
	sizes := make([][2]int64, chunks)
	for i := range sizes {
		sizes[i] = [2]int64{r.Int64(), r.Int64()}
	}

	out := make([]byte, 0, total)
	for i, s := range sizes {
		block := r.Bytes(s[0])
		if err := r.Err(); err != nil {
			return nil, errors.Wrapf(err, "compressed chunk %v", i)
		}
		zr, err := zlib.NewReader(bytes.NewReader(block))
		if err != nil {
			return nil, errors.Wrapf(err, "compressed chunk %v", i)
		}
		inflated, err := io.ReadAll(io.LimitReader(zr, s[1]))
		zr.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "compressed chunk %v", i)
		}
		out = append(out, inflated...)
	}
	if int64(len(out)) != total {
		return nil, errors.Errorf("inflated %v of %v bytes", len(out), total)
	}
	return out, nil
}
