package pak

import (
	"bytes"
	"strings"

	"github.com/ErwinsExpertise/go-wwise-export/ueio"
)

// Magic is the footer tag of every pak archive.
const Magic = 0x5A6F12E1

// Archive format versions.
const (
	VersionInitial                     = 1
	VersionNoTimestamps                = 2
	VersionCompressionEncryption       = 3
	VersionIndexEncryption             = 4
	VersionRelativeChunkOffsets        = 5
	VersionDeleteRecords               = 6
	VersionEncryptionKeyGuid           = 7
	VersionFNameBasedCompressionMethod = 8
	VersionFrozenIndex                 = 9
	VersionPathHashIndex               = 10
	VersionFnv64BugFix                 = 11
	VersionLatest                      = VersionFnv64BugFix
)

const (
	compressionMethodNameLen = 32
	maxCompressionMethods    = 5
)

// Info is the footer at the end of the archive.
type Info struct {
	EncryptionKeyGuid ueio.Guid
	EncryptedIndex    bool
	Version           int32
	IndexOffset       int64
	IndexSize         int64
	IndexHash         [20]byte
	IndexIsFrozen     bool
	// CompressionMethods holds the names referenced by 1-based entry
	// method indexes. Pre v8 archives get the fixed legacy table.
	CompressionMethods []string
}

type footerLayout struct {
	size     int64
	guid     bool
	frozen   bool
	methods  int
	versions func(v int32) bool
}

// Probed newest first; exactly one layout puts the magic where the file has it.
var footerLayouts = []footerLayout{
	{size: 222, guid: true, frozen: true, methods: 5, versions: func(v int32) bool { return v == VersionFrozenIndex }},
	{size: 221, guid: true, methods: 5, versions: func(v int32) bool { return v >= VersionFNameBasedCompressionMethod && v != VersionFrozenIndex }},
	{size: 189, guid: true, methods: 4, versions: func(v int32) bool { return v == VersionFNameBasedCompressionMethod }},
	{size: 61, guid: true, versions: func(v int32) bool { return v == VersionEncryptionKeyGuid }},
	{size: 45, versions: func(v int32) bool { return v >= VersionInitial && v < VersionEncryptionKeyGuid }},
}

// MinFooterSize is the smallest footer, used to reject tiny files.
const MinFooterSize = 45

var legacyCompressionMethods = []string{"Zlib", "Gzip", "", "Oodle"}

func readInfo(data []byte) (*Info, error) {
	size := int64(len(data))
	for _, layout := range footerLayouts {
		if size < layout.size {
			continue
		}
		r := ueio.NewReader(data[size-layout.size:])
		info := &Info{}
		if layout.guid {
			info.EncryptionKeyGuid = r.Guid()
		}
		info.EncryptedIndex = r.Uint8() != 0
		if r.Uint32() != Magic {
			continue
		}
		info.Version = r.Int32()
		if !layout.versions(info.Version) {
			continue
		}
		info.IndexOffset = r.Int64()
		info.IndexSize = r.Int64()
		copy(info.IndexHash[:], r.Bytes(20))
		if layout.frozen {
			info.IndexIsFrozen = r.Uint8() != 0
		}
		if layout.methods > 0 {
			for i := 0; i < layout.methods; i++ {
				name := r.Bytes(compressionMethodNameLen)
				info.CompressionMethods = append(info.CompressionMethods, cString(name))
			}
		} else {
			info.CompressionMethods = legacyCompressionMethods
		}
		if err := r.Err(); err != nil {
			return nil, err
		}
		if info.IndexOffset < 0 || info.IndexSize < 0 || info.IndexOffset+info.IndexSize > size {
			return nil, wrapf(ErrCorrupt, "index range %v+%v exceeds archive size %v", info.IndexOffset, info.IndexSize, size)
		}
		return info, nil
	}
	return nil, ErrNotPak
}

// compressionMethod maps a serialized method index to its name. Index 0
// means uncompressed.
func (i *Info) compressionMethod(index uint32) (string, error) {
	if index == 0 {
		return "", nil
	}
	if i.Version < VersionFNameBasedCompressionMethod {
		// Legacy archives store bit flags, not indexes.
		switch {
		case index&0x01 != 0:
			return "Zlib", nil
		case index&0x02 != 0:
			return "Gzip", nil
		case index&0x04 != 0:
			return "Oodle", nil
		}
		return "", wrapf(ErrCorrupt, "unknown legacy compression flags %#x", index)
	}
	if int(index) > len(i.CompressionMethods) || i.CompressionMethods[index-1] == "" {
		return "", wrapf(ErrCorrupt, "unknown compression method index %v", index)
	}
	return i.CompressionMethods[index-1], nil
}

func cString(b []byte) string {
	if n := bytes.IndexByte(b, 0); n >= 0 {
		b = b[:n]
	}
	return strings.TrimSpace(string(b))
}
