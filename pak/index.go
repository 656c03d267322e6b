package pak

import (
	"math"
	"strings"

	"github.com/ErwinsExpertise/go-wwise-export/ueio"
)

// maxMountPointLength rejects indexes decrypted with the wrong key; the
// first string read from garbage has a wild length.
const maxMountPointLength = 512

type index struct {
	mountPoint string
	entries    []Entry
}

func (f *File) indexBytes(offset, size int64, key []byte) ([]byte, error) {
	data, err := f.copyRange(offset, size)
	if err != nil {
		return nil, err
	}
	if f.Info.EncryptedIndex {
		if len(key) == 0 {
			return nil, ErrKeyRequired
		}
		if err := decrypt(key, data); err != nil {
			return nil, err
		}
	}
	return data, nil
}

func readMountPoint(r *ueio.Reader) (string, error) {
	if n := r.StringLength(); n > maxMountPointLength || n < -maxMountPointLength {
		return "", ErrBadKey
	}
	mount := r.String()
	if err := r.Err(); err != nil {
		return "", wrapf(ErrBadKey, "mount point: %v", err)
	}
	return normalizeMountPoint(mount), nil
}

// normalizeMountPoint turns "../../../Game/" into "Game/".
func normalizeMountPoint(mount string) string {
	mount = strings.ReplaceAll(mount, "\\", "/")
	for strings.HasPrefix(mount, "../") {
		mount = mount[3:]
	}
	mount = strings.TrimLeft(mount, "/")
	if mount != "" && !strings.HasSuffix(mount, "/") {
		mount += "/"
	}
	return mount
}

func (f *File) readIndex(key []byte) (*index, error) {
	if f.Info.IndexIsFrozen {
		return nil, wrapf(ErrUnsupported, "frozen index")
	}
	data, err := f.indexBytes(f.Info.IndexOffset, f.Info.IndexSize, key)
	if err != nil {
		return nil, err
	}
	r := ueio.NewReader(data)
	mount, err := readMountPoint(r)
	if err != nil {
		return nil, err
	}
	if f.Info.Version >= VersionPathHashIndex {
		return f.readPathHashIndex(r, mount, key)
	}
	return f.readLegacyIndex(r, mount)
}

func (f *File) readLegacyIndex(r *ueio.Reader, mount string) (*index, error) {
	idx := &index{mountPoint: mount}
	n := r.Count(8)
	idx.entries = make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		name := r.String()
		e, err := readEntry(r, f.Info)
		if err != nil {
			return nil, wrapf(ErrCorrupt, "entry %v: %v", name, err)
		}
		e.Name = name
		idx.entries = append(idx.entries, e)
	}
	if err := r.Err(); err != nil {
		return nil, wrapf(ErrCorrupt, "legacy index: %v", err)
	}
	return idx, nil
}

func (f *File) readPathHashIndex(r *ueio.Reader, mount string, key []byte) (*index, error) {
	idx := &index{mountPoint: mount}
	numEntries := r.Count(0)
	r.Uint64() // path hash seed

	if r.Bool32() {
		// The path hash index only maps hashes; names come from the directory index.
		r.Int64()
		r.Int64()
		r.Skip(20)
	}
	if !r.Bool32() {
		if err := r.Err(); err != nil {
			return nil, wrapf(ErrCorrupt, "path hash index: %v", err)
		}
		return nil, wrapf(ErrUnsupported, "archive has no full directory index")
	}
	dirOffset := r.Int64()
	dirSize := r.Int64()
	r.Skip(20)

	encoded := r.Bytes(int64(r.Count(1)))
	nonEncoded := make([]Entry, r.Count(1))
	for i := range nonEncoded {
		e, err := readEntry(r, f.Info)
		if err != nil {
			return nil, wrapf(ErrCorrupt, "non-encoded entry %v: %v", i, err)
		}
		nonEncoded[i] = e
	}
	if err := r.Err(); err != nil {
		return nil, wrapf(ErrCorrupt, "path hash index: %v", err)
	}

	data, err := f.indexBytes(dirOffset, dirSize, key)
	if err != nil {
		return nil, err
	}
	// Every entry has a name and a location in the directory index.
	if int64(numEntries)*8 > int64(len(data)) {
		return nil, wrapf(ErrCorrupt, "%v entries in a %v byte directory index", numEntries, len(data))
	}
	dr := ueio.NewReader(data)
	er := ueio.NewReader(encoded)
	idx.entries = make([]Entry, 0, numEntries)

	dirs := dr.Count(8)
	for d := 0; d < dirs; d++ {
		dir := strings.TrimLeft(dr.String(), "/")
		files := dr.Count(8)
		for i := 0; i < files; i++ {
			name := dr.String()
			location := dr.Int32()
			if location == math.MinInt32 {
				continue
			}

			var e Entry
			if location >= 0 {
				er.Seek(int64(location))
				if e, err = decodeEntry(er, f.Info); err != nil {
					return nil, wrapf(ErrCorrupt, "encoded entry %v%v: %v", dir, name, err)
				}
			} else {
				at := int(-location - 1)
				if at >= len(nonEncoded) {
					return nil, wrapf(ErrCorrupt, "entry %v%v points at missing record %v", dir, name, at)
				}
				e = nonEncoded[at]
			}
			e.Name = dir + name
			idx.entries = append(idx.entries, e)
		}
	}
	if err := dr.Err(); err != nil {
		return nil, wrapf(ErrCorrupt, "directory index: %v", err)
	}
	return idx, nil
}
