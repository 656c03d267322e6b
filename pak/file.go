// Package pak reads Unreal Engine .pak archives: the footer, legacy and
// path-hash indexes, AES encrypted indexes and entries, and compressed
// entries.
package pak

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/edsrzf/mmap-go"
)

// File is an archive mapped into memory. Open reads only the footer;
// Mount reads the index.
type File struct {
	filemap mmap.MMap
	key     []byte
	entries map[string]*Entry
	names   []string

	Debug      bool
	Filename   string
	Info       *Info
	MountPoint string
}

func Open(filename string) (*File, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	st, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if st.Size() < MinFooterSize {
		return nil, wrapf(ErrNotPak, "%v is %v bytes", filename, st.Size())
	}

	filemap, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		return nil, wrapf(err, "map %v", filename)
	}

	info, err := readInfo(filemap)
	if err != nil {
		filemap.Unmap()
		return nil, wrapf(err, "footer of %v", filename)
	}

	pak := new(File)
	pak.filemap = filemap
	pak.Filename = filename
	pak.Info = info
	return pak, nil
}

func (m *File) debug(args ...interface{}) {
	if m.Debug {
		fmt.Println(fmt.Sprint("[pak: ", m.Filename, "] ", fmt.Sprint(args...)))
	}
}

func (m *File) Close() error {
	if m.filemap == nil {
		return nil
	}
	err := m.filemap.Unmap()
	m.filemap = nil
	return err
}

// Mounted reports whether the index has been read.
func (m *File) Mounted() bool {
	return m.entries != nil
}

// NeedsKey reports whether the index cannot be read without a key.
func (m *File) NeedsKey() bool {
	return m.Info.EncryptedIndex
}

// Mount reads the index. key may be nil when neither the index nor any
// entry is encrypted; it is kept for decrypting entries later.
func (m *File) Mount(key []byte) error {
	m.debug("Mounting version ", m.Info.Version, ", encrypted index ", m.Info.EncryptedIndex)
	idx, err := m.readIndex(key)
	if err != nil {
		return err
	}

	m.key = key
	m.MountPoint = idx.mountPoint
	m.entries = make(map[string]*Entry, len(idx.entries))
	m.names = make([]string, 0, len(idx.entries))
	for i := range idx.entries {
		e := &idx.entries[i]
		if e.Deleted {
			continue
		}
		e.Name = m.MountPoint + e.Name
		lower := strings.ToLower(e.Name)
		if _, exists := m.entries[lower]; !exists {
			m.names = append(m.names, e.Name)
		}
		m.entries[lower] = e
	}
	sort.Strings(m.names)
	m.debug("Mounted ", len(m.names), " files at ", m.MountPoint)
	return nil
}

// Files lists mounted paths, mount point included, in sorted order.
func (m *File) Files() []string {
	return m.names
}

// Entry finds a file by path, ignoring case.
func (m *File) Entry(name string) (*Entry, bool) {
	e, ok := m.entries[strings.ToLower(name)]
	return e, ok
}

// Read returns the decrypted, decompressed contents of a file.
func (m *File) Read(name string) ([]byte, error) {
	if !m.Mounted() {
		return nil, ErrNotMounted
	}
	e, ok := m.Entry(name)
	if !ok {
		return nil, wrapf(ErrFileNotFound, "%v", name)
	}
	return m.ReadEntry(e)
}

func (m *File) ReadEntry(e *Entry) ([]byte, error) {
	if !e.IsCompressed() {
		return m.readStored(e, e.Offset+e.headerSize, e.Size)
	}

	out := make([]byte, 0, e.UncompressedSize)
	remaining := e.UncompressedSize
	for i, b := range e.Blocks {
		raw, err := m.readStored(e, b.Start, b.End-b.Start)
		if err != nil {
			return nil, wrapf(err, "%v block %v", e.Name, i)
		}
		want := remaining
		if e.BlockSize > 0 && int64(e.BlockSize) < want {
			want = int64(e.BlockSize)
		}
		block, err := decompress(e.Compression, raw, int(want))
		if err != nil {
			return nil, wrapf(err, "%v block %v", e.Name, i)
		}
		out = append(out, block...)
		remaining -= want
	}
	if remaining != 0 {
		return nil, wrapf(ErrCorrupt, "%v inflated %v of %v bytes", e.Name, int64(len(out)), e.UncompressedSize)
	}
	return out, nil
}

// readStored copies size bytes at offset, decrypting the 16 byte aligned
// range when the entry is encrypted.
func (m *File) readStored(e *Entry, offset, size int64) ([]byte, error) {
	if !e.Encrypted {
		return m.copyRange(offset, size)
	}
	if len(m.key) == 0 {
		return nil, wrapf(ErrKeyRequired, "%v", e.Name)
	}
	data, err := m.copyRange(offset, align16(size))
	if err != nil {
		return nil, err
	}
	if err := decrypt(m.key, data); err != nil {
		return nil, err
	}
	return data[:size], nil
}

func (m *File) copyRange(offset, size int64) ([]byte, error) {
	if m.filemap == nil {
		return nil, wrapf(ErrNotMounted, "%v is closed", m.Filename)
	}
	if offset < 0 || size < 0 || offset+size > int64(len(m.filemap)) {
		return nil, wrapf(ErrCorrupt, "range %v+%v exceeds archive size %v", offset, size, len(m.filemap))
	}
	out := make([]byte, size)
	copy(out, m.filemap[offset:offset+size])
	return out, nil
}
