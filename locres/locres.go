// Package locres reads compiled localization resources (.locres) and
// merges them into one lookup table per language.
package locres

import (
	"github.com/ErwinsExpertise/go-wwise-export/ueio"
	"github.com/ossrs/go-oryx-lib/errors"
)

// Magic opens every versioned file; legacy files start directly with the
// namespace count.
var Magic = ueio.Guid{0x7574140E, 0xFC034A67, 0x9D90154A, 0x1B7F37C3}

const (
	VersionLegacy uint8 = iota
	VersionCompact
	VersionOptimizedCRC32
	VersionOptimizedCityHash64UTF16
	VersionLatest = VersionOptimizedCityHash64UTF16
)

var ErrUnsupportedVersion = errors.New("unsupported locres version")

// Table maps namespace and key to the localized string.
type Table struct {
	entries map[string]map[string]string
	count   int
}

func NewTable() *Table {
	return &Table{entries: make(map[string]map[string]string)}
}

// Lookup finds the localized string for a text's namespace and key.
func (t *Table) Lookup(namespace, key string) (string, bool) {
	if t == nil {
		return "", false
	}
	s, ok := t.entries[namespace][key]
	return s, ok
}

// Len is the number of distinct entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return t.count
}

func (t *Table) set(namespace, key, value string) {
	keys, ok := t.entries[namespace]
	if !ok {
		keys = make(map[string]string)
		t.entries[namespace] = keys
	}
	if _, exists := keys[key]; !exists {
		t.count++
	}
	keys[key] = value
}

// Merge copies every entry of o into t; o wins on conflicts.
func (t *Table) Merge(o *Table) {
	for ns, keys := range o.entries {
		for k, v := range keys {
			t.set(ns, k, v)
		}
	}
}

// Parse decodes one .locres file.
func Parse(data []byte) (*Table, error) {
	t := NewTable()
	if err := t.decode(data); err != nil {
		return nil, err
	}
	return t, nil
}

// Add decodes one .locres file into t, overriding existing entries. A
// file that fails to decode leaves t untouched.
func (t *Table) Add(data []byte) error {
	file := NewTable()
	if err := file.decode(data); err != nil {
		return err
	}
	t.Merge(file)
	return nil
}

func (t *Table) decode(data []byte) error {
	r := ueio.NewReader(data)
	version := VersionLegacy
	if r.Guid() == Magic {
		version = r.Uint8()
	} else {
		r = ueio.NewReader(data)
	}
	if version > VersionLatest {
		return errors.Wrapf(ErrUnsupportedVersion, "version %v", version)
	}

	var strs []string
	if version >= VersionCompact {
		// INDEX_NONE means the file has no string array.
		offset := r.Int64()
		if offset != -1 {
			if offset < 0 || offset > r.Len() {
				return errors.Errorf("string array offset %v out of %v", offset, r.Len())
			}
			back := r.Pos()
			r.Seek(offset)
			n := r.Count(4)
			strs = make([]string, n)
			for i := range strs {
				strs[i] = r.String()
				if version >= VersionOptimizedCRC32 {
					r.Int32() // ref count
				}
			}
			r.Seek(back)
		}
	}
	if version >= VersionOptimizedCRC32 {
		r.Uint32() // entry count
	}

	namespaces := int(r.Uint32())
	for i := 0; i < namespaces && r.Err() == nil; i++ {
		if version >= VersionOptimizedCRC32 {
			r.Uint32()
		}
		namespace := r.String()
		keys := int(r.Uint32())
		for j := 0; j < keys && r.Err() == nil; j++ {
			if version >= VersionOptimizedCRC32 {
				r.Uint32()
			}
			key := r.String()
			r.Uint32() // source string hash
			var value string
			if version >= VersionCompact {
				at := r.Int32()
				if at < 0 || int(at) >= len(strs) {
					r.Fail(errors.Errorf("string index %v out of %v for %v/%v", at, len(strs), namespace, key))
					break
				}
				value = strs[at]
			} else {
				value = r.String()
			}
			t.set(namespace, key, value)
		}
	}
	if err := r.Err(); err != nil {
		return errors.Wrapf(err, "locres version %v", version)
	}
	return nil
}
