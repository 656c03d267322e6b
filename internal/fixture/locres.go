package fixture

import (
	"hash/crc32"
	"sort"

	"github.com/ErwinsExpertise/go-wwise-export/ueio"
)

var locresMagic = ueio.Guid{0x7574140E, 0xFC034A67, 0x9D90154A, 0x1B7F37C3}

// Locres is a localization table keyed by namespace then key.
type Locres struct {
	Version uint8
	Entries map[string]map[string]string
	// NoStringArray writes INDEX_NONE as the string array offset. Only
	// valid for a table without entries.
	NoStringArray bool
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Bytes serializes the table. Version 0 writes the legacy layout without
// the magic.
func (l *Locres) Bytes() []byte {
	var strs []string
	strIndex := map[string]int32{}
	count := 0

	body := ueio.NewWriter()
	body.Uint32(uint32(len(l.Entries)))
	for _, ns := range sortedKeys(l.Entries) {
		if l.Version >= 2 {
			body.Uint32(crc32.ChecksumIEEE([]byte(ns)))
		}
		body.String(ns)
		keys := l.Entries[ns]
		body.Uint32(uint32(len(keys)))
		for _, k := range sortedKeys(keys) {
			v := keys[k]
			if l.Version >= 2 {
				body.Uint32(crc32.ChecksumIEEE([]byte(k)))
			}
			body.String(k)
			body.Uint32(crc32.ChecksumIEEE([]byte(v)))
			if l.Version >= 1 {
				at, ok := strIndex[v]
				if !ok {
					at = int32(len(strs))
					strs = append(strs, v)
					strIndex[v] = at
				}
				body.Int32(at)
			} else {
				body.String(v)
			}
			count++
		}
	}

	w := ueio.NewWriter()
	if l.Version == 0 {
		w.Write(body.Bytes())
		return w.Bytes()
	}
	w.Guid(locresMagic)
	w.Uint8(l.Version)
	header := int64(16 + 1 + 8)
	if l.Version >= 2 {
		header += 4
	}
	if l.NoStringArray {
		w.Int64(-1)
	} else {
		w.Int64(header + int64(body.Len()))
	}
	if l.Version >= 2 {
		w.Uint32(uint32(count))
	}
	w.Write(body.Bytes())
	if l.NoStringArray {
		return w.Bytes()
	}
	w.Int32(int32(len(strs)))
	for _, s := range strs {
		w.String(s)
		if l.Version >= 2 {
			w.Int32(1)
		}
	}
	return w.Bytes()
}
