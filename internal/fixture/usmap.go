package fixture

import "github.com/ErwinsExpertise/go-wwise-export/ueio"

// Property type codes as mapping files store them.
const (
	KindByte       = 0
	KindBool       = 1
	KindInt        = 2
	KindFloat      = 3
	KindObject     = 4
	KindName       = 5
	KindArray      = 8
	KindStruct     = 9
	KindStr        = 10
	KindText       = 11
	KindSoftObject = 17
	KindUInt32     = 19
	KindInt64      = 21
	KindMap        = 24
	KindSet        = 25
	KindEnum       = 26
	KindOptional   = 28
)

type UsmapType struct {
	Kind   uint8
	Struct string
	Enum   string
	Inner  *UsmapType
	Value  *UsmapType
}

type UsmapProperty struct {
	Name      string
	Index     uint16
	ArraySize uint8
	Type      UsmapType
}

type UsmapStruct struct {
	Name       string
	Super      string
	Count      int // zero means one index per property
	Properties []UsmapProperty
}

type UsmapEnum struct {
	Name   string
	Values []string
}

type Usmap struct {
	Version     uint8
	Compression uint8
	Enums       []UsmapEnum
	Structs     []UsmapStruct
}

type nameTable struct {
	names []string
	index map[string]int32
}

func (t *nameTable) add(s string) int32 {
	if t.index == nil {
		t.index = map[string]int32{}
	}
	if i, ok := t.index[s]; ok {
		return i
	}
	i := int32(len(t.names))
	t.names = append(t.names, s)
	t.index[s] = i
	return i
}

// Bytes serializes the mappings.
func (u *Usmap) Bytes() []byte {
	var names nameTable
	body := ueio.NewWriter()

	body.Uint32(uint32(len(u.Enums)))
	for _, e := range u.Enums {
		body.Int32(names.add(e.Name))
		if u.Version >= 3 {
			body.Uint16(uint16(len(e.Values)))
		} else {
			body.Uint8(uint8(len(e.Values)))
		}
		for i, v := range e.Values {
			if u.Version >= 4 {
				body.Int64(int64(i))
			}
			body.Int32(names.add(v))
		}
	}

	body.Uint32(uint32(len(u.Structs)))
	for _, s := range u.Structs {
		body.Int32(names.add(s.Name))
		if s.Super == "" {
			body.Int32(-1)
		} else {
			body.Int32(names.add(s.Super))
		}
		count := s.Count
		if count == 0 {
			count = len(s.Properties)
		}
		body.Uint16(uint16(count))
		body.Uint16(uint16(len(s.Properties)))
		for _, p := range s.Properties {
			size := p.ArraySize
			if size == 0 {
				size = 1
			}
			body.Uint16(p.Index)
			body.Uint8(size)
			body.Int32(names.add(p.Name))
			writeUsmapType(body, &names, p.Type)
		}
	}

	payload := ueio.NewWriter()
	payload.Uint32(uint32(len(names.names)))
	for _, n := range names.names {
		if u.Version >= 2 {
			payload.Uint16(uint16(len(n)))
		} else {
			payload.Uint8(uint8(len(n)))
		}
		payload.WriteString(n)
	}
	payload.Write(body.Bytes())

	w := ueio.NewWriter()
	w.Uint16(0x30C4)
	w.Uint8(u.Version)
	if u.Version >= 1 {
		w.Bool32(false)
	}
	w.Uint8(u.Compression)
	w.Uint32(uint32(payload.Len()))
	w.Uint32(uint32(payload.Len()))
	w.Write(payload.Bytes())
	return w.Bytes()
}

func writeUsmapType(w *ueio.Writer, names *nameTable, t UsmapType) {
	w.Uint8(t.Kind)
	switch t.Kind {
	case KindEnum:
		writeUsmapType(w, names, *t.Inner)
		w.Int32(names.add(t.Enum))
	case KindStruct:
		w.Int32(names.add(t.Struct))
	case KindArray, KindSet, KindOptional:
		writeUsmapType(w, names, *t.Inner)
	case KindMap:
		writeUsmapType(w, names, *t.Inner)
		writeUsmapType(w, names, *t.Value)
	}
}
