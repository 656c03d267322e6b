package uasset

import (
	"github.com/ErwinsExpertise/go-wwise-export/ueio"
	"github.com/ossrs/go-oryx-lib/errors"
)

// fragment is one run of the unversioned header: skip schema indexes,
// then valueNum consecutive serialized or zeroed properties.
type fragment struct {
	skip      int
	valueNum  int
	hasZeroes bool
	isLast    bool
}

func readFragments(r *ueio.Reader) ([]fragment, []bool, error) {
	var frags []fragment
	zeroes := 0
	for {
		packed := r.Uint16()
		f := fragment{
			skip:      int(packed & 0x7f),
			hasZeroes: packed&0x80 != 0,
			isLast:    packed&0x100 != 0,
			valueNum:  int(packed >> 9),
		}
		if err := r.Err(); err != nil {
			return nil, nil, errors.Wrapf(err, "unversioned header")
		}
		frags = append(frags, f)
		if f.hasZeroes {
			zeroes += f.valueNum
		}
		if f.isLast {
			break
		}
	}

	var mask []bool
	if zeroes > 0 {
		mask = make([]bool, zeroes)
		var bits []uint32
		switch {
		case zeroes <= 8:
			bits = []uint32{uint32(r.Uint8())}
		case zeroes <= 16:
			bits = []uint32{uint32(r.Uint16())}
		default:
			bits = make([]uint32, (zeroes+31)/32)
			for i := range bits {
				bits[i] = r.Uint32()
			}
		}
		for i := range mask {
			mask[i] = bits[i/32]&(1<<(uint(i)%32)) != 0
		}
	}
	return frags, mask, r.Err()
}

// readUnversionedStruct reads properties laid out by the struct's schema
// from the mappings. Only the header says which schema indexes are
// present; names and types come from the schema.
func (p *Package) readUnversionedStruct(r *ueio.Reader, typ string) (*Struct, error) {
	if p.opts.Mappings == nil {
		return nil, errors.Wrapf(ErrNeedMappings, "%v", typ)
	}
	schema, ok := p.opts.Mappings.Struct(typ)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownStruct, "%v is not in the mappings", typ)
	}

	frags, mask, err := readFragments(r)
	if err != nil {
		return nil, errors.Wrapf(err, "%v", typ)
	}
	s := NewStruct(typ)
	index, zero := 0, 0
	for _, f := range frags {
		index += f.skip
		for i := 0; i < f.valueNum; i++ {
			prop, element, ok := schema.Property(index)
			if !ok {
				return nil, errors.Wrapf(ErrUnknownProperty, "%v has no schema index %v", typ, index)
			}
			isZero := false
			if f.hasZeroes {
				isZero = mask[zero]
				zero++
			}

			out := &Property{Name: prop.Name, ArrayIndex: int32(element), Type: prop.Type}
			if isZero {
				out.Value = zeroValue(&prop.Type)
			} else {
				v, err := p.readValue(r, &prop.Type, unversioned)
				if err == nil {
					err = r.Err()
				}
				if err != nil {
					return nil, errors.Wrapf(err, "%v.%v", typ, prop.Name)
				}
				out.Value = v
			}
			s.Add(out)
			index++
		}
	}
	return s, nil
}
