package uasset

import (
	"github.com/ErwinsExpertise/go-wwise-export/ueio"
	"github.com/ErwinsExpertise/go-wwise-export/usmap"
	"github.com/ossrs/go-oryx-lib/errors"
)

type mode int

const (
	tagged mode = iota
	unversioned
)

// MapEntry is one key/value pair of a map property.
type MapEntry struct {
	Key   interface{} `json:"key"`
	Value interface{} `json:"value"`
}

// Delegate binds a function name to an object.
type Delegate struct {
	Object       *ObjectRef `json:"object"`
	FunctionName string     `json:"functionName"`
}

// FieldPath names a property by its path from the owning struct.
type FieldPath struct {
	Path  []string   `json:"path"`
	Owner *ObjectRef `json:"owner"`
}

const maxContainerLength = 1 << 22

func (p *Package) count(r *ueio.Reader) (int, error) {
	n := r.Int32()
	if err := r.Err(); err != nil {
		return 0, err
	}
	if n < 0 || n > maxContainerLength || int64(n) > r.Remaining() {
		return 0, errors.Errorf("invalid element count %v with %v bytes left", n, r.Remaining())
	}
	return int(n), nil
}

func (p *Package) readValue(r *ueio.Reader, t *usmap.PropertyType, m mode) (interface{}, error) {
	switch t.Kind {
	case usmap.BoolProperty:
		return r.Uint8() != 0, nil
	case usmap.Int8Property:
		return r.Int8(), nil
	case usmap.Int16Property:
		return r.Int16(), nil
	case usmap.IntProperty:
		return r.Int32(), nil
	case usmap.Int64Property:
		return r.Int64(), nil
	case usmap.UInt16Property:
		return r.Uint16(), nil
	case usmap.UInt32Property:
		return r.Uint32(), nil
	case usmap.UInt64Property:
		return r.Uint64(), nil
	case usmap.FloatProperty:
		return r.Float32(), nil
	case usmap.DoubleProperty:
		return r.Float64(), nil
	case usmap.StrProperty:
		return r.String(), nil
	case usmap.Utf8StrProperty, usmap.AnsiStrProperty:
		n, err := p.count(r)
		if err != nil {
			return nil, err
		}
		return string(r.Bytes(int64(n))), nil
	case usmap.NameProperty:
		return p.names.read(r), nil
	case usmap.TextProperty:
		return p.readText(r)
	case usmap.ByteProperty:
		return p.readByte(r, t, m)
	case usmap.EnumProperty:
		return p.readEnum(r, t, m)
	case usmap.ObjectProperty, usmap.WeakObjectProperty, usmap.InterfaceProperty:
		return p.ref(PackageIndex(r.Int32())), nil
	case usmap.LazyObjectProperty:
		return r.Guid(), nil
	case usmap.SoftObjectProperty, usmap.AssetObjectProperty:
		return p.readSoftPath(r)
	case usmap.DelegateProperty:
		return &Delegate{Object: p.ref(PackageIndex(r.Int32())), FunctionName: p.names.read(r)}, nil
	case usmap.MulticastDelegateProperty:
		n, err := p.count(r)
		if err != nil {
			return nil, err
		}
		out := make([]*Delegate, 0, n)
		for i := 0; i < n && r.Err() == nil; i++ {
			out = append(out, &Delegate{Object: p.ref(PackageIndex(r.Int32())), FunctionName: p.names.read(r)})
		}
		return out, nil
	case usmap.FieldPathProperty:
		n, err := p.count(r)
		if err != nil {
			return nil, err
		}
		fp := &FieldPath{}
		for i := 0; i < n && r.Err() == nil; i++ {
			fp.Path = append(fp.Path, p.names.read(r))
		}
		fp.Owner = p.ref(PackageIndex(r.Int32()))
		return fp, nil
	case usmap.StructProperty:
		return p.readStruct(r, t.StructName, m)
	case usmap.ArrayProperty:
		return p.readArray(r, t, m)
	case usmap.SetProperty:
		return p.readSet(r, t, m)
	case usmap.MapProperty:
		return p.readMap(r, t, m)
	case usmap.OptionalProperty:
		if t.Inner == nil {
			return nil, errors.New("optional without value type")
		}
		if !r.Bool32() {
			return nil, r.Err()
		}
		return p.readValue(r, t.Inner, m)
	}
	return nil, errors.Wrapf(ErrUnknownProperty, "%v", t.Kind)
}

// readByte reads a ByteProperty. Tagged bytes backed by an enum store the
// enumerator's name; everything else is a single byte.
func (p *Package) readByte(r *ueio.Reader, t *usmap.PropertyType, m mode) (interface{}, error) {
	if m == tagged && t.EnumName != "" && r.Remaining() >= 8 {
		return p.names.read(r), nil
	}
	v := r.Uint8()
	if m == unversioned && t.EnumName != "" {
		return p.enumName(t.EnumName, int64(v)), nil
	}
	return v, nil
}

func (p *Package) readEnum(r *ueio.Reader, t *usmap.PropertyType, m mode) (interface{}, error) {
	if m == tagged {
		return p.names.read(r), nil
	}
	if t.Inner == nil {
		return p.enumName(t.EnumName, int64(r.Uint8())), nil
	}
	raw, err := p.readValue(r, t.Inner, m)
	if err != nil {
		return nil, err
	}
	var v int64
	switch n := raw.(type) {
	case uint8:
		v = int64(n)
	case int8:
		v = int64(n)
	case int16:
		v = int64(n)
	case uint16:
		v = int64(n)
	case int32:
		v = int64(n)
	case uint32:
		v = int64(n)
	case int64:
		v = n
	case uint64:
		v = int64(n)
	case string:
		return n, nil
	default:
		return nil, errors.Errorf("enum %v has underlying %v", t.EnumName, t.Inner.Kind)
	}
	return p.enumName(t.EnumName, v), nil
}

// enumName renders an enumerator as Enum::Value using the mappings, or
// the number when the enum is unknown.
func (p *Package) enumName(enum string, v int64) interface{} {
	if p.opts.Mappings != nil {
		if e, ok := p.opts.Mappings.Enum(enum); ok {
			if name, ok := e.Values[v]; ok {
				return enum + "::" + name
			}
		}
	}
	return v
}

func (p *Package) readSoftPath(r *ueio.Reader) (interface{}, error) {
	if len(p.SoftObjectPaths) > 0 {
		i := r.Int32()
		if i < 0 || int(i) >= len(p.SoftObjectPaths) {
			return nil, errors.Wrapf(ErrInvalidIndex, "soft object path %v of %v", i, len(p.SoftObjectPaths))
		}
		return p.SoftObjectPaths[i], nil
	}
	return readSoftObjectPath(r, p.Summary, p.names), nil
}

func (p *Package) readArray(r *ueio.Reader, t *usmap.PropertyType, m mode) (interface{}, error) {
	if t.Inner == nil {
		return nil, errors.New("array without element type")
	}
	n, err := p.count(r)
	if err != nil {
		return nil, err
	}
	inner := t.Inner
	if m == tagged && inner.Kind == usmap.StructProperty &&
		p.Summary.FileVersionUE4 >= VerUE4ArrayPropertyInnerTags &&
		p.Summary.FileVersionUE5 < VerUE5PropertyTagCompleteTypeName {
		innerTag, err := p.readTag(r)
		if err != nil {
			return nil, errors.Wrapf(err, "inner tag")
		}
		if innerTag == nil {
			return nil, errors.New("array inner tag is None")
		}
		inner = &innerTag.Type
	}
	if n > 0 && inner.Kind == usmap.ByteProperty && inner.EnumName == "" {
		return r.Bytes(int64(n)), r.Err()
	}
	out := make([]interface{}, 0, n)
	for i := 0; i < n; i++ {
		v, err := p.readValue(r, inner, m)
		if err != nil {
			return nil, errors.Wrapf(err, "element %v", i)
		}
		if err := r.Err(); err != nil {
			return nil, errors.Wrapf(err, "element %v", i)
		}
		out = append(out, v)
	}
	return out, nil
}

func (p *Package) readSet(r *ueio.Reader, t *usmap.PropertyType, m mode) (interface{}, error) {
	if t.Inner == nil {
		return nil, errors.New("set without element type")
	}
	removed, err := p.count(r)
	if err != nil {
		return nil, err
	}
	for i := 0; i < removed; i++ {
		if _, err := p.readValue(r, t.Inner, m); err != nil {
			return nil, errors.Wrapf(err, "removed element %v", i)
		}
	}
	n, err := p.count(r)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, 0, n)
	for i := 0; i < n && r.Err() == nil; i++ {
		v, err := p.readValue(r, t.Inner, m)
		if err != nil {
			return nil, errors.Wrapf(err, "element %v", i)
		}
		out = append(out, v)
	}
	return out, r.Err()
}

func (p *Package) readMap(r *ueio.Reader, t *usmap.PropertyType, m mode) (interface{}, error) {
	if t.Inner == nil || t.Value == nil {
		return nil, errors.New("map without key or value type")
	}
	removed, err := p.count(r)
	if err != nil {
		return nil, err
	}
	for i := 0; i < removed; i++ {
		if _, err := p.readValue(r, t.Inner, m); err != nil {
			return nil, errors.Wrapf(err, "removed key %v", i)
		}
	}
	n, err := p.count(r)
	if err != nil {
		return nil, err
	}
	out := make([]MapEntry, 0, n)
	for i := 0; i < n && r.Err() == nil; i++ {
		k, err := p.readValue(r, t.Inner, m)
		if err != nil {
			return nil, errors.Wrapf(err, "key %v", i)
		}
		v, err := p.readValue(r, t.Value, m)
		if err != nil {
			return nil, errors.Wrapf(err, "value %v", i)
		}
		out = append(out, MapEntry{Key: k, Value: v})
	}
	return out, r.Err()
}

// readStruct reads a struct value: binary for native structs, otherwise a
// nested property set serialized the same way as the enclosing object.
func (p *Package) readStruct(r *ueio.Reader, name string, m mode) (interface{}, error) {
	if name == "" {
		return nil, errors.Wrapf(ErrUnknownStruct, "struct without a name")
	}
	if native, ok := nativeStructs[name]; ok {
		v := native(p, r)
		return v, r.Err()
	}
	if m == tagged {
		return p.readTaggedProperties(r, name)
	}
	return p.readUnversionedStruct(r, name)
}

// zeroValue is the value of an unversioned property the zero mask elides.
func zeroValue(t *usmap.PropertyType) interface{} {
	switch t.Kind {
	case usmap.BoolProperty:
		return false
	case usmap.Int8Property:
		return int8(0)
	case usmap.Int16Property:
		return int16(0)
	case usmap.IntProperty:
		return int32(0)
	case usmap.Int64Property:
		return int64(0)
	case usmap.ByteProperty:
		return uint8(0)
	case usmap.UInt16Property:
		return uint16(0)
	case usmap.UInt32Property:
		return uint32(0)
	case usmap.UInt64Property:
		return uint64(0)
	case usmap.FloatProperty:
		return float32(0)
	case usmap.DoubleProperty:
		return float64(0)
	case usmap.StrProperty, usmap.NameProperty, usmap.Utf8StrProperty, usmap.AnsiStrProperty:
		return ""
	case usmap.ArrayProperty, usmap.SetProperty:
		return []interface{}{}
	case usmap.MapProperty:
		return []MapEntry{}
	case usmap.ObjectProperty, usmap.WeakObjectProperty, usmap.InterfaceProperty:
		return (*ObjectRef)(nil)
	case usmap.SoftObjectProperty, usmap.AssetObjectProperty:
		return SoftObjectPath{}
	case usmap.StructProperty:
		return NewStruct(t.StructName)
	}
	return nil
}
