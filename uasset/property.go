package uasset

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/ErwinsExpertise/go-wwise-export/ueio"
	"github.com/ErwinsExpertise/go-wwise-export/usmap"
	"github.com/ossrs/go-oryx-lib/errors"
)

type Property struct {
	Name       string
	ArrayIndex int32
	Type       usmap.PropertyType
	Value      interface{}
}

// Struct is an ordered property set: an object's script properties or the
// value of a non-native struct property.
type Struct struct {
	Type       string
	Properties map[string]*Property
	Order      []string // Preserves serialization order
}

func NewStruct(typ string) *Struct {
	return &Struct{Type: typ, Properties: make(map[string]*Property)}
}

func propertyKey(name string, index int32) string {
	if index == 0 {
		return name
	}
	return name + "[" + strconv.Itoa(int(index)) + "]"
}

// Add appends p, replacing an earlier property with the same name and
// array index.
func (s *Struct) Add(p *Property) {
	key := propertyKey(p.Name, p.ArrayIndex)
	if _, exists := s.Properties[key]; !exists {
		s.Order = append(s.Order, key)
	}
	s.Properties[key] = p
}

// Get returns the value of the first element of a property.
func (s *Struct) Get(name string) (interface{}, bool) {
	if s == nil {
		return nil, false
	}
	p, ok := s.Properties[name]
	if !ok {
		return nil, false
	}
	return p.Value, true
}

func (s *Struct) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Order)
}

// MarshalJSON writes properties in serialization order.
func (s *Struct) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range s.Order {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(s.Properties[key].Value)
		if err != nil {
			return nil, errors.Wrapf(err, "property %v", key)
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Property tag flags of the complete type name layout.
const (
	tagHasArrayIndex       = 0x01
	tagHasPropertyGuid     = 0x02
	tagHasExtensions       = 0x04
	tagBinaryOrNative      = 0x08
	tagBoolTrue            = 0x10
	tagSkippedSerialize    = 0x20
	extOverridableInfo     = 0x02
	maxTypeNameNodes       = 64
	maxTaggedPropertyCount = 1 << 16
)

// tag heads every tagged property.
type tag struct {
	Name       string
	Type       usmap.PropertyType
	TypeName   string
	Size       int32
	ArrayIndex int32
	BoolVal    bool
	Skipped    bool
}

// readTag returns nil at the terminating "None" name.
func (p *Package) readTag(r *ueio.Reader) (*tag, error) {
	name := p.names.read(r)
	if err := r.Err(); err != nil {
		return nil, err
	}
	if name == "None" {
		return nil, nil
	}
	if p.Summary.FileVersionUE5 >= VerUE5PropertyTagCompleteTypeName {
		return p.readCompleteTag(r, name)
	}

	t := &tag{Name: name, TypeName: p.names.read(r)}
	t.Size = r.Int32()
	t.ArrayIndex = r.Int32()
	kind, known := usmap.ParseKind(t.TypeName)
	t.Type.Kind = kind

	innerOf := func(typeName string) *usmap.PropertyType {
		k, ok := usmap.ParseKind(typeName)
		if !ok {
			k = unknownKind
		}
		return &usmap.PropertyType{Kind: k}
	}
	ue4 := p.Summary.FileVersionUE4
	switch t.TypeName {
	case "StructProperty":
		t.Type.StructName = p.names.read(r)
		if ue4 >= VerUE4StructGuidInPropertyTag {
			r.Guid()
		}
	case "BoolProperty":
		t.BoolVal = r.Uint8() != 0
	case "ByteProperty", "EnumProperty":
		t.Type.EnumName = p.names.read(r)
		if t.Type.EnumName == "None" {
			t.Type.EnumName = ""
		}
	case "ArrayProperty", "OptionalProperty":
		if ue4 >= VerUE4ArrayPropertyInnerTags {
			t.Type.Inner = innerOf(p.names.read(r))
		}
	case "SetProperty":
		if ue4 >= VerUE4PropertyTagSetMapSupport {
			t.Type.Inner = innerOf(p.names.read(r))
		}
	case "MapProperty":
		if ue4 >= VerUE4PropertyTagSetMapSupport {
			t.Type.Inner = innerOf(p.names.read(r))
			t.Type.Value = innerOf(p.names.read(r))
		}
	}
	if ue4 >= VerUE4PropertyGuidInPropertyTag && r.Uint8() != 0 {
		r.Guid()
	}
	if p.Summary.FileVersionUE5 >= VerUE5PropertyTagExtension {
		readTagExtensions(r)
	}
	if err := r.Err(); err != nil {
		return nil, errors.Wrapf(err, "tag of %v", name)
	}
	if !known {
		t.Type.Kind = unknownKind
	}
	return t, nil
}

// unknownKind marks tags whose type this reader has no decoder for; their
// values are kept as raw bytes.
const unknownKind usmap.PropertyKind = 0xff

func readTagExtensions(r *ueio.Reader) {
	if flags := r.Uint8(); flags&extOverridableInfo != 0 {
		r.Uint8()  // overridden operation
		r.Bool32() // experimental overridable logic
	}
}

// readObjectExtensions reads the extensions ahead of an object's tagged
// properties, which carry only the operation.
func readObjectExtensions(r *ueio.Reader) {
	if flags := r.Uint8(); flags&extOverridableInfo != 0 {
		r.Uint8() // overridden operation
	}
}

type typeNode struct {
	name  string
	inner []typeNode
}

func (p *Package) readTypeName(r *ueio.Reader, budget *int) typeNode {
	n := typeNode{name: p.names.read(r)}
	count := int(r.Int32())
	*budget -= count
	if count < 0 || *budget < 0 {
		r.Fail(errors.Errorf("invalid type name parameter count %v", count))
		return n
	}
	for i := 0; i < count && r.Err() == nil; i++ {
		n.inner = append(n.inner, p.readTypeName(r, budget))
	}
	return n
}

func (n typeNode) param(i int) typeNode {
	if i < len(n.inner) {
		return n.inner[i]
	}
	return typeNode{}
}

// propertyType converts a complete type name to a property type.
func (n typeNode) propertyType() (usmap.PropertyType, bool) {
	kind, ok := usmap.ParseKind(n.name)
	t := usmap.PropertyType{Kind: kind}
	if !ok {
		t.Kind = unknownKind
		return t, false
	}
	switch kind {
	case usmap.StructProperty:
		t.StructName = n.param(0).name
	case usmap.ByteProperty:
		if e := n.param(0).name; e != "" && e != "None" {
			t.EnumName = e
		}
	case usmap.EnumProperty:
		t.EnumName = n.param(0).name
		if len(n.inner) > 1 {
			inner, _ := n.param(1).propertyType()
			t.Inner = &inner
		}
	case usmap.ArrayProperty, usmap.SetProperty, usmap.OptionalProperty:
		inner, innerOK := n.param(0).propertyType()
		t.Inner = &inner
		ok = innerOK
	case usmap.MapProperty:
		key, keyOK := n.param(0).propertyType()
		value, valueOK := n.param(1).propertyType()
		t.Inner, t.Value = &key, &value
		ok = keyOK && valueOK
	}
	return t, ok
}

func (p *Package) readCompleteTag(r *ueio.Reader, name string) (*tag, error) {
	budget := maxTypeNameNodes
	node := p.readTypeName(r, &budget)
	t := &tag{Name: name, TypeName: node.name}
	t.Type, _ = node.propertyType()
	t.Size = r.Int32()
	flags := r.Uint8()
	if flags&tagHasArrayIndex != 0 {
		t.ArrayIndex = r.Int32()
	}
	if flags&tagHasPropertyGuid != 0 {
		r.Guid()
	}
	if flags&tagHasExtensions != 0 {
		readTagExtensions(r)
	}
	t.BoolVal = flags&tagBoolTrue != 0
	t.Skipped = flags&tagSkippedSerialize != 0
	if err := r.Err(); err != nil {
		return nil, errors.Wrapf(err, "tag of %v", name)
	}
	return t, nil
}

// readTaggedProperties reads tags and values up to the "None" terminator.
// Values are decoded from exactly the tagged size, so a value this reader
// cannot decode is kept as raw bytes without desynchronizing the stream.
func (p *Package) readTaggedProperties(r *ueio.Reader, typ string) (*Struct, error) {
	s := NewStruct(typ)
	for i := 0; ; i++ {
		if i > maxTaggedPropertyCount {
			return nil, errors.Errorf("too many properties in %v", typ)
		}
		t, err := p.readTag(r)
		if err != nil {
			return nil, err
		}
		if t == nil {
			return s, nil
		}
		if t.Size < 0 || int64(t.Size) > r.Remaining() {
			return nil, errors.Errorf("property %v size %v exceeds %v remaining", t.Name, t.Size, r.Remaining())
		}
		raw := r.Bytes(int64(t.Size))

		prop := &Property{Name: t.Name, ArrayIndex: t.ArrayIndex, Type: t.Type}
		if t.Type.Kind == usmap.BoolProperty {
			prop.Value = t.BoolVal
		} else if t.Type.Kind == unknownKind || t.Skipped {
			prop.Value = RawValue(raw)
		} else {
			vr := ueio.NewReader(raw)
			v, err := p.readValue(vr, &t.Type, tagged)
			if err == nil {
				err = vr.Err()
			}
			if err == nil && vr.Remaining() != 0 {
				err = errors.Errorf("%v bytes left", vr.Remaining())
			}
			if err != nil {
				p.debug("Property ", t.Name, " of ", typ, " kept raw: ", err)
				v = RawValue(raw)
			}
			prop.Value = v
		}
		s.Add(prop)
	}
}

// RawValue holds the bytes of a property this reader could not decode.
type RawValue []byte
