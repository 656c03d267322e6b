// Package usmap reads type mapping files (.usmap). Cooked games that save
// unversioned properties drop every property name and type from their
// packages; a mapping file dumped from the running game supplies the
// schemas needed to read them back.
package usmap

import (
	"os"

	"github.com/ErwinsExpertise/go-wwise-export/ueio"
	"github.com/ossrs/go-oryx-lib/errors"
)

const Magic = 0x30C4

// File format versions.
const (
	VersionInitial = iota
	VersionPackageVersioning
	VersionLongFName
	VersionLargeEnums
	VersionExplicitEnumValues
	VersionLatest = VersionExplicitEnumValues
)

// Compression methods of the mapping payload.
const (
	CompressionNone = iota
	CompressionOodle
	CompressionBrotli
	CompressionZStandard
)

var (
	ErrNotMappings            = errors.New("not a usmap file")
	ErrUnsupportedVersion     = errors.New("unsupported usmap version")
	ErrUnsupportedCompression = errors.New("unsupported usmap compression")
	ErrCyclicSuper            = errors.New("struct super chain has a cycle")
)

// PropertyKind is the serialized property type tag.
type PropertyKind uint8

const (
	ByteProperty PropertyKind = iota
	BoolProperty
	IntProperty
	FloatProperty
	ObjectProperty
	NameProperty
	DelegateProperty
	DoubleProperty
	ArrayProperty
	StructProperty
	StrProperty
	TextProperty
	InterfaceProperty
	MulticastDelegateProperty
	WeakObjectProperty
	LazyObjectProperty
	AssetObjectProperty
	SoftObjectProperty
	UInt64Property
	UInt32Property
	UInt16Property
	Int64Property
	Int16Property
	Int8Property
	MapProperty
	SetProperty
	EnumProperty
	FieldPathProperty
	OptionalProperty
	Utf8StrProperty
	AnsiStrProperty
)

var kindNames = [...]string{
	"ByteProperty", "BoolProperty", "IntProperty", "FloatProperty", "ObjectProperty",
	"NameProperty", "DelegateProperty", "DoubleProperty", "ArrayProperty", "StructProperty",
	"StrProperty", "TextProperty", "InterfaceProperty", "MulticastDelegateProperty",
	"WeakObjectProperty", "LazyObjectProperty", "AssetObjectProperty", "SoftObjectProperty",
	"UInt64Property", "UInt32Property", "UInt16Property", "Int64Property", "Int16Property",
	"Int8Property", "MapProperty", "SetProperty", "EnumProperty", "FieldPathProperty",
	"OptionalProperty", "Utf8StrProperty", "AnsiStrProperty",
}

// String returns the engine class name of the property type, the same
// name tagged serialization writes.
func (k PropertyKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "UnknownProperty"
}

// ParseKind maps an engine class name such as "ArrayProperty" to its kind.
func ParseKind(name string) (PropertyKind, bool) {
	for i, n := range kindNames {
		if n == name {
			return PropertyKind(i), true
		}
	}
	return 0, false
}

// PropertyType is a possibly nested property type.
type PropertyType struct {
	Kind PropertyKind
	// StructName is set for StructProperty.
	StructName string
	// EnumName is set for EnumProperty, and for ByteProperty backed by an enum.
	EnumName string
	// Inner is the element type of arrays, sets and optionals, the
	// underlying type of enums and the key type of maps.
	Inner *PropertyType
	// Value is the value type of maps.
	Value *PropertyType
}

type Property struct {
	Name        string
	SchemaIndex uint16
	ArraySize   uint8
	Type        PropertyType
}

type Struct struct {
	Name       string
	SuperName  string
	Properties []Property
	// PropertyCount includes properties that are not serialized.
	PropertyCount int

	mappings *Mappings
}

type Enum struct {
	Name   string
	Values map[int64]string
}

type Mappings struct {
	Version        uint8
	FileVersionUE4 int32
	FileVersionUE5 int32
	Structs        map[string]*Struct
	Enums          map[string]*Enum
}

// Struct returns the schema for name.
func (m *Mappings) Struct(name string) (*Struct, bool) {
	s, ok := m.Structs[name]
	return s, ok
}

func (m *Mappings) Enum(name string) (*Enum, bool) {
	e, ok := m.Enums[name]
	return e, ok
}

// Super returns the parent schema, if any and known.
func (s *Struct) Super() (*Struct, bool) {
	if s.SuperName == "" || s.mappings == nil {
		return nil, false
	}
	return s.mappings.Struct(s.SuperName)
}

// supers lists the known parent chain, nearest first. The walk stops at
// the first struct seen twice.
func (s *Struct) supers() ([]*Struct, bool) {
	var chain []*Struct
	seen := map[*Struct]bool{s: true}
	for super, ok := s.Super(); ok; super, ok = super.Super() {
		if seen[super] {
			return chain, false
		}
		seen[super] = true
		chain = append(chain, super)
	}
	return chain, true
}

// TotalCount is the number of schema indexes the struct and its supers span.
func (s *Struct) TotalCount() int {
	n := s.PropertyCount
	chain, _ := s.supers()
	for _, super := range chain {
		n += super.PropertyCount
	}
	return n
}

// Property resolves a flattened schema index. Indexes below the super
// chain's count belong to the supers; a static array occupies ArraySize
// consecutive indexes, and the returned offset is the element.
func (s *Struct) Property(index int) (*Property, int, bool) {
	chain, ok := s.supers()
	if !ok {
		return nil, 0, false
	}
	for i := len(chain) - 1; i >= 0; i-- {
		if index < chain[i].PropertyCount {
			return chain[i].own(index)
		}
		index -= chain[i].PropertyCount
	}
	return s.own(index)
}

func (s *Struct) own(index int) (*Property, int, bool) {
	for i := range s.Properties {
		p := &s.Properties[i]
		start := int(p.SchemaIndex)
		size := int(p.ArraySize)
		if size == 0 {
			size = 1
		}
		if index >= start && index < start+size {
			return p, index - start, true
		}
	}
	return nil, 0, false
}

// Load reads a mapping file from disk.
func Load(path string) (*Mappings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %v", path)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %v", path)
	}
	return m, nil
}

// Parse decodes a mapping file.
func Parse(data []byte) (*Mappings, error) {
	r := ueio.NewReader(data)
	if r.Uint16() != Magic {
		return nil, ErrNotMappings
	}
	m := &Mappings{
		Version: r.Uint8(),
		Structs: make(map[string]*Struct),
		Enums:   make(map[string]*Enum),
	}
	if m.Version > VersionLatest {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "version %v", m.Version)
	}

	if m.Version >= VersionPackageVersioning && r.Bool32() {
		m.FileVersionUE4 = r.Int32()
		m.FileVersionUE5 = r.Int32()
		n := r.Count(20)
		r.Skip(int64(n) * 20) // custom versions
		r.Uint32()            // net changelist
	}

	method := r.Uint8()
	compressedSize := r.Uint32()
	decompressedSize := r.Uint32()
	if err := r.Err(); err != nil {
		return nil, errors.Wrapf(err, "usmap header")
	}
	if method != CompressionNone {
		return nil, errors.Wrapf(ErrUnsupportedCompression, "method %v", method)
	}
	if compressedSize != decompressedSize || int64(compressedSize) > r.Remaining() {
		return nil, errors.Errorf("usmap payload size %v/%v does not fit %v bytes", compressedSize, decompressedSize, r.Remaining())
	}

	p := &parser{r: ueio.NewReader(r.Bytes(int64(compressedSize))), m: m}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return m, nil
}

type parser struct {
	r     *ueio.Reader
	m     *Mappings
	names []string
}

func (p *parser) name() string {
	i := p.r.Int32()
	if i < 0 || int(i) >= len(p.names) {
		if p.r.Err() == nil {
			p.r.Fail(errors.Errorf("name index %v out of %v", i, len(p.names)))
		}
		return ""
	}
	return p.names[i]
}

func (p *parser) parse() error {
	r := p.r
	n := int(r.Uint32())
	if int64(n) > r.Remaining() {
		return errors.Errorf("invalid name count %v", n)
	}
	p.names = make([]string, n)
	for i := range p.names {
		var size int64
		if p.m.Version >= VersionLongFName {
			size = int64(r.Uint16())
		} else {
			size = int64(r.Uint8())
		}
		p.names[i] = string(r.Bytes(size))
	}

	enums := int(r.Uint32())
	for i := 0; i < enums && r.Err() == nil; i++ {
		e := &Enum{Name: p.name(), Values: make(map[int64]string)}
		var count int
		if p.m.Version >= VersionLargeEnums {
			count = int(r.Uint16())
		} else {
			count = int(r.Uint8())
		}
		for j := 0; j < count; j++ {
			if p.m.Version >= VersionExplicitEnumValues {
				value := r.Int64()
				e.Values[value] = p.name()
			} else {
				e.Values[int64(j)] = p.name()
			}
		}
		p.m.Enums[e.Name] = e
	}

	structs := int(r.Uint32())
	for i := 0; i < structs && r.Err() == nil; i++ {
		s := &Struct{Name: p.name(), mappings: p.m}
		if super := r.Int32(); super >= 0 && int(super) < len(p.names) {
			s.SuperName = p.names[super]
		}
		s.PropertyCount = int(r.Uint16())
		serializable := int(r.Uint16())
		s.Properties = make([]Property, 0, serializable)
		for j := 0; j < serializable && r.Err() == nil; j++ {
			prop := Property{SchemaIndex: r.Uint16(), ArraySize: r.Uint8()}
			prop.Name = p.name()
			prop.Type = p.propertyType(0)
			s.Properties = append(s.Properties, prop)
		}
		p.m.Structs[s.Name] = s
	}
	if err := r.Err(); err != nil {
		return errors.Wrapf(err, "usmap payload")
	}
	for _, s := range p.m.Structs {
		if _, ok := s.supers(); !ok {
			return errors.Wrapf(ErrCyclicSuper, "%v", s.Name)
		}
	}
	return nil
}

const maxTypeDepth = 16

func (p *parser) propertyType(depth int) PropertyType {
	t := PropertyType{Kind: PropertyKind(p.r.Uint8())}
	if depth > maxTypeDepth {
		p.r.Fail(errors.Errorf("property type nested deeper than %v", maxTypeDepth))
		return t
	}
	switch t.Kind {
	case EnumProperty:
		inner := p.propertyType(depth + 1)
		t.Inner = &inner
		t.EnumName = p.name()
	case StructProperty:
		t.StructName = p.name()
	case SetProperty, ArrayProperty, OptionalProperty:
		inner := p.propertyType(depth + 1)
		t.Inner = &inner
	case MapProperty:
		key := p.propertyType(depth + 1)
		value := p.propertyType(depth + 1)
		t.Inner = &key
		t.Value = &value
	}
	return t
}
