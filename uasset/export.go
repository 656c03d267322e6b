package uasset

import (
	"encoding/json"

	"github.com/ErwinsExpertise/go-wwise-export/ueio"
	"github.com/ossrs/go-oryx-lib/errors"
)

// RF_ClassDefaultObject
const flagClassDefaultObject = 0x10

// ObjectRef is an object property value: an index into the package that
// holds the property.
type ObjectRef struct {
	Package *Package
	Index   PackageIndex
}

func (p *Package) ref(i PackageIndex) *ObjectRef {
	return &ObjectRef{Package: p, Index: i}
}

func (o *ObjectRef) IsNull() bool {
	return o == nil || o.Index.IsNull()
}

// Name is the referenced object's name without loading it.
func (o *ObjectRef) Name() string {
	if o.IsNull() {
		return ""
	}
	return o.Package.IndexName(o.Index)
}

// Resolve loads the referenced export. Null references resolve to nil.
func (o *ObjectRef) Resolve() (*Export, error) {
	if o.IsNull() {
		return nil, nil
	}
	return o.Package.Resolve(o.Index)
}

// String renders the reference as Package.Object, or Package for the
// package object itself.
func (o *ObjectRef) String() string {
	if o.IsNull() {
		return "None"
	}
	if o.Index.IsImport() {
		pkg, err := o.Package.ImportPackage(o.Index.ToImport())
		if err != nil {
			return o.Name()
		}
		if name := o.Name(); name != pkg {
			return pkg + "." + name
		}
		return pkg
	}
	return o.Package.Name + "." + o.Name()
}

func (o *ObjectRef) MarshalJSON() ([]byte, error) {
	if o.IsNull() {
		return []byte("null"), nil
	}
	return json.Marshal(o.String())
}

// Decoder is implemented by native classes that carry media payloads.
type Decoder interface {
	Decode() (format string, data []byte, err error)
}

type Export struct {
	Name       string
	Class      string
	Index      int
	Package    *Package
	Properties *Struct
	ObjectGuid ueio.Guid
	// Native holds the class specific data serialized after the
	// properties, for classes this reader knows.
	Native interface{}
	// Err is the first failure parsing the export.
	Err error
}

// Outer returns the export's outer, nil for top-level objects.
func (e *Export) Outer() (*Export, error) {
	return e.Package.Resolve(e.Package.ExportMap[e.Index].OuterIndex)
}

// OuterName is the outer object's name; top-level objects are outered
// to their package.
func (e *Export) OuterName() string {
	return e.Package.IndexName(e.Package.ExportMap[e.Index].OuterIndex)
}

// Property returns a property's value by name.
func (e *Export) Property(name string) (interface{}, bool) {
	return e.Properties.Get(name)
}

// Object resolves an object property.
func (e *Export) Object(name string) (*Export, error) {
	v, ok := e.Property(name)
	if !ok {
		return nil, errors.Errorf("%v has no property %v", e.Name, name)
	}
	ref, ok := v.(*ObjectRef)
	if !ok {
		return nil, errors.Errorf("%v.%v is %T, not an object", e.Name, name, v)
	}
	if ref.IsNull() {
		return nil, errors.Errorf("%v.%v is null", e.Name, name)
	}
	return ref.Resolve()
}

// ObjectArray returns the references of an array of objects; a missing
// property is an empty array.
func (e *Export) ObjectArray(name string) []*ObjectRef {
	v, ok := e.Property(name)
	if !ok {
		return nil
	}
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]*ObjectRef, 0, len(items))
	for _, item := range items {
		if ref, ok := item.(*ObjectRef); ok {
			out = append(out, ref)
		}
	}
	return out
}

// Decode returns the media payload of exports whose class carries one.
func (e *Export) Decode() (string, []byte, error) {
	if e.Err != nil {
		return "", nil, e.Err
	}
	d, ok := e.Native.(Decoder)
	if !ok {
		return "", nil, errors.Errorf("%v of class %v has no media", e.Name, e.Class)
	}
	return d.Decode()
}

func (e *Export) MarshalJSON() ([]byte, error) {
	v := struct {
		Name       string      `json:"name"`
		Class      string      `json:"class"`
		Outer      string      `json:"outer"`
		Properties *Struct     `json:"properties"`
		Native     interface{} `json:"native,omitempty"`
		Error      string      `json:"error,omitempty"`
	}{
		Name:       e.Name,
		Class:      e.Class,
		Outer:      e.OuterName(),
		Properties: e.Properties,
		Native:     e.Native,
	}
	if v.Properties == nil {
		v.Properties = NewStruct(e.Class)
	}
	if e.Err != nil {
		v.Error = e.Err.Error()
	}
	return json.Marshal(v)
}

// nativeTail reads what a class serializes after its script properties.
type nativeTail func(p *Package, r *ueio.Reader, e *Export) (interface{}, error)

var nativeClasses = map[string]nativeTail{
	"AkMediaAssetData": readMediaAssetData,
}

func (p *Package) parseExport(i int) *Export {
	row := &p.ExportMap[i]
	e := &Export{
		Name:    row.ObjectName,
		Class:   p.ClassName(row),
		Index:   i,
		Package: p,
	}
	data, err := sliceRange(p.data, row.SerialOffset, row.SerialSize)
	if err != nil {
		e.Err = errors.Wrapf(err, "export %v", e.Name)
		return e
	}

	r := ueio.NewReader(data)
	if p.Summary.UnversionedProperties() {
		e.Properties, err = p.readUnversionedStruct(r, e.Class)
	} else {
		if p.Summary.FileVersionUE5 >= VerUE5PropertyTagExtension {
			readObjectExtensions(r)
		}
		e.Properties, err = p.readTaggedProperties(r, e.Class)
	}
	if err != nil {
		e.Err = errors.Wrapf(err, "properties of %v", e.Name)
		return e
	}

	if row.ObjectFlags&flagClassDefaultObject == 0 && r.Remaining() >= 4 {
		if r.Bool32() {
			e.ObjectGuid = r.Guid()
		}
	}

	if tail, ok := nativeClasses[e.Class]; ok {
		if e.Native, err = tail(p, r, e); err != nil {
			e.Err = errors.Wrapf(err, "%v data of %v", e.Class, e.Name)
			return e
		}
	}
	if err := r.Err(); err != nil {
		e.Err = errors.Wrapf(err, "export %v", e.Name)
	}
	return e
}
