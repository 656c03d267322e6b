package fixture

import (
	"bytes"
	"compress/zlib"

	"github.com/ErwinsExpertise/go-wwise-export/ueio"
)

const packageTag = 0x9E2A83C1

// Package flags.
const (
	PkgUnversionedProperties = 0x00002000
	PkgFilterEditorOnly      = 0x80000000
)

// Bulk data flags.
const (
	BulkEndOfFile     = 0x0001
	BulkZlib          = 0x0002
	BulkUnused        = 0x0020
	BulkInline        = 0x0040
	BulkSeparateFile  = 0x0100
	BulkOptional      = 0x0800
	BulkNoOffsetFixUp = 0x10000
)

type Import struct {
	ClassPackage string
	ClassName    string
	Outer        int32
	ObjectName   string
}

type Export struct {
	Class int32
	Outer int32
	Name  string
	Flags uint32
	// Properties writes the script properties, terminator included.
	Properties func(w *PackageWriter)
	// Native writes the class data that follows the object guid flag.
	Native func(w *PackageWriter)
	// Overridable writes the object level overridable operation.
	Overridable bool
	// Raw replaces the whole serialized export when set.
	Raw []byte
}

type DataResource struct {
	SerialOffset int64
	SerialSize   int64
	RawSize      int64
	BulkFlags    uint32
}

// Package describes a cooked package split into .uasset and .uexp.
type Package struct {
	// Legacy is the legacy file version, -8 when zero.
	Legacy int32
	// UE4 and UE5 select the layout. With Unversioned they are not written
	// and the reader must be told the same versions.
	UE4, UE5              int32
	Unversioned           bool
	UnversionedProperties bool

	Imports       []Import
	Exports       []Export
	DataResources []DataResource
	// Tail is appended to the .uexp after the exports. BulkDataStartOffset
	// points at it.
	Tail []byte

	names nameTable
}

// PackageWriter serializes export data against the package name map.
type PackageWriter struct {
	*ueio.Writer
	pkg *Package
}

func (p *Package) writer() *PackageWriter {
	return &PackageWriter{Writer: ueio.NewWriter(), pkg: p}
}

// Name writes an FName.
func (w *PackageWriter) Name(s string) {
	w.Int32(w.pkg.names.add(s))
	w.Int32(0)
}

func (w *PackageWriter) None() {
	w.Name("None")
}

// Tag writes a property tag of the layout before complete type names and
// the value. header writes the type specific tag fields.
func (w *PackageWriter) Tag(name, typ string, header, value func(w *PackageWriter)) {
	v := w.pkg.writer()
	if value != nil {
		value(v)
	}
	w.Name(name)
	w.Name(typ)
	w.Int32(int32(v.Len()))
	w.Int32(0)
	if header != nil {
		header(w)
	}
	if w.pkg.UE4 >= 503 {
		w.Uint8(0)
	}
	if w.pkg.UE5 >= 1011 {
		w.Uint8(0)
	}
	w.Write(v.Bytes())
}

// TypeName is a complete property type name node.
type TypeName struct {
	Name   string
	Params []TypeName
}

func (w *PackageWriter) typeName(t TypeName) {
	w.Name(t.Name)
	w.Int32(int32(len(t.Params)))
	for _, p := range t.Params {
		w.typeName(p)
	}
}

// CompleteTag writes a property tag of the complete type name layout.
func (w *PackageWriter) CompleteTag(name string, t TypeName, flags uint8, value func(w *PackageWriter)) {
	v := w.pkg.writer()
	if value != nil {
		value(v)
	}
	w.Name(name)
	w.typeName(t)
	w.Int32(int32(v.Len()))
	w.Uint8(flags)
	w.Write(v.Bytes())
}

func (w *PackageWriter) IntTag(name string, v int32) {
	w.Tag(name, "IntProperty", nil, func(w *PackageWriter) { w.Int32(v) })
}

func (w *PackageWriter) FloatTag(name string, v float32) {
	w.Tag(name, "FloatProperty", nil, func(w *PackageWriter) { w.Float32(v) })
}

func (w *PackageWriter) StrTag(name, v string) {
	w.Tag(name, "StrProperty", nil, func(w *PackageWriter) { w.String(v) })
}

func (w *PackageWriter) NameTag(name, v string) {
	w.Tag(name, "NameProperty", nil, func(w *PackageWriter) { w.Name(v) })
}

func (w *PackageWriter) BoolTag(name string, v bool) {
	w.Tag(name, "BoolProperty", func(w *PackageWriter) {
		if v {
			w.Uint8(1)
		} else {
			w.Uint8(0)
		}
	}, nil)
}

func (w *PackageWriter) ObjectTag(name string, index int32) {
	w.Tag(name, "ObjectProperty", nil, func(w *PackageWriter) { w.Int32(index) })
}

func (w *PackageWriter) ObjectArrayTag(name string, indexes ...int32) {
	w.Tag(name, "ArrayProperty", func(w *PackageWriter) { w.Name("ObjectProperty") }, func(w *PackageWriter) {
		w.Int32(int32(len(indexes)))
		for _, i := range indexes {
			w.Int32(i)
		}
	})
}

func (w *PackageWriter) EnumByteTag(name, enum, value string) {
	w.Tag(name, "ByteProperty", func(w *PackageWriter) { w.Name(enum) }, func(w *PackageWriter) { w.Name(value) })
}

func (w *PackageWriter) StructTag(name, structName string, value func(w *PackageWriter)) {
	w.Tag(name, "StructProperty", func(w *PackageWriter) {
		w.Name(structName)
		if w.pkg.UE4 >= 441 {
			w.Guid(ueio.Guid{})
		}
	}, value)
}

// BaseText writes a text value with a namespace and key.
func (w *PackageWriter) BaseText(namespace, key, source string) {
	w.Uint32(0)
	w.Uint8(0)
	w.String(namespace)
	w.String(key)
	w.String(source)
}

// Fragment writes one unversioned header fragment.
func (w *PackageWriter) Fragment(skip, values int, hasZeroes, last bool) {
	packed := uint16(skip) | uint16(values)<<9
	if hasZeroes {
		packed |= 0x80
	}
	if last {
		packed |= 0x100
	}
	w.Uint16(packed)
}

// Bulk writes a legacy bulk data header, followed by data for inline
// payloads.
func (w *PackageWriter) Bulk(flags uint32, offset int64, data []byte) {
	w.Uint32(flags)
	w.Int32(int32(len(data)))
	w.Int32(int32(len(data)))
	w.Int64(offset)
	if flags&BulkInline != 0 {
		w.Write(data)
	}
}

// CompressedBulk compresses data in the engine's chunked zlib layout and
// writes it inline.
func (w *PackageWriter) CompressedBulk(data []byte, chunkSize int) {
	payload := ueio.NewWriter()
	var chunks [][]byte
	var compressedTotal int64
	for start := 0; start < len(data); start += chunkSize {
		end := start + chunkSize
		if end > len(data) {
			end = len(data)
		}
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		zw.Write(data[start:end])
		zw.Close()
		chunks = append(chunks, buf.Bytes())
		compressedTotal += int64(buf.Len())
	}
	payload.Uint64(packageTag)
	payload.Int64(int64(chunkSize))
	payload.Int64(compressedTotal)
	payload.Int64(int64(len(data)))
	for i, c := range chunks {
		size := chunkSize
		if rest := len(data) - i*chunkSize; rest < size {
			size = rest
		}
		payload.Int64(int64(len(c)))
		payload.Int64(int64(size))
	}
	for _, c := range chunks {
		payload.Write(c)
	}

	w.Uint32(BulkInline | BulkZlib)
	w.Int32(int32(len(data)))
	w.Int32(int32(payload.Len()))
	w.Int64(0)
	w.Write(payload.Bytes())
}

func (p *Package) legacy() int32 {
	if p.Legacy == 0 {
		return -8
	}
	return p.Legacy
}

type layout struct {
	nameOffset, importOffset, exportOffset int32
	dataResourceOffset, totalHeader        int32
	bulkStart                              int64
}

func (p *Package) summary(l layout) []byte {
	w := ueio.NewWriter()
	ue4, ue5 := p.UE4, p.UE5
	w.Uint32(packageTag)
	w.Int32(p.legacy())
	if p.legacy() != -4 {
		w.Int32(864)
	}
	if p.Unversioned {
		w.Int32(0)
		if p.legacy() <= -8 {
			w.Int32(0)
		}
	} else {
		w.Int32(ue4)
		if p.legacy() <= -8 {
			w.Int32(ue5)
		}
	}
	w.Int32(0) // licensee
	w.Int32(0) // custom versions
	if ue5 >= 1016 {
		w.Write(make([]byte, 20))
	}
	w.Int32(l.totalHeader)
	w.String("None")
	flags := uint32(PkgFilterEditorOnly)
	if p.UnversionedProperties {
		flags |= PkgUnversionedProperties
	}
	w.Uint32(flags)
	w.Int32(int32(len(p.names.names)))
	w.Int32(l.nameOffset)
	if ue5 >= 1008 {
		w.Int32(0)
		w.Int32(0)
	}
	if ue4 >= 459 {
		w.Int32(0)
		w.Int32(0)
	}
	w.Int32(int32(len(p.Exports)))
	w.Int32(l.exportOffset)
	w.Int32(int32(len(p.Imports)))
	w.Int32(l.importOffset)
	if ue5 >= 1015 {
		w.Write(make([]byte, 16))
	}
	if ue5 >= 1014 {
		w.Int32(0)
	}
	w.Int32(0) // depends
	if ue4 >= 384 {
		w.Int32(0)
		w.Int32(0)
	}
	if ue4 >= 510 {
		w.Int32(0)
	}
	w.Int32(0) // thumbnails
	if ue5 < 1016 {
		w.Guid(ueio.Guid{1, 2, 3, 4})
	}
	w.Int32(0) // generations
	engine := func() {
		w.Uint16(5)
		w.Uint16(3)
		w.Uint16(2)
		w.Uint32(0)
		w.String("++UE5+Release-5.3")
	}
	if ue4 >= 336 {
		engine()
	} else {
		w.Uint32(0)
	}
	if ue4 >= 444 {
		engine()
	}
	w.Uint32(0) // compression flags
	w.Int32(0)  // compressed chunks
	w.Uint32(0) // package source
	w.Int32(0)  // additional packages
	if p.legacy() > -7 {
		w.Int32(0)
	}
	w.Int32(0)
	w.Int64(l.bulkStart)
	if ue4 >= 224 {
		w.Int32(0)
	}
	if ue4 >= 326 {
		w.Int32(0)
	}
	if ue4 >= 507 {
		w.Int32(0)
		w.Int32(0)
	}
	if ue5 >= 1001 {
		w.Int32(0)
	}
	if ue5 >= 1002 {
		w.Int64(0)
	}
	if ue5 >= 1009 {
		w.Int32(l.dataResourceOffset)
	}
	return w.Bytes()
}

func (p *Package) exportRow(w *PackageWriter, e Export, size, offset int64) {
	ue4, ue5 := p.UE4, p.UE5
	w.Int32(e.Class)
	w.Int32(0)
	if ue4 >= 508 {
		w.Int32(0)
	}
	w.Int32(e.Outer)
	w.Name(e.Name)
	w.Uint32(e.Flags)
	if ue4 >= 511 {
		w.Int64(size)
		w.Int64(offset)
	} else {
		w.Int32(int32(size))
		w.Int32(int32(offset))
	}
	w.Bool32(false)
	w.Bool32(false)
	w.Bool32(false)
	if ue5 < 1005 {
		w.Guid(ueio.Guid{})
	}
	if ue5 >= 1006 {
		w.Bool32(false)
	}
	w.Uint32(0)
	if ue4 >= 365 {
		w.Bool32(false)
	}
	if ue4 >= 485 {
		w.Bool32(true)
	}
	if ue5 >= 1003 {
		w.Bool32(false)
	}
	if ue4 >= 507 {
		w.Write(make([]byte, 20))
	}
	if ue5 >= 1010 {
		w.Int64(0)
		w.Int64(0)
	}
}

// Build serializes the package into its .uasset and .uexp parts.
func (p *Package) Build() (uasset, uexp []byte) {
	p.names = nameTable{}
	p.names.add("None")

	datas := make([][]byte, len(p.Exports))
	for i, e := range p.Exports {
		if e.Raw != nil {
			datas[i] = e.Raw
			continue
		}
		w := p.writer()
		if p.UE5 >= 1011 && !p.UnversionedProperties {
			if e.Overridable {
				w.Uint8(0x02)
				w.Uint8(1) // operation
			} else {
				w.Uint8(0) // property extensions
			}
		}
		if e.Properties != nil {
			e.Properties(w)
		}
		if e.Flags&0x10 == 0 {
			w.Bool32(false)
		}
		if e.Native != nil {
			e.Native(w)
		}
		datas[i] = w.Bytes()
	}

	imports := p.writer()
	for _, imp := range p.Imports {
		imports.Name(imp.ClassPackage)
		imports.Name(imp.ClassName)
		imports.Int32(imp.Outer)
		imports.Name(imp.ObjectName)
		if p.UE5 >= 1003 {
			imports.Bool32(false)
		}
	}
	// Export names join the name map before it is written.
	for _, e := range p.Exports {
		p.names.add(e.Name)
	}

	build := func(l layout) ([]byte, layout) {
		header := ueio.NewWriter()
		header.Write(p.summary(l))
		l.nameOffset = int32(header.Len())
		for _, n := range p.names.names {
			header.String(n)
			if p.UE4 >= 504 {
				header.Uint32(0)
			}
		}
		l.importOffset = int32(header.Len())
		header.Write(imports.Bytes())
		l.exportOffset = int32(header.Len())

		rows := p.writer()
		for _, e := range p.Exports {
			p.exportRow(rows, e, 0, 0)
		}
		rowsLen := rows.Len()
		l.dataResourceOffset = 0
		resources := ueio.NewWriter()
		if len(p.DataResources) > 0 {
			l.dataResourceOffset = l.exportOffset + int32(rowsLen)
			resources.Uint32(1)
			resources.Int32(int32(len(p.DataResources)))
			for _, d := range p.DataResources {
				resources.Uint32(0)
				resources.Int64(d.SerialOffset)
				resources.Int64(-1)
				resources.Int64(d.SerialSize)
				resources.Int64(d.RawSize)
				resources.Int32(0)
				resources.Uint32(d.BulkFlags)
			}
		}
		l.totalHeader = l.exportOffset + int32(rowsLen) + int32(resources.Len())

		offset := int64(l.totalHeader)
		rows = p.writer()
		for i, e := range p.Exports {
			p.exportRow(rows, e, int64(len(datas[i])), offset)
			offset += int64(len(datas[i]))
		}
		l.bulkStart = offset
		header.Write(rows.Bytes())
		header.Write(resources.Bytes())
		return header.Bytes(), l
	}

	// The first pass settles the offsets, the second writes them.
	_, l := build(layout{})
	uasset, _ = build(l)

	body := ueio.NewWriter()
	for _, d := range datas {
		body.Write(d)
	}
	body.Write(p.Tail)
	body.Uint32(packageTag)
	return uasset, body.Bytes()
}

// Bytes returns the .uasset and .uexp joined, the layout readers see.
func (p *Package) Bytes() []byte {
	uasset, uexp := p.Build()
	return append(uasset, uexp...)
}
