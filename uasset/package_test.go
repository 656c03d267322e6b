package uasset

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/ErwinsExpertise/go-wwise-export/internal/fixture"
	"github.com/ErwinsExpertise/go-wwise-export/locres"
	"github.com/ErwinsExpertise/go-wwise-export/ueio"
	"github.com/ossrs/go-oryx-lib/errors"
)

const testPackageName = "/Game/WwiseAudio/Events/Play_Footstep"

// eventImports is the import map the Wwise integration produces for an
// event that references one media asset.
var eventImports = []fixture.Import{
	{ClassPackage: "/Script/CoreUObject", ClassName: "Package", ObjectName: "/Script/AkAudio"},
	{ClassPackage: "/Script/CoreUObject", ClassName: "Class", Outer: -1, ObjectName: "AkAudioEvent"},
	{ClassPackage: "/Script/CoreUObject", ClassName: "Class", Outer: -1, ObjectName: "AkAudioEventData"},
	{ClassPackage: "/Script/CoreUObject", ClassName: "Package", ObjectName: "/Game/WwiseAudio/Media/123456"},
	{ClassPackage: "/Script/AkAudio", ClassName: "AkMediaAsset", Outer: -4, ObjectName: "123456"},
}

func eventPackage() *fixture.Package {
	return &fixture.Package{
		UE4:     522,
		UE5:     1009,
		Imports: eventImports,
		Exports: []fixture.Export{
			{
				Class: -2,
				Name:  "Play_Footstep",
				Properties: func(w *fixture.PackageWriter) {
					w.IntTag("ShortID", 42)
					w.ObjectTag("EventCookedData", 2)
					w.FloatTag("MaxAttenuationRadius", 1.5)
					w.StrTag("Comment", "left foot")
					w.NameTag("Bank", "Footsteps")
					w.BoolTag("bAutoLoad", true)
					w.EnumByteTag("LoadMode", "EAkSoundLoad", "EAkSoundLoad::Memory")
					w.StructTag("Location", "Vector", func(w *fixture.PackageWriter) {
						w.Float64(1)
						w.Float64(2)
						w.Float64(3)
					})
					w.StructTag("Settings", "AkEventSettings", func(w *fixture.PackageWriter) {
						w.IntTag("Priority", 7)
						w.None()
					})
					w.Tag("DisplayName", "TextProperty", nil, func(w *fixture.PackageWriter) {
						w.BaseText("Wwise", "Footstep", "Footstep")
					})
					w.Tag("OnEnd", "MulticastSparseDelegateProperty", nil, func(w *fixture.PackageWriter) {
						w.Write([]byte{1, 2, 3, 4})
					})
					// An int tag too large for its value is kept raw.
					w.Tag("Broken", "IntProperty", nil, func(w *fixture.PackageWriter) {
						w.Int64(5)
					})
					w.None()
				},
			},
			{
				Class: -3,
				Outer: 1,
				Name:  "AkAudioEventData_0",
				Properties: func(w *fixture.PackageWriter) {
					w.ObjectArrayTag("MediaList", -5)
					w.None()
				},
			},
		},
	}
}

func newPackage(t *testing.T, fp *fixture.Package, opts Options) *Package {
	t.Helper()
	p, err := New(testPackageName, fp.Bytes(), opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return p
}

type resolverFunc func(pkg *Package, index int) (*Export, error)

func (f resolverFunc) ResolveImport(pkg *Package, index int) (*Export, error) {
	return f(pkg, index)
}

func TestPackageTables(t *testing.T) {
	p := newPackage(t, eventPackage(), Options{})

	if p.Summary.FileVersionUE4 != 522 || p.Summary.FileVersionUE5 != 1009 || p.Summary.Unversioned {
		t.Errorf("unexpected versions %d/%d unversioned=%v", p.Summary.FileVersionUE4, p.Summary.FileVersionUE5, p.Summary.Unversioned)
	}
	if !p.Summary.FilterEditorOnly() || p.Summary.UnversionedProperties() {
		t.Errorf("unexpected package flags %#x", p.Summary.PackageFlags)
	}
	if len(p.Imports) != 5 || len(p.ExportMap) != 2 {
		t.Fatalf("expected 5 imports and 2 exports, got %d and %d", len(p.Imports), len(p.ExportMap))
	}
	if p.ShortName() != "Play_Footstep" {
		t.Errorf("ShortName returned %q", p.ShortName())
	}
	if name := p.ClassName(&p.ExportMap[1]); name != "AkAudioEventData" {
		t.Errorf("ClassName returned %q", name)
	}
	if pkg, err := p.ImportPackage(4); err != nil || pkg != "/Game/WwiseAudio/Media/123456" {
		t.Errorf("ImportPackage returned %q, %v", pkg, err)
	}
	if _, err := p.ImportPackage(9); errors.Cause(err) != ErrInvalidIndex {
		t.Errorf("expected ErrInvalidIndex, got %v", err)
	}
	if name := p.IndexName(0); name != "Play_Footstep" {
		t.Errorf("null index names %q", name)
	}
	if _, ok := p.FindExport("akaudioeventdata_0", "Play_Footstep"); !ok {
		t.Error("FindExport did not find the event data")
	}
	if _, ok := p.FindExport("AkAudioEventData_0", "Other"); ok {
		t.Error("FindExport ignored the outer")
	}
}

func TestTaggedProperties(t *testing.T) {
	table := locres.NewTable()
	if err := table.Add((&fixture.Locres{Version: 3, Entries: map[string]map[string]string{
		"Wwise": {"Footstep": "Pas"},
	}}).Bytes()); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	p := newPackage(t, eventPackage(), Options{Localization: table})

	exports := p.Exports()
	if len(exports) != 2 {
		t.Fatalf("expected 2 exports, got %d", len(exports))
	}
	event := exports[0]
	if event.Err != nil {
		t.Fatalf("event failed: %v", event.Err)
	}
	if event.Class != "AkAudioEvent" {
		t.Errorf("expected class AkAudioEvent, got %q", event.Class)
	}

	expect := map[string]interface{}{
		"ShortID":              int32(42),
		"MaxAttenuationRadius": float32(1.5),
		"Comment":              "left foot",
		"Bank":                 "Footsteps",
		"bAutoLoad":            true,
		"LoadMode":             "EAkSoundLoad::Memory",
		"Location":             Vector{1, 2, 3},
	}
	for name, want := range expect {
		if got, ok := event.Property(name); !ok || got != want {
			t.Errorf("%s: expected %v, got %v (%v)", name, want, got, ok)
		}
	}

	settings, ok := event.Property("Settings")
	if s, isStruct := settings.(*Struct); !ok || !isStruct || s.Type != "AkEventSettings" {
		t.Fatalf("Settings is %T", settings)
	} else if v, _ := s.Get("Priority"); v != int32(7) {
		t.Errorf("Settings.Priority is %v", v)
	}

	text, _ := event.Property("DisplayName")
	if txt, isText := text.(*Text); !isText || txt.String() != "Pas" || txt.SourceString != "Footstep" {
		t.Errorf("DisplayName is %#v", text)
	}
	if raw, _ := event.Property("OnEnd"); string(raw.(RawValue)) != "\x01\x02\x03\x04" {
		t.Errorf("OnEnd is %v", raw)
	}
	if raw, _ := event.Property("Broken"); len(raw.(RawValue)) != 8 {
		t.Errorf("Broken is %v", raw)
	}

	data, err := event.Object("EventCookedData")
	if err != nil || data != exports[1] {
		t.Fatalf("Object returned %v, %v", data, err)
	}
	if outer, err := data.Outer(); err != nil || outer != event {
		t.Errorf("Outer returned %v, %v", outer, err)
	}
	if data.OuterName() != "Play_Footstep" {
		t.Errorf("OuterName returned %q", data.OuterName())
	}
	if event.OuterName() != "Play_Footstep" {
		t.Errorf("top-level OuterName returned %q", event.OuterName())
	}

	media := data.ObjectArray("MediaList")
	if len(media) != 1 {
		t.Fatalf("expected 1 media reference, got %d", len(media))
	}
	if media[0].Name() != "123456" || media[0].String() != "/Game/WwiseAudio/Media/123456.123456" {
		t.Errorf("unexpected media reference %q / %q", media[0].Name(), media[0].String())
	}
	if refs := data.ObjectArray("Missing"); len(refs) != 0 {
		t.Errorf("missing array returned %v", refs)
	}
}

func TestResolveImport(t *testing.T) {
	target := &Export{Name: "123456"}
	var asked int
	p := newPackage(t, eventPackage(), Options{Resolver: resolverFunc(func(pkg *Package, index int) (*Export, error) {
		asked = index
		return target, nil
	})})
	data, _ := p.Export(1)
	e, err := data.ObjectArray("MediaList")[0].Resolve()
	if err != nil || e != target || asked != 4 {
		t.Errorf("Resolve returned %v, %v for import %d", e, err, asked)
	}

	p = newPackage(t, eventPackage(), Options{})
	data, _ = p.Export(1)
	if _, err := data.ObjectArray("MediaList")[0].Resolve(); err == nil {
		t.Error("expected an error without a resolver")
	}
	if e, err := (*ObjectRef)(nil).Resolve(); e != nil || err != nil {
		t.Errorf("null reference resolved to %v, %v", e, err)
	}
}

func TestExportJSON(t *testing.T) {
	p := newPackage(t, eventPackage(), Options{})
	b, err := json.Marshal(p.Exports()[1])
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"name":"AkAudioEventData_0","class":"AkAudioEventData","outer":"Play_Footstep","properties":{"MediaList":["/Game/WwiseAudio/Media/123456.123456"]}}`
	if string(b) != want {
		t.Errorf("unexpected JSON\n got: %s\nwant: %s", b, want)
	}

	b, err = json.Marshal(p.Exports()[0])
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	for _, part := range []string{`"ShortID":42`, `"DisplayName":"Footstep"`, `"Location":{"X":1,"Y":2,"Z":3}`} {
		if !strings.Contains(string(b), part) {
			t.Errorf("JSON %s lacks %s", b, part)
		}
	}
}

func TestFailedExportIsIsolated(t *testing.T) {
	fp := eventPackage()
	fp.Exports[0].Raw = []byte{1, 2, 3}
	p := newPackage(t, fp, Options{})
	exports := p.Exports()
	if exports[0].Err == nil {
		t.Error("expected the truncated export to fail")
	}
	if exports[1].Err != nil {
		t.Errorf("second export failed: %v", exports[1].Err)
	}
	if _, _, err := exports[0].Decode(); err == nil {
		t.Error("Decode of a failed export succeeded")
	}
}

func TestUnversionedSummary(t *testing.T) {
	fp := eventPackage()
	fp.Unversioned = true
	p := newPackage(t, fp, Options{Game: GameUE5_3})
	if !p.Summary.Unversioned || p.Summary.FileVersionUE4 != 522 || p.Summary.FileVersionUE5 != 1009 {
		t.Errorf("unexpected summary versions %+v", p.Summary)
	}
	if e := p.Exports()[1]; e.Err != nil || len(e.ObjectArray("MediaList")) != 1 {
		t.Errorf("export of unversioned package: %v", e.Err)
	}
}

func TestOverridableObject(t *testing.T) {
	fp := &fixture.Package{
		UE4:     522,
		UE5:     1011,
		Imports: eventImports,
		Exports: []fixture.Export{{
			Class:       -3,
			Name:        "AkAudioEventData_0",
			Overridable: true,
			Properties: func(w *fixture.PackageWriter) {
				w.IntTag("ShortID", 7)
				w.None()
			},
		}},
	}
	e := newPackage(t, fp, Options{}).Exports()[0]
	if e.Err != nil {
		t.Fatalf("export failed: %v", e.Err)
	}
	if v, _ := e.Property("ShortID"); v != int32(7) {
		t.Errorf("ShortID is %v", v)
	}
}

func TestCompleteTypeNames(t *testing.T) {
	fp := &fixture.Package{
		UE4:     522,
		UE5:     1012,
		Imports: eventImports,
		Exports: []fixture.Export{{
			Class: -3,
			Name:  "AkAudioEventData_0",
			Properties: func(w *fixture.PackageWriter) {
				w.CompleteTag("ShortID", fixture.TypeName{Name: "IntProperty"}, 0, func(w *fixture.PackageWriter) {
					w.Int32(5)
				})
				w.CompleteTag("bLoop", fixture.TypeName{Name: "BoolProperty"}, 0x10, nil)
				w.CompleteTag("MediaList", fixture.TypeName{Name: "ArrayProperty", Params: []fixture.TypeName{{Name: "ObjectProperty"}}}, 0,
					func(w *fixture.PackageWriter) {
						w.Int32(1)
						w.Int32(-5)
					})
				w.CompleteTag("Mode", fixture.TypeName{Name: "EnumProperty", Params: []fixture.TypeName{{Name: "EAkSoundLoad"}, {Name: "ByteProperty"}}}, 0,
					func(w *fixture.PackageWriter) {
						w.Name("EAkSoundLoad::Streamed")
					})
				w.CompleteTag("Settings", fixture.TypeName{Name: "StructProperty", Params: []fixture.TypeName{{Name: "AkEventSettings", Params: []fixture.TypeName{{Name: "/Script/AkAudio"}}}}}, 0,
					func(w *fixture.PackageWriter) {
						w.CompleteTag("Priority", fixture.TypeName{Name: "IntProperty"}, 0, func(w *fixture.PackageWriter) {
							w.Int32(3)
						})
						w.None()
					})
				w.None()
			},
		}},
	}
	p := newPackage(t, fp, Options{})
	e := p.Exports()[0]
	if e.Err != nil {
		t.Fatalf("export failed: %v", e.Err)
	}
	if v, _ := e.Property("ShortID"); v != int32(5) {
		t.Errorf("ShortID is %v", v)
	}
	if v, _ := e.Property("bLoop"); v != true {
		t.Errorf("bLoop is %v", v)
	}
	if v, _ := e.Property("Mode"); v != "EAkSoundLoad::Streamed" {
		t.Errorf("Mode is %v", v)
	}
	if refs := e.ObjectArray("MediaList"); len(refs) != 1 || refs[0].Name() != "123456" {
		t.Errorf("MediaList is %v", refs)
	}
	v, _ := e.Property("Settings")
	if s, ok := v.(*Struct); !ok || s.Type != "AkEventSettings" {
		t.Errorf("Settings is %T", v)
	} else if priority, _ := s.Get("Priority"); priority != int32(3) {
		t.Errorf("Settings.Priority is %v", priority)
	}
}

func TestTextHistories(t *testing.T) {
	fp := &fixture.Package{
		UE4:     522,
		Legacy:  -7,
		Imports: eventImports,
		Exports: []fixture.Export{{
			Class: -2,
			Name:  "Play_Footstep",
			Properties: func(w *fixture.PackageWriter) {
				w.Tag("Culture", "TextProperty", nil, func(w *fixture.PackageWriter) {
					w.Uint32(0)
					w.Uint8(0xff)
					w.Bool32(true)
					w.String("invariant")
				})
				w.Tag("Upper", "TextProperty", nil, func(w *fixture.PackageWriter) {
					w.Uint32(0)
					w.Uint8(10)
					w.BaseText("Wwise", "Footstep", "Footstep")
					w.Uint8(2)
				})
				w.Tag("FromTable", "TextProperty", nil, func(w *fixture.PackageWriter) {
					w.Uint32(0)
					w.Uint8(11)
					w.Name("/Game/Strings/Events")
					w.String("Footstep_Key")
				})
				w.Tag("Unsupported", "TextProperty", nil, func(w *fixture.PackageWriter) {
					w.Uint32(0)
					w.Uint8(3)
				})
				w.None()
			},
		}},
	}
	p := newPackage(t, fp, Options{})
	e := p.Exports()[0]
	if e.Err != nil {
		t.Fatalf("export failed: %v", e.Err)
	}
	expect := map[string]string{"Culture": "invariant", "Upper": "Footstep", "FromTable": "Footstep_Key"}
	for name, want := range expect {
		v, _ := e.Property(name)
		if txt, ok := v.(*Text); !ok || txt.String() != want {
			t.Errorf("%s: expected %q, got %#v", name, want, v)
		}
	}
	if v, _ := e.Property("FromTable"); v.(*Text).TableID != "/Game/Strings/Events" {
		t.Errorf("FromTable table is %q", v.(*Text).TableID)
	}
	if v, _ := e.Property("Unsupported"); len(v.(RawValue)) != 5 {
		t.Errorf("Unsupported is %v", v)
	}
}

func TestNotPackage(t *testing.T) {
	if _, err := New("x", []byte("not a package at all"), Options{}); errors.Cause(err) != ErrNotPackage {
		t.Errorf("expected ErrNotPackage, got %v", err)
	}

	fp := eventPackage()
	fp.Legacy = -3
	if _, err := New("x", fp.Bytes(), Options{}); errors.Cause(err) != ErrUnsupportedVersion {
		t.Errorf("expected ErrUnsupportedVersion, got %v", err)
	}

	data := eventPackage().Bytes()
	if _, err := New("x", data[:60], Options{}); err == nil {
		t.Error("expected an error for a truncated summary")
	}
}

func TestPackageIndex(t *testing.T) {
	if i := ExportIndex(0); !i.IsExport() || i.ToExport() != 0 || i != 1 {
		t.Errorf("ExportIndex(0) = %d", i)
	}
	if i := ImportIndex(2); !i.IsImport() || i.ToImport() != 2 || i != -3 {
		t.Errorf("ImportIndex(2) = %d", i)
	}
	if !PackageIndex(0).IsNull() {
		t.Error("zero is not null")
	}
}

func TestNameNumbers(t *testing.T) {
	w := ueio.NewWriter()
	w.Int32(1)
	w.Int32(3)
	r := ueio.NewReader(w.Bytes())
	n := names{"None", "AkAudioEventData"}
	if got := n.read(r); got != "AkAudioEventData_2" {
		t.Errorf("expected AkAudioEventData_2, got %q", got)
	}

	w = ueio.NewWriter()
	w.Int32(9)
	w.Int32(0)
	r = ueio.NewReader(w.Bytes())
	n.read(r)
	if errors.Cause(r.Err()) != ErrInvalidIndex {
		t.Errorf("expected ErrInvalidIndex, got %v", r.Err())
	}
}
