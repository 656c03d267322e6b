package usmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ErwinsExpertise/go-wwise-export/internal/fixture"
	"github.com/ossrs/go-oryx-lib/errors"
)

func sampleMappings(version uint8) *fixture.Usmap {
	return &fixture.Usmap{
		Version: version,
		Enums: []fixture.UsmapEnum{
			{Name: "EAkSoundLoad", Values: []string{"Streamed", "Prefetch", "Memory"}},
		},
		Structs: []fixture.UsmapStruct{
			{Name: "Object", Count: 0},
			{
				Name:  "AkAudioType",
				Super: "Object",
				Properties: []fixture.UsmapProperty{
					{Name: "ShortID", Index: 0, Type: fixture.UsmapType{Kind: fixture.KindUInt32}},
				},
			},
			{
				Name:  "AkAudioEventData",
				Super: "AkAudioType",
				Count: 4,
				Properties: []fixture.UsmapProperty{
					{Name: "MaxAttenuation", Index: 0, Type: fixture.UsmapType{Kind: fixture.KindFloat}},
					{Name: "Weights", Index: 1, ArraySize: 2, Type: fixture.UsmapType{Kind: fixture.KindInt}},
					{Name: "MediaList", Index: 3, Type: fixture.UsmapType{
						Kind:  fixture.KindArray,
						Inner: &fixture.UsmapType{Kind: fixture.KindObject},
					}},
				},
			},
			{
				Name: "LoadSettings",
				Properties: []fixture.UsmapProperty{
					{Name: "Mode", Index: 0, Type: fixture.UsmapType{
						Kind:  fixture.KindEnum,
						Enum:  "EAkSoundLoad",
						Inner: &fixture.UsmapType{Kind: fixture.KindByte},
					}},
					{Name: "ByName", Index: 1, Type: fixture.UsmapType{
						Kind:  fixture.KindMap,
						Inner: &fixture.UsmapType{Kind: fixture.KindName},
						Value: &fixture.UsmapType{Kind: fixture.KindStruct, Struct: "AkAudioType"},
					}},
				},
			},
		},
	}
}

func TestParseVersions(t *testing.T) {
	for _, version := range []uint8{VersionInitial, VersionLongFName, VersionLargeEnums, VersionExplicitEnumValues} {
		m, err := Parse(sampleMappings(version).Bytes())
		if err != nil {
			t.Fatalf("version %d: Parse failed: %v", version, err)
		}
		if m.Version != version {
			t.Errorf("expected version %d, got %d", version, m.Version)
		}
		e, ok := m.Enum("EAkSoundLoad")
		if !ok {
			t.Fatalf("version %d: enum missing", version)
		}
		if e.Values[2] != "Memory" {
			t.Errorf("version %d: enum value 2 = %q", version, e.Values[2])
		}
		if len(m.Structs) != 4 {
			t.Errorf("version %d: expected 4 structs, got %d", version, len(m.Structs))
		}
	}
}

func TestStructPropertyIndex(t *testing.T) {
	m, err := Parse(sampleMappings(VersionLatest).Bytes())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	s, ok := m.Struct("AkAudioEventData")
	if !ok {
		t.Fatal("struct missing")
	}
	if got := s.TotalCount(); got != 5 {
		t.Errorf("TotalCount = %d, expected 5", got)
	}

	tests := []struct {
		index   int
		name    string
		element int
	}{
		{0, "ShortID", 0},
		{1, "MaxAttenuation", 0},
		{2, "Weights", 0},
		{3, "Weights", 1},
		{4, "MediaList", 0},
	}
	for _, tt := range tests {
		p, element, ok := s.Property(tt.index)
		if !ok {
			t.Errorf("index %d not resolved", tt.index)
			continue
		}
		if p.Name != tt.name || element != tt.element {
			t.Errorf("index %d = %s[%d], expected %s[%d]", tt.index, p.Name, element, tt.name, tt.element)
		}
	}
	if _, _, ok := s.Property(5); ok {
		t.Error("index past the schema should not resolve")
	}

	media, _, _ := s.Property(4)
	if media.Type.Kind != ArrayProperty || media.Type.Inner.Kind != ObjectProperty {
		t.Errorf("unexpected MediaList type %v of %v", media.Type.Kind, media.Type.Inner)
	}
}

func TestNestedTypes(t *testing.T) {
	m, err := Parse(sampleMappings(VersionLatest).Bytes())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	s, _ := m.Struct("LoadSettings")
	mode, _, _ := s.Property(0)
	if mode.Type.Kind != EnumProperty || mode.Type.EnumName != "EAkSoundLoad" || mode.Type.Inner.Kind != ByteProperty {
		t.Errorf("unexpected enum type %+v", mode.Type)
	}
	byName, _, _ := s.Property(1)
	if byName.Type.Kind != MapProperty || byName.Type.Inner.Kind != NameProperty || byName.Type.Value.StructName != "AkAudioType" {
		t.Errorf("unexpected map type %+v", byName.Type)
	}
	if MapProperty.String() != "MapProperty" || PropertyKind(200).String() != "UnknownProperty" {
		t.Error("unexpected kind names")
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse([]byte{1, 2, 3}); errors.Cause(err) != ErrNotMappings {
		t.Errorf("expected ErrNotMappings, got %v", err)
	}

	future := sampleMappings(VersionLatest).Bytes()
	future[2] = VersionLatest + 1
	if _, err := Parse(future); errors.Cause(err) != ErrUnsupportedVersion {
		t.Errorf("expected ErrUnsupportedVersion, got %v", err)
	}

	compressed := sampleMappings(VersionLatest)
	compressed.Compression = CompressionOodle
	if _, err := Parse(compressed.Bytes()); errors.Cause(err) != ErrUnsupportedCompression {
		t.Errorf("expected ErrUnsupportedCompression, got %v", err)
	}

	truncated := sampleMappings(VersionLatest).Bytes()
	if _, err := Parse(truncated[:len(truncated)-3]); err == nil {
		t.Error("expected an error for a truncated file")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Mappings.usmap")
	if err := os.WriteFile(path, sampleMappings(VersionLatest).Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err != nil {
		t.Errorf("Load failed: %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.usmap")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestCyclicSuper(t *testing.T) {
	for name, structs := range map[string][]fixture.UsmapStruct{
		"Self": {{Name: "A", Super: "A", Properties: []fixture.UsmapProperty{{Name: "X", Type: fixture.UsmapType{Kind: fixture.KindInt}}}}},
		"Loop": {
			{Name: "A", Super: "B", Properties: []fixture.UsmapProperty{{Name: "X", Type: fixture.UsmapType{Kind: fixture.KindInt}}}},
			{Name: "B", Super: "A", Properties: []fixture.UsmapProperty{{Name: "Y", Type: fixture.UsmapType{Kind: fixture.KindInt}}}},
		},
	} {
		if _, err := Parse((&fixture.Usmap{Version: VersionLatest, Structs: structs}).Bytes()); errors.Cause(err) != ErrCyclicSuper {
			t.Errorf("%s: expected ErrCyclicSuper, got %v", name, err)
		}
	}

	// Schemas built by hand skip the check in Parse.
	m := &Mappings{Structs: map[string]*Struct{}}
	a := &Struct{Name: "A", SuperName: "A", PropertyCount: 1, Properties: []Property{{Name: "X"}}, mappings: m}
	m.Structs["A"] = a
	if _, _, ok := a.Property(0); ok {
		t.Error("expected no property on a cyclic struct")
	}
	if n := a.TotalCount(); n != 1 {
		t.Errorf("expected TotalCount 1, got %d", n)
	}
}
