package uasset

import (
	"testing"

	"github.com/ErwinsExpertise/go-wwise-export/internal/fixture"
	"github.com/ErwinsExpertise/go-wwise-export/usmap"
	"github.com/ossrs/go-oryx-lib/errors"
)

func eventMappings(t *testing.T) *usmap.Mappings {
	t.Helper()
	m, err := usmap.Parse((&fixture.Usmap{
		Version: 4,
		Enums: []fixture.UsmapEnum{
			{Name: "EAkSoundLoad", Values: []string{"Streamed", "Prefetch", "Memory"}},
		},
		Structs: []fixture.UsmapStruct{
			{Name: "AkAudioType", Properties: []fixture.UsmapProperty{
				{Name: "ShortID", Index: 0, Type: fixture.UsmapType{Kind: fixture.KindUInt32}},
			}},
			{Name: "AkAudioEventData", Super: "AkAudioType", Count: 7, Properties: []fixture.UsmapProperty{
				{Name: "MaxAttenuation", Index: 0, Type: fixture.UsmapType{Kind: fixture.KindFloat}},
				{Name: "Weights", Index: 1, ArraySize: 2, Type: fixture.UsmapType{Kind: fixture.KindInt}},
				{Name: "MediaList", Index: 3, Type: fixture.UsmapType{Kind: fixture.KindArray, Inner: &fixture.UsmapType{Kind: fixture.KindObject}}},
				{Name: "Mode", Index: 4, Type: fixture.UsmapType{Kind: fixture.KindEnum, Enum: "EAkSoundLoad", Inner: &fixture.UsmapType{Kind: fixture.KindByte}}},
				{Name: "Settings", Index: 5, Type: fixture.UsmapType{Kind: fixture.KindStruct, Struct: "LoadSettings"}},
				{Name: "Label", Index: 6, Type: fixture.UsmapType{Kind: fixture.KindStr}},
			}},
			{Name: "LoadSettings", Properties: []fixture.UsmapProperty{
				{Name: "Streamed", Index: 0, Type: fixture.UsmapType{Kind: fixture.KindBool}},
				{Name: "Volume", Index: 1, Type: fixture.UsmapType{Kind: fixture.KindFloat}},
			}},
		},
	}).Bytes())
	if err != nil {
		t.Fatalf("mappings: %v", err)
	}
	return m
}

// unversionedEvent serializes AkAudioEventData without ShortID and with
// Weights[0] elided by the zero mask.
func unversionedEvent() *fixture.Package {
	return &fixture.Package{
		UE4:                   522,
		UE5:                   1009,
		Unversioned:           true,
		UnversionedProperties: true,
		Imports:               eventImports,
		Exports: []fixture.Export{{
			Class: -3,
			Name:  "AkAudioEventData_0",
			Properties: func(w *fixture.PackageWriter) {
				w.Fragment(1, 3, true, false)
				w.Fragment(0, 4, false, true)
				w.Uint8(0x02)
				w.Float32(2.5)
				w.Int32(9)
				w.Int32(1)
				w.Int32(-5)
				w.Uint8(2)
				w.Fragment(0, 2, false, true)
				w.Uint8(1)
				w.Float32(0.5)
				w.String("footsteps")
			},
		}},
	}
}

func TestUnversionedProperties(t *testing.T) {
	p := newPackage(t, unversionedEvent(), Options{Game: GameUE5_3, Mappings: eventMappings(t)})
	e := p.Exports()[0]
	if e.Err != nil {
		t.Fatalf("export failed: %v", e.Err)
	}

	if _, ok := e.Property("ShortID"); ok {
		t.Error("skipped property present")
	}
	expect := map[string]interface{}{
		"MaxAttenuation": float32(2.5),
		"Weights":        int32(0),
		"Weights[1]":     int32(9),
		"Mode":           "EAkSoundLoad::Memory",
		"Label":          "footsteps",
	}
	for name, want := range expect {
		if got, ok := e.Property(name); !ok || got != want {
			t.Errorf("%s: expected %v, got %v (%v)", name, want, got, ok)
		}
	}
	if refs := e.ObjectArray("MediaList"); len(refs) != 1 || refs[0].Name() != "123456" {
		t.Errorf("MediaList is %v", refs)
	}

	v, _ := e.Property("Settings")
	s, ok := v.(*Struct)
	if !ok {
		t.Fatalf("Settings is %T", v)
	}
	if streamed, _ := s.Get("Streamed"); streamed != true {
		t.Errorf("Settings.Streamed is %v", streamed)
	}
	if volume, _ := s.Get("Volume"); volume != float32(0.5) {
		t.Errorf("Settings.Volume is %v", volume)
	}

	want := []string{"MaxAttenuation", "Weights", "Weights[1]", "MediaList", "Mode", "Settings", "Label"}
	if len(e.Properties.Order) != len(want) {
		t.Fatalf("expected order %v, got %v", want, e.Properties.Order)
	}
	for i, name := range want {
		if e.Properties.Order[i] != name {
			t.Errorf("order[%d]: expected %s, got %s", i, name, e.Properties.Order[i])
		}
	}
}

func TestUnversionedNeedsMappings(t *testing.T) {
	p := newPackage(t, unversionedEvent(), Options{Game: GameUE5_3})
	if err := p.Exports()[0].Err; errors.Cause(err) != ErrNeedMappings {
		t.Errorf("expected ErrNeedMappings, got %v", err)
	}

	m, err := usmap.Parse((&fixture.Usmap{Version: 4}).Bytes())
	if err != nil {
		t.Fatalf("mappings: %v", err)
	}
	p = newPackage(t, unversionedEvent(), Options{Game: GameUE5_3, Mappings: m})
	if err := p.Exports()[0].Err; errors.Cause(err) != ErrUnknownStruct {
		t.Errorf("expected ErrUnknownStruct, got %v", err)
	}
}

func TestUnversionedUnknownIndex(t *testing.T) {
	fp := unversionedEvent()
	fp.Exports[0].Properties = func(w *fixture.PackageWriter) {
		w.Fragment(20, 1, false, true)
		w.Int32(0)
	}
	p := newPackage(t, fp, Options{Game: GameUE5_3, Mappings: eventMappings(t)})
	if err := p.Exports()[0].Err; errors.Cause(err) != ErrUnknownProperty {
		t.Errorf("expected ErrUnknownProperty, got %v", err)
	}
}

func TestZeroMaskElidesAll(t *testing.T) {
	fp := unversionedEvent()
	// Eight zeroed values fit a one byte mask.
	fp.Exports[0].Properties = func(w *fixture.PackageWriter) {
		w.Fragment(0, 8, true, true)
		w.Uint8(0xff)
	}
	p := newPackage(t, fp, Options{Game: GameUE5_3, Mappings: eventMappings(t)})
	e := p.Exports()[0]
	if e.Err != nil {
		t.Fatalf("export failed: %v", e.Err)
	}
	if v, _ := e.Property("ShortID"); v != uint32(0) {
		t.Errorf("ShortID is %v", v)
	}
	if v, _ := e.Property("Label"); v != "" {
		t.Errorf("Label is %v", v)
	}
	if v, _ := e.Property("Settings"); v.(*Struct).Type != "LoadSettings" {
		t.Errorf("Settings is %v", v)
	}
}
