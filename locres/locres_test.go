package locres

import (
	"testing"

	"github.com/ErwinsExpertise/go-wwise-export/internal/fixture"
	"github.com/ossrs/go-oryx-lib/errors"
)

var sample = map[string]map[string]string{
	"Subtitles": {
		"Prologue_01": "Where is everyone?",
		"Prologue_02": "Où est tout le monde ?",
	},
	"": {"Menu": "Continue"},
}

func TestParseVersions(t *testing.T) {
	for version := VersionLegacy; version <= VersionLatest; version++ {
		table, err := Parse((&fixture.Locres{Version: version, Entries: sample}).Bytes())
		if err != nil {
			t.Fatalf("version %d: Parse failed: %v", version, err)
		}
		if table.Len() != 3 {
			t.Errorf("version %d: expected 3 entries, got %d", version, table.Len())
		}
		if s, ok := table.Lookup("Subtitles", "Prologue_02"); !ok || s != "Où est tout le monde ?" {
			t.Errorf("version %d: Lookup returned %q, %v", version, s, ok)
		}
		if s, _ := table.Lookup("", "Menu"); s != "Continue" {
			t.Errorf("version %d: empty namespace returned %q", version, s)
		}
		if _, ok := table.Lookup("Subtitles", "Missing"); ok {
			t.Errorf("version %d: unexpected entry", version)
		}
	}
}

func TestOptimizedStringArray(t *testing.T) {
	entries := map[string]map[string]string{
		"Menu": {"A_Hello": "Bonjour", "B_Hi": "Salut", "C_Bye": "Au revoir"},
	}
	table, err := Parse((&fixture.Locres{Version: VersionOptimizedCRC32, Entries: entries}).Bytes())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	for key, want := range entries["Menu"] {
		if s, ok := table.Lookup("Menu", key); !ok || s != want {
			t.Errorf("%s: expected %q, got %q (%v)", key, want, s, ok)
		}
	}
}

func TestNoStringArray(t *testing.T) {
	for _, version := range []uint8{VersionCompact, VersionOptimizedCRC32, VersionOptimizedCityHash64UTF16} {
		data := (&fixture.Locres{Version: version, NoStringArray: true}).Bytes()
		table, err := Parse(data)
		if err != nil {
			t.Errorf("version %d: Parse failed: %v", version, err)
			continue
		}
		if table.Len() != 0 {
			t.Errorf("version %d: expected an empty table, got %d", version, table.Len())
		}
	}
}

func TestMerge(t *testing.T) {
	table := NewTable()
	if err := table.Add((&fixture.Locres{Version: VersionLatest, Entries: sample}).Bytes()); err != nil {
		t.Fatal(err)
	}
	patch := map[string]map[string]string{"Subtitles": {"Prologue_01": "Hello?", "Prologue_03": "Run."}}
	if err := table.Add((&fixture.Locres{Version: VersionCompact, Entries: patch}).Bytes()); err != nil {
		t.Fatal(err)
	}
	if table.Len() != 4 {
		t.Errorf("expected 4 entries, got %d", table.Len())
	}
	if s, _ := table.Lookup("Subtitles", "Prologue_01"); s != "Hello?" {
		t.Errorf("later file should win, got %q", s)
	}

	before := table.Len()
	if err := table.Add([]byte{1, 0, 0, 0, 5}); err == nil {
		t.Error("expected an error for a truncated file")
	}
	if table.Len() != before {
		t.Error("a failed file should not change the table")
	}
}

func TestNilTable(t *testing.T) {
	var table *Table
	if _, ok := table.Lookup("a", "b"); ok || table.Len() != 0 {
		t.Error("nil table should be empty")
	}
}

func TestUnsupportedVersion(t *testing.T) {
	data := (&fixture.Locres{Version: VersionLatest, Entries: sample}).Bytes()
	data[16] = VersionLatest + 1
	if _, err := Parse(data); errors.Cause(err) != ErrUnsupportedVersion {
		t.Errorf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestParseLanguage(t *testing.T) {
	tests := map[string]Language{
		"en":      English,
		"EN":      English,
		"pt_BR":   PortugueseBrazil,
		"zh-hans": Chinese,
		"ja":      Japanese,
	}
	for in, want := range tests {
		got, err := ParseLanguage(in)
		if err != nil || got != want {
			t.Errorf("ParseLanguage(%q) = %v, %v; expected %v", in, got, err, want)
		}
	}
	if _, err := ParseLanguage("klingon"); err == nil {
		t.Error("expected an error for an unknown language")
	}
	if French.Culture() != "fr" || Language(99).Culture() != "en" {
		t.Error("unexpected culture codes")
	}
}
