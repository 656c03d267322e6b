package uasset

import (
	"encoding/json"

	"github.com/ErwinsExpertise/go-wwise-export/ueio"
	"github.com/ossrs/go-oryx-lib/errors"
)

// Text history types.
const (
	TextHistoryNone             int8 = -1
	TextHistoryBase             int8 = 0
	TextHistoryTransform        int8 = 10
	TextHistoryStringTableEntry int8 = 11
)

// Text is a localizable string. Localized holds the entry of the loaded
// localization table, when there is one.
type Text struct {
	Flags        uint32
	HistoryType  int8
	Namespace    string
	Key          string
	SourceString string
	Localized    string
	TableID      string
}

// String returns the localized string, falling back to the source.
func (t *Text) String() string {
	if t == nil {
		return ""
	}
	if t.Localized != "" {
		return t.Localized
	}
	return t.SourceString
}

func (t *Text) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (p *Package) readText(r *ueio.Reader) (*Text, error) {
	t := &Text{Flags: r.Uint32(), HistoryType: r.Int8()}
	switch t.HistoryType {
	case TextHistoryNone:
		if r.Bool32() {
			t.SourceString = r.String()
		}
	case TextHistoryBase:
		t.Namespace = r.String()
		t.Key = r.String()
		t.SourceString = r.String()
		if s, ok := p.opts.Localization.Lookup(t.Namespace, t.Key); ok {
			t.Localized = s
		}
	case TextHistoryTransform:
		source, err := p.readText(r)
		if err != nil {
			return nil, err
		}
		r.Uint8() // transform type
		t.Namespace, t.Key = source.Namespace, source.Key
		t.SourceString, t.Localized = source.SourceString, source.Localized
	case TextHistoryStringTableEntry:
		t.TableID = p.names.read(r)
		t.Key = r.String()
		t.SourceString = t.Key
	default:
		return nil, errors.Errorf("unsupported text history type %v", t.HistoryType)
	}
	return t, r.Err()
}
