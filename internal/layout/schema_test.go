package layout

import (
	"bytes"
	"math"
	"strings"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	min := 1.5
	doc := &Document{
		Version: Version,
		Compare: CompareState{Mode: "concatenate", Gap: 5},
		Tests: []TestState{{
			Name:      "baseline",
			TimeMode:  "relative",
			Strategy:  "time-nearest",
			Tolerance: 0.2,
			Channels: []ChannelRef{
				{ID: "ch1", RawHeader: "Time [s]"},
				{ID: "ch2", RawHeader: "Temperature [C]"},
			},
			Files: []FileState{{
				Path:      "/data/run_a.csv",
				Delimiter: ",",
				Encoding:  "utf-8",
				TimeScale: 1,
				Bindings:  map[string]string{"c1": "ch1", "c2": "ch2"},
			}},
			Filters: []FilterState{{Kind: "time-range", Min: &min}},
		}},
	}

	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if got.Version != Version || len(got.Tests) != 1 {
		t.Fatalf("decoded = %+v", got)
	}
	test := got.Tests[0]
	if test.Name != "baseline" || test.Strategy != "time-nearest" {
		t.Errorf("test = %+v", test)
	}
	if test.Files[0].Bindings["c2"] != "ch2" {
		t.Errorf("bindings = %v", test.Files[0].Bindings)
	}

	lo, hi := test.Filters[0].Bound()
	if lo != 1.5 || !math.IsInf(hi, 1) {
		t.Errorf("bounds = [%v, %v]", lo, hi)
	}
}

func TestDecodeMigratesV10(t *testing.T) {
	raw := `{
		"version": "1.0",
		"tests": [{
			"name": "old",
			"timeMode": "absolute",
			"strategy": "time-exact",
			"channels": [{"id": "ch1", "rawHeader": "Time [s]"}],
			"files": [{"path": "/data/old.csv"}]
		}]
	}`
	doc, err := Decode(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if doc.Version != Version {
		t.Errorf("version = %q, want %q", doc.Version, Version)
	}
	if doc.Compare.Mode != "overlay" {
		t.Errorf("compare mode = %q", doc.Compare.Mode)
	}
	if len(doc.Tests[0].Files[0].Bindings) != 0 {
		t.Errorf("migrated bindings = %v", doc.Tests[0].Files[0].Bindings)
	}
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	if _, err := Decode(strings.NewReader(`{"version": "9.9"}`)); err == nil {
		t.Error("unknown version accepted")
	}
}
