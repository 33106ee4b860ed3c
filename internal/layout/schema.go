package layout

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
)

// Version is the current layout schema version. Version "1.0" documents
// (written before per-file mapping history existed) are migrated forward on
// load.
const Version = "1.1"

// Document is the persisted form of a workspace: every test with its file
// references, join configuration, mapping history and filters, plus the
// cross-test comparison settings.
type Document struct {
	Version string       `json:"version"`
	Compare CompareState `json:"compare"`
	Tests   []TestState  `json:"tests"`
}

// CompareState records the cross-test comparison mode and gap.
type CompareState struct {
	Mode string  `json:"mode"`
	Gap  float64 `json:"gap,omitempty"`
}

// TestState is one test's persisted configuration.
type TestState struct {
	Name      string        `json:"name"`
	TimeMode  string        `json:"timeMode"`
	Strategy  string        `json:"strategy"`
	KeyID     string        `json:"keyId,omitempty"`
	Tolerance float64       `json:"tolerance,omitempty"`
	Gap       float64       `json:"gap,omitempty"`
	Channels  []ChannelRef  `json:"channels"`
	Files     []FileState   `json:"files"`
	Filters   []FilterState `json:"filters,omitempty"`
}

// ChannelRef pins one canonical channel: the stable id plus the raw header
// it was parsed from. The descriptor is re-derived from the raw header on
// load.
type ChannelRef struct {
	ID        string `json:"id"`
	RawHeader string `json:"rawHeader"`
}

// FileState references one imported file and its per-file settings. Bindings
// is the mapping history: file-local channel id to canonical channel id.
// Documents at version "1.0" carry no bindings; the loader re-diffs those
// files instead.
type FileState struct {
	Path       string            `json:"path"`
	Delimiter  string            `json:"delimiter,omitempty"`
	Encoding   string            `json:"encoding,omitempty"`
	TimeOffset float64           `json:"timeOffset,omitempty"`
	TimeScale  float64           `json:"timeScale,omitempty"`
	Bindings   map[string]string `json:"bindings,omitempty"`
}

// FilterState is one persisted filter predicate. Infinite bounds are
// serialized as absent fields.
type FilterState struct {
	ChannelID string   `json:"channelId,omitempty"`
	Kind      string   `json:"kind"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
}

// Bound converts an optional serialized bound into the open-range default.
func (f FilterState) Bound() (min, max float64) {
	min, max = math.Inf(-1), math.Inf(1)
	if f.Min != nil {
		min = *f.Min
	}
	if f.Max != nil {
		max = *f.Max
	}
	return min, max
}

// Encode writes a document as indented JSON.
func Encode(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Decode reads a document and migrates older schema versions forward.
// Unknown versions are rejected.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode layout: %w", err)
	}
	switch doc.Version {
	case Version:
	case "1.0":
		migrateV10(&doc)
	default:
		return nil, fmt.Errorf("unsupported layout version %q", doc.Version)
	}
	return &doc, nil
}

// migrateV10 lifts a version "1.0" document to the current schema. The old
// schema predates mapping history, so bindings stay empty and files are
// re-diffed when the document is applied.
func migrateV10(doc *Document) {
	doc.Version = Version
	if doc.Compare.Mode == "" {
		doc.Compare.Mode = "overlay"
	}
}
