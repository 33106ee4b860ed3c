package layout

import (
	"context"
	"fmt"
	"math"
	"os"

	"logmerge/internal/application"
	"logmerge/internal/domain"
)

// MissingFile is a referenced file that could not be found while applying a
// document. The load continues; callers remap the path and retry with the
// Remap table instead of failing the whole layout.
type MissingFile struct {
	TestName string
	Path     string
}

// Snapshot captures the current workspace state as a document.
func Snapshot(w *application.Workspace, compareMode domain.CompareMode, gap float64) (*Document, error) {
	doc := &Document{
		Version: Version,
		Compare: CompareState{Mode: compareMode.String(), Gap: gap},
	}
	for _, info := range w.Tests() {
		t, err := w.Test(info.ID)
		if err != nil {
			return nil, err
		}
		state := TestState{
			Name:      t.Name,
			TimeMode:  t.TimeMode.String(),
			Strategy:  t.Strategy.String(),
			KeyID:     t.KeyID,
			Tolerance: t.Tolerance,
			Gap:       t.Gap,
		}
		for _, ch := range t.Channels {
			state.Channels = append(state.Channels, ChannelRef{ID: ch.ID, RawHeader: ch.RawHeader})
		}
		for _, f := range t.Files {
			state.Files = append(state.Files, FileState{
				Path:       f.Path,
				Delimiter:  string(f.Delimiter),
				Encoding:   f.Encoding,
				TimeOffset: f.TimeOffset,
				TimeScale:  f.TimeScale,
				Bindings:   f.Bindings,
			})
		}
		for _, spec := range w.Filters().Specs(info.ID) {
			fs := FilterState{ChannelID: spec.ChannelID, Kind: spec.Kind.String()}
			if !math.IsInf(spec.Min, -1) {
				min := spec.Min
				fs.Min = &min
			}
			if !math.IsInf(spec.Max, 1) {
				max := spec.Max
				fs.Max = &max
			}
			state.Filters = append(state.Filters, fs)
		}
		doc.Tests = append(doc.Tests, state)
	}
	return doc, nil
}

// Apply loads a document into the workspace. Files whose path no longer
// exists (after consulting remap, old path to new path) are reported as
// MissingFile entries; everything else is restored. Version "1.0" files
// without mapping history are re-diffed with renames accepted.
func Apply(ctx context.Context, w *application.Workspace, doc *Document, remap map[string]string) ([]MissingFile, error) {
	var missing []MissingFile
	for _, state := range doc.Tests {
		mode, err := domain.ParseTimeMode(state.TimeMode)
		if err != nil {
			return missing, fmt.Errorf("test %q: %w", state.Name, err)
		}
		strategy, err := domain.ParseJoinStrategy(state.Strategy)
		if err != nil {
			return missing, fmt.Errorf("test %q: %w", state.Name, err)
		}

		channels := make([]domain.ChannelDescriptor, 0, len(state.Channels))
		for _, ref := range state.Channels {
			desc := domain.ParseHeader(ref.RawHeader)
			desc.ID = ref.ID
			channels = append(channels, desc)
		}

		testID, err := w.RestoreTest(state.Name, mode, strategy, state.KeyID, state.Tolerance, state.Gap, channels)
		if err != nil {
			return missing, fmt.Errorf("test %q: %w", state.Name, err)
		}

		for _, fs := range state.Files {
			path := fs.Path
			if mapped, ok := remap[path]; ok {
				path = mapped
			}
			if _, err := os.Stat(path); err != nil {
				missing = append(missing, MissingFile{TestName: state.Name, Path: fs.Path})
				continue
			}
			file, err := w.ParseFile(ctx, path)
			if err != nil {
				return missing, fmt.Errorf("test %q: %s: %w", state.Name, path, err)
			}
			file.TimeOffset = fs.TimeOffset
			if fs.TimeScale != 0 {
				file.TimeScale = fs.TimeScale
			}
			if len(fs.Bindings) > 0 {
				err = w.AttachRestored(testID, file, fs.Bindings)
			} else {
				err = w.AttachParsed(testID, file, application.AcceptRenames)
			}
			if err != nil {
				return missing, fmt.Errorf("test %q: %s: %w", state.Name, path, err)
			}
		}

		for _, fs := range state.Filters {
			kind, err := domain.ParseFilterKind(fs.Kind)
			if err != nil {
				return missing, fmt.Errorf("test %q: %w", state.Name, err)
			}
			min, max := fs.Bound()
			if _, err := w.SetFilter(testID, domain.FilterSpec{
				ChannelID: fs.ChannelID, Kind: kind, Min: min, Max: max,
			}); err != nil {
				return missing, err
			}
		}
	}
	return missing, nil
}
