package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"logmerge/internal/domain"
	"logmerge/internal/ports"
)

// testEntry pairs a test with its derived merge state. The merged table is a
// cache keyed by the generation counter: any mutation bumps the generation,
// and a table built against an older generation is stale.
type testEntry struct {
	test       *domain.Test
	generation uint64

	merged       *domain.MergedTable
	mergedGen    uint64
	emptyOverlap bool

	// appendedSince counts files attached since the cached table was
	// built. -1 means some other mutation happened and the incremental
	// append fast path no longer applies.
	appendedSince int
}

func (e *testEntry) invalidate() {
	e.generation++
	e.appendedSince = -1
}

// Workspace is the single writer over all tests and their derived state.
// Long-running work (file parsing, merge rebuilds) happens on worker
// goroutines against immutable snapshots; results are committed back under
// the workspace lock with a stale-generation check.
type Workspace struct {
	mu    sync.Mutex
	tests map[string]*testEntry
	order []string

	readers  []ports.FileReader
	index    ports.ImportIndex
	filters  *FilterManager
	diffCfg  domain.DiffConfig
	parallel int
	log      *slog.Logger

	cacheStats domain.CacheStats
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithLogger sets the workspace logger.
func WithLogger(log *slog.Logger) Option {
	return func(w *Workspace) { w.log = log }
}

// WithImportIndex attaches a header cache consulted on import.
func WithImportIndex(index ports.ImportIndex) Option {
	return func(w *Workspace) { w.index = index }
}

// WithDiffConfig overrides the default header-matching parameters.
func WithDiffConfig(cfg domain.DiffConfig) Option {
	return func(w *Workspace) { w.diffCfg = cfg }
}

// WithParallelism caps the number of concurrent parse workers.
func WithParallelism(n int) Option {
	return func(w *Workspace) {
		if n > 0 {
			w.parallel = n
		}
	}
}

// NewWorkspace creates a workspace reading files through the given readers,
// tried in order.
func NewWorkspace(readers []ports.FileReader, opts ...Option) *Workspace {
	w := &Workspace{
		tests:    make(map[string]*testEntry),
		readers:  readers,
		filters:  NewFilterManager(),
		diffCfg:  domain.DefaultDiffConfig(),
		parallel: runtime.NumCPU(),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Filters exposes the workspace's filter manager for subscriptions.
func (w *Workspace) Filters() *FilterManager {
	return w.filters
}

// CacheStats reports import-cache hit counters for this workspace.
func (w *Workspace) CacheStats() domain.CacheStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cacheStats
}

// TestInfo is a read-only summary of one test.
type TestInfo struct {
	ID       string
	Name     string
	Files    int
	Channels int
	Rows     int
}

// CreateTest registers a new empty test and returns its id.
func (w *Workspace) CreateTest(name string) (string, error) {
	if err := ValidateRequired("name", name); err != nil {
		return "", err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	id := uuid.NewString()
	w.tests[id] = &testEntry{
		test: &domain.Test{ID: id, Name: name, Tolerance: domain.DefaultTolerance},
	}
	w.order = append(w.order, id)
	return id, nil
}

// DeleteTest removes a test and all its files and derived state.
func (w *Workspace) DeleteTest(testID string) error {
	w.mu.Lock()
	if _, ok := w.tests[testID]; !ok {
		w.mu.Unlock()
		return fmt.Errorf("test %s: %w", testID, ErrNotFound)
	}
	delete(w.tests, testID)
	for i, id := range w.order {
		if id == testID {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	w.mu.Unlock()

	w.filters.DropTest(testID)
	return nil
}

// Tests lists all tests in creation order.
func (w *Workspace) Tests() []TestInfo {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]TestInfo, 0, len(w.order))
	for _, id := range w.order {
		e := w.tests[id]
		info := TestInfo{
			ID:       id,
			Name:     e.test.Name,
			Files:    len(e.test.Files),
			Channels: len(e.test.Channels),
		}
		if e.merged != nil && e.mergedGen == e.generation {
			info.Rows = e.merged.RowCount()
		}
		out = append(out, info)
	}
	return out
}

// Test returns a read-only snapshot of one test.
func (w *Workspace) Test(testID string) (*domain.Test, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.tests[testID]
	if !ok {
		return nil, fmt.Errorf("test %s: %w", testID, ErrNotFound)
	}
	return e.test.Clone(), nil
}

// Channels returns a test's canonical channel descriptors.
func (w *Workspace) Channels(testID string) ([]domain.ChannelDescriptor, error) {
	t, err := w.Test(testID)
	if err != nil {
		return nil, err
	}
	return t.Channels, nil
}

// Channel resolves one canonical channel descriptor.
func (w *Workspace) Channel(testID, channelID string) (domain.ChannelDescriptor, error) {
	t, err := w.Test(testID)
	if err != nil {
		return domain.ChannelDescriptor{}, err
	}
	ch, ok := t.Channel(channelID)
	if !ok {
		return domain.ChannelDescriptor{}, fmt.Errorf("channel %s: %w", channelID, ErrNotFound)
	}
	return ch, nil
}

// Generation returns a test's current generation counter.
func (w *Workspace) Generation(testID string) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.tests[testID]
	if !ok {
		return 0, fmt.Errorf("test %s: %w", testID, ErrNotFound)
	}
	return e.generation, nil
}

// Resolver decides the pending rename proposals of a header diff before the
// file is attached. AcceptRenames and RejectRenames are canned policies; an
// interactive adapter supplies its own.
type Resolver func(file *domain.DataFile, diff *domain.HeaderDiff) error

// AcceptRenames accepts every rename proposal.
func AcceptRenames(_ *domain.DataFile, diff *domain.HeaderDiff) error {
	for _, p := range diff.Proposals() {
		diff.Accept(p.SourceID)
	}
	return nil
}

// RejectRenames treats every rename proposal as a new channel.
func RejectRenames(_ *domain.DataFile, diff *domain.HeaderDiff) error {
	for _, p := range diff.Proposals() {
		diff.Reject(p.SourceID)
	}
	return nil
}

// ImportReport is the per-file outcome of an import batch. A failed file
// never aborts the batch; its Err is set and the other files proceed.
type ImportReport struct {
	Path     string
	FileID   string
	Channels int
	Rows     int
	CacheHit bool
	Err      error
}

// ImportFiles parses the given paths concurrently and attaches each
// successfully parsed file to the test. Rename proposals from the header
// diff are passed to resolve; with a nil resolver any pending proposal makes
// the file fail with ErrUnresolvedMapping, it is never silently accepted.
func (w *Workspace) ImportFiles(ctx context.Context, testID string, paths []string, resolve Resolver) ([]ImportReport, error) {
	if err := ValidateRequired("testID", testID); err != nil {
		return nil, err
	}
	if _, err := w.Generation(testID); err != nil {
		return nil, err
	}

	results := w.parseAll(ctx, paths)
	reports := make([]ImportReport, len(results))
	for i := range results {
		r := &results[i]
		if r.Err == nil {
			if err := w.attach(testID, r.file, resolve); err != nil {
				r.Err = err
			} else {
				r.FileID = r.file.ID
			}
		}
		if r.Err != nil {
			w.log.Warn("import failed", "path", r.Path, "error", r.Err)
		} else {
			w.log.Info("file imported",
				"test", testID, "path", r.Path,
				"channels", r.Channels, "rows", r.Rows, "cache_hit", r.CacheHit)
		}
		reports[i] = r.ImportReport
	}
	return reports, nil
}

// parseAll runs the readers over all paths with bounded parallelism. Workers
// touch no committed test state.
func (w *Workspace) parseAll(ctx context.Context, paths []string) []parseResult {
	results := make([]parseResult, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.parallel)
	for i, path := range paths {
		g.Go(func() error {
			results[i] = w.parseOne(ctx, path)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

type parseResult struct {
	ImportReport
	file *domain.DataFile
}

func (w *Workspace) parseOne(ctx context.Context, path string) parseResult {
	r := parseResult{ImportReport: ImportReport{Path: path}}

	var reader ports.FileReader
	for _, cand := range w.readers {
		if cand.CanRead(path) {
			reader = cand
			break
		}
	}
	if reader == nil {
		r.Err = fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
		return r
	}

	cached, stat := w.cacheLookup(path)

	var file *domain.DataFile
	if cached != nil {
		if cr, ok := reader.(ports.CachedHeaderReader); ok {
			f, err := cr.ReadCached(ctx, path, cached)
			if err != nil {
				w.log.Warn("cached read failed, reparsing", "path", path, "error", err)
				cached = nil
			} else {
				file = f
				r.CacheHit = true
			}
		}
	}

	if file == nil {
		f, err := reader.Read(ctx, path)
		if err != nil {
			r.Err = err
			return r
		}
		file = f

		// Readers without the fast path still reparse the header; the
		// cached descriptors win so channel identity stays stable.
		if cached != nil && len(cached.Channels) == len(file.Channels) {
			file.Channels = append([]domain.ChannelDescriptor(nil), cached.Channels...)
			file.TimeColumnID = cached.TimeColumnID
			r.CacheHit = true
		} else if stat != nil {
			w.cacheStore(path, stat, file)
		}
	}
	file.ID = uuid.NewString()

	r.file = file
	r.Channels = len(file.Channels)
	r.Rows = file.RowCount()
	return r
}

// cacheLookup consults the import index. A nil index, stat failure or stale
// entry all degrade to a plain parse.
func (w *Workspace) cacheLookup(path string) (*domain.CacheEntry, os.FileInfo) {
	if w.index == nil {
		return nil, nil
	}
	stat, err := os.Stat(path)
	if err != nil {
		return nil, nil
	}
	entry, err := w.index.Lookup(path, stat.ModTime().Unix(), stat.Size())
	if err != nil {
		w.log.Warn("import cache lookup failed", "path", path, "error", err)
		return nil, stat
	}
	w.mu.Lock()
	if entry != nil {
		w.cacheStats.Hits++
	} else {
		w.cacheStats.Misses++
	}
	w.mu.Unlock()
	return entry, stat
}

func (w *Workspace) cacheStore(path string, stat os.FileInfo, file *domain.DataFile) {
	tx, err := w.index.BeginTx()
	if err != nil {
		w.log.Warn("import cache store failed", "path", path, "error", err)
		return
	}
	entry := &domain.CacheEntry{
		Path:         path,
		MTime:        stat.ModTime().Unix(),
		Size:         stat.Size(),
		Delimiter:    string(file.Delimiter),
		Encoding:     file.Encoding,
		TimeColumnID: file.TimeColumnID,
		Channels:     file.Channels,
	}
	if err := tx.Put(entry); err != nil {
		tx.Rollback()
		w.log.Warn("import cache store failed", "path", path, "error", err)
		return
	}
	if err := tx.Commit(); err != nil {
		w.log.Warn("import cache store failed", "path", path, "error", err)
		return
	}
	w.mu.Lock()
	w.cacheStats.Stored++
	w.mu.Unlock()
}

// ParseFile reads a single file without attaching it anywhere. Used by
// layout loading and by adapters that stage a diff before attaching.
func (w *Workspace) ParseFile(ctx context.Context, path string) (*domain.DataFile, error) {
	r := w.parseOne(ctx, path)
	if r.Err != nil {
		return nil, r.Err
	}
	return r.file, nil
}

// RestoreTest registers a test as recorded in a saved layout: the canonical
// channel set and join configuration land first, files are attached
// afterwards with AttachRestored.
func (w *Workspace) RestoreTest(name string, mode domain.TimeMode, strategy domain.JoinStrategy, keyID string, tolerance, gap float64, channels []domain.ChannelDescriptor) (string, error) {
	if err := ValidateRequired("name", name); err != nil {
		return "", err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	id := uuid.NewString()
	t := &domain.Test{
		ID:        id,
		Name:      name,
		TimeMode:  mode,
		Strategy:  strategy,
		KeyID:     keyID,
		Tolerance: tolerance,
		Gap:       gap,
	}
	t.RestoreChannels(append([]domain.ChannelDescriptor(nil), channels...))
	w.tests[id] = &testEntry{test: t}
	w.order = append(w.order, id)
	return id, nil
}

// AttachRestored attaches a parsed file using bindings recorded in a saved
// layout, bypassing the header diff. Channels without a recorded binding
// stay unbound.
func (w *Workspace) AttachRestored(testID string, file *domain.DataFile, bindings map[string]string) error {
	mapping := make(domain.HeaderMapping, len(file.Channels))
	for _, ch := range file.Channels {
		if target, ok := bindings[ch.ID]; ok {
			mapping[ch.ID] = domain.MappingTarget{Action: domain.ActionMap, ChannelID: target}
		} else {
			mapping[ch.ID] = domain.MappingTarget{Action: domain.ActionIgnore}
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.tests[testID]
	if !ok {
		return fmt.Errorf("test %s: %w", testID, ErrNotFound)
	}
	if file.ID == "" {
		file.ID = uuid.NewString()
	}
	if file.TimeScale == 0 {
		file.TimeScale = 1
	}
	if err := e.test.AttachFile(file, mapping); err != nil {
		return err
	}
	e.generation++
	if e.appendedSince >= 0 {
		e.appendedSince++
	}
	return nil
}

// DiffAgainst classifies an incoming descriptor set against a test's
// canonical channels without attaching anything.
func (w *Workspace) DiffAgainst(testID string, incoming []domain.ChannelDescriptor) (*domain.HeaderDiff, error) {
	t, err := w.Test(testID)
	if err != nil {
		return nil, err
	}
	return domain.DiffHeaders(incoming, t.Channels, w.diffCfg), nil
}

// attach runs the header diff, has the resolver decide the proposals, then
// commits the file under the lock. If the canonical set moved while the
// resolver ran (another import landed), the diff is recomputed and resolved
// again rather than committed stale.
func (w *Workspace) attach(testID string, file *domain.DataFile, resolve Resolver) error {
	for {
		w.mu.Lock()
		e, ok := w.tests[testID]
		if !ok {
			w.mu.Unlock()
			return fmt.Errorf("test %s: %w", testID, ErrNotFound)
		}
		gen := e.generation
		diff := domain.DiffHeaders(file.Channels, e.test.Channels, w.diffCfg)
		w.mu.Unlock()

		if resolve != nil {
			if err := resolve(file, diff); err != nil {
				return err
			}
		}
		if !diff.Resolved() {
			return &MappingError{FileName: file.Name, Pending: len(diff.Proposals())}
		}

		w.mu.Lock()
		e, ok = w.tests[testID]
		if !ok {
			w.mu.Unlock()
			return fmt.Errorf("test %s: %w", testID, ErrNotFound)
		}
		if e.generation != gen {
			w.mu.Unlock()
			continue
		}
		if file.TimeScale == 0 {
			file.TimeScale = 1
		}
		if err := e.test.AttachFile(file, diff.Mapping); err != nil {
			w.mu.Unlock()
			return err
		}
		e.generation++
		if e.appendedSince >= 0 {
			e.appendedSince++
		}
		w.mu.Unlock()
		return nil
	}
}

// AttachParsed attaches an already-parsed file through the regular header
// diff and resolver flow.
func (w *Workspace) AttachParsed(testID string, file *domain.DataFile, resolve Resolver) error {
	if file.ID == "" {
		file.ID = uuid.NewString()
	}
	return w.attach(testID, file, resolve)
}

// RemoveFile detaches a file from its test.
func (w *Workspace) RemoveFile(testID, fileID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.tests[testID]
	if !ok {
		return fmt.Errorf("test %s: %w", testID, ErrNotFound)
	}
	if !e.test.RemoveFile(fileID) {
		return fmt.Errorf("file %s: %w", fileID, ErrNotFound)
	}
	e.invalidate()
	return nil
}

// SetTimeMode changes how file time columns map onto the canonical base.
func (w *Workspace) SetTimeMode(testID string, mode domain.TimeMode) error {
	return w.mutate(testID, func(t *domain.Test) error {
		t.TimeMode = mode
		return nil
	})
}

// SetJoin configures the merge strategy. keyID names the canonical key
// channel for alternative-key joins and is ignored otherwise.
func (w *Workspace) SetJoin(testID string, strategy domain.JoinStrategy, keyID string, tolerance, gap float64) error {
	if strategy == domain.JoinTimeNearest {
		if err := ValidatePositive("tolerance", tolerance); err != nil {
			return err
		}
	}
	if err := ValidateNonNegative("gap", gap); err != nil {
		return err
	}
	return w.mutate(testID, func(t *domain.Test) error {
		if strategy == domain.JoinAlternativeKey {
			if err := ValidateRequired("keyID", keyID); err != nil {
				return err
			}
			if _, ok := t.Channel(keyID); !ok {
				return fmt.Errorf("key channel %s: %w", keyID, ErrNotFound)
			}
		}
		t.Strategy = strategy
		t.KeyID = keyID
		t.Tolerance = tolerance
		t.Gap = gap
		return nil
	})
}

// SetFileTime sets a file's offset and scale. The file is replaced with a
// copy so in-flight merge workers keep reading a consistent snapshot. A
// negative scale would reverse the aligned axis, so it is rejected here
// instead of surfacing as a table invariant violation later.
func (w *Workspace) SetFileTime(testID, fileID string, offset, scale float64) error {
	if scale == 0 {
		scale = 1
	}
	if err := ValidatePositive("timeScale", scale); err != nil {
		return err
	}
	return w.mutate(testID, func(t *domain.Test) error {
		for i, f := range t.Files {
			if f.ID == fileID {
				c := *f
				c.TimeOffset = offset
				c.TimeScale = scale
				t.Files[i] = &c
				return nil
			}
		}
		return fmt.Errorf("file %s: %w", fileID, ErrNotFound)
	})
}

func (w *Workspace) mutate(testID string, fn func(*domain.Test) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.tests[testID]
	if !ok {
		return fmt.Errorf("test %s: %w", testID, ErrNotFound)
	}
	if err := fn(e.test); err != nil {
		return err
	}
	e.invalidate()
	return nil
}

// MergeSnapshot is the committed merge state of a test. Table is nil while
// no table has been built for the current generation.
type MergeSnapshot struct {
	Table        *domain.MergedTable
	Generation   uint64
	EmptyOverlap bool
}

// Merged returns the current merge snapshot. A stale cached table (built
// before the latest mutation) is not returned.
func (w *Workspace) Merged(testID string) (MergeSnapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.tests[testID]
	if !ok {
		return MergeSnapshot{}, fmt.Errorf("test %s: %w", testID, ErrNotFound)
	}
	snap := MergeSnapshot{Generation: e.generation}
	if e.merged != nil && e.mergedGen == e.generation {
		snap.Table = e.merged
		snap.EmptyOverlap = e.emptyOverlap
	}
	return snap, nil
}

// RebuildMerged recomputes a test's merged table. The merge itself runs
// against an immutable snapshot outside the lock; the result is committed
// only if the test has not changed in the meantime, otherwise it is
// discarded and committed reports false. When exactly one file was appended
// under the Append strategy the previous table is extended instead of
// recomputed.
func (w *Workspace) RebuildMerged(ctx context.Context, testID string) (committed bool, err error) {
	w.mu.Lock()
	e, ok := w.tests[testID]
	if !ok {
		w.mu.Unlock()
		return false, fmt.Errorf("test %s: %w", testID, ErrNotFound)
	}
	gen := e.generation
	snapshot := e.test.Clone()
	var prev *domain.MergedTable
	if snapshot.Strategy == domain.JoinAppend && e.merged != nil && e.appendedSince == 1 {
		prev = e.merged
	}
	w.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return false, err
	}

	var res *domain.MergeResult
	if prev != nil {
		res, err = domain.AppendIncremental(prev, snapshot)
	} else {
		res, err = domain.Merge(snapshot)
	}
	if err != nil {
		return false, tagMergeError(err)
	}

	w.mu.Lock()
	e, ok = w.tests[testID]
	if !ok {
		w.mu.Unlock()
		return false, fmt.Errorf("test %s: %w", testID, ErrNotFound)
	}
	if e.generation != gen {
		w.mu.Unlock()
		w.log.Debug("discarding stale merge result", "test", testID, "built_for", gen, "current", e.generation)
		return false, nil
	}
	e.merged = res.Table
	e.mergedGen = gen
	e.emptyOverlap = res.EmptyOverlap
	e.appendedSince = 0
	w.mu.Unlock()

	w.filters.Refresh(testID, res.Table)
	return true, nil
}

// FilterMask returns the current row mask for a test, nil while no table is
// built.
func (w *Workspace) FilterMask(testID string) ([]bool, error) {
	snap, err := w.Merged(testID)
	if err != nil {
		return nil, err
	}
	return w.filters.Mask(testID, snap.Table), nil
}

// SetFilter upserts a filter spec and pushes the recomputed mask.
func (w *Workspace) SetFilter(testID string, spec domain.FilterSpec) ([]bool, error) {
	snap, err := w.Merged(testID)
	if err != nil {
		return nil, err
	}
	return w.filters.Set(testID, spec, snap.Table), nil
}

// RemoveFilter deletes a filter spec slot and pushes the recomputed mask.
func (w *Workspace) RemoveFilter(testID string, kind domain.FilterKind, channelID string) ([]bool, error) {
	snap, err := w.Merged(testID)
	if err != nil {
		return nil, err
	}
	return w.filters.Remove(testID, kind, channelID, snap.Table), nil
}

// ClearFilters drops every filter on a test and pushes the all-visible mask.
func (w *Workspace) ClearFilters(testID string) ([]bool, error) {
	snap, err := w.Merged(testID)
	if err != nil {
		return nil, err
	}
	return w.filters.Clear(testID, snap.Table), nil
}

// Comparison lays several tests' current tables out on one shared axis.
// Shifts is parallel to TestIDs; Min and Max bound the combined axis.
type Comparison struct {
	TestIDs []string
	Mode    domain.CompareMode
	Gap     float64
	Shifts  []float64
	Min     float64
	Max     float64
}

// Compare computes the cross-test layout for the given tests. Every test
// must have a current merged table.
func (w *Workspace) Compare(testIDs []string, mode domain.CompareMode, gap float64) (Comparison, error) {
	if err := ValidateNonNegative("gap", gap); err != nil {
		return Comparison{}, err
	}
	tables := make([]*domain.MergedTable, len(testIDs))
	for i, id := range testIDs {
		snap, err := w.Merged(id)
		if err != nil {
			return Comparison{}, err
		}
		if snap.Table == nil {
			return Comparison{}, fmt.Errorf("test %s has no merged table: %w", id, ErrInvalidOperation)
		}
		tables[i] = snap.Table
	}
	cmp := Comparison{
		TestIDs: append([]string(nil), testIDs...),
		Mode:    mode,
		Gap:     gap,
		Shifts:  domain.CompareShifts(tables, mode, gap),
	}
	cmp.Min, cmp.Max = domain.CombinedTimeRange(tables, mode, gap)
	return cmp, nil
}

// tagMergeError attaches the matching sentinel to a typed merge failure so
// callers can branch with errors.Is without knowing the concrete type.
func tagMergeError(err error) error {
	var mt *domain.MalformedTimeError
	var jc *domain.JoinConflictError
	switch {
	case errors.As(err, &mt):
		return errors.Join(ErrMalformedTime, err)
	case errors.As(err, &jc):
		return errors.Join(ErrJoinConflict, err)
	}
	return err
}
