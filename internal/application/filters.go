package application

import (
	"sort"
	"sync"

	"logmerge/internal/domain"
)

// FilterListener is notified with the new row mask whenever a test's filter
// state changes or its table is refreshed. The mask is nil while the test has
// no built table.
type FilterListener func(testID string, mask []bool)

// FilterManager is the single source of truth for per-test filter specs.
// Consumers never hold their own copy of filter state; they subscribe and
// receive every recomputed mask. Mask computation is synchronous and cheap
// relative to a merge rebuild.
type FilterManager struct {
	mu        sync.Mutex
	specs     map[string]map[string]domain.FilterSpec
	listeners []FilterListener
}

// NewFilterManager creates an empty manager.
func NewFilterManager() *FilterManager {
	return &FilterManager{specs: make(map[string]map[string]domain.FilterSpec)}
}

// Subscribe registers a listener for mask changes on every test.
func (m *FilterManager) Subscribe(fn FilterListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// specKey identifies a spec's slot: one time-range filter per test, one
// value-range filter per channel.
func specKey(spec domain.FilterSpec) string {
	if spec.Kind == domain.FilterTimeRange {
		return "time"
	}
	return spec.ChannelID
}

// Set upserts a filter spec for a test and pushes the recomputed mask to all
// listeners. Re-applying an identical spec recomputes an identical mask.
func (m *FilterManager) Set(testID string, spec domain.FilterSpec, table *domain.MergedTable) []bool {
	m.mu.Lock()
	if m.specs[testID] == nil {
		m.specs[testID] = make(map[string]domain.FilterSpec)
	}
	m.specs[testID][specKey(spec)] = spec
	m.mu.Unlock()
	return m.Refresh(testID, table)
}

// Remove deletes the spec in the given slot, if any, and pushes the
// recomputed mask.
func (m *FilterManager) Remove(testID string, kind domain.FilterKind, channelID string, table *domain.MergedTable) []bool {
	m.mu.Lock()
	delete(m.specs[testID], specKey(domain.FilterSpec{Kind: kind, ChannelID: channelID}))
	m.mu.Unlock()
	return m.Refresh(testID, table)
}

// Clear drops every spec for a test and pushes the all-visible mask.
func (m *FilterManager) Clear(testID string, table *domain.MergedTable) []bool {
	m.mu.Lock()
	delete(m.specs, testID)
	m.mu.Unlock()
	return m.Refresh(testID, table)
}

// DropTest discards a deleted test's filter state without notifying.
func (m *FilterManager) DropTest(testID string) {
	m.mu.Lock()
	delete(m.specs, testID)
	m.mu.Unlock()
}

// Specs returns the active specs for a test in a deterministic order.
func (m *FilterManager) Specs(testID string) []domain.FilterSpec {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.specsLocked(testID)
}

func (m *FilterManager) specsLocked(testID string) []domain.FilterSpec {
	byKey := m.specs[testID]
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]domain.FilterSpec, 0, len(keys))
	for _, k := range keys {
		out = append(out, byKey[k])
	}
	return out
}

// Mask computes the current row mask for a test over the given table
// snapshot without notifying listeners. Nil when there is no table.
func (m *FilterManager) Mask(testID string, table *domain.MergedTable) []bool {
	if table == nil {
		return nil
	}
	m.mu.Lock()
	specs := m.specsLocked(testID)
	m.mu.Unlock()
	return domain.ApplyFilters(table, specs)
}

// Refresh recomputes the mask against a (possibly rebuilt) table snapshot
// and pushes it to every listener.
func (m *FilterManager) Refresh(testID string, table *domain.MergedTable) []bool {
	mask := m.Mask(testID, table)
	m.mu.Lock()
	listeners := append([]FilterListener(nil), m.listeners...)
	m.mu.Unlock()
	for _, fn := range listeners {
		fn(testID, mask)
	}
	return mask
}
