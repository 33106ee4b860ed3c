package domain

import (
	"math"
	"strings"
)

// ApplyFilters computes the boolean row mask for a set of filter specs over
// a merged table. Specs combine with logical AND; application order does not
// matter and reapplying an identical set yields an identical mask. Rows
// where a value-range channel holds NaN are excluded, and a value filter on
// a channel absent from the table excludes every row.
func ApplyFilters(table *MergedTable, specs []FilterSpec) []bool {
	mask := make([]bool, table.RowCount())
	for i := range mask {
		mask[i] = true
	}
	for _, spec := range specs {
		applySpec(table, spec, mask)
	}
	return mask
}

func applySpec(table *MergedTable, spec FilterSpec, mask []bool) {
	var col []float64
	switch spec.Kind {
	case FilterTimeRange:
		col = table.Time()
	case FilterValueRange:
		c, ok := table.Column(spec.ChannelID)
		if !ok {
			for i := range mask {
				mask[i] = false
			}
			return
		}
		col = c
	default:
		return
	}
	for i, v := range col {
		if !mask[i] {
			continue
		}
		if math.IsNaN(v) || v < spec.Min || v > spec.Max {
			mask[i] = false
		}
	}
}

// CountVisible reports how many rows a mask keeps.
func CountVisible(mask []bool) int {
	n := 0
	for _, m := range mask {
		if m {
			n++
		}
	}
	return n
}

// ChannelQuery narrows a descriptor list by free-text search and
// category/unit membership. Empty fields match everything.
type ChannelQuery struct {
	Text       string
	Categories []string
	Units      []string
}

// VisibleChannels returns the descriptors passing a query. Text matches
// case-insensitively against display name and raw header.
func VisibleChannels(channels []ChannelDescriptor, q ChannelQuery) []ChannelDescriptor {
	text := strings.ToLower(q.Text)
	var out []ChannelDescriptor
	for _, ch := range channels {
		if text != "" &&
			!strings.Contains(strings.ToLower(ch.DisplayName), text) &&
			!strings.Contains(strings.ToLower(ch.RawHeader), text) {
			continue
		}
		if len(q.Categories) > 0 && !containsString(q.Categories, ch.Category) {
			continue
		}
		if len(q.Units) > 0 && !containsString(q.Units, ch.Unit) {
			continue
		}
		out = append(out, ch)
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// GroupChannels organizes descriptors as category -> unit -> channels, with
// empty category and unit shown under fixed fallback labels.
func GroupChannels(channels []ChannelDescriptor) map[string]map[string][]ChannelDescriptor {
	out := make(map[string]map[string][]ChannelDescriptor)
	for _, ch := range channels {
		cat := ch.Category
		if cat == "" {
			cat = "Uncategorized"
		}
		unit := ch.Unit
		if unit == "" {
			unit = "No Unit"
		}
		if out[cat] == nil {
			out[cat] = make(map[string][]ChannelDescriptor)
		}
		out[cat][unit] = append(out[cat][unit], ch)
	}
	return out
}
