package domain

import (
	"math"
	"sort"
)

// Classification buckets one channel after comparing an incoming file
// against a test's canonical channel set.
type Classification int

const (
	ClassMatched Classification = iota // exact raw-header match
	ClassRenamed                       // fuzzy proposal, needs resolution
	ClassAdded                         // incoming channel with no counterpart
	ClassRemoved                       // canonical channel with no counterpart
)

func (c Classification) String() string {
	switch c {
	case ClassMatched:
		return "matched"
	case ClassRenamed:
		return "renamed"
	case ClassAdded:
		return "added"
	case ClassRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// MappingAction says what to do with one incoming channel.
type MappingAction int

const (
	ActionMap    MappingAction = iota // bind to an existing canonical channel
	ActionNew                         // adopt as a new canonical channel
	ActionIgnore                      // drop from the merge
)

func (a MappingAction) String() string {
	switch a {
	case ActionMap:
		return "map"
	case ActionNew:
		return "new"
	case ActionIgnore:
		return "ignore"
	default:
		return "unknown"
	}
}

// MappingTarget is the resolution for one incoming channel.
type MappingTarget struct {
	Action    MappingAction
	ChannelID string // canonical id, ActionMap only
}

// HeaderMapping maps incoming file-local channel ids to resolutions. It is
// transient: consumed once when the file is attached, then discarded.
type HeaderMapping map[string]MappingTarget

// DiffEntry is the classification of one channel.
type DiffEntry struct {
	Class    Classification
	SourceID string  // incoming file-local id; empty for removed channels
	TargetID string  // canonical id; empty for added channels
	Score    float64 // similarity score, renamed proposals only
}

// HeaderDiff is the output of comparing an incoming descriptor set against a
// test's canonical set. Exact matches are mapped automatically; renamed
// proposals await resolution before the mapping may be consumed.
type HeaderDiff struct {
	Entries []DiffEntry
	Mapping HeaderMapping
}

// Proposals returns the renamed entries that still need a decision.
func (d *HeaderDiff) Proposals() []DiffEntry {
	var out []DiffEntry
	for _, e := range d.Entries {
		if e.Class == ClassRenamed {
			out = append(out, e)
		}
	}
	return out
}

// Resolved reports whether every incoming channel has a mapping decision.
func (d *HeaderDiff) Resolved() bool {
	for _, e := range d.Entries {
		if e.SourceID == "" {
			continue
		}
		if _, ok := d.Mapping[e.SourceID]; !ok {
			return false
		}
	}
	return true
}

// Accept resolves a renamed proposal by binding source to its proposed
// target. Reject instead adopts the source as a new channel.
func (d *HeaderDiff) Accept(sourceID string) bool {
	for _, e := range d.Entries {
		if e.Class == ClassRenamed && e.SourceID == sourceID {
			d.Mapping[sourceID] = MappingTarget{Action: ActionMap, ChannelID: e.TargetID}
			return true
		}
	}
	return false
}

// Reject resolves a renamed proposal as a new, unrelated channel.
func (d *HeaderDiff) Reject(sourceID string) bool {
	for _, e := range d.Entries {
		if e.Class == ClassRenamed && e.SourceID == sourceID {
			d.Mapping[sourceID] = MappingTarget{Action: ActionNew}
			return true
		}
	}
	return false
}

// DiffConfig pins the fuzzy-matching behavior. Zero value is not usable;
// call DefaultDiffConfig.
type DiffConfig struct {
	Scorer Scorer

	// Threshold is the minimum combined score for a rename proposal.
	Threshold float64

	// TieMargin is the score window within which candidates count as tied
	// and fall through to the deterministic tie-break chain.
	TieMargin float64

	// Unit/category agreement adjustments applied to the name score.
	AgreeBonus      float64
	ConflictPenalty float64
}

// DefaultDiffConfig returns the pinned default matching parameters.
func DefaultDiffConfig() DiffConfig {
	return DiffConfig{
		Scorer:          TokenSortScorer{},
		Threshold:       0.80,
		TieMargin:       0.05,
		AgreeBonus:      0.05,
		ConflictPenalty: 0.10,
	}
}

// DiffHeaders classifies each incoming channel against the canonical set.
//
// Exact raw-header matches map automatically. The remainder is scored by
// normalized display name plus unit/category agreement adjustments; the best
// candidate above the threshold becomes a renamed proposal. Candidates within
// TieMargin of the best are tied and resolved deterministically: equal unit
// first, then equal category, then the lexicographically smallest canonical
// id. Unmatched incoming channels are added (and pre-resolved as ActionNew);
// unmatched canonical channels are removed.
func DiffHeaders(incoming, canonical []ChannelDescriptor, cfg DiffConfig) *HeaderDiff {
	diff := &HeaderDiff{Mapping: make(HeaderMapping)}

	byRaw := make(map[string]ChannelDescriptor, len(canonical))
	usedTargets := make(map[string]bool, len(canonical))
	for _, c := range canonical {
		byRaw[c.RawHeader] = c
	}

	var unresolved []ChannelDescriptor
	for _, in := range incoming {
		if c, ok := byRaw[in.RawHeader]; ok && !usedTargets[c.ID] {
			diff.Entries = append(diff.Entries, DiffEntry{Class: ClassMatched, SourceID: in.ID, TargetID: c.ID})
			diff.Mapping[in.ID] = MappingTarget{Action: ActionMap, ChannelID: c.ID}
			usedTargets[c.ID] = true
			continue
		}
		unresolved = append(unresolved, in)
	}

	for _, in := range unresolved {
		target, score, found := bestCandidate(in, canonical, usedTargets, cfg)
		if !found {
			diff.Entries = append(diff.Entries, DiffEntry{Class: ClassAdded, SourceID: in.ID})
			diff.Mapping[in.ID] = MappingTarget{Action: ActionNew}
			continue
		}
		diff.Entries = append(diff.Entries, DiffEntry{
			Class:    ClassRenamed,
			SourceID: in.ID,
			TargetID: target.ID,
			Score:    score,
		})
		usedTargets[target.ID] = true
	}

	for _, c := range canonical {
		if !usedTargets[c.ID] {
			diff.Entries = append(diff.Entries, DiffEntry{Class: ClassRemoved, TargetID: c.ID})
		}
	}

	return diff
}

type candidate struct {
	desc  ChannelDescriptor
	score float64
}

// bestCandidate scores one incoming channel against all unused canonical
// channels and applies the tie-break chain.
func bestCandidate(in ChannelDescriptor, canonical []ChannelDescriptor, used map[string]bool, cfg DiffConfig) (ChannelDescriptor, float64, bool) {
	name := NormalizeName(in.DisplayName)

	var cands []candidate
	for _, c := range canonical {
		if used[c.ID] {
			continue
		}
		s := cfg.Scorer.Score(name, NormalizeName(c.DisplayName))
		s += agreement(in.Unit, c.Unit, cfg)
		s += agreement(in.Category, c.Category, cfg)
		if s > 1 {
			s = 1
		}
		if s < 0 {
			s = 0
		}
		if s >= cfg.Threshold {
			cands = append(cands, candidate{desc: c, score: s})
		}
	}
	if len(cands) == 0 {
		return ChannelDescriptor{}, 0, false
	}

	best := math.Inf(-1)
	for _, c := range cands {
		if c.score > best {
			best = c.score
		}
	}
	var tied []candidate
	for _, c := range cands {
		if best-c.score <= cfg.TieMargin {
			tied = append(tied, c)
		}
	}

	sort.Slice(tied, func(i, j int) bool {
		a, b := tied[i], tied[j]
		au := equalFold(a.desc.Unit, in.Unit)
		bu := equalFold(b.desc.Unit, in.Unit)
		if au != bu {
			return au
		}
		ac := a.desc.Category == in.Category && in.Category != ""
		bc := b.desc.Category == in.Category && in.Category != ""
		if ac != bc {
			return ac
		}
		return a.desc.ID < b.desc.ID
	})

	return tied[0].desc, tied[0].score, true
}

// agreement returns the bonus or penalty for one metadata field pair.
// Absent fields on either side are neutral.
func agreement(a, b string, cfg DiffConfig) float64 {
	if a == "" || b == "" {
		return 0
	}
	if equalFold(a, b) {
		return cfg.AgreeBonus
	}
	return -cfg.ConflictPenalty
}

func equalFold(a, b string) bool {
	if a == "" || b == "" {
		return a == b
	}
	return NormalizeName(a) == NormalizeName(b)
}
