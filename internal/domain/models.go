package domain

import "fmt"

// DefaultTolerance is the default time-nearest join window, in canonical
// time units.
const DefaultTolerance = 0.1

// TimeMode selects how a file's raw time column maps onto the test's
// canonical time base.
type TimeMode int

const (
	TimeAbsolute     TimeMode = iota // raw values already share a clock
	TimeRelative                     // shift so the first sample is zero
	TimeCustomOffset                 // add a per-file user offset
)

func (m TimeMode) String() string {
	switch m {
	case TimeAbsolute:
		return "absolute"
	case TimeRelative:
		return "relative"
	case TimeCustomOffset:
		return "custom-offset"
	default:
		return "unknown"
	}
}

// ParseTimeMode parses the string form produced by String.
func ParseTimeMode(s string) (TimeMode, error) {
	switch s {
	case "absolute":
		return TimeAbsolute, nil
	case "relative":
		return TimeRelative, nil
	case "custom-offset":
		return TimeCustomOffset, nil
	default:
		return 0, fmt.Errorf("invalid time mode: %q", s)
	}
}

// JoinStrategy selects how rows from multiple files combine into one table.
type JoinStrategy int

const (
	JoinTimeNearest JoinStrategy = iota
	JoinTimeExact
	JoinAlternativeKey
	JoinAppend
)

func (s JoinStrategy) String() string {
	switch s {
	case JoinTimeNearest:
		return "time-nearest"
	case JoinTimeExact:
		return "time-exact"
	case JoinAlternativeKey:
		return "alternative-key"
	case JoinAppend:
		return "append"
	default:
		return "unknown"
	}
}

// ParseJoinStrategy parses the string form produced by String.
func ParseJoinStrategy(s string) (JoinStrategy, error) {
	switch s {
	case "time-nearest":
		return JoinTimeNearest, nil
	case "time-exact":
		return JoinTimeExact, nil
	case "alternative-key":
		return JoinAlternativeKey, nil
	case "append":
		return JoinAppend, nil
	default:
		return 0, fmt.Errorf("invalid join strategy: %q", s)
	}
}

// CompareMode selects how multiple tests are laid out against each other.
type CompareMode int

const (
	CompareOverlay     CompareMode = iota // shared canonical time axis
	CompareConcatenate                    // end-to-end with a gap
)

func (m CompareMode) String() string {
	switch m {
	case CompareOverlay:
		return "overlay"
	case CompareConcatenate:
		return "concatenate"
	default:
		return "unknown"
	}
}

// ParseCompareMode parses the string form produced by String.
func ParseCompareMode(s string) (CompareMode, error) {
	switch s {
	case "overlay":
		return CompareOverlay, nil
	case "concatenate":
		return CompareConcatenate, nil
	default:
		return 0, fmt.Errorf("invalid compare mode: %q", s)
	}
}

// ChannelDescriptor is the structured meaning of one raw column header.
// RawHeader is the only reversible identity; DisplayName, Unit and Category
// are derived. Descriptors are immutable once parsed.
type ChannelDescriptor struct {
	ID          string
	RawHeader   string
	DisplayName string
	Unit        string // empty when no unit was recognized
	Category    string // empty when no keyword matched
	Form        HeaderForm
}

// DataFile is one imported log file. It is owned by exactly one Test and
// destroyed with it.
type DataFile struct {
	ID        string
	Path      string
	Name      string
	Delimiter rune
	Encoding  string

	Channels     []ChannelDescriptor
	TimeColumnID string

	// Per-file time settings on top of the owning test's TimeMode.
	TimeOffset float64
	TimeScale  float64 // 1.0 means no scaling

	// Bindings maps file-local channel ids to the owning test's canonical
	// channel ids. It is the persisted outcome of header-diff resolution.
	Bindings map[string]string

	Columns *ColumnStore
}

// Channel returns the descriptor with the given file-local id.
func (f *DataFile) Channel(id string) (ChannelDescriptor, bool) {
	for _, ch := range f.Channels {
		if ch.ID == id {
			return ch, true
		}
	}
	return ChannelDescriptor{}, false
}

// RowCount reports the number of data rows in the file.
func (f *DataFile) RowCount() int {
	if f.Columns == nil {
		return 0
	}
	return f.Columns.Rows()
}

// Test groups files that are viewed and compared together. All mutation goes
// through the application workspace; the merged table is a derived cache
// owned there and keyed by the test's generation counter.
type Test struct {
	ID   string
	Name string

	Files    []*DataFile
	TimeMode TimeMode

	// Canonical channel set. Every attached file binds its local channels
	// to ids in this list.
	Channels []ChannelDescriptor

	// Test-level join configuration used when rebuilding the merged table.
	Strategy  JoinStrategy
	KeyID     string // canonical channel id for alternative-key joins
	Tolerance float64
	Gap       float64

	nextChannel int
}

// Clone returns a shallow copy with independent Files and Channels slices.
// File and column contents are shared; they are treated as immutable once a
// file is attached, so a clone is a safe read-only snapshot for workers.
func (t *Test) Clone() *Test {
	c := *t
	c.Files = append([]*DataFile(nil), t.Files...)
	c.Channels = append([]ChannelDescriptor(nil), t.Channels...)
	return &c
}

// Channel returns the canonical descriptor with the given id.
func (t *Test) Channel(id string) (ChannelDescriptor, bool) {
	for _, ch := range t.Channels {
		if ch.ID == id {
			return ch, true
		}
	}
	return ChannelDescriptor{}, false
}

// AdoptChannel adds an incoming descriptor to the canonical set under a
// fresh test-scoped id and returns that id.
func (t *Test) AdoptChannel(desc ChannelDescriptor) string {
	t.nextChannel++
	id := fmt.Sprintf("ch%d", t.nextChannel)
	desc.ID = id
	t.Channels = append(t.Channels, desc)
	return id
}

// File returns the file with the given id.
func (t *Test) File(id string) (*DataFile, bool) {
	for _, f := range t.Files {
		if f.ID == id {
			return f, true
		}
	}
	return nil, false
}

// RestoreChannels replaces the canonical set, continuing id assignment
// after the highest restored id. Used when loading a persisted layout.
func (t *Test) RestoreChannels(channels []ChannelDescriptor) {
	t.Channels = channels
	t.nextChannel = 0
	for _, ch := range channels {
		var n int
		if _, err := fmt.Sscanf(ch.ID, "ch%d", &n); err == nil && n > t.nextChannel {
			t.nextChannel = n
		}
	}
}

// AttachFile consumes a fully resolved header mapping and binds the file
// into the test: mapped channels bind to their canonical ids, new channels
// are adopted into the canonical set, ignored channels stay unbound. The
// mapping is not retained; the per-file bindings are its durable outcome.
func (t *Test) AttachFile(f *DataFile, mapping HeaderMapping) error {
	bindings := make(map[string]string, len(f.Channels))
	for _, ch := range f.Channels {
		target, ok := mapping[ch.ID]
		if !ok {
			return fmt.Errorf("channel %s (%s) has no mapping decision", ch.ID, ch.RawHeader)
		}
		switch target.Action {
		case ActionMap:
			if _, ok := t.Channel(target.ChannelID); !ok {
				return fmt.Errorf("channel %s mapped to unknown canonical id %s", ch.ID, target.ChannelID)
			}
			bindings[ch.ID] = target.ChannelID
		case ActionNew:
			bindings[ch.ID] = t.AdoptChannel(ch)
		case ActionIgnore:
			// unbound, excluded from merges
		}
	}
	f.Bindings = bindings
	t.Files = append(t.Files, f)
	return nil
}

// RemoveFile detaches and discards the file with the given id.
func (t *Test) RemoveFile(id string) bool {
	for i, f := range t.Files {
		if f.ID == id {
			t.Files = append(t.Files[:i], t.Files[i+1:]...)
			return true
		}
	}
	return false
}

// FilterKind distinguishes the two filter predicate families.
type FilterKind int

const (
	FilterTimeRange FilterKind = iota
	FilterValueRange
)

func (k FilterKind) String() string {
	switch k {
	case FilterTimeRange:
		return "time-range"
	case FilterValueRange:
		return "value-range"
	default:
		return "unknown"
	}
}

// ParseFilterKind parses the string form produced by String.
func ParseFilterKind(s string) (FilterKind, error) {
	switch s {
	case "time-range":
		return FilterTimeRange, nil
	case "value-range":
		return FilterValueRange, nil
	default:
		return 0, fmt.Errorf("invalid filter kind: %q", s)
	}
}

// FilterSpec is one range predicate over a test's merged table. Use
// math.Inf bounds for half-open ranges. Predicates are idempotent and
// order-independent; they never mutate source rows.
type FilterSpec struct {
	ChannelID string // canonical channel id; ignored for time-range filters
	Kind      FilterKind
	Min       float64
	Max       float64
}
