package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// HeaderForm identifies which header grammar matched a raw column header.
type HeaderForm int

const (
	FormNone       HeaderForm = iota // no grammar matched, raw string is the name
	FormBracket                      // Name [Unit]
	FormParen                        // Name (Unit)
	FormUnderscore                   // Name_Unit
	FormDot                          // Name.Unit
)

func (f HeaderForm) String() string {
	switch f {
	case FormBracket:
		return "bracket"
	case FormParen:
		return "paren"
	case FormUnderscore:
		return "underscore"
	case FormDot:
		return "dot"
	default:
		return "none"
	}
}

var (
	bracketRe = regexp.MustCompile(`^(.+?)\s*\[([^\]]+)\]$`)
	parenRe   = regexp.MustCompile(`^(.+?)\s*\(([^)]+)\)$`)
	// Short alphanumeric token that plausibly is a unit suffix.
	unitTokenRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]{0,3}$`)
)

// knownUnits recognizes common unit spellings, keyed lowercase. Recognition
// only: the descriptor keeps the unit exactly as written so the raw header
// stays reconstructible.
var knownUnits = map[string]struct{}{
	"c": {}, "f": {}, "k": {},
	"bar": {}, "psi": {}, "kpa": {}, "mpa": {}, "pa": {},
	"v": {}, "mv": {}, "kv": {},
	"a": {}, "ma": {}, "ua": {},
	"s": {}, "ms": {}, "us": {}, "min": {}, "h": {},
	"m": {}, "mm": {}, "cm": {}, "km": {}, "in": {}, "ft": {},
	"kg": {}, "g": {}, "mg": {}, "lb": {},
	"n": {}, "kn": {}, "lbf": {},
	"nm": {}, "ftlb": {},
	"rpm": {}, "hz": {}, "khz": {},
	"l": {}, "ml": {}, "gal": {},
	"lpm": {}, "gpm": {}, "cfm": {},
	"w": {}, "kw": {}, "mw": {}, "hp": {},
	"deg": {}, "rad": {},
	"%": {}, "pct": {}, "percent": {},
}

// categoryKeywords maps channel categories to name keywords. Order matters
// for determinism, so categories live in a slice.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"Temperature", []string{"temp", "temperature", "therm", "tc", "rtd"}},
	{"Pressure", []string{"press", "pressure", "psi", "bar", "kpa", "mpa"}},
	{"Flow", []string{"flow", "rate", "volume", "gpm", "lpm", "cfm"}},
	{"Voltage", []string{"volt", "voltage", "potential"}},
	{"Current", []string{"current", "amp", "ampere"}},
	{"Speed", []string{"speed", "rpm", "velocity", "freq", "frequency"}},
	{"Position", []string{"pos", "position", "angle", "distance"}},
	{"Force", []string{"force", "torque", "load", "newton"}},
	{"Time", []string{"time", "timestamp", "date", "elapsed"}},
	{"Acceleration", []string{"accel", "acceleration", "vibration"}},
	{"Power", []string{"power", "watt", "energy"}},
}

// ParseHeader parses one raw column header into a descriptor. Parsing is
// pure and total: when no grammar matches, the whole trimmed string becomes
// the display name and unit stays absent. Case is preserved.
func ParseHeader(raw string) ChannelDescriptor {
	desc := ChannelDescriptor{RawHeader: raw, Form: FormNone}
	h := strings.TrimSpace(raw)
	desc.DisplayName = h

	if m := bracketRe.FindStringSubmatch(h); m != nil {
		desc.DisplayName = strings.TrimSpace(m[1])
		desc.Unit = strings.TrimSpace(m[2])
		desc.Form = FormBracket
	} else if m := parenRe.FindStringSubmatch(h); m != nil {
		desc.DisplayName = strings.TrimSpace(m[1])
		desc.Unit = strings.TrimSpace(m[2])
		desc.Form = FormParen
	} else if name, unit, ok := splitUnitSuffix(h, "_"); ok {
		desc.DisplayName = name
		desc.Unit = unit
		desc.Form = FormUnderscore
	} else if name, unit, ok := splitUnitSuffix(h, "."); ok {
		desc.DisplayName = name
		desc.Unit = unit
		desc.Form = FormDot
	}

	desc.Category = inferCategory(desc.DisplayName)
	return desc
}

// ParseHeaders parses a header row and assigns stable file-local ids c1..cN.
func ParseHeaders(raw []string) []ChannelDescriptor {
	descs := make([]ChannelDescriptor, len(raw))
	for i, h := range raw {
		descs[i] = ParseHeader(h)
		descs[i].ID = fmt.Sprintf("c%d", i+1)
	}
	return descs
}

// FormatHeader reconstructs the raw header for a descriptor using the form
// that matched at parse time. For forms 1-4 this is an exact round trip of
// the displayName/unit pair.
func FormatHeader(desc ChannelDescriptor) string {
	switch desc.Form {
	case FormBracket:
		return fmt.Sprintf("%s [%s]", desc.DisplayName, desc.Unit)
	case FormParen:
		return fmt.Sprintf("%s (%s)", desc.DisplayName, desc.Unit)
	case FormUnderscore:
		return desc.DisplayName + "_" + desc.Unit
	case FormDot:
		return desc.DisplayName + "." + desc.Unit
	default:
		return desc.DisplayName
	}
}

// splitUnitSuffix splits name<sep>unit where the last token passes the
// unit heuristic: a known unit spelling, or a short alphanumeric token.
func splitUnitSuffix(h, sep string) (name, unit string, ok bool) {
	i := strings.LastIndex(h, sep)
	if i <= 0 || i == len(h)-1 {
		return "", "", false
	}
	tok := h[i+1:]
	if _, known := knownUnits[strings.ToLower(tok)]; !known && !unitTokenRe.MatchString(tok) {
		return "", "", false
	}
	return h[:i], tok, true
}

// inferCategory derives a category from display-name tokens. Single-token
// keywords match whole tokens; longer keywords match as substrings. Matching
// is case-insensitive and returns the first category in declaration order.
func inferCategory(displayName string) string {
	tokens := splitNameTokens(displayName)
	for _, c := range categoryKeywords {
		for _, kw := range c.keywords {
			for _, tok := range tokens {
				if tok == kw || (len(kw) >= 3 && strings.Contains(tok, kw)) {
					return c.category
				}
			}
		}
	}
	return ""
}

func splitNameTokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
}

// timeKeywords drive time-column detection on import.
var timeKeywords = []string{"time", "timestamp", "date", "elapsed", "seconds", "sec", "ms", "t"}

// DetectTimeColumn picks the most likely time channel: first channel whose
// name contains a time keyword, falling back to the first channel.
func DetectTimeColumn(channels []ChannelDescriptor) string {
	for _, kw := range timeKeywords {
		for _, ch := range channels {
			name := strings.ToLower(ch.DisplayName)
			if len(kw) == 1 {
				if name == kw {
					return ch.ID
				}
				continue
			}
			if strings.Contains(name, kw) {
				return ch.ID
			}
		}
	}
	if len(channels) > 0 {
		return channels[0].ID
	}
	return ""
}
