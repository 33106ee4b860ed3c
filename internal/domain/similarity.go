package domain

import (
	"sort"
	"strings"
)

// Scorer scores the similarity of two normalized channel names in [0, 1].
// The acceptance threshold and tie-break margin live in DiffConfig, not in
// the scorer, so matching behavior stays configuration rather than a hidden
// library default.
type Scorer interface {
	Score(a, b string) float64
}

// TokenSortScorer is the pinned default scorer: it sorts whitespace tokens
// and measures normalized indel similarity of the rejoined strings, where a
// substitution counts as one delete plus one insert. Token order differences
// cost nothing, spelling differences cost proportionally.
type TokenSortScorer struct{}

func (TokenSortScorer) Score(a, b string) float64 {
	as := []rune(sortTokens(a))
	bs := []rune(sortTokens(b))
	total := len(as) + len(bs)
	if total == 0 {
		return 1
	}
	d := indelDistance(as, bs)
	return float64(total-d) / float64(total)
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// indelDistance is the edit distance restricted to inserts and deletes,
// computed with the two-row dynamic program.
func indelDistance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1]
			} else {
				curr[j] = min(prev[j], curr[j-1]) + 1
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// NormalizeName folds case and collapses runs of whitespace, underscores and
// dots so descriptors from differing naming conventions compare cleanly.
func NormalizeName(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer("_", " ", ".", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
