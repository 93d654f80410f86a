// Package align matches old and new revisions of a document: block
// sequences, sentence segments and single insertions.
package align

import (
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// DefaultMemoSize bounds each memo table.
const DefaultMemoSize = 4096

type pairKey struct {
	a, b string
}

// Memo holds the per-run memo tables shared by the alignment stages.
// A nil *Memo is valid and simply computes everything on demand.
type Memo struct {
	dmp    *diffmatchpatch.DiffMatchPatch
	sims   *lru.Cache[pairKey, float64]
	splits *lru.Cache[string, []Segment]
}

// NewMemo creates memo tables holding up to size entries each.
func NewMemo(size int) *Memo {
	if size <= 0 {
		size = DefaultMemoSize
	}
	// lru.New only fails for non-positive sizes.
	sims, _ := lru.New[pairKey, float64](size)
	splits, _ := lru.New[string, []Segment](size)
	return &Memo{
		dmp:    diffmatchpatch.New(),
		sims:   sims,
		splits: splits,
	}
}

func (m *Memo) differ() *diffmatchpatch.DiffMatchPatch {
	if m == nil || m.dmp == nil {
		return diffmatchpatch.New()
	}
	return m.dmp
}

// Similarity returns 1 minus the normalized character edit distance
// between a and b, in [0, 1].
func (m *Memo) Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	key := pairKey{a, b}
	if b < a {
		key = pairKey{b, a}
	}
	if m != nil && m.sims != nil {
		if v, ok := m.sims.Get(key); ok {
			return v
		}
	}

	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := max(la, lb)
	var sim float64
	if longest > 0 {
		dmp := m.differ()
		dist := dmp.DiffLevenshtein(dmp.DiffMain(a, b, false))
		sim = 1 - float64(dist)/float64(longest)
	}

	if m != nil && m.sims != nil {
		m.sims.Add(key, sim)
	}
	return sim
}

// ChangeRatio is the share of characters that differ between a and b.
func (m *Memo) ChangeRatio(a, b string) float64 {
	return 1 - m.Similarity(a, b)
}

// Split segments text with sp, memoizing the result.
func (m *Memo) Split(sp *Splitter, text string) []Segment {
	if m != nil && m.splits != nil {
		if segs, ok := m.splits.Get(text); ok {
			return segs
		}
	}
	segs := sp.Split(text)
	if m != nil && m.splits != nil {
		m.splits.Add(text, segs)
	}
	return segs
}

// AdaptiveFloor interpolates a similarity threshold by text length:
// short (below shortLen runes) gets strict, long (above longLen) gets loose.
func AdaptiveFloor(runes int, strict, loose float64, shortLen, longLen int) float64 {
	switch {
	case runes < shortLen:
		return strict
	case runes > longLen:
		return loose
	case longLen <= shortLen:
		return loose
	}
	t := float64(runes-shortLen) / float64(longLen-shortLen)
	return strict + (loose-strict)*t
}
