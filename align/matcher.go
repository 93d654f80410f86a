package align

import (
	"math"
	"strconv"
)

// Unmatched marks a new index with no counterpart in the old sequence.
const Unmatched = -1

// MatchKind classifies how a new element relates to the old sequence.
type MatchKind int

const (
	// MatchNone means the element is new content.
	MatchNone MatchKind = iota
	// MatchExact means an identical fingerprint exists in the old sequence.
	MatchExact
	// MatchModified means a similar, same-kind element exists.
	MatchModified
)

func (k MatchKind) String() string {
	switch k {
	case MatchExact:
		return "exact"
	case MatchModified:
		return "modified"
	default:
		return "none"
	}
}

// Item is one element of a sequence to align.
type Item struct {
	Kind    string // Structural kind; only equal kinds can match
	Key     string // Exact-match fingerprint
	Text    string // Text compared for similarity
	Anchor  bool   // Anchors (headings) are aligned first
	Level   int    // Anchor depth
	Context string // Enclosing context used to break ties
}

// Alignment maps every new index to an old index or Unmatched.
type Alignment struct {
	NewToOld []int
	Kinds    []MatchKind
	Scores   []float64
}

func newAlignment(n int) Alignment {
	a := Alignment{
		NewToOld: make([]int, n),
		Kinds:    make([]MatchKind, n),
		Scores:   make([]float64, n),
	}
	for i := range a.NewToOld {
		a.NewToOld[i] = Unmatched
	}
	return a
}

func (a *Alignment) set(newIdx, oldIdx int, kind MatchKind, score float64) {
	a.NewToOld[newIdx] = oldIdx
	a.Kinds[newIdx] = kind
	a.Scores[newIdx] = score
}

// OldToNew inverts the alignment for an old sequence of length n.
func (a Alignment) OldToNew(n int) []int {
	inv := make([]int, n)
	for i := range inv {
		inv[i] = Unmatched
	}
	for newIdx, oldIdx := range a.NewToOld {
		if oldIdx >= 0 && oldIdx < n {
			inv[oldIdx] = newIdx
		}
	}
	return inv
}

// Count returns how many new elements have the given kind.
func (a Alignment) Count(kind MatchKind) int {
	n := 0
	for _, k := range a.Kinds {
		if k == kind {
			n++
		}
	}
	return n
}

// Matcher aligns block sequences in three tiers: anchors, exact matches
// inside anchor-bounded regions, then windowed similarity. A candidate
// whose text is the old text plus one inserted run always qualifies.
type Matcher struct {
	SimilarityFloor float64 // Minimum similarity for a modified match
	WindowFraction  float64 // Search window as a fraction of the region length
	MinWindow       int     // Lower bound of the search window
	Memo            *Memo
}

// NewMatcher creates a matcher with the given similarity floor.
func NewMatcher(floor float64, memo *Memo) *Matcher {
	return &Matcher{
		SimilarityFloor: floor,
		WindowFraction:  0.25,
		MinWindow:       2,
		Memo:            memo,
	}
}

// Align matches the next revision of a sequence against the previous one.
func (m *Matcher) Align(prev, next []Item) Alignment {
	res := newAlignment(len(next))
	used := make([]bool, len(prev))

	anchors := m.alignAnchors(prev, next, &res, used)

	prevOld, prevNew := -1, -1
	anchors = append(anchors, Pair{Old: len(prev), New: len(next)})
	for _, a := range anchors {
		m.alignRegion(prev, next, prevOld+1, a.Old, prevNew+1, a.New, &res, used)
		prevOld, prevNew = a.Old, a.New
	}
	return res
}

func (m *Matcher) alignAnchors(prev, next []Item, res *Alignment, used []bool) []Pair {
	var oldIdx, newIdx []int
	var oldKeys, newKeys []string
	for i, it := range prev {
		if it.Anchor {
			oldIdx = append(oldIdx, i)
			oldKeys = append(oldKeys, anchorKey(it))
		}
	}
	for i, it := range next {
		if it.Anchor {
			newIdx = append(newIdx, i)
			newKeys = append(newKeys, anchorKey(it))
		}
	}

	var anchors []Pair
	for _, p := range LCS(oldKeys, newKeys) {
		o, n := oldIdx[p.Old], newIdx[p.New]
		res.set(n, o, MatchExact, 1)
		used[o] = true
		anchors = append(anchors, Pair{Old: o, New: n})
	}
	return anchors
}

func (m *Matcher) alignRegion(prev, next []Item, oldStart, oldEnd, newStart, newEnd int, res *Alignment, used []bool) {
	if oldStart >= oldEnd || newStart >= newEnd {
		return
	}

	var oldIdx, newIdx []int
	var oldKeys, newKeys []string
	for o := oldStart; o < oldEnd; o++ {
		if !used[o] {
			oldIdx = append(oldIdx, o)
			oldKeys = append(oldKeys, itemKey(prev[o]))
		}
	}
	for n := newStart; n < newEnd; n++ {
		if res.NewToOld[n] == Unmatched {
			newIdx = append(newIdx, n)
			newKeys = append(newKeys, itemKey(next[n]))
		}
	}
	for _, p := range LCS(oldKeys, newKeys) {
		o, n := oldIdx[p.Old], newIdx[p.New]
		res.set(n, o, MatchExact, 1)
		used[o] = true
	}

	oldLen, newLen := oldEnd-oldStart, newEnd-newStart
	window := max(m.MinWindow, int(math.Ceil(m.WindowFraction*float64(max(oldLen, newLen)))))

	for n := newStart; n < newEnd; n++ {
		if res.NewToOld[n] != Unmatched {
			continue
		}
		rel := float64(n-newStart) / float64(newLen)
		expected := oldStart + int(math.Round(rel*float64(oldLen)))

		best, bestDist := Unmatched, 0
		var bestScore float64
		var bestCtx bool
		for o := max(oldStart, expected-window); o < min(oldEnd, expected+window+1); o++ {
			if used[o] || prev[o].Kind != next[n].Kind {
				continue
			}
			score := m.Memo.Similarity(prev[o].Text, next[n].Text)
			if score < m.SimilarityFloor {
				// Pure insertions qualify whatever their size.
				if _, ok := m.Memo.DetectInsertion(prev[o].Text, next[n].Text); !ok {
					continue
				}
			}
			ctx := prev[o].Context == next[n].Context
			dist := abs(o - expected)
			if best == Unmatched || better(score, ctx, dist, bestScore, bestCtx, bestDist) {
				best, bestScore, bestCtx, bestDist = o, score, ctx, dist
			}
		}
		if best != Unmatched {
			res.set(n, best, MatchModified, bestScore)
			used[best] = true
		}
	}
}

const scoreEpsilon = 1e-9

func better(score float64, ctx bool, dist int, bestScore float64, bestCtx bool, bestDist int) bool {
	if math.Abs(score-bestScore) > scoreEpsilon {
		return score > bestScore
	}
	if ctx != bestCtx {
		return ctx
	}
	return dist < bestDist
}

func anchorKey(it Item) string {
	return strconv.Itoa(it.Level) + "\x00" + it.Key
}

func itemKey(it Item) string {
	return it.Kind + "\x00" + it.Key
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
