package align

import "unicode/utf8"

// FloorFunc returns the similarity threshold for a text of n runes.
type FloorFunc func(n int) float64

// AlignSegments matches new sentence segments against old ones: first an
// LCS over identical cores, then, between consecutive exact matches, the
// most similar old segment above floor.
func (m *Memo) AlignSegments(prev, next []Segment, floor FloorFunc) Alignment {
	res := newAlignment(len(next))
	used := make([]bool, len(prev))

	oldKeys := make([]string, len(prev))
	for i, s := range prev {
		oldKeys[i] = s.Core
	}
	newKeys := make([]string, len(next))
	for i, s := range next {
		newKeys[i] = s.Core
	}
	for _, p := range LCS(oldKeys, newKeys) {
		if next[p.New].Core == "" {
			continue
		}
		res.set(p.New, p.Old, MatchExact, 1)
		used[p.Old] = true
	}

	for n := range next {
		if res.NewToOld[n] != Unmatched || next[n].Core == "" {
			continue
		}
		lo, hi := orderBounds(res, n, len(prev))
		threshold := floor(utf8.RuneCountInString(next[n].Core))

		best := Unmatched
		var bestScore float64
		for o := lo; o < hi; o++ {
			if used[o] || prev[o].Core == "" {
				continue
			}
			score := m.Similarity(prev[o].Core, next[n].Core)
			if score >= threshold && (best == Unmatched || score > bestScore) {
				best, bestScore = o, score
			}
		}
		if best != Unmatched {
			res.set(n, best, MatchModified, bestScore)
			used[best] = true
		}
	}
	return res
}

// orderBounds returns the old index range [lo, hi) that keeps order with the
// nearest matched neighbours of new index n.
func orderBounds(res Alignment, n, oldLen int) (int, int) {
	lo, hi := 0, oldLen
	for i := n - 1; i >= 0; i-- {
		if res.NewToOld[i] != Unmatched {
			lo = res.NewToOld[i] + 1
			break
		}
	}
	for i := n + 1; i < len(res.NewToOld); i++ {
		if res.NewToOld[i] != Unmatched {
			hi = res.NewToOld[i]
			break
		}
	}
	return lo, hi
}
