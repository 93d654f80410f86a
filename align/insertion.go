package align

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// InsertionKind locates a pure insertion.
type InsertionKind int

const (
	InsertHead InsertionKind = iota + 1
	InsertTail
	InsertMiddle
)

func (k InsertionKind) String() string {
	switch k {
	case InsertHead:
		return "head"
	case InsertTail:
		return "tail"
	case InsertMiddle:
		return "middle"
	}
	return "unknown"
}

// Insertion describes new text that differs from the old text only by one
// contiguous inserted run.
type Insertion struct {
	Kind     InsertionKind
	Raw      string // Inserted run including surrounding whitespace
	Fragment string // Raw without surrounding whitespace
	Offset   int    // Byte offset in the old text where Raw goes
}

// DetectInsertion reports whether next equals prev with a single contiguous
// run inserted at the head, the tail or one interior point.
func (m *Memo) DetectInsertion(prev, next string) (Insertion, bool) {
	if prev == "" || len(next) <= len(prev) {
		return Insertion{}, false
	}
	dmp := m.differ()
	or, nr := []rune(prev), []rune(next)

	p := dmp.DiffCommonPrefix(prev, next)
	s := dmp.DiffCommonSuffix(prev, next)
	// The suffix must not reuse characters already claimed by the prefix.
	s = min(s, len(or)-p, len(nr)-p)
	if p+s != len(or) {
		return Insertion{}, false
	}

	raw := string(nr[p : len(nr)-s])
	fragment := strings.TrimSpace(raw)
	if fragment == "" {
		return Insertion{}, false
	}

	ins := Insertion{
		Raw:      raw,
		Fragment: fragment,
		Offset:   len(string(or[:p])),
	}
	switch {
	case p == 0:
		ins.Kind = InsertHead
	case s == 0:
		ins.Kind = InsertTail
	default:
		ins.Kind = InsertMiddle
		// Shift the cut so the fragment starts after whitespace in the old text:
		// "A. |C. B." rather than "A.| C. B.".
		if lead := len(raw) - len(strings.TrimLeftFunc(raw, unicode.IsSpace)); lead > 0 &&
			strings.HasPrefix(prev[ins.Offset:], raw[:lead]) {
			ins.Offset += lead
		}
	}
	return ins, true
}

// Splice merges the translation of an inserted fragment into the previous
// translation. For InsertMiddle, at is the byte offset in oldTrans where the
// fragment belongs; it is ignored for head and tail insertions.
func Splice(oldTrans, fragTrans string, kind InsertionKind, at int) string {
	frag := strings.TrimSpace(fragTrans)
	if frag == "" {
		return oldTrans
	}

	switch kind {
	case InsertHead:
		lead := oldTrans[:len(oldTrans)-len(strings.TrimLeftFunc(oldTrans, unicode.IsSpace))]
		rest := oldTrans[len(lead):]
		return lead + Concat(frag, rest)
	case InsertTail:
		base := strings.TrimRightFunc(oldTrans, unicode.IsSpace)
		trail := oldTrans[len(base):]
		return Concat(base, frag) + trail
	case InsertMiddle:
		at = max(0, min(at, len(oldTrans)))
		left := strings.TrimRightFunc(oldTrans[:at], unicode.IsSpace)
		right := strings.TrimLeftFunc(oldTrans[at:], unicode.IsSpace)
		gap := oldTrans[len(left) : len(oldTrans)-len(right)]
		if gap == "" || strings.TrimSpace(gap) != "" {
			return Concat(Concat(left, frag), right)
		}
		if needsSpace(lastRune(frag), firstRune(right)) {
			return left + gap + frag + gap + right
		}
		return left + gap + frag + right
	}
	return oldTrans
}

// Concat joins two translated pieces with a connector space unless b starts
// with punctuation or either side is CJK. A terminal punctuation mark
// repeated across the seam is kept once.
func Concat(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	last, first := lastRune(a), firstRune(b)
	if isTerminalPunct(last) && first == last {
		b = strings.TrimLeftFunc(b[utf8.RuneLen(first):], unicode.IsSpace)
		if b == "" {
			return a
		}
		first = firstRune(b)
	}
	if isLeadingPunct(first) || !needsSpace(last, first) {
		return a + b
	}
	return a + " " + b
}

func needsSpace(left, right rune) bool {
	return !isCJK(left) && !isCJK(right)
}

func isCJK(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul) ||
		(r >= 0x3000 && r <= 0x303F) || (r >= 0xFF00 && r <= 0xFFEF)
}

func isTerminalPunct(r rune) bool {
	return isTerminator(r) || isCJKTerminator(r)
}

func isLeadingPunct(r rune) bool {
	switch r {
	case ',', '.', ';', ':', '!', '?', ')', ']', '}', '、', '，', '。', '；', '：', '！', '？', '）', '」', '』':
		return true
	}
	return false
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

func lastRune(s string) rune {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}
