package align

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Segment is a sentence-like piece of a text.
// Prefix+Core+Suffix reproduces text[Start:End] exactly.
type Segment struct {
	Core   string
	Prefix string
	Suffix string
	Start  int
	End    int
}

// Text returns the segment with its surrounding whitespace.
func (s Segment) Text() string {
	return s.Prefix + s.Core + s.Suffix
}

// Join concatenates segments back into their source text.
func Join(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.Text())
	}
	return b.String()
}

// DefaultAbbreviations are words whose trailing period never ends a sentence.
var DefaultAbbreviations = []string{
	"e.g.", "i.e.", "etc.", "vs.", "cf.", "al.", "approx.",
	"mr.", "mrs.", "ms.", "dr.", "prof.", "st.", "no.", "fig.", "vol.", "inc.", "ltd.",
}

// Splitter cuts text into sentence segments. Terminators inside code
// spans, link brackets, abbreviations, URLs and decimals are ignored.
type Splitter struct {
	abbreviations map[string]bool
}

// NewSplitter creates a splitter using DefaultAbbreviations.
func NewSplitter() *Splitter {
	sp := &Splitter{abbreviations: make(map[string]bool, len(DefaultAbbreviations))}
	for _, a := range DefaultAbbreviations {
		sp.abbreviations[a] = true
	}
	return sp
}

// Split returns the segments of text. Whitespace-only text yields a single
// segment with an empty core.
func (sp *Splitter) Split(text string) []Segment {
	if text == "" {
		return nil
	}
	if strings.TrimSpace(text) == "" {
		return []Segment{{Prefix: text, Start: 0, End: len(text)}}
	}

	var segs []Segment
	start := 0
	inCode := false
	depth := 0

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		switch {
		case r == '`':
			inCode = !inCode
		case inCode:
		case r == '[' || r == '(':
			depth++
		case (r == ']' || r == ')') && depth > 0:
			depth--
		case depth == 0 && isCJKTerminator(r):
			end := skipClosers(text, i+size)
			end = skipSpace(text, end)
			segs = append(segs, makeSegment(text, start, end))
			start = end
			i = end
			continue
		case depth == 0 && isTerminator(r):
			end := i + size
			for end < len(text) {
				nr, ns := utf8.DecodeRuneInString(text[end:])
				if !isTerminator(nr) {
					break
				}
				end += ns
			}
			end = skipClosers(text, end)
			if end == len(text) || isSpaceAt(text, end) {
				if r != '.' || !sp.isAbbreviation(text, i) {
					next := skipSpace(text, end)
					segs = append(segs, makeSegment(text, start, next))
					start = next
					i = next
					continue
				}
			}
			i = end
			continue
		}
		i += size
	}

	if start < len(text) {
		if strings.TrimSpace(text[start:]) == "" && len(segs) > 0 {
			last := &segs[len(segs)-1]
			last.Suffix += text[start:]
			last.End = len(text)
		} else {
			segs = append(segs, makeSegment(text, start, len(text)))
		}
	}
	return segs
}

func (sp *Splitter) isAbbreviation(text string, dot int) bool {
	begin := dot
	for begin > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:begin])
		if unicode.IsSpace(r) || r == '(' || r == '[' {
			break
		}
		begin -= size
	}
	return sp.abbreviations[strings.ToLower(text[begin:dot+1])]
}

func makeSegment(text string, start, end int) Segment {
	piece := text[start:end]
	core := strings.TrimSpace(piece)
	lead := strings.Index(piece, core)
	return Segment{
		Prefix: piece[:lead],
		Core:   core,
		Suffix: piece[lead+len(core):],
		Start:  start,
		End:    end,
	}
}

func isTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', ';', ':':
		return true
	}
	return false
}

func isCJKTerminator(r rune) bool {
	switch r {
	case '。', '！', '？', '；', '：':
		return true
	}
	return false
}

func isCloser(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '”', '’', '」', '』', '）', '*', '_':
		return true
	}
	return false
}

func skipClosers(text string, i int) int {
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !isCloser(r) {
			break
		}
		i += size
	}
	return i
}

func skipSpace(text string, i int) int {
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !unicode.IsSpace(r) {
			break
		}
		i += size
	}
	return i
}

func isSpaceAt(text string, i int) bool {
	r, _ := utf8.DecodeRuneInString(text[i:])
	return unicode.IsSpace(r)
}

// BoundaryIndex returns k when offset falls exactly at the start of segs[k]
// (or k == len(segs) at the end of the text).
func BoundaryIndex(segs []Segment, offset int) (int, bool) {
	for k, s := range segs {
		if s.Start == offset || s.Start+len(s.Prefix) == offset {
			return k, true
		}
	}
	if len(segs) > 0 && segs[len(segs)-1].End == offset {
		return len(segs), true
	}
	return 0, false
}
