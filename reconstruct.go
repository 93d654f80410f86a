package doclai

import (
	"strings"
	"unicode/utf8"
)

// Reconstruct emits the translated document: doc.Lead, then every block
// text followed by the separator recorded for that block in the new
// source. texts must hold one entry per block. The output always ends with
// a newline.
func Reconstruct(doc Document, texts []string) string {
	var b strings.Builder
	b.WriteString(doc.Lead)
	for i, blk := range doc.Blocks {
		if i < len(texts) {
			b.WriteString(texts[i])
		} else {
			b.WriteString(blk.Raw)
		}
		b.WriteString(blk.Separator)
	}
	out := b.String()
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
