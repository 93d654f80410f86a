package processor

import (
	"strings"
	"unicode"

	"github.com/yuin/goldmark/ast"
	"golang.org/x/net/html"
)

// PlainText returns the markup-free text of a block node: inline code,
// raw HTML and code blocks are skipped, entities are decoded and whitespace
// is collapsed.
func PlainText(n ast.Node, source []byte) string {
	var b strings.Builder
	writePlain(&b, n, source, false)
	return collapse(html.UnescapeString(b.String()))
}

// PlainTextShallow is PlainText without nested lists.
func PlainTextShallow(n ast.Node, source []byte) string {
	var b strings.Builder
	writePlain(&b, n, source, true)
	return collapse(html.UnescapeString(b.String()))
}

func writePlain(b *strings.Builder, n ast.Node, source []byte, skipLists bool) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.List:
			if skipLists {
				continue
			}
		case *ast.CodeSpan, *ast.RawHTML, *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
			continue
		case *ast.Text:
			b.Write(v.Segment.Value(source))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteByte(' ')
			}
			continue
		case *ast.String:
			b.Write(v.Value)
			continue
		case *ast.AutoLink:
			b.Write(v.Label(source))
			continue
		}
		if c.Type() == ast.TypeBlock && b.Len() > 0 {
			b.WriteByte(' ')
		}
		writePlain(b, c, source, skipLists)
	}
}

// HasText reports whether s contains any letter or digit worth translating.
func HasText(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) >= 0
}
