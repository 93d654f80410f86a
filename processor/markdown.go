package processor

import (
	"sort"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/ZaguanLabs/doclai"
)

// MarkdownParser splits Markdown documents into blocks using goldmark.
type MarkdownParser struct {
	md goldmark.Markdown
}

// NewMarkdownParser creates a parser with GitHub Flavored Markdown enabled.
func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// ContentType returns "markdown".
func (p *MarkdownParser) ContentType() string {
	return "markdown"
}

// Parse returns the blocks of source. It never fails: unterminated fences
// and other malformed constructs produce a best-effort block list.
//
// Lead + Σ(Raw + Separator) always reproduces source byte for byte.
func (p *MarkdownParser) Parse(source string) doclai.Document {
	src := []byte(source)
	fmEnd := FrontmatterEnd(source)
	if fmEnd > 0 {
		// Blank out the frontmatter so goldmark sees empty lines with the
		// same offsets.
		masked := make([]byte, len(src))
		copy(masked, src)
		for i := 0; i < fmEnd; i++ {
			if masked[i] != '\n' && masked[i] != '\r' {
				masked[i] = ' '
			}
		}
		src = masked
	}

	b := &builder{source: source, src: src, lines: newLineIndex(src)}
	if fmEnd > 0 {
		b.pending = append(b.pending, pendingBlock{
			typ:   doclai.BlockFrontmatter,
			path:  "fm",
			first: 0,
			last:  b.lines.lineOf(fmEnd - 1),
		})
		b.cursor = b.lines.lineOf(fmEnd-1) + 1
	}

	root := p.md.Parser().Parse(text.NewReader(src))
	i := 0
	for c := root.FirstChild(); c != nil; c = c.NextSibling() {
		path := strconv.Itoa(i)
		if list, ok := c.(*ast.List); ok {
			b.visitList(list, path)
		} else {
			b.add(c, path, "")
		}
		i++
	}
	return b.finish()
}

type pendingBlock struct {
	node    ast.Node
	typ     doclai.BlockType
	level   int
	ordered bool
	path    string
	parent  string
	heading string
	first   int // First line index
	last    int // Last line index that belongs to the block
	content int // Byte offset of the first content character, -1 if unknown
}

type builder struct {
	source   string
	src      []byte
	lines    lineIndex
	pending  []pendingBlock
	cursor   int
	headings []headingEntry
}

type headingEntry struct {
	level int
	text  string
}

func (b *builder) visitList(list *ast.List, path string) {
	j := 0
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		b.visitItem(item, path+"/"+strconv.Itoa(j), path, list.IsOrdered())
		j++
	}
}

func (b *builder) visitItem(item ast.Node, path, parent string, ordered bool) {
	pb := b.place(item, true)
	pb.typ = doclai.BlockListItem
	pb.ordered = ordered
	pb.path = path
	pb.parent = parent
	pb.heading = b.headingPath()
	b.push(pb)

	k := 0
	for c := item.FirstChild(); c != nil; c = c.NextSibling() {
		nested, ok := c.(*ast.List)
		if !ok {
			continue
		}
		for sub := nested.FirstChild(); sub != nil; sub = sub.NextSibling() {
			b.visitItem(sub, path+"/"+strconv.Itoa(k), path, nested.IsOrdered())
			k++
		}
	}
}

func (b *builder) add(n ast.Node, path, parent string) {
	pb := b.place(n, false)
	pb.path = path
	pb.parent = parent

	switch v := n.(type) {
	case *ast.Heading:
		pb.typ = doclai.BlockHeading
		pb.level = v.Level
		b.popHeadings(v.Level)
		pb.heading = b.headingPath()
		b.headings = append(b.headings, headingEntry{level: v.Level, text: PlainText(v, b.src)})
	case *ast.Paragraph, *ast.TextBlock:
		pb.typ = doclai.BlockParagraph
		pb.heading = b.headingPath()
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		pb.typ = doclai.BlockCode
		pb.heading = b.headingPath()
	case *ast.HTMLBlock:
		pb.typ = doclai.BlockHTML
		pb.heading = b.headingPath()
	case *ast.Blockquote:
		pb.typ = doclai.BlockQuote
		pb.heading = b.headingPath()
	case *ast.ThematicBreak:
		pb.typ = doclai.BlockThematicBreak
		pb.heading = b.headingPath()
	case *east.Table:
		pb.typ = doclai.BlockTable
		pb.heading = b.headingPath()
	default:
		pb.typ = doclai.BlockOther
		pb.heading = b.headingPath()
	}
	b.push(pb)
}

// place finds the line range of n. Nested lists are excluded for list items
// since their items become blocks of their own.
func (b *builder) place(n ast.Node, skipLists bool) pendingBlock {
	pb := pendingBlock{node: n, first: -1, last: -1, content: -1}

	var visit func(c ast.Node)
	visit = func(c ast.Node) {
		if skipLists && c != n && c.Kind() == ast.KindList {
			return
		}
		lines := c.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			b.extend(&pb, seg.Start, seg.Stop)
			if pb.content < 0 || seg.Start < pb.content {
				pb.content = seg.Start
			}
		}
		switch v := c.(type) {
		case *ast.FencedCodeBlock:
			if v.Info != nil {
				b.extend(&pb, v.Info.Segment.Start, v.Info.Segment.Stop)
			}
		case *ast.HTMLBlock:
			if v.HasClosure() {
				b.extend(&pb, v.ClosureLine.Start, v.ClosureLine.Stop)
			}
		}
		for ch := c.FirstChild(); ch != nil; ch = ch.NextSibling() {
			if ch.Type() == ast.TypeBlock {
				visit(ch)
			}
		}
	}
	visit(n)

	switch v := n.(type) {
	case *ast.FencedCodeBlock:
		pb.content = -1
		if v.Info == nil && v.Lines().Len() > 0 {
			// Opening fence sits on the line above the first content line.
			pb.first--
		}
		if pb.first < 0 {
			pb.first = b.lines.nextNonBlank(b.src, b.cursor)
			pb.last = pb.first
		}
		if b.isClosingFence(pb.last + 1) {
			pb.last++
		}
	case *ast.Heading:
		if pb.first >= 0 && !strings.HasPrefix(strings.TrimLeft(b.lines.text(b.src, pb.first), " "), "#") {
			// Setext underline.
			pb.last++
			pb.content = -1
		}
	case *ast.Blockquote, *east.Table, *ast.HTMLBlock, *ast.CodeBlock:
		pb.content = -1
	}

	if pb.first < 0 {
		pb.first = b.lines.nextNonBlank(b.src, b.cursor)
		pb.last = pb.first
	}
	if pb.first < b.cursor {
		pb.first = b.cursor
	}
	pb.last = max(pb.last, pb.first)
	return pb
}

func (b *builder) extend(pb *pendingBlock, start, stop int) {
	end := stop
	if stop > start {
		end = stop - 1
	}
	first, last := b.lines.lineOf(start), b.lines.lineOf(end)
	if pb.first < 0 || first < pb.first {
		pb.first = first
	}
	if last > pb.last {
		pb.last = last
	}
}

func (b *builder) isClosingFence(line int) bool {
	if line >= b.lines.count() {
		return false
	}
	t := strings.TrimSpace(b.lines.text(b.src, line))
	if len(t) < 3 {
		return false
	}
	return strings.Trim(t, "`") == "" || strings.Trim(t, "~") == ""
}

func (b *builder) push(pb pendingBlock) {
	b.pending = append(b.pending, pb)
	b.cursor = max(b.cursor, pb.last+1)
}

func (b *builder) popHeadings(level int) {
	for len(b.headings) > 0 && b.headings[len(b.headings)-1].level >= level {
		b.headings = b.headings[:len(b.headings)-1]
	}
}

func (b *builder) headingPath() string {
	parts := make([]string, len(b.headings))
	for i, h := range b.headings {
		parts[i] = h.text
	}
	return strings.Join(parts, " > ")
}

func (b *builder) finish() doclai.Document {
	var kept []pendingBlock
	var starts []int
	for _, pb := range b.pending {
		if pb.first >= b.lines.count() {
			continue
		}
		start := b.lines.start(pb.first)
		if len(starts) > 0 && start <= starts[len(starts)-1] {
			continue
		}
		kept = append(kept, pb)
		starts = append(starts, start)
	}

	doc := doclai.Document{}
	if len(kept) == 0 {
		doc.Lead = b.source
		return doc
	}
	doc.Lead = b.source[:starts[0]]
	doc.Blocks = make([]doclai.Block, 0, len(kept))

	for i, pb := range kept {
		start := starts[i]
		next := len(b.source)
		if i+1 < len(starts) {
			next = starts[i+1]
		}
		end := contentEnd(b.source, start, next)
		blk := doclai.Block{
			Type:        pb.typ,
			Level:       pb.level,
			Path:        pb.path,
			ParentKey:   pb.parent,
			HeadingPath: pb.heading,
			Raw:         b.source[start:end],
			Start:       start,
			End:         end,
			Separator:   b.source[end:next],
		}
		if pb.content > start && pb.content <= end && !strings.ContainsAny(b.source[start:pb.content], "\n") {
			blk.Marker = b.source[start:pb.content]
		}
		b.describe(&blk, pb)
		doc.Blocks = append(doc.Blocks, blk)
	}
	return doc
}

// describe fills the normalized and plain forms of blk.
func (b *builder) describe(blk *doclai.Block, pb pendingBlock) {
	switch blk.Type {
	case doclai.BlockHeading:
		blk.Plain = PlainText(pb.node, b.src)
		blk.Normalized = strings.Repeat("#", blk.Level) + " " + blk.Plain
	case doclai.BlockListItem:
		marker := "- "
		if pb.ordered {
			marker = "1. "
		}
		blk.Plain = PlainTextShallow(pb.node, b.src)
		blk.Normalized = marker + collapse(blk.Content())
	case doclai.BlockCode, doclai.BlockFrontmatter:
		blk.Normalized = blk.Raw
		if blk.Type == doclai.BlockFrontmatter {
			blk.Plain = collapse(blk.Raw)
		}
	case doclai.BlockHTML:
		blk.Normalized = blk.Raw
		blk.Plain = HTMLText(blk.Raw)
	case doclai.BlockThematicBreak:
		blk.Normalized = "---"
	default:
		blk.Normalized = collapse(blk.Raw)
		if pb.node != nil {
			blk.Plain = PlainText(pb.node, b.src)
		} else {
			blk.Plain = blk.Normalized
		}
	}
}

// contentEnd returns the end of the last non-blank line in source[start:next],
// excluding its line terminator.
func contentEnd(source string, start, next int) int {
	chunk := source[start:next]
	trimmed := strings.TrimRight(chunk, " \t\r\n")
	if trimmed == "" {
		return start
	}
	end := start + len(trimmed)
	// Keep trailing spaces of the last line (hard breaks, code).
	for end < next && source[end] != '\n' && source[end] != '\r' {
		end++
	}
	return end
}

// FrontmatterEnd returns the offset just past the closing "---" line of a
// YAML frontmatter block at the start of source, or 0 when there is none.
func FrontmatterEnd(source string) int {
	if !strings.HasPrefix(source, "---\n") && !strings.HasPrefix(source, "---\r\n") {
		return 0
	}
	pos := strings.IndexByte(source, '\n') + 1
	for pos < len(source) {
		eol := strings.IndexByte(source[pos:], '\n')
		line := source[pos:]
		if eol >= 0 {
			line = source[pos : pos+eol]
		}
		if t := strings.TrimRight(line, " \t\r"); t == "---" || t == "..." {
			return pos + len(strings.TrimRight(line, "\r"))
		}
		if eol < 0 {
			break
		}
		pos += eol + 1
	}
	return 0
}

type lineIndex []int

func newLineIndex(src []byte) lineIndex {
	idx := lineIndex{0}
	for i, c := range src {
		if c == '\n' && i+1 < len(src) {
			idx = append(idx, i+1)
		}
	}
	return idx
}

func (l lineIndex) count() int { return len(l) }

func (l lineIndex) start(line int) int { return l[line] }

func (l lineIndex) lineOf(offset int) int {
	return sort.Search(len(l), func(i int) bool { return l[i] > offset }) - 1
}

func (l lineIndex) text(src []byte, line int) string {
	end := len(src)
	if line+1 < len(l) {
		end = l[line+1]
	}
	return strings.TrimRight(string(src[l[line]:end]), "\r\n")
}

func (l lineIndex) nextNonBlank(src []byte, line int) int {
	for ; line < len(l); line++ {
		if strings.TrimSpace(l.text(src, line)) != "" {
			return line
		}
	}
	return len(l)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
