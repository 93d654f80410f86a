package processor

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ZaguanLabs/doclai"
)

// YAMLTreeParser reads and writes navigation trees such as settings.yml.
type YAMLTreeParser struct {
	Indent int
}

// NewYAMLTreeParser creates a tree parser emitting two-space indentation.
func NewYAMLTreeParser() *YAMLTreeParser {
	return &YAMLTreeParser{Indent: 2}
}

// ParseTree decodes source into a typed tree. Empty input yields a nil tree.
func (p *YAMLTreeParser) ParseTree(source string) (*doclai.TreeNode, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(source), &doc); err != nil {
		return nil, &doclai.ProcessorError{
			Message:     "failed to parse YAML",
			Cause:       err,
			ContentType: "yaml",
		}
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	return fromYAML(doc.Content[0]), nil
}

func fromYAML(n *yaml.Node) *doclai.TreeNode {
	switch n.Kind {
	case yaml.AliasNode:
		return fromYAML(n.Alias)
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil
		}
		return fromYAML(n.Content[0])
	case yaml.SequenceNode:
		out := &doclai.TreeNode{Kind: doclai.SequenceNode}
		for _, c := range n.Content {
			out.Items = append(out.Items, fromYAML(c))
		}
		return out
	case yaml.MappingNode:
		out := &doclai.TreeNode{Kind: doclai.MappingNode}
		for i := 0; i+1 < len(n.Content); i += 2 {
			out.Entries = append(out.Entries, doclai.TreeEntry{
				Key:   n.Content[i].Value,
				Value: fromYAML(n.Content[i+1]),
			})
		}
		return out
	default:
		return &doclai.TreeNode{Kind: doclai.ScalarNode, Value: n.Value, Tag: n.ShortTag()}
	}
}

// RenderTree encodes root as YAML, prefixed with header.
func (p *YAMLTreeParser) RenderTree(root *doclai.TreeNode, header string) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(header)
	if root == nil {
		return buf.String(), nil
	}

	enc := yaml.NewEncoder(&buf)
	indent := p.Indent
	if indent <= 0 {
		indent = 2
	}
	enc.SetIndent(indent)
	if err := enc.Encode(toYAML(root)); err != nil {
		return "", &doclai.ProcessorError{
			Message:     "failed to encode YAML",
			Cause:       err,
			ContentType: "yaml",
		}
	}
	if err := enc.Close(); err != nil {
		return "", &doclai.ProcessorError{
			Message:     "failed to encode YAML",
			Cause:       err,
			ContentType: "yaml",
		}
	}
	return buf.String(), nil
}

func toYAML(n *doclai.TreeNode) *yaml.Node {
	if n == nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
	switch n.Kind {
	case doclai.SequenceNode:
		out := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, it := range n.Items {
			out.Content = append(out.Content, toYAML(it))
		}
		return out
	case doclai.MappingNode:
		out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, e := range n.Entries {
			out.Content = append(out.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Key},
				toYAML(e.Value))
		}
		return out
	default:
		tag := n.Tag
		if tag == "" {
			tag = "!!str"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: n.Value}
	}
}

// HeaderComments returns the comment lines at the top of source, skipping
// blank lines between them, each terminated by a newline.
func (p *YAMLTreeParser) HeaderComments(source string) string {
	var comments []string
	for _, line := range strings.Split(source, "\n") {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "#") {
			comments = append(comments, strings.TrimRight(line, "\r"))
			continue
		}
		if t == "" {
			continue
		}
		break
	}
	if len(comments) == 0 {
		return ""
	}
	return strings.Join(comments, "\n") + "\n"
}

// FrontmatterField is an alias to the main package type.
type FrontmatterField = doclai.FrontmatterField

// FrontmatterFields implements doclai.FrontmatterCodec.
func (p *YAMLTreeParser) FrontmatterFields(raw string, keys []string) []FrontmatterField {
	return FrontmatterFields(raw, keys)
}

// ReplaceFrontmatterFields implements doclai.FrontmatterCodec.
func (p *YAMLTreeParser) ReplaceFrontmatterFields(raw string, fields []FrontmatterField, values map[string]string) string {
	return ReplaceFrontmatterFields(raw, fields, values)
}

// FrontmatterFields returns the single-line scalar values stored under keys
// in a frontmatter block ("---" ... "---"). Malformed YAML yields nil.
func FrontmatterFields(raw string, keys []string) []FrontmatterField {
	body, ok := frontmatterBody(raw)
	if !ok {
		return nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(body), &doc); err != nil || len(doc.Content) == 0 {
		return nil
	}
	m := doc.Content[0]
	if m.Kind != yaml.MappingNode {
		return nil
	}

	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}
	lines := strings.Split(raw, "\n")

	var fields []FrontmatterField
	for i := 0; i+1 < len(m.Content); i += 2 {
		k, v := m.Content[i], m.Content[i+1]
		if !want[k.Value] || v.Kind != yaml.ScalarNode || v.Value == "" {
			continue
		}
		if v.Style&(yaml.LiteralStyle|yaml.FoldedStyle) != 0 || strings.Contains(v.Value, "\n") {
			continue
		}
		// Body line 1 is raw line 1, after the opening delimiter.
		line := v.Line
		if line >= len(lines) {
			continue
		}
		col := byteColumn(lines[line], v.Column)
		fields = append(fields, FrontmatterField{
			Key:    k.Value,
			Value:  v.Value,
			Line:   line,
			Column: col,
			Tail:   commentTail(strings.TrimSuffix(lines[line], "\r"), col, k, v),
		})
	}
	return fields
}

// ReplaceFrontmatterFields rewrites the given fields of raw with new values,
// leaving every other byte untouched. values is keyed by field key.
func ReplaceFrontmatterFields(raw string, fields []FrontmatterField, values map[string]string) string {
	lines := strings.Split(raw, "\n")
	for _, f := range fields {
		v, ok := values[f.Key]
		if !ok || f.Line >= len(lines) || f.Column > len(lines[f.Line]) {
			continue
		}
		line := lines[f.Line]
		cr := ""
		if strings.HasSuffix(line, "\r") {
			cr = "\r"
		}
		lines[f.Line] = line[:f.Column] + encodeScalar(v) + f.Tail + cr
	}
	return strings.Join(lines, "\n")
}

// commentTail returns the trailing comment of a scalar line together with the
// blanks that separate it from the value.
func commentTail(line string, col int, k, v *yaml.Node) string {
	comment := v.LineComment
	if comment == "" {
		comment = k.LineComment
	}
	if comment == "" {
		return ""
	}
	start := strings.LastIndex(line, comment)
	if start < col {
		return ""
	}
	for start > col && (line[start-1] == ' ' || line[start-1] == '\t') {
		start--
	}
	return line[start:]
}

func frontmatterBody(raw string) (string, bool) {
	if !strings.HasPrefix(raw, "---") {
		return "", false
	}
	first := strings.IndexByte(raw, '\n')
	last := strings.LastIndexByte(raw, '\n')
	if first < 0 || last <= first {
		return "", false
	}
	return raw[first+1 : last], true
}

// byteColumn converts a 1-based rune column into a byte offset within line.
func byteColumn(line string, column int) int {
	n := 0
	for i := range line {
		if n == column-1 {
			return i
		}
		n++
	}
	return len(line)
}

func encodeScalar(v string) string {
	out, err := yaml.Marshal(v)
	if err != nil {
		return v
	}
	return strings.TrimRight(string(out), "\n")
}
