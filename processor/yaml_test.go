package processor

import (
	"strings"
	"testing"

	"github.com/ZaguanLabs/doclai"
)

const settingsYAML = `# Site navigation
# Edit with care

nav:
  - (ri:home-line) 首页: /
  - 指南:
      - 快速开始: /guide/start
      - 配置: /guide/config
version: 3
`

func TestYAMLTreeParser_ParseTree(t *testing.T) {
	p := NewYAMLTreeParser()
	root, err := p.ParseTree(settingsYAML)
	if err != nil {
		t.Fatalf("ParseTree failed: %v", err)
	}
	if root.Kind != doclai.MappingNode || len(root.Entries) != 2 {
		t.Fatalf("unexpected root: %+v", root)
	}

	nav, ok := root.Lookup("nav")
	if !ok || nav.Kind != doclai.SequenceNode || len(nav.Items) != 2 {
		t.Fatalf("unexpected nav: %+v", nav)
	}
	if nav.Items[0].Entries[0].Key != "(ri:home-line) 首页" {
		t.Errorf("first key = %q", nav.Items[0].Entries[0].Key)
	}
	guide := nav.Items[1].Entries[0].Value
	if guide.Kind != doclai.SequenceNode || len(guide.Items) != 2 {
		t.Errorf("guide children: %+v", guide)
	}

	version, _ := root.Lookup("version")
	if version.Value != "3" || version.Tag != "!!int" {
		t.Errorf("version scalar = %q %q", version.Value, version.Tag)
	}
	if root.CountKeys() != 6 {
		t.Errorf("CountKeys = %d, want 6", root.CountKeys())
	}
}

func TestYAMLTreeParser_Empty(t *testing.T) {
	root, err := NewYAMLTreeParser().ParseTree("")
	if err != nil || root != nil {
		t.Errorf("ParseTree(\"\") = %v, %v", root, err)
	}
}

func TestYAMLTreeParser_Invalid(t *testing.T) {
	_, err := NewYAMLTreeParser().ParseTree("a: [unclosed")
	if err == nil {
		t.Fatal("expected an error")
	}
	if _, ok := err.(*doclai.ProcessorError); !ok {
		t.Errorf("expected *ProcessorError, got %T", err)
	}
}

func TestYAMLTreeParser_RenderRoundTrip(t *testing.T) {
	p := NewYAMLTreeParser()
	root, err := p.ParseTree(settingsYAML)
	if err != nil {
		t.Fatalf("ParseTree failed: %v", err)
	}
	header := p.HeaderComments(settingsYAML)
	out, err := p.RenderTree(root, header)
	if err != nil {
		t.Fatalf("RenderTree failed: %v", err)
	}
	if !strings.HasPrefix(out, "# Site navigation\n# Edit with care\n") {
		t.Errorf("header comments not preserved:\n%s", out)
	}
	if !strings.Contains(out, "version: 3\n") {
		t.Errorf("integer scalar should stay unquoted:\n%s", out)
	}

	again, err := p.ParseTree(out)
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}
	if again.CountKeys() != root.CountKeys() {
		t.Errorf("re-parsed tree has %d keys, want %d", again.CountKeys(), root.CountKeys())
	}
}

func TestYAMLTreeParser_HeaderComments(t *testing.T) {
	p := NewYAMLTreeParser()
	if got := p.HeaderComments("a: 1\n# late\n"); got != "" {
		t.Errorf("expected no header, got %q", got)
	}
	if got := p.HeaderComments("# one\n\n# two\nkey: v\n"); got != "# one\n# two\n" {
		t.Errorf("HeaderComments = %q", got)
	}
}

func TestFrontmatterFields(t *testing.T) {
	raw := "---\ntitle: 你好\ndescription: \"A: quoted\"\nlayout: doc\n---"
	fields := FrontmatterFields(raw, []string{"title", "description"})
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
	if fields[0].Key != "title" || fields[0].Value != "你好" || fields[0].Line != 1 || fields[0].Column != len("title: ") {
		t.Errorf("title field = %+v", fields[0])
	}
	if fields[1].Value != "A: quoted" {
		t.Errorf("description value = %q", fields[1].Value)
	}

	out := ReplaceFrontmatterFields(raw, fields, map[string]string{
		"title":       "Hello",
		"description": "B: also quoted",
	})
	want := "---\ntitle: Hello\ndescription: 'B: also quoted'\nlayout: doc\n---"
	if out != want {
		t.Errorf("ReplaceFrontmatterFields =\n%q\nwant\n%q", out, want)
	}
}

func TestFrontmatterFields_KeepsTrailingComment(t *testing.T) {
	raw := "---\ntitle: 你好 # note\nlayout: doc\n---"
	fields := FrontmatterFields(raw, []string{"title"})
	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}
	if fields[0].Value != "你好" || fields[0].Tail != " # note" {
		t.Errorf("title field = %+v", fields[0])
	}

	out := ReplaceFrontmatterFields(raw, fields, map[string]string{"title": "Hello"})
	if want := "---\ntitle: Hello # note\nlayout: doc\n---"; out != want {
		t.Errorf("ReplaceFrontmatterFields = %q, want %q", out, want)
	}
}

func TestFrontmatterFields_Malformed(t *testing.T) {
	if FrontmatterFields("---\n[unclosed\n---", []string{"title"}) != nil {
		t.Error("malformed frontmatter should yield no fields")
	}
	if FrontmatterFields("no delimiters", []string{"title"}) != nil {
		t.Error("missing delimiters should yield no fields")
	}
}
