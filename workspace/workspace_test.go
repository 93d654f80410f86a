package workspace

import (
	"testing"

	"github.com/spf13/afero"
)

func newTestLayout(t *testing.T, files map[string]string) *Layout {
	t.Helper()
	l := &Layout{
		Fs:           afero.NewMemMapFs(),
		Root:         "content",
		SourceLocale: "cn",
		Extensions:   []string{".md"},
		TreeFiles:    []string{"settings.yml"},
		Exclude:      []string{"drafts/**"},
	}
	for p, content := range files {
		if err := l.Write(p, content); err != nil {
			t.Fatal(err)
		}
	}
	return l
}

func TestLayout_Classify(t *testing.T) {
	l := newTestLayout(t, nil)

	tests := []struct {
		path string
		ok   bool
		kind Kind
		rel  string
	}{
		{"content/cn/guide/start.md", true, Document, "guide/start.md"},
		{"./content/cn/intro.MD", true, Document, "intro.MD"},
		{"content/cn/settings.yml", true, Tree, "settings.yml"},
		{"content/cn/guide/settings.yml", true, Tree, "guide/settings.yml"},
		{"content/cn/image.png", false, Document, ""},
		{"content/en/guide/start.md", false, Document, ""},
		{"content/cn/drafts/wip.md", false, Document, ""},
		{"README.md", false, Document, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			f, ok := l.Classify(tt.path)
			if ok != tt.ok {
				t.Fatalf("Classify ok = %v, want %v", ok, tt.ok)
			}
			if ok && (f.Kind != tt.kind || f.Rel != tt.rel) {
				t.Errorf("Classify = %+v", f)
			}
		})
	}
}

func TestLayout_TargetPath(t *testing.T) {
	l := newTestLayout(t, nil)
	f, _ := l.Classify("content/cn/guide/start.md")
	if got := l.TargetPath(f, "en"); got != "content/en/guide/start.md" {
		t.Errorf("TargetPath = %q", got)
	}
}

func TestLayout_Select(t *testing.T) {
	l := newTestLayout(t, nil)
	files := l.Select([]string{"content/cn/a.md", "go.mod", "content/cn/a.md", "content/cn/settings.yml"})
	if len(files) != 2 || files[1].Kind != Tree {
		t.Errorf("Select = %+v", files)
	}
}

func TestLayout_Discover(t *testing.T) {
	l := newTestLayout(t, map[string]string{
		"content/cn/b.md":          "b",
		"content/cn/a/x.md":        "x",
		"content/cn/settings.yml":  "k: v",
		"content/cn/drafts/wip.md": "wip",
		"content/en/b.md":          "b-en",
	})

	files, err := l.Discover()
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	want := []string{"content/cn/a/x.md", "content/cn/b.md", "content/cn/settings.yml"}
	if len(files) != len(want) {
		t.Fatalf("Discover = %+v", files)
	}
	for i, f := range files {
		if f.Source != want[i] {
			t.Errorf("files[%d] = %s, want %s", i, f.Source, want[i])
		}
	}
}

func TestLayout_DiscoverMissingRoot(t *testing.T) {
	files, err := newTestLayout(t, nil).Discover()
	if err != nil || len(files) != 0 {
		t.Errorf("Discover = %v, %v", files, err)
	}
}

func TestLayout_ReadWrite(t *testing.T) {
	l := newTestLayout(t, nil)

	if _, exists, err := l.Read("content/en/a.md"); err != nil || exists {
		t.Errorf("missing file: exists=%v err=%v", exists, err)
	}
	if err := l.Write("content/en/deep/a.md", "hello\n"); err != nil {
		t.Fatal(err)
	}
	got, exists, err := l.Read("content/en/deep/a.md")
	if err != nil || !exists || got != "hello\n" {
		t.Errorf("Read = %q, %v, %v", got, exists, err)
	}
}
