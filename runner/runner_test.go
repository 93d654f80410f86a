package runner

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/spf13/afero"

	"github.com/ZaguanLabs/doclai"
	"github.com/ZaguanLabs/doclai/processor"
	"github.com/ZaguanLabs/doclai/provider"
	"github.com/ZaguanLabs/doclai/workspace"
)

type mapRevisions map[string]string

func (m mapRevisions) Show(rev, path string) (string, bool, error) {
	content, ok := m[path]
	return content, ok, nil
}

// failingProvider fails any batch containing poison.
type failingProvider struct {
	*provider.MockProvider
	poison string
}

func (p *failingProvider) Translate(ctx context.Context, req doclai.TranslateRequest) ([]string, error) {
	if slices.Contains(req.Texts, p.poison) {
		return nil, &doclai.ProviderError{Message: "rejected", Retryable: false}
	}
	return p.MockProvider.Translate(ctx, req)
}

func newTestRunner(t *testing.T, p doclai.AIProvider, files map[string]string, opts ...Option) (*Runner, *workspace.Layout) {
	t.Helper()
	layout := &workspace.Layout{
		Fs:           afero.NewMemMapFs(),
		Root:         "content",
		SourceLocale: "cn",
		Extensions:   []string{".md"},
		TreeFiles:    []string{"settings.yml"},
	}
	for path, content := range files {
		if err := layout.Write(path, content); err != nil {
			t.Fatal(err)
		}
	}
	engine := doclai.NewEngine(p,
		doclai.WithParser(processor.NewMarkdownParser()),
		doclai.WithTreeParser(processor.NewYAMLTreeParser()),
	)
	return New(engine, layout, opts...), layout
}

func read(t *testing.T, l *workspace.Layout, path string) string {
	t.Helper()
	content, exists, err := l.Read(path)
	if err != nil || !exists {
		t.Fatalf("read %s: exists=%v err=%v", path, exists, err)
	}
	return content
}

func TestRunner_TranslatesDocumentsAndTrees(t *testing.T) {
	p := provider.NewMockProvider()
	p.Translations["指南"] = "Guide"
	r, layout := newTestRunner(t, p, map[string]string{
		"content/cn/a.md":         "# 你好\n\n世界\n",
		"content/cn/settings.yml": "指南: /guide\n",
	}, WithConcurrency(2))

	files := layout.Select([]string{"content/cn/a.md", "content/cn/settings.yml"})
	report, err := r.Run(context.Background(), files, []string{"en", "zh"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(report.Results) != 2 {
		t.Fatalf("Expected 2 jobs (source language skipped), got %d", len(report.Results))
	}
	if err := report.Err(); err != nil {
		t.Errorf("unexpected failures: %v", err)
	}
	if got := read(t, layout, "content/en/a.md"); got != "# Hello\n\nWorld\n" {
		t.Errorf("en/a.md = %q", got)
	}
	if got := read(t, layout, "content/en/settings.yml"); got != "Guide: /guide\n" {
		t.Errorf("en/settings.yml = %q", got)
	}
	if totals := report.Totals(); totals.TranslatedCount != 3 {
		t.Errorf("totals = %+v", totals)
	}
}

func TestRunner_IncrementalFromRevision(t *testing.T) {
	p := provider.NewMockProvider()
	p.Translations["新段落。"] = "New paragraph."
	revs := mapRevisions{"content/cn/a.md": "# 你好\n\n世界\n"}
	r, layout := newTestRunner(t, p, map[string]string{
		"content/cn/a.md": "# 你好\n\n世界\n\n新段落。\n",
		"content/en/a.md": "# Hello there\n\nWorld, polished.\n",
	}, WithRevisions(revs, "HEAD^"))

	files := layout.Select([]string{"content/cn/a.md"})
	if _, err := r.Run(context.Background(), files, []string{"en"}); err != nil {
		t.Fatal(err)
	}

	want := "# Hello there\n\nWorld, polished.\n\nNew paragraph.\n"
	if got := read(t, layout, "content/en/a.md"); got != want {
		t.Errorf("en/a.md = %q, want %q", got, want)
	}
	if len(p.Sent) != 1 || p.Sent[0] != "新段落。" {
		t.Errorf("sent = %q", p.Sent)
	}
}

func TestRunner_FailureDoesNotStopOthers(t *testing.T) {
	p := &failingProvider{MockProvider: provider.NewMockProvider(), poison: "坏"}
	r, layout := newTestRunner(t, p, map[string]string{
		"content/cn/bad.md":  "坏\n",
		"content/cn/good.md": "你好\n",
	})

	files := layout.Select([]string{"content/cn/bad.md", "content/cn/good.md"})
	report, err := r.Run(context.Background(), files, []string{"en"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	failed := report.Failed()
	if len(failed) != 1 {
		t.Fatalf("Expected one failure, got %+v", failed)
	}
	var fe *doclai.FileError
	if !errors.As(failed[0].Err, &fe) || fe.Path != "content/cn/bad.md" || fe.Lang != "en" {
		t.Errorf("failure = %v", failed[0].Err)
	}
	if got := read(t, layout, "content/en/good.md"); got != "Hello\n" {
		t.Errorf("en/good.md = %q", got)
	}
	if _, exists, _ := layout.Read("content/en/bad.md"); exists {
		t.Error("failed file must not be written")
	}
}

func TestRunner_DryRun(t *testing.T) {
	r, layout := newTestRunner(t, provider.NewMockProvider(), map[string]string{
		"content/cn/a.md": "你好\n",
	}, WithDryRun(true))

	report, err := r.Run(context.Background(), layout.Select([]string{"content/cn/a.md"}), []string{"en"})
	if err != nil {
		t.Fatal(err)
	}
	if report.Results[0].Stats == nil || report.Results[0].Stats.Content != "Hello\n" {
		t.Errorf("result = %+v", report.Results[0])
	}
	if _, exists, _ := layout.Read("content/en/a.md"); exists {
		t.Error("dry run must not write")
	}
}

func TestRunner_MissingSourceSkipped(t *testing.T) {
	p := provider.NewMockProvider()
	r, layout := newTestRunner(t, p, nil)

	report, err := r.Run(context.Background(), layout.Select([]string{"content/cn/gone.md"}), []string{"en"})
	if err != nil {
		t.Fatal(err)
	}
	if report.Err() != nil || p.Calls() != 0 {
		t.Errorf("report = %+v, calls = %d", report, p.Calls())
	}
}

func TestRunner_Cancelled(t *testing.T) {
	r, layout := newTestRunner(t, provider.NewMockProvider(), map[string]string{
		"content/cn/a.md": "你好\n",
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Run(ctx, layout.Select([]string{"content/cn/a.md"}), []string{"en"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
