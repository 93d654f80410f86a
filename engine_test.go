package doclai_test

import (
	"context"
	"strings"
	"testing"

	"github.com/ZaguanLabs/doclai"
	"github.com/ZaguanLabs/doclai/cache"
	"github.com/ZaguanLabs/doclai/processor"
	"github.com/ZaguanLabs/doclai/provider"
)

func newTestEngine(p doclai.AIProvider, opts ...doclai.EngineOption) *doclai.Engine {
	base := []doclai.EngineOption{
		doclai.WithParser(processor.NewMarkdownParser()),
		doclai.WithTreeParser(processor.NewYAMLTreeParser()),
	}
	return doclai.NewEngine(p, append(base, opts...)...)
}

func translate(t *testing.T, e *doclai.Engine, src, prevSrc, prevTrans string) *doclai.ProcessedContent {
	t.Helper()
	out, err := e.TranslateDocument(context.Background(), doclai.DocumentRequest{
		Path:            "guide.md",
		TargetLang:      "en",
		Source:          src,
		PrevSource:      prevSrc,
		PrevTranslation: prevTrans,
	})
	if err != nil {
		t.Fatalf("TranslateDocument failed: %v", err)
	}
	return out
}

func assertSent(t *testing.T, p *provider.MockProvider, want ...string) {
	t.Helper()
	if strings.Join(p.Sent, "|") != strings.Join(want, "|") {
		t.Errorf("sent %q, want %q", p.Sent, want)
	}
}

func TestEngine_UnchangedSourceKeepsTranslation(t *testing.T) {
	p := provider.NewMockProvider()
	src := "# 你好\n\n世界\n"
	prev := "# Hello  \n\nWorld, edited by hand.\n"

	out := translate(t, newTestEngine(p), src, src, prev)

	if out.Content != prev {
		t.Errorf("content = %q, want %q", out.Content, prev)
	}
	if p.Calls() != 0 {
		t.Errorf("Expected no backend calls, got %d", p.Calls())
	}
}

func TestEngine_FreshDocument(t *testing.T) {
	p := provider.NewMockProvider()
	src := "# 你好\n\n世界\n\n```go\nfmt.Println(\"你好\")\n```\n"

	out := translate(t, newTestEngine(p), src, "", "")

	want := "# Hello\n\nWorld\n\n```go\nfmt.Println(\"你好\")\n```\n"
	if out.Content != want {
		t.Errorf("content = %q, want %q", out.Content, want)
	}
	assertSent(t, p, "你好", "世界")
	if p.Calls() != 1 {
		t.Errorf("Expected one batch call, got %d", p.Calls())
	}
}

func TestEngine_PureAppend(t *testing.T) {
	p := provider.NewMockProvider()
	p.Translations["B."] = "B-en."

	out := translate(t, newTestEngine(p), "A. B.\n", "A.\n", "A-en.\n")

	if out.Content != "A-en. B-en.\n" {
		t.Errorf("content = %q", out.Content)
	}
	assertSent(t, p, "B.")
	if out.SplicedCount != 1 {
		t.Errorf("Expected one splice, got %+v", out)
	}
}

func TestEngine_PurePrepend(t *testing.T) {
	p := provider.NewMockProvider()
	p.Translations["A."] = "A-en."

	out := translate(t, newTestEngine(p), "A. B.\n", "B.\n", "B-en.\n")

	if out.Content != "A-en. B-en.\n" {
		t.Errorf("content = %q", out.Content)
	}
	assertSent(t, p, "A.")
}

func TestEngine_UnrelatedRewriteIsTranslated(t *testing.T) {
	p := provider.NewMockProvider()
	prevSrc := "# Title\n\nThe cat sat on the mat.\n"
	prevTrans := "# Titre\n\nLe chat est assis sur le tapis.\n"
	src := "# Title\n\nQuantum chromodynamics explains quark binding.\n"

	out := translate(t, newTestEngine(p), src, prevSrc, prevTrans)

	want := "# Titre\n\n[Quantum chromodynamics explains quark binding.]\n"
	if out.Content != want {
		t.Errorf("content = %q, want %q", out.Content, want)
	}
	assertSent(t, p, "Quantum chromodynamics explains quark binding.")
	if out.EditedCount != 0 {
		t.Errorf("unrelated text must not be edited: %+v", out)
	}
}

func TestEngine_DriftRejectedKeepsTranslation(t *testing.T) {
	p := provider.NewMockProvider()
	newSentence := "Configure the server with four workers before starting it."
	p.Edits[newSentence] = "Il faut toujours lancer quatre processus avant toute chose."
	c := cache.NewInMemoryCache(0)

	prevTrans := "Configurez le serveur avec deux workers avant de le démarrer.\n"
	out := translate(t, newTestEngine(p, doclai.WithCache(c)),
		newSentence+"\n",
		"Configure the server with two workers before starting it.\n",
		prevTrans,
	)

	if out.Content != prevTrans {
		t.Errorf("content = %q, want previous translation", out.Content)
	}
	if out.DriftRejected != 1 || out.EditedCount != 0 {
		t.Errorf("stats = %+v", out)
	}
	assertSent(t, p, newSentence)
	if _, ok := c.Get(doclai.CacheKeyFor("en", newSentence)); ok {
		t.Error("a rejected edit must not be cached")
	}
}

func TestEngine_SentenceLevelEdit(t *testing.T) {
	p := provider.NewMockProvider()
	p.Edits["Add two apples."] = "Ajoutez deux pommes."
	p.Translations["Four."] = "Quatre."

	out := translate(t, newTestEngine(p),
		"First step. Add two apples. Third step done. Four.\n",
		"First step. Add two apple. Third step done.\n",
		"Première étape. Ajoutez deux pomme. Troisième étape faite.\n",
	)

	want := "Première étape. Ajoutez deux pommes. Troisième étape faite. Quatre.\n"
	if out.Content != want {
		t.Errorf("content = %q, want %q", out.Content, want)
	}
	if out.EditedCount != 1 || out.TranslatedCount != 1 || out.ReusedCount != 2 {
		t.Errorf("stats = %+v", out)
	}
}

func TestEngine_EditDisabledTranslatesInstead(t *testing.T) {
	p := provider.NewMockProvider()
	p.Translations["Add two apples."] = "Ajoutez deux pommes."
	cfg := doclai.DefaultEngineConfig()
	cfg.EnableEditTranslate = false

	out := translate(t, newTestEngine(p, doclai.WithConfig(cfg)),
		"First step. Add two apples. Third step done.\n",
		"First step. Add two apple. Third step done.\n",
		"Première étape. Ajoutez deux pomme. Troisième étape faite.\n",
	)

	if out.Content != "Première étape. Ajoutez deux pommes. Troisième étape faite.\n" {
		t.Errorf("content = %q", out.Content)
	}
	if out.EditedCount != 0 || out.TranslatedCount != 1 {
		t.Errorf("stats = %+v", out)
	}
}

func TestEngine_CacheReuse(t *testing.T) {
	p := provider.NewMockProvider()
	c := cache.NewInMemoryCache(0)
	e := newTestEngine(p, doclai.WithCache(c))
	src := "# 你好\n\n世界\n"

	first := translate(t, e, src, "", "")
	second := translate(t, e, src, "", "")

	if first.Content != second.Content {
		t.Errorf("cached run differs: %q vs %q", first.Content, second.Content)
	}
	if p.Calls() != 1 {
		t.Errorf("Expected exactly one backend call, got %d", p.Calls())
	}
	if second.CachedCount != 2 {
		t.Errorf("Expected 2 cached texts, got %d", second.CachedCount)
	}
}

func TestEngine_HeadingRealignment(t *testing.T) {
	p := provider.NewMockProvider()
	prevSrc := "# Alpha\n\nAlpha text.\n\n# Beta\n\nBeta text.\n"
	prevTrans := "# Alpha-en\n\nAlpha-en text.\n\n# Beta-en\n\nBeta-en text.\n"
	src := "# Alpha\n\nAlpha text.\n\n# Gamma\n\nGamma text.\n\n# Beta\n\nBeta text.\n"

	out := translate(t, newTestEngine(p), src, prevSrc, prevTrans)

	want := "# Alpha-en\n\nAlpha-en text.\n\n# [Gamma]\n\n[Gamma text.]\n\n# Beta-en\n\nBeta-en text.\n"
	if out.Content != want {
		t.Errorf("content = %q, want %q", out.Content, want)
	}
	assertSent(t, p, "Gamma", "Gamma text.")
}

func TestEngine_Frontmatter(t *testing.T) {
	p := provider.NewMockProvider()
	p.Translations["新描述"] = "New description"
	yml := processor.NewYAMLTreeParser()
	e := newTestEngine(p, doclai.WithFrontmatter(yml, "title", "description"))

	out := translate(t, e,
		"---\ntitle: 你好\nlayout: page\ndescription: 新描述\n---\n\n正文。\n",
		"---\ntitle: 你好\nlayout: doc\n---\n\n正文。\n",
		"---\ntitle: Hello\nlayout: doc\n---\n\nBody.\n",
	)

	want := "---\ntitle: Hello\nlayout: page\ndescription: New description\n---\n\nBody.\n"
	if out.Content != want {
		t.Errorf("content = %q, want %q", out.Content, want)
	}
	assertSent(t, p, "新描述")
}

func TestEngine_SourceLanguageTarget(t *testing.T) {
	p := provider.NewMockProvider()
	out, err := newTestEngine(p).TranslateDocument(context.Background(), doclai.DocumentRequest{
		TargetLang: "zh",
		Source:     "你好\n",
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Content != "你好\n" || p.Calls() != 0 {
		t.Errorf("source language should be copied, got %q with %d calls", out.Content, p.Calls())
	}
}

func TestEngine_NoParser(t *testing.T) {
	e := doclai.NewEngine(provider.NewMockProvider())
	_, err := e.TranslateDocument(context.Background(), doclai.DocumentRequest{TargetLang: "en", Source: "x"})
	if err == nil {
		t.Error("Expected an error without a parser")
	}
}

func TestEngine_TranslateTree(t *testing.T) {
	p := provider.NewMockProvider()
	p.Translations["新页面"] = "New Page"

	out, err := newTestEngine(p).TranslateTree(context.Background(), doclai.TreeRequest{
		Path:            "settings.yml",
		TargetLang:      "en",
		Source:          "# Navigation\n(ri:home-line) 首页: /\n指南:\n  开始: /guide/start\n  新页面: /guide/new\n",
		PrevSource:      "(ri:home-line) 首页: /\n指南:\n  开始: /guide/start\n",
		PrevTranslation: "(ri:home-line) Home: /\nGuide:\n  Getting Started: /guide/start\n",
	})
	if err != nil {
		t.Fatalf("TranslateTree failed: %v", err)
	}

	if !strings.HasPrefix(out.Content, "# Navigation") {
		t.Errorf("header comment lost:\n%s", out.Content)
	}
	for _, want := range []string{"Home", "Guide:", "Getting Started: /guide/start", "New Page: /guide/new"} {
		if !strings.Contains(out.Content, want) {
			t.Errorf("output missing %q:\n%s", want, out.Content)
		}
	}
	assertSent(t, p, "新页面")
	if out.ReusedCount != 3 || out.TranslatedCount != 1 {
		t.Errorf("stats = %+v", out)
	}
}

func TestEngine_Plan(t *testing.T) {
	e := newTestEngine(provider.NewMockProvider())

	diff, err := e.Plan("# A\n\nOld text here.\n", "# A\n\nOld text here.\n\nNew text.\n")
	if err != nil {
		t.Fatal(err)
	}
	stats := diff.Stats()
	if stats.Unchanged != 2 || stats.Added != 1 || stats.Removed != 0 {
		t.Errorf("stats = %+v", stats)
	}
}
