package doclai

import (
	"context"

	"github.com/ZaguanLabs/doclai/logger"
)

// FrontmatterField is a single-line scalar value of a frontmatter block.
type FrontmatterField struct {
	Key    string
	Value  string
	Line   int    // Line index within the frontmatter block
	Column int    // Byte column of the value on that line
	Tail   string // Bytes after the value on that line, e.g. " # note"
}

// FrontmatterCodec reads and rewrites translatable frontmatter fields.
type FrontmatterCodec interface {
	FrontmatterFields(raw string, keys []string) []FrontmatterField
	ReplaceFrontmatterFields(raw string, fields []FrontmatterField, values map[string]string) string
}

// Engine translates documents and navigation trees incrementally against
// their previous revision and its translation.
type Engine struct {
	provider AIProvider
	cache    TranslationCache
	parser   Parser
	tree     TreeParser
	fm       FrontmatterCodec
	fmKeys   []string
	cfg      EngineConfig
	log      logger.Logger
	opts     RequestOptions
}

// EngineOption is a functional option for configuring the Engine.
type EngineOption func(*Engine)

// WithCache sets the translation cache.
func WithCache(cache TranslationCache) EngineOption {
	return func(e *Engine) {
		e.cache = cache
	}
}

// WithParser sets the document parser.
func WithParser(p Parser) EngineOption {
	return func(e *Engine) {
		e.parser = p
	}
}

// WithTreeParser sets the parser used by TranslateTree.
func WithTreeParser(p TreeParser) EngineOption {
	return func(e *Engine) {
		e.tree = p
	}
}

// WithFrontmatter enables translation of the frontmatter fields named by keys.
func WithFrontmatter(codec FrontmatterCodec, keys ...string) EngineOption {
	return func(e *Engine) {
		e.fm = codec
		e.fmKeys = keys
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithConfig replaces the engine tunables.
func WithConfig(cfg EngineConfig) EngineOption {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithSourceLang sets the source language.
func WithSourceLang(lang string) EngineOption {
	return func(e *Engine) {
		e.opts.SourceLang = lang
	}
}

// WithExcludedTerms sets terms that should not be translated.
func WithExcludedTerms(terms []string) EngineOption {
	return func(e *Engine) {
		e.opts.ExcludedTerms = terms
	}
}

// WithContext sets the global translation context.
func WithContext(ctx string) EngineOption {
	return func(e *Engine) {
		e.opts.Context = ctx
	}
}

// WithGlossary sets preferred translations for specific phrases.
func WithGlossary(glossary map[string]string) EngineOption {
	return func(e *Engine) {
		e.opts.Glossary = glossary
	}
}

// WithStyle sets the translation style/register.
func WithStyle(style TranslationStyle) EngineOption {
	return func(e *Engine) {
		e.opts.Style = style
	}
}

// NewEngine creates an Engine backed by provider.
func NewEngine(provider AIProvider, opts ...EngineOption) *Engine {
	e := &Engine{
		provider: provider,
		cfg:      DefaultEngineConfig(),
		log:      logger.NewNop(),
		opts: RequestOptions{
			SourceLang: "zh",
			Style:      StyleTechnical,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the engine tunables.
func (e *Engine) Config() EngineConfig {
	return e.cfg
}

// SourceLang returns the source language.
func (e *Engine) SourceLang() string {
	return e.opts.SourceLang
}

// IsSourceLang reports whether lang is the source language, in which case
// no translation is needed.
func (e *Engine) IsSourceLang(lang string) bool {
	return normalizeBaseLang(lang) == normalizeBaseLang(e.opts.SourceLang)
}

func (e *Engine) dispatcher(lang string) *Dispatcher {
	opts := e.opts
	opts.TargetLang = lang
	return NewDispatcher(e.provider, e.cache, opts, e.cfg, e.log)
}

// DocumentRequest describes one document translation.
type DocumentRequest struct {
	Path            string // Used in log output only
	TargetLang      string
	Source          string // New source revision
	PrevSource      string // Previous source revision ("" when new)
	PrevTranslation string // Translation of PrevSource ("" when none)
}

// TreeRequest describes one navigation tree translation.
type TreeRequest struct {
	Path            string
	TargetLang      string
	Source          string
	PrevSource      string
	PrevTranslation string
}

// TranslateDocument translates req.Source, reusing req.PrevTranslation for
// every block and sentence that did not change since req.PrevSource.
func (e *Engine) TranslateDocument(ctx context.Context, req DocumentRequest) (*ProcessedContent, error) {
	if e.parser == nil {
		return nil, &ProcessorError{Message: "no document parser configured", ContentType: "markdown"}
	}
	if e.IsSourceLang(req.TargetLang) {
		return &ProcessedContent{Content: req.Source}, nil
	}

	run := newDocumentRun(e, req)
	out, err := run.translate(ctx)
	if err != nil {
		return nil, err
	}

	e.log.Info("document translated",
		"file", req.Path,
		"lang", req.TargetLang,
		"blocks", out.TotalBlocks,
		"reused", out.ReusedCount,
		"translated", out.TranslatedCount,
		"edited", out.EditedCount,
		"spliced", out.SplicedCount,
		"cached", out.CachedCount,
		"drift_rejected", out.DriftRejected,
	)
	return out, nil
}

// TranslateTree translates the keys of a navigation tree, reusing the
// translated key of every key that already existed at the same path.
func (e *Engine) TranslateTree(ctx context.Context, req TreeRequest) (*ProcessedContent, error) {
	if e.tree == nil {
		return nil, &ProcessorError{Message: "no tree parser configured", ContentType: "yaml"}
	}
	if e.IsSourceLang(req.TargetLang) {
		return &ProcessedContent{Content: req.Source}, nil
	}

	newTree, err := e.tree.ParseTree(req.Source)
	if err != nil {
		return nil, err
	}
	oldTree, err := e.tree.ParseTree(req.PrevSource)
	if err != nil {
		e.log.Warn("previous tree unreadable, translating all keys", "file", req.Path, "error", err)
		oldTree = nil
	}
	transTree, err := e.tree.ParseTree(req.PrevTranslation)
	if err != nil {
		e.log.Warn("previous translation unreadable, translating all keys", "file", req.Path, "error", err)
		transTree = nil
	}

	kp := NewKeyPathTranslator(e.dispatcher(req.TargetLang))
	translated, stats, err := kp.Translate(ctx, newTree, oldTree, transTree)
	if err != nil {
		return nil, err
	}

	content, err := e.tree.RenderTree(translated, e.tree.HeaderComments(req.Source))
	if err != nil {
		return nil, err
	}
	stats.Content = content

	e.log.Info("tree translated",
		"file", req.Path,
		"lang", req.TargetLang,
		"keys", stats.TotalBlocks,
		"reused", stats.ReusedCount,
		"translated", stats.TranslatedCount,
		"cached", stats.CachedCount,
	)
	return stats, nil
}
