package doclai

import (
	"context"
	"strings"

	"github.com/ZaguanLabs/doclai/logger"
)

// DispatchStats counts the backend work resolved by a Dispatcher.
type DispatchStats struct {
	Translated int // Texts answered by a fresh translation
	Edited     int // Edits accepted by the caller
	Cached     int // Texts or edits answered from the cache
	Rejected   int // Edits refused by the accept callback
	Calls      int // Backend requests issued
}

// EditOutcome is the result of one edit job.
type EditOutcome struct {
	Text     string
	Accepted bool
	Cached   bool
}

// Dispatcher resolves translate and edit jobs for one target language:
// cache lookup, deduplication, batching, and recovery from malformed
// batch responses by splitting the batch.
type Dispatcher struct {
	provider AIProvider
	cache    TranslationCache
	opts     RequestOptions
	cfg      EngineConfig
	log      logger.Logger

	Stats DispatchStats
}

// NewDispatcher creates a dispatcher. cache may be nil.
func NewDispatcher(provider AIProvider, cache TranslationCache, opts RequestOptions, cfg EngineConfig, log logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultEngineConfig().BatchSize
	}
	return &Dispatcher{
		provider: provider,
		cache:    cache,
		opts:     opts,
		cfg:      cfg,
		log:      log,
	}
}

func (d *Dispatcher) lookup(texts []string) (map[string]string, []string) {
	if d.cfg.ParallelLookupThreshold > 0 && len(texts) >= d.cfg.ParallelLookupThreshold {
		return ParallelCacheLookup(d.cache, texts, d.opts.TargetLang)
	}
	return CacheLookup(d.cache, texts, d.opts.TargetLang)
}

func (d *Dispatcher) store(text, trans string) {
	if d.cache == nil {
		return
	}
	if err := d.cache.Set(CacheKeyFor(d.opts.TargetLang, text), CacheEntry{Text: text, Trans: trans}); err != nil {
		d.log.Warn("cache write failed", "lang", d.opts.TargetLang, "error", err)
	}
}

// Translate returns one translation per text, in order. contexts is
// optional and supplies the heading path of each text. Blank texts are
// returned unchanged.
func (d *Dispatcher) Translate(ctx context.Context, texts, contexts []string) ([]string, error) {
	out := make([]string, len(texts))
	var pending []string
	ctxOf := make(map[string]string)
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			out[i] = text
			continue
		}
		pending = append(pending, text)
		if i < len(contexts) {
			if _, ok := ctxOf[text]; !ok {
				ctxOf[text] = contexts[i]
			}
		}
	}

	resolved, misses := d.lookup(pending)
	for _, text := range pending {
		if _, ok := resolved[text]; ok {
			d.Stats.Cached++
		}
	}

	for start := 0; start < len(misses); start += d.cfg.BatchSize {
		chunk := misses[start:min(start+d.cfg.BatchSize, len(misses))]
		chunkCtx := make([]string, len(chunk))
		for i, text := range chunk {
			chunkCtx[i] = ctxOf[text]
		}
		results, err := d.translateChunk(ctx, chunk, chunkCtx)
		if err != nil {
			return nil, err
		}
		for i, text := range chunk {
			resolved[text] = results[i]
			d.store(text, results[i])
		}
		d.Stats.Translated += len(chunk)
	}

	for i, text := range texts {
		if trans, ok := resolved[text]; ok {
			out[i] = trans
		}
	}
	return out, nil
}

func (d *Dispatcher) translateChunk(ctx context.Context, texts, contexts []string) ([]string, error) {
	d.Stats.Calls++
	results, err := d.provider.Translate(ctx, TranslateRequest{
		RequestOptions: d.opts,
		Texts:          texts,
		TextContexts:   contexts,
	})
	if err == nil && len(results) != len(texts) {
		err = &CountMismatchError{Expected: len(texts), Got: len(results)}
	}
	if err == nil {
		return results, nil
	}
	if !IsProtocolError(err) {
		return nil, err
	}

	if len(texts) == 1 {
		d.log.Debug("falling back to single translation", "lang", d.opts.TargetLang, "error", err)
		single, err := d.translateSingle(ctx, texts[0], contexts[0])
		if err != nil {
			return nil, err
		}
		return []string{single}, nil
	}

	mid := len(texts) / 2
	d.log.Debug("splitting batch", "lang", d.opts.TargetLang, "size", len(texts), "error", err)
	left, err := d.translateChunk(ctx, texts[:mid], contexts[:mid])
	if err != nil {
		return nil, err
	}
	right, err := d.translateChunk(ctx, texts[mid:], contexts[mid:])
	if err != nil {
		return nil, err
	}
	return append(left, right...), nil
}

func (d *Dispatcher) translateSingle(ctx context.Context, text, textCtx string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= d.cfg.SingleRetries; attempt++ {
		d.Stats.Calls++
		out, err := d.provider.TranslateText(ctx, TranslateRequest{
			RequestOptions: d.opts,
			Texts:          []string{text},
			TextContexts:   []string{textCtx},
		})
		if err == nil && strings.TrimSpace(out) != "" {
			return out, nil
		}
		if err == nil {
			err = &ResponseFormatError{Content: out}
		}
		if !IsProtocolError(err) {
			return "", err
		}
		lastErr = err
	}
	return "", &TranslationError{Message: "single translation failed", Cause: lastErr}
}

// Edit resolves edit jobs. accept is consulted for every backend answer
// (not for cache hits); only accepted answers are cached, under the new
// source text. A nil accept keeps every answer.
func (d *Dispatcher) Edit(ctx context.Context, items []EditItem, accept func(EditItem, string) bool) ([]EditOutcome, error) {
	out := make([]EditOutcome, len(items))
	var pending []int
	for i, it := range items {
		if strings.TrimSpace(it.NewSource) == "" {
			out[i] = EditOutcome{Text: it.NewSource, Accepted: true}
			continue
		}
		if d.cache != nil {
			if entry, ok := d.cache.Get(CacheKeyFor(d.opts.TargetLang, it.NewSource)); ok && entryMatches(entry, it.NewSource) {
				out[i] = EditOutcome{Text: entry.Trans, Accepted: true, Cached: true}
				d.Stats.Cached++
				continue
			}
		}
		pending = append(pending, i)
	}

	for start := 0; start < len(pending); start += d.cfg.BatchSize {
		idx := pending[start:min(start+d.cfg.BatchSize, len(pending))]
		chunk := make([]EditItem, len(idx))
		for i, j := range idx {
			chunk[i] = items[j]
		}
		results, err := d.editChunk(ctx, chunk)
		if err != nil {
			return nil, err
		}
		for i, j := range idx {
			ok := accept == nil || accept(items[j], results[i])
			out[j] = EditOutcome{Text: results[i], Accepted: ok}
			if ok {
				d.Stats.Edited++
				d.store(items[j].NewSource, results[i])
			} else {
				d.Stats.Rejected++
			}
		}
	}
	return out, nil
}

func (d *Dispatcher) editChunk(ctx context.Context, items []EditItem) ([]string, error) {
	d.Stats.Calls++
	results, err := d.provider.Edit(ctx, EditRequest{RequestOptions: d.opts, Items: items})
	if err == nil && len(results) != len(items) {
		err = &CountMismatchError{Expected: len(items), Got: len(results)}
	}
	if err == nil {
		return results, nil
	}
	if !IsProtocolError(err) {
		return nil, err
	}

	if len(items) == 1 {
		d.log.Debug("falling back to single edit", "lang", d.opts.TargetLang, "error", err)
		single, err := d.editSingle(ctx, items[0])
		if err != nil {
			return nil, err
		}
		return []string{single}, nil
	}

	mid := len(items) / 2
	left, err := d.editChunk(ctx, items[:mid])
	if err != nil {
		return nil, err
	}
	right, err := d.editChunk(ctx, items[mid:])
	if err != nil {
		return nil, err
	}
	return append(left, right...), nil
}

func (d *Dispatcher) editSingle(ctx context.Context, item EditItem) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= d.cfg.SingleRetries; attempt++ {
		d.Stats.Calls++
		out, err := d.provider.EditText(ctx, EditRequest{RequestOptions: d.opts, Items: []EditItem{item}})
		if err == nil && strings.TrimSpace(out) != "" {
			return out, nil
		}
		if err == nil {
			err = &ResponseFormatError{Content: out}
		}
		if !IsProtocolError(err) {
			return "", err
		}
		lastErr = err
	}
	return "", &TranslationError{Message: "single edit failed", Cause: lastErr}
}
