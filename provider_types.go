package doclai

import "context"

// RequestOptions carries the settings shared by every backend request.
type RequestOptions struct {
	TargetLang    string
	SourceLang    string
	ExcludedTerms []string
	Context       string
	Glossary      map[string]string
	Style         TranslationStyle
}

// TranslateRequest asks for fresh translations of Texts.
type TranslateRequest struct {
	RequestOptions
	Texts        []string
	TextContexts []string // Optional per-text context (enclosing heading path)
}

// EditItem asks the backend to adjust OldTranslation so it translates
// NewSource, changing as little as possible.
type EditItem struct {
	OldSource      string `json:"old_source"`
	NewSource      string `json:"new_source"`
	OldTranslation string `json:"old_translation"`
}

// EditRequest asks for minimal-diff re-translations of Items.
type EditRequest struct {
	RequestOptions
	Items []EditItem
}

// AIProvider is the interface for AI translation backends.
//
// Translate and Edit are batch calls: the result must hold exactly one
// string per input, in order, or the call fails with *CountMismatchError or
// *ResponseFormatError. TranslateText and EditText handle a single item
// (Texts[0] / Items[0]) as plain text and are used as a fallback.
type AIProvider interface {
	Translate(ctx context.Context, req TranslateRequest) ([]string, error)
	Edit(ctx context.Context, req EditRequest) ([]string, error)
	TranslateText(ctx context.Context, req TranslateRequest) (string, error)
	EditText(ctx context.Context, req EditRequest) (string, error)
}

// CacheEntry is a persisted translation.
type CacheEntry struct {
	Text  string `json:"text"`
	Trans string `json:"trans"`
}

// TranslationCache is the interface for translation caching.
// Keys have the form "{lang}:{md5(text)}" (see CacheKeyFor).
type TranslationCache interface {
	Get(key string) (CacheEntry, bool)
	Set(key string, entry CacheEntry) error
}

// FlushableCache is a cache that buffers writes until Flush.
type FlushableCache interface {
	TranslationCache
	Flush() error
}
