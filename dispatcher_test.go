package doclai

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// scriptProvider answers with "<text>-en" and records every request.
type scriptProvider struct {
	batches    [][]string
	edits      [][]EditItem
	singles    int
	dropLast   bool  // answer batches of more than one text with one item missing
	batchErr   error // returned by every batch Translate
	emptyOnes  int   // number of blank single answers before a real one
	editAnswer func(EditItem) string
}

func (p *scriptProvider) answer(text string) string {
	return text + "-en"
}

func (p *scriptProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	p.batches = append(p.batches, append([]string(nil), req.Texts...))
	if p.batchErr != nil {
		return nil, p.batchErr
	}
	out := make([]string, len(req.Texts))
	for i, text := range req.Texts {
		out[i] = p.answer(text)
	}
	if p.dropLast && len(out) > 1 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (p *scriptProvider) Edit(ctx context.Context, req EditRequest) ([]string, error) {
	p.edits = append(p.edits, append([]EditItem(nil), req.Items...))
	out := make([]string, len(req.Items))
	for i, it := range req.Items {
		if p.editAnswer != nil {
			out[i] = p.editAnswer(it)
		} else {
			out[i] = p.answer(it.NewSource)
		}
	}
	return out, nil
}

func (p *scriptProvider) TranslateText(ctx context.Context, req TranslateRequest) (string, error) {
	p.singles++
	if p.emptyOnes > 0 {
		p.emptyOnes--
		return "  ", nil
	}
	return p.answer(req.Texts[0]), nil
}

func (p *scriptProvider) EditText(ctx context.Context, req EditRequest) (string, error) {
	p.singles++
	return p.answer(req.Items[0].NewSource), nil
}

func testDispatcher(p AIProvider, cache TranslationCache, batch int) *Dispatcher {
	cfg := DefaultEngineConfig()
	cfg.BatchSize = batch
	return NewDispatcher(p, cache, RequestOptions{TargetLang: "en"}, cfg, nil)
}

func TestDispatcher_TranslateBatchesAndDedups(t *testing.T) {
	p := &scriptProvider{}
	d := testDispatcher(p, nil, 2)

	out, err := d.Translate(context.Background(), []string{"a", "b", "a", "c", ""}, nil)
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}

	want := []string{"a-en", "b-en", "a-en", "c-en", ""}
	if strings.Join(out, ",") != strings.Join(want, ",") {
		t.Errorf("out = %v, want %v", out, want)
	}
	if len(p.batches) != 2 || len(p.batches[0]) != 2 || p.batches[1][0] != "c" {
		t.Errorf("batches = %v", p.batches)
	}
	if d.Stats.Translated != 3 || d.Stats.Calls != 2 {
		t.Errorf("stats = %+v", d.Stats)
	}
}

func TestDispatcher_CountMismatchSplitsBatch(t *testing.T) {
	p := &scriptProvider{dropLast: true}
	d := testDispatcher(p, nil, 20)

	out, err := d.Translate(context.Background(), []string{"a", "b", "c", "d"}, nil)
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if strings.Join(out, ",") != "a-en,b-en,c-en,d-en" {
		t.Errorf("out = %v", out)
	}
	// [abcd] [ab] [a] [b] [cd] [c] [d]
	if len(p.batches) != 7 {
		t.Errorf("Expected 7 batch calls, got %d: %v", len(p.batches), p.batches)
	}
}

func TestDispatcher_SingleFallback(t *testing.T) {
	p := &scriptProvider{
		batchErr:  &ResponseFormatError{Content: "not json"},
		emptyOnes: 1,
	}
	d := testDispatcher(p, nil, 20)

	out, err := d.Translate(context.Background(), []string{"a"}, []string{"Intro"})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if out[0] != "a-en" {
		t.Errorf("out = %v", out)
	}
	if p.singles != 2 {
		t.Errorf("Expected 2 single calls, got %d", p.singles)
	}
	if d.Stats.Calls != 3 {
		t.Errorf("Expected 3 calls, got %d", d.Stats.Calls)
	}
}

func TestDispatcher_SingleFallbackExhausted(t *testing.T) {
	p := &scriptProvider{
		batchErr:  &ResponseFormatError{Content: "not json"},
		emptyOnes: 10,
	}
	d := testDispatcher(p, nil, 20)

	_, err := d.Translate(context.Background(), []string{"a"}, nil)

	var te *TranslationError
	if !errors.As(err, &te) {
		t.Fatalf("Expected TranslationError, got %v", err)
	}
	if p.singles != d.cfg.SingleRetries+1 {
		t.Errorf("Expected %d single calls, got %d", d.cfg.SingleRetries+1, p.singles)
	}
}

func TestDispatcher_ProviderErrorNotSplit(t *testing.T) {
	p := &scriptProvider{batchErr: &ProviderError{Message: "unauthorized"}}
	d := testDispatcher(p, nil, 20)

	_, err := d.Translate(context.Background(), []string{"a", "b"}, nil)

	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected ProviderError, got %v", err)
	}
	if len(p.batches) != 1 {
		t.Errorf("Expected 1 batch call, got %d", len(p.batches))
	}
}

func TestDispatcher_CacheReuse(t *testing.T) {
	p := &scriptProvider{}
	cache := newSlowCache(0)

	first := testDispatcher(p, cache, 20)
	if _, err := first.Translate(context.Background(), []string{"a", "b"}, nil); err != nil {
		t.Fatal(err)
	}

	second := testDispatcher(p, cache, 20)
	out, err := second.Translate(context.Background(), []string{"b", "a"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out[0] != "b-en" || out[1] != "a-en" {
		t.Errorf("out = %v", out)
	}
	if second.Stats.Calls != 0 || second.Stats.Cached != 2 {
		t.Errorf("stats = %+v", second.Stats)
	}
	if len(p.batches) != 1 {
		t.Errorf("Expected 1 backend call overall, got %d", len(p.batches))
	}
}

func TestDispatcher_EditAcceptAndReject(t *testing.T) {
	p := &scriptProvider{}
	cache := newSlowCache(0)
	d := testDispatcher(p, cache, 20)

	items := []EditItem{
		{OldSource: "one", NewSource: "one!", OldTranslation: "uno"},
		{OldSource: "two", NewSource: "two?", OldTranslation: "dos"},
	}
	out, err := d.Edit(context.Background(), items, func(it EditItem, _ string) bool {
		return it.NewSource == "one!"
	})
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}

	if !out[0].Accepted || out[0].Text != "one!-en" {
		t.Errorf("first outcome = %+v", out[0])
	}
	if out[1].Accepted {
		t.Errorf("second outcome should be rejected: %+v", out[1])
	}
	if d.Stats.Edited != 1 || d.Stats.Rejected != 1 {
		t.Errorf("stats = %+v", d.Stats)
	}
	if _, ok := cache.Get(CacheKeyFor("en", "one!")); !ok {
		t.Error("accepted edit should be cached under the new source")
	}
	if _, ok := cache.Get(CacheKeyFor("en", "two?")); ok {
		t.Error("rejected edit must not be cached")
	}

	again, err := d.Edit(context.Background(), items[:1], nil)
	if err != nil {
		t.Fatal(err)
	}
	if !again[0].Cached || len(p.edits) != 1 {
		t.Errorf("second edit should come from cache: %+v, calls %d", again[0], len(p.edits))
	}
}
