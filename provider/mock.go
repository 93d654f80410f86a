package provider

import (
	"context"
	"fmt"
	"sync"
)

// MockProvider is a mock AI provider for testing. It is safe for
// concurrent use.
type MockProvider struct {
	Translations map[string]string // Source text to translation
	Edits        map[string]string // New source text to edited translation

	mu        sync.Mutex
	CallCount int      // Number of backend calls of any kind
	Sent      []string // Every text or new source received, in order
}

// NewMockProvider creates a new mock provider with a few default translations.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Translations: map[string]string{
			"你好":    "Hello",
			"世界":    "World",
			"你好世界":  "Hello World",
			"欢迎使用。": "Welcome.",
		},
		Edits: map[string]string{},
	}
}

func (m *MockProvider) record(texts ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount++
	m.Sent = append(m.Sent, texts...)
}

func (m *MockProvider) translate(text string) string {
	if t, ok := m.Translations[text]; ok {
		return t
	}
	// Unknown texts come back bracketed.
	return fmt.Sprintf("[%s]", text)
}

func (m *MockProvider) edit(it EditItem) string {
	if t, ok := m.Edits[it.NewSource]; ok {
		return t
	}
	return m.translate(it.NewSource)
}

// Translate returns mock translations.
func (m *MockProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	m.record(req.Texts...)
	results := make([]string, len(req.Texts))
	for i, text := range req.Texts {
		results[i] = m.translate(text)
	}
	return results, nil
}

// Edit returns mock edits.
func (m *MockProvider) Edit(ctx context.Context, req EditRequest) ([]string, error) {
	sources := make([]string, len(req.Items))
	results := make([]string, len(req.Items))
	for i, it := range req.Items {
		sources[i] = it.NewSource
		results[i] = m.edit(it)
	}
	m.record(sources...)
	return results, nil
}

// TranslateText returns the mock translation of req.Texts[0].
func (m *MockProvider) TranslateText(ctx context.Context, req TranslateRequest) (string, error) {
	if len(req.Texts) == 0 {
		return "", nil
	}
	m.record(req.Texts[0])
	return m.translate(req.Texts[0]), nil
}

// EditText returns the mock edit of req.Items[0].
func (m *MockProvider) EditText(ctx context.Context, req EditRequest) (string, error) {
	if len(req.Items) == 0 {
		return "", nil
	}
	m.record(req.Items[0].NewSource)
	return m.edit(req.Items[0]), nil
}

// Calls returns the number of backend calls so far.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// Reset clears the call log.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount = 0
	m.Sent = nil
}

// Verify MockProvider implements AIProvider
var _ AIProvider = (*MockProvider)(nil)
