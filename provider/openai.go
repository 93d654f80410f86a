package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"

	"github.com/ZaguanLabs/doclai"
)

const (
	// DefaultBaseURL is the OpenAI-compatible endpoint used when none is set.
	DefaultBaseURL = "https://api.deepseek.com"
	// DefaultModel is the chat model used when none is set.
	DefaultModel = "deepseek-chat"
	// DefaultTemperature keeps translations close to deterministic.
	DefaultTemperature = 0.1
)

// OpenAIProvider implements AIProvider on any OpenAI-compatible chat API.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	temperature float32
	jsonMode    bool
}

// OpenAIConfig holds configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey      string  // API key
	Model       string  // Model to use (default: "deepseek-chat")
	Temperature float32 // Temperature for generation (default: 0.1)
	BaseURL     string  // API base URL (default: "https://api.deepseek.com")
	JSONMode    bool    // Request a JSON object response format
}

// NewOpenAIProvider creates a new OpenAI-compatible provider.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = cfg.BaseURL
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		temperature: temperature,
		jsonMode:    cfg.JSONMode,
	}
}

// Model returns the configured model name.
func (p *OpenAIProvider) Model() string {
	return p.model
}

// Translate translates a batch of texts. The response must be a JSON array
// with one string per input.
func (p *OpenAIProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	if len(req.Texts) == 0 {
		return []string{}, nil
	}
	content, err := p.complete(ctx, p.buildSystemPrompt(req.RequestOptions, taskTranslateBatch), p.buildUserMessage(req), true)
	if err != nil {
		return nil, err
	}
	return p.parseResponse(content, len(req.Texts))
}

// Edit applies minimal-diff edits to a batch of previous translations.
func (p *OpenAIProvider) Edit(ctx context.Context, req EditRequest) ([]string, error) {
	if len(req.Items) == 0 {
		return []string{}, nil
	}
	data, err := json.Marshal(req.Items)
	if err != nil {
		return nil, &doclai.TranslationError{Message: "failed to encode edit items", Cause: err}
	}
	content, err := p.complete(ctx, p.buildSystemPrompt(req.RequestOptions, taskEditBatch), string(data), true)
	if err != nil {
		return nil, err
	}
	return p.parseResponse(content, len(req.Items))
}

// TranslateText translates req.Texts[0] and returns plain text.
func (p *OpenAIProvider) TranslateText(ctx context.Context, req TranslateRequest) (string, error) {
	if len(req.Texts) == 0 {
		return "", nil
	}
	content, err := p.complete(ctx, p.buildSystemPrompt(req.RequestOptions, taskTranslateOne), req.Texts[0], false)
	if err != nil {
		return "", err
	}
	return unfence(content), nil
}

// EditText edits req.Items[0] and returns plain text.
func (p *OpenAIProvider) EditText(ctx context.Context, req EditRequest) (string, error) {
	if len(req.Items) == 0 {
		return "", nil
	}
	data, err := json.Marshal(req.Items[0])
	if err != nil {
		return "", &doclai.TranslationError{Message: "failed to encode edit item", Cause: err}
	}
	content, err := p.complete(ctx, p.buildSystemPrompt(req.RequestOptions, taskEditOne), string(data), false)
	if err != nil {
		return "", err
	}
	return unfence(content), nil
}

func (p *OpenAIProvider) complete(ctx context.Context, system, user string, batch bool) (string, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: p.temperature,
	}
	if batch && p.jsonMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", &doclai.ProviderError{
			Message:   "chat completion failed",
			Cause:     err,
			Retryable: isRetryableError(err),
		}
	}
	if len(resp.Choices) == 0 {
		return "", &doclai.ProviderError{
			Message:   "no choices in response",
			Retryable: true,
		}
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (p *OpenAIProvider) buildUserMessage(req TranslateRequest) string {
	hasContexts := false
	for _, ctx := range req.TextContexts {
		if ctx != "" {
			hasContexts = true
			break
		}
	}

	if !hasContexts {
		data, _ := json.Marshal(req.Texts)
		return string(data)
	}

	type item struct {
		Text    string `json:"text"`
		Context string `json:"context,omitempty"`
	}
	items := make([]item, len(req.Texts))
	for i, text := range req.Texts {
		items[i].Text = text
		if i < len(req.TextContexts) {
			items[i].Context = req.TextContexts[i]
		}
	}
	data, _ := json.Marshal(map[string][]item{"items": items})
	return string(data)
}

// parseResponse extracts the translations array from a batch response.
// Accepted shapes: a bare array, {"translations": [...]}, or an object
// whose first array value holds the strings. Markdown fences are removed.
func (p *OpenAIProvider) parseResponse(content string, expectedCount int) ([]string, error) {
	content = unfence(content)
	if !gjson.Valid(content) {
		return nil, &doclai.ResponseFormatError{Content: truncate(content, 200), Cause: errors.New("response is not valid JSON")}
	}

	root := gjson.Parse(content)
	var arr gjson.Result
	switch {
	case root.IsArray():
		arr = root
	case root.IsObject():
		if t := root.Get("translations"); t.IsArray() {
			arr = t
			break
		}
		root.ForEach(func(_, v gjson.Result) bool {
			if v.IsArray() {
				arr = v
				return false
			}
			return true
		})
	}
	if !arr.IsArray() {
		return nil, &doclai.ResponseFormatError{Content: truncate(content, 200), Cause: errors.New("no array in response")}
	}

	items := arr.Array()
	result := make([]string, len(items))
	for i, v := range items {
		if v.Type != gjson.String {
			return nil, &doclai.ResponseFormatError{
				Content: truncate(content, 200),
				Cause:   fmt.Errorf("element %d is %s, not a string", i, v.Type),
			}
		}
		result[i] = v.Str
	}
	if len(result) != expectedCount {
		return nil, &doclai.CountMismatchError{Expected: expectedCount, Got: len(result)}
	}
	return result, nil
}

// unfence strips a surrounding ``` or ```json code fence.
func unfence(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], " \t\"[{") {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func isRetryableError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == 429 || reqErr.HTTPStatusCode >= 500
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{"rate limit", "timeout", "connection refused", "connection reset", "temporary", "eof"} {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// Verify OpenAIProvider implements AIProvider
var _ AIProvider = (*OpenAIProvider)(nil)
