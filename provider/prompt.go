package provider

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ZaguanLabs/doclai"
)

type task int

const (
	taskTranslateBatch task = iota
	taskEditBatch
	taskTranslateOne
	taskEditOne
)

// StyleDescription describes a translation register for the prompt.
func StyleDescription(style doclai.TranslationStyle) string {
	switch style {
	case doclai.StyleFormal:
		return "Use a formal, professional register suitable for official documents."
	case doclai.StyleTechnical:
		return "Use precise technical language. Keep product names, API names and identifiers unchanged."
	default:
		return "Use a neutral, professional tone."
	}
}

func (p *OpenAIProvider) buildSystemPrompt(opts doclai.RequestOptions, t task) string {
	sourceName := doclai.GetLanguageName(opts.SourceLang)
	if opts.SourceLang == "" {
		sourceName = "Chinese"
	}
	targetName := doclai.GetLanguageName(opts.TargetLang)

	var b strings.Builder
	fmt.Fprintf(&b, "You are a professional technical documentation translator from %s to %s.\n", sourceName, targetName)
	if opts.Context != "" {
		fmt.Fprintf(&b, "The documentation is for: %s.\n", opts.Context)
	}
	b.WriteString(StyleDescription(opts.Style))
	b.WriteString("\n\nRules:\n")
	b.WriteString("1. PRESERVE all Markdown formatting (links, inline code, bold, italics, HTML tags).\n")
	b.WriteString("2. Do NOT translate URLs, code, variables or placeholders.\n")
	b.WriteString("3. PRESERVE icon prefixes like \"(ri:xxx) \" exactly. Only translate the text after them.\n")
	if doclai.IsRTL(opts.TargetLang) {
		b.WriteString("4. The target language is written right to left; keep Markdown markers in place.\n")
	}

	switch t {
	case taskTranslateBatch:
		b.WriteString("\nThe input is a JSON array of segments, or an object {\"items\": [{\"text\", \"context\"}]} where context is the enclosing section title.\n")
		b.WriteString("Return ONLY a JSON array of translated strings, strictly matching the order and length of the input. Raw JSON only.\n")
	case taskEditBatch:
		b.WriteString("\nThe input is a JSON array of objects {\"old_source\", \"new_source\", \"old_translation\"}.\n")
		b.WriteString("For each object, update old_translation so that it translates new_source. Change only the words affected by the difference between old_source and new_source; keep every other word of old_translation exactly as it is.\n")
		b.WriteString("Return ONLY a JSON array of updated translations, strictly matching the order and length of the input. Raw JSON only.\n")
	case taskTranslateOne:
		b.WriteString("\nTranslate the user message. Return only the translation, without quotes, notes or code fences.\n")
	case taskEditOne:
		b.WriteString("\nThe input is a JSON object {\"old_source\", \"new_source\", \"old_translation\"}. Update old_translation so that it translates new_source, changing only the words affected by the difference. Return only the updated translation, without quotes, notes or code fences.\n")
	}

	if len(opts.Glossary) > 0 {
		b.WriteString("\nGlossary (prefer these translations):\n")
		keys := make([]string, 0, len(opts.Glossary))
		for k := range opts.Glossary {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- %q → %s\n", k, opts.Glossary[k])
		}
	}
	if len(opts.ExcludedTerms) > 0 {
		b.WriteString("\nDo NOT translate these terms; keep them exactly as written:\n- ")
		b.WriteString(strings.Join(opts.ExcludedTerms, "\n- "))
		b.WriteString("\n")
	}
	return b.String()
}
