package ai

import (
	"context"

	"documind/internal/ai/prompts"
)

// Generation settings per operation. Suggestions see only the tail of the
// document; summaries and titles get the full content.
const (
	suggestionExcerptRunes = 100

	suggestionTemperature = 0.7
	suggestionMaxTokens   = 128

	summaryTemperature = 0.5
	summaryMaxTokens   = 256

	titleTemperature = 0.5
	titleMaxTokens   = 32
)

// Pipeline produces advisory AI text for document content. Results are
// never authoritative: callers broadcast them tagged with the document id
// only, and clients must treat them as unordered relative to later edits.
type Pipeline struct {
	provider Provider
	prompts  *prompts.Manager
}

func NewPipeline(provider Provider, prompts *prompts.Manager) *Pipeline {
	return &Pipeline{provider: provider, prompts: prompts}
}

// GenerateSuggestion proposes a short continuation based on the last part
// of the content.
func (p *Pipeline) GenerateSuggestion(ctx context.Context, content string) (string, error) {
	prompt, err := p.prompts.Build("suggestion", map[string]string{
		"Excerpt": tailRunes(content, suggestionExcerptRunes),
	})
	if err != nil {
		return "", err
	}
	return p.complete(ctx, prompt, suggestionTemperature, suggestionMaxTokens)
}

// GenerateSummary condenses the full content into a few sentences.
func (p *Pipeline) GenerateSummary(ctx context.Context, content string) (string, error) {
	prompt, err := p.prompts.Build("summary", map[string]string{"Content": content})
	if err != nil {
		return "", err
	}
	return p.complete(ctx, prompt, summaryTemperature, summaryMaxTokens)
}

// GenerateTitle names a document from its content.
func (p *Pipeline) GenerateTitle(ctx context.Context, content string) (string, error) {
	prompt, err := p.prompts.Build("title", map[string]string{"Content": content})
	if err != nil {
		return "", err
	}
	return p.complete(ctx, prompt, titleTemperature, titleMaxTokens)
}

// Process runs an arbitrary user prompt through the provider.
func (p *Pipeline) Process(ctx context.Context, prompt string) (string, error) {
	return p.complete(ctx, prompt, suggestionTemperature, suggestionMaxTokens)
}

func (p *Pipeline) complete(ctx context.Context, prompt string, temperature float32, maxTokens int32) (string, error) {
	return p.provider.Complete(ctx, prompt, CompletionOptions{
		Temperature:     temperature,
		MaxOutputTokens: maxTokens,
	})
}

func tailRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
