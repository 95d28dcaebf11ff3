package enrich

import (
	"context"
	"fmt"
	"strings"

	"curator/internal/anomaly"
	"curator/internal/core"
	"curator/internal/llm"
)

// summaryPromptTemplate asks for exactly one sentence so the embedding
// stays focused on the item's core claim.
const summaryPromptTemplate = `Summarize the following article in exactly one sentence, in the article's own language. State the core claim or event, no meta-commentary.

Title: %s

Content:
%s`

// maxContentChars caps how much item text reaches the summary prompt.
const maxContentChars = 2000

// GeminiAdapter enriches items with the Gemini API: a one-sentence summary,
// an embedding of that summary, and a language label.
type GeminiAdapter struct {
	client *llm.Client
}

// NewGeminiAdapter wraps an LLM client as an enrichment adapter.
func NewGeminiAdapter(client *llm.Client) *GeminiAdapter {
	return &GeminiAdapter{client: client}
}

// Enrich produces the summary, embedding and language for one item.
func (a *GeminiAdapter) Enrich(ctx context.Context, item core.TaggedItem) (Enrichment, error) {
	body := item.Content
	if body == "" {
		body = item.Description
	}
	body = anomaly.StripHTML(body)
	if len(body) > maxContentChars {
		body = body[:maxContentChars]
	}

	prompt := fmt.Sprintf(summaryPromptTemplate, item.Title, body)
	summary, err := a.client.GenerateText(ctx, prompt, llm.TextGenerationOptions{
		Temperature: 0.3,
		MaxTokens:   120,
	})
	if err != nil {
		return Enrichment{}, fmt.Errorf("summary generation for %s: %w", item.Fingerprint, err)
	}
	summary = strings.TrimSpace(summary)

	embedding, err := a.client.GenerateEmbedding(ctx, summary)
	if err != nil {
		return Enrichment{}, fmt.Errorf("embedding for %s: %w", item.Fingerprint, err)
	}

	return Enrichment{
		Summary:   summary,
		Embedding: embedding,
		Language:  DetectLanguage(item.Title + " " + summary),
	}, nil
}
