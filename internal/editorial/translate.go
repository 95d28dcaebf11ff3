package editorial

import (
	"context"
	"encoding/json"
	"fmt"

	"curator/internal/core"
	"curator/internal/llm"
)

// Translator translates user-facing strings. Best-effort: implementations
// return whatever they can; callers fall back to the original text for
// anything missing.
type Translator interface {
	Translate(ctx context.Context, texts []string, targetLanguage string) (map[string]string, error)
}

// translate rewrites the digest's user-facing text fields in the configured
// target language. Failure is non-fatal: the original text stays in place
// and the failure is logged.
func (s *Selector) translate(ctx context.Context, structure *core.DigestStructure) {
	if s.translator == nil || s.config.TargetLanguage == "" {
		return
	}

	texts := collectTexts(structure)
	if len(texts) == 0 {
		return
	}

	translated, err := s.translator.Translate(ctx, texts, s.config.TargetLanguage)
	if err != nil {
		s.log.Warn().Err(err).Msg("translation failed, keeping original text")
		return
	}

	applyTexts(structure, translated)
}

// collectTexts gathers the fields the translation pass covers: the
// editorial note and every selection reason.
func collectTexts(structure *core.DigestStructure) []string {
	texts := []string{structure.Plan.EditorialNote}
	for _, it := range structure.Plan.MustRead {
		if it.Reason != "" {
			texts = append(texts, it.Reason)
		}
	}
	for _, group := range structure.Plan.Topics {
		for _, it := range group.PriorityItems {
			if it.Reason != "" {
				texts = append(texts, it.Reason)
			}
		}
		for _, it := range group.OtherItems {
			if it.Reason != "" {
				texts = append(texts, it.Reason)
			}
		}
	}
	return texts
}

// applyTexts swaps in translations where present, keeping originals for
// anything the translator did not return.
func applyTexts(structure *core.DigestStructure, translated map[string]string) {
	swap := func(s string) string {
		if t, ok := translated[s]; ok && t != "" {
			return t
		}
		return s
	}

	structure.Plan.EditorialNote = swap(structure.Plan.EditorialNote)
	for i := range structure.Plan.MustRead {
		structure.Plan.MustRead[i].Reason = swap(structure.Plan.MustRead[i].Reason)
	}
	for name, group := range structure.Plan.Topics {
		for i := range group.PriorityItems {
			group.PriorityItems[i].Reason = swap(group.PriorityItems[i].Reason)
		}
		for i := range group.OtherItems {
			group.OtherItems[i].Reason = swap(group.OtherItems[i].Reason)
		}
		structure.Plan.Topics[name] = group
	}
}

// GeminiTranslator translates with the Gemini API, requesting a JSON array
// aligned with the input order.
type GeminiTranslator struct {
	client *llm.Client
}

// NewGeminiTranslator wraps an LLM client as a translator.
func NewGeminiTranslator(client *llm.Client) *GeminiTranslator {
	return &GeminiTranslator{client: client}
}

// Translate returns a map from each original string to its translation.
func (t *GeminiTranslator) Translate(ctx context.Context, texts []string, targetLanguage string) (map[string]string, error) {
	if len(texts) == 0 {
		return map[string]string{}, nil
	}

	input, err := json.Marshal(texts)
	if err != nil {
		return nil, fmt.Errorf("marshal texts: %w", err)
	}

	prompt := fmt.Sprintf(
		"Translate each string in the following JSON array into %s. Keep technical terms and proper nouns as-is. Respond with ONLY a JSON array of the translated strings, same length and order:\n\n%s",
		targetLanguage, input)

	response, err := t.client.GenerateText(ctx, prompt, llm.TextGenerationOptions{
		Temperature: 0.2,
		MaxTokens:   2048,
	})
	if err != nil {
		return nil, fmt.Errorf("translation call: %w", err)
	}

	var out []string
	if err := json.Unmarshal([]byte(stripFences(response)), &out); err != nil {
		return nil, fmt.Errorf("parse translation response: %w", err)
	}
	if len(out) != len(texts) {
		return nil, fmt.Errorf("translation returned %d strings, want %d", len(out), len(texts))
	}

	result := make(map[string]string, len(texts))
	for i, original := range texts {
		result[original] = out[i]
	}
	return result, nil
}
