package cluster

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"curator/internal/core"
	"curator/internal/llm"
)

// maxThemeSummaries caps how many item summaries reach the theme prompt.
const maxThemeSummaries = 8

// GeminiThemeGenerator names clusters with the Gemini API using structured
// output so the response is guaranteed to be valid JSON.
type GeminiThemeGenerator struct {
	client *llm.Client
}

// NewGeminiThemeGenerator wraps an LLM client as a theme generator.
func NewGeminiThemeGenerator(client *llm.Client) *GeminiThemeGenerator {
	return &GeminiThemeGenerator{client: client}
}

// themeSchema constrains the theme response shape.
func themeSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"theme": {
				Type:        genai.TypeString,
				Description: "Short descriptive theme for the cluster, at most 8 words",
			},
			"category": {
				Type:        genai.TypeString,
				Description: "Exactly one category from the provided list",
				Enum:        core.Categories,
			},
			"reasoning": {
				Type:        genai.TypeString,
				Description: "One or two sentences on why these items form a topic",
			},
		},
		Required: []string{"theme", "category", "reasoning"},
	}
}

// GenerateTheme asks the model to name one cluster from its item summaries.
func (g *GeminiThemeGenerator) GenerateTheme(ctx context.Context, items []core.EnrichedItem) (Theme, error) {
	prompt := buildThemePrompt(items)

	response, err := g.client.GenerateText(ctx, prompt, llm.TextGenerationOptions{
		Temperature:    0.3,
		MaxTokens:      400,
		ResponseSchema: themeSchema(),
	})
	if err != nil {
		return Theme{}, fmt.Errorf("theme generation: %w", err)
	}

	var parsed struct {
		Theme     string `json:"theme"`
		Category  string `json:"category"`
		Reasoning string `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(stripFences(response)), &parsed); err != nil {
		return Theme{}, fmt.Errorf("parse theme response: %w", err)
	}
	if parsed.Theme == "" {
		return Theme{}, fmt.Errorf("theme response missing theme")
	}

	return Theme{
		Theme:     parsed.Theme,
		Category:  core.NormalizeCategory(parsed.Category),
		Reasoning: parsed.Reasoning,
	}, nil
}

// buildThemePrompt lists the cluster's item summaries and the closed
// category set.
func buildThemePrompt(items []core.EnrichedItem) string {
	var sb strings.Builder

	sb.WriteString("You are naming a topic cluster for a daily news digest.\n")
	sb.WriteString("The following article summaries were grouped together by semantic similarity:\n\n")

	for i, it := range items {
		if i >= maxThemeSummaries {
			sb.WriteString(fmt.Sprintf("... and %d more items\n", len(items)-maxThemeSummaries))
			break
		}
		sb.WriteString(fmt.Sprintf("%d. [%s] %s\n", i+1, it.Source.Publisher, it.AISummary))
	}

	sb.WriteString("\nAVAILABLE CATEGORIES:\n")
	for _, c := range core.Categories {
		sb.WriteString("- ")
		sb.WriteString(c)
		sb.WriteString("\n")
	}

	sb.WriteString("\nTASK: Provide a short theme (max 8 words), exactly one category from the list, and 1-2 sentences of reasoning.\n")
	sb.WriteString("Respond as structured JSON following the schema.\n")

	return sb.String()
}

// stripFences removes a markdown code fence if the model wrapped its JSON
// in one.
func stripFences(response string) string {
	clean := strings.TrimSpace(response)
	if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```json")
		clean = strings.TrimPrefix(clean, "```")
		clean = strings.TrimSuffix(clean, "```")
		clean = strings.TrimSpace(clean)
	}
	return clean
}
