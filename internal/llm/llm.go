// Package llm wraps the Gemini SDK behind the narrow surface the pipeline
// collaborators need: plain and schema-constrained text generation, plus
// summary embeddings.
package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"google.golang.org/genai"
)

const (
	// DefaultModel is the Gemini model used for enrichment, theme
	// generation and editorial selection unless overridden.
	DefaultModel = "gemini-flash-lite-latest"
	// DefaultEmbeddingModel generates summary embeddings.
	DefaultEmbeddingModel = "gemini-embedding-001"
	// DefaultEmbeddingDimensions is the Matryoshka output dimension.
	DefaultEmbeddingDimensions = int32(768)
)

// Client is a thin wrapper over the Gemini SDK. Safe for concurrent use;
// the underlying client carries no per-call state.
type Client struct {
	modelName string
	gClient   *genai.Client
}

// TextGenerationOptions control a single generation call.
type TextGenerationOptions struct {
	MaxTokens      int32         // Maximum output tokens, 0 for model default
	Temperature    float32       // Decoding randomness, 0 for model default
	Model          string        // Override model, empty for client default
	ResponseSchema *genai.Schema // When set, forces strict JSON output
}

// NewClient creates a Gemini client. The API key is resolved from the
// GEMINI_API_KEY environment variable, then gemini.api_key in config.
func NewClient(ctx context.Context, modelName string) (*Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = viper.GetString("gemini.api_key")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required: set GEMINI_API_KEY or gemini.api_key in config")
	}

	if modelName == "" {
		modelName = viper.GetString("gemini.model")
		if modelName == "" {
			modelName = DefaultModel
		}
	}

	gClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{modelName: modelName, gClient: gClient}, nil
}

// GenerateText generates text for a prompt with the given options.
func (c *Client) GenerateText(ctx context.Context, prompt string, options TextGenerationOptions) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	modelName := c.modelName
	if options.Model != "" {
		modelName = options.Model
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}

	var config *genai.GenerateContentConfig
	if options.MaxTokens > 0 || options.Temperature > 0 || options.ResponseSchema != nil {
		config = &genai.GenerateContentConfig{}
		if options.MaxTokens > 0 {
			config.MaxOutputTokens = options.MaxTokens
		}
		if options.Temperature > 0 {
			temp := options.Temperature
			config.Temperature = &temp
		}
		if options.ResponseSchema != nil {
			config.ResponseMIMEType = "application/json"
			config.ResponseSchema = options.ResponseSchema
		}
	}

	resp, err := c.gClient.Models.GenerateContent(ctx, modelName, contents, config)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}

	return text, nil
}

// GenerateEmbedding generates a vector embedding for the given text using
// the configured embedding model.
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: text}},
	}}
	dims := DefaultEmbeddingDimensions
	config := &genai.EmbedContentConfig{OutputDimensionality: &dims}

	resp, err := c.gClient.Models.EmbedContent(ctx, DefaultEmbeddingModel, contents, config)
	if err != nil {
		return nil, fmt.Errorf("failed to embed content: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}

	values := resp.Embeddings[0].Values
	embedding := make([]float64, len(values))
	for i, v := range values {
		embedding[i] = float64(v)
	}
	return embedding, nil
}
