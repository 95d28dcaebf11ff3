// Package editorial implements the editorial-selection stage: it hands the
// priority memo to an external LLM editor under a strict prompt contract,
// validates and repairs the structured response, and merges it with memo
// metadata into the final digest structure.
package editorial

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"curator/internal/core"
	"curator/internal/llm"
)

// TextGenerator is the LLM surface the selector needs.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, options llm.TextGenerationOptions) (string, error)
}

// Config holds the selector's prompt and decoding parameters.
type Config struct {
	MaxP0Preview    int     // P0 items previewed in the prompt header
	MaxTopicsShown  int     // Multi-source topics previewed in the prompt header
	Temperature     float32 // Low randomness for reproducible selections
	MaxOutputTokens int32
	TargetLanguage  string // Translation target for user-facing text, empty disables the pass
}

// DefaultConfig returns the production selection parameters.
func DefaultConfig() Config {
	return Config{
		MaxP0Preview:    10,
		MaxTopicsShown:  5,
		Temperature:     0.2,
		MaxOutputTokens: 4096,
	}
}

// Selector runs the editorial stage.
type Selector struct {
	generator  TextGenerator
	translator Translator
	config     Config
	log        zerolog.Logger
}

// NewSelector creates a selector. translator may be nil to skip the
// translation pass entirely.
func NewSelector(generator TextGenerator, translator Translator, config Config, log zerolog.Logger) *Selector {
	return &Selector{
		generator:  generator,
		translator: translator,
		config:     config,
		log:        log.With().Str("stage", "editorial").Logger(),
	}
}

// Select asks the editor LLM for a digest plan, validates it against the
// memo, and builds the final digest structure. Any LLM failure, schema
// violation or unknown fingerprint reference is fatal: no partial digest is
// produced. Translation failures are logged and fall back to source text.
func (s *Selector) Select(ctx context.Context, m *core.PriorityMemo, interests string) (*core.DigestStructure, error) {
	prompt := s.buildPrompt(m, interests)

	response, err := s.generator.GenerateText(ctx, prompt, llm.TextGenerationOptions{
		Temperature:    s.config.Temperature,
		MaxTokens:      s.config.MaxOutputTokens,
		ResponseSchema: planSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("editor call: %w", err)
	}

	plan, err := parsePlan(response)
	if err != nil {
		return nil, err
	}

	if err := validatePlan(plan, m); err != nil {
		return nil, err
	}

	structure := s.buildStructure(plan, m)
	s.translate(ctx, structure)

	s.log.Info().
		Int("must_read", len(plan.MustRead)).
		Int("topics", len(plan.Topics)).
		Int("nice_to_have", len(plan.NiceToHave)).
		Msg("digest plan accepted")

	return structure, nil
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

// parsePlan decodes the editor's strict-JSON response. The wire format
// carries topics as a named array because the response schema cannot
// express arbitrary object keys; it is folded into the plan's topic map.
func parsePlan(response string) (core.DigestPlan, error) {
	clean := stripFences(response)

	var wire struct {
		MustRead []core.PlanItem `json:"must_read"`
		Topics   []struct {
			Name          string          `json:"name"`
			PriorityItems []core.PlanItem `json:"priority_items"`
			OtherItems    []core.PlanItem `json:"other_items"`
		} `json:"topics"`
		NiceToHave    []string       `json:"nice_to_have"`
		EditorialNote string         `json:"editorial_note"`
		Metadata      map[string]any `json:"metadata"`
	}
	if err := json.Unmarshal([]byte(clean), &wire); err != nil {
		return core.DigestPlan{}, fmt.Errorf("parse digest plan: %w", err)
	}

	plan := core.DigestPlan{
		MustRead:      wire.MustRead,
		Topics:        make(map[string]core.TopicGroup, len(wire.Topics)),
		NiceToHave:    wire.NiceToHave,
		EditorialNote: wire.EditorialNote,
		Metadata:      wire.Metadata,
	}
	for _, t := range wire.Topics {
		plan.Topics[t.Name] = core.TopicGroup{
			PriorityItems: t.PriorityItems,
			OtherItems:    t.OtherItems,
		}
	}
	return plan, nil
}

// validatePlan enforces the validation contract: the required sections must
// be present and non-empty, and every referenced fingerprint must exist in
// the memo. Count-range rules (3-5 must-read and so on) are requested in
// the prompt, not enforced here.
func validatePlan(plan core.DigestPlan, m *core.PriorityMemo) error {
	if len(plan.MustRead) == 0 {
		return &SchemaViolation{Field: "must_read"}
	}
	if len(plan.Topics) == 0 {
		return &SchemaViolation{Field: "topics"}
	}
	if strings.TrimSpace(plan.EditorialNote) == "" {
		return &SchemaViolation{Field: "editorial_note"}
	}
	if len(plan.Metadata) == 0 {
		return &SchemaViolation{Field: "metadata"}
	}

	check := func(section string, prints ...string) error {
		for _, print := range prints {
			if m.Item(print) == nil {
				return &UnknownFingerprintError{Fingerprint: print, Section: section}
			}
		}
		return nil
	}

	for _, it := range plan.MustRead {
		if err := check("must_read", it.Fingerprint); err != nil {
			return err
		}
	}
	for name, group := range plan.Topics {
		for _, it := range group.PriorityItems {
			if err := check("topics/"+name, it.Fingerprint); err != nil {
				return err
			}
		}
		for _, it := range group.OtherItems {
			if err := check("topics/"+name, it.Fingerprint); err != nil {
				return err
			}
		}
	}
	if err := check("nice_to_have", plan.NiceToHave...); err != nil {
		return err
	}

	return nil
}

// buildStructure merges the plan with the memo snapshots of every item it
// references.
func (s *Selector) buildStructure(plan core.DigestPlan, m *core.PriorityMemo) *core.DigestStructure {
	metadata := make(map[string]core.ItemSnapshot)
	for _, print := range plan.Fingerprints() {
		if snapshot := m.Item(print); snapshot != nil {
			metadata[print] = *snapshot
		}
	}

	return &core.DigestStructure{
		Date:          m.Date,
		Plan:          plan,
		ItemsMetadata: metadata,
		GeneratedAt:   time.Now().UTC(),
	}
}
