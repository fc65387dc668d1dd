package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rawcontext/engram-sub005/application/ports"
	"github.com/rawcontext/engram-sub005/domain/core/entities"
)

// summaryLimit bounds how much of each memory's content goes into the
// classification prompt.
const summaryLimit = 500

// Classifier judges the relationship between two memories by prompting
// an LLM provider for a structured verdict.
type Classifier struct {
	provider Provider
	logger   *zap.Logger
}

// NewClassifier creates a classification service over the provider.
func NewClassifier(provider Provider, logger *zap.Logger) ports.ClassificationService {
	return &Classifier{provider: provider, logger: logger}
}

type classificationDTO struct {
	Relation        string  `json:"relation"`
	Confidence      float64 `json:"confidence"`
	Reasoning       string  `json:"reasoning"`
	SuggestedAction string  `json:"suggested_action"`
}

// Classify asks the provider how memory A relates to memory B. Any
// relation outside the known set normalizes to independent.
func (c *Classifier) Classify(ctx context.Context, a, b entities.Memory) (entities.Classification, error) {
	if !c.provider.IsAvailable() {
		return entities.Classification{}, fmt.Errorf("classification provider is not available")
	}

	prompt := c.buildPrompt(a, b)

	response, err := c.provider.Complete(ctx, prompt, CompletionOptions{
		Temperature: 0.2,
		MaxTokens:   300,
		Format:      "json",
	})
	if err != nil {
		return entities.Classification{}, fmt.Errorf("classification request failed: %w", err)
	}

	return c.parseResponse(response)
}

func (c *Classifier) buildPrompt(a, b entities.Memory) string {
	var sb strings.Builder
	sb.WriteString("Compare the two memories below and decide how memory A relates to memory B.\n")
	sb.WriteString("Respond with JSON only: {\"relation\": one of ")
	sb.WriteString(`"contradiction", "supersedes", "duplicate", "augments", "independent"`)
	sb.WriteString(", \"confidence\": 0.0-1.0, \"reasoning\": short explanation, \"suggested_action\": what a maintainer should do}.\n\n")

	writeMemory := func(label string, m entities.Memory) {
		sb.WriteString(fmt.Sprintf("Memory %s (type=%s", label, m.Type))
		if m.Source != "" {
			sb.WriteString(", source=" + m.Source)
		}
		if len(m.Tags) > 0 {
			sb.WriteString(", tags=" + strings.Join(m.Tags, ","))
		}
		sb.WriteString("):\n")
		sb.WriteString(truncate(m.Content, summaryLimit))
		sb.WriteString("\n\n")
	}
	writeMemory("A", a)
	writeMemory("B", b)
	return sb.String()
}

// parseResponse decodes the provider's JSON verdict, tolerating markdown
// code fences around it.
func (c *Classifier) parseResponse(response string) (entities.Classification, error) {
	cleaned := strings.TrimSpace(response)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var dto classificationDTO
	if err := json.Unmarshal([]byte(cleaned), &dto); err != nil {
		return entities.Classification{}, fmt.Errorf("failed to parse classification response: %w", err)
	}

	relation := entities.ParseConflictRelation(dto.Relation)
	if string(relation) != dto.Relation {
		c.logger.Warn("Unrecognized relation normalized to independent",
			zap.String("relation", dto.Relation),
		)
	}

	confidence := dto.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return entities.Classification{
		Relation:        relation,
		Confidence:      confidence,
		Reasoning:       dto.Reasoning,
		SuggestedAction: dto.SuggestedAction,
	}, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
