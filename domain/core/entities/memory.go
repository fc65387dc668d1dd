package entities

import (
	"fmt"
	"time"
)

// MemoryType classifies how durable a memory's content is. The set is
// closed: ParseMemoryType rejects anything outside it so downstream
// weight lookups never see an unknown value.
type MemoryType string

const (
	MemoryTypeDecision   MemoryType = "decision"
	MemoryTypePreference MemoryType = "preference"
	MemoryTypeFact       MemoryType = "fact"
	MemoryTypeInsight    MemoryType = "insight"
	MemoryTypeContext    MemoryType = "context"
	MemoryTypeTurn       MemoryType = "turn"
)

// ParseMemoryType validates a raw type string against the closed set.
func ParseMemoryType(raw string) (MemoryType, error) {
	switch t := MemoryType(raw); t {
	case MemoryTypeDecision, MemoryTypePreference, MemoryTypeFact,
		MemoryTypeInsight, MemoryTypeContext, MemoryTypeTurn:
		return t, nil
	default:
		return "", fmt.Errorf("unknown memory type %q", raw)
	}
}

// Weight returns the semantic durability of a memory type. Decisions and
// preferences age slowly; conversational turns are close to ephemeral.
// Adding a new MemoryType constant requires a case here.
func (t MemoryType) Weight() float64 {
	switch t {
	case MemoryTypeDecision:
		return 1.0
	case MemoryTypePreference:
		return 0.9
	case MemoryTypeInsight:
		return 0.85
	case MemoryTypeFact:
		return 0.8
	case MemoryTypeContext:
		return 0.6
	case MemoryTypeTurn:
		return 0.3
	}
	// Unreachable for values produced by ParseMemoryType.
	return 0
}

// Memory is a single stored memory. The ingestion pipeline owns every
// field except DecayScore, which the decay job recomputes in place.
type Memory struct {
	ID           string     `json:"id"`
	Content      string     `json:"content"`
	ContentHash  string     `json:"content_hash"`
	Type         MemoryType `json:"type"`
	Tags         []string   `json:"tags,omitempty"`
	Source       string     `json:"source,omitempty"`
	Project      string     `json:"project,omitempty"`
	Pinned       bool       `json:"pinned"`
	DecayScore   float64    `json:"decay_score"`
	AccessCount  int        `json:"access_count"`
	LastAccessed *time.Time `json:"last_accessed,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ValidFrom    time.Time  `json:"valid_from"`
	ValidTo      *time.Time `json:"valid_to,omitempty"`
}

// AgeDays returns the memory's age in fractional days at the given instant.
func (m *Memory) AgeDays(now time.Time) float64 {
	return now.Sub(m.CreatedAt).Hours() / 24
}

// DecayUpdate is one row of a batched decay score write.
type DecayUpdate struct {
	MemoryID string
	Score    float64
}
