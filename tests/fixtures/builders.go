// Package fixtures provides test data builders.
package fixtures

import (
	"fmt"
	"time"

	"github.com/rawcontext/engram-sub005/domain/core/entities"
)

// MemoryBuilder builds test memories with sensible defaults.
type MemoryBuilder struct {
	memory entities.Memory
}

// NewMemoryBuilder creates a builder for a fact memory created now.
func NewMemoryBuilder() *MemoryBuilder {
	now := time.Now()
	return &MemoryBuilder{
		memory: entities.Memory{
			ID:         "mem-1",
			Content:    "test content",
			Type:       entities.MemoryTypeFact,
			Project:    "test-project",
			DecayScore: 0.5,
			CreatedAt:  now,
			ValidFrom:  now,
		},
	}
}

func (b *MemoryBuilder) WithID(id string) *MemoryBuilder {
	b.memory.ID = id
	return b
}

func (b *MemoryBuilder) WithContent(content string) *MemoryBuilder {
	b.memory.Content = content
	return b
}

func (b *MemoryBuilder) WithType(t entities.MemoryType) *MemoryBuilder {
	b.memory.Type = t
	return b
}

func (b *MemoryBuilder) WithProject(project string) *MemoryBuilder {
	b.memory.Project = project
	return b
}

func (b *MemoryBuilder) WithPinned(pinned bool) *MemoryBuilder {
	b.memory.Pinned = pinned
	return b
}

func (b *MemoryBuilder) WithDecayScore(score float64) *MemoryBuilder {
	b.memory.DecayScore = score
	return b
}

func (b *MemoryBuilder) WithAgeDays(days float64) *MemoryBuilder {
	b.memory.CreatedAt = time.Now().Add(-time.Duration(days * 24 * float64(time.Hour)))
	return b
}

func (b *MemoryBuilder) WithAccess(count int, daysAgo float64) *MemoryBuilder {
	accessed := time.Now().Add(-time.Duration(daysAgo * 24 * float64(time.Hour)))
	b.memory.AccessCount = count
	b.memory.LastAccessed = &accessed
	return b
}

// Build returns the assembled memory.
func (b *MemoryBuilder) Build() entities.Memory {
	return b.memory
}

// Edges builds an undirected test edge list from id pairs.
func Edges(pairs ...[2]string) []entities.EntityEdge {
	edges := make([]entities.EntityEdge, len(pairs))
	for i, p := range pairs {
		edges[i] = entities.EntityEdge{FromID: p[0], ToID: p[1], Type: "related"}
	}
	return edges
}

// Triangle returns the three edges of a triangle over the given nodes.
func Triangle(a, b, c string) []entities.EntityEdge {
	return Edges([2]string{a, b}, [2]string{b, c}, [2]string{c, a})
}

// Candidates builds a similarity-ordered candidate list.
func Candidates(ids []string, similarities []float64) []entities.Candidate {
	if len(ids) != len(similarities) {
		panic(fmt.Sprintf("fixtures: %d ids but %d similarities", len(ids), len(similarities)))
	}
	out := make([]entities.Candidate, len(ids))
	for i := range ids {
		out[i] = entities.Candidate{
			MemoryID:   ids[i],
			Content:    "candidate content " + ids[i],
			Type:       string(entities.MemoryTypeFact),
			Similarity: similarities[i],
			ValidFrom:  time.Now(),
		}
	}
	return out
}
