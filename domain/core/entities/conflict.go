package entities

import "time"

// ConflictRelation is the classified relationship between two memories.
type ConflictRelation string

const (
	RelationContradiction ConflictRelation = "contradiction"
	RelationSupersedes    ConflictRelation = "supersedes"
	RelationDuplicate     ConflictRelation = "duplicate"
	RelationAugments      ConflictRelation = "augments"
	RelationIndependent   ConflictRelation = "independent"
)

// ParseConflictRelation maps a raw relation string onto the closed set.
// Anything unrecognized is treated as independent so a malformed
// classifier response can never manufacture a conflict.
func ParseConflictRelation(raw string) ConflictRelation {
	switch r := ConflictRelation(raw); r {
	case RelationContradiction, RelationSupersedes, RelationDuplicate,
		RelationAugments, RelationIndependent:
		return r
	default:
		return RelationIndependent
	}
}

// IsConflict reports whether the relation warrants a persisted report.
func (r ConflictRelation) IsConflict() bool {
	return r != RelationIndependent
}

// Classification is the judgment returned by the classification service
// for a single memory pair.
type Classification struct {
	Relation        ConflictRelation `json:"relation"`
	Confidence      float64          `json:"confidence"`
	Reasoning       string           `json:"reasoning"`
	SuggestedAction string           `json:"suggested_action"`
}

// ConflictReport is a persisted record of a non-independent relationship
// between two memories, awaiting external resolution.
type ConflictReport struct {
	ID              string           `json:"id"`
	ScanID          string           `json:"scan_id"`
	OrgID           string           `json:"org_id"`
	Project         string           `json:"project,omitempty"`
	MemoryIDA       string           `json:"memory_id_a"`
	MemoryIDB       string           `json:"memory_id_b"`
	Relation        ConflictRelation `json:"relation"`
	Confidence      float64          `json:"confidence"`
	Reasoning       string           `json:"reasoning"`
	SuggestedAction string           `json:"suggested_action"`
	CreatedAt       time.Time        `json:"created_at"`
}

// Candidate is a similar memory surfaced by the search service for a
// source memory, pending pair classification.
type Candidate struct {
	MemoryID   string     `json:"memory_id"`
	Content    string     `json:"content"`
	Type       string     `json:"type"`
	Similarity float64    `json:"similarity"`
	ValidFrom  time.Time  `json:"valid_from"`
	ValidTo    *time.Time `json:"valid_to,omitempty"`
}
