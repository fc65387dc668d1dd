package entities

import "time"

// Community is a persisted cluster of related entities produced by the
// community detection job. Communities are created and merged here but
// never deleted; membership lives as edges in the graph store.
type Community struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Summary     string     `json:"summary,omitempty"`
	Keywords    []string   `json:"keywords,omitempty"`
	MemberCount int        `json:"member_count"`
	MemoryCount int        `json:"memory_count"`
	Project     string     `json:"project,omitempty"`
	OrgID       string     `json:"org_id"`
	LastUpdated time.Time  `json:"last_updated"`
	ValidFrom   time.Time  `json:"valid_from"`
	ValidTo     *time.Time `json:"valid_to,omitempty"`
}

// CommunityOverlap pairs an existing community with how many members of
// a freshly detected cluster it already contains.
type CommunityOverlap struct {
	Community    Community
	OverlapCount int
}

// CommunityUpdate carries the fields refreshed when a detected cluster
// merges into an existing community.
type CommunityUpdate struct {
	MemberCount int
	LastUpdated time.Time
}
