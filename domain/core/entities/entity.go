package entities

import "time"

// Entity is a node in the knowledge graph extracted by the ingestion
// pipeline. This service only ever reads entities.
type Entity struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Project   string    `json:"project,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EntityEdge is a directed, typed relationship between two entities.
// Community detection treats it as undirected.
type EntityEdge struct {
	FromID string `json:"from_id"`
	ToID   string `json:"to_id"`
	Type   string `json:"type"`
}
