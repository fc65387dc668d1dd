package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/rawcontext/engram-sub005/application/ports"
	"github.com/rawcontext/engram-sub005/domain/core/entities"
)

// EntityRepository reads entity relationship edges from the graph store.
type EntityRepository struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewEntityRepository creates an entity graph reader.
func NewEntityRepository(driver neo4j.DriverWithContext, logger *zap.Logger) ports.EntityGraphReader {
	return &EntityRepository{driver: driver, logger: logger}
}

// Edges loads every entity relationship edge visible to a project in a
// single round trip, or all edges for the org when project is empty.
func (r *EntityRepository) Edges(ctx context.Context, orgID, project string) ([]entities.EntityEdge, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (a:Entity)-[r:RELATES_TO]->(b:Entity)
		WHERE a.org_id = $orgId
		  AND ($project = '' OR a.project = $project)
		RETURN a.id AS from_id, b.id AS to_id, coalesce(r.type, 'related') AS type
	`

	records, err := readRecords(ctx, session, query, map[string]interface{}{
		"orgId":   orgID,
		"project": project,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load entity edges: %w", err)
	}

	edges := make([]entities.EntityEdge, 0, len(records))
	for _, record := range records {
		edges = append(edges, entities.EntityEdge{
			FromID: getString(record, "from_id"),
			ToID:   getString(record, "to_id"),
			Type:   getString(record, "type"),
		})
	}
	return edges, nil
}
