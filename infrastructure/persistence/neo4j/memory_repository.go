package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/rawcontext/engram-sub005/application/ports"
	"github.com/rawcontext/engram-sub005/domain/core/entities"
)

// MemoryRepository reads memories and writes recomputed decay scores.
type MemoryRepository struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewMemoryRepository creates a memory repository.
func NewMemoryRepository(driver neo4j.DriverWithContext, logger *zap.Logger) ports.MemoryRepository {
	return &MemoryRepository{driver: driver, logger: logger}
}

// ActiveForDecay loads the fields the decay model needs for every
// active, non-pinned memory, optionally project-scoped.
func (r *MemoryRepository) ActiveForDecay(ctx context.Context, orgID, project string) ([]entities.Memory, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (m:Memory)
		WHERE m.org_id = $orgId
		  AND m.pinned = false
		  AND m.valid_to IS NULL
		  AND ($project = '' OR m.project = $project)
		RETURN m.id AS id, m.type AS type, m.created_at AS created_at,
		       m.last_accessed AS last_accessed, m.access_count AS access_count,
		       m.decay_score AS decay_score, m.project AS project
	`

	records, err := readRecords(ctx, session, query, map[string]interface{}{
		"orgId":   orgID,
		"project": project,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load memories for decay: %w", err)
	}

	var memories []entities.Memory
	for _, record := range records {
		memoryType, err := entities.ParseMemoryType(getString(record, "type"))
		if err != nil {
			// A bad type is ingestion's bug; skip the row, keep the run.
			r.logger.Warn("Skipping memory with unknown type",
				zap.String("memoryID", getString(record, "id")),
				zap.String("type", getString(record, "type")),
			)
			continue
		}
		memories = append(memories, entities.Memory{
			ID:           getString(record, "id"),
			Type:         memoryType,
			Project:      getString(record, "project"),
			DecayScore:   getFloat(record, "decay_score"),
			AccessCount:  getInt(record, "access_count"),
			LastAccessed: getTimePtr(record, "last_accessed"),
			CreatedAt:    getTime(record, "created_at"),
		})
	}
	return memories, nil
}

// ForProject loads all active memories for a project with full content,
// as consumed by the conflict scanner.
func (r *MemoryRepository) ForProject(ctx context.Context, orgID, project string) ([]entities.Memory, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (m:Memory)
		WHERE m.org_id = $orgId
		  AND m.project = $project
		  AND m.valid_to IS NULL
		RETURN m.id AS id, m.content AS content, m.content_hash AS content_hash,
		       m.type AS type, m.tags AS tags, m.source AS source,
		       m.project AS project, m.pinned AS pinned,
		       m.decay_score AS decay_score, m.access_count AS access_count,
		       m.last_accessed AS last_accessed, m.created_at AS created_at,
		       m.valid_from AS valid_from
	`

	records, err := readRecords(ctx, session, query, map[string]interface{}{
		"orgId":   orgID,
		"project": project,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load project memories: %w", err)
	}

	var memories []entities.Memory
	for _, record := range records {
		memoryType, err := entities.ParseMemoryType(getString(record, "type"))
		if err != nil {
			r.logger.Warn("Skipping memory with unknown type",
				zap.String("memoryID", getString(record, "id")),
				zap.String("type", getString(record, "type")),
			)
			continue
		}
		memories = append(memories, entities.Memory{
			ID:           getString(record, "id"),
			Content:      getString(record, "content"),
			ContentHash:  getString(record, "content_hash"),
			Type:         memoryType,
			Tags:         getStrings(record, "tags"),
			Source:       getString(record, "source"),
			Project:      getString(record, "project"),
			Pinned:       getBool(record, "pinned"),
			DecayScore:   getFloat(record, "decay_score"),
			AccessCount:  getInt(record, "access_count"),
			LastAccessed: getTimePtr(record, "last_accessed"),
			CreatedAt:    getTime(record, "created_at"),
			ValidFrom:    getTime(record, "valid_from"),
		})
	}
	return memories, nil
}

// UpdateDecayScores writes a batch of score updates in one UNWIND
// statement, one round trip for the whole batch.
func (r *MemoryRepository) UpdateDecayScores(ctx context.Context, updates []entities.DecayUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	rows := make([]map[string]interface{}, len(updates))
	for i, u := range updates {
		rows[i] = map[string]interface{}{"id": u.MemoryID, "score": u.Score}
	}

	query := `
		UNWIND $rows AS row
		MATCH (m:Memory {id: row.id})
		SET m.decay_score = row.score,
		    m.decay_updated_at = datetime($now)
	`

	err := writeQuery(ctx, session, query, map[string]interface{}{
		"rows": rows,
		"now":  time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to write decay scores (batch of %d): %w", len(updates), err)
	}
	return nil
}
