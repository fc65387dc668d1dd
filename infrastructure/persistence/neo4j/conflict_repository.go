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

// conflictBatchSize bounds one UNWIND create statement.
const conflictBatchSize = 100

// ConflictRepository persists classified conflict reports.
type ConflictRepository struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewConflictRepository creates a conflict report repository.
func NewConflictRepository(driver neo4j.DriverWithContext, logger *zap.Logger) ports.ConflictReportRepository {
	return &ConflictRepository{driver: driver, logger: logger}
}

// CreateMany persists reports in batched UNWIND creates and returns the
// created records.
func (r *ConflictRepository) CreateMany(ctx context.Context, reports []entities.ConflictReport) ([]entities.ConflictReport, error) {
	if len(reports) == 0 {
		return nil, nil
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		UNWIND $rows AS row
		CREATE (r:ConflictReport {
			id: row.id,
			scan_id: row.scan_id,
			org_id: row.org_id,
			project: row.project,
			memory_id_a: row.memory_id_a,
			memory_id_b: row.memory_id_b,
			relation: row.relation,
			confidence: row.confidence,
			reasoning: row.reasoning,
			suggested_action: row.suggested_action,
			created_at: datetime(row.created_at)
		})
	`

	for start := 0; start < len(reports); start += conflictBatchSize {
		end := start + conflictBatchSize
		if end > len(reports) {
			end = len(reports)
		}
		batch := reports[start:end]

		rows := make([]map[string]interface{}, len(batch))
		for i, report := range batch {
			rows[i] = map[string]interface{}{
				"id":               report.ID,
				"scan_id":          report.ScanID,
				"org_id":           report.OrgID,
				"project":          report.Project,
				"memory_id_a":      report.MemoryIDA,
				"memory_id_b":      report.MemoryIDB,
				"relation":         string(report.Relation),
				"confidence":       report.Confidence,
				"reasoning":        report.Reasoning,
				"suggested_action": report.SuggestedAction,
				"created_at":       report.CreatedAt.UTC().Format(time.RFC3339),
			}
		}

		if err := writeQuery(ctx, session, query, map[string]interface{}{"rows": rows}); err != nil {
			return nil, fmt.Errorf("failed to create conflict reports (batch of %d): %w", len(batch), err)
		}
	}

	r.logger.Debug("Conflict reports persisted", zap.Int("count", len(reports)))
	return reports, nil
}
