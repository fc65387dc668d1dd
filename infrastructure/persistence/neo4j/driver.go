// Package neo4j adapts the entity/memory graph store. All reads are
// parameterized cypher; all multi-row updates go through UNWIND so a
// whole batch costs one round trip.
package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"
)

// NewDriver connects to the graph store and verifies connectivity.
func NewDriver(ctx context.Context, uri, username, password string) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to neo4j at %s: %w", uri, err)
	}
	return driver, nil
}

// readRecords runs a read query inside a managed transaction and
// collects the full result set before the transaction closes, so the
// driver can retry transient cluster failures transparently.
func readRecords(ctx context.Context, session neo4j.SessionWithContext, query string, params map[string]interface{}) ([]*db.Record, error) {
	records, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return records.([]*db.Record), nil
}

// writeQuery runs a write query inside a managed transaction, again for
// driver-level retry on transient failures.
func writeQuery(ctx context.Context, session neo4j.SessionWithContext, query string, params map[string]interface{}) error {
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		_, err = result.Consume(ctx)
		return nil, err
	})
	return err
}

// Record accessors. The driver hands values back as interface{}; these
// keep the per-field handling in one place.

func getString(record *db.Record, key string) string {
	if value, ok := record.Get(key); ok {
		if s, ok := value.(string); ok {
			return s
		}
	}
	return ""
}

func getInt(record *db.Record, key string) int {
	if value, ok := record.Get(key); ok {
		switch v := value.(type) {
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}
	return 0
}

func getFloat(record *db.Record, key string) float64 {
	if value, ok := record.Get(key); ok {
		switch v := value.(type) {
		case float64:
			return v
		case int64:
			return float64(v)
		}
	}
	return 0
}

func getBool(record *db.Record, key string) bool {
	if value, ok := record.Get(key); ok {
		if b, ok := value.(bool); ok {
			return b
		}
	}
	return false
}

func getStrings(record *db.Record, key string) []string {
	value, ok := record.Get(key)
	if !ok || value == nil {
		return nil
	}
	raw, ok := value.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// getTime tolerates both native temporal values and RFC3339 strings,
// since ingestion writes datetime() but older nodes carry strings.
func getTime(record *db.Record, key string) time.Time {
	value, ok := record.Get(key)
	if !ok || value == nil {
		return time.Time{}
	}
	switch v := value.(type) {
	case time.Time:
		return v
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func getTimePtr(record *db.Record, key string) *time.Time {
	t := getTime(record, key)
	if t.IsZero() {
		return nil
	}
	return &t
}
