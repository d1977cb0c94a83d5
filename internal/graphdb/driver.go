// Package graphdb reads precomputed cancer cohorts from a neo4j graph.
//
// Every cohort owns three node labels, <cohort>_Gene, <cohort>_Regulation and
// <cohort>_Patient. Genes connect through regulation nodes
// (source)-[:REGULATES]->(regulation)-[:REGULATED]->(target); patients point
// at regulations with DYSREGULATED{value} and at genes with
// METHYLATED{methylation}. Cohorts are listed as Cancer nodes.
package graphdb

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Row is one result record keyed by column name.
type Row map[string]any

// Querier runs read-only Cypher.
type Querier interface {
	Query(ctx context.Context, cypher string, params map[string]any) ([]Row, error)
	Close(ctx context.Context) error
}

// ConnConfig locates the database.
type ConnConfig struct {
	URI      string
	User     string
	Password string
}

// Neo4jQuerier implements Querier with the official driver.
type Neo4jQuerier struct {
	driver neo4j.DriverWithContext
}

// NewNeo4jQuerier creates a driver. No connection is made until the first query.
func NewNeo4jQuerier(cfg ConnConfig) (*Neo4jQuerier, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	return &Neo4jQuerier{driver: driver}, nil
}

// Query runs cypher in a read session and collects every record.
func (q *Neo4jQuerier) Query(ctx context.Context, cypher string, params map[string]any) ([]Row, error) {
	session := q.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer func() { _ = session.Close(ctx) }()

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}

	var rows []Row
	for result.Next(ctx) {
		record := result.Record()
		row := make(Row, len(record.Keys))
		for i, k := range record.Keys {
			row[k] = record.Values[i]
		}
		rows = append(rows, row)
	}
	if err := result.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// Ping verifies the database is reachable.
func (q *Neo4jQuerier) Ping(ctx context.Context) error {
	return q.driver.VerifyConnectivity(ctx)
}

// Close closes the driver.
func (q *Neo4jQuerier) Close(ctx context.Context) error {
	return q.driver.Close(ctx)
}
