// Package neo4j provides a GraphStore implementation using Neo4j.
package neo4j

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/DarrenZal/MycoMind/internal/infrastructure/config"
)

// Store implements ports.GraphStore using the Neo4j Bolt driver.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *zap.Logger
}

// NewStore creates a new Neo4j store. The connection is opened lazily.
func NewStore(cfg config.Neo4jConfig, logger *zap.Logger) (*Store, error) {
	if cfg.URI == "" {
		return nil, errors.New("neo4j uri is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}

	return &Store{
		driver:   driver,
		database: cfg.Database,
		logger:   logger.Named("neo4j"),
	}, nil
}

// Close closes the driver.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// Ping checks that the server is reachable with the configured credentials.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("connecting to neo4j: %w", err)
	}
	return nil
}

// Execute runs schema statements one by one, then every data statement in
// one write transaction. Neo4j refuses schema and data changes in the same
// transaction.
func (s *Store) Execute(ctx context.Context, statements []string) error {
	schema, data := splitStatements(statements)

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	for _, stmt := range schema {
		result, err := session.Run(ctx, stmt, nil)
		if err != nil {
			return fmt.Errorf("running schema statement %q: %w", stmt, err)
		}
		if _, err := result.Consume(ctx); err != nil {
			return fmt.Errorf("running schema statement %q: %w", stmt, err)
		}
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for i, stmt := range data {
			result, err := tx.Run(ctx, stmt, nil)
			if err != nil {
				return nil, fmt.Errorf("statement %d: %w", i+1, err)
			}
			if _, err := result.Consume(ctx); err != nil {
				return nil, fmt.Errorf("statement %d: %w", i+1, err)
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("loading graph: %w", err)
	}

	s.logger.Info("graph loaded",
		zap.Int("schema_statements", len(schema)),
		zap.Int("data_statements", len(data)))
	return nil
}

// Clear removes every node and relationship from the database.
func (s *Store) Clear(ctx context.Context) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	result, err := session.Run(ctx, "MATCH (n) DETACH DELETE n", nil)
	if err != nil {
		return fmt.Errorf("clearing graph: %w", err)
	}
	if _, err := result.Consume(ctx); err != nil {
		return fmt.Errorf("clearing graph: %w", err)
	}
	return nil
}

// splitStatements separates index/constraint statements from data
// statements and drops blanks and comment-only lines.
func splitStatements(statements []string) (schema, data []string) {
	for _, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" || strings.HasPrefix(stmt, "//") {
			continue
		}
		stmt = strings.TrimSuffix(stmt, ";")
		upper := strings.ToUpper(stmt)
		if strings.HasPrefix(upper, "CREATE INDEX") || strings.HasPrefix(upper, "CREATE CONSTRAINT") ||
			strings.HasPrefix(upper, "DROP INDEX") || strings.HasPrefix(upper, "DROP CONSTRAINT") {
			schema = append(schema, stmt)
			continue
		}
		data = append(data, stmt)
	}
	return schema, data
}
