package graphstore

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/uttree-health/platform/pkg/common/config"
	"github.com/uttree-health/platform/pkg/common/logger"
	"github.com/uttree-health/platform/pkg/common/models"
)

// Store is the boundary toward the graph/vector collaborator. This core
// only owns the upsert contract keyed by admission id; querying and schema
// design belong to the collaborator.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
}

func NewStore(cfg *config.Config) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verifying neo4j connectivity: %w", err)
	}

	return &Store{driver: driver, database: cfg.Neo4jDatabase}, nil
}

// EnsureSchema creates the admission id constraint. Best-effort: restricted
// users may not be allowed to manage schema.
func (s *Store) EnsureSchema(ctx context.Context) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	res, err := session.Run(ctx,
		`CREATE CONSTRAINT admission_id_unique IF NOT EXISTS FOR (a:Admission) REQUIRE a.hadm_id IS UNIQUE`, nil)
	if err != nil {
		logger.Log.WithError(err).Warn("neo4j schema init failed (continuing)")
		return
	}
	_, _ = res.Consume(ctx)
}

// Upsert writes one admission's canonical string and embedding vector,
// linked to its subject. Idempotent per admission id.
func (s *Store) Upsert(ctx context.Context, result models.AdmissionResult) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MERGE (a:Admission {hadm_id: $hadm_id})
SET a.canonical = $canonical,
    a.vector = $vector,
    a.sequence_length = $sequence_length,
    a.quadruple_count = $quadruple_count,
    a.embedded_at = $embedded_at
MERGE (p:Patient {subject_id: $subject_id})
MERGE (p)-[:HAS_ADMISSION]->(a)
`, map[string]any{
			"hadm_id":         result.AdmissionID,
			"subject_id":      result.SubjectID,
			"canonical":       result.Canonical,
			"vector":          result.Vector,
			"sequence_length": result.SequenceLength,
			"quadruple_count": result.QuadrupleCount,
			"embedded_at":     time.Now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("upserting admission %d: %w", result.AdmissionID, err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}
