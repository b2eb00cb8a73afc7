// Package neo4j stores the exercise graph: exercises, the body areas they
// target and the equipment they require.
package neo4j

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/fitonboard/backend/internal/fitness"
	"github.com/fitonboard/backend/internal/metrics"
	"github.com/fitonboard/backend/internal/selection"
	"github.com/fitonboard/backend/pkg/circuitbreaker"
	"github.com/fitonboard/backend/pkg/config"
	"github.com/fitonboard/backend/pkg/logger"
	"github.com/fitonboard/backend/pkg/retry"
)

type Client struct {
	driver      neo4j.DriverWithContext
	database    string
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
	bodyAreas   *selection.Catalog
	equipment   *selection.Catalog
}

func NewClient(cfg config.Neo4jConfig) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(context.Background())
		return nil, fmt.Errorf("failed to verify connectivity: %w", err)
	}

	cb := circuitbreaker.NewCircuitBreaker("neo4j", circuitbreaker.Config{
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          20 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		IsFailure:        graphFailure,
		OnStateChange:    metrics.BreakerStateChanged,
		Logger:           logger.GetLogger(),
	})

	retryConfig := retry.Config{
		MaxAttempts:    3,
		InitialDelay:   200 * time.Millisecond,
		MaxDelay:       3 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		OnRetry:        metrics.RetryObserver("neo4j"),
		Logger:         logger.GetLogger(),
	}

	database := cfg.Database
	if database == "" {
		database = "neo4j"
	}

	logger.Info("Neo4j client initialized", zap.String("uri", cfg.URI), zap.String("database", database))

	return &Client{
		driver:      driver,
		database:    database,
		cb:          cb,
		retryConfig: retryConfig,
		bodyAreas:   selection.BodyAreas(),
		equipment:   selection.Equipment(),
	}, nil
}

// graphFailure leaves out requests the caller abandoned. A slow graph still
// counts through the query deadline.
func graphFailure(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}

func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

func (c *Client) executeWithRetry(ctx context.Context, operation func(neo4j.SessionWithContext) error) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
			defer session.Close(ctx)
			return operation(session)
		})
	})
}

func (c *Client) run(ctx context.Context, query string, params map[string]interface{}) error {
	return c.executeWithRetry(ctx, func(session neo4j.SessionWithContext) error {
		result, err := session.Run(ctx, query, params)
		if err != nil {
			return err
		}
		_, err = result.Consume(ctx)
		return err
	})
}

// EnsureConstraints creates the uniqueness constraints the seed relies on.
func (c *Client) EnsureConstraints(ctx context.Context) error {
	for _, q := range []string{
		`CREATE CONSTRAINT exercise_name IF NOT EXISTS FOR (e:Exercise) REQUIRE e.name IS UNIQUE`,
		`CREATE CONSTRAINT body_area_key IF NOT EXISTS FOR (b:BodyArea) REQUIRE b.key IS UNIQUE`,
		`CREATE CONSTRAINT equipment_key IF NOT EXISTS FOR (q:Equipment) REQUIRE q.key IS UNIQUE`,
	} {
		if err := c.run(ctx, q, nil); err != nil {
			return fmt.Errorf("failed to create constraint: %w", err)
		}
	}
	return nil
}

// MergeCatalogEntry upserts a body area or equipment node and links it to
// its parent with PART_OF. Parents must be merged first.
func (c *Client) MergeCatalogEntry(ctx context.Context, label string, e selection.Entry) error {
	if label != LabelBodyArea && label != LabelEquipment {
		return fmt.Errorf("unsupported catalog label %q", label)
	}

	query := `MERGE (n:` + label + ` {key: $key})
		SET n.label = $label, n.level = $level`
	if e.ParentKey != "" {
		query += `
		WITH n
		MATCH (p:` + label + ` {key: $parent})
		MERGE (n)-[:PART_OF]->(p)`
	}

	err := c.run(ctx, query, map[string]interface{}{
		"key":    e.Key,
		"label":  e.Label,
		"level":  string(e.Level),
		"parent": e.ParentKey,
	})
	if err != nil {
		return fmt.Errorf("failed to merge %s %s: %w", label, e.Key, err)
	}
	return nil
}

// MergeExercise upserts an exercise with its TARGETS and REQUIRES edges.
func (c *Client) MergeExercise(ctx context.Context, ex fitness.Candidate) error {
	query := `
		MERGE (e:Exercise {name: $name})
		SET e.category = $category, e.intensity = $intensity
		WITH e
		OPTIONAL MATCH (e)-[old:TARGETS|REQUIRES]->()
		DELETE old
		WITH DISTINCT e
		CALL {
			WITH e
			UNWIND $targets AS t
			MATCH (b:BodyArea {key: t})
			MERGE (e)-[:TARGETS]->(b)
		}
		CALL {
			WITH e
			UNWIND $equipment AS q
			MATCH (k:Equipment {key: q})
			MERGE (e)-[:REQUIRES]->(k)
		}
	`

	err := c.run(ctx, query, map[string]interface{}{
		"name":      ex.Name,
		"category":  ex.Category,
		"intensity": string(ex.Intensity),
		"targets":   nonNil(ex.TargetAreas),
		"equipment": nonNil(ex.Equipment),
	})
	if err != nil {
		return fmt.Errorf("failed to merge exercise %s: %w", ex.Name, err)
	}

	logger.Debug("Exercise merged", zap.String("name", ex.Name))
	return nil
}

// CandidateExercises returns exercises that target any of areas and whose
// required equipment is all available. Areas and equipment are matched
// through the catalog hierarchy in both directions.
func (c *Client) CandidateExercises(ctx context.Context, areas, equipment []string, limit int) ([]fitness.Candidate, error) {
	if limit <= 0 {
		limit = 25
	}
	params := CandidateParams(c.bodyAreas, c.equipment, areas, equipment, limit)

	var candidates []fitness.Candidate

	err := c.executeWithRetry(ctx, func(session neo4j.SessionWithContext) error {
		candidates = candidates[:0]
		result, err := session.Run(ctx, candidateQuery, params)
		if err != nil {
			return fmt.Errorf("failed to query candidates: %w", err)
		}

		for result.Next(ctx) {
			record := result.Record()

			name, _ := record.Get("name")
			category, _ := record.Get("category")
			intensity, _ := record.Get("intensity")
			required, _ := record.Get("required")
			targets, _ := record.Get("targets")

			candidates = append(candidates, fitness.Candidate{
				Name:        asString(name),
				Category:    asString(category),
				Intensity:   fitness.Intensity(asString(intensity)),
				Equipment:   asStrings(required),
				TargetAreas: asStrings(targets),
			})
		}

		if err = result.Err(); err != nil {
			return fmt.Errorf("error iterating results: %w", err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	logger.Info("Exercise graph search completed",
		zap.Int("areas", len(areas)),
		zap.Int("equipment", len(equipment)),
		zap.Int("results_found", len(candidates)),
	)

	return candidates, nil
}

func (c *Client) CountExercises(ctx context.Context) (int64, error) {
	var count int64
	err := c.executeWithRetry(ctx, func(session neo4j.SessionWithContext) error {
		result, err := session.Run(ctx, `MATCH (e:Exercise) RETURN count(e) AS n`, nil)
		if err != nil {
			return err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return err
		}
		n, _ := record.Get("n")
		count, _ = n.(int64)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count exercises: %w", err)
	}
	return count, nil
}
