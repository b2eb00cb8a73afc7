// Package builder seeds the exercise graph from the selection catalogs and
// an embedded exercise table.
package builder

import (
	"context"
	_ "embed"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/fitonboard/backend/internal/fitness"
	"github.com/fitonboard/backend/internal/kg/neo4j"
	"github.com/fitonboard/backend/internal/selection"
	"github.com/fitonboard/backend/pkg/logger"
)

//go:embed exercises.yaml
var exercisesYAML []byte

// Graph is the write side of the exercise graph.
type Graph interface {
	EnsureConstraints(ctx context.Context) error
	MergeCatalogEntry(ctx context.Context, label string, e selection.Entry) error
	MergeExercise(ctx context.Context, ex fitness.Candidate) error
}

type Builder struct {
	graph     Graph
	bodyAreas *selection.Catalog
	equipment *selection.Catalog
}

type SeedStats struct {
	BodyAreas int
	Equipment int
	Exercises int
	Failed    int
}

func NewBuilder(graph Graph) *Builder {
	return &Builder{
		graph:     graph,
		bodyAreas: selection.BodyAreas(),
		equipment: selection.Equipment(),
	}
}

type exerciseFile struct {
	Exercises []struct {
		Name      string   `yaml:"name"`
		Category  string   `yaml:"category"`
		Intensity string   `yaml:"intensity"`
		Targets   []string `yaml:"targets"`
		Equipment []string `yaml:"equipment"`
	} `yaml:"exercises"`
}

// Exercises parses the embedded seed table and checks it against the
// catalogs.
func (b *Builder) Exercises() ([]fitness.Candidate, error) {
	return ParseExercises(exercisesYAML, b.bodyAreas, b.equipment)
}

func ParseExercises(data []byte, bodyAreas, equipment *selection.Catalog) ([]fitness.Candidate, error) {
	var f exerciseFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse exercise seed: %w", err)
	}

	seen := make(map[string]bool)
	out := make([]fitness.Candidate, 0, len(f.Exercises))
	for _, e := range f.Exercises {
		if e.Name == "" || len(e.Targets) == 0 {
			return nil, fmt.Errorf("exercise %q needs a name and at least one target", e.Name)
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("duplicate exercise %q", e.Name)
		}
		seen[e.Name] = true

		for _, t := range e.Targets {
			if _, ok := bodyAreas.Lookup(t); !ok {
				return nil, fmt.Errorf("exercise %q targets unknown body area %q", e.Name, t)
			}
		}
		for _, q := range e.Equipment {
			if _, ok := equipment.Lookup(q); !ok {
				return nil, fmt.Errorf("exercise %q requires unknown equipment %q", e.Name, q)
			}
		}

		out = append(out, fitness.Candidate{
			Name:        e.Name,
			Category:    e.Category,
			Intensity:   fitness.Intensity(e.Intensity),
			TargetAreas: e.Targets,
			Equipment:   e.Equipment,
		})
	}
	return out, nil
}

// Seed writes both catalogs and every seed exercise. Catalog entries are
// written parents first; a failed exercise is logged and skipped.
func (b *Builder) Seed(ctx context.Context) (SeedStats, error) {
	var stats SeedStats

	exercises, err := b.Exercises()
	if err != nil {
		return stats, err
	}

	if err := b.graph.EnsureConstraints(ctx); err != nil {
		return stats, err
	}

	n, err := b.seedCatalog(ctx, neo4j.LabelBodyArea, b.bodyAreas)
	stats.BodyAreas = n
	if err != nil {
		return stats, err
	}
	n, err = b.seedCatalog(ctx, neo4j.LabelEquipment, b.equipment)
	stats.Equipment = n
	if err != nil {
		return stats, err
	}

	for _, ex := range exercises {
		if err := b.graph.MergeExercise(ctx, ex); err != nil {
			logger.Error("Failed to seed exercise", zap.String("name", ex.Name), zap.Error(err))
			stats.Failed++
			continue
		}
		stats.Exercises++
	}

	logger.Info("Exercise graph seeded",
		zap.Int("body_areas", stats.BodyAreas),
		zap.Int("equipment", stats.Equipment),
		zap.Int("exercises", stats.Exercises),
		zap.Int("failed", stats.Failed),
	)
	return stats, nil
}

func (b *Builder) seedCatalog(ctx context.Context, label string, cat *selection.Catalog) (int, error) {
	count := 0
	var walk func(entries []selection.Entry) error
	walk = func(entries []selection.Entry) error {
		for _, e := range entries {
			if err := b.graph.MergeCatalogEntry(ctx, label, e); err != nil {
				return err
			}
			count++
			if err := walk(cat.ChildrenOf(e.Key)); err != nil {
				return err
			}
		}
		return nil
	}
	err := walk(cat.Roots())
	return count, err
}
