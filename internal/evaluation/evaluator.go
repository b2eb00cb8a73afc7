// Package evaluation replays a labelled dataset of workout plans through the
// confidence scorer and reports how its levels line up with the labels.
package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/fitonboard/backend/internal/confidence"
	"github.com/fitonboard/backend/internal/fitness"
	"github.com/fitonboard/backend/pkg/logger"
)

// Scorer rates one plan against the request it was made for.
type Scorer interface {
	Score(req fitness.Request, plan fitness.Plan) confidence.Result
}

type Evaluator struct {
	scorer Scorer
}

type Dataset struct {
	Items []DatasetItem `json:"items"`
}

type DatasetItem struct {
	Name          string           `json:"name"`
	Request       fitness.Request  `json:"request"`
	Plan          fitness.Plan     `json:"plan"`
	ExpectedLevel confidence.Level `json:"expectedLevel,omitempty"`
}

type ItemResult struct {
	Name     string             `json:"name"`
	Expected confidence.Level   `json:"expected,omitempty"`
	Actual   confidence.Level   `json:"actual"`
	Score    float64            `json:"score"`
	Factors  confidence.Factors `json:"factors"`
	Match    *bool              `json:"match,omitempty"`
	Error    string             `json:"error,omitempty"`
}

type EvaluationReport struct {
	TotalItems       int                           `json:"totalItems"`
	Evaluated        int                           `json:"evaluated"`
	Skipped          int                           `json:"skipped"`
	LevelCounts      map[confidence.Level]int      `json:"levelCounts"`
	LevelPercentages map[confidence.Level]float64  `json:"levelPercentages"`
	AvgOverallScore  float64                       `json:"avgOverallScore"`
	AvgFactorScores  map[confidence.Factor]float64 `json:"avgFactorScores"`
	Labelled         int                           `json:"labelled"`
	Agreements       int                           `json:"agreements"`
	AgreementPct     float64                       `json:"agreementPct"`
	Results          []ItemResult                  `json:"results"`
}

func NewEvaluator(scorer Scorer) *Evaluator {
	return &Evaluator{
		scorer: scorer,
	}
}

// LoadDataset reads either {"items": [...]} or a bare array of items.
func LoadDataset(r io.Reader) (*Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	var ds Dataset
	if err := json.Unmarshal(data, &ds); err == nil && ds.Items != nil {
		return &ds, nil
	}
	if err := json.Unmarshal(data, &ds.Items); err != nil {
		return nil, fmt.Errorf("failed to parse dataset: %w", err)
	}
	return &ds, nil
}

func LoadDatasetFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()
	return LoadDataset(f)
}

// RunDatasetEvaluation scores every item. Items whose request is invalid are
// reported and skipped; a cancelled context stops the run.
func (e *Evaluator) RunDatasetEvaluation(ctx context.Context, dataset *Dataset) (*EvaluationReport, error) {
	logger.Info("Running dataset evaluation", zap.Int("items", len(dataset.Items)))

	report := &EvaluationReport{
		TotalItems:       len(dataset.Items),
		LevelCounts:      make(map[confidence.Level]int),
		LevelPercentages: make(map[confidence.Level]float64),
		AvgFactorScores:  make(map[confidence.Factor]float64),
		Results:          make([]ItemResult, 0, len(dataset.Items)),
	}

	var totalScore float64
	for i, item := range dataset.Items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := item.Name
		if name == "" {
			name = fmt.Sprintf("item_%d", i+1)
		}

		if err := item.Request.Validate(); err != nil {
			logger.Warn("Skipping dataset item", zap.String("item", name), zap.Error(err))
			report.Skipped++
			report.Results = append(report.Results, ItemResult{Name: name, Expected: item.ExpectedLevel, Error: err.Error()})
			continue
		}

		res := e.scorer.Score(item.Request, item.Plan)
		result := ItemResult{
			Name:     name,
			Expected: item.ExpectedLevel,
			Actual:   res.Level,
			Score:    res.OverallScore,
			Factors:  res.Factors,
		}

		report.Evaluated++
		report.LevelCounts[res.Level]++
		totalScore += res.OverallScore
		for _, f := range confidence.AllFactors {
			report.AvgFactorScores[f] += res.Factors.Get(f)
		}

		if item.ExpectedLevel != "" {
			match := item.ExpectedLevel == res.Level
			result.Match = &match
			report.Labelled++
			if match {
				report.Agreements++
			}
		}
		report.Results = append(report.Results, result)
	}

	if report.Evaluated > 0 {
		n := float64(report.Evaluated)
		report.AvgOverallScore = round(totalScore / n)
		for f, sum := range report.AvgFactorScores {
			report.AvgFactorScores[f] = round(sum / n)
		}
		for level, count := range report.LevelCounts {
			report.LevelPercentages[level] = round(float64(count) / n * 100)
		}
	}
	if report.Labelled > 0 {
		report.AgreementPct = round(float64(report.Agreements) / float64(report.Labelled) * 100)
	}

	logger.Info("Dataset evaluation completed",
		zap.Int("total", report.TotalItems),
		zap.Int("evaluated", report.Evaluated),
		zap.Int("skipped", report.Skipped),
		zap.Float64("agreement_pct", report.AgreementPct),
	)

	return report, nil
}

// Mismatches returns the labelled items whose level disagreed, lowest score
// first.
func (r *EvaluationReport) Mismatches() []ItemResult {
	var out []ItemResult
	for _, res := range r.Results {
		if res.Match != nil && !*res.Match {
			out = append(out, res)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score < out[j].Score })
	return out
}

func round(v float64) float64 {
	return math.Round(v*1000) / 1000
}
