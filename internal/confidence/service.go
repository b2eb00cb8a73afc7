// Package confidence scores generated workouts. Five independent factor
// calculators each produce a value in [0,1]; the overall score is their
// weighted average.
package confidence

import (
	"math"
	"time"

	"github.com/fitonboard/backend/internal/fitness"
	"github.com/fitonboard/backend/internal/prompt"
	"github.com/fitonboard/backend/internal/selection"
	"github.com/fitonboard/backend/pkg/config"
)

const Version = "1.2.0"

type Factor string

const (
	FactorProfileMatch     Factor = "profileMatch"
	FactorSafetyAlignment  Factor = "safetyAlignment"
	FactorEquipmentFit     Factor = "equipmentFit"
	FactorGoalAlignment    Factor = "goalAlignment"
	FactorStructureQuality Factor = "structureQuality"
)

// AllFactors lists the factors in reporting order.
var AllFactors = []Factor{
	FactorProfileMatch,
	FactorSafetyAlignment,
	FactorEquipmentFit,
	FactorGoalAlignment,
	FactorStructureQuality,
}

type Level string

const (
	LevelExcellent   Level = "excellent"
	LevelGood        Level = "good"
	LevelNeedsReview Level = "needs-review"
)

// Factors holds one score per calculator.
type Factors struct {
	ProfileMatch     float64 `json:"profileMatch"`
	SafetyAlignment  float64 `json:"safetyAlignment"`
	EquipmentFit     float64 `json:"equipmentFit"`
	GoalAlignment    float64 `json:"goalAlignment"`
	StructureQuality float64 `json:"structureQuality"`
}

func (f Factors) Get(name Factor) float64 {
	switch name {
	case FactorProfileMatch:
		return f.ProfileMatch
	case FactorSafetyAlignment:
		return f.SafetyAlignment
	case FactorEquipmentFit:
		return f.EquipmentFit
	case FactorGoalAlignment:
		return f.GoalAlignment
	case FactorStructureQuality:
		return f.StructureQuality
	}
	return 0
}

func (f *Factors) set(name Factor, v float64) {
	switch name {
	case FactorProfileMatch:
		f.ProfileMatch = v
	case FactorSafetyAlignment:
		f.SafetyAlignment = v
	case FactorEquipmentFit:
		f.EquipmentFit = v
	case FactorGoalAlignment:
		f.GoalAlignment = v
	case FactorStructureQuality:
		f.StructureQuality = v
	}
}

type Weights struct {
	ProfileMatch     float64 `json:"profileMatch"`
	SafetyAlignment  float64 `json:"safetyAlignment"`
	EquipmentFit     float64 `json:"equipmentFit"`
	GoalAlignment    float64 `json:"goalAlignment"`
	StructureQuality float64 `json:"structureQuality"`
}

func DefaultWeights() Weights {
	return Weights{
		ProfileMatch:     0.25,
		SafetyAlignment:  0.25,
		EquipmentFit:     0.20,
		GoalAlignment:    0.15,
		StructureQuality: 0.15,
	}
}

func (w Weights) sum() float64 {
	return w.ProfileMatch + w.SafetyAlignment + w.EquipmentFit + w.GoalAlignment + w.StructureQuality
}

// Thresholds are the lower bounds of the excellent and good levels.
type Thresholds struct {
	Excellent float64
	Good      float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{Excellent: 0.80, Good: 0.60}
}

func (t Thresholds) LevelFor(score float64) Level {
	switch {
	case score >= t.Excellent:
		return LevelExcellent
	case score >= t.Good:
		return LevelGood
	default:
		return LevelNeedsReview
	}
}

type Metadata struct {
	CalculatedAt     time.Time     `json:"calculatedAt"`
	CalculationMS    float64       `json:"calculationMs"`
	Version          string        `json:"version"`
	Weights          Weights       `json:"weights"`
	DataCompleteness float64       `json:"dataCompleteness"`
	Bucket           prompt.Bucket `json:"bucket"`
}

type Result struct {
	OverallScore    float64  `json:"overallScore"`
	Factors         Factors  `json:"factors"`
	Level           Level    `json:"level"`
	Recommendations []string `json:"recommendations"`
	Metadata        Metadata `json:"metadata"`
}

// Input is what every calculator sees.
type Input struct {
	Request   fitness.Request
	Plan      fitness.Plan
	Template  prompt.Template
	BodyAreas *selection.Catalog
	Equipment *selection.Catalog
}

// Calculator computes one factor.
type Calculator interface {
	Factor() Factor
	Calculate(in Input) float64
}

type Service struct {
	weights     Weights
	thresholds  Thresholds
	calculators []Calculator
	bodyAreas   *selection.Catalog
	equipment   *selection.Catalog
	now         func() time.Time
}

// NewService builds a scorer from config. All-zero weights or thresholds
// fall back to the defaults.
func NewService(cfg config.ScoringConfig) *Service {
	w := Weights{
		ProfileMatch:     cfg.ProfileWeight,
		SafetyAlignment:  cfg.SafetyWeight,
		EquipmentFit:     cfg.EquipmentWeight,
		GoalAlignment:    cfg.GoalWeight,
		StructureQuality: cfg.StructureWeight,
	}
	if w.sum() <= 0 {
		w = DefaultWeights()
	}
	th := Thresholds{Excellent: cfg.ExcellentAt, Good: cfg.GoodAt}
	if th.Excellent <= 0 && th.Good <= 0 {
		th = DefaultThresholds()
	}

	return &Service{
		weights:    w,
		thresholds: th,
		calculators: []Calculator{
			profileMatch{},
			safetyAlignment{},
			equipmentFit{},
			goalAlignment{},
			structureQuality{},
		},
		bodyAreas: selection.BodyAreas(),
		equipment: selection.Equipment(),
		now:       time.Now,
	}
}

func (s *Service) Weights() Weights {
	return s.weights
}

func (s *Service) Thresholds() Thresholds {
	return s.thresholds
}

// Score computes a fresh result for plan against req.
func (s *Service) Score(req fitness.Request, plan fitness.Plan) Result {
	start := s.now()

	tmpl, err := prompt.Select(req.DurationMinutes)
	if err != nil {
		tmpl, _ = prompt.ForBucket(prompt.BucketStandard)
	}
	in := Input{
		Request:   req,
		Plan:      plan,
		Template:  tmpl,
		BodyAreas: s.bodyAreas,
		Equipment: s.equipment,
	}

	var factors Factors
	for _, c := range s.calculators {
		factors.set(c.Factor(), round3(clamp01(c.Calculate(in))))
	}

	overall := round3(clamp01(s.blend(factors)))

	return Result{
		OverallScore:    overall,
		Factors:         factors,
		Level:           s.thresholds.LevelFor(overall),
		Recommendations: recommendations(factors, req),
		Metadata: Metadata{
			CalculatedAt:     start.UTC(),
			CalculationMS:    float64(s.now().Sub(start).Microseconds()) / 1000,
			Version:          Version,
			Weights:          s.weights,
			DataCompleteness: round3(dataCompleteness(req)),
			Bucket:           tmpl.Bucket,
		},
	}
}

func (s *Service) blend(f Factors) float64 {
	w := s.weights
	total := w.sum()
	if total <= 0 {
		return 0
	}
	return (f.ProfileMatch*w.ProfileMatch +
		f.SafetyAlignment*w.SafetyAlignment +
		f.EquipmentFit*w.EquipmentFit +
		f.GoalAlignment*w.GoalAlignment +
		f.StructureQuality*w.StructureQuality) / total
}

// dataCompleteness is the share of optional request inputs that are present.
func dataCompleteness(req fitness.Request) float64 {
	present := []bool{
		req.Profile.Age > 0,
		req.Profile.FitnessLevel != "",
		req.Profile.HeightCM > 0 && req.Profile.WeightKG > 0,
		len(req.Goals) > 0,
		len(req.BodyAreas) > 0,
		len(req.Equipment) > 0,
	}
	n := 0
	for _, p := range present {
		if p {
			n++
		}
	}
	return float64(n) / float64(len(present))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// fraction returns n/total, or fallback when total is zero.
func fraction(n, total int, fallback float64) float64 {
	if total == 0 {
		return fallback
	}
	return float64(n) / float64(total)
}
