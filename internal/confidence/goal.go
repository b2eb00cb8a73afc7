package confidence

import (
	"github.com/fitonboard/backend/internal/fitness"
)

const neutralCoverage = 0.7

type goalAlignment struct{}

func (goalAlignment) Factor() Factor { return FactorGoalAlignment }

// Calculate weighs goal-category coverage 60/40 against body-area coverage.
func (goalAlignment) Calculate(in Input) float64 {
	main := in.Plan.Main
	if len(main) == 0 {
		main = in.Plan.AllExercises()
	}
	return 0.6*goalCoverage(in.Request.Goals, main) + 0.4*areaCoverage(in, main)
}

func goalCoverage(goals []fitness.Goal, exercises []fitness.Exercise) float64 {
	if len(goals) == 0 {
		return neutralCoverage
	}
	covered := 0
	for _, g := range goals {
		categories := fitness.GoalCategories[g]
		for _, e := range exercises {
			if categories == nil || containsNormalized(categories, e.Category) {
				covered++
				break
			}
		}
	}
	return fraction(covered, len(goals), neutralCoverage)
}

// areaCoverage counts only the most specific requested areas, so selecting
// a region together with one of its muscles asks for the muscle.
func areaCoverage(in Input, exercises []fitness.Exercise) float64 {
	areas := in.BodyAreas.MostSpecific(in.Request.BodyAreas)
	if len(areas) == 0 {
		return neutralCoverage
	}
	covered := 0
	for _, a := range areas {
		for _, e := range exercises {
			if targetsAny(in, e.TargetAreas, []string{a}) {
				covered++
				break
			}
		}
	}
	return fraction(covered, len(areas), neutralCoverage)
}

func containsNormalized(list []string, v string) bool {
	v = fitness.Normalize(v)
	for _, item := range list {
		if fitness.Normalize(item) == v {
			return true
		}
	}
	return false
}
