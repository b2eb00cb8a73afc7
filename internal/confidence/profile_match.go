package confidence

import (
	"math"

	"github.com/fitonboard/backend/internal/fitness"
)

type profileMatch struct{}

func (profileMatch) Factor() Factor { return FactorProfileMatch }

// Calculate blends intensity fit (60%) and duration fit (40%), then applies
// an age adjustment.
func (profileMatch) Calculate(in Input) float64 {
	exercises := in.Plan.AllExercises()
	score := 0.6*intensityFit(in.Request.Profile.FitnessLevel, exercises) +
		0.4*durationFit(in.Request.DurationMinutes, in.Plan.EstimatedMinutes())
	return score * ageFactor(in.Request.Profile.Age, exercises)
}

func maxRankFor(level fitness.FitnessLevel) int {
	if level == fitness.LevelBeginner {
		return fitness.IntensityModerate.Rank()
	}
	return fitness.IntensityHigh.Rank()
}

func intensityFit(level fitness.FitnessLevel, exercises []fitness.Exercise) float64 {
	if len(exercises) == 0 {
		return 0.5
	}
	if !level.Valid() {
		return 0.7
	}

	limit := maxRankFor(level)
	within, allLow := 0, true
	for _, e := range exercises {
		r := e.Intensity.Rank()
		if r <= limit {
			within++
		}
		if r > fitness.IntensityLow.Rank() {
			allLow = false
		}
	}
	if level == fitness.LevelAdvanced && allLow {
		return 0.7
	}
	return fraction(within, len(exercises), 0.5)
}

// durationFit is 1 within 20% of the request and falls linearly to 0 at 100%.
func durationFit(requested, planned int) float64 {
	if requested <= 0 || planned <= 0 {
		return 0.5
	}
	dev := math.Abs(float64(planned-requested)) / float64(requested)
	switch {
	case dev <= 0.2:
		return 1
	case dev >= 1:
		return 0
	default:
		return 1 - (dev-0.2)/0.8
	}
}

func ageFactor(age int, exercises []fitness.Exercise) float64 {
	if age <= 0 || len(exercises) == 0 {
		return 1
	}
	high := 0
	for _, e := range exercises {
		if e.Intensity.Rank() == fitness.IntensityHigh.Rank() {
			high++
		}
	}
	switch {
	case age >= 65 && high > 0:
		return 0.8
	case age < 18 && high*2 > len(exercises):
		return 0.9
	}
	return 1
}
