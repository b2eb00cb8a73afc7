package confidence

import (
	"math"

	"github.com/fitonboard/backend/internal/fitness"
)

const (
	penaltyNoWarmUp      = 0.15
	penaltyNoCoolDown    = 0.10
	penaltyHighIntensity = 0.10
	maxHighIntensity     = 0.40
	penaltyNoClearance   = 0.20
	penaltyInjuredArea   = 0.15
	maxInjuredArea       = 0.45
	safetyFloor          = 0.5
)

type safetyAlignment struct{}

func (safetyAlignment) Factor() Factor { return FactorSafetyAlignment }

// Calculate starts from 1 and subtracts penalties. The result never drops
// below safetyFloor unless medical flags are present without clearance.
func (safetyAlignment) Calculate(in Input) float64 {
	req, plan := in.Request, in.Plan
	score := 1.0

	if len(plan.WarmUp) == 0 {
		score -= penaltyNoWarmUp
	}
	if len(plan.CoolDown) == 0 {
		score -= penaltyNoCoolDown
	}

	exercises := plan.AllExercises()
	if req.HasMedicalFlags() {
		high := 0
		for _, e := range exercises {
			if e.Intensity.Rank() == fitness.IntensityHigh.Rank() {
				high++
			}
		}
		score -= math.Min(float64(high)*penaltyHighIntensity, maxHighIntensity)
		if !req.PhysicianClearance {
			score -= penaltyNoClearance
		}
	}

	if len(req.Injuries) > 0 {
		hits := 0
		for _, e := range exercises {
			if targetsAny(in, e.TargetAreas, req.Injuries) {
				hits++
			}
		}
		score -= math.Min(float64(hits)*penaltyInjuredArea, maxInjuredArea)
	}

	if !(req.HasMedicalFlags() && !req.PhysicianClearance) {
		score = math.Max(score, safetyFloor)
	}
	return score
}

func targetsAny(in Input, targets, areas []string) bool {
	for _, t := range targets {
		for _, a := range areas {
			if in.BodyAreas.Related(t, a) {
				return true
			}
		}
	}
	return false
}
