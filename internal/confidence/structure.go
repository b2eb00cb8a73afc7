package confidence

type structureQuality struct{}

func (structureQuality) Factor() Factor { return FactorStructureQuality }

// Calculate awards points for warm-up (0.20), cool-down (0.15), a main
// block sized for the bucket (0.25), prescribed volume (0.20), rest (0.10)
// and instructions (0.10).
func (structureQuality) Calculate(in Input) float64 {
	plan := in.Plan
	score := 0.0

	if len(plan.WarmUp) > 0 {
		score += 0.20
	}
	if len(plan.CoolDown) > 0 {
		score += 0.15
	}

	switch in.Template.Exercises.Distance(len(plan.Main)) {
	case 0:
		score += 0.25
	case 1:
		score += 0.125
	}

	if len(plan.Main) == 0 {
		return score
	}
	withVolume, withRest := 0, 0
	for _, e := range plan.Main {
		if e.HasVolume() {
			withVolume++
		}
		if e.RestSeconds > 0 {
			withRest++
		}
	}
	withInstructions := 0
	all := plan.AllExercises()
	for _, e := range all {
		if e.Instructions != "" {
			withInstructions++
		}
	}

	score += 0.20 * fraction(withVolume, len(plan.Main), 0)
	score += 0.10 * fraction(withRest, len(plan.Main), 0)
	score += 0.10 * fraction(withInstructions, len(all), 0)
	return score
}
