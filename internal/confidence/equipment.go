package confidence

import "github.com/fitonboard/backend/internal/fitness"

type equipmentFit struct{}

func (equipmentFit) Factor() Factor { return FactorEquipmentFit }

// Calculate is the share of exercises whose equipment is all available.
func (equipmentFit) Calculate(in Input) float64 {
	exercises := in.Plan.AllExercises()
	if len(exercises) == 0 {
		return 0
	}
	ok := 0
	for _, e := range exercises {
		if equipmentAvailable(in, e.Equipment) {
			ok++
		}
	}
	return fraction(ok, len(exercises), 0)
}

// equipmentAvailable checks required against the most specific selected
// items only. A selection always carries its ancestor chain, and an implied
// category must not stand for the siblings of what was actually picked.
func equipmentAvailable(in Input, required []string) bool {
	have := in.Equipment.MostSpecific(in.Request.Equipment)
	for _, r := range required {
		if alwaysAvailable(r) {
			continue
		}
		found := false
		for _, h := range have {
			if in.Equipment.Related(r, h) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func alwaysAvailable(name string) bool {
	switch fitness.Normalize(name) {
	case "", "none", "bodyweight", "body-weight", "bodyweight-only":
		return true
	}
	return false
}
