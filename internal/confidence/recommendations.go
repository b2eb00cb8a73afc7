package confidence

import "github.com/fitonboard/backend/internal/fitness"

// RecommendBelow is the factor score under which a recommendation is made.
const RecommendBelow = 0.60

var factorAdvice = map[Factor]string{
	FactorProfileMatch:     "Adjust intensity and session length to better match your fitness level and requested duration.",
	FactorSafetyAlignment:  "Review this plan for safety: add a warm-up and cool-down and avoid high intensity or injured areas.",
	FactorEquipmentFit:     "Some exercises need equipment you did not select; swap them for alternatives you have.",
	FactorGoalAlignment:    "The plan does not cover all of your goals or selected body areas; consider regenerating with a narrower focus.",
	FactorStructureQuality: "The plan is missing structure details such as sets, reps, rest periods or instructions.",
}

const (
	adviceNoClearance = "You reported medical conditions without physician clearance; consult your physician before starting this workout."
	adviceCleared     = "You reported medical conditions; stop immediately and seek advice if you feel pain, dizziness or shortness of breath."
)

func recommendations(f Factors, req fitness.Request) []string {
	seen := make(map[string]bool)
	out := []string{}
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	for _, name := range AllFactors {
		if f.Get(name) < RecommendBelow {
			add(factorAdvice[name])
		}
	}
	if req.HasMedicalFlags() {
		if req.PhysicianClearance {
			add(adviceCleared)
		} else {
			add(adviceNoClearance)
		}
	}
	return out
}
