package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fitonboard/backend/internal/fitness"
	"github.com/fitonboard/backend/pkg/apperrors"
)

// ParsePlan decodes model output into a plan. Code fences and text around
// the outermost JSON object are tolerated.
func ParsePlan(content string) (fitness.Plan, error) {
	raw := extractJSON(content)
	if raw == "" {
		return fitness.Plan{}, apperrors.New(apperrors.CodeLLMParse, "model response contained no JSON object")
	}

	var plan fitness.Plan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return fitness.Plan{}, apperrors.Wrap(err, apperrors.CodeLLMParse, "model response is not a valid plan")
	}
	if plan.Empty() {
		return fitness.Plan{}, apperrors.New(apperrors.CodeLLMParse, "model returned a plan with no exercises")
	}

	normalizePlan(&plan)
	return plan, nil
}

func extractJSON(content string) string {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func normalizePlan(p *fitness.Plan) {
	for _, section := range [][]fitness.Exercise{p.WarmUp, p.Main, p.CoolDown} {
		for i := range section {
			e := &section[i]
			e.Name = strings.TrimSpace(e.Name)
			e.Category = fitness.Normalize(e.Category)
			e.Intensity = fitness.Intensity(strings.ToLower(strings.TrimSpace(string(e.Intensity))))
			if e.Intensity == "" {
				e.Intensity = fitness.IntensityModerate
			}
			for j := range e.Equipment {
				e.Equipment[j] = fitness.Normalize(e.Equipment[j])
			}
			for j := range e.TargetAreas {
				e.TargetAreas[j] = fitness.Normalize(e.TargetAreas[j])
			}
			if e.Sets < 0 {
				e.Sets = 0
			}
			if e.Reps < 0 {
				e.Reps = 0
			}
			if e.RestSeconds < 0 {
				e.RestSeconds = 0
			}
			if e.DurationSeconds < 0 {
				e.DurationSeconds = 0
			}
		}
	}
	if p.Title == "" {
		p.Title = fmt.Sprintf("%d-minute workout", p.EstimatedMinutes())
	}
}
