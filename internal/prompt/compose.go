package prompt

import (
	"fmt"
	"strings"

	"github.com/fitonboard/backend/internal/fitness"
)

// MaxCandidates caps the exercise suggestions included in a prompt.
const MaxCandidates = 25

type Prompt struct {
	System string
	User   string
	Bucket Bucket
}

const systemPrompt = `You are a certified personal trainer building safe, individualised workouts for new gym members.
Respect every medical flag and injury you are given: avoid loading injured areas, prefer low or moderate intensity when medical conditions are present, and always include a warm-up and a cool-down.
Only use the equipment listed as available. Bodyweight exercises are always allowed.

Respond with JSON only, no prose and no code fences, matching this shape:
{
  "title": "string",
  "durationMinutes": number,
  "warmUp": [Exercise],
  "main": [Exercise],
  "coolDown": [Exercise],
  "notes": "string"
}
where Exercise is:
{
  "name": "string",
  "category": "strength|cardio|mobility|plyometric|core",
  "sets": number, "reps": number, "durationSeconds": number, "restSeconds": number,
  "equipment": ["equipment key"],
  "targetAreas": ["body area key"],
  "intensity": "low|moderate|high",
  "instructions": "string"
}`

// Compose renders the prompt for req. Candidates are optional.
func Compose(req fitness.Request, candidates []fitness.Candidate) (Prompt, error) {
	tmpl, err := Select(req.DurationMinutes)
	if err != nil {
		return Prompt{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Create a %d-minute %s workout: %s.\n\n", req.DurationMinutes, tmpl.Bucket, tmpl.Focus)

	b.WriteString("Profile:\n")
	if req.Profile.Name != "" {
		fmt.Fprintf(&b, "- Name: %s\n", req.Profile.Name)
	}
	if req.Profile.Age > 0 {
		fmt.Fprintf(&b, "- Age: %d\n", req.Profile.Age)
	}
	fmt.Fprintf(&b, "- Fitness level: %s\n", orDefault(string(req.Profile.FitnessLevel), "unspecified"))
	if req.Profile.HeightCM > 0 && req.Profile.WeightKG > 0 {
		fmt.Fprintf(&b, "- Height/weight: %.0f cm / %.0f kg\n", req.Profile.HeightCM, req.Profile.WeightKG)
	}

	goals := make([]string, 0, len(req.Goals))
	for _, g := range req.Goals {
		goals = append(goals, string(g))
	}
	fmt.Fprintf(&b, "\nGoals: %s\n", joinOr(goals, "general fitness"))
	fmt.Fprintf(&b, "Target body areas: %s\n", joinOr(req.BodyAreas, "full body"))
	fmt.Fprintf(&b, "Available equipment: %s\n", joinOr(req.Equipment, "bodyweight only"))

	b.WriteString("\nSafety constraints:\n")
	if req.HasMedicalFlags() {
		fmt.Fprintf(&b, "- Medical conditions: %s\n", strings.Join(req.MedicalFlags, ", "))
		if req.PhysicianClearance {
			b.WriteString("- Physician clearance: yes\n")
		} else {
			b.WriteString("- Physician clearance: NO. Keep every exercise at low or moderate intensity.\n")
		}
	} else {
		b.WriteString("- Medical conditions: none reported\n")
	}
	if len(req.Injuries) > 0 {
		fmt.Fprintf(&b, "- Injuries, do not load: %s\n", strings.Join(req.Injuries, ", "))
	}

	fmt.Fprintf(&b, "\nStructure:\n- Warm-up: about %d minutes\n- Main block: about %d minutes with %d to %d exercises\n- Cool-down: about %d minutes\n",
		tmpl.WarmUpMinutes, tmpl.MainMinutes(req.DurationMinutes), tmpl.Exercises.Min, tmpl.Exercises.Max, tmpl.CoolDownMinutes)

	if len(candidates) > 0 {
		b.WriteString("\nSuggested exercises you may draw from:\n")
		for i, c := range candidates {
			if i == MaxCandidates {
				break
			}
			fmt.Fprintf(&b, "- %s (%s, %s; equipment: %s)\n", c.Name, c.Category, orDefault(string(c.Intensity), "moderate"), joinOr(c.Equipment, "bodyweight"))
		}
	}

	if notes := strings.TrimSpace(req.Notes); notes != "" {
		fmt.Fprintf(&b, "\nAdditional notes from the member: %s\n", notes)
	}
	b.WriteString("\nReturn the JSON object only.")

	return Prompt{System: systemPrompt, User: b.String(), Bucket: tmpl.Bucket}, nil
}

func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
