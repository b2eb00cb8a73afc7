// Package fitness holds the request and plan types shared by prompt
// composition, confidence scoring and workout generation.
package fitness

import (
	"fmt"
	"strings"
)

type FitnessLevel string

const (
	LevelBeginner     FitnessLevel = "beginner"
	LevelIntermediate FitnessLevel = "intermediate"
	LevelAdvanced     FitnessLevel = "advanced"
)

func (l FitnessLevel) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

type Intensity string

const (
	IntensityLow      Intensity = "low"
	IntensityModerate Intensity = "moderate"
	IntensityHigh     Intensity = "high"
)

// Rank orders intensities; unknown values rank as moderate.
func (i Intensity) Rank() int {
	switch Intensity(strings.ToLower(string(i))) {
	case IntensityLow:
		return 1
	case IntensityHigh:
		return 3
	default:
		return 2
	}
}

type Goal string

const (
	GoalStrength       Goal = "strength"
	GoalMuscleGain     Goal = "muscle-gain"
	GoalWeightLoss     Goal = "weight-loss"
	GoalEndurance      Goal = "endurance"
	GoalFlexibility    Goal = "flexibility"
	GoalGeneralFitness Goal = "general-fitness"
)

var AllGoals = []Goal{
	GoalStrength,
	GoalMuscleGain,
	GoalWeightLoss,
	GoalEndurance,
	GoalFlexibility,
	GoalGeneralFitness,
}

func (g Goal) Valid() bool {
	for _, known := range AllGoals {
		if g == known {
			return true
		}
	}
	return false
}

// Exercise categories the model is asked to label exercises with.
const (
	CategoryStrength   = "strength"
	CategoryCardio     = "cardio"
	CategoryMobility   = "mobility"
	CategoryPlyometric = "plyometric"
	CategoryCore       = "core"
)

// GoalCategories lists the exercise categories that serve each goal. An
// empty list means any category does.
var GoalCategories = map[Goal][]string{
	GoalStrength:       {CategoryStrength},
	GoalMuscleGain:     {CategoryStrength},
	GoalWeightLoss:     {CategoryCardio, CategoryPlyometric},
	GoalEndurance:      {CategoryCardio},
	GoalFlexibility:    {CategoryMobility},
	GoalGeneralFitness: nil,
}

// Profile is the slice of a user profile a workout request carries.
type Profile struct {
	Name         string       `json:"name"`
	Age          int          `json:"age"`
	FitnessLevel FitnessLevel `json:"fitnessLevel"`
	HeightCM     float64      `json:"heightCm,omitempty"`
	WeightKG     float64      `json:"weightKg,omitempty"`
}

// Request is everything known about the user when a workout is asked for.
type Request struct {
	UserID             string   `json:"userId"`
	Profile            Profile  `json:"profile"`
	DurationMinutes    int      `json:"durationMinutes"`
	Goals              []Goal   `json:"goals"`
	BodyAreas          []string `json:"bodyAreas"`
	Equipment          []string `json:"equipment"`
	MedicalFlags       []string `json:"medicalFlags,omitempty"`
	PhysicianClearance bool     `json:"physicianClearance"`
	Injuries           []string `json:"injuries,omitempty"`
	Notes              string   `json:"notes,omitempty"`
}

func (r Request) Validate() error {
	if r.DurationMinutes <= 0 {
		return fmt.Errorf("duration must be positive, got %d", r.DurationMinutes)
	}
	if r.DurationMinutes > 180 {
		return fmt.Errorf("duration must not exceed 180 minutes, got %d", r.DurationMinutes)
	}
	if r.Profile.FitnessLevel != "" && !r.Profile.FitnessLevel.Valid() {
		return fmt.Errorf("unknown fitness level %q", r.Profile.FitnessLevel)
	}
	for _, g := range r.Goals {
		if !g.Valid() {
			return fmt.Errorf("unknown goal %q", g)
		}
	}
	return nil
}

func (r Request) HasMedicalFlags() bool {
	return len(r.MedicalFlags) > 0
}

type Exercise struct {
	Name            string    `json:"name"`
	Category        string    `json:"category"`
	Sets            int       `json:"sets,omitempty"`
	Reps            int       `json:"reps,omitempty"`
	DurationSeconds int       `json:"durationSeconds,omitempty"`
	RestSeconds     int       `json:"restSeconds,omitempty"`
	Equipment       []string  `json:"equipment,omitempty"`
	TargetAreas     []string  `json:"targetAreas,omitempty"`
	Intensity       Intensity `json:"intensity"`
	Instructions    string    `json:"instructions,omitempty"`
}

// HasVolume reports whether the exercise prescribes sets and reps or a
// timed duration.
func (e Exercise) HasVolume() bool {
	return (e.Sets > 0 && e.Reps > 0) || e.DurationSeconds > 0
}

// Plan is a generated workout split into its three sections.
type Plan struct {
	Title           string     `json:"title"`
	DurationMinutes int        `json:"durationMinutes"`
	WarmUp          []Exercise `json:"warmUp"`
	Main            []Exercise `json:"main"`
	CoolDown        []Exercise `json:"coolDown"`
	Notes           string     `json:"notes,omitempty"`
}

func (p Plan) AllExercises() []Exercise {
	all := make([]Exercise, 0, len(p.WarmUp)+len(p.Main)+len(p.CoolDown))
	all = append(all, p.WarmUp...)
	all = append(all, p.Main...)
	all = append(all, p.CoolDown...)
	return all
}

func (p Plan) Empty() bool {
	return len(p.WarmUp) == 0 && len(p.Main) == 0 && len(p.CoolDown) == 0
}

// EstimatedMinutes returns the declared duration when present, otherwise a
// rough estimate of 3 seconds per rep plus prescribed rest.
func (p Plan) EstimatedMinutes() int {
	if p.DurationMinutes > 0 {
		return p.DurationMinutes
	}
	var seconds int
	for _, e := range p.AllExercises() {
		sets := e.Sets
		if sets <= 0 {
			sets = 1
		}
		work := e.DurationSeconds
		if work == 0 {
			work = e.Reps * 3
		}
		seconds += sets*work + (sets-1)*e.RestSeconds
	}
	return (seconds + 59) / 60
}

// Normalize lower-cases and trims keys so they compare with catalog keys.
func Normalize(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	return strings.Join(strings.Fields(strings.ReplaceAll(key, "_", "-")), "-")
}

// Candidate is a known exercise offered to the model as a starting point.
type Candidate struct {
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Intensity   Intensity `json:"intensity"`
	Equipment   []string  `json:"equipment,omitempty"`
	TargetAreas []string  `json:"targetAreas,omitempty"`
}
