package models

import (
	"encoding/json"
	"time"
)

type Profile struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Age               int       `json:"age"`
	FitnessLevel      string    `json:"fitnessLevel"`
	Goals             []string  `json:"goals"`
	Injuries          []string  `json:"injuries"`
	PreferredDuration int       `json:"preferredDuration"`
	HeightCM          float64   `json:"heightCm,omitempty"`
	WeightKG          float64   `json:"weightKg,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Waiver is a signed waiver. Payload holds the full form as JSON.
type Waiver struct {
	ID                 string
	UserID             string
	Payload            json.RawMessage
	MedicalFlags       []string
	PhysicianClearance bool
	Digest             string
	SignedAt           time.Time
	CreatedAt          time.Time
}

type Workout struct {
	ID               string
	UserID           string
	Request          json.RawMessage
	Plan             json.RawMessage
	Confidence       json.RawMessage
	Bucket           string
	Model            string
	OverallScore     float64
	Level            string
	PromptTokens     int
	CompletionTokens int
	LatencyMS        int
	Cached           bool
	CreatedAt        time.Time
}

type Feedback struct {
	ID        int
	WorkoutID string
	Helpful   bool
	Rating    int
	Comment   string
	CreatedAt time.Time
}

type FeedbackStats struct {
	Total         int     `json:"total"`
	Helpful       int     `json:"helpful"`
	AverageRating float64 `json:"averageRating"`
}
