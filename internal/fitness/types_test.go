package fitness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestValidate(t *testing.T) {
	base := Request{DurationMinutes: 30, Profile: Profile{FitnessLevel: LevelBeginner}}

	tests := []struct {
		name    string
		mutate  func(r *Request)
		wantErr bool
	}{
		{"valid", func(r *Request) {}, false},
		{"zero duration", func(r *Request) { r.DurationMinutes = 0 }, true},
		{"too long", func(r *Request) { r.DurationMinutes = 181 }, true},
		{"unknown level", func(r *Request) { r.Profile.FitnessLevel = "elite" }, true},
		{"unknown goal", func(r *Request) { r.Goals = []Goal{"bulk"} }, true},
		{"known goals", func(r *Request) { r.Goals = []Goal{GoalStrength, GoalFlexibility} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base
			tt.mutate(&r)
			err := r.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIntensityRank(t *testing.T) {
	assert.Less(t, IntensityLow.Rank(), IntensityModerate.Rank())
	assert.Less(t, IntensityModerate.Rank(), IntensityHigh.Rank())
	assert.Equal(t, 3, Intensity("HIGH").Rank())
	assert.Equal(t, 2, Intensity("").Rank())
}

func TestEstimatedMinutes(t *testing.T) {
	declared := Plan{DurationMinutes: 25}
	assert.Equal(t, 25, declared.EstimatedMinutes())

	estimated := Plan{
		Main: []Exercise{
			{Sets: 3, Reps: 10, RestSeconds: 60},
			{DurationSeconds: 120},
		},
	}
	// 3*30 + 2*60 + 120 = 330 seconds
	assert.Equal(t, 6, estimated.EstimatedMinutes())
}

func TestExerciseHasVolume(t *testing.T) {
	assert.True(t, Exercise{Sets: 3, Reps: 8}.HasVolume())
	assert.True(t, Exercise{DurationSeconds: 30}.HasVolume())
	assert.False(t, Exercise{Sets: 3}.HasVolume())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "upper-chest", Normalize("  Upper Chest "))
	assert.Equal(t, "lower-back", Normalize("lower_back"))
}
