package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitonboard/backend/internal/fitness"
	"github.com/fitonboard/backend/pkg/apperrors"
)

func TestParsePlanAcceptsWrappedJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bare", planJSON},
		{"fenced", "```json\n" + planJSON + "\n```"},
		{"plain fence", "```\n" + planJSON + "\n```"},
		{"surrounding prose", "Here is your plan:\n" + planJSON + "\nEnjoy!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := ParsePlan(tt.content)
			require.NoError(t, err)
			assert.Equal(t, "Quick Burner", plan.Title)
			assert.Len(t, plan.AllExercises(), 3)
		})
	}
}

func TestParsePlanNormalizes(t *testing.T) {
	plan, err := ParsePlan(`{"main":[{"name":"  Row ","category":"Strength","sets":-2,"reps":10,"equipment":["Cable Machine"],"targetAreas":["Upper Back"]}]}`)
	require.NoError(t, err)

	e := plan.Main[0]
	assert.Equal(t, "Row", e.Name)
	assert.Equal(t, "strength", e.Category)
	assert.Equal(t, fitness.IntensityModerate, e.Intensity)
	assert.Equal(t, 0, e.Sets)
	assert.Equal(t, []string{"cable-machine"}, e.Equipment)
	assert.Equal(t, []string{"upper-back"}, e.TargetAreas)
	assert.Equal(t, "1-minute workout", plan.Title)
}

func TestParsePlanClampsNegativeDurations(t *testing.T) {
	plan, err := ParsePlan(`{"main":[{"name":"Plank","category":"core","durationSeconds":-45,"restSeconds":-10},{"name":"Wall Sit","category":"strength","sets":2,"durationSeconds":40,"restSeconds":20}]}`)
	require.NoError(t, err)

	plank := plan.Main[0]
	assert.Equal(t, 0, plank.DurationSeconds)
	assert.Equal(t, 0, plank.RestSeconds)
	assert.False(t, plank.HasVolume())
	assert.Equal(t, 40, plan.Main[1].DurationSeconds)
	assert.Equal(t, "2-minute workout", plan.Title)
}

func TestParsePlanErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"no object", "[1, 2, 3]"},
		{"truncated", `{"main":[{"name":"Squat"`},
		{"wrong types", `{"main":"squats"}`},
		{"no exercises", `{"title":"Nothing"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePlan(tt.content)
			require.Error(t, err)
			assert.Equal(t, apperrors.CodeLLMParse, apperrors.CodeOf(err))
		})
	}
}
