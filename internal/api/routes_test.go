package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitonboard/backend/internal/api/handlers"
	"github.com/fitonboard/backend/internal/confidence"
	"github.com/fitonboard/backend/internal/fitness"
	"github.com/fitonboard/backend/internal/llm"
	"github.com/fitonboard/backend/internal/profile"
	"github.com/fitonboard/backend/internal/prompt"
	"github.com/fitonboard/backend/internal/selection"
	"github.com/fitonboard/backend/internal/storage/sqlite"
	"github.com/fitonboard/backend/internal/waiver"
	"github.com/fitonboard/backend/internal/workout"
	"github.com/fitonboard/backend/pkg/config"
)

type memDrafts struct {
	mu     sync.Mutex
	drafts map[string]waiver.Data
}

func (m *memDrafts) SaveDraft(_ context.Context, userID string, d waiver.Data) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[userID] = d
	return nil
}

func (m *memDrafts) LoadDraft(_ context.Context, userID string) (waiver.Data, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[userID]
	return d, ok, nil
}

type stubGenerator struct{}

func (stubGenerator) GenerateWorkout(_ context.Context, p prompt.Prompt) (*llm.WorkoutResponse, error) {
	return &llm.WorkoutResponse{
		Model: "gpt-test",
		Plan: fitness.Plan{
			Title:           "Test Session",
			DurationMinutes: 30,
			WarmUp:          []fitness.Exercise{{Name: "March in Place", Category: fitness.CategoryCardio, DurationSeconds: 180, Intensity: fitness.IntensityLow, Instructions: "Easy pace."}},
			Main: []fitness.Exercise{
				{Name: "Push-up", Category: fitness.CategoryStrength, Sets: 3, Reps: 10, RestSeconds: 45, TargetAreas: []string{"chest"}, Intensity: fitness.IntensityModerate, Instructions: "Brace."},
				{Name: "Squat", Category: fitness.CategoryStrength, Sets: 3, Reps: 12, RestSeconds: 45, TargetAreas: []string{"quads"}, Intensity: fitness.IntensityModerate, Instructions: "Sit back."},
				{Name: "Plank", Category: fitness.CategoryCore, Sets: 3, DurationSeconds: 30, RestSeconds: 30, TargetAreas: []string{"abs"}, Intensity: fitness.IntensityModerate, Instructions: "Hold."},
				{Name: "Glute Bridge", Category: fitness.CategoryStrength, Sets: 3, Reps: 15, RestSeconds: 30, TargetAreas: []string{"glutes"}, Intensity: fitness.IntensityLow, Instructions: "Squeeze."},
			},
			CoolDown: []fitness.Exercise{{Name: "Child's Pose", Category: fitness.CategoryMobility, DurationSeconds: 120, Intensity: fitness.IntensityLow, Instructions: "Breathe."}},
		},
	}, nil
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := sqlite.NewClient(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	require.NoError(t, db.InitSchema())
	t.Cleanup(func() { db.Close() })

	waivers := waiver.NewService(db, &memDrafts{drafts: make(map[string]waiver.Data)}, time.Hour)
	t.Cleanup(waivers.Close)

	workouts := workout.NewService(db, nil, nil, stubGenerator{},
		confidence.NewService(config.ScoringConfig{}), workout.DefaultConfig())

	app := fiber.New()
	Register(app, Handlers{
		Health: handlers.NewHealthHandler(map[string]handlers.Check{
			"sqlite": func(context.Context) error { return db.Ping() },
		}),
		Waiver:    handlers.NewWaiverHandler(waivers),
		Profile:   handlers.NewProfileHandler(profile.NewService(db)),
		Selection: handlers.NewSelectionHandler(selection.BodyAreas(), selection.Equipment()),
		Workout:   handlers.NewWorkoutHandler(workouts),
	})
	return app
}

func call(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func validWaiver() waiver.Data {
	return waiver.Data{
		FullName:              "Jordan Lee",
		DateOfBirth:           "1990-04-02",
		Email:                 "jordan@example.com",
		EmergencyContactName:  "Sam Lee",
		EmergencyContactPhone: "+1 555 010 9999",
		AgreedToTerms:         true,
		Signature:             "jordan lee",
	}
}

func fieldNames(body map[string]interface{}) []string {
	var out []string
	fields, _ := body["fields"].([]interface{})
	for _, f := range fields {
		out = append(out, f.(map[string]interface{})["field"].(string))
	}
	return out
}

func TestHealthAndReady(t *testing.T) {
	app := newTestApp(t)

	status, body := call(t, app, "GET", "/api/v1/health", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])

	status, body = call(t, app, "GET", "/api/v1/ready", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, map[string]interface{}{"sqlite": "ok"}, body["dependencies"])
}

type fixedCounters map[string]int64

func (f fixedCounters) GetMetric(_ context.Context, name string) (int64, error) {
	n, ok := f[name]
	if !ok {
		return 0, errors.New("counter store unavailable")
	}
	return n, nil
}

func TestStats(t *testing.T) {
	app := newTestApp(t)

	status, body := call(t, app, "GET", "/api/v1/stats", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, map[string]interface{}{}, body["counters"])
	assert.Equal(t, false, body["partial"])

	h := handlers.NewHealthHandler(nil).WithCounters(
		fixedCounters{"waivers_signed": 3, "workouts_generated": 7},
		"waivers_signed", "workouts_generated", "workout_cache_hits",
	)
	statsApp := fiber.New()
	statsApp.Get("/stats", h.Stats)

	status, body = call(t, statsApp, "GET", "/stats", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, map[string]interface{}{"waivers_signed": 3.0, "workouts_generated": 7.0}, body["counters"])
	assert.Equal(t, true, body["partial"])
}

func TestProfileCRUD(t *testing.T) {
	app := newTestApp(t)

	status, body := call(t, app, "POST", "/api/v1/profiles", map[string]interface{}{
		"name": "", "age": 9, "fitnessLevel": "pro", "preferredDuration": 30,
	})
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	assert.Equal(t, []string{"name", "age", "fitnessLevel"}, fieldNames(body))

	status, body = call(t, app, "POST", "/api/v1/profiles", profile.Input{
		Name: "Jordan", Age: 30, FitnessLevel: "beginner", Goals: []string{"strength"}, PreferredDuration: 30,
	})
	require.Equal(t, fiber.StatusCreated, status)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)

	status, body = call(t, app, "PUT", "/api/v1/profiles/"+id, profile.Input{
		Name: "Jordan", Age: 31, FitnessLevel: "intermediate", PreferredDuration: 45,
	})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(31), body["age"])

	status, body = call(t, app, "GET", "/api/v1/profiles/"+id, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "intermediate", body["fitnessLevel"])

	status, body = call(t, app, "GET", "/api/v1/profiles", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(1), body["count"])

	status, _ = call(t, app, "DELETE", "/api/v1/profiles/"+id, nil)
	assert.Equal(t, fiber.StatusNoContent, status)

	status, body = call(t, app, "GET", "/api/v1/profiles/"+id, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestWaiverFlow(t *testing.T) {
	app := newTestApp(t)

	status, body := call(t, app, "POST", "/api/v1/waivers/steps/1/validate", waiver.Data{FullName: "J"})
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, fieldNames(body), "fullName")
	assert.Contains(t, fieldNames(body), "dateOfBirth")

	status, body = call(t, app, "POST", "/api/v1/waivers/steps/1/validate", validWaiver())
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(2), body["nextStep"])

	status, _ = call(t, app, "POST", "/api/v1/waivers/steps/x/validate", validWaiver())
	assert.Equal(t, fiber.StatusBadRequest, status)

	draft := waiver.Data{FullName: "Jordan"}
	status, _ = call(t, app, "PUT", "/api/v1/waivers/u1/draft", draft)
	require.Equal(t, fiber.StatusAccepted, status)

	status, body = call(t, app, "GET", "/api/v1/waivers/u1/draft", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Jordan", body["data"].(map[string]interface{})["fullName"])

	status, _ = call(t, app, "GET", "/api/v1/waivers/u1", nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, body = call(t, app, "POST", "/api/v1/waivers/u1", validWaiver())
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, true, body["verified"])
	assert.NotEmpty(t, body["digest"])

	status, body = call(t, app, "GET", "/api/v1/waivers/u1", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["verified"])
}

func TestWorkoutFlow(t *testing.T) {
	app := newTestApp(t)

	status, body := call(t, app, "POST", "/api/v1/profiles", profile.Input{
		Name: "Jordan", Age: 30, FitnessLevel: "beginner", Goals: []string{"strength"}, PreferredDuration: 30,
	})
	require.Equal(t, fiber.StatusCreated, status)
	profileID := body["id"].(string)

	req := map[string]interface{}{
		"userId":    "u1",
		"profileId": profileID,
		"bodyAreas": []string{"chest", "quads"},
	}

	status, body = call(t, app, "POST", "/api/v1/workouts", req)
	require.Equal(t, fiber.StatusPreconditionRequired, status)
	assert.Equal(t, "WAIVER_REQUIRED", body["code"])

	status, _ = call(t, app, "POST", "/api/v1/waivers/u1", validWaiver())
	require.Equal(t, fiber.StatusCreated, status)

	status, body = call(t, app, "POST", "/api/v1/workouts", req)
	require.Equal(t, fiber.StatusCreated, status)
	workoutID, _ := body["workoutId"].(string)
	require.NotEmpty(t, workoutID)
	assert.Equal(t, "standard", body["bucket"])
	conf := body["confidence"].(map[string]interface{})
	assert.Contains(t, []interface{}{"excellent", "good", "needs-review"}, conf["level"])

	status, body = call(t, app, "GET", "/api/v1/workouts/history?userId=u1", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(1), body["count"])

	status, body = call(t, app, "GET", "/api/v1/workouts/"+workoutID, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, workoutID, body["workoutId"])

	status, body = call(t, app, "POST", "/api/v1/workouts/"+workoutID+"/feedback", workout.FeedbackInput{Helpful: true, Rating: 5})
	require.Equal(t, fiber.StatusCreated, status)
	stats := body["stats"].(map[string]interface{})
	assert.Equal(t, float64(1), stats["total"])

	status, _ = call(t, app, "POST", "/api/v1/workouts/missing/feedback", workout.FeedbackInput{Helpful: true})
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestScoreEndpoint(t *testing.T) {
	app := newTestApp(t)
	plan, _ := stubGenerator{}.GenerateWorkout(context.Background(), prompt.Prompt{})

	status, body := call(t, app, "POST", "/api/v1/workouts/score", map[string]interface{}{
		"request": fitness.Request{
			Profile:         fitness.Profile{Age: 30, FitnessLevel: fitness.LevelBeginner},
			DurationMinutes: 30,
		},
		"plan": plan.Plan,
	})
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, "overallScore")
	assert.Len(t, body["factors"], 5)

	status, _ = call(t, app, "POST", "/api/v1/workouts/score", map[string]interface{}{
		"request": fitness.Request{DurationMinutes: 30},
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestSelectionEndpoints(t *testing.T) {
	app := newTestApp(t)

	status, body := call(t, app, "GET", "/api/v1/catalogs/body-areas", nil)
	require.Equal(t, fiber.StatusOK, status)
	nodes := body["nodes"].([]interface{})
	assert.Equal(t, "upper-body", nodes[0].(map[string]interface{})["key"])

	status, _ = call(t, app, "GET", "/api/v1/catalogs/colours", nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, body = call(t, app, "POST", "/api/v1/selections/body-areas/select", map[string]interface{}{"key": "upper-chest"})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, []interface{}{"chest", "upper-body", "upper-chest"}, body["keys"])
	assert.Equal(t, []interface{}{"upper-chest"}, body["leaves"])
	assert.Equal(t, []interface{}{"Upper Chest"}, body["labels"])
	data := body["data"]

	status, body = call(t, app, "POST", "/api/v1/selections/body-areas/deselect", map[string]interface{}{"key": "chest", "data": data})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, []interface{}{"chest", "upper-chest"}, body["removed"])
	assert.Equal(t, []interface{}{"upper-body"}, body["keys"])

	status, body = call(t, app, "POST", "/api/v1/selections/body-areas/toggle", map[string]interface{}{"key": "core"})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["selected"])

	status, body = call(t, app, "POST", "/api/v1/selections/body-areas/select", map[string]interface{}{"key": "tail"})
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "UNKNOWN_SELECTION_KEY", body["code"])

	broken := map[string]interface{}{
		"chest": map[string]interface{}{"selected": true, "label": "Chest", "level": "secondary", "parentKey": "upper-body"},
	}
	status, body = call(t, app, "POST", "/api/v1/selections/body-areas/validate", map[string]interface{}{"data": broken})
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, []string{"chest"}, fieldNames(body))
}

func TestDisclosureEndpoint(t *testing.T) {
	app := newTestApp(t)

	status, body := call(t, app, "POST", "/api/v1/selections/equipment/disclosure", map[string]interface{}{"level": 1})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(1), body["level"])
	assert.NotEmpty(t, body["visible"])

	status, body = call(t, app, "POST", "/api/v1/selections/equipment/disclosure", map[string]interface{}{"level": 1, "action": "advance"})
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "STEP_INCOMPLETE", body["code"])

	_, selected := call(t, app, "POST", "/api/v1/selections/equipment/select", map[string]interface{}{"key": "free-weights"})
	status, body = call(t, app, "POST", "/api/v1/selections/equipment/disclosure", map[string]interface{}{
		"level": 1, "action": "advance", "data": selected["data"],
	})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(2), body["level"])

	var keys []string
	for _, v := range body["visible"].([]interface{}) {
		keys = append(keys, v.(map[string]interface{})["key"].(string))
	}
	assert.Contains(t, keys, "dumbbells")
	assert.NotContains(t, keys, "cable-machine")

	status, _ = call(t, app, "POST", "/api/v1/selections/equipment/disclosure", map[string]interface{}{"level": 7})
	assert.Equal(t, fiber.StatusBadRequest, status)
}
