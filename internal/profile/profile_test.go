package profile

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitonboard/backend/internal/fitness"
	"github.com/fitonboard/backend/internal/storage/models"
	"github.com/fitonboard/backend/pkg/apperrors"
)

type memStore struct {
	profiles map[string]models.Profile
	order    []string
}

func newMemStore() *memStore {
	return &memStore{profiles: make(map[string]models.Profile)}
}

func (m *memStore) CreateProfile(p *models.Profile) error {
	if _, ok := m.profiles[p.ID]; ok {
		return apperrors.New(apperrors.CodeConflict, "exists")
	}
	m.profiles[p.ID] = *p
	m.order = append(m.order, p.ID)
	return nil
}

func (m *memStore) GetProfile(id string) (*models.Profile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return nil, apperrors.New(apperrors.CodeNotFound, "profile not found")
	}
	return &p, nil
}

func (m *memStore) UpdateProfile(p *models.Profile) error {
	if _, ok := m.profiles[p.ID]; !ok {
		return apperrors.New(apperrors.CodeNotFound, "profile not found")
	}
	m.profiles[p.ID] = *p
	return nil
}

func (m *memStore) DeleteProfile(id string) error {
	if _, ok := m.profiles[id]; !ok {
		return apperrors.New(apperrors.CodeNotFound, "profile not found")
	}
	delete(m.profiles, id)
	return nil
}

func (m *memStore) ListProfiles(limit, offset int) ([]models.Profile, error) {
	out := []models.Profile{}
	for i, id := range m.order {
		if i < offset {
			continue
		}
		if p, ok := m.profiles[id]; ok && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func validInput() Input {
	return Input{
		Name:              " Jordan Lee ",
		Age:               34,
		FitnessLevel:      "intermediate",
		Goals:             []string{"Strength", "weight_loss", "strength"},
		Injuries:          []string{"Lower Back"},
		PreferredDuration: 45,
		HeightCM:          178,
		WeightKG:          80,
	}
}

func newTestService() (*Service, *memStore) {
	store := newMemStore()
	s := NewService(store)
	now := time.Date(2026, time.February, 1, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("p%d", n)
	}
	return s, store
}

func TestInputValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
		want   []string
	}{
		{"valid", func(*Input) {}, nil},
		{"missing name", func(in *Input) { in.Name = "  " }, []string{"name"}},
		{"too young", func(in *Input) { in.Age = 12 }, []string{"age"}},
		{"too old", func(in *Input) { in.Age = 101 }, []string{"age"}},
		{"bad level", func(in *Input) { in.FitnessLevel = "elite" }, []string{"fitnessLevel"}},
		{"bad goal", func(in *Input) { in.Goals = []string{"bulk"} }, []string{"goals"}},
		{"short duration", func(in *Input) { in.PreferredDuration = 4 }, []string{"preferredDuration"}},
		{"long duration", func(in *Input) { in.PreferredDuration = 181 }, []string{"preferredDuration"}},
		{"odd body", func(in *Input) {
			in.HeightCM = 20
			in.WeightKG = 400
		}, []string{"heightCm", "weightKg"}},
		{"optional body omitted", func(in *Input) {
			in.HeightCM = 0
			in.WeightKG = 0
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			err := in.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			var got []string
			for _, f := range apperrors.FieldsOf(err) {
				got = append(got, f.Field)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCreateNormalises(t *testing.T) {
	s, store := newTestService()

	p, err := s.Create(validInput())
	require.NoError(t, err)

	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "Jordan Lee", p.Name)
	assert.Equal(t, []string{"strength", "weight-loss"}, p.Goals)
	assert.Equal(t, []string{"lower-back"}, p.Injuries)
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)
	assert.Contains(t, store.profiles, "p1")
}

func TestCreateRejectsInvalid(t *testing.T) {
	s, store := newTestService()
	in := validInput()
	in.Age = 5

	_, err := s.Create(in)
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))
	assert.Empty(t, store.profiles)
}

func TestUpdateKeepsCreatedAt(t *testing.T) {
	s, _ := newTestService()
	p, err := s.Create(validInput())
	require.NoError(t, err)
	created := p.CreatedAt

	later := created.Add(time.Hour)
	s.now = func() time.Time { return later }
	in := validInput()
	in.FitnessLevel = "advanced"

	updated, err := s.Update(p.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "advanced", updated.FitnessLevel)
	assert.Equal(t, created, updated.CreatedAt)
	assert.Equal(t, later, updated.UpdatedAt)

	_, err = s.Update("missing", in)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestDeleteAndList(t *testing.T) {
	s, _ := newTestService()
	for i := 0; i < 3; i++ {
		_, err := s.Create(validInput())
		require.NoError(t, err)
	}

	require.NoError(t, s.Delete("p2"))
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(s.Delete("p2")))

	list, err := s.List(0, -1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "p1", list[0].ID)
	assert.Equal(t, "p3", list[1].ID)

	_, err = s.Get("p2")
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestToFitness(t *testing.T) {
	p := &models.Profile{Name: "Jordan", Age: 34, FitnessLevel: "beginner", Goals: []string{"strength", "bogus"}, HeightCM: 170}

	assert.Equal(t, fitness.Profile{Name: "Jordan", Age: 34, FitnessLevel: fitness.LevelBeginner, HeightCM: 170}, ToFitness(p))
	assert.Equal(t, []fitness.Goal{fitness.GoalStrength}, Goals(p))
	assert.Equal(t, fitness.Profile{}, ToFitness(nil))
	assert.Nil(t, Goals(nil))
}
