// Package profile implements user profile CRUD with validation.
package profile

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fitonboard/backend/internal/fitness"
	"github.com/fitonboard/backend/internal/storage/models"
	"github.com/fitonboard/backend/pkg/apperrors"
	"github.com/fitonboard/backend/pkg/logger"
)

const (
	MinAge      = 13
	MaxAge      = 100
	MinDuration = 5
	MaxDuration = 180
	maxNameLen  = 100
	maxPageSize = 100
)

// Store is the persistence the service needs.
type Store interface {
	CreateProfile(p *models.Profile) error
	GetProfile(id string) (*models.Profile, error)
	UpdateProfile(p *models.Profile) error
	DeleteProfile(id string) error
	ListProfiles(limit, offset int) ([]models.Profile, error)
}

// Input is the editable part of a profile.
type Input struct {
	Name              string   `json:"name"`
	Age               int      `json:"age"`
	FitnessLevel      string   `json:"fitnessLevel"`
	Goals             []string `json:"goals"`
	Injuries          []string `json:"injuries"`
	PreferredDuration int      `json:"preferredDuration"`
	HeightCM          float64  `json:"heightCm"`
	WeightKG          float64  `json:"weightKg"`
}

// Validate checks every field and reports all failures at once.
func (in Input) Validate() error {
	var fields []apperrors.FieldError
	add := func(field, format string, args ...interface{}) {
		fields = append(fields, apperrors.FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		add("name", "name is required")
	case len(name) > maxNameLen:
		add("name", "name must be at most %d characters", maxNameLen)
	}
	if in.Age < MinAge || in.Age > MaxAge {
		add("age", "age must be between %d and %d", MinAge, MaxAge)
	}
	if !fitness.FitnessLevel(in.FitnessLevel).Valid() {
		add("fitnessLevel", "fitness level must be beginner, intermediate or advanced")
	}
	for _, g := range in.Goals {
		if !fitness.Goal(fitness.Normalize(g)).Valid() {
			add("goals", "unknown goal %q", g)
		}
	}
	if in.PreferredDuration < MinDuration || in.PreferredDuration > MaxDuration {
		add("preferredDuration", "preferred duration must be between %d and %d minutes", MinDuration, MaxDuration)
	}
	if in.HeightCM != 0 && (in.HeightCM < 50 || in.HeightCM > 250) {
		add("heightCm", "height must be between 50 and 250 cm")
	}
	if in.WeightKG != 0 && (in.WeightKG < 20 || in.WeightKG > 300) {
		add("weightKg", "weight must be between 20 and 300 kg")
	}

	if len(fields) > 0 {
		return apperrors.Validation("invalid profile", fields...)
	}
	return nil
}

type Service struct {
	store Store
	now   func() time.Time
	newID func() string
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now, newID: uuid.NewString}
}

func (s *Service) Create(in Input) (*models.Profile, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	p := &models.Profile{ID: s.newID(), CreatedAt: now}
	apply(p, in, now)

	if err := s.store.CreateProfile(p); err != nil {
		return nil, err
	}

	logger.Info("Profile created", zap.String("profile_id", p.ID), zap.String("fitness_level", p.FitnessLevel))
	return p, nil
}

func (s *Service) Get(id string) (*models.Profile, error) {
	return s.store.GetProfile(id)
}

// Update replaces the editable fields of an existing profile.
func (s *Service) Update(id string, in Input) (*models.Profile, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	p, err := s.store.GetProfile(id)
	if err != nil {
		return nil, err
	}
	apply(p, in, s.now())

	if err := s.store.UpdateProfile(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(id string) error {
	return s.store.DeleteProfile(id)
}

func (s *Service) List(limit, offset int) ([]models.Profile, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListProfiles(limit, offset)
}

func apply(p *models.Profile, in Input, now time.Time) {
	p.Name = strings.TrimSpace(in.Name)
	p.Age = in.Age
	p.FitnessLevel = in.FitnessLevel
	p.Goals = normalizeAll(in.Goals)
	p.Injuries = normalizeAll(in.Injuries)
	p.PreferredDuration = in.PreferredDuration
	p.HeightCM = in.HeightCM
	p.WeightKG = in.WeightKG
	p.UpdatedAt = now
}

// normalizeAll normalises and de-duplicates keys, keeping first-seen order.
func normalizeAll(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := []string{}
	for _, item := range items {
		k := fitness.Normalize(item)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// ToFitness projects a stored profile onto the request profile.
func ToFitness(p *models.Profile) fitness.Profile {
	if p == nil {
		return fitness.Profile{}
	}
	return fitness.Profile{
		Name:         p.Name,
		Age:          p.Age,
		FitnessLevel: fitness.FitnessLevel(p.FitnessLevel),
		HeightCM:     p.HeightCM,
		WeightKG:     p.WeightKG,
	}
}

// Goals converts stored goal keys into typed goals, skipping unknown ones.
func Goals(p *models.Profile) []fitness.Goal {
	if p == nil {
		return nil
	}
	var out []fitness.Goal
	for _, g := range p.Goals {
		if goal := fitness.Goal(g); goal.Valid() {
			out = append(out, goal)
		}
	}
	return out
}
