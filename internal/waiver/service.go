package waiver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fitonboard/backend/internal/metrics"
	"github.com/fitonboard/backend/internal/storage/models"
	"github.com/fitonboard/backend/pkg/apperrors"
	"github.com/fitonboard/backend/pkg/logger"
)

// Store keeps signed waivers.
type Store interface {
	InsertWaiver(w *models.Waiver) error
	GetLatestWaiver(userID string) (*models.Waiver, error)
}

// DraftDeleter is implemented by draft stores that can drop a draft once
// the waiver is signed.
type DraftDeleter interface {
	DeleteDraft(ctx context.Context, userID string) error
}

// Counter bumps a durable counter. Draft stores that implement it record
// signed waivers.
type Counter interface {
	IncrementMetric(ctx context.Context, name string) error
}

// Service ties drafts, validation and signing together.
type Service struct {
	store      Store
	draftStore DraftStore
	drafts     *Drafts
	now        func() time.Time
	newID      func() string
}

func NewService(store Store, draftStore DraftStore, debounce time.Duration) *Service {
	return &Service{
		store:      store,
		draftStore: draftStore,
		drafts:     NewDrafts(draftStore, debounce),
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Record is a signed waiver as returned to clients.
type Record struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"userId"`
	Data               Data      `json:"data"`
	MedicalFlags       []string  `json:"medicalFlags"`
	PhysicianClearance bool      `json:"physicianClearance"`
	Digest             string    `json:"digest"`
	SignedAt           time.Time `json:"signedAt"`
	Verified           bool      `json:"verified"`
}

func (s *Service) Draft(ctx context.Context, userID string) Data {
	return s.drafts.Load(ctx, userID)
}

func (s *Service) SaveDraft(userID string, d Data) {
	s.drafts.Save(userID, d)
}

func (s *Service) ValidateStep(step Step, d Data) error {
	return ValidateStep(step, d, s.now())
}

// Sign validates every step, stamps the signature and stores the waiver.
// The user's draft is discarded on success.
func (s *Service) Sign(ctx context.Context, userID string, d Data) (*Record, error) {
	if userID == "" {
		return nil, apperrors.Validation("userId is required",
			apperrors.FieldError{Field: "userId", Message: "userId is required"})
	}

	w := NewWizard(d)
	w.now = s.now
	w.Step = StepSignature
	signed, err := w.Submit()
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(signed)
	if err != nil {
		return nil, fmt.Errorf("failed to encode waiver: %w", err)
	}

	record := &models.Waiver{
		ID:                 s.newID(),
		UserID:             userID,
		Payload:            payload,
		MedicalFlags:       signed.FlaggedConditions(),
		PhysicianClearance: signed.PhysicianClearance,
		Digest:             signed.Digest,
		SignedAt:           signed.SignedAt,
		CreatedAt:          s.now(),
	}
	if err := s.store.InsertWaiver(record); err != nil {
		return nil, err
	}
	metrics.WaiversSigned.WithLabelValues(metrics.YesNo(signed.HasMedicalFlags())).Inc()

	log := logger.With(zap.String("user_id", userID), zap.String("waiver_id", record.ID))
	if counter, ok := s.draftStore.(Counter); ok {
		if err := counter.IncrementMetric(ctx, metrics.CounterWaiversSigned); err != nil {
			log.Debug("Failed to bump counter", zap.Error(err))
		}
	}

	s.drafts.Discard(userID)
	if deleter, ok := s.draftStore.(DraftDeleter); ok {
		if err := deleter.DeleteDraft(ctx, userID); err != nil {
			log.Warn("Failed to delete waiver draft", zap.Error(err))
		}
	}

	return toRecord(record, signed), nil
}

// Latest returns the user's most recent signed waiver.
func (s *Service) Latest(userID string) (*Record, error) {
	stored, err := s.store.GetLatestWaiver(userID)
	if err != nil {
		return nil, err
	}
	var d Data
	if err := json.Unmarshal(stored.Payload, &d); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStorage, "stored waiver is corrupt")
	}
	return toRecord(stored, d), nil
}

func toRecord(w *models.Waiver, d Data) *Record {
	flags := w.MedicalFlags
	if flags == nil {
		flags = []string{}
	}
	return &Record{
		ID:                 w.ID,
		UserID:             w.UserID,
		Data:               d,
		MedicalFlags:       flags,
		PhysicianClearance: w.PhysicianClearance,
		Digest:             w.Digest,
		SignedAt:           w.SignedAt,
		Verified:           d.Signed() && d.Digest == w.Digest,
	}
}

// Close writes pending drafts.
func (s *Service) Close() {
	s.drafts.Flush()
}
