package waiver

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitonboard/backend/internal/metrics"
	"github.com/fitonboard/backend/internal/storage/models"
	"github.com/fitonboard/backend/pkg/apperrors"
)

type memWaiverStore struct {
	mu        sync.Mutex
	waivers   []*models.Waiver
	insertErr error
}

func (m *memWaiverStore) InsertWaiver(w *models.Waiver) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.waivers = append(m.waivers, w)
	return nil
}

func (m *memWaiverStore) GetLatestWaiver(userID string) (*models.Waiver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.waivers) - 1; i >= 0; i-- {
		if m.waivers[i].UserID == userID {
			return m.waivers[i], nil
		}
	}
	return nil, apperrors.New(apperrors.CodeNotFound, "waiver not found")
}

type deletingDraftStore struct {
	*fakeDraftStore
	deleted  []string
	counters map[string]int
}

func (d *deletingDraftStore) IncrementMetric(_ context.Context, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.counters == nil {
		d.counters = make(map[string]int)
	}
	d.counters[name]++
	return nil
}

func (d *deletingDraftStore) DeleteDraft(_ context.Context, userID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.drafts, userID)
	d.deleted = append(d.deleted, userID)
	return nil
}

func newTestService(store Store, drafts DraftStore) *Service {
	s := NewService(store, drafts, time.Hour)
	s.now = func() time.Time { return testNow }
	s.newID = func() string { return "waiver-1" }
	return s
}

func TestServiceSignStoresWaiver(t *testing.T) {
	store := &memWaiverStore{}
	drafts := &deletingDraftStore{fakeDraftStore: newFakeDraftStore()}
	s := newTestService(store, drafts)
	defer s.Close()

	d := validWaiver()
	d.BoneJointProblem = true
	d.MedicalNotes = "Old knee injury"
	d.PhysicianClearance = true

	s.SaveDraft("u1", d)
	rec, err := s.Sign(context.Background(), "u1", d)
	require.NoError(t, err)

	assert.Equal(t, "waiver-1", rec.ID)
	assert.Equal(t, "u1", rec.UserID)
	assert.Equal(t, []string{FlagBoneJointProblem}, rec.MedicalFlags)
	assert.True(t, rec.PhysicianClearance)
	assert.Equal(t, testNow, rec.SignedAt)
	assert.True(t, rec.Verified)

	require.Len(t, store.waivers, 1)
	var payload Data
	require.NoError(t, json.Unmarshal(store.waivers[0].Payload, &payload))
	assert.Equal(t, rec.Digest, payload.Digest)
	assert.True(t, payload.Signed())

	// The pending draft is dropped rather than written after signing.
	s.Close()
	_, writes := drafts.snapshot()
	assert.Equal(t, 0, writes)
	assert.Equal(t, []string{"u1"}, drafts.deleted)
	assert.Equal(t, map[string]int{metrics.CounterWaiversSigned: 1}, drafts.counters)
}

func TestServiceSignRejectsInvalidWaiver(t *testing.T) {
	store := &memWaiverStore{}
	s := newTestService(store, newFakeDraftStore())
	defer s.Close()

	d := validWaiver()
	d.AgreedToTerms = false

	_, err := s.Sign(context.Background(), "u1", d)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
	assert.Empty(t, store.waivers)

	_, err = s.Sign(context.Background(), "", validWaiver())
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))
}

func TestServiceSignStorageFailure(t *testing.T) {
	store := &memWaiverStore{insertErr: apperrors.New(apperrors.CodeStorage, "disk full")}
	drafts := &deletingDraftStore{fakeDraftStore: newFakeDraftStore()}
	s := newTestService(store, drafts)
	defer s.Close()

	_, err := s.Sign(context.Background(), "u1", validWaiver())
	assert.Equal(t, apperrors.CodeStorage, apperrors.CodeOf(err))
	assert.Empty(t, drafts.deleted)
	assert.Empty(t, drafts.counters)
}

func TestServiceLatest(t *testing.T) {
	store := &memWaiverStore{}
	s := newTestService(store, newFakeDraftStore())
	defer s.Close()

	_, err := s.Latest("u1")
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))

	signed, err := s.Sign(context.Background(), "u1", validWaiver())
	require.NoError(t, err)

	latest, err := s.Latest("u1")
	require.NoError(t, err)
	assert.Equal(t, signed.Digest, latest.Digest)
	assert.Equal(t, "Jordan Lee", latest.Data.FullName)
	assert.Equal(t, []string{}, latest.MedicalFlags)
	assert.True(t, latest.Verified)

	store.waivers[0].Payload = json.RawMessage(`{`)
	_, err = s.Latest("u1")
	assert.Equal(t, apperrors.CodeStorage, apperrors.CodeOf(err))
}

func TestServiceDraftRoundTrip(t *testing.T) {
	drafts := newFakeDraftStore()
	s := newTestService(&memWaiverStore{}, drafts)

	assert.Equal(t, Default(), s.Draft(context.Background(), "u1"))

	d := Default()
	d.FullName = "Jordan"
	s.SaveDraft("u1", d)
	assert.Equal(t, d, s.Draft(context.Background(), "u1"))

	s.Close()
	stored, writes := drafts.snapshot()
	assert.Equal(t, 1, writes)
	assert.Equal(t, "Jordan", stored["u1"].FullName)
}

func TestServiceValidateStep(t *testing.T) {
	s := newTestService(&memWaiverStore{}, newFakeDraftStore())
	defer s.Close()

	assert.NoError(t, s.ValidateStep(StepPersonal, validWaiver()))
	assert.Error(t, s.ValidateStep(StepSignature, Default()))
}
