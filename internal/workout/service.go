// Package workout orchestrates plan generation: it resolves the user's
// profile and waiver, gathers candidate exercises, calls the model, scores
// the result and records it.
package workout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fitonboard/backend/internal/confidence"
	"github.com/fitonboard/backend/internal/fitness"
	"github.com/fitonboard/backend/internal/llm"
	"github.com/fitonboard/backend/internal/metrics"
	"github.com/fitonboard/backend/internal/profile"
	"github.com/fitonboard/backend/internal/prompt"
	"github.com/fitonboard/backend/internal/storage/models"
	"github.com/fitonboard/backend/pkg/apperrors"
	"github.com/fitonboard/backend/pkg/logger"
	"github.com/fitonboard/backend/pkg/utils"
)

const (
	defaultCandidateLimit = prompt.MaxCandidates
	defaultCacheTTL       = time.Hour
	defaultHistoryLimit   = 20
	maxHistoryLimit       = 100
	maxCommentLen         = 2000
)

// Store is the relational persistence generation needs.
type Store interface {
	GetProfile(id string) (*models.Profile, error)
	GetLatestWaiver(userID string) (*models.Waiver, error)
	InsertWorkout(w *models.Workout) error
	GetWorkout(id string) (*models.Workout, error)
	GetWorkoutHistory(userID string, limit int) ([]models.Workout, error)
	StoreFeedback(f *models.Feedback) error
	GetFeedbackStats() (*models.FeedbackStats, error)
	RecordMetric(name string, value float64, tags map[string]string) error
}

// Cache holds model responses keyed by request hash.
type Cache interface {
	GetWorkout(ctx context.Context, requestHash string, response interface{}) (bool, error)
	SetWorkout(ctx context.Context, requestHash string, response interface{}, ttl time.Duration) error
}

// CandidateSource looks up exercises that fit the selected areas and
// equipment.
type CandidateSource interface {
	CandidateExercises(ctx context.Context, areas, equipment []string, limit int) ([]fitness.Candidate, error)
}

// Counter bumps a durable counter. Caches that implement it get their hit
// and miss totals recorded alongside the Prometheus collectors.
type Counter interface {
	IncrementMetric(ctx context.Context, name string) error
}

type Config struct {
	RequireWaiver  bool
	CacheTTL       time.Duration
	CandidateLimit int
}

func DefaultConfig() Config {
	return Config{
		RequireWaiver:  true,
		CacheTTL:       defaultCacheTTL,
		CandidateLimit: defaultCandidateLimit,
	}
}

type Service struct {
	store  Store
	cache  Cache
	graph  CandidateSource
	gen     llm.Generator
	scorer  *confidence.Service
	counter Counter
	cfg     Config
	now     func() time.Time
	newID   func() string
}

// NewService wires the orchestrator. cache and graph may be nil.
func NewService(store Store, cache Cache, graph CandidateSource, gen llm.Generator, scorer *confidence.Service, cfg Config) *Service {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = defaultCandidateLimit
	}
	counter, _ := cache.(Counter)
	return &Service{
		store:   store,
		cache:   cache,
		graph:   graph,
		gen:     gen,
		scorer:  scorer,
		counter: counter,
		cfg:     cfg,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// GenerateRequest is a workout request as submitted by a client. Profile
// fields left empty are filled from the stored profile when ProfileID is
// set; medical flags always come from the latest signed waiver.
type GenerateRequest struct {
	ProfileID string `json:"profileId,omitempty"`
	fitness.Request
}

type Result struct {
	WorkoutID  string            `json:"workoutId"`
	Request    fitness.Request   `json:"request"`
	Plan       fitness.Plan      `json:"plan"`
	Confidence confidence.Result `json:"confidence"`
	Bucket     prompt.Bucket     `json:"bucket"`
	Model      string            `json:"model"`
	Usage      llm.Usage         `json:"usage"`
	Candidates int               `json:"candidates"`
	Cached     bool              `json:"cached"`
	LatencyMS  int               `json:"latencyMs"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// cachedResponse is what the response cache stores.
type cachedResponse struct {
	Plan  fitness.Plan `json:"plan"`
	Model string       `json:"model"`
	Usage llm.Usage    `json:"usage"`
}

// Generate produces, scores and records a workout plan. progress may be nil.
func (s *Service) Generate(ctx context.Context, req GenerateRequest, progress ProgressFunc) (*Result, error) {
	start := s.now()
	emit := progress.orNop()

	if req.UserID == "" {
		return nil, apperrors.Validation("userId is required",
			apperrors.FieldError{Field: "userId", Message: "userId is required"})
	}

	emit(Event{Type: EventStatus, Message: "Loading profile and waiver"})
	resolved, err := s.resolve(ctx, req)
	if err != nil {
		metrics.WorkoutTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}
	if err := resolved.Validate(); err != nil {
		metrics.WorkoutTotal.WithLabelValues("rejected").Inc()
		return nil, apperrors.Wrap(err, apperrors.CodeValidation, "invalid workout request")
	}

	emit(Event{Type: EventStatus, Message: "Finding candidate exercises"})
	candidates := s.candidates(ctx, resolved)

	p, err := prompt.Compose(resolved, candidates)
	if err != nil {
		metrics.WorkoutTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	logger.Info("Generating workout",
		zap.String("user_id", resolved.UserID),
		zap.String("bucket", string(p.Bucket)),
		zap.Int("duration", resolved.DurationMinutes),
		zap.Int("candidates", len(candidates)),
	)

	hash, hashErr := requestHash(resolved, candidates)
	if hashErr != nil {
		logger.Warn("Failed to hash workout request", zap.Error(hashErr))
	}

	resp, cached := s.lookup(ctx, hash)
	if !cached {
		emit(Event{Type: EventStatus, Message: "Generating workout plan"})
		generated, err := s.gen.GenerateWorkout(ctx, p)
		if err != nil {
			metrics.WorkoutTotal.WithLabelValues("error").Inc()
			logger.Error("Workout generation failed",
				zap.String("user_id", resolved.UserID),
				zap.Error(err),
			)
			return nil, err
		}
		resp = cachedResponse{Plan: generated.Plan, Model: generated.Model, Usage: generated.Usage}
		s.remember(ctx, hash, resp)
	}
	emit(Event{Type: EventPlan, Data: resp.Plan})

	emit(Event{Type: EventStatus, Message: "Scoring workout"})
	score := s.scorer.Score(resolved, resp.Plan)
	emit(Event{Type: EventConfidence, Data: score})

	latency := int(s.now().Sub(start).Milliseconds())
	result := &Result{
		WorkoutID:  s.newID(),
		Request:    resolved,
		Plan:       resp.Plan,
		Confidence: score,
		Bucket:     p.Bucket,
		Model:      resp.Model,
		Usage:      resp.Usage,
		Candidates: len(candidates),
		Cached:     cached,
		LatencyMS:  latency,
		CreatedAt:  s.now().UTC(),
	}

	if err := s.persist(result); err != nil {
		metrics.WorkoutTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	s.observe(result, start)
	s.count(ctx, metrics.CounterWorkoutsGenerated)

	logger.Info("Workout generated",
		zap.String("workout_id", result.WorkoutID),
		zap.Float64("confidence", score.OverallScore),
		zap.String("level", string(score.Level)),
		zap.Bool("cached", cached),
		zap.Int("latency_ms", latency),
	)

	emit(Event{Type: EventComplete, Data: result})
	return result, nil
}

// resolve fills the request from the stored profile and the latest waiver,
// loading both concurrently.
func (s *Service) resolve(ctx context.Context, req GenerateRequest) (fitness.Request, error) {
	var (
		stored *models.Profile
		signed *models.Waiver
	)

	g, _ := errgroup.WithContext(ctx)
	if req.ProfileID != "" {
		g.Go(func() error {
			p, err := s.store.GetProfile(req.ProfileID)
			if err != nil {
				return err
			}
			stored = p
			return nil
		})
	}
	g.Go(func() error {
		w, err := s.store.GetLatestWaiver(req.UserID)
		if err != nil {
			if apperrors.CodeOf(err) == apperrors.CodeNotFound {
				return nil
			}
			return err
		}
		signed = w
		return nil
	})
	if err := g.Wait(); err != nil {
		return fitness.Request{}, err
	}

	out := req.Request
	if stored != nil {
		fillFromProfile(&out, stored)
	}

	if signed == nil {
		if s.cfg.RequireWaiver {
			return fitness.Request{}, apperrors.ErrWaiverRequired
		}
	} else {
		out.MedicalFlags = append([]string(nil), signed.MedicalFlags...)
		out.PhysicianClearance = signed.PhysicianClearance
	}

	out.BodyAreas = normalizeList(out.BodyAreas)
	out.Equipment = normalizeList(out.Equipment)
	out.Injuries = normalizeList(out.Injuries)
	out.Goals = append([]fitness.Goal(nil), out.Goals...)
	for i, goal := range out.Goals {
		out.Goals[i] = fitness.Goal(fitness.Normalize(string(goal)))
	}
	return out, nil
}

func fillFromProfile(r *fitness.Request, p *models.Profile) {
	fp := profile.ToFitness(p)
	if r.Profile.Name == "" {
		r.Profile.Name = fp.Name
	}
	if r.Profile.Age == 0 {
		r.Profile.Age = fp.Age
	}
	if r.Profile.FitnessLevel == "" {
		r.Profile.FitnessLevel = fp.FitnessLevel
	}
	if r.Profile.HeightCM == 0 {
		r.Profile.HeightCM = fp.HeightCM
	}
	if r.Profile.WeightKG == 0 {
		r.Profile.WeightKG = fp.WeightKG
	}
	if len(r.Goals) == 0 {
		r.Goals = profile.Goals(p)
	}
	if len(r.Injuries) == 0 {
		r.Injuries = append([]string(nil), p.Injuries...)
	}
	if r.DurationMinutes == 0 {
		r.DurationMinutes = p.PreferredDuration
	}
}

func normalizeList(items []string) []string {
	if len(items) == 0 {
		return items
	}
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		n := fitness.Normalize(item)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// candidates asks the exercise graph for fitting exercises. Failures only
// cost the prompt its candidate list.
func (s *Service) candidates(ctx context.Context, req fitness.Request) []fitness.Candidate {
	if s.graph == nil || len(req.BodyAreas) == 0 {
		return nil
	}
	found, err := s.graph.CandidateExercises(ctx, req.BodyAreas, req.Equipment, s.cfg.CandidateLimit)
	if err != nil {
		logger.Warn("Candidate lookup failed", zap.Error(err))
		return nil
	}
	metrics.CandidateCount.Observe(float64(len(found)))
	return found
}

func requestHash(req fitness.Request, candidates []fitness.Candidate) (string, error) {
	// The plan depends on what the prompt says, not on who asked.
	req.UserID = ""
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}
	return utils.HashJSON(struct {
		Request    fitness.Request `json:"request"`
		Candidates []string        `json:"candidates"`
	}{req, names})
}

func (s *Service) lookup(ctx context.Context, hash string) (cachedResponse, bool) {
	var resp cachedResponse
	if s.cache == nil || hash == "" {
		return resp, false
	}
	found, err := s.cache.GetWorkout(ctx, hash, &resp)
	if err != nil {
		logger.Warn("Workout cache lookup failed", zap.Error(err))
		return resp, false
	}
	if !found || resp.Plan.Empty() {
		metrics.CacheMisses.WithLabelValues("workout").Inc()
		s.count(ctx, metrics.CounterCacheMisses)
		return resp, false
	}
	metrics.CacheHits.WithLabelValues("workout").Inc()
	s.count(ctx, metrics.CounterCacheHits)
	return resp, true
}

func (s *Service) count(ctx context.Context, name string) {
	if s.counter == nil {
		return
	}
	if err := s.counter.IncrementMetric(ctx, name); err != nil {
		logger.Debug("Failed to bump counter", zap.String("counter", name), zap.Error(err))
	}
}

func (s *Service) remember(ctx context.Context, hash string, resp cachedResponse) {
	if s.cache == nil || hash == "" {
		return
	}
	if err := s.cache.SetWorkout(ctx, hash, resp, s.cfg.CacheTTL); err != nil {
		logger.Warn("Failed to cache workout", zap.Error(err))
	}
}

func (s *Service) persist(r *Result) error {
	reqJSON, err := json.Marshal(r.Request)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	planJSON, err := json.Marshal(r.Plan)
	if err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}
	confJSON, err := json.Marshal(r.Confidence)
	if err != nil {
		return fmt.Errorf("failed to encode confidence: %w", err)
	}

	record := &models.Workout{
		ID:               r.WorkoutID,
		UserID:           r.Request.UserID,
		Request:          reqJSON,
		Plan:             planJSON,
		Confidence:       confJSON,
		Bucket:           string(r.Bucket),
		Model:            r.Model,
		OverallScore:     r.Confidence.OverallScore,
		Level:            string(r.Confidence.Level),
		PromptTokens:     r.Usage.PromptTokens,
		CompletionTokens: r.Usage.CompletionTokens,
		LatencyMS:        r.LatencyMS,
		Cached:           r.Cached,
		CreatedAt:        r.CreatedAt,
	}
	if err := s.store.InsertWorkout(record); err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorage, "failed to save workout")
	}

	if err := s.store.RecordMetric("confidence_score", r.Confidence.OverallScore, map[string]string{
		"level":  string(r.Confidence.Level),
		"bucket": string(r.Bucket),
	}); err != nil {
		logger.Warn("Failed to record confidence metric", zap.Error(err))
	}
	return nil
}

func (s *Service) observe(r *Result, start time.Time) {
	status := "generated"
	if r.Cached {
		status = "cached"
	}
	metrics.WorkoutTotal.WithLabelValues(status).Inc()
	metrics.WorkoutDuration.WithLabelValues(string(r.Bucket)).Observe(s.now().Sub(start).Seconds())
	observeScore(r.Confidence)
	if !r.Cached && r.Model != "" {
		metrics.LLMTokensUsed.WithLabelValues(r.Model, "prompt").Add(float64(r.Usage.PromptTokens))
		metrics.LLMTokensUsed.WithLabelValues(r.Model, "completion").Add(float64(r.Usage.CompletionTokens))
	}
}

func observeScore(res confidence.Result) {
	metrics.ConfidenceScore.WithLabelValues(string(res.Level)).Observe(res.OverallScore)
	for _, f := range confidence.AllFactors {
		metrics.FactorScore.WithLabelValues(string(f)).Observe(res.Factors.Get(f))
	}
}

// Score rates a plan without generating one.
func (s *Service) Score(req fitness.Request, plan fitness.Plan) (confidence.Result, error) {
	if err := req.Validate(); err != nil {
		return confidence.Result{}, apperrors.Wrap(err, apperrors.CodeValidation, "invalid workout request")
	}
	if plan.Empty() {
		return confidence.Result{}, apperrors.Validation("plan has no exercises",
			apperrors.FieldError{Field: "plan", Message: "plan has no exercises"})
	}
	res := s.scorer.Score(req, plan)
	observeScore(res)
	return res, nil
}

// HistoryItem is a stored workout decoded for clients.
type HistoryItem struct {
	WorkoutID  string             `json:"workoutId"`
	Request    fitness.Request    `json:"request"`
	Plan       fitness.Plan       `json:"plan"`
	Confidence *confidence.Result `json:"confidence,omitempty"`
	Bucket     string             `json:"bucket"`
	Model      string             `json:"model"`
	Cached     bool               `json:"cached"`
	LatencyMS  int                `json:"latencyMs"`
	CreatedAt  time.Time          `json:"createdAt"`
}

// History returns the user's most recent workouts, newest first.
func (s *Service) History(userID string, limit int) ([]HistoryItem, error) {
	if userID == "" {
		return nil, apperrors.Validation("userId is required",
			apperrors.FieldError{Field: "userId", Message: "userId is required"})
	}
	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}

	records, err := s.store.GetWorkoutHistory(userID, limit)
	if err != nil {
		return nil, err
	}

	items := make([]HistoryItem, 0, len(records))
	for i := range records {
		item, err := decodeWorkout(&records[i])
		if err != nil {
			logger.Warn("Skipping undecodable workout",
				zap.String("workout_id", records[i].ID),
				zap.Error(err),
			)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// Get returns one stored workout.
func (s *Service) Get(workoutID string) (HistoryItem, error) {
	record, err := s.store.GetWorkout(workoutID)
	if err != nil {
		return HistoryItem{}, err
	}
	item, err := decodeWorkout(record)
	if err != nil {
		return HistoryItem{}, apperrors.Wrap(err, apperrors.CodeStorage, "stored workout is corrupt")
	}
	return item, nil
}

func decodeWorkout(w *models.Workout) (HistoryItem, error) {
	item := HistoryItem{
		WorkoutID: w.ID,
		Bucket:    w.Bucket,
		Model:     w.Model,
		Cached:    w.Cached,
		LatencyMS: w.LatencyMS,
		CreatedAt: w.CreatedAt,
	}
	if len(w.Request) > 0 {
		if err := json.Unmarshal(w.Request, &item.Request); err != nil {
			return item, fmt.Errorf("failed to decode request: %w", err)
		}
	}
	if len(w.Plan) > 0 {
		if err := json.Unmarshal(w.Plan, &item.Plan); err != nil {
			return item, fmt.Errorf("failed to decode plan: %w", err)
		}
	}
	if len(w.Confidence) > 0 {
		var res confidence.Result
		if err := json.Unmarshal(w.Confidence, &res); err != nil {
			return item, fmt.Errorf("failed to decode confidence: %w", err)
		}
		item.Confidence = &res
	}
	return item, nil
}

// FeedbackInput is a user's verdict on a generated workout.
type FeedbackInput struct {
	Helpful bool   `json:"helpful"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Feedback records a verdict and refreshes the satisfaction gauge. It does
// not influence later scores.
func (s *Service) Feedback(workoutID string, in FeedbackInput) (*models.FeedbackStats, error) {
	var fields []apperrors.FieldError
	if workoutID == "" {
		fields = append(fields, apperrors.FieldError{Field: "workoutId", Message: "workoutId is required"})
	}
	if in.Rating < 0 || in.Rating > 5 {
		fields = append(fields, apperrors.FieldError{Field: "rating", Message: "rating must be between 1 and 5, or 0 for none"})
	}
	if len(in.Comment) > maxCommentLen {
		fields = append(fields, apperrors.FieldError{Field: "comment", Message: fmt.Sprintf("comment must be at most %d characters", maxCommentLen)})
	}
	if len(fields) > 0 {
		return nil, apperrors.Validation("invalid feedback", fields...)
	}

	f := &models.Feedback{
		WorkoutID: workoutID,
		Helpful:   in.Helpful,
		Rating:    in.Rating,
		Comment:   in.Comment,
		CreatedAt: s.now(),
	}
	if err := s.store.StoreFeedback(f); err != nil {
		return nil, err
	}
	metrics.FeedbackTotal.WithLabelValues(metrics.YesNo(in.Helpful)).Inc()

	stats, err := s.store.GetFeedbackStats()
	if err != nil {
		var appErr *apperrors.Error
		if !errors.As(err, &appErr) {
			err = apperrors.Wrap(err, apperrors.CodeStorage, "failed to load feedback stats")
		}
		return nil, err
	}
	if stats.Total > 0 {
		metrics.UserSatisfaction.Set(float64(stats.Helpful) / float64(stats.Total))
	}

	logger.Info("Feedback stored",
		zap.String("workout_id", workoutID),
		zap.Bool("helpful", in.Helpful),
		zap.Int("rating", in.Rating),
	)
	return stats, nil
}
