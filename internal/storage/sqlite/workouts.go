package sqlite

import (
	"errors"
	"fmt"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/fitonboard/backend/internal/storage/models"
	"github.com/fitonboard/backend/pkg/apperrors"
	"github.com/fitonboard/backend/pkg/logger"
)

const workoutColumns = `id, user_id, request, plan, confidence, bucket, model, overall_score, level,
	prompt_tokens, completion_tokens, latency_ms, cached, created_at`

func (c *Client) InsertWorkout(w *models.Workout) error {
	query := `INSERT INTO workouts (` + workoutColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := c.db.Exec(
		query,
		w.ID,
		w.UserID,
		string(w.Request),
		string(w.Plan),
		string(w.Confidence),
		w.Bucket,
		w.Model,
		w.OverallScore,
		w.Level,
		w.PromptTokens,
		w.CompletionTokens,
		w.LatencyMS,
		boolToInt(w.Cached),
		w.CreatedAt.Unix(),
	)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorage, "failed to insert workout")
	}

	logger.Info("Workout recorded",
		zap.String("workout_id", w.ID),
		zap.String("user_id", w.UserID),
		zap.Float64("confidence", w.OverallScore),
		zap.String("level", w.Level),
	)
	return nil
}

func (c *Client) GetWorkout(id string) (*models.Workout, error) {
	query := `SELECT ` + workoutColumns + ` FROM workouts WHERE id = ?`

	w, err := scanWorkout(c.db.QueryRow(query, id))
	if err != nil {
		return nil, notFound(err, "workout")
	}
	return w, nil
}

func (c *Client) GetWorkoutHistory(userID string, limit int) ([]models.Workout, error) {
	query := `SELECT ` + workoutColumns + ` FROM workouts WHERE user_id = ? ORDER BY created_at DESC, id LIMIT ?`

	rows, err := c.db.Query(query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get workout history: %w", err)
	}
	defer rows.Close()

	workouts := []models.Workout{}
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		workouts = append(workouts, *w)
	}
	return workouts, rows.Err()
}

func scanWorkout(row rowScanner) (*models.Workout, error) {
	var w models.Workout
	var request, plan, confidence string
	var cached int
	var createdAt int64

	err := row.Scan(
		&w.ID,
		&w.UserID,
		&request,
		&plan,
		&confidence,
		&w.Bucket,
		&w.Model,
		&w.OverallScore,
		&w.Level,
		&w.PromptTokens,
		&w.CompletionTokens,
		&w.LatencyMS,
		&cached,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	w.Request = []byte(request)
	w.Plan = []byte(plan)
	w.Confidence = []byte(confidence)
	w.Cached = cached == 1
	w.CreatedAt = time.Unix(createdAt, 0)
	return &w, nil
}

func (c *Client) StoreFeedback(f *models.Feedback) error {
	query := `INSERT INTO feedback (workout_id, helpful, rating, comment, created_at) VALUES (?, ?, ?, ?, ?)`

	createdAt := f.CreatedAt
	if createdAt.IsZero() {
		createdAt = c.now()
	}

	res, err := c.db.Exec(query, f.WorkoutID, boolToInt(f.Helpful), f.Rating, f.Comment, createdAt.Unix())
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return apperrors.Wrap(err, apperrors.CodeNotFound, "workout not found")
		}
		return apperrors.Wrap(err, apperrors.CodeStorage, "failed to store feedback")
	}
	if id, err := res.LastInsertId(); err == nil {
		f.ID = int(id)
	}

	logger.Info("Feedback stored",
		zap.String("workout_id", f.WorkoutID),
		zap.Bool("helpful", f.Helpful),
		zap.Int("rating", f.Rating),
	)
	return nil
}

func (c *Client) GetFeedbackStats() (*models.FeedbackStats, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(helpful), 0), COALESCE(AVG(NULLIF(rating, 0)), 0)
		FROM feedback
	`

	var stats models.FeedbackStats
	if err := c.db.QueryRow(query).Scan(&stats.Total, &stats.Helpful, &stats.AverageRating); err != nil {
		return nil, fmt.Errorf("failed to get feedback stats: %w", err)
	}
	return &stats, nil
}
