package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fitonboard/backend/internal/storage/models"
	"github.com/fitonboard/backend/pkg/apperrors"
	"github.com/fitonboard/backend/pkg/logger"
)

const profileColumns = `id, name, age, fitness_level, goals, injuries, preferred_duration, height_cm, weight_kg, created_at, updated_at`

func (c *Client) CreateProfile(p *models.Profile) error {
	query := `INSERT INTO profiles (` + profileColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := c.db.Exec(
		query,
		p.ID,
		p.Name,
		p.Age,
		p.FitnessLevel,
		encodeList(p.Goals),
		encodeList(p.Injuries),
		p.PreferredDuration,
		p.HeightCM,
		p.WeightKG,
		p.CreatedAt.Unix(),
		p.UpdatedAt.Unix(),
	)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorage, "failed to insert profile")
	}

	logger.Debug("Profile inserted", zap.String("profile_id", p.ID))
	return nil
}

func (c *Client) GetProfile(id string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = ?`

	p, err := scanProfile(c.db.QueryRow(query, id))
	if err != nil {
		return nil, notFound(err, "profile")
	}
	return p, nil
}

func (c *Client) UpdateProfile(p *models.Profile) error {
	query := `
		UPDATE profiles SET
			name = ?, age = ?, fitness_level = ?, goals = ?, injuries = ?,
			preferred_duration = ?, height_cm = ?, weight_kg = ?, updated_at = ?
		WHERE id = ?
	`

	res, err := c.db.Exec(
		query,
		p.Name,
		p.Age,
		p.FitnessLevel,
		encodeList(p.Goals),
		encodeList(p.Injuries),
		p.PreferredDuration,
		p.HeightCM,
		p.WeightKG,
		p.UpdatedAt.Unix(),
		p.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorage, "failed to update profile")
	}
	return requireAffected(res, "profile")
}

func (c *Client) DeleteProfile(id string) error {
	res, err := c.db.Exec(`DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorage, "failed to delete profile")
	}
	if err := requireAffected(res, "profile"); err != nil {
		return err
	}

	logger.Info("Profile deleted", zap.String("profile_id", id))
	return nil
}

func (c *Client) ListProfiles(limit, offset int) ([]models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles ORDER BY created_at DESC, id LIMIT ? OFFSET ?`

	rows, err := c.db.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	profiles := []models.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*models.Profile, error) {
	var p models.Profile
	var goals, injuries sql.NullString
	var height, weight sql.NullFloat64
	var createdAt, updatedAt int64

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Age,
		&p.FitnessLevel,
		&goals,
		&injuries,
		&p.PreferredDuration,
		&height,
		&weight,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Goals = decodeList(goals)
	p.Injuries = decodeList(injuries)
	p.HeightCM = height.Float64
	p.WeightKG = weight.Float64
	p.CreatedAt = time.Unix(createdAt, 0)
	p.UpdatedAt = time.Unix(updatedAt, 0)
	return &p, nil
}

func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorage, "failed to read affected rows")
	}
	if n == 0 {
		return apperrors.New(apperrors.CodeNotFound, what+" not found")
	}
	return nil
}
