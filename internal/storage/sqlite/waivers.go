package sqlite

import (
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/fitonboard/backend/internal/storage/models"
	"github.com/fitonboard/backend/pkg/apperrors"
	"github.com/fitonboard/backend/pkg/logger"
)

// InsertWaiver stores a signed waiver. Waivers are append-only; the latest
// one per user is authoritative.
func (c *Client) InsertWaiver(w *models.Waiver) error {
	query := `
		INSERT INTO waivers (id, user_id, payload, medical_flags, physician_clearance, digest, signed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.Exec(
		query,
		w.ID,
		w.UserID,
		string(w.Payload),
		encodeList(w.MedicalFlags),
		boolToInt(w.PhysicianClearance),
		w.Digest,
		w.SignedAt.Unix(),
		w.CreatedAt.Unix(),
	)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorage, "failed to insert waiver")
	}

	logger.Info("Waiver recorded",
		zap.String("waiver_id", w.ID),
		zap.String("user_id", w.UserID),
		zap.Int("medical_flags", len(w.MedicalFlags)),
	)
	return nil
}

func (c *Client) GetLatestWaiver(userID string) (*models.Waiver, error) {
	query := `
		SELECT id, user_id, payload, medical_flags, physician_clearance, digest, signed_at, created_at
		FROM waivers
		WHERE user_id = ?
		ORDER BY signed_at DESC, created_at DESC
		LIMIT 1
	`

	var w models.Waiver
	var payload string
	var flags sql.NullString
	var clearance int
	var signedAt, createdAt int64

	err := c.db.QueryRow(query, userID).Scan(
		&w.ID,
		&w.UserID,
		&payload,
		&flags,
		&clearance,
		&w.Digest,
		&signedAt,
		&createdAt,
	)
	if err != nil {
		return nil, notFound(err, "waiver")
	}

	w.Payload = []byte(payload)
	w.MedicalFlags = decodeList(flags)
	w.PhysicianClearance = clearance == 1
	w.SignedAt = time.Unix(signedAt, 0).UTC()
	w.CreatedAt = time.Unix(createdAt, 0)
	return &w, nil
}
