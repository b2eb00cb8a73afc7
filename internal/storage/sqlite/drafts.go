package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fitonboard/backend/internal/waiver"
)

// SaveDraft upserts the unsigned waiver for userID. It backs the draft store
// when Redis is disabled.
func (c *Client) SaveDraft(ctx context.Context, userID string, d waiver.Data) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal waiver draft: %w", err)
	}

	query := `
		INSERT INTO waiver_drafts (user_id, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`
	if _, err := c.db.ExecContext(ctx, query, userID, string(data), c.now().Unix()); err != nil {
		return fmt.Errorf("failed to save waiver draft: %w", err)
	}
	return nil
}

func (c *Client) LoadDraft(ctx context.Context, userID string) (waiver.Data, bool, error) {
	var payload string
	err := c.db.QueryRowContext(ctx, `SELECT payload FROM waiver_drafts WHERE user_id = ?`, userID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return waiver.Data{}, false, nil
	}
	if err != nil {
		return waiver.Data{}, false, fmt.Errorf("failed to load waiver draft: %w", err)
	}

	var d waiver.Data
	if err := json.Unmarshal([]byte(payload), &d); err != nil {
		return waiver.Data{}, false, fmt.Errorf("failed to unmarshal waiver draft: %w", err)
	}
	return d, true, nil
}

func (c *Client) DeleteDraft(ctx context.Context, userID string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM waiver_drafts WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete waiver draft: %w", err)
	}
	return nil
}
