package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fitonboard/backend/internal/waiver"
	"github.com/fitonboard/backend/pkg/config"
	"github.com/fitonboard/backend/pkg/logger"
)

type Client struct {
	client   *redis.Client
	draftTTL time.Duration
}

func NewClient(cfg config.RedisConfig) (*Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", addr))

	return &Client{client: client, draftTTL: draftTTL(cfg.DraftTTLHrs)}, nil
}

func draftTTL(hours int) time.Duration {
	if hours <= 0 {
		return 72 * time.Hour
	}
	return time.Duration(hours) * time.Hour
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func draftKey(userID string) string {
	return fmt.Sprintf("waiver:draft:%s", userID)
}

func workoutKey(requestHash string) string {
	return fmt.Sprintf("workout:%s", requestHash)
}

func metricKey(name string) string {
	return fmt.Sprintf("metric:%s", name)
}

// SaveDraft stores an unsigned waiver. Drafts expire so abandoned forms do
// not linger.
func (c *Client) SaveDraft(ctx context.Context, userID string, d waiver.Data) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal waiver draft: %w", err)
	}

	if err := c.client.Set(ctx, draftKey(userID), data, c.draftTTL).Err(); err != nil {
		return fmt.Errorf("failed to save waiver draft: %w", err)
	}
	return nil
}

func (c *Client) LoadDraft(ctx context.Context, userID string) (waiver.Data, bool, error) {
	data, err := c.client.Get(ctx, draftKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return waiver.Data{}, false, nil
	}
	if err != nil {
		return waiver.Data{}, false, fmt.Errorf("failed to load waiver draft: %w", err)
	}

	var d waiver.Data
	if err := json.Unmarshal(data, &d); err != nil {
		return waiver.Data{}, false, fmt.Errorf("failed to unmarshal waiver draft: %w", err)
	}
	return d, true, nil
}

// DeleteDraft removes the draft once the waiver is signed.
func (c *Client) DeleteDraft(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, draftKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete waiver draft: %w", err)
	}
	return nil
}

func (c *Client) SetWorkout(ctx context.Context, requestHash string, response interface{}, ttl time.Duration) error {
	data, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	err = c.client.Set(ctx, workoutKey(requestHash), data, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set workout cache: %w", err)
	}

	logger.Debug("Workout cached", zap.String("request_hash", requestHash), zap.Duration("ttl", ttl))
	return nil
}

func (c *Client) GetWorkout(ctx context.Context, requestHash string, response interface{}) (bool, error) {
	data, err := c.client.Get(ctx, workoutKey(requestHash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get workout cache: %w", err)
	}

	if err := json.Unmarshal(data, response); err != nil {
		return false, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	logger.Debug("Workout cache hit", zap.String("request_hash", requestHash))
	return true, nil
}

// InvalidateWorkouts drops every cached workout, e.g. after the exercise
// graph is reseeded.
func (c *Client) InvalidateWorkouts(ctx context.Context) (int, error) {
	removed := 0
	iter := c.client.Scan(ctx, 0, "workout:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warn("Failed to delete cache key", zap.String("key", iter.Val()), zap.Error(err))
			continue
		}
		removed++
	}

	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("failed to iterate cache keys: %w", err)
	}

	logger.Info("Workout cache invalidated", zap.Int("removed", removed))
	return removed, nil
}

func (c *Client) IncrementMetric(ctx context.Context, metricName string) error {
	return c.client.Incr(ctx, metricKey(metricName)).Err()
}

func (c *Client) GetMetric(ctx context.Context, metricName string) (int64, error) {
	val, err := c.client.Get(ctx, metricKey(metricName)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return val, err
}
