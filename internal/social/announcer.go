// Package social hands composed announcements off to the posting
// collaborator. The pipeline enqueues and forgets; delivery outcome is the
// consumer's problem.
package social

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Task statuses as written to the queue.
const (
	StatusQueued = "queued"
)

// Task is one scheduled social announcement.
type Task struct {
	DealRecordID string    `json:"dealRecordId"`
	Platform     string    `json:"platform"`
	Content      string    `json:"content"`
	Hashtags     []string  `json:"hashtags"`
	ScheduledAt  time.Time `json:"scheduledAt"`
	Status       string    `json:"status"`
}

// Announcer accepts composed announcement tasks.
type Announcer interface {
	Announce(ctx context.Context, task Task) error
}

// RedisAnnouncer pushes tasks onto a Redis list consumed by the posting worker.
type RedisAnnouncer struct {
	client *redis.Client
	key    string
	logger zerolog.Logger
}

// RedisOptions parameterise queue connectivity.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	QueueKey string
}

// NewRedisAnnouncer constructs a Redis-backed announcement queue.
func NewRedisAnnouncer(opts RedisOptions, logger zerolog.Logger) *RedisAnnouncer {
	key := opts.QueueKey
	if key == "" {
		key = "social-post"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	return &RedisAnnouncer{
		client: client,
		key:    key,
		logger: logger.With().Str("component", "social_redis").Logger(),
	}
}

// Announce serialises the task and pushes it onto the queue.
func (a *RedisAnnouncer) Announce(ctx context.Context, task Task) error {
	if task.Status == "" {
		task.Status = StatusQueued
	}

	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal announcement task: %w", err)
	}

	if err := a.client.LPush(ctx, a.key, payload).Err(); err != nil {
		return fmt.Errorf("enqueue announcement: %w", err)
	}

	a.logger.Info().
		Str("deal_record_id", task.DealRecordID).
		Str("platform", task.Platform).
		Time("scheduled_at", task.ScheduledAt).
		Msg("announcement queued")
	return nil
}

// Close releases the Redis connection.
func (a *RedisAnnouncer) Close() error {
	return a.client.Close()
}

// LogAnnouncer records the task without delivering it anywhere. Dry-run mode.
type LogAnnouncer struct {
	logger zerolog.Logger
}

// NewLogAnnouncer constructs the dry-run announcer.
func NewLogAnnouncer(logger zerolog.Logger) *LogAnnouncer {
	return &LogAnnouncer{logger: logger.With().Str("component", "social_dryrun").Logger()}
}

// Announce logs the would-be post.
func (a *LogAnnouncer) Announce(_ context.Context, task Task) error {
	a.logger.Info().
		Str("deal_record_id", task.DealRecordID).
		Str("platform", task.Platform).
		Str("content", task.Content).
		Time("scheduled_at", task.ScheduledAt).
		Msg("dry-run announcement")
	return nil
}

var _ Announcer = (*RedisAnnouncer)(nil)
var _ Announcer = (*LogAnnouncer)(nil)
