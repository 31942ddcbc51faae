package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/meridian-crm/attendance/internal/models"
)

const (
	// QueueScores is the Redis list key for engagement score recompute jobs.
	QueueScores = "worker:scores"
	// QueueArchives is the Redis list key for webhook archive jobs.
	QueueArchives = "worker:archives"
	// QueueDLQ is the dead-letter queue for failed jobs after retries.
	QueueDLQ = "worker:dlq"
	// MaxRetries is the number of times to retry a job before moving to DLQ.
	MaxRetries = 3
	// RetryBackoff is the delay between retries.
	RetryBackoff = 10 * time.Second
)

// JobType identifies the job kind.
type JobType string

const (
	JobTypeScoreRecompute JobType = "score_recompute"
	JobTypeWebhookArchive JobType = "webhook_archive"
)

// ScoreRecomputePayload asks the analysis collaborator to refresh a client's
// engagement score after their attendance changed.
type ScoreRecomputePayload struct {
	AccountID uuid.UUID `json:"account_id"`
	ClientID  uuid.UUID `json:"client_id"`
}

// WebhookArchivePayload carries a raw provider payload for S3 archival.
type WebhookArchivePayload struct {
	Provider   models.Platform `json:"provider"`
	ReceivedAt time.Time       `json:"received_at"`
	Body       []byte          `json:"body"`
}

// Job is a generic job envelope.
type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempt   int             `json:"attempt"`
	CreatedAt time.Time       `json:"created_at"`
}

// Queue enqueues and dequeues jobs via Redis.
type Queue struct {
	client *redis.Client
	logger *zap.Logger
}

// NewQueue creates a new Redis-backed job queue.
func NewQueue(client *redis.Client, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{client: client, logger: logger}
}

// EnqueueScoreRecompute enqueues an engagement score recompute job.
func (q *Queue) EnqueueScoreRecompute(ctx context.Context, payload ScoreRecomputePayload) error {
	if err := q.enqueue(ctx, QueueScores, JobTypeScoreRecompute, payload); err != nil {
		return err
	}
	q.logger.Debug("enqueued score recompute job", zap.String("client_id", payload.ClientID.String()))
	return nil
}

// EnqueueWebhookArchive enqueues a raw webhook payload for S3 archival.
func (q *Queue) EnqueueWebhookArchive(ctx context.Context, payload WebhookArchivePayload) error {
	if err := q.enqueue(ctx, QueueArchives, JobTypeWebhookArchive, payload); err != nil {
		return err
	}
	q.logger.Debug("enqueued webhook archive job", zap.String("provider", string(payload.Provider)))
	return nil
}

func (q *Queue) enqueue(ctx context.Context, key string, jobType JobType, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	job := Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Payload:   body,
		Attempt:   0,
		CreatedAt: time.Now(),
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, key, raw).Err(); err != nil {
		return fmt.Errorf("rpush: %w", err)
	}
	return nil
}

// Dequeue blocks until a job is available on any worker queue or ctx is done.
// Returns the job and the queue key it came from.
func (q *Queue) Dequeue(ctx context.Context) (*Job, string, error) {
	result, err := q.client.BLPop(ctx, 0, QueueScores, QueueArchives).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, "", nil
		}
		return nil, "", err
	}
	if len(result) < 2 {
		return nil, "", nil
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		q.logger.Warn("invalid job payload", zap.String("raw", result[1]), zap.Error(err))
		return nil, "", nil
	}
	return &job, result[0], nil
}

// Retry re-enqueues a job on its origin queue with incremented attempt.
// If attempt >= MaxRetries, pushes to DLQ instead.
func (q *Queue) Retry(ctx context.Context, job *Job, originKey string) error {
	job.Attempt++
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if job.Attempt >= MaxRetries {
		if err := q.client.RPush(ctx, QueueDLQ, raw).Err(); err != nil {
			q.logger.Error("dlq push failed", zap.Error(err), zap.String("job_id", job.ID))
			return err
		}
		q.logger.Warn("job moved to DLQ", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
		return nil
	}
	if originKey == "" {
		originKey = QueueScores
	}
	if err := q.client.RPush(ctx, originKey, raw).Err(); err != nil {
		return err
	}
	q.logger.Info("job retried", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
	return nil
}
