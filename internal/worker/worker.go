package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/meridian-crm/attendance/internal/analysis"
	"github.com/meridian-crm/attendance/pkg/queue"
	"github.com/meridian-crm/attendance/pkg/storage"
)

// Processor consumes background jobs: engagement score recomputes and raw
// webhook payload archival.
type Processor struct {
	analysis *analysis.Client
	s3       *storage.S3
	queue    *queue.Queue
	logger   *zap.Logger
}

// NewProcessor creates a job processor. s3 may be nil; archive jobs are then
// retried until they hit the DLQ, which keeps misconfiguration observable.
func NewProcessor(analysisClient *analysis.Client, s3 *storage.S3, q *queue.Queue, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{analysis: analysisClient, s3: s3, queue: q, logger: logger}
}

// Process executes one job.
func (p *Processor) Process(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeScoreRecompute:
		return p.processScoreRecompute(ctx, job)
	case queue.JobTypeWebhookArchive:
		return p.processWebhookArchive(ctx, job)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (p *Processor) processScoreRecompute(ctx context.Context, job *queue.Job) error {
	var payload queue.ScoreRecomputePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if !p.analysis.Configured() {
		p.logger.Debug("analysis service not configured, dropping score recompute",
			zap.String("client_id", payload.ClientID.String()))
		return nil
	}
	if err := p.analysis.RecomputeScore(ctx, payload.AccountID, payload.ClientID); err != nil {
		return fmt.Errorf("score recompute: %w", err)
	}
	p.logger.Info("score recompute completed", zap.String("client_id", payload.ClientID.String()))
	return nil
}

func (p *Processor) processWebhookArchive(ctx context.Context, job *queue.Job) error {
	var payload queue.WebhookArchivePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if p.s3 == nil {
		return fmt.Errorf("s3 not configured")
	}
	key := storage.ArchiveKey(string(payload.Provider), payload.ReceivedAt, job.ID)
	if _, err := p.s3.PutJSON(ctx, p.s3.ArchiveBucket(), key, payload.Body); err != nil {
		return fmt.Errorf("archive upload: %w", err)
	}
	p.logger.Info("webhook payload archived", zap.String("key", key))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *Processor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("worker stopping")
			return
		default:
		}

		job, origin, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				p.logger.Info("worker stopping")
				return
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job, origin); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
