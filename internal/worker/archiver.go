// Package worker runs background jobs dequeued from Redis.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hireloop/backend/internal/transcripts"
	"github.com/hireloop/backend/pkg/queue"
	"github.com/hireloop/backend/pkg/storage"
)

// TranscriptArchiver processes transcript archive jobs: load the snapshot
// from the transcript store, upload it as JSON to S3.
type TranscriptArchiver struct {
	store  *transcripts.Store
	s3     *storage.S3
	queue  *queue.Queue
	logger *zap.Logger
}

// NewTranscriptArchiver creates a transcript archive processor.
func NewTranscriptArchiver(store *transcripts.Store, s3 *storage.S3, q *queue.Queue, logger *zap.Logger) *TranscriptArchiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranscriptArchiver{store: store, s3: s3, queue: q, logger: logger}
}

// Process executes one archive job.
func (a *TranscriptArchiver) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeTranscriptArchive {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.TranscriptArchivePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	rec, err := a.store.Load(ctx, payload.InterviewID, payload.SessionID)
	if err != nil {
		if errors.Is(err, transcripts.ErrNotFound) {
			// Snapshot already expired; nothing to archive.
			a.logger.Warn("transcript gone before archive",
				zap.String("interview_id", payload.InterviewID),
				zap.String("session_id", payload.SessionID))
			return nil
		}
		return fmt.Errorf("load transcript: %w", err)
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	key := storage.TranscriptKey(payload.InterviewID, payload.SessionID)
	if _, err := a.s3.Upload(ctx, key, "application/json", bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("upload transcript: %w", err)
	}

	a.logger.Info("transcript archived",
		zap.String("interview_id", payload.InterviewID),
		zap.String("session_id", payload.SessionID),
		zap.String("key", key))
	return nil
}

// Run dequeues and processes jobs until ctx is done. Failed jobs are retried
// with backoff, then dead-lettered.
func (a *TranscriptArchiver) Run(ctx context.Context) {
	a.logger.Info("transcript archiver started")
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("transcript archiver stopped")
			return
		default:
		}

		job, err := a.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			a.logger.Error("dequeue failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}

		if err := a.Process(ctx, job); err != nil {
			a.logger.Error("archive job failed", zap.Error(err), zap.String("job_id", job.ID))
			time.Sleep(queue.RetryBackoff)
			if err := a.queue.Retry(ctx, job); err != nil {
				a.logger.Error("retry failed", zap.Error(err), zap.String("job_id", job.ID))
			}
		}
	}
}
