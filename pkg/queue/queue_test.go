package queue

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestQueue(t *testing.T) (*miniredis.Miniredis, *redis.Client, *Queue) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client, NewQueue(client, nil)
}

func TestEnqueueDequeueRoundtrip(t *testing.T) {
	_, _, q := setupTestQueue(t)
	ctx := context.Background()

	payload := TranscriptArchivePayload{InterviewID: "IV-TEST1234", SessionID: "sess-1"}
	if err := q.EnqueueTranscriptArchive(ctx, payload); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	job, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue failed: %v", err)
	}
	if job == nil {
		t.Fatal("expected a job")
	}
	if job.Type != JobTypeTranscriptArchive {
		t.Errorf("job type = %s, want %s", job.Type, JobTypeTranscriptArchive)
	}
	if job.Attempt != 0 {
		t.Errorf("attempt = %d, want 0", job.Attempt)
	}

	var got TranscriptArchivePayload
	if err := json.Unmarshal(job.Payload, &got); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if got != payload {
		t.Errorf("payload = %+v, want %+v", got, payload)
	}
}

func TestRetryReenqueuesWithIncrementedAttempt(t *testing.T) {
	_, _, q := setupTestQueue(t)
	ctx := context.Background()

	if err := q.EnqueueTranscriptArchive(ctx, TranscriptArchivePayload{InterviewID: "a", SessionID: "b"}); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	job, err := q.Dequeue(ctx)
	if err != nil || job == nil {
		t.Fatalf("dequeue failed: %v", err)
	}

	if err := q.Retry(ctx, job); err != nil {
		t.Fatalf("retry failed: %v", err)
	}

	retried, err := q.Dequeue(ctx)
	if err != nil || retried == nil {
		t.Fatalf("dequeue retried job failed: %v", err)
	}
	if retried.Attempt != 1 {
		t.Errorf("attempt = %d, want 1", retried.Attempt)
	}
	if retried.ID != job.ID {
		t.Errorf("retried job ID changed: %s != %s", retried.ID, job.ID)
	}
}

func TestRetryMovesExhaustedJobToDLQ(t *testing.T) {
	_, client, q := setupTestQueue(t)
	ctx := context.Background()

	if err := q.EnqueueTranscriptArchive(ctx, TranscriptArchivePayload{InterviewID: "a", SessionID: "b"}); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	job, err := q.Dequeue(ctx)
	if err != nil || job == nil {
		t.Fatalf("dequeue failed: %v", err)
	}

	job.Attempt = MaxRetries - 1
	if err := q.Retry(ctx, job); err != nil {
		t.Fatalf("retry failed: %v", err)
	}

	dlqLen, err := client.LLen(ctx, QueueDLQ).Result()
	if err != nil {
		t.Fatalf("llen failed: %v", err)
	}
	if dlqLen != 1 {
		t.Errorf("DLQ length = %d, want 1", dlqLen)
	}
	mainLen, err := client.LLen(ctx, QueueTranscripts).Result()
	if err != nil {
		t.Fatalf("llen failed: %v", err)
	}
	if mainLen != 0 {
		t.Errorf("main queue length = %d, want 0", mainLen)
	}
}
