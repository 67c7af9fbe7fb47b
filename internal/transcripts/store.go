// Package transcripts persists conversation snapshots in Redis, keyed by
// (interview ID, session ID). A snapshot is written on every turn, so the
// durable record trails the live session by at most one turn.
package transcripts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hireloop/backend/internal/models"
)

// ErrNotFound is returned for sessions never persisted or already expired.
// It is a normal outcome, not a failure.
var ErrNotFound = errors.New("transcript not found")

// Store is a Redis-backed transcript store. Saves are last-write-wins.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewStore creates a transcript store. ttl bounds how long snapshots are
// retained; zero means no expiry.
func NewStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, ttl: ttl, logger: logger}
}

func key(interviewID, sessionID string) string {
	return "transcript:" + interviewID + ":" + sessionID
}

// Save writes the snapshot, overwriting any prior save for the same key.
func (s *Store) Save(ctx context.Context, rec *models.TranscriptRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	if err := s.client.Set(ctx, key(rec.InterviewID, rec.SessionID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("set transcript: %w", err)
	}
	return nil
}

// Load returns the last saved snapshot, or ErrNotFound.
func (s *Store) Load(ctx context.Context, interviewID, sessionID string) (*models.TranscriptRecord, error) {
	raw, err := s.client.Get(ctx, key(interviewID, sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get transcript: %w", err)
	}
	var rec models.TranscriptRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal transcript: %w", err)
	}
	return &rec, nil
}
