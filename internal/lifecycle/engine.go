// Package lifecycle gates access to interviews: it owns the login state
// machine, the session deadline computation, and the progress-sync contract.
package lifecycle

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hireloop/backend/internal/interviews"
	"github.com/hireloop/backend/internal/models"
)

// RejectKind discriminates login refusals so clients can route to distinct
// screens without matching on message text.
type RejectKind string

const (
	RejectNotFound       RejectKind = "not_found"
	RejectBadCredentials RejectKind = "bad_credentials"
	RejectNotStarted     RejectKind = "not_started"
	RejectExpired        RejectKind = "expired"
)

// Rejection is a typed login refusal. It is terminal for the calling flow.
type Rejection struct {
	Kind          RejectKind
	Message       string
	ScheduledTime *time.Time // set for RejectNotStarted
}

func (r *Rejection) Error() string { return string(r.Kind) + ": " + r.Message }

// Session is the result of a successful login. EndTime is the stored session
// deadline, not the interview window end.
type Session struct {
	InterviewID          string    `json:"id"`
	CandidateName        string    `json:"candidate_name"`
	Role                 string    `json:"role"`
	StartTime            time.Time `json:"start_time"`
	EndTime              time.Time `json:"end_time"`
	RemainingSeconds     int64     `json:"remaining_seconds"`
	CurrentQuestionIndex int       `json:"current_question_index"`
}

// InterviewStore is the persistence capability the engine needs. GetByID must
// return an error satisfying errors.Is(err, interviews.ErrNotFound) for an
// unknown ID. StartSession and MarkUsed must be guarded single transitions so
// retried logins cannot double-apply.
type InterviewStore interface {
	GetByID(ctx context.Context, id string) (*models.Interview, error)
	StartSession(ctx context.Context, id string, startedAt, deadline time.Time) error
	MarkUsed(ctx context.Context, id string) error
	UpdateProgress(ctx context.Context, id string, index int) error
}

// CredentialVerifier checks a presented password against the stored secret.
// Pluggable so a deployment can swap in a salted-hash comparison.
type CredentialVerifier interface {
	Verify(presented, stored string) bool
}

// PlainVerifier compares shared secrets in constant time.
type PlainVerifier struct{}

// Verify reports whether presented equals stored.
func (PlainVerifier) Verify(presented, stored string) bool {
	return subtle.ConstantTimeCompare([]byte(presented), []byte(stored)) == 1
}

// Engine enforces the interview access state machine.
type Engine struct {
	store         InterviewStore
	verifier      CredentialVerifier
	questionCount int
	logger        *zap.Logger

	now func() time.Time
}

// NewEngine creates a lifecycle engine. questionCount bounds the progress
// index accepted by SyncProgress.
func NewEngine(store InterviewStore, verifier CredentialVerifier, questionCount int, logger *zap.Logger) *Engine {
	if verifier == nil {
		verifier = PlainVerifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:         store,
		verifier:      verifier,
		questionCount: questionCount,
		logger:        logger,
		now:           time.Now,
	}
}

// Login evaluates one login attempt. On refusal the returned error is a
// *Rejection; any other error is an internal failure.
//
// Precedence: unknown ID, then bad password, then the used flag, then the
// stored deadline for started interviews, then the window bounds. The first
// valid login computes sessionDeadline = min(now + duration, endTime) and
// stores it; re-login only reads it back.
func (e *Engine) Login(ctx context.Context, id, password string) (*Session, error) {
	iv, err := e.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, interviews.ErrNotFound) {
			return nil, &Rejection{Kind: RejectNotFound, Message: "interview not found"}
		}
		return nil, fmt.Errorf("get interview: %w", err)
	}

	if !e.verifier.Verify(password, iv.Password) {
		return nil, &Rejection{Kind: RejectBadCredentials, Message: "incorrect password"}
	}

	now := e.now()

	if iv.IsUsed {
		return nil, &Rejection{Kind: RejectExpired, Message: "interview already completed"}
	}

	if iv.IsStarted && iv.SessionDeadline != nil {
		deadline := *iv.SessionDeadline
		if now.After(deadline) {
			e.markUsed(ctx, id)
			return nil, &Rejection{Kind: RejectExpired, Message: "interview session has expired"}
		}
		// Re-login within the active session: read the stored deadline,
		// recompute nothing.
		return e.session(iv, deadline, now), nil
	}

	if now.Before(iv.StartTime) {
		t := iv.StartTime
		return nil, &Rejection{Kind: RejectNotStarted, Message: "interview has not started yet", ScheduledTime: &t}
	}

	if now.After(iv.EndTime) {
		e.markUsed(ctx, id)
		return nil, &Rejection{Kind: RejectExpired, Message: "interview window has passed"}
	}

	deadline := now.Add(time.Duration(iv.DurationMinutes) * time.Minute)
	if deadline.After(iv.EndTime) {
		deadline = iv.EndTime
	}
	if err := e.store.StartSession(ctx, id, now, deadline); err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	e.logger.Info("interview session started",
		zap.String("interview_id", id),
		zap.Time("deadline", deadline))
	return e.session(iv, deadline, now), nil
}

func (e *Engine) session(iv *models.Interview, deadline, now time.Time) *Session {
	remaining := int64(deadline.Sub(now).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	return &Session{
		InterviewID:          iv.ID,
		CandidateName:        iv.CandidateName,
		Role:                 iv.Role,
		StartTime:            iv.StartTime,
		EndTime:              deadline,
		RemainingSeconds:     remaining,
		CurrentQuestionIndex: iv.CurrentQuestionIndex,
	}
}

func (e *Engine) markUsed(ctx context.Context, id string) {
	if err := e.store.MarkUsed(ctx, id); err != nil {
		e.logger.Error("mark interview used failed", zap.Error(err), zap.String("interview_id", id))
	}
}

// Update is the progress-sync payload. IsUsed may only transition to true;
// an out-of-range index is dropped silently.
type Update struct {
	IsUsed               *bool
	CurrentQuestionIndex *int
}

// SyncProgress applies a progress-sync update and returns the refreshed
// record. Unknown IDs propagate interviews.ErrNotFound.
func (e *Engine) SyncProgress(ctx context.Context, id string, upd Update) (*models.Interview, error) {
	if _, err := e.store.GetByID(ctx, id); err != nil {
		if errors.Is(err, interviews.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get interview: %w", err)
	}

	if upd.IsUsed != nil {
		if *upd.IsUsed {
			if err := e.store.MarkUsed(ctx, id); err != nil {
				return nil, fmt.Errorf("mark used: %w", err)
			}
		} else {
			e.logger.Debug("ignoring attempt to clear is_used", zap.String("interview_id", id))
		}
	}

	if upd.CurrentQuestionIndex != nil {
		idx := *upd.CurrentQuestionIndex
		if idx >= 0 && idx < e.questionCount {
			if err := e.store.UpdateProgress(ctx, id, idx); err != nil {
				return nil, fmt.Errorf("update progress: %w", err)
			}
		} else {
			e.logger.Debug("dropping out-of-range question index",
				zap.String("interview_id", id), zap.Int("index", idx))
		}
	}

	iv, err := e.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload interview: %w", err)
	}
	return iv, nil
}
