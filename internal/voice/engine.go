// Package voice drives the scripted question/answer loop for voice-mode
// interviews. The engine is deliberately indifferent to answer content: any
// candidate turn advances the cursor identically. A real reasoning or
// STT/TTS backend would slot in here without changing the turn state machine.
package voice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hireloop/backend/internal/models"
	"github.com/hireloop/backend/internal/questions"
	"github.com/hireloop/backend/pkg/queue"
)

var (
	// ErrSessionNotFound indicates a client/session desync; unknown session
	// IDs are a hard error, never auto-created.
	ErrSessionNotFound = errors.New("voice session not found")
	// ErrSessionEnded is returned for turns submitted after the session closed.
	ErrSessionEnded = errors.New("voice session already ended")
)

const greetingTemplate = "Hello %s, and welcome to your interview for the %s position. " +
	"I'll ask you a short series of questions; take your time with each answer. Let's begin."

const closingMessage = "That was the final question. Thank you for your time today — " +
	"your responses have been recorded and the team will be in touch with next steps."

// The scripted responder has no language understanding; acknowledgments
// rotate by question index.
var acknowledgments = []string{
	"Thank you for sharing that.",
	"Got it, thanks for the detail.",
	"Understood, that's helpful.",
	"Thanks, noted.",
}

// TranscriptSaver persists conversation snapshots. Failures are logged and
// swallowed; they must never abort a turn.
type TranscriptSaver interface {
	Save(ctx context.Context, rec *models.TranscriptRecord) error
}

// ArchiveEnqueuer schedules a completed transcript for S3 archival.
type ArchiveEnqueuer interface {
	EnqueueTranscriptArchive(ctx context.Context, payload queue.TranscriptArchivePayload) error
}

// CaptionPublisher fans appended messages out to live caption subscribers.
type CaptionPublisher interface {
	Publish(sessionID string, msg models.TranscriptMessage)
}

// StartResult is returned when a voice session is created.
type StartResult struct {
	SessionID       string   `json:"session_id"`
	Greeting        string   `json:"greeting"`
	Questions       []string `json:"questions"`
	CurrentQuestion string   `json:"current_question"`
}

// TurnResult is returned for each processed candidate turn.
type TurnResult struct {
	AIResponse   string                     `json:"ai_response"`
	NextQuestion string                     `json:"next_question"`
	SessionEnded bool                       `json:"session_ended"`
	Messages     []models.TranscriptMessage `json:"messages"`
}

// State is the conversation state returned for polling clients.
type State struct {
	Question       string                     `json:"question"`
	Messages       []models.TranscriptMessage `json:"messages"`
	QuestionIndex  int                        `json:"question_index"`
	TotalQuestions int                        `json:"total_questions"`
}

// Engine owns all voice sessions for the process. All mutation for a session
// happens under the engine mutex, so duplicate network retries cannot
// interleave within a turn.
type Engine struct {
	mu       sync.RWMutex
	sessions map[string]*models.VoiceSession

	store    TranscriptSaver
	archive  ArchiveEnqueuer  // nil disables archival
	captions CaptionPublisher // nil disables the caption feed
	logger   *zap.Logger
	idleTTL  time.Duration

	now func() time.Time
}

// NewEngine creates a voice conversation engine.
func NewEngine(store TranscriptSaver, archive ArchiveEnqueuer, captions CaptionPublisher, idleTTL time.Duration, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		sessions: make(map[string]*models.VoiceSession),
		store:    store,
		archive:  archive,
		captions: captions,
		logger:   logger,
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

// StartSession allocates a new session seeded with the greeting message.
func (e *Engine) StartSession(ctx context.Context, interviewID, candidateName, role string) *StartResult {
	now := e.now()
	greeting := fmt.Sprintf(greetingTemplate, candidateName, role)
	s := &models.VoiceSession{
		SessionID:      uuid.New().String(),
		InterviewID:    interviewID,
		CandidateName:  candidateName,
		Role:           role,
		StartedAt:      now,
		IsActive:       true,
		LastActivityAt: now,
		Messages: []models.TranscriptMessage{{
			ID:        uuid.New().String(),
			Role:      models.MessageRoleAI,
			Text:      greeting,
			Timestamp: now,
		}},
	}

	e.mu.Lock()
	e.sessions[s.SessionID] = s
	snapshot := e.snapshotLocked(s)
	e.mu.Unlock()

	e.publish(s.SessionID, s.Messages[0])
	e.persist(snapshot)
	e.logger.Info("voice session started",
		zap.String("session_id", s.SessionID),
		zap.String("interview_id", interviewID))

	return &StartResult{
		SessionID:       s.SessionID,
		Greeting:        greeting,
		Questions:       append([]string(nil), questions.List...),
		CurrentQuestion: questions.At(0),
	}
}

// ProcessTurn appends the candidate's answer, decides continuation, and
// appends the AI reply. The full snapshot is persisted on every turn so a
// crash mid-interview leaves the latest state durable.
func (e *Engine) ProcessTurn(ctx context.Context, sessionID, candidateText string) (*TurnResult, error) {
	now := e.now()

	e.mu.Lock()
	s, ok := e.sessions[sessionID]
	if !ok {
		e.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	if !s.IsActive {
		e.mu.Unlock()
		return nil, ErrSessionEnded
	}

	candidateMsg := models.TranscriptMessage{
		ID:        uuid.New().String(),
		Role:      models.MessageRoleCandidate,
		Text:      candidateText,
		Timestamp: now,
	}
	s.Messages = append(s.Messages, candidateMsg)

	var aiText, nextQuestion string
	ended := false
	if s.CurrentQuestionIndex < questions.Count()-1 {
		aiText = acknowledgments[s.CurrentQuestionIndex%len(acknowledgments)]
		s.CurrentQuestionIndex++
		nextQuestion = questions.At(s.CurrentQuestionIndex)
	} else {
		aiText = closingMessage
		s.IsActive = false
		ended = true
	}

	aiMsg := models.TranscriptMessage{
		ID:        uuid.New().String(),
		Role:      models.MessageRoleAI,
		Text:      aiText,
		Timestamp: now,
	}
	s.Messages = append(s.Messages, aiMsg)
	s.LastActivityAt = now

	result := &TurnResult{
		AIResponse:   aiText,
		NextQuestion: nextQuestion,
		SessionEnded: ended,
		Messages:     append([]models.TranscriptMessage(nil), s.Messages...),
	}
	snapshot := e.snapshotLocked(s)
	e.mu.Unlock()

	e.publish(sessionID, candidateMsg)
	e.publish(sessionID, aiMsg)
	e.persist(snapshot)
	if ended {
		e.enqueueArchive(ctx, snapshot)
	}
	return result, nil
}

// CurrentQuestion returns the question at the cursor. An out-of-range cursor
// yields "" rather than an error.
func (e *Engine) CurrentQuestion(sessionID string) (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.sessions[sessionID]
	if !ok {
		return "", ErrSessionNotFound
	}
	return questions.At(s.CurrentQuestionIndex), nil
}

// ConversationState returns the polling view of a session.
func (e *Engine) ConversationState(sessionID string) (*State, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &State{
		Question:       questions.At(s.CurrentQuestionIndex),
		Messages:       append([]models.TranscriptMessage(nil), s.Messages...),
		QuestionIndex:  s.CurrentQuestionIndex,
		TotalQuestions: questions.Count(),
	}, nil
}

// EndSession deactivates and persists the session. Unknown sessions are a
// no-op; calling twice is safe.
func (e *Engine) EndSession(ctx context.Context, sessionID string) {
	e.mu.Lock()
	s, ok := e.sessions[sessionID]
	if !ok {
		e.mu.Unlock()
		return
	}
	wasActive := s.IsActive
	s.IsActive = false
	snapshot := e.snapshotLocked(s)
	e.mu.Unlock()

	e.persist(snapshot)
	if wasActive {
		e.enqueueArchive(ctx, snapshot)
		e.logger.Info("voice session ended", zap.String("session_id", sessionID))
	}
}

// Messages returns the transcript so far; empty for unknown sessions. Used
// for best-effort captioning, so missing sessions are not an error.
func (e *Engine) Messages(sessionID string) []models.TranscriptMessage {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.sessions[sessionID]
	if !ok {
		return nil
	}
	return append([]models.TranscriptMessage(nil), s.Messages...)
}

// RunJanitor sweeps idle sessions until ctx is done.
func (e *Engine) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.sweep(ctx)
		}
	}
}

func (e *Engine) sweep(ctx context.Context) {
	cutoff := e.now().Add(-e.idleTTL)

	e.mu.Lock()
	var stale []*models.TranscriptRecord
	for id, s := range e.sessions {
		if s.LastActivityAt.Before(cutoff) {
			s.IsActive = false
			stale = append(stale, e.snapshotLocked(s))
			delete(e.sessions, id)
		}
	}
	e.mu.Unlock()

	for _, rec := range stale {
		e.persist(rec)
		e.logger.Info("swept idle voice session", zap.String("session_id", rec.SessionID))
	}
}

// snapshotLocked copies the session into a durable record. Caller holds the
// engine mutex.
func (e *Engine) snapshotLocked(s *models.VoiceSession) *models.TranscriptRecord {
	return &models.TranscriptRecord{
		InterviewID:       s.InterviewID,
		SessionID:         s.SessionID,
		CandidateName:     s.CandidateName,
		Role:              s.Role,
		StartedAt:         s.StartedAt,
		CompletedAt:       e.now(),
		Messages:          append([]models.TranscriptMessage(nil), s.Messages...),
		TotalQuestions:    questions.Count(),
		QuestionsAnswered: s.CurrentQuestionIndex + 1,
	}
}

// persist writes the snapshot fire-and-forget: a slow or failed write must
// not delay or fail the conversational response.
func (e *Engine) persist(rec *models.TranscriptRecord) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.store.Save(ctx, rec); err != nil {
			e.logger.Warn("transcript save failed",
				zap.Error(err),
				zap.String("session_id", rec.SessionID))
		}
	}()
}

func (e *Engine) enqueueArchive(ctx context.Context, rec *models.TranscriptRecord) {
	if e.archive == nil {
		return
	}
	payload := queue.TranscriptArchivePayload{InterviewID: rec.InterviewID, SessionID: rec.SessionID}
	if err := e.archive.EnqueueTranscriptArchive(ctx, payload); err != nil {
		e.logger.Warn("enqueue transcript archive failed",
			zap.Error(err),
			zap.String("session_id", rec.SessionID))
	}
}

func (e *Engine) publish(sessionID string, msg models.TranscriptMessage) {
	if e.captions == nil {
		return
	}
	e.captions.Publish(sessionID, msg)
}
