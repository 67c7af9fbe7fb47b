package voice

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hireloop/backend/internal/models"
	"github.com/hireloop/backend/internal/questions"
	"github.com/hireloop/backend/pkg/queue"
)

type fakeSaver struct {
	mu    sync.Mutex
	saves []*models.TranscriptRecord
	fail  bool
}

func (f *fakeSaver) Save(_ context.Context, rec *models.TranscriptRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("redis down")
	}
	f.saves = append(f.saves, rec)
	return nil
}

func (f *fakeSaver) last() *models.TranscriptRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.saves) == 0 {
		return nil
	}
	return f.saves[len(f.saves)-1]
}

type fakeArchive struct {
	mu       sync.Mutex
	payloads []queue.TranscriptArchivePayload
}

func (f *fakeArchive) EnqueueTranscriptArchive(_ context.Context, p queue.TranscriptArchivePayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, p)
	return nil
}

func (f *fakeArchive) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

// waitFor polls cond until it holds or the deadline passes. Transcript writes
// are fire-and-forget, so tests observing them have to wait.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func newTestVoiceEngine(saver TranscriptSaver, archive ArchiveEnqueuer) *Engine {
	return NewEngine(saver, archive, nil, time.Hour, nil)
}

func TestStartSessionSeedsGreeting(t *testing.T) {
	saver := &fakeSaver{}
	eng := newTestVoiceEngine(saver, nil)

	result := eng.StartSession(context.Background(), "IV-TEST1234", "Ada", "Backend Engineer")
	if result.SessionID == "" {
		t.Fatal("session ID should be allocated")
	}
	if result.CurrentQuestion != questions.At(0) {
		t.Errorf("current question = %q, want %q", result.CurrentQuestion, questions.At(0))
	}
	if len(result.Questions) != questions.Count() {
		t.Errorf("question list length = %d, want %d", len(result.Questions), questions.Count())
	}

	msgs := eng.Messages(result.SessionID)
	if len(msgs) != 1 {
		t.Fatalf("messages = %d, want 1 greeting", len(msgs))
	}
	if msgs[0].Role != models.MessageRoleAI {
		t.Errorf("greeting role = %q, want ai", msgs[0].Role)
	}

	waitFor(t, func() bool { return saver.last() != nil })
	if rec := saver.last(); rec.SessionID != result.SessionID {
		t.Errorf("persisted session = %q, want %q", rec.SessionID, result.SessionID)
	}
}

func TestFullConversationEndsOnFinalTurn(t *testing.T) {
	saver := &fakeSaver{}
	archive := &fakeArchive{}
	eng := newTestVoiceEngine(saver, archive)

	start := eng.StartSession(context.Background(), "IV-TEST1234", "Ada", "Backend Engineer")

	var last *TurnResult
	for i := 0; i < questions.Count(); i++ {
		result, err := eng.ProcessTurn(context.Background(), start.SessionID, "my answer")
		if err != nil {
			t.Fatalf("turn %d failed: %v", i+1, err)
		}
		if i < questions.Count()-1 {
			if result.SessionEnded {
				t.Fatalf("turn %d ended the session early", i+1)
			}
			if result.NextQuestion != questions.At(i+1) {
				t.Errorf("turn %d next question = %q, want %q", i+1, result.NextQuestion, questions.At(i+1))
			}
		}
		last = result
	}

	if !last.SessionEnded {
		t.Error("final turn should end the session")
	}
	if last.NextQuestion != "" {
		t.Errorf("final next question = %q, want empty", last.NextQuestion)
	}
	// greeting + 8 candidate/ai pairs
	if len(last.Messages) != 1+2*questions.Count() {
		t.Errorf("messages = %d, want %d", len(last.Messages), 1+2*questions.Count())
	}

	state, err := eng.ConversationState(start.SessionID)
	if err != nil {
		t.Fatalf("state failed: %v", err)
	}
	if state.QuestionIndex != questions.Count()-1 {
		t.Errorf("final cursor = %d, want %d", state.QuestionIndex, questions.Count()-1)
	}

	if archive.count() != 1 {
		t.Errorf("archive enqueued %d times, want 1", archive.count())
	}
	// Ending again does not re-enqueue.
	eng.EndSession(context.Background(), start.SessionID)
	if archive.count() != 1 {
		t.Errorf("archive re-enqueued after EndSession: %d", archive.count())
	}

	waitFor(t, func() bool {
		rec := saver.last()
		return rec != nil && len(rec.Messages) == 1+2*questions.Count()
	})
	if rec := saver.last(); rec.QuestionsAnswered != questions.Count() {
		t.Errorf("questions answered = %d, want %d", rec.QuestionsAnswered, questions.Count())
	}
}

func TestProcessTurnUnknownSession(t *testing.T) {
	eng := newTestVoiceEngine(&fakeSaver{}, nil)

	_, err := eng.ProcessTurn(context.Background(), "no-such-session", "hello")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if msgs := eng.Messages("no-such-session"); msgs != nil {
		t.Error("failed turn must not create a session")
	}
}

func TestProcessTurnAfterEnd(t *testing.T) {
	eng := newTestVoiceEngine(&fakeSaver{}, nil)
	start := eng.StartSession(context.Background(), "IV-TEST1234", "Ada", "Backend Engineer")

	eng.EndSession(context.Background(), start.SessionID)
	_, err := eng.ProcessTurn(context.Background(), start.SessionID, "hello")
	if !errors.Is(err, ErrSessionEnded) {
		t.Fatalf("expected ErrSessionEnded, got %v", err)
	}
}

func TestEndSessionIdempotentAndUnknownNoop(t *testing.T) {
	archive := &fakeArchive{}
	eng := newTestVoiceEngine(&fakeSaver{}, archive)

	// Unknown session: no error, no archive.
	eng.EndSession(context.Background(), "no-such-session")
	if archive.count() != 0 {
		t.Error("unknown session must not enqueue archive")
	}

	start := eng.StartSession(context.Background(), "IV-TEST1234", "Ada", "Backend Engineer")
	eng.EndSession(context.Background(), start.SessionID)
	eng.EndSession(context.Background(), start.SessionID)
	if archive.count() != 1 {
		t.Errorf("archive enqueued %d times, want 1", archive.count())
	}
}

func TestCurrentQuestionUnknownSession(t *testing.T) {
	eng := newTestVoiceEngine(&fakeSaver{}, nil)
	if _, err := eng.CurrentQuestion("no-such-session"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestTurnSurvivesPersistenceFailure(t *testing.T) {
	saver := &fakeSaver{fail: true}
	eng := newTestVoiceEngine(saver, nil)

	start := eng.StartSession(context.Background(), "IV-TEST1234", "Ada", "Backend Engineer")
	result, err := eng.ProcessTurn(context.Background(), start.SessionID, "my answer")
	if err != nil {
		t.Fatalf("turn must not fail on persistence error: %v", err)
	}
	if result.NextQuestion != questions.At(1) {
		t.Errorf("next question = %q, want %q", result.NextQuestion, questions.At(1))
	}
}

func TestJanitorSweepsIdleSessions(t *testing.T) {
	saver := &fakeSaver{}
	eng := NewEngine(saver, nil, nil, time.Minute, nil)

	start := eng.StartSession(context.Background(), "IV-TEST1234", "Ada", "Backend Engineer")

	// Move the clock past the idle TTL and sweep.
	eng.now = func() time.Time { return time.Now().Add(10 * time.Minute) }
	eng.sweep(context.Background())

	if msgs := eng.Messages(start.SessionID); msgs != nil {
		t.Error("idle session should be swept from the map")
	}
}
