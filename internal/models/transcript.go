package models

import "time"

// Message author roles.
const (
	MessageRoleAI        = "ai"
	MessageRoleCandidate = "candidate"
)

// TranscriptMessage is one utterance in a conversation. Immutable once appended.
type TranscriptMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // "ai" or "candidate"
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Duration  *float64  `json:"duration,omitempty"` // spoken duration in seconds, when known
}

// VoiceSession is the ephemeral, process-lifetime state of one voice-mode run.
type VoiceSession struct {
	SessionID            string              `json:"session_id"`
	InterviewID          string              `json:"interview_id"`
	CandidateName        string              `json:"candidate_name"`
	Role                 string              `json:"role"`
	StartedAt            time.Time           `json:"started_at"`
	Messages             []TranscriptMessage `json:"messages"`
	CurrentQuestionIndex int                 `json:"current_question_index"`
	IsActive             bool                `json:"is_active"`
	LastActivityAt       time.Time           `json:"last_activity_at"`
}

// TranscriptRecord is the durable snapshot of a conversation, keyed by
// (interview_id, session_id). Last write wins.
type TranscriptRecord struct {
	InterviewID       string              `json:"interview_id"`
	SessionID         string              `json:"session_id"`
	CandidateName     string              `json:"candidate_name"`
	Role              string              `json:"role"`
	StartedAt         time.Time           `json:"started_at"`
	CompletedAt       time.Time           `json:"completed_at"`
	Messages          []TranscriptMessage `json:"messages"`
	TotalQuestions    int                 `json:"total_questions"`
	QuestionsAnswered int                 `json:"questions_answered"`
}
