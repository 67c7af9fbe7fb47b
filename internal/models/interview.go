package models

import (
	"time"

	"github.com/google/uuid"
)

// Interview is a scheduled, password-gated, single-use access grant.
// The ID doubles as the access code shared with the candidate.
type Interview struct {
	ID                   string     `json:"id"`
	Password             string     `json:"-"`
	CandidateName        string     `json:"candidate_name"`
	Role                 string     `json:"role"`
	StartTime            time.Time  `json:"start_time"`
	EndTime              time.Time  `json:"end_time"`
	DurationMinutes      int        `json:"duration_minutes"`
	IsUsed               bool       `json:"is_used"`
	IsStarted            bool       `json:"is_started"`
	SessionStartedAt     *time.Time `json:"session_started_at,omitempty"`
	SessionDeadline      *time.Time `json:"session_deadline,omitempty"`
	CurrentQuestionIndex int        `json:"current_question_index"`
	CreatedBy            *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}
