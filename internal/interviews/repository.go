package interviews

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hireloop/backend/internal/models"
)

// ErrNotFound is returned when no interview exists for the given ID.
var ErrNotFound = errors.New("interview not found")

const columns = `id, password, candidate_name, role, start_time, end_time, duration_minutes,
	is_used, is_started, session_started_at, session_deadline, current_question_index,
	created_by, created_at, updated_at`

// Repository handles interview persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an interview repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanInterview(row pgx.Row) (*models.Interview, error) {
	var iv models.Interview
	err := row.Scan(&iv.ID, &iv.Password, &iv.CandidateName, &iv.Role, &iv.StartTime, &iv.EndTime,
		&iv.DurationMinutes, &iv.IsUsed, &iv.IsStarted, &iv.SessionStartedAt, &iv.SessionDeadline,
		&iv.CurrentQuestionIndex, &iv.CreatedBy, &iv.CreatedAt, &iv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &iv, nil
}

// Create inserts a new interview.
func (r *Repository) Create(ctx context.Context, iv *models.Interview) error {
	const q = `INSERT INTO interviews (id, password, candidate_name, role, start_time, end_time, duration_minutes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, q, iv.ID, iv.Password, iv.CandidateName, iv.Role,
		iv.StartTime, iv.EndTime, iv.DurationMinutes, iv.CreatedBy).
		Scan(&iv.CreatedAt, &iv.UpdatedAt)
}

// GetByID returns an interview by its access code.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Interview, error) {
	return scanInterview(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM interviews WHERE id = $1`, id))
}

// List returns all interviews, newest window first.
func (r *Repository) List(ctx context.Context) ([]models.Interview, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM interviews ORDER BY start_time DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Interview
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *iv)
	}
	return list, rows.Err()
}

// StartSession records the first successful login: sets is_started and the
// session deadline. The guard makes the transition apply at most once, so a
// retried login cannot recompute the deadline.
func (r *Repository) StartSession(ctx context.Context, id string, startedAt, deadline time.Time) error {
	const q = `UPDATE interviews
		SET is_started = TRUE, session_started_at = $2, session_deadline = $3, updated_at = NOW()
		WHERE id = $1 AND is_started = FALSE AND is_used = FALSE`
	_, err := r.pool.Exec(ctx, q, id, startedAt, deadline)
	return err
}

// MarkUsed sets is_used. The flag is monotonic: the guard means repeated calls
// are no-ops and nothing ever clears it.
func (r *Repository) MarkUsed(ctx context.Context, id string) error {
	const q = `UPDATE interviews SET is_used = TRUE, updated_at = NOW() WHERE id = $1 AND is_used = FALSE`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

// UpdateProgress overwrites current_question_index. Range validation is the
// lifecycle engine's job; last writer wins here.
func (r *Repository) UpdateProgress(ctx context.Context, id string, index int) error {
	const q = `UPDATE interviews SET current_question_index = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, index)
	return err
}

// Update changes schedule metadata for an interview that has not started.
func (r *Repository) Update(ctx context.Context, id string, candidateName, role *string, startTime, endTime *time.Time, durationMinutes *int) error {
	const q = `UPDATE interviews SET
		candidate_name = COALESCE($2, candidate_name),
		role = COALESCE($3, role),
		start_time = COALESCE($4, start_time),
		end_time = COALESCE($5, end_time),
		duration_minutes = COALESCE($6, duration_minutes),
		updated_at = NOW()
		WHERE id = $1 AND is_started = FALSE`
	_, err := r.pool.Exec(ctx, q, id, candidateName, role, startTime, endTime, durationMinutes)
	return err
}

// Delete removes an interview by ID.
func (r *Repository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM interviews WHERE id = $1`, id)
	return err
}

// SeedDemo inserts one demo interview when the table is empty, so a fresh
// deployment has working credentials to try. The window opens immediately and
// stays open for 24h.
func (r *Repository) SeedDemo(ctx context.Context, logger *zap.Logger) error {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM interviews`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	now := time.Now().UTC().Truncate(time.Minute)
	demo := &models.Interview{
		ID:              "DEMO-2024",
		Password:        "letmein",
		CandidateName:   "Demo Candidate",
		Role:            "Software Engineer",
		StartTime:       now,
		EndTime:         now.Add(24 * time.Hour),
		DurationMinutes: 60,
	}
	if err := r.Create(ctx, demo); err != nil {
		return err
	}
	logger.Info("seeded demo interview",
		zap.String("interview_id", demo.ID),
		zap.String("password", demo.Password))
	return nil
}
