package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hireloop/backend/internal/models"
)

// Repository handles admin persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID returns an admin by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Admin, error) {
	const q = `SELECT id, email, password_hash, full_name, created_at, updated_at FROM admins WHERE id = $1`
	var a models.Admin
	err := r.pool.QueryRow(ctx, q, id).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.FullName, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByEmail returns an admin by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	const q = `SELECT id, email, password_hash, full_name, created_at, updated_at FROM admins WHERE email = $1`
	var a models.Admin
	err := r.pool.QueryRow(ctx, q, email).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.FullName, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new admin.
func (r *Repository) Create(ctx context.Context, email, passwordHash, fullName string) (*models.Admin, error) {
	const q = `INSERT INTO admins (email, password_hash, full_name)
		VALUES ($1, $2, $3)
		RETURNING id, email, password_hash, full_name, created_at, updated_at`
	var a models.Admin
	err := r.pool.QueryRow(ctx, q, email, passwordHash, fullName).
		Scan(&a.ID, &a.Email, &a.PasswordHash, &a.FullName, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
