package models

import (
	"time"

	"github.com/google/uuid"
)

// Admin is a scheduling user who manages interviews.
type Admin struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AdminPublic is the admin shape safe to return from the API.
type AdminPublic struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

// Public returns the API-safe view of the admin.
func (a *Admin) Public() AdminPublic {
	return AdminPublic{ID: a.ID, Email: a.Email, FullName: a.FullName, CreatedAt: a.CreatedAt}
}
