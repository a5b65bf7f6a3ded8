package models

import (
	"time"

	"github.com/google/uuid"
)

// User role enums.
const (
	UserRoleClient     = "client"
	UserRoleFreelancer = "freelancer"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
