package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is the application role of a user.
type Role string

const (
	RoleQuizMaster Role = "quiz-master"
	RoleGeneral    Role = "general"
)

// User is the internal record mapped 1:1 to an identity-provider subject.
type User struct {
	ID         uuid.UUID `json:"id"`
	ExternalID string    `json:"-"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// UpdateRoleRequest is the payload for choosing a role.
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=quiz-master general"`
}
