package models

import (
	"time"

	"github.com/google/uuid"
)

// Account roles.
const (
	RoleSupervisor = "supervisor"
	RoleViewer     = "viewer"
)

// Account is a dashboard user. Supervisors review and run optimizations.
type Account struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
