package models

import (
	"github.com/google/uuid"
)

// APIKey authenticates tool clients (agent integrations) calling /api/tools.
type APIKey struct {
	ID        uuid.UUID `json:"id"`
	AccountID uuid.UUID `json:"account_id"`
	KeyHash   string    `json:"-"`
	KeyPrefix string    `json:"key_prefix"`
	IsActive  bool      `json:"is_active"`
}
