package models

import (
	"time"

	"github.com/google/uuid"
)

// Client is a CRM client record. Read-only from this service: the engine
// resolves webhook participants to clients but never mutates them.
type Client struct {
	ID        uuid.UUID `json:"id"`
	AccountID uuid.UUID `json:"account_id"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
