package models

import (
	"time"

	"github.com/google/uuid"
)

// Integration is a connected video-conferencing integration for an account.
// ProviderAccountID is the provider-side account identifier carried in webhook
// payloads (e.g. the Zoom account_id); it maps inbound events to a tenant.
// SigningSecret, when set, enables per-request HMAC signature validation.
// WebhookTokenHash is the bcrypt hash of the capability token embedded in the
// account's webhook URL.
type Integration struct {
	ID                uuid.UUID `json:"id"`
	AccountID         uuid.UUID `json:"account_id"`
	Platform          Platform  `json:"platform"`
	ProviderAccountID string    `json:"provider_account_id"`
	SigningSecret     string    `json:"-"`
	WebhookTokenHash  string    `json:"-"`
	Connected         bool      `json:"connected"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
