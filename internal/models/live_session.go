package models

import (
	"time"

	"github.com/google/uuid"
)

// Platform identifies the video-conferencing provider a session came from.
type Platform string

const (
	PlatformZoom Platform = "zoom"
	PlatformMeet Platform = "meet"
)

// Valid reports whether p is a known provider.
func (p Platform) Valid() bool {
	return p == PlatformZoom || p == PlatformMeet
}

// LiveSession is a single video-conference instance tracked by the engine.
// Identity key is (account_id, platform, external_meeting_id); a session is
// created on a start event and closed (ended_at set) on an end event.
type LiveSession struct {
	ID                uuid.UUID  `json:"id"`
	AccountID         uuid.UUID  `json:"account_id"`
	Platform          Platform   `json:"platform"`
	ExternalMeetingID string     `json:"external_meeting_id"`
	Title             string     `json:"title"`
	StartedAt         time.Time  `json:"started_at"`
	EndedAt           *time.Time `json:"ended_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
