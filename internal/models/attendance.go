package models

import (
	"time"

	"github.com/google/uuid"
)

// AttendanceRecord is one client's presence interval within a live session.
// At most one record per (live_session_id, client_id) may be open (left_at
// null) at a time; the partial unique index in the schema enforces this so
// duplicate join deliveries collapse to a single open record.
type AttendanceRecord struct {
	ID            uuid.UUID  `json:"id"`
	AccountID     uuid.UUID  `json:"account_id"`
	LiveSessionID uuid.UUID  `json:"live_session_id"`
	ClientID      uuid.UUID  `json:"client_id"`
	JoinedAt      time.Time  `json:"joined_at"`
	LeftAt        *time.Time `json:"left_at,omitempty"`
	JoinDelaySec  int64      `json:"join_delay_sec"`
	DurationSec   *int64     `json:"duration_sec,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
