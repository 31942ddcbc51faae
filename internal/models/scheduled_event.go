package models

import (
	"time"

	"github.com/google/uuid"
)

// ScheduledEventType classifies a scheduled content event.
type ScheduledEventType string

const (
	EventTypeLive     ScheduledEventType = "live"
	EventTypeRecorded ScheduledEventType = "recorded"
)

// ScheduledEvent is a content event on the account's delivery calendar.
// Read-only from this service; the reconciler matches live attendance
// against events scheduled near the attendance time.
type ScheduledEvent struct {
	ID                 uuid.UUID          `json:"id"`
	AccountID          uuid.UUID          `json:"account_id"`
	EventType          ScheduledEventType `json:"event_type"`
	Title              string             `json:"title"`
	ScheduledAt        time.Time          `json:"scheduled_at"`
	EligibleProductIDs []uuid.UUID        `json:"eligible_product_ids,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
}
