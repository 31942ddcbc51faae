package models

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryStatus is the state of a delivery confirmation.
type DeliveryStatus string

const (
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusMissed    DeliveryStatus = "missed"
)

// Delivery methods. MethodAutoAttendance tags confirmations written by the
// reconciler from live attendance, as opposed to manual confirmation in the CRM.
const (
	MethodAutoAttendance = "auto_attendance"
	MethodManual         = "manual"
)

// DeliveryRecord confirms that a client received a scheduled content event.
// Unique per (client_id, event_id): reconciliation upserts, never duplicates.
type DeliveryRecord struct {
	ID             uuid.UUID      `json:"id"`
	AccountID      uuid.UUID      `json:"account_id"`
	ClientID       uuid.UUID      `json:"client_id"`
	EventID        uuid.UUID      `json:"event_id"`
	Status         DeliveryStatus `json:"status"`
	DeliveredAt    time.Time      `json:"delivered_at"`
	DeliveryMethod string         `json:"delivery_method"`
	Notes          string         `json:"notes"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
