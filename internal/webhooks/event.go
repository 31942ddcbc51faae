package webhooks

import (
	"time"

	"github.com/meridian-crm/attendance/internal/models"
)

// EventKind is the normalized event type shared by all providers.
type EventKind string

const (
	KindSessionStarted    EventKind = "session_started"
	KindSessionEnded      EventKind = "session_ended"
	KindParticipantJoined EventKind = "participant_joined"
	KindParticipantLeft   EventKind = "participant_left"
	KindURLValidation     EventKind = "url_validation"
	KindUnknown           EventKind = "unknown"
)

// Participant is the signal a provider gives us about who joined or left.
// It is transient: extracted per webhook call and never stored verbatim.
type Participant struct {
	DisplayName string
	Email       string
	JoinedAt    time.Time
	LeftAt      time.Time
}

// Event is the internal shape every provider envelope is normalized into.
// Zero-value timestamps mean the provider did not send one; consumers
// default to the processing time.
type Event struct {
	Kind              EventKind
	Provider          models.Platform
	RawType           string // provider-side event name, for logging
	SessionRef        string // provider meeting/conference id
	Title             string
	ProviderAccountID string
	StartedAt         time.Time
	EndedAt           time.Time
	Participant       *Participant
	PlainToken        string // url_validation challenges only
}
