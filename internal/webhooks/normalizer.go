package webhooks

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/meridian-crm/attendance/internal/models"
)

// ErrUndecodable means no known envelope shape could be parsed from the body.
var ErrUndecodable = errors.New("undecodable webhook envelope")

// zoomEnvelope is the Zoom webhook wire format.
type zoomEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		AccountID  string `json:"account_id"`
		PlainToken string `json:"plainToken"`
		Object     struct {
			ID          string `json:"id"`
			Topic       string `json:"topic"`
			StartTime   string `json:"start_time"`
			EndTime     string `json:"end_time"`
			Participant *struct {
				UserName  string `json:"user_name"`
				Email     string `json:"email"`
				JoinTime  string `json:"join_time"`
				LeaveTime string `json:"leave_time"`
			} `json:"participant"`
		} `json:"object"`
	} `json:"payload"`
}

// pubsubEnvelope is the pub/sub push wrapper the Meet bridge delivers:
// the actual event is base64-encoded JSON in message.data.
type pubsubEnvelope struct {
	Message struct {
		Data        string `json:"data"`
		MessageID   string `json:"messageId"`
		PublishTime string `json:"publishTime"`
	} `json:"message"`
}

// meetPayload is the flat Meet event shape (also what message.data decodes to).
type meetPayload struct {
	Event       string `json:"event"`
	MeetingCode string `json:"meeting_code"`
	Title       string `json:"title"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Participant *struct {
		DisplayName string `json:"display_name"`
		Email       string `json:"email"`
		JoinTime    string `json:"join_time"`
		LeaveTime   string `json:"leave_time"`
	} `json:"participant"`
}

var zoomKinds = map[string]EventKind{
	"endpoint.url_validation":    KindURLValidation,
	"meeting.started":            KindSessionStarted,
	"meeting.ended":              KindSessionEnded,
	"meeting.participant_joined": KindParticipantJoined,
	"meeting.participant_left":   KindParticipantLeft,
}

var meetKinds = map[string]EventKind{
	"conference.started": KindSessionStarted,
	"conference.ended":   KindSessionEnded,
	"participant.joined": KindParticipantJoined,
	"participant.left":   KindParticipantLeft,
}

// NormalizeZoom decodes a Zoom envelope into the internal event shape.
// Only shape extraction happens here; semantic validation is the caller's job.
func NormalizeZoom(body []byte) (*Event, error) {
	var env zoomEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	if env.Event == "" {
		return nil, fmt.Errorf("%w: missing event field", ErrUndecodable)
	}

	kind, ok := zoomKinds[env.Event]
	if !ok {
		kind = KindUnknown
	}
	ev := &Event{
		Kind:              kind,
		Provider:          models.PlatformZoom,
		RawType:           env.Event,
		SessionRef:        env.Payload.Object.ID,
		Title:             env.Payload.Object.Topic,
		ProviderAccountID: env.Payload.AccountID,
		StartedAt:         parseTime(env.Payload.Object.StartTime),
		EndedAt:           parseTime(env.Payload.Object.EndTime),
		PlainToken:        env.Payload.PlainToken,
	}
	if p := env.Payload.Object.Participant; p != nil {
		ev.Participant = &Participant{
			DisplayName: p.UserName,
			Email:       p.Email,
			JoinedAt:    parseTime(p.JoinTime),
			LeftAt:      parseTime(p.LeaveTime),
		}
	}
	return ev, nil
}

// NormalizeMeet decodes a Meet delivery. The bridge usually POSTs a pub/sub
// push envelope with base64 JSON in message.data, but direct flat JSON is
// also accepted; decoding is best-effort across both shapes.
func NormalizeMeet(body []byte) (*Event, error) {
	var env pubsubEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Message.Data != "" {
		inner, err := base64.StdEncoding.DecodeString(env.Message.Data)
		if err == nil {
			if ev, err := normalizeMeetFlat(inner); err == nil {
				return ev, nil
			}
		}
		// fall through to flat parsing on a malformed wrapper
	}
	return normalizeMeetFlat(body)
}

func normalizeMeetFlat(body []byte) (*Event, error) {
	var p meetPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	if p.Event == "" {
		return nil, fmt.Errorf("%w: missing event field", ErrUndecodable)
	}

	kind, ok := meetKinds[p.Event]
	if !ok {
		kind = KindUnknown
	}
	ev := &Event{
		Kind:       kind,
		Provider:   models.PlatformMeet,
		RawType:    p.Event,
		SessionRef: p.MeetingCode,
		Title:      p.Title,
		StartedAt:  parseTime(p.StartTime),
		EndedAt:    parseTime(p.EndTime),
	}
	if pp := p.Participant; pp != nil {
		ev.Participant = &Participant{
			DisplayName: pp.DisplayName,
			Email:       pp.Email,
			JoinedAt:    parseTime(pp.JoinTime),
			LeftAt:      parseTime(pp.LeaveTime),
		}
	}
	return ev, nil
}

// parseTime parses provider timestamps best-effort; bad or absent values
// return the zero time and callers default to now.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
