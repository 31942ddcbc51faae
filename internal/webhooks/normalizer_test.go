package webhooks

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-crm/attendance/internal/models"
)

func TestNormalizeZoomMeetingStarted(t *testing.T) {
	body := []byte(`{
		"event": "meeting.started",
		"payload": {
			"account_id": "zoom-acct-1",
			"object": {
				"id": "987654321",
				"topic": "Weekly Coaching Call",
				"start_time": "2026-03-01T18:00:00Z"
			}
		}
	}`)

	ev, err := NormalizeZoom(body)
	require.NoError(t, err)
	assert.Equal(t, KindSessionStarted, ev.Kind)
	assert.Equal(t, models.PlatformZoom, ev.Provider)
	assert.Equal(t, "meeting.started", ev.RawType)
	assert.Equal(t, "987654321", ev.SessionRef)
	assert.Equal(t, "Weekly Coaching Call", ev.Title)
	assert.Equal(t, "zoom-acct-1", ev.ProviderAccountID)
	assert.Equal(t, time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC), ev.StartedAt)
	assert.Nil(t, ev.Participant)
}

func TestNormalizeZoomParticipantJoined(t *testing.T) {
	body := []byte(`{
		"event": "meeting.participant_joined",
		"payload": {
			"account_id": "zoom-acct-1",
			"object": {
				"id": "987654321",
				"participant": {
					"user_name": "Maria Lopez",
					"email": "maria@example.com",
					"join_time": "2026-03-01T18:01:30Z"
				}
			}
		}
	}`)

	ev, err := NormalizeZoom(body)
	require.NoError(t, err)
	assert.Equal(t, KindParticipantJoined, ev.Kind)
	require.NotNil(t, ev.Participant)
	assert.Equal(t, "Maria Lopez", ev.Participant.DisplayName)
	assert.Equal(t, "maria@example.com", ev.Participant.Email)
	assert.Equal(t, time.Date(2026, 3, 1, 18, 1, 30, 0, time.UTC), ev.Participant.JoinedAt)
}

func TestNormalizeZoomURLValidation(t *testing.T) {
	body := []byte(`{"event":"endpoint.url_validation","payload":{"plainToken":"abc123"}}`)

	ev, err := NormalizeZoom(body)
	require.NoError(t, err)
	assert.Equal(t, KindURLValidation, ev.Kind)
	assert.Equal(t, "abc123", ev.PlainToken)
}

func TestNormalizeZoomUnknownEventKept(t *testing.T) {
	body := []byte(`{"event":"recording.completed","payload":{"object":{"id":"1"}}}`)

	ev, err := NormalizeZoom(body)
	require.NoError(t, err)
	assert.Equal(t, KindUnknown, ev.Kind)
	assert.Equal(t, "recording.completed", ev.RawType)
}

func TestNormalizeZoomRejectsMissingEvent(t *testing.T) {
	_, err := NormalizeZoom([]byte(`{"payload":{}}`))
	assert.ErrorIs(t, err, ErrUndecodable)

	_, err = NormalizeZoom([]byte(`not json`))
	assert.ErrorIs(t, err, ErrUndecodable)
}

func TestNormalizeZoomBadTimestampFallsBackToZero(t *testing.T) {
	body := []byte(`{"event":"meeting.started","payload":{"object":{"id":"1","start_time":"yesterday"}}}`)

	ev, err := NormalizeZoom(body)
	require.NoError(t, err)
	assert.True(t, ev.StartedAt.IsZero())
}

func TestNormalizeMeetPubSubEnvelope(t *testing.T) {
	inner := []byte(`{
		"event": "participant.joined",
		"meeting_code": "abc-defg-hij",
		"participant": {
			"display_name": "Maria Lopez",
			"email": "maria@example.com",
			"join_time": "2026-03-01T18:01:30Z"
		}
	}`)
	body := []byte(`{"message":{"data":"` + base64.StdEncoding.EncodeToString(inner) + `","messageId":"m1"}}`)

	ev, err := NormalizeMeet(body)
	require.NoError(t, err)
	assert.Equal(t, KindParticipantJoined, ev.Kind)
	assert.Equal(t, models.PlatformMeet, ev.Provider)
	assert.Equal(t, "abc-defg-hij", ev.SessionRef)
	require.NotNil(t, ev.Participant)
	assert.Equal(t, "Maria Lopez", ev.Participant.DisplayName)
}

func TestNormalizeMeetFlatJSON(t *testing.T) {
	body := []byte(`{"event":"conference.started","meeting_code":"abc-defg-hij","title":"Q&A","start_time":"2026-03-01T18:00:00Z"}`)

	ev, err := NormalizeMeet(body)
	require.NoError(t, err)
	assert.Equal(t, KindSessionStarted, ev.Kind)
	assert.Equal(t, "Q&A", ev.Title)
}

func TestNormalizeMeetMalformedWrapperFallsBackToFlat(t *testing.T) {
	// message.data present but not valid base64 JSON; body itself is flat.
	body := []byte(`{"message":{"data":"%%%"},"event":"conference.ended","meeting_code":"abc"}`)

	ev, err := NormalizeMeet(body)
	require.NoError(t, err)
	assert.Equal(t, KindSessionEnded, ev.Kind)
}

func TestNormalizeMeetRejectsGarbage(t *testing.T) {
	_, err := NormalizeMeet([]byte(`not json`))
	assert.ErrorIs(t, err, ErrUndecodable)

	_, err = NormalizeMeet([]byte(`{"meeting_code":"abc"}`))
	assert.ErrorIs(t, err, ErrUndecodable)
}
