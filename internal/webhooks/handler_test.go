package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-crm/attendance/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeIntegrations struct {
	byProviderAccount map[string]*models.Integration
	single            *models.Integration
}

func (f *fakeIntegrations) GetByProviderAccount(_ context.Context, _ models.Platform, providerAccountID string) (*models.Integration, error) {
	return f.byProviderAccount[providerAccountID], nil
}

func (f *fakeIntegrations) GetByAccountAndPlatform(_ context.Context, _ uuid.UUID, _ models.Platform) (*models.Integration, error) {
	return nil, nil
}

func (f *fakeIntegrations) GetSingleConnected(_ context.Context, _ models.Platform) (*models.Integration, error) {
	return f.single, nil
}

type fakeSessionEvents struct {
	started []*Event
	ended   []*Event
}

func (f *fakeSessionEvents) HandleStarted(_ context.Context, accountID uuid.UUID, ev *Event) (*models.LiveSession, error) {
	f.started = append(f.started, ev)
	return &models.LiveSession{ID: uuid.New(), AccountID: accountID}, nil
}

func (f *fakeSessionEvents) HandleEnded(_ context.Context, _ uuid.UUID, ev *Event) error {
	f.ended = append(f.ended, ev)
	return nil
}

type fakeAttendanceEvents struct {
	joins  []*Event
	leaves []*Event
}

func (f *fakeAttendanceEvents) HandleJoin(_ context.Context, _ uuid.UUID, ev *Event) error {
	f.joins = append(f.joins, ev)
	return nil
}

func (f *fakeAttendanceEvents) HandleLeave(_ context.Context, _ uuid.UUID, ev *Event) error {
	f.leaves = append(f.leaves, ev)
	return nil
}

func newTestHandler(secret string, integrations IntegrationSource, sessions SessionEvents, attendance AttendanceEvents, opts Options) *Handler {
	resolver := NewAccountResolver(integrations, false, nil)
	return NewHandler(NewVerifier(secret), resolver, sessions, attendance, nil, nil, opts, nil)
}

func post(h gin.HandlerFunc, path string, body []byte) *httptest.ResponseRecorder {
	router := gin.New()
	router.POST("/webhooks/zoom", h)
	router.POST("/webhooks/meet", h)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	router.ServeHTTP(w, req)
	return w
}

func TestHandleZoomURLValidation(t *testing.T) {
	h := newTestHandler("secret-token", &fakeIntegrations{}, nil, nil, Options{})

	w := post(h.HandleZoom, "/webhooks/zoom", []byte(`{"event":"endpoint.url_validation","payload":{"plainToken":"abc123"}}`))
	require.Equal(t, http.StatusOK, w.Code)

	var resp ChallengeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "abc123", resp.PlainToken)
	assert.Equal(t, NewVerifier("secret-token").Challenge("abc123").EncryptedToken, resp.EncryptedToken)
}

func TestHandleZoomURLValidationWithoutSecret(t *testing.T) {
	h := newTestHandler("", &fakeIntegrations{}, nil, nil, Options{})

	w := post(h.HandleZoom, "/webhooks/zoom", []byte(`{"event":"endpoint.url_validation","payload":{"plainToken":"abc123"}}`))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandleZoomInvalidPayload(t *testing.T) {
	h := newTestHandler("", &fakeIntegrations{}, nil, nil, Options{})

	w := post(h.HandleZoom, "/webhooks/zoom", []byte(`not json`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleZoomResolvesAccountByProviderID(t *testing.T) {
	accountID := uuid.New()
	integrations := &fakeIntegrations{
		byProviderAccount: map[string]*models.Integration{
			"zoom-acct-1": {AccountID: accountID, Platform: models.PlatformZoom, Connected: true},
		},
	}
	sessions := &fakeSessionEvents{}
	h := newTestHandler("", integrations, sessions, &fakeAttendanceEvents{}, Options{})

	body := []byte(`{"event":"meeting.started","payload":{"account_id":"zoom-acct-1","object":{"id":"987","topic":"Call"}}}`)
	w := post(h.HandleZoom, "/webhooks/zoom", body)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, sessions.started, 1)
	assert.Equal(t, "987", sessions.started[0].SessionRef)
}

func TestHandleZoomUnresolvableAccount(t *testing.T) {
	h := newTestHandler("", &fakeIntegrations{}, &fakeSessionEvents{}, &fakeAttendanceEvents{}, Options{})

	body := []byte(`{"event":"meeting.started","payload":{"account_id":"nobody","object":{"id":"987"}}}`)
	w := post(h.HandleZoom, "/webhooks/zoom", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleZoomRequireSignatureRejectsUnsigned(t *testing.T) {
	accountID := uuid.New()
	integrations := &fakeIntegrations{
		byProviderAccount: map[string]*models.Integration{
			"zoom-acct-1": {AccountID: accountID, Platform: models.PlatformZoom, Connected: true},
		},
	}
	h := newTestHandler("secret-token", integrations, &fakeSessionEvents{}, &fakeAttendanceEvents{}, Options{RequireSignature: true})

	body := []byte(`{"event":"meeting.started","payload":{"account_id":"zoom-acct-1","object":{"id":"987"}}}`)
	w := post(h.HandleZoom, "/webhooks/zoom", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandleMeetExplicitAccountParam(t *testing.T) {
	accountID := uuid.New()
	attendance := &fakeAttendanceEvents{}
	h := newTestHandler("", &fakeIntegrations{}, &fakeSessionEvents{}, attendance, Options{})

	body := []byte(`{"event":"participant.joined","meeting_code":"abc","participant":{"display_name":"Maria"}}`)
	w := post(h.HandleMeet, "/webhooks/meet?account_id="+accountID.String(), body)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, attendance.joins, 1)
	assert.Equal(t, "abc", attendance.joins[0].SessionRef)
}

func TestHandleMeetUnresolvableAccount(t *testing.T) {
	h := newTestHandler("", &fakeIntegrations{}, &fakeSessionEvents{}, &fakeAttendanceEvents{}, Options{})

	body := []byte(`{"event":"participant.joined","meeting_code":"abc"}`)
	w := post(h.HandleMeet, "/webhooks/meet", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleZoomUnknownEventAcknowledged(t *testing.T) {
	accountID := uuid.New()
	integrations := &fakeIntegrations{
		byProviderAccount: map[string]*models.Integration{
			"zoom-acct-1": {AccountID: accountID, Platform: models.PlatformZoom, Connected: true},
		},
	}
	sessions := &fakeSessionEvents{}
	attendance := &fakeAttendanceEvents{}
	h := newTestHandler("", integrations, sessions, attendance, Options{})

	body := []byte(`{"event":"recording.completed","payload":{"account_id":"zoom-acct-1","object":{"id":"987"}}}`)
	w := post(h.HandleZoom, "/webhooks/zoom", body)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sessions.started)
	assert.Empty(t, attendance.joins)
}
