package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meridian-crm/attendance/internal/models"
	"github.com/meridian-crm/attendance/internal/webhooks"
)

// Store is the persistence surface the lifecycle manager needs.
type Store interface {
	Upsert(ctx context.Context, s *models.LiveSession) error
	End(ctx context.Context, accountID uuid.UUID, platform models.Platform, externalMeetingID string, endedAt time.Time) (bool, error)
}

// Manager drives the session lifecycle: a start event creates the session,
// an end event closes it. An end event with no matching session is a logged
// no-op, not an error (providers deliver out of order and retry).
type Manager struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewManager creates a session lifecycle manager.
func NewManager(store Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, logger: logger, now: time.Now}
}

// HandleStarted creates (or idempotently re-confirms) the session.
func (m *Manager) HandleStarted(ctx context.Context, accountID uuid.UUID, ev *webhooks.Event) (*models.LiveSession, error) {
	startedAt := ev.StartedAt
	if startedAt.IsZero() {
		startedAt = m.now()
	}
	s := &models.LiveSession{
		AccountID:         accountID,
		Platform:          ev.Provider,
		ExternalMeetingID: ev.SessionRef,
		Title:             ev.Title,
		StartedAt:         startedAt,
	}
	if err := m.store.Upsert(ctx, s); err != nil {
		return nil, err
	}
	m.logger.Info("live session started",
		zap.String("session_id", s.ID.String()),
		zap.String("platform", string(s.Platform)),
		zap.String("external_meeting_id", s.ExternalMeetingID))
	return s, nil
}

// HandleEnded closes the session for this meeting, if one is open.
func (m *Manager) HandleEnded(ctx context.Context, accountID uuid.UUID, ev *webhooks.Event) error {
	endedAt := ev.EndedAt
	if endedAt.IsZero() {
		endedAt = m.now()
	}
	closed, err := m.store.End(ctx, accountID, ev.Provider, ev.SessionRef, endedAt)
	if err != nil {
		return err
	}
	if !closed {
		m.logger.Info("end event for unknown or already closed session, ignoring",
			zap.String("platform", string(ev.Provider)),
			zap.String("external_meeting_id", ev.SessionRef))
		return nil
	}
	m.logger.Info("live session ended",
		zap.String("platform", string(ev.Provider)),
		zap.String("external_meeting_id", ev.SessionRef))
	return nil
}
