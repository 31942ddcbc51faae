package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meridian-crm/attendance/internal/identity"
	"github.com/meridian-crm/attendance/internal/models"
	"github.com/meridian-crm/attendance/internal/webhooks"
	"github.com/meridian-crm/attendance/pkg/queue"
)

// Store is the persistence surface the tracker needs.
type Store interface {
	InsertOpen(ctx context.Context, rec *models.AttendanceRecord) (bool, error)
	GetOpen(ctx context.Context, liveSessionID, clientID uuid.UUID) (*models.AttendanceRecord, error)
	Close(ctx context.Context, id uuid.UUID, leftAt time.Time, durationSec int64) error
}

// SessionSource locates the live session a participant event belongs to.
type SessionSource interface {
	GetByExternal(ctx context.Context, accountID uuid.UUID, platform models.Platform, externalMeetingID string) (*models.LiveSession, error)
}

// Resolver maps participant signals to client records.
type Resolver interface {
	Resolve(ctx context.Context, accountID uuid.UUID, displayName, email string) (*identity.Match, error)
}

// Reconciler confirms deliveries after a fresh attendance insert.
type Reconciler interface {
	Reconcile(ctx context.Context, accountID, clientID uuid.UUID, sessionTitle string) error
}

// JobEnqueuer publishes the score-recompute side effect. Failures are logged
// and never fail the webhook: the queue gives the effect at-least-once
// semantics once accepted, and a drop here only delays the next recompute.
type JobEnqueuer interface {
	EnqueueScoreRecompute(ctx context.Context, payload queue.ScoreRecomputePayload) error
}

// Publisher pushes realtime attendance updates to connected dashboards.
type Publisher interface {
	PublishAccountEvent(accountID uuid.UUID, event string, payload interface{})
}

// Tracker turns participant join/leave events into attendance records.
// Events that cannot be tied to a session or a known client are dropped
// after logging; nothing is fabricated for unknown participants.
type Tracker struct {
	store      Store
	sessions   SessionSource
	resolver   Resolver
	reconciler Reconciler
	jobs       JobEnqueuer
	publisher  Publisher
	logger     *zap.Logger
	now        func() time.Time
}

// NewTracker creates an attendance tracker. jobs and publisher may be nil.
func NewTracker(store Store, sessions SessionSource, resolver Resolver, reconciler Reconciler, jobs JobEnqueuer, publisher Publisher, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		store:      store,
		sessions:   sessions,
		resolver:   resolver,
		reconciler: reconciler,
		jobs:       jobs,
		publisher:  publisher,
		logger:     logger,
		now:        time.Now,
	}
}

// HandleJoin records a participant joining a live session and, on a fresh
// insert, triggers delivery reconciliation and the async side effects.
func (t *Tracker) HandleJoin(ctx context.Context, accountID uuid.UUID, ev *webhooks.Event) error {
	session, err := t.sessions.GetByExternal(ctx, accountID, ev.Provider, ev.SessionRef)
	if err != nil {
		return err
	}
	if session == nil {
		t.logger.Info("join event for unknown session, ignoring",
			zap.String("external_meeting_id", ev.SessionRef))
		return nil
	}
	if ev.Participant == nil {
		t.logger.Warn("join event without participant payload, ignoring",
			zap.String("session_id", session.ID.String()))
		return nil
	}

	match, err := t.resolver.Resolve(ctx, accountID, ev.Participant.DisplayName, ev.Participant.Email)
	if err != nil {
		if errors.Is(err, identity.ErrNoMatch) {
			t.logger.Info("participant did not resolve to a client, dropping join",
				zap.String("display_name", ev.Participant.DisplayName),
				zap.String("session_id", session.ID.String()))
			return nil
		}
		return err
	}

	joinedAt := ev.Participant.JoinedAt
	if joinedAt.IsZero() {
		joinedAt = t.now()
	}
	delaySec := int64(joinedAt.Sub(session.StartedAt) / time.Second)
	if delaySec < 0 {
		delaySec = 0
	}

	rec := &models.AttendanceRecord{
		AccountID:     accountID,
		LiveSessionID: session.ID,
		ClientID:      match.ClientID,
		JoinedAt:      joinedAt,
		JoinDelaySec:  delaySec,
	}
	inserted, err := t.store.InsertOpen(ctx, rec)
	if err != nil {
		return err
	}
	if !inserted {
		t.logger.Info("duplicate join delivery, open attendance already exists",
			zap.String("session_id", session.ID.String()),
			zap.String("client_id", match.ClientID.String()))
		return nil
	}

	t.logger.Info("attendance recorded",
		zap.String("session_id", session.ID.String()),
		zap.String("client_id", match.ClientID.String()),
		zap.String("match_strategy", string(match.Strategy)),
		zap.Int64("join_delay_sec", delaySec))

	if err := t.reconciler.Reconcile(ctx, accountID, match.ClientID, session.Title); err != nil {
		t.logger.Error("delivery reconciliation failed", zap.Error(err),
			zap.String("client_id", match.ClientID.String()))
	}
	if t.jobs != nil {
		if err := t.jobs.EnqueueScoreRecompute(ctx, queue.ScoreRecomputePayload{
			AccountID: accountID,
			ClientID:  match.ClientID,
		}); err != nil {
			t.logger.Error("enqueue score recompute failed", zap.Error(err))
		}
	}
	if t.publisher != nil {
		t.publisher.PublishAccountEvent(accountID, "attendance_recorded", rec)
	}
	return nil
}

// HandleLeave closes the client's open attendance record. A leave without a
// matching open record is dropped.
func (t *Tracker) HandleLeave(ctx context.Context, accountID uuid.UUID, ev *webhooks.Event) error {
	session, err := t.sessions.GetByExternal(ctx, accountID, ev.Provider, ev.SessionRef)
	if err != nil {
		return err
	}
	if session == nil {
		t.logger.Info("leave event for unknown session, ignoring",
			zap.String("external_meeting_id", ev.SessionRef))
		return nil
	}
	if ev.Participant == nil {
		t.logger.Warn("leave event without participant payload, ignoring",
			zap.String("session_id", session.ID.String()))
		return nil
	}

	match, err := t.resolver.Resolve(ctx, accountID, ev.Participant.DisplayName, ev.Participant.Email)
	if err != nil {
		if errors.Is(err, identity.ErrNoMatch) {
			t.logger.Info("participant did not resolve to a client, dropping leave",
				zap.String("display_name", ev.Participant.DisplayName))
			return nil
		}
		return err
	}

	open, err := t.store.GetOpen(ctx, session.ID, match.ClientID)
	if err != nil {
		return err
	}
	if open == nil {
		t.logger.Info("leave event without open attendance, ignoring",
			zap.String("session_id", session.ID.String()),
			zap.String("client_id", match.ClientID.String()))
		return nil
	}

	leftAt := ev.Participant.LeftAt
	if leftAt.IsZero() {
		leftAt = t.now()
	}
	durationSec := int64(leftAt.Sub(open.JoinedAt) / time.Second)
	if durationSec < 0 {
		// Provider clocks should make leave >= join; don't trust a negative.
		t.logger.Warn("leave time before join time, clamping duration to zero",
			zap.String("attendance_id", open.ID.String()),
			zap.Time("joined_at", open.JoinedAt),
			zap.Time("left_at", leftAt))
		durationSec = 0
	}

	if err := t.store.Close(ctx, open.ID, leftAt, durationSec); err != nil {
		return err
	}
	t.logger.Info("attendance closed",
		zap.String("attendance_id", open.ID.String()),
		zap.Int64("duration_sec", durationSec))

	if t.publisher != nil {
		t.publisher.PublishAccountEvent(accountID, "attendance_closed", open)
	}
	return nil
}
