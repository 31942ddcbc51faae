package webhooks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meridian-crm/attendance/internal/middleware"
	"github.com/meridian-crm/attendance/internal/models"
	"github.com/meridian-crm/attendance/pkg/queue"
	"github.com/meridian-crm/attendance/pkg/utils"
)

// SessionEvents is the session lifecycle surface the handler dispatches to.
type SessionEvents interface {
	HandleStarted(ctx context.Context, accountID uuid.UUID, ev *Event) (*models.LiveSession, error)
	HandleEnded(ctx context.Context, accountID uuid.UUID, ev *Event) error
}

// AttendanceEvents is the attendance tracking surface the handler dispatches to.
type AttendanceEvents interface {
	HandleJoin(ctx context.Context, accountID uuid.UUID, ev *Event) error
	HandleLeave(ctx context.Context, accountID uuid.UUID, ev *Event) error
}

// Archiver stores raw payloads for audit/replay. Best-effort: archive
// failures never fail the webhook.
type Archiver interface {
	EnqueueWebhookArchive(ctx context.Context, payload queue.WebhookArchivePayload) error
}

// Publisher pushes realtime session updates to connected dashboards.
type Publisher interface {
	PublishAccountEvent(accountID uuid.UUID, event string, payload interface{})
}

// Options holds the handler's security toggles.
type Options struct {
	// RequireSignature rejects Zoom calls without a valid request signature.
	RequireSignature bool
	// RequireCapabilityToken enforces the per-account token on the Meet URL.
	RequireCapabilityToken bool
}

// Handler processes provider webhook deliveries: verify, normalize, resolve
// the tenant, then dispatch to the session lifecycle or attendance tracker.
type Handler struct {
	verifier   *Verifier
	accounts   *AccountResolver
	sessions   SessionEvents
	attendance AttendanceEvents
	archiver   Archiver
	publisher  Publisher
	opts       Options
	logger     *zap.Logger
}

// NewHandler creates a webhook handler. archiver and publisher may be nil.
func NewHandler(verifier *Verifier, accounts *AccountResolver, sessions SessionEvents, attendance AttendanceEvents, archiver Archiver, publisher Publisher, opts Options, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		verifier:   verifier,
		accounts:   accounts,
		sessions:   sessions,
		attendance: attendance,
		archiver:   archiver,
		publisher:  publisher,
		opts:       opts,
		logger:     logger,
	}
}

// dispatch routes a normalized event. Resolution misses inside the handlers
// are benign no-ops; only envelope and datastore failures surface as errors.
func (h *Handler) dispatch(ctx context.Context, accountID uuid.UUID, ev *Event) error {
	middleware.CountWebhookEvent(string(ev.Provider), string(ev.Kind))

	switch ev.Kind {
	case KindSessionStarted:
		s, err := h.sessions.HandleStarted(ctx, accountID, ev)
		if err != nil {
			return fmt.Errorf("session started: %w", err)
		}
		if h.publisher != nil {
			h.publisher.PublishAccountEvent(accountID, "session_started", s)
		}
		return nil
	case KindSessionEnded:
		if err := h.sessions.HandleEnded(ctx, accountID, ev); err != nil {
			return fmt.Errorf("session ended: %w", err)
		}
		if h.publisher != nil {
			h.publisher.PublishAccountEvent(accountID, "session_ended", map[string]string{
				"platform":            string(ev.Provider),
				"external_meeting_id": ev.SessionRef,
			})
		}
		return nil
	case KindParticipantJoined:
		if err := h.attendance.HandleJoin(ctx, accountID, ev); err != nil {
			return fmt.Errorf("participant joined: %w", err)
		}
		return nil
	case KindParticipantLeft:
		if err := h.attendance.HandleLeave(ctx, accountID, ev); err != nil {
			return fmt.Errorf("participant left: %w", err)
		}
		return nil
	default:
		h.logger.Debug("unhandled event type, acknowledging",
			zap.String("provider", string(ev.Provider)),
			zap.String("event", ev.RawType))
		return nil
	}
}

// archive enqueues the raw payload for S3 archival, best-effort.
func (h *Handler) archive(ctx context.Context, provider models.Platform, body []byte) {
	if h.archiver == nil {
		return
	}
	if err := h.archiver.EnqueueWebhookArchive(ctx, queue.WebhookArchivePayload{
		Provider:   provider,
		ReceivedAt: time.Now(),
		Body:       body,
	}); err != nil {
		h.logger.Warn("webhook archive enqueue failed", zap.Error(err))
	}
}

// checkCapabilityToken validates the Meet URL token for the account.
func (h *Handler) checkCapabilityToken(ctx context.Context, accountID uuid.UUID, token string) error {
	return h.accounts.CheckCapabilityToken(ctx, accountID, models.PlatformMeet, token, utils.CheckToken)
}
