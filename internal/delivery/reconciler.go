package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meridian-crm/attendance/internal/models"
)

// DefaultWindow is the half-width of the symmetric event matching band:
// attendance confirms delivery of live events scheduled within ±2 hours.
const DefaultWindow = 2 * time.Hour

// ProductSource exposes a client's subscribed products.
type ProductSource interface {
	GetProductIDs(ctx context.Context, clientID uuid.UUID) ([]uuid.UUID, error)
}

// EventSource finds live events inside the reconciliation window.
type EventSource interface {
	FindLiveInWindow(ctx context.Context, accountID uuid.UUID, from, to time.Time, productIDs []uuid.UUID) ([]models.ScheduledEvent, error)
}

// Store writes delivery confirmations.
type Store interface {
	Upsert(ctx context.Context, d *models.DeliveryRecord) error
}

// Publisher pushes realtime delivery updates to connected dashboards.
type Publisher interface {
	PublishAccountEvent(accountID uuid.UUID, event string, payload interface{})
}

// Reconciler turns fresh live attendance into delivery confirmations for the
// client's eligible scheduled events. One event's write failure is logged and
// skipped; the remaining matches are still reconciled.
type Reconciler struct {
	products  ProductSource
	events    EventSource
	store     Store
	window    time.Duration
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewReconciler creates a delivery reconciler. A non-positive window falls
// back to DefaultWindow.
func NewReconciler(products ProductSource, events EventSource, store Store, window time.Duration, logger *zap.Logger) *Reconciler {
	if window <= 0 {
		window = DefaultWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		products: products,
		events:   events,
		store:    store,
		window:   window,
		logger:   logger,
		now:      time.Now,
	}
}

// SetPublisher attaches the realtime feed. Optional; nil means no broadcasts.
func (r *Reconciler) SetPublisher(p Publisher) {
	r.publisher = p
}

// Reconcile confirms delivery of nearby live events for the attending client.
// Called only after a successful join-event attendance insert.
func (r *Reconciler) Reconcile(ctx context.Context, accountID, clientID uuid.UUID, sessionTitle string) error {
	productIDs, err := r.products.GetProductIDs(ctx, clientID)
	if err != nil {
		return fmt.Errorf("fetch client products: %w", err)
	}
	if len(productIDs) == 0 {
		return nil
	}

	now := r.now()
	events, err := r.events.FindLiveInWindow(ctx, accountID, now.Add(-r.window), now.Add(r.window), productIDs)
	if err != nil {
		return fmt.Errorf("query scheduled events: %w", err)
	}

	for _, ev := range events {
		d := &models.DeliveryRecord{
			AccountID:      accountID,
			ClientID:       clientID,
			EventID:        ev.ID,
			Status:         models.DeliveryStatusDelivered,
			DeliveredAt:    now,
			DeliveryMethod: models.MethodAutoAttendance,
			Notes:          fmt.Sprintf("Attended live session %q", sessionTitle),
		}
		if err := r.store.Upsert(ctx, d); err != nil {
			r.logger.Error("delivery upsert failed, continuing with remaining events",
				zap.Error(err),
				zap.String("client_id", clientID.String()),
				zap.String("event_id", ev.ID.String()))
			continue
		}
		r.logger.Info("delivery confirmed from attendance",
			zap.String("client_id", clientID.String()),
			zap.String("event_id", ev.ID.String()))
		if r.publisher != nil {
			r.publisher.PublishAccountEvent(accountID, "delivery_confirmed", d)
		}
	}
	return nil
}
