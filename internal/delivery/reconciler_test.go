package delivery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-crm/attendance/internal/models"
)

type fakeProducts struct {
	ids []uuid.UUID
}

func (f *fakeProducts) GetProductIDs(_ context.Context, _ uuid.UUID) ([]uuid.UUID, error) {
	return f.ids, nil
}

type fakeEvents struct {
	events []models.ScheduledEvent
	from   time.Time
	to     time.Time
	called bool
}

func (f *fakeEvents) FindLiveInWindow(_ context.Context, _ uuid.UUID, from, to time.Time, _ []uuid.UUID) ([]models.ScheduledEvent, error) {
	f.called = true
	f.from, f.to = from, to
	return f.events, nil
}

type fakeDeliveryStore struct {
	upserts []*models.DeliveryRecord
	failFor uuid.UUID
}

func (f *fakeDeliveryStore) Upsert(_ context.Context, d *models.DeliveryRecord) error {
	if d.EventID == f.failFor {
		return errors.New("write failed")
	}
	f.upserts = append(f.upserts, d)
	return nil
}

type fakePublisher struct {
	events []string
}

func (f *fakePublisher) PublishAccountEvent(_ uuid.UUID, event string, _ interface{}) {
	f.events = append(f.events, event)
}

func TestReconcileConfirmsMatchingEvents(t *testing.T) {
	now := time.Date(2026, 3, 1, 18, 30, 0, 0, time.UTC)
	ev1 := models.ScheduledEvent{ID: uuid.New(), EventType: models.EventTypeLive}
	ev2 := models.ScheduledEvent{ID: uuid.New(), EventType: models.EventTypeLive}
	events := &fakeEvents{events: []models.ScheduledEvent{ev1, ev2}}
	store := &fakeDeliveryStore{}
	r := NewReconciler(&fakeProducts{ids: []uuid.UUID{uuid.New()}}, events, store, 0, nil)
	r.now = func() time.Time { return now }
	pub := &fakePublisher{}
	r.SetPublisher(pub)

	accountID, clientID := uuid.New(), uuid.New()
	err := r.Reconcile(context.Background(), accountID, clientID, "Weekly Coaching Call")
	require.NoError(t, err)

	assert.Equal(t, now.Add(-DefaultWindow), events.from)
	assert.Equal(t, now.Add(DefaultWindow), events.to)

	require.Len(t, store.upserts, 2)
	d := store.upserts[0]
	assert.Equal(t, clientID, d.ClientID)
	assert.Equal(t, ev1.ID, d.EventID)
	assert.Equal(t, models.DeliveryStatusDelivered, d.Status)
	assert.Equal(t, models.MethodAutoAttendance, d.DeliveryMethod)
	assert.Equal(t, now, d.DeliveredAt)
	assert.Equal(t, `Attended live session "Weekly Coaching Call"`, d.Notes)
	assert.Equal(t, []string{"delivery_confirmed", "delivery_confirmed"}, pub.events)
}

func TestReconcileNoProductsShortCircuits(t *testing.T) {
	events := &fakeEvents{}
	r := NewReconciler(&fakeProducts{}, events, &fakeDeliveryStore{}, 0, nil)

	err := r.Reconcile(context.Background(), uuid.New(), uuid.New(), "Call")
	require.NoError(t, err)
	assert.False(t, events.called)
}

func TestReconcileCustomWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	events := &fakeEvents{}
	r := NewReconciler(&fakeProducts{ids: []uuid.UUID{uuid.New()}}, events, &fakeDeliveryStore{}, 30*time.Minute, nil)
	r.now = func() time.Time { return now }

	err := r.Reconcile(context.Background(), uuid.New(), uuid.New(), "Call")
	require.NoError(t, err)
	assert.Equal(t, now.Add(-30*time.Minute), events.from)
	assert.Equal(t, now.Add(30*time.Minute), events.to)
}

func TestReconcileContinuesPastFailedUpsert(t *testing.T) {
	ev1 := models.ScheduledEvent{ID: uuid.New(), EventType: models.EventTypeLive}
	ev2 := models.ScheduledEvent{ID: uuid.New(), EventType: models.EventTypeLive}
	store := &fakeDeliveryStore{failFor: ev1.ID}
	r := NewReconciler(&fakeProducts{ids: []uuid.UUID{uuid.New()}},
		&fakeEvents{events: []models.ScheduledEvent{ev1, ev2}}, store, 0, nil)

	err := r.Reconcile(context.Background(), uuid.New(), uuid.New(), "Call")
	require.NoError(t, err)
	require.Len(t, store.upserts, 1)
	assert.Equal(t, ev2.ID, store.upserts[0].EventID)
}
