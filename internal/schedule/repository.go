package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-crm/attendance/internal/models"
)

// Repository reads the account's scheduled content events. Owned by the main
// CRM; this service only queries the reconciliation window.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a scheduled events repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindLiveInWindow returns live events scheduled within [from, to] whose
// eligible product set intersects productIDs.
func (r *Repository) FindLiveInWindow(ctx context.Context, accountID uuid.UUID, from, to time.Time, productIDs []uuid.UUID) ([]models.ScheduledEvent, error) {
	const q = `SELECT DISTINCT s.id, s.account_id, s.event_type, s.title, s.scheduled_at, s.created_at
		FROM scheduled_events s
		JOIN event_products ep ON ep.event_id = s.id
		WHERE s.account_id = $1 AND s.event_type = $2
		  AND s.scheduled_at BETWEEN $3 AND $4
		  AND ep.product_id = ANY($5)
		ORDER BY s.scheduled_at`
	rows, err := r.pool.Query(ctx, q, accountID, models.EventTypeLive, from, to, productIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.ScheduledEvent
	for rows.Next() {
		var e models.ScheduledEvent
		if err := rows.Scan(&e.ID, &e.AccountID, &e.EventType, &e.Title, &e.ScheduledAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}
