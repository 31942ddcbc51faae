package delivery

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-crm/attendance/internal/models"
)

// Repository handles delivery_records persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a delivery records repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert writes a delivery confirmation, unique per (client_id, event_id).
// A redelivered confirmation updates the existing row rather than creating a
// duplicate, so reconciliation is idempotent under webhook retries.
func (r *Repository) Upsert(ctx context.Context, d *models.DeliveryRecord) error {
	const q = `INSERT INTO delivery_records (id, account_id, client_id, event_id, status, delivered_at, delivery_method, notes)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (client_id, event_id) DO UPDATE SET
			status = EXCLUDED.status,
			delivered_at = EXCLUDED.delivered_at,
			delivery_method = EXCLUDED.delivery_method,
			notes = EXCLUDED.notes,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, d.AccountID, d.ClientID, d.EventID, d.Status, d.DeliveredAt, d.DeliveryMethod, d.Notes).
		Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
}

// ListByAccount returns the account's delivery records, most recent first.
func (r *Repository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]models.DeliveryRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, account_id, client_id, event_id, status, delivered_at, delivery_method, notes, created_at, updated_at
		 FROM delivery_records WHERE account_id = $1 ORDER BY delivered_at DESC LIMIT $2`,
		accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.DeliveryRecord
	for rows.Next() {
		var d models.DeliveryRecord
		if err := rows.Scan(&d.ID, &d.AccountID, &d.ClientID, &d.EventID, &d.Status, &d.DeliveredAt, &d.DeliveryMethod, &d.Notes, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}
