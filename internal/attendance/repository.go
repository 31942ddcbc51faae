package attendance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-crm/attendance/internal/models"
)

// Repository handles attendance_records persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an attendance repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const attendanceColumns = `id, account_id, live_session_id, client_id, joined_at, left_at, join_delay_sec, duration_sec, created_at, updated_at`

// InsertOpen inserts a new open attendance record. Duplicate join deliveries
// hit the partial unique index on (live_session_id, client_id) WHERE left_at
// IS NULL and are dropped; returns false in that case.
func (r *Repository) InsertOpen(ctx context.Context, rec *models.AttendanceRecord) (bool, error) {
	const q = `INSERT INTO attendance_records (id, account_id, live_session_id, client_id, joined_at, join_delay_sec)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		ON CONFLICT (live_session_id, client_id) WHERE left_at IS NULL DO NOTHING
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, rec.AccountID, rec.LiveSessionID, rec.ClientID, rec.JoinedAt, rec.JoinDelaySec).
		Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetOpen returns the most recent open record for (session, client), or nil.
func (r *Repository) GetOpen(ctx context.Context, liveSessionID, clientID uuid.UUID) (*models.AttendanceRecord, error) {
	const q = `SELECT ` + attendanceColumns + ` FROM attendance_records
		WHERE live_session_id = $1 AND client_id = $2 AND left_at IS NULL
		ORDER BY joined_at DESC LIMIT 1`
	var rec models.AttendanceRecord
	err := r.pool.QueryRow(ctx, q, liveSessionID, clientID).
		Scan(&rec.ID, &rec.AccountID, &rec.LiveSessionID, &rec.ClientID, &rec.JoinedAt, &rec.LeftAt, &rec.JoinDelaySec, &rec.DurationSec, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// Close sets left_at and duration_sec on an attendance record.
func (r *Repository) Close(ctx context.Context, id uuid.UUID, leftAt time.Time, durationSec int64) error {
	const q = `UPDATE attendance_records SET left_at = $2, duration_sec = $3, updated_at = NOW()
		WHERE id = $1 AND left_at IS NULL`
	_, err := r.pool.Exec(ctx, q, id, leftAt, durationSec)
	return err
}

// ListBySession returns all attendance records for a session, newest first.
func (r *Repository) ListBySession(ctx context.Context, liveSessionID uuid.UUID) ([]models.AttendanceRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+attendanceColumns+` FROM attendance_records WHERE live_session_id = $1 ORDER BY joined_at DESC`,
		liveSessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.AttendanceRecord
	for rows.Next() {
		var rec models.AttendanceRecord
		if err := rows.Scan(&rec.ID, &rec.AccountID, &rec.LiveSessionID, &rec.ClientID, &rec.JoinedAt, &rec.LeftAt, &rec.JoinDelaySec, &rec.DurationSec, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}
