package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-crm/attendance/internal/models"
)

// Repository handles live_sessions persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a live sessions repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const sessionColumns = `id, account_id, platform, external_meeting_id, title, started_at, ended_at, created_at, updated_at`

func scanSession(row pgx.Row) (*models.LiveSession, error) {
	var s models.LiveSession
	err := row.Scan(&s.ID, &s.AccountID, &s.Platform, &s.ExternalMeetingID, &s.Title, &s.StartedAt, &s.EndedAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// Upsert creates a session keyed by (account_id, platform, external_meeting_id).
// Redelivered start events hit the unique constraint and update the title
// only, keeping the first start time; concurrent creates resolve to one row.
func (r *Repository) Upsert(ctx context.Context, s *models.LiveSession) error {
	const q = `INSERT INTO live_sessions (id, account_id, platform, external_meeting_id, title, started_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		ON CONFLICT (account_id, platform, external_meeting_id)
		DO UPDATE SET title = EXCLUDED.title, updated_at = NOW()
		RETURNING ` + sessionColumns
	row := r.pool.QueryRow(ctx, q, s.AccountID, s.Platform, s.ExternalMeetingID, s.Title, s.StartedAt)
	return row.Scan(&s.ID, &s.AccountID, &s.Platform, &s.ExternalMeetingID, &s.Title, &s.StartedAt, &s.EndedAt, &s.CreatedAt, &s.UpdatedAt)
}

// End sets ended_at on the open session for this meeting. Returns false when
// no open session exists (the end event is then a no-op for the caller).
func (r *Repository) End(ctx context.Context, accountID uuid.UUID, platform models.Platform, externalMeetingID string, endedAt time.Time) (bool, error) {
	const q = `UPDATE live_sessions SET ended_at = $4, updated_at = NOW()
		WHERE account_id = $1 AND platform = $2 AND external_meeting_id = $3 AND ended_at IS NULL`
	tag, err := r.pool.Exec(ctx, q, accountID, platform, externalMeetingID, endedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// GetByExternal returns the session for a provider meeting id, or nil.
func (r *Repository) GetByExternal(ctx context.Context, accountID uuid.UUID, platform models.Platform, externalMeetingID string) (*models.LiveSession, error) {
	const q = `SELECT ` + sessionColumns + ` FROM live_sessions
		WHERE account_id = $1 AND platform = $2 AND external_meeting_id = $3`
	return scanSession(r.pool.QueryRow(ctx, q, accountID, platform, externalMeetingID))
}

// GetByID returns a session by ID, or nil.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.LiveSession, error) {
	const q = `SELECT ` + sessionColumns + ` FROM live_sessions WHERE id = $1`
	return scanSession(r.pool.QueryRow(ctx, q, id))
}

// ListByAccount returns the account's sessions, most recent first.
func (r *Repository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]models.LiveSession, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM live_sessions WHERE account_id = $1 ORDER BY started_at DESC LIMIT $2`,
		accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.LiveSession
	for rows.Next() {
		var s models.LiveSession
		if err := rows.Scan(&s.ID, &s.AccountID, &s.Platform, &s.ExternalMeetingID, &s.Title, &s.StartedAt, &s.EndedAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
