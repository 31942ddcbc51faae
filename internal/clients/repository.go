package clients

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-crm/attendance/internal/models"
)

// Repository reads client records and their email/product sets.
// The engine never writes to these tables; the main CRM owns them.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a clients repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const clientColumns = `c.id, c.account_id, c.full_name, c.created_at, c.updated_at`

func scanClient(row pgx.Row) (*models.Client, error) {
	var c models.Client
	err := row.Scan(&c.ID, &c.AccountID, &c.FullName, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// FindByEmail returns the first client whose known-email set contains the
// address (case-normalized exact match), or nil.
func (r *Repository) FindByEmail(ctx context.Context, accountID uuid.UUID, email string) (*models.Client, error) {
	const q = `SELECT ` + clientColumns + ` FROM clients c
		JOIN client_emails e ON e.client_id = c.id
		WHERE c.account_id = $1 AND LOWER(e.email) = LOWER($2)
		ORDER BY c.created_at LIMIT 1`
	return scanClient(r.pool.QueryRow(ctx, q, accountID, email))
}

// FindByExactName returns the first client whose full name equals the given
// name case-insensitively, or nil.
func (r *Repository) FindByExactName(ctx context.Context, accountID uuid.UUID, name string) (*models.Client, error) {
	const q = `SELECT ` + clientColumns + ` FROM clients c
		WHERE c.account_id = $1 AND LOWER(c.full_name) = LOWER($2)
		ORDER BY c.created_at LIMIT 1`
	return scanClient(r.pool.QueryRow(ctx, q, accountID, name))
}

// FindByNameContains returns the first client whose full name contains the
// fragment case-insensitively, or nil.
func (r *Repository) FindByNameContains(ctx context.Context, accountID uuid.UUID, fragment string) (*models.Client, error) {
	const q = `SELECT ` + clientColumns + ` FROM clients c
		WHERE c.account_id = $1 AND c.full_name ILIKE '%' || $2 || '%'
		ORDER BY c.created_at LIMIT 1`
	return scanClient(r.pool.QueryRow(ctx, q, accountID, fragment))
}

// FindByNamePrefix returns the first client whose full name starts with the
// prefix case-insensitively, or nil.
func (r *Repository) FindByNamePrefix(ctx context.Context, accountID uuid.UUID, prefix string) (*models.Client, error) {
	const q = `SELECT ` + clientColumns + ` FROM clients c
		WHERE c.account_id = $1 AND c.full_name ILIKE $2 || '%'
		ORDER BY c.created_at LIMIT 1`
	return scanClient(r.pool.QueryRow(ctx, q, accountID, prefix))
}

// GetProductIDs returns the client's subscribed product set.
func (r *Repository) GetProductIDs(ctx context.Context, clientID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT product_id FROM client_products WHERE client_id = $1`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
