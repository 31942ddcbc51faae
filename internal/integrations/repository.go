package integrations

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-crm/attendance/internal/models"
)

// ErrAmbiguous is returned by the legacy single-integration lookup when more
// than one connected integration of the platform exists.
var ErrAmbiguous = errors.New("multiple connected integrations for platform")

// Repository reads connected video-conferencing integrations.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an integrations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const columns = `id, account_id, platform, provider_account_id, signing_secret, webhook_token_hash, connected, created_at, updated_at`

func scan(row pgx.Row) (*models.Integration, error) {
	var in models.Integration
	err := row.Scan(&in.ID, &in.AccountID, &in.Platform, &in.ProviderAccountID, &in.SigningSecret, &in.WebhookTokenHash, &in.Connected, &in.CreatedAt, &in.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &in, nil
}

// GetByProviderAccount returns the connected integration for a provider-side
// account id, or nil if none is connected.
func (r *Repository) GetByProviderAccount(ctx context.Context, platform models.Platform, providerAccountID string) (*models.Integration, error) {
	const q = `SELECT ` + columns + ` FROM integrations
		WHERE platform = $1 AND provider_account_id = $2 AND connected LIMIT 1`
	return scan(r.pool.QueryRow(ctx, q, platform, providerAccountID))
}

// GetByAccountAndPlatform returns the account's integration for a platform.
func (r *Repository) GetByAccountAndPlatform(ctx context.Context, accountID uuid.UUID, platform models.Platform) (*models.Integration, error) {
	const q = `SELECT ` + columns + ` FROM integrations
		WHERE account_id = $1 AND platform = $2 LIMIT 1`
	return scan(r.pool.QueryRow(ctx, q, accountID, platform))
}

// GetSingleConnected returns the one connected integration of the platform.
// Legacy account-resolution fallback: nil when none exist, ErrAmbiguous when
// more than one does.
func (r *Repository) GetSingleConnected(ctx context.Context, platform models.Platform) (*models.Integration, error) {
	const q = `SELECT ` + columns + ` FROM integrations WHERE platform = $1 AND connected LIMIT 2`
	rows, err := r.pool.Query(ctx, q, platform)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var found []*models.Integration
	for rows.Next() {
		in, err := scan(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, in)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return found[0], nil
	default:
		return nil, ErrAmbiguous
	}
}
