package webhooks

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meridian-crm/attendance/internal/integrations"
	"github.com/meridian-crm/attendance/internal/models"
)

// ErrAccountNotFound means no tenant scope could be derived for the request;
// every downstream write requires one, so the whole request is rejected.
var ErrAccountNotFound = errors.New("account not found for webhook")

// IntegrationSource looks up connected integrations for account resolution.
type IntegrationSource interface {
	GetByProviderAccount(ctx context.Context, platform models.Platform, providerAccountID string) (*models.Integration, error)
	GetByAccountAndPlatform(ctx context.Context, accountID uuid.UUID, platform models.Platform) (*models.Integration, error)
	GetSingleConnected(ctx context.Context, platform models.Platform) (*models.Integration, error)
}

// AccountResolver derives the tenant scope of a webhook delivery. Order:
// explicit account_id query parameter, then integration lookup by the
// provider-side account id, then (when enabled) the legacy fallback of the
// single connected integration of the platform.
type AccountResolver struct {
	integrations           IntegrationSource
	allowIntegrationLookup bool
	logger                 *zap.Logger
}

// NewAccountResolver creates an account resolver.
func NewAccountResolver(integrations IntegrationSource, allowIntegrationLookup bool, logger *zap.Logger) *AccountResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountResolver{
		integrations:           integrations,
		allowIntegrationLookup: allowIntegrationLookup,
		logger:                 logger,
	}
}

// Resolve returns the account that owns this delivery.
func (r *AccountResolver) Resolve(ctx context.Context, platform models.Platform, explicitID, providerAccountID string) (uuid.UUID, error) {
	if explicitID != "" {
		id, err := uuid.Parse(explicitID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("%w: invalid account_id %q", ErrAccountNotFound, explicitID)
		}
		return id, nil
	}

	if providerAccountID != "" {
		in, err := r.integrations.GetByProviderAccount(ctx, platform, providerAccountID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("lookup integration: %w", err)
		}
		if in != nil {
			return in.AccountID, nil
		}
	}

	if r.allowIntegrationLookup {
		in, err := r.integrations.GetSingleConnected(ctx, platform)
		if err != nil {
			if errors.Is(err, integrations.ErrAmbiguous) {
				return uuid.Nil, fmt.Errorf("%w: %v", ErrAccountNotFound, err)
			}
			return uuid.Nil, fmt.Errorf("lookup single integration: %w", err)
		}
		if in != nil {
			r.logger.Warn("account resolved via legacy single-integration fallback",
				zap.String("platform", string(platform)),
				zap.String("account_id", in.AccountID.String()))
			return in.AccountID, nil
		}
	}

	return uuid.Nil, ErrAccountNotFound
}

// CheckCapabilityToken validates the per-account token on the webhook URL
// against the integration's stored hash. A missing integration or missing
// stored hash fails closed.
func (r *AccountResolver) CheckCapabilityToken(ctx context.Context, accountID uuid.UUID, platform models.Platform, token string, check func(plain, hashed string) bool) error {
	in, err := r.integrations.GetByAccountAndPlatform(ctx, accountID, platform)
	if err != nil {
		return fmt.Errorf("lookup integration: %w", err)
	}
	if in == nil || in.WebhookTokenHash == "" || token == "" || !check(token, in.WebhookTokenHash) {
		return ErrInvalidSignature
	}
	return nil
}
