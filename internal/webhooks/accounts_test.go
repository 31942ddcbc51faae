package webhooks

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-crm/attendance/internal/models"
)

func TestResolveExplicitParamWins(t *testing.T) {
	accountID := uuid.New()
	other := uuid.New()
	integrations := &fakeIntegrations{
		byProviderAccount: map[string]*models.Integration{
			"zoom-acct-1": {AccountID: other},
		},
	}
	r := NewAccountResolver(integrations, true, nil)

	got, err := r.Resolve(context.Background(), models.PlatformZoom, accountID.String(), "zoom-acct-1")
	require.NoError(t, err)
	assert.Equal(t, accountID, got)
}

func TestResolveInvalidExplicitParam(t *testing.T) {
	r := NewAccountResolver(&fakeIntegrations{}, true, nil)

	_, err := r.Resolve(context.Background(), models.PlatformZoom, "not-a-uuid", "")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestResolveByProviderAccountID(t *testing.T) {
	accountID := uuid.New()
	integrations := &fakeIntegrations{
		byProviderAccount: map[string]*models.Integration{
			"zoom-acct-1": {AccountID: accountID},
		},
	}
	r := NewAccountResolver(integrations, false, nil)

	got, err := r.Resolve(context.Background(), models.PlatformZoom, "", "zoom-acct-1")
	require.NoError(t, err)
	assert.Equal(t, accountID, got)
}

func TestResolveLegacySingleIntegrationFallback(t *testing.T) {
	accountID := uuid.New()
	integrations := &fakeIntegrations{
		single: &models.Integration{AccountID: accountID, Connected: true},
	}

	got, err := NewAccountResolver(integrations, true, nil).Resolve(context.Background(), models.PlatformMeet, "", "")
	require.NoError(t, err)
	assert.Equal(t, accountID, got)

	// Fallback disabled: the same delivery is rejected.
	_, err = NewAccountResolver(integrations, false, nil).Resolve(context.Background(), models.PlatformMeet, "", "")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}
