package identity

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-crm/attendance/internal/models"
)

type fakeDirectory struct {
	byEmail    map[string]*models.Client
	byExact    map[string]*models.Client
	byContains map[string]*models.Client
	byPrefix   map[string]*models.Client

	prefixCalls []string
}

func (d *fakeDirectory) FindByEmail(_ context.Context, _ uuid.UUID, email string) (*models.Client, error) {
	return d.byEmail[email], nil
}

func (d *fakeDirectory) FindByExactName(_ context.Context, _ uuid.UUID, name string) (*models.Client, error) {
	return d.byExact[name], nil
}

func (d *fakeDirectory) FindByNameContains(_ context.Context, _ uuid.UUID, fragment string) (*models.Client, error) {
	return d.byContains[fragment], nil
}

func (d *fakeDirectory) FindByNamePrefix(_ context.Context, _ uuid.UUID, prefix string) (*models.Client, error) {
	d.prefixCalls = append(d.prefixCalls, prefix)
	return d.byPrefix[prefix], nil
}

func client() *models.Client {
	return &models.Client{ID: uuid.New()}
}

func TestResolveEmailWinsOverName(t *testing.T) {
	emailHit := client()
	nameHit := client()
	dir := &fakeDirectory{
		byEmail: map[string]*models.Client{"maria@example.com": emailHit},
		byExact: map[string]*models.Client{"Maria Lopez": nameHit},
	}
	r := NewResolver(dir, nil)

	m, err := r.Resolve(context.Background(), uuid.New(), "Maria Lopez", "maria@example.com")
	require.NoError(t, err)
	assert.Equal(t, emailHit.ID, m.ClientID)
	assert.Equal(t, StrategyEmail, m.Strategy)
	assert.Equal(t, 1.0, m.Confidence)
}

func TestResolveEmailNormalized(t *testing.T) {
	hit := client()
	dir := &fakeDirectory{
		byEmail: map[string]*models.Client{"maria@example.com": hit},
	}
	r := NewResolver(dir, nil)

	m, err := r.Resolve(context.Background(), uuid.New(), "", "  Maria@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, hit.ID, m.ClientID)
}

func TestResolveNameExact(t *testing.T) {
	hit := client()
	dir := &fakeDirectory{
		byExact: map[string]*models.Client{"Maria Lopez": hit},
	}
	r := NewResolver(dir, nil)

	m, err := r.Resolve(context.Background(), uuid.New(), "Maria Lopez", "")
	require.NoError(t, err)
	assert.Equal(t, StrategyNameExact, m.Strategy)
	assert.Equal(t, 0.9, m.Confidence)
}

func TestResolveNameContains(t *testing.T) {
	hit := client()
	dir := &fakeDirectory{
		byContains: map[string]*models.Client{"Maria": hit},
	}
	r := NewResolver(dir, nil)

	m, err := r.Resolve(context.Background(), uuid.New(), "Maria", "")
	require.NoError(t, err)
	assert.Equal(t, StrategyNameContains, m.Strategy)
	assert.Equal(t, 0.6, m.Confidence)
}

func TestResolveFirstTokenPrefix(t *testing.T) {
	hit := client()
	dir := &fakeDirectory{
		byPrefix: map[string]*models.Client{"Maria": hit},
	}
	r := NewResolver(dir, nil)

	m, err := r.Resolve(context.Background(), uuid.New(), "Maria (Acme Corp)", "")
	require.NoError(t, err)
	assert.Equal(t, StrategyNamePrefix, m.Strategy)
	assert.Equal(t, 0.5, m.Confidence)
	assert.Equal(t, []string{"Maria"}, dir.prefixCalls)
}

func TestResolveShortFirstTokenSkipsPrefix(t *testing.T) {
	dir := &fakeDirectory{
		byPrefix: map[string]*models.Client{"Al": client()},
	}
	r := NewResolver(dir, nil)

	_, err := r.Resolve(context.Background(), uuid.New(), "Al B", "")
	assert.ErrorIs(t, err, ErrNoMatch)
	assert.Empty(t, dir.prefixCalls)
}

func TestResolveNoSignal(t *testing.T) {
	r := NewResolver(&fakeDirectory{}, nil)

	_, err := r.Resolve(context.Background(), uuid.New(), "  ", "")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestResolveNoMatch(t *testing.T) {
	r := NewResolver(&fakeDirectory{}, nil)

	_, err := r.Resolve(context.Background(), uuid.New(), "Nobody Known", "ghost@example.com")
	assert.ErrorIs(t, err, ErrNoMatch)
}
