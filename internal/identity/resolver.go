package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meridian-crm/attendance/internal/models"
)

// ErrNoMatch means no client in the account matched the participant signal.
var ErrNoMatch = errors.New("no matching client")

// Strategy names the match strategy that produced a resolution, so callers
// can log and assert on how fuzzy the match was.
type Strategy string

const (
	StrategyEmail        Strategy = "email_exact"
	StrategyNameExact    Strategy = "name_exact"
	StrategyNameContains Strategy = "name_contains"
	StrategyNamePrefix   Strategy = "name_first_token_prefix"
)

// minFirstTokenLen guards the prefix strategy against trivial false
// positives on very short first names ("Al", "Jo").
const minFirstTokenLen = 3

// Match is a successful resolution.
type Match struct {
	ClientID   uuid.UUID
	Strategy   Strategy
	Confidence float64
}

// Directory is the read-only client lookup the resolver runs against.
// Each method returns (nil, nil) on no hit. Ambiguity resolves to the first
// candidate by the directory's ordering; the strategy in the Match records
// that the result may be fuzzy.
type Directory interface {
	FindByEmail(ctx context.Context, accountID uuid.UUID, email string) (*models.Client, error)
	FindByExactName(ctx context.Context, accountID uuid.UUID, name string) (*models.Client, error)
	FindByNameContains(ctx context.Context, accountID uuid.UUID, fragment string) (*models.Client, error)
	FindByNamePrefix(ctx context.Context, accountID uuid.UUID, prefix string) (*models.Client, error)
}

// Resolver maps a webhook participant signal to a known client record using
// an ordered, best-effort strategy chain.
type Resolver struct {
	dir    Directory
	logger *zap.Logger
}

// NewResolver creates an identity resolver.
func NewResolver(dir Directory, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{dir: dir, logger: logger}
}

// Resolve tries each strategy in order and returns the first hit.
// Returns ErrNoMatch when the signal matches nothing.
func (r *Resolver) Resolve(ctx context.Context, accountID uuid.UUID, displayName, email string) (*Match, error) {
	if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
		c, err := r.dir.FindByEmail(ctx, accountID, email)
		if err != nil {
			return nil, err
		}
		if c != nil {
			return &Match{ClientID: c.ID, Strategy: StrategyEmail, Confidence: 1.0}, nil
		}
	}

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, ErrNoMatch
	}

	c, err := r.dir.FindByExactName(ctx, accountID, displayName)
	if err != nil {
		return nil, err
	}
	if c != nil {
		return &Match{ClientID: c.ID, Strategy: StrategyNameExact, Confidence: 0.9}, nil
	}

	c, err = r.dir.FindByNameContains(ctx, accountID, displayName)
	if err != nil {
		return nil, err
	}
	if c != nil {
		return &Match{ClientID: c.ID, Strategy: StrategyNameContains, Confidence: 0.6}, nil
	}

	if token := firstToken(displayName); len(token) >= minFirstTokenLen {
		c, err = r.dir.FindByNamePrefix(ctx, accountID, token)
		if err != nil {
			return nil, err
		}
		if c != nil {
			r.logger.Debug("participant resolved by first-name token",
				zap.String("token", token),
				zap.String("client_id", c.ID.String()))
			return &Match{ClientID: c.ID, Strategy: StrategyNamePrefix, Confidence: 0.5}, nil
		}
	}

	return nil, ErrNoMatch
}

func firstToken(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
