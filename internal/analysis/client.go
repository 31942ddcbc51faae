package analysis

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Client calls the message-analysis collaborator. Score heuristics live
// entirely on that side; this service only asks for a recompute after a
// client's attendance changed.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates an analysis service client.
func NewClient(baseURL, apiKey string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

// Configured reports whether a base URL is set.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// RecomputeScore asks the analysis service to refresh a client's engagement
// score.
func (c *Client) RecomputeScore(ctx context.Context, accountID, clientID uuid.UUID) error {
	url := fmt.Sprintf("%s/internal/accounts/%s/clients/%s/score-recompute", c.baseURL, accountID, clientID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call analysis service: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("analysis service status: %d", resp.StatusCode)
	}
	c.logger.Debug("score recompute requested", zap.String("client_id", clientID.String()))
	return nil
}
