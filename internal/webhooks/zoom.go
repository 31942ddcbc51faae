package webhooks

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/meridian-crm/attendance/internal/models"
	"github.com/meridian-crm/attendance/pkg/response"
)

const (
	headerZoomSignature = "x-zm-signature"
	headerZoomTimestamp = "x-zm-request-timestamp"
)

// HandleZoom handles POST /webhooks/zoom.
func (h *Handler) HandleZoom(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		response.BadRequest(c, "read body: "+err.Error())
		return
	}

	ev, err := NormalizeZoom(body)
	if err != nil {
		h.logger.Warn("undecodable zoom payload", zap.Error(err))
		response.BadRequest(c, "invalid payload")
		return
	}

	// One-time endpoint validation handshake; no event processing.
	if ev.Kind == KindURLValidation {
		h.handleChallenge(c, ev)
		return
	}

	signature := c.GetHeader(headerZoomSignature)
	timestamp := c.GetHeader(headerZoomTimestamp)
	if h.verifier.Configured() && (h.opts.RequireSignature || signature != "") {
		if err := h.verifier.ValidateSignature(body, signature, timestamp, time.Now()); err != nil {
			h.logger.Warn("zoom signature validation failed", zap.Error(err))
			response.Unauthorized(c, "invalid signature")
			return
		}
	}

	accountID, err := h.accounts.Resolve(c.Request.Context(), models.PlatformZoom, c.Query("account_id"), ev.ProviderAccountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			h.logger.Warn("zoom webhook without resolvable account",
				zap.String("provider_account_id", ev.ProviderAccountID))
			response.BadRequest(c, "account not found")
			return
		}
		h.logger.Error("account resolution failed", zap.Error(err))
		response.Internal(c, "account resolution failed")
		return
	}

	h.archive(c.Request.Context(), models.PlatformZoom, body)

	if err := h.dispatch(c.Request.Context(), accountID, ev); err != nil {
		h.logger.Error("zoom event processing failed", zap.Error(err), zap.String("event", ev.RawType))
		response.Internal(c, "event processing failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "event": ev.RawType})
}

// handleChallenge answers endpoint.url_validation. Zoom retries aggressively
// on non-2xx, so a malformed challenge still gets a 200 with a best-effort
// body; a missing secret is a configuration error and stays fatal.
func (h *Handler) handleChallenge(c *gin.Context, ev *Event) {
	if !h.verifier.Configured() {
		h.logger.Error("url_validation received but webhook secret not configured")
		response.Internal(c, "webhook secret not configured")
		return
	}
	if ev.PlainToken == "" {
		h.logger.Warn("url_validation challenge missing plainToken")
		c.JSON(http.StatusOK, ChallengeResponse{})
		return
	}
	c.JSON(http.StatusOK, h.verifier.Challenge(ev.PlainToken))
}
