package webhooks

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/meridian-crm/attendance/internal/models"
	"github.com/meridian-crm/attendance/pkg/response"
)

// HandleMeet handles POST /webhooks/meet. Accepts a pub/sub push envelope or
// flat JSON; tenant scope comes from the account_id query parameter, with the
// integration lookup as fallback.
func (h *Handler) HandleMeet(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		response.BadRequest(c, "read body: "+err.Error())
		return
	}

	ev, err := NormalizeMeet(body)
	if err != nil {
		h.logger.Warn("undecodable meet payload", zap.Error(err))
		response.BadRequest(c, "invalid payload")
		return
	}

	accountID, err := h.accounts.Resolve(c.Request.Context(), models.PlatformMeet, c.Query("account_id"), ev.ProviderAccountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			h.logger.Warn("meet webhook without resolvable account")
			response.BadRequest(c, "account not found")
			return
		}
		h.logger.Error("account resolution failed", zap.Error(err))
		response.Internal(c, "account resolution failed")
		return
	}

	if h.opts.RequireCapabilityToken {
		if err := h.checkCapabilityToken(c.Request.Context(), accountID, c.Query("token")); err != nil {
			h.logger.Warn("meet capability token rejected",
				zap.String("account_id", accountID.String()))
			response.Unauthorized(c, "invalid webhook token")
			return
		}
	}

	h.archive(c.Request.Context(), models.PlatformMeet, body)

	if err := h.dispatch(c.Request.Context(), accountID, ev); err != nil {
		h.logger.Error("meet event processing failed", zap.Error(err), zap.String("event", ev.RawType))
		response.Internal(c, "event processing failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "event_type": ev.RawType})
}
