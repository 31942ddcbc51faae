package delivery

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/meridian-crm/attendance/pkg/response"
)

// Handler serves read-only delivery endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a delivery handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// ListByAccount handles GET /accounts/:id/deliveries.
func (h *Handler) ListByAccount(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid account id")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	records, err := h.repo.ListByAccount(c.Request.Context(), accountID, limit)
	if err != nil {
		response.Internal(c, "failed to list deliveries")
		return
	}
	response.OK(c, records)
}
