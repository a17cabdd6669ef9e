package generations

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"career-backend/internal/shared/server/respond"
)

// Handler exposes recent generation events for debugging prompt quality.
type Handler struct {
	Repo Repo
}

// NewHandler constructs a Handler.
func NewHandler(repo Repo) *Handler {
	return &Handler{Repo: repo}
}

// RegisterRoutes attaches generation routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/generations", h.list)
}

func (h *Handler) list(c *gin.Context) {
	if h.Repo == nil {
		respond.Error(c, http.StatusServiceUnavailable, "telemetry_disabled", "Generation telemetry is not enabled", nil)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	events, err := h.Repo.ListRecent(c.Request.Context(), c.Query("operation"), limit)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "Failed to list generations", nil)
		return
	}
	respond.List(c, events, nil)
}
