package materials

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"career-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the materials service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches material routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/materials", h.list)
	rg.GET("/materials/:id", h.get)
	rg.GET("/materials/:id/content", h.content)
}

func (h *Handler) list(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	items, err := h.Svc.List(c.Request.Context(), c.Query("operation"), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list materials", nil)
		return
	}
	respond.List(c, items, gin.H{"limit": limit, "offset": offset})
}

func (h *Handler) get(c *gin.Context) {
	m, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, m)
}

func (h *Handler) content(c *gin.Context) {
	m, body, err := h.Svc.Content(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, m.MimeType, []byte(body))
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "material not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", "material id is required", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load material", nil)
	}
}
