package graphql

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"career-backend/internal/shared/server/respond"
)

const maxRequestBytes = 1 << 20

// Handler serves POST /graphql.
type Handler struct {
	Exec *Executor
}

// NewHandler constructs a Handler.
func NewHandler(exec *Executor) *Handler {
	return &Handler{Exec: exec}
}

// RegisterRoutes attaches the GraphQL route to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/graphql", h.serve)
}

func (h *Handler) serve(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRequestBytes+1))
	if err != nil || len(body) > maxRequestBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, "validation_error", "request body exceeds limit", nil)
		return
	}
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.OperationName != "" {
		c.Set("operation", "graphql:"+req.OperationName)
	} else {
		c.Set("operation", "graphql")
	}

	resp, err := h.Exec.Execute(c.Request.Context(), req)
	if errors.Is(err, ErrRejected) {
		c.JSON(http.StatusBadRequest, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}
