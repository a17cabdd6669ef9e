package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

// OK writes a 200 OK JSON response.
func OK(c *gin.Context, payload any) {
	JSON(c, http.StatusOK, payload)
}

// List writes items under "items" next to the extra fields. A nil slice is
// written as [] so clients never see null.
func List[T any](c *gin.Context, items []T, extra gin.H) {
	if items == nil {
		items = []T{}
	}
	body := gin.H{"items": items}
	for k, v := range extra {
		if k != "items" {
			body[k] = v
		}
	}
	OK(c, body)
}
