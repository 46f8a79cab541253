package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// OK writes a 200 OK JSON response.
func OK(c *gin.Context, payload interface{}) {
	JSON(c, http.StatusOK, payload)
}

// HTML writes a rendered resume page. Pages may hold unmasked contact
// details, so shared caches must not keep them.
func HTML(c *gin.Context, status int, page string) {
	c.Header("Cache-Control", "private, no-store")
	c.Data(status, "text/html; charset=utf-8", []byte(page))
}
