// Package response writes error bodies for gin handlers.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/errs"
)

// Error aborts the request with the status and message derived from err.
func Error(c *gin.Context, err error) {
	status := errs.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		// recorded for the access log; the client only sees the message
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": errs.Message(err)})
}

// BadRequest answers 400 for malformed request bodies.
func BadRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
