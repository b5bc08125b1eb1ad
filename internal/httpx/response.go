package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

func OK(c *gin.Context, v any) {
	c.JSON(200, v)
}

func Err(c *gin.Context, code int, msg any) {
	c.JSON(code, gin.H{"error": msg})
}

// StoreErr maps a storage failure to a response, keeping deadline hits
// distinct from plain rejections.
func StoreErr(c *gin.Context, err error, msg string) {
	if errors.Is(err, context.DeadlineExceeded) {
		Err(c, http.StatusGatewayTimeout, msg+": timed out")
		return
	}
	Err(c, http.StatusInternalServerError, msg)
}
