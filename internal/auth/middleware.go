package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type ctxKey string

const (
	CtxUserID  ctxKey = "uid"
	CtxRole    ctxKey = "role"
	CtxCollege ctxKey = "college"
)

func JWTMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" || !strings.HasPrefix(h, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tok := strings.TrimPrefix(h, "Bearer ")

		claims, err := ParseToken(secret, tok)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid Token"})
			return
		}

		c.Set(string(CtxUserID), claims.UserId)
		c.Set(string(CtxRole), claims.Role)
		c.Set(string(CtxCollege), claims.College)
		c.Next()
	}
}

// RequireRole gates a route group behind one of the given roles. Final
// authorization still lives in the store's ownership predicates.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := MustRole(c)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
	}
}

func MustUserID(c *gin.Context) int64 {
	if v, ok := c.Get(string(CtxUserID)); ok {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}

func MustRole(c *gin.Context) string {
	if v, ok := c.Get(string(CtxRole)); ok {
		if r, ok := v.(string); ok {
			return r
		}
	}
	return ""
}

func MustCollege(c *gin.Context) string {
	if v, ok := c.Get(string(CtxCollege)); ok {
		if cl, ok := v.(string); ok {
			return cl
		}
	}
	return ""
}
