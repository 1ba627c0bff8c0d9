package middleware

import (
	"net/http"
	"strings"

	"ludo_arena/internal/service"

	"github.com/gin-gonic/gin"
)

// JWTAuth pulls the identity out of a Bearer token and stores it on the
// request context.
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}

		identityID, err := service.ParseJWT(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("identity_id", identityID)
		c.Next()
	}
}

// IdentityFrom reads the identity set by JWTAuth.
func IdentityFrom(c *gin.Context) (string, bool) {
	v, ok := c.Get("identity_id")
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
