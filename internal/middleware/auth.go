package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"kalyana/internal/authz"
)

const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

// TokenParser validates access tokens.
type TokenParser interface {
	ParseAccessToken(token string) (*authz.Claims, error)
}

// bearerToken reads "Authorization: Bearer <t>", falling back to ?token=
// for clients that cannot set headers (browser websockets).
func bearerToken(c *gin.Context) string {
	if h := strings.TrimSpace(c.GetHeader("Authorization")); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return ""
		}
		return strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(c.Query("token"))
}

func AuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		// preflight
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		tokenStr := bearerToken(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		claims, err := tokens.ParseAccessToken(tokenStr)
		if err != nil || claims.UserID <= 0 || !authz.IsKnownRole(claims.Role) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxRole, claims.Role)
		c.Next()
	}
}
