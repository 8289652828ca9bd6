package middleware

import (
	"net/http"
	"strings"

	"ehr-backend/internal/policy"
	"ehr-backend/internal/token"
	"ehr-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// AuthMiddleware verifies the bearer token and stores the caller's typed
// identity in the request context. Missing, malformed, badly signed and
// expired tokens all reject with the same 401.
func AuthMiddleware(tokens *token.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Error(c, http.StatusUnauthorized, "missing bearer token")
			c.Abort()
			return
		}

		// Header must be "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.Error(c, http.StatusUnauthorized, "invalid authorization header")
			c.Abort()
			return
		}

		claims, err := tokens.Verify(parts[1])
		if err != nil {
			utils.Error(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}

		c.Set(identityKey, policy.Identity{UserID: claims.UserID, Role: claims.Role})
		c.Next()
	}
}

// Identity returns the authenticated caller set by AuthMiddleware.
func Identity(c *gin.Context) (policy.Identity, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return policy.Identity{}, false
	}
	id, ok := v.(policy.Identity)
	return id, ok
}
