package httpapi

import (
	"net/http"
	"strings"

	"github.com/agropath/farmauth/internal/common"
	"github.com/agropath/farmauth/internal/server/auth"
	"github.com/gin-gonic/gin"
)

const contextClaimsKey = "authClaims"

// BearerMiddleware verifies the Authorization header and stores the
// access token claims in the gin context.
func BearerMiddleware(sessions SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeaderName)
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer <token>"})
			return
		}

		claims, err := sessions.VerifyAccess(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired access token"})
			return
		}

		c.Set(contextClaimsKey, claims)
		c.Next()
	}
}

// ClaimsFromContext returns the claims stored by BearerMiddleware, or
// nil when the request did not pass it.
func ClaimsFromContext(c *gin.Context) *auth.Claims {
	raw, ok := c.Get(contextClaimsKey)
	if !ok {
		return nil
	}
	claims, ok := raw.(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}
