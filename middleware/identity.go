package middleware

import (
	"net/http"
	"strings"

	"reservelt/utils"

	"github.com/gin-gonic/gin"
)

// ActorKey is the gin context key holding the authenticated clerk id.
const ActorKey = "clerkID"

// IdentityMiddleware resolves the bearer token to the acting clerk id. When
// required is false, requests without a token pass through anonymously, but
// a token that is present must still be valid.
func IdentityMiddleware(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			if required {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
				return
			}
			c.Next()
			return
		}
		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		clerkID, err := utils.ExtractIDFromToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		c.Set(ActorKey, clerkID)
		c.Next()
	}
}

// Actor returns the authenticated clerk id, or "" for anonymous requests.
func Actor(c *gin.Context) string {
	return c.GetString(ActorKey)
}
