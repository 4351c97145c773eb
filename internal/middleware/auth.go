package middleware

import (
	"net/http"
	"strings"

	"sokofresh-be/internal/user"

	"github.com/gin-gonic/gin"
)

const (
	userIDKey = "userID"
	roleKey   = "userRole"
)

// Auth parses a Bearer token when present and stores the user identity in
// the gin context. It never rejects by itself; RequireAuth does.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.Next()
			return
		}

		claims, err := user.ParseToken(strings.TrimPrefix(header, "Bearer "), secret)
		if err != nil {
			c.Next()
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(roleKey, claims.Role)
		c.Next()
	}
}

// RequireAuth aborts unauthenticated requests.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUserID(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authentication required"})
			return
		}
		c.Next()
	}
}

// RequireAdmin aborts requests from non-admin users.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "admin access required"})
			return
		}
		c.Next()
	}
}

func CurrentUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

func IsAdmin(c *gin.Context) bool {
	v, ok := c.Get(roleKey)
	return ok && v == "admin"
}
