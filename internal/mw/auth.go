package mw

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"puritygrid-backend/internal/session"
)

const sessionKey = "session"

// SessionLookup resolves a bearer token to a live session.
type SessionLookup interface {
	Lookup(token string) (session.Session, bool)
}

// BearerToken extracts the token of an "Authorization: Bearer" header.
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// Authenticate attaches the session of a valid bearer token to the context.
// Requests without one pass through anonymously.
func Authenticate(sessions SessionLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := BearerToken(c); token != "" {
			if s, ok := sessions.Lookup(token); ok {
				c.Set(sessionKey, s)
			}
		}
		c.Next()
	}
}

// SessionFrom returns the session attached by Authenticate.
func SessionFrom(c *gin.Context) (session.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return session.Session{}, false
	}
	s, ok := v.(session.Session)
	return s, ok
}

// RequireSession rejects anonymous requests with 401.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := SessionFrom(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// RequireRole rejects requests whose session has another role with 403.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := SessionFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if s.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden for role " + s.Role})
			return
		}
		c.Next()
	}
}
