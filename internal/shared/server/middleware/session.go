package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	sessionIDKey = "sessionId"
	// SessionCookie names the cookie holding the anonymous session id.
	SessionCookie = "portal_session"
	// SessionHeader lets API clients pass the session id explicitly.
	SessionHeader = "X-Session-Id"

	maxSessionIDLen = 128
)

// Session assigns every caller a session id, reusing the header or cookie
// when present and issuing a new cookie otherwise.
func Session(secureCookie bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(SessionHeader))
		if id == "" {
			if cookie, err := c.Cookie(SessionCookie); err == nil {
				id = strings.TrimSpace(cookie)
			}
		}
		if id == "" || len(id) > maxSessionIDLen {
			id = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookie, id, 0, "/", "", secureCookie, true)
		}
		c.Set(sessionIDKey, id)
		c.Writer.Header().Set(SessionHeader, id)
		c.Next()
	}
}

// SessionIDFromContext fetches the id stored by Session.
func SessionIDFromContext(c *gin.Context) string {
	return contextString(c, sessionIDKey)
}
