package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-portal/internal/shared/auth"
	"resume-portal/internal/shared/server/respond"
)

const (
	userIDKey    = "userId"
	userNameKey  = "userName"
	userEmailKey = "userEmail"
	userRolesKey = "userRoles"
)

// TokenVerifier checks bearer tokens.
type TokenVerifier interface {
	Verify(token string) (auth.Claims, error)
}

// Auth reads an optional bearer token. Requests without one continue as
// anonymous; a malformed or invalid token is rejected.
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			c.Next()
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") || verifier == nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		claims, err := verifier.Verify(token)
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		c.Set(userIDKey, claims.Subject)
		if claims.Name != "" {
			c.Set(userNameKey, claims.Name)
		}
		if claims.Email != "" {
			c.Set(userEmailKey, claims.Email)
		}
		c.Set(userRolesKey, claims.Roles)
		c.Next()
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAuthenticated(c) {
			respond.Error(c, http.StatusUnauthorized, "login_required", "Login required", nil)
			return
		}
		c.Next()
	}
}

// RequireRole rejects requests lacking every one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAuthenticated(c) {
			respond.Error(c, http.StatusUnauthorized, "login_required", "Login required", nil)
			return
		}
		for _, role := range roles {
			if HasRole(c, role) {
				c.Next()
				return
			}
		}
		respond.Error(c, http.StatusForbidden, "forbidden", "insufficient role", nil)
	}
}

// IsAuthenticated reports whether the request carried a valid token.
func IsAuthenticated(c *gin.Context) bool {
	return UserIDFromContext(c) != ""
}

// HasRole reports whether the authenticated user holds role.
func HasRole(c *gin.Context, role string) bool {
	for _, r := range RolesFromContext(c) {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	return contextString(c, userIDKey)
}

func UserNameFromContext(c *gin.Context) string {
	return contextString(c, userNameKey)
}

func UserEmailFromContext(c *gin.Context) string {
	return contextString(c, userEmailKey)
}

// RolesFromContext returns the roles of the authenticated user.
func RolesFromContext(c *gin.Context) []string {
	if c == nil {
		return nil
	}
	val, _ := c.Get(userRolesKey)
	roles, _ := val.([]string)
	return roles
}

func contextString(c *gin.Context, key string) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(key)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
