package server

import (
	"github.com/gin-gonic/gin"

	"resume-portal/internal/shared/auth"
	"resume-portal/internal/shared/server/middleware"
	"resume-portal/internal/shared/server/respond"
)

type meResponse struct {
	UserID    string   `json:"userId"`
	Name      string   `json:"name,omitempty"`
	Email     string   `json:"email,omitempty"`
	Roles     []string `json:"roles"`
	SessionID string   `json:"sessionId"`
	// the UI shows download buttons only to recruiters
	CanDownload bool `json:"canDownload"`
}

func registerMeRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", middleware.RequireAuth(), meHandler)
}

func meHandler(c *gin.Context) {
	roles := middleware.RolesFromContext(c)
	if roles == nil {
		roles = []string{}
	}
	respond.OK(c, meResponse{
		UserID:      middleware.UserIDFromContext(c),
		Name:        middleware.UserNameFromContext(c),
		Email:       middleware.UserEmailFromContext(c),
		Roles:       roles,
		SessionID:   middleware.SessionIDFromContext(c),
		CanDownload: middleware.HasRole(c, auth.RoleRecruiter) || middleware.HasRole(c, auth.RoleAdmin),
	})
}
