package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-portal/internal/shared/auth"
	"resume-portal/internal/shared/server/middleware"
	"resume-portal/internal/shared/server/respond"
	"resume-portal/internal/shared/telemetry"
)

// SessionResetter forgets the download counters of a session.
type SessionResetter interface {
	ResetSession(session string) int
}

type Handler struct {
	Svc      *Service
	Signer   *auth.Signer
	Sessions SessionResetter
}

func NewHandler(svc *Service, signer *auth.Signer, sessions SessionResetter) *Handler {
	return &Handler{Svc: svc, Signer: signer, Sessions: sessions}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/login", h.login)
	rg.POST("/auth/logout", h.logout)
	rg.GET("/users", middleware.RequireRole(auth.RoleAdmin), h.list)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type userResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email,omitempty"`
	Provider    string   `json:"provider"`
	Roles       []string `json:"roles"`
	LastLoginAt string   `json:"lastLoginAt,omitempty"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "username and password are required", nil)
		return
	}

	user, err := h.Svc.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			respond.Error(c, http.StatusUnauthorized, "invalid_credentials", "invalid username or password", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "login failed", nil)
		return
	}

	token, err := h.Signer.Sign(user.ID, auth.Claims{Name: user.FullName, Email: user.Email, Roles: user.Roles})
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to issue token", nil)
		return
	}
	h.resetSession(c, "login")
	respond.OK(c, loginResponse{Token: token, User: toUserResponse(user)})
}

func (h *Handler) logout(c *gin.Context) {
	h.resetSession(c, "logout")
	c.Status(http.StatusNoContent)
}

func (h *Handler) list(c *gin.Context) {
	list, err := h.Svc.List(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list users", nil)
		return
	}
	resp := make([]userResponse, 0, len(list))
	for _, u := range list {
		resp = append(resp, toUserResponse(u))
	}
	respond.OK(c, resp)
}

func (h *Handler) resetSession(c *gin.Context, reason string) {
	session := middleware.SessionIDFromContext(c)
	if session == "" || h.Sessions == nil {
		return
	}
	cleared := h.Sessions.ResetSession(session)
	telemetry.Info("download session reset", map[string]any{
		"session_id": session,
		"reason":     reason,
		"cleared":    cleared,
	})
}

func toUserResponse(u User) userResponse {
	resp := userResponse{
		ID:       u.ID,
		Name:     u.FullName,
		Email:    u.Email,
		Provider: u.Provider,
		Roles:    u.Roles,
	}
	if resp.Roles == nil {
		resp.Roles = []string{}
	}
	if !u.LastLoginAt.IsZero() {
		resp.LastLoginAt = u.LastLoginAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return resp
}
