package downloads

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"resume-portal/internal/resumes"
	"resume-portal/internal/shared/auth"
	"resume-portal/internal/shared/server/middleware"
	"resume-portal/internal/shared/server/respond"
	"resume-portal/internal/shared/telemetry"
)

// ResumeSource resolves resumes and their original files.
type ResumeSource interface {
	Get(ctx context.Context, id string) (resumes.Resume, error)
	Open(ctx context.Context, id string) (resumes.Resume, io.ReadCloser, error)
}

// Handler exposes the download gate over HTTP.
type Handler struct {
	Gate    *Gate
	Resumes ResumeSource
	Ledger  Ledger
}

// NewHandler constructs a Handler.
func NewHandler(gate *Gate, source ResumeSource, ledger Ledger) *Handler {
	return &Handler{Gate: gate, Resumes: source, Ledger: ledger}
}

// RegisterRoutes attaches download routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/resumes/:id/download-token", h.requestToken)
	rg.GET("/resumes/:id/download", h.download)
	rg.GET("/resumes/:id/downloads", h.remaining)
	rg.GET("/resumes/:id/downloads/stats", middleware.RequireRole(auth.RoleAdmin), h.stats)
}

type tokenResponse struct {
	Token     string `json:"token"`
	Remaining int    `json:"remaining"`
	Preview   bool   `json:"preview"`
}

type remainingResponse struct {
	ResumeID     string `json:"resumeId"`
	Remaining    int    `json:"remaining"`
	Limit        int    `json:"limit"`
	LimitEnabled bool   `json:"limitEnabled"`
	Preview      bool   `json:"preview"`
}

type statsResponse struct {
	ResumeID  string `json:"resumeId"`
	Downloads int64  `json:"downloads"`
}

func (h *Handler) requestToken(c *gin.Context) {
	id := c.Param("id")
	session := middleware.SessionIDFromContext(c)
	c.Set("resumeId", id)
	if !h.authorize(c, session, id) {
		return
	}
	if _, err := h.Resumes.Get(c.Request.Context(), id); err != nil {
		writeResumeError(c, err)
		return
	}

	res := h.Gate.RequestToken(session, id)
	c.Set("downloadResult", res.Status.String())
	if res.Status == TokenDenied {
		respond.Error(c, http.StatusTooManyRequests, "download_limit_reached", "download limit reached for this resume",
			gin.H{"remaining": 0, "limit": h.Gate.Limit()})
		return
	}
	respond.OK(c, tokenResponse{Token: res.Token, Remaining: res.Remaining, Preview: res.Preview})
}

// download opens the file before redeeming the token so a missing payload
// never costs the caller a download.
func (h *Handler) download(c *gin.Context) {
	id := c.Param("id")
	session := middleware.SessionIDFromContext(c)
	c.Set("resumeId", id)
	if !h.authorize(c, session, id) {
		return
	}

	ctx := c.Request.Context()
	res, rc, err := h.Resumes.Open(ctx, id)
	if err != nil {
		writeResumeError(c, err)
		return
	}
	defer rc.Close()

	result := h.Gate.ConsumeToken(ctx, session, id, c.Query("token"))
	c.Set("downloadResult", result.Status.String())
	switch result.Status {
	case InvalidToken:
		respond.Error(c, http.StatusForbidden, "invalid_token", "download token is missing, used or does not match", nil)
		return
	case LimitReached:
		respond.Error(c, http.StatusTooManyRequests, "download_limit_reached", "download limit reached for this resume",
			gin.H{"remaining": 0, "limit": h.Gate.Limit()})
		return
	}

	contentType := res.FileType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", attachment(res.OriginalFileName))
	c.Header("X-Downloads-Remaining", strconv.Itoa(result.Remaining))
	if res.OriginalFileSize > 0 {
		c.Header("Content-Length", strconv.FormatInt(res.OriginalFileSize, 10))
	}
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		telemetry.Warn("download.stream_failed", map[string]any{
			"resume_id": id,
			"error":     err.Error(),
		})
	}
}

func (h *Handler) remaining(c *gin.Context) {
	id := c.Param("id")
	session := middleware.SessionIDFromContext(c)
	c.Set("resumeId", id)
	if _, err := h.Resumes.Get(c.Request.Context(), id); err != nil {
		writeResumeError(c, err)
		return
	}
	respond.OK(c, remainingResponse{
		ResumeID:     id,
		Remaining:    h.Gate.Remaining(session, id),
		Limit:        h.Gate.Limit(),
		LimitEnabled: h.Gate.LimitEnabled(),
		Preview:      h.Gate.IsPreview(session, id),
	})
}

func (h *Handler) stats(c *gin.Context) {
	id := c.Param("id")
	c.Set("resumeId", id)
	if h.Ledger == nil {
		respond.OK(c, statsResponse{ResumeID: id})
		return
	}
	n, err := h.Ledger.CountForResume(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to read download stats", nil)
		return
	}
	respond.OK(c, statsResponse{ResumeID: id, Downloads: n})
}

// authorize admits recruiters, admins and the uploader's own session.
func (h *Handler) authorize(c *gin.Context, session, resumeID string) bool {
	if middleware.HasRole(c, auth.RoleRecruiter) || middleware.HasRole(c, auth.RoleAdmin) {
		return true
	}
	if session != "" && h.Gate.IsPreview(session, resumeID) {
		return true
	}
	if !middleware.IsAuthenticated(c) {
		respond.Error(c, http.StatusUnauthorized, "login_required", "Login required to download resumes", nil)
		return false
	}
	respond.Error(c, http.StatusForbidden, "forbidden", "recruiter role required", nil)
	return false
}

func writeResumeError(c *gin.Context, err error) {
	if errors.Is(err, resumes.ErrNotFound) {
		respond.Error(c, http.StatusNotFound, "not_found", "resume not found", nil)
		return
	}
	respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load resume", nil)
}

func attachment(fileName string) string {
	if fileName == "" {
		fileName = "resume"
	}
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": fileName}); v != "" {
		return v
	}
	return "attachment"
}
