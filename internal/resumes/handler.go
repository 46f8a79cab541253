package resumes

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resume-portal/internal/convert"
	"resume-portal/internal/shared/auth"
	"resume-portal/internal/shared/server/middleware"
	"resume-portal/internal/shared/server/respond"
)

// multipart framing and profile fields on top of the file itself
const formOverheadBytes = 1 << 20

// PreviewMarker records that a session uploaded a resume, exempting that
// session from download limits for it.
type PreviewMarker interface {
	MarkPreview(session, resumeID string)
}

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc            *Service
	Previews       PreviewMarker
	MaxUploadBytes int64
}

// NewHandler constructs a Handler. A non-positive maxUploadBytes falls back
// to the converter default.
func NewHandler(svc *Service, previews PreviewMarker, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = convert.DefaultMaxBytes
	}
	return &Handler{Svc: svc, Previews: previews, MaxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches resume routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/resumes", middleware.RequireAuth(), h.upload)
	rg.GET("/resumes", h.list)
	rg.POST("/resumes/search", h.search)
	rg.GET("/resumes/search", h.formSearch)
	rg.GET("/resumes/export", middleware.RequireRole(auth.RoleRecruiter, auth.RoleAdmin), h.export)
	rg.GET("/resumes/:id", h.get)
	rg.GET("/resumes/:id/content", h.content)
	rg.GET("/resumes/:id/unmasked", middleware.RequireAuth(), h.unmasked)
	rg.DELETE("/resumes/:id", middleware.RequireRole(auth.RoleAdmin), h.delete)
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes+formOverheadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds upload limit", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	if fileHeader.Size > h.MaxUploadBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds upload limit", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.MaxUploadBytes+1))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	res, err := h.Svc.Upload(c.Request.Context(), UploadInput{
		Owner:       middleware.UserIDFromContext(c),
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
		Profile:     profileFromForm(c),
	})
	if err != nil {
		writeError(c, err, "failed to upload resume")
		return
	}
	c.Set("resumeId", res.ID)

	if session := middleware.SessionIDFromContext(c); session != "" && h.Previews != nil {
		h.Previews.MarkPreview(session, res.ID)
	}

	respond.JSON(c, http.StatusCreated, toResponse(res, true))
}

func profileFromForm(c *gin.Context) Profile {
	return Profile{
		FirstName:           c.PostForm("firstName"),
		LastName:            c.PostForm("lastName"),
		Email:               c.PostForm("email"),
		Phone:               c.PostForm("phone"),
		City:                c.PostForm("city"),
		State:               c.PostForm("state"),
		Country:             c.PostForm("country"),
		LinkedInURL:         c.PostForm("linkedinUrl"),
		WebsiteURL:          c.PostForm("websiteUrl"),
		ProfessionalSummary: c.PostForm("professionalSummary"),
		Skills: Skills{
			ProgrammingLanguages: splitForm(c.PostForm("programmingLanguages")),
			Frameworks:           splitForm(c.PostForm("frameworks")),
			Libraries:            splitForm(c.PostForm("libraries")),
			Databases:            splitForm(c.PostForm("databases")),
			Tools:                splitForm(c.PostForm("tools")),
			CloudTechnologies:    splitForm(c.PostForm("cloudTechnologies")),
			SoftSkills:           splitForm(c.PostForm("softSkills")),
		},
	}
}

func splitForm(raw string) []string {
	list := cleanList(strings.Split(raw, ","))
	if len(list) == 0 {
		return nil
	}
	return list
}

func (h *Handler) list(c *gin.Context) {
	list, err := h.Svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err, "failed to list resumes")
		return
	}
	authenticated := middleware.IsAuthenticated(c)
	resp := make([]ResumeResponse, 0, len(list))
	for _, res := range list {
		resp = append(resp, toResponse(res, authenticated))
	}
	respond.OK(c, resp)
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	c.Set("resumeId", id)
	res, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "failed to fetch resume")
		return
	}
	respond.OK(c, toResponse(res, middleware.IsAuthenticated(c)))
}

// content serves the rendered page. Anonymous callers always get the masked
// page; signed-in users may ask for it with masked=true.
func (h *Handler) content(c *gin.Context) {
	masked := !middleware.IsAuthenticated(c) || strings.EqualFold(c.Query("masked"), "true")
	h.serveContent(c, masked)
}

func (h *Handler) unmasked(c *gin.Context) {
	h.serveContent(c, false)
}

func (h *Handler) serveContent(c *gin.Context, masked bool) {
	id := c.Param("id")
	c.Set("resumeId", id)
	page, err := h.Svc.Content(c.Request.Context(), id, masked)
	if err != nil {
		writeError(c, err, "failed to render resume")
		return
	}
	respond.HTML(c, http.StatusOK, page)
}

func (h *Handler) delete(c *gin.Context) {
	id := c.Param("id")
	c.Set("resumeId", id)
	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err, "failed to delete resume")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) search(c *gin.Context) {
	var criteria SearchCriteria
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&criteria); err != nil && !errors.Is(err, io.EOF) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}
	h.respondSearch(c, criteria)
}

func (h *Handler) formSearch(c *gin.Context) {
	h.respondSearch(c, CriteriaFromQuery(c.Query("query"), c.Query("uploadedBefore")))
}

func (h *Handler) respondSearch(c *gin.Context, criteria SearchCriteria) {
	found, err := h.Svc.Search(c.Request.Context(), criteria)
	if err != nil {
		writeError(c, err, "search failed")
		return
	}
	authenticated := middleware.IsAuthenticated(c)
	resp := make([]SearchResultResponse, 0, len(found))
	for _, res := range found {
		resp = append(resp, toSearchResult(res, authenticated))
	}
	respond.OK(c, resp)
}

func (h *Handler) export(c *gin.Context) {
	term := strings.TrimSpace(c.Query("query"))
	found, err := h.Svc.Search(c.Request.Context(), CriteriaFromQuery(term, c.Query("uploadedBefore")))
	if err != nil {
		writeError(c, err, "export failed")
		return
	}

	fileName := fmt.Sprintf("resumes-%s.csv", time.Now().UTC().Format("20060102"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))
	c.Status(http.StatusOK)
	if err := WriteCSV(c.Writer, found, term); err != nil {
		_ = c.Error(err)
	}
}

func writeError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "resume not found", nil)
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidCriteria):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, convert.ErrOversized):
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", err.Error(), nil)
	case errors.Is(err, convert.ErrUnsupportedType):
		respond.Error(c, http.StatusUnsupportedMediaType, "unsupported_media_type", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", message, nil)
	}
}
