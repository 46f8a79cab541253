package bootstrap_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"resume-portal/internal/bootstrap"
	"resume-portal/internal/shared/config"
)

const resumeText = `Jane Roe
Backend Engineer, Austin TX
jane.roe@example.com | (512) 555-0199
Go, PostgreSQL, Kubernetes
`

type portal struct {
	t      *testing.T
	router *gin.Engine
}

func newPortal(t *testing.T) (*portal, *bootstrap.App) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Port:                 "0",
		CORSAllowOrigin:      []string{"http://localhost:5173"},
		LocalStoreDir:        t.TempDir(),
		Env:                  "dev",
		ObjectStoreType:      "local",
		JWTSecret:            "e2e-secret",
		JWTTTL:               time.Hour,
		DownloadLimit:        3,
		DownloadLimitEnabled: true,
		DownloadSessionTTL:   time.Hour,
		RetentionDays:        180,
	}
	app, err := bootstrap.Build(cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	t.Cleanup(func() { app.Close(t.Context()) })
	return &portal{t: t, router: app.Router}, app
}

func (p *portal) do(req *http.Request, session, token string) *httptest.ResponseRecorder {
	p.t.Helper()
	if session != "" {
		req.Header.Set("X-Session-Id", session)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	p.router.ServeHTTP(resp, req)
	return resp
}

func (p *portal) login(session, username, password string) string {
	p.t.Helper()
	body := `{"username":"` + username + `","password":"` + password + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := p.do(req, session, "")
	if resp.Code != http.StatusOK {
		p.t.Fatalf("login %s: expected 200, got %d: %s", username, resp.Code, resp.Body.String())
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		p.t.Fatalf("decode login: %v", err)
	}
	return out.Token
}

func (p *portal) upload(session, token string) string {
	p.t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range map[string]string{"firstName": "Jane", "lastName": "Roe", "city": "Austin"} {
		if err := writer.WriteField(k, v); err != nil {
			p.t.Fatalf("write field: %v", err)
		}
	}
	fw, err := writer.CreateFormFile("file", "jane-roe.txt")
	if err != nil {
		p.t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte(resumeText)); err != nil {
		p.t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		p.t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp := p.do(req, session, token)
	if resp.Code != http.StatusCreated {
		p.t.Fatalf("upload: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		p.t.Fatalf("decode upload: %v", err)
	}
	return created.ID
}

// download requests a token and spends it, returning the token status and
// the download status.
func (p *portal) download(id, session, token string) (int, int) {
	p.t.Helper()
	resp := p.do(httptest.NewRequest(http.MethodPost, "/api/v1/resumes/"+id+"/download-token", nil), session, token)
	if resp.Code != http.StatusOK {
		return resp.Code, 0
	}
	var tok struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		p.t.Fatalf("decode token: %v", err)
	}
	resp = p.do(httptest.NewRequest(http.MethodGet, "/api/v1/resumes/"+id+"/download?token="+tok.Token, nil), session, token)
	if resp.Code == http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		if string(data) != resumeText {
			p.t.Fatalf("downloaded payload differs: %q", data)
		}
	}
	return http.StatusOK, resp.Code
}

func TestPortalEndToEnd(t *testing.T) {
	p, _ := newPortal(t)

	recruiter := p.login("uploader", "recruiter", "recruiter")
	id := p.upload("uploader", recruiter)

	// anonymous detail hides contact data
	resp := p.do(httptest.NewRequest(http.MethodGet, "/api/v1/resumes/"+id, nil), "visitor", "")
	var detail struct {
		Email  string `json:"email"`
		Masked bool   `json:"masked"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if !detail.Masked || detail.Email != "jan*****@example.com" {
		t.Fatalf("expected masked detail, got %+v", detail)
	}

	// targeted search finds it, unmatched search is empty
	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes/search", strings.NewReader(`{"city":"austin"}`))
	req.Header.Set("Content-Type", "application/json")
	resp = p.do(req, "visitor", "")
	var found []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&found); err != nil {
		t.Fatalf("decode search: %v", err)
	}
	if len(found) != 1 || found[0]["id"] != id {
		t.Fatalf("expected one hit, got %v", found)
	}
	req = httptest.NewRequest(http.MethodPost, "/api/v1/resumes/search", strings.NewReader(`{"city":"Boston"}`))
	req.Header.Set("Content-Type", "application/json")
	resp = p.do(req, "visitor", "")
	if strings.TrimSpace(resp.Body.String()) != "[]" {
		t.Fatalf("expected empty list, got %s", resp.Body.String())
	}

	// anonymous visitors cannot download
	if status, _ := p.download(id, "visitor", ""); status != http.StatusUnauthorized {
		t.Fatalf("visitor token: expected 401, got %d", status)
	}

	// the uploader's session is exempt from the limit
	for i := 0; i < 5; i++ {
		if _, got := p.download(id, "uploader", recruiter); got != http.StatusOK {
			t.Fatalf("preview download %d: expected 200, got %d", i+1, got)
		}
	}

	// another recruiter session gets three downloads
	other := p.login("desk-2", "recruiter", "recruiter")
	for i := 0; i < 3; i++ {
		if _, got := p.download(id, "desk-2", other); got != http.StatusOK {
			t.Fatalf("download %d: expected 200, got %d", i+1, got)
		}
	}
	if status, _ := p.download(id, "desk-2", other); status != http.StatusTooManyRequests {
		t.Fatalf("fourth token: expected 429, got %d", status)
	}

	// logging in again resets the session counters
	other = p.login("desk-2", "recruiter", "recruiter")
	if _, got := p.download(id, "desk-2", other); got != http.StatusOK {
		t.Fatalf("after re-login: expected 200, got %d", got)
	}

	admin := p.login("admin-desk", "admin", "admin")
	resp = p.do(httptest.NewRequest(http.MethodGet, "/api/v1/resumes/"+id+"/downloads/stats", nil), "admin-desk", admin)
	var stats map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if total, _ := stats["downloads"].(float64); total != 9 {
		t.Fatalf("expected 9 recorded downloads, got %v", stats)
	}

	resp = p.do(httptest.NewRequest(http.MethodDelete, "/api/v1/resumes/"+id, nil), "desk-2", other)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("recruiter delete: expected 403, got %d", resp.Code)
	}
	resp = p.do(httptest.NewRequest(http.MethodDelete, "/api/v1/resumes/"+id, nil), "admin-desk", admin)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("admin delete: expected 204, got %d", resp.Code)
	}
	resp = p.do(httptest.NewRequest(http.MethodGet, "/api/v1/resumes/"+id, nil), "visitor", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("after delete: expected 404, got %d", resp.Code)
	}
}

func TestPortalMetricsAndRetention(t *testing.T) {
	p, app := newPortal(t)

	resp := p.do(httptest.NewRequest(http.MethodGet, "/metrics", nil), "", "")
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "resume_portal_") {
		t.Fatalf("expected metrics, got %d", resp.Code)
	}

	// no external backends in dev, so readiness has nothing to fail
	resp = p.do(httptest.NewRequest(http.MethodGet, "/api/v1/ready", nil), "", "")
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"ready":true`) {
		t.Fatalf("expected ready, got %d %s", resp.Code, resp.Body.String())
	}

	deleted, err := app.Scheduler.RunOnce(t.Context())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("expected nothing to delete, got %d", deleted)
	}
}

func TestBuildRequiresBackendsOutsideDev(t *testing.T) {
	_, err := bootstrap.Build(config.Config{Env: "production", JWTSecret: "x", LocalStoreDir: t.TempDir()})
	if err == nil {
		t.Fatalf("expected error without DATABASE_URL in production")
	}
}
