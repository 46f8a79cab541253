package downloads

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"resume-portal/internal/convert"
	"resume-portal/internal/resumes"
	"resume-portal/internal/shared/auth"
	"resume-portal/internal/shared/server/middleware"
	localstore "resume-portal/internal/shared/storage/object/local"
)

const payload = "Jane Roe\njane.roe@example.com\n"

type downloadFixture struct {
	router *gin.Engine
	gate   *Gate
	ledger *MemoryLedger
	signer *auth.Signer
	resume resumes.Resume
}

func newDownloadFixture(t *testing.T) *downloadFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := resumes.NewService(resumes.NewMemoryRepo(), localstore.New(t.TempDir()), convert.New(0))
	res, err := svc.Upload(context.Background(), resumes.UploadInput{
		Owner:    "uploader",
		FileName: "jane roe.txt",
		Data:     []byte(payload),
		Profile:  resumes.Profile{FirstName: "Jane", LastName: "Roe"},
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	ledger := NewMemoryLedger()
	gate := NewGate(GateConfig{Limit: 3, LimitEnabled: true, IdleTTL: time.Hour}, ledger)
	signer, err := auth.NewSigner("download-secret", time.Hour)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}

	router := gin.New()
	router.Use(middleware.Session(false), middleware.Auth(signer))
	NewHandler(gate, svc, ledger).RegisterRoutes(router.Group("/api/v1"))
	return &downloadFixture{router: router, gate: gate, ledger: ledger, signer: signer, resume: res}
}

func (f *downloadFixture) do(t *testing.T, method, path, session string, roles ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set(middleware.SessionHeader, session)
	if len(roles) > 0 {
		tok, err := f.signer.Sign("user-1", auth.Claims{Roles: roles})
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	return resp
}

func (f *downloadFixture) requestToken(t *testing.T, session string, roles ...string) (int, tokenResponse) {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/api/v1/resumes/"+f.resume.ID+"/download-token", session, roles...)
	var body tokenResponse
	if resp.Code == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode token: %v", err)
		}
	}
	return resp.Code, body
}

func TestDownloadFlowForRecruiter(t *testing.T) {
	f := newDownloadFixture(t)
	base := "/api/v1/resumes/" + f.resume.ID

	for i := 1; i <= 3; i++ {
		code, tok := f.requestToken(t, "s1", auth.RoleRecruiter)
		if code != http.StatusOK || tok.Token == "" {
			t.Fatalf("token %d: got %d", i, code)
		}
		resp := f.do(t, http.MethodGet, base+"/download?token="+tok.Token, "s1", auth.RoleRecruiter)
		if resp.Code != http.StatusOK {
			t.Fatalf("download %d: expected 200, got %d: %s", i, resp.Code, resp.Body.String())
		}
		if resp.Body.String() != payload {
			t.Fatalf("payload mismatch")
		}
		if cd := resp.Header().Get("Content-Disposition"); cd != `attachment; filename="jane roe.txt"` {
			t.Fatalf("unexpected disposition %q", cd)
		}

		replay := f.do(t, http.MethodGet, base+"/download?token="+tok.Token, "s1", auth.RoleRecruiter)
		if replay.Code != http.StatusForbidden {
			t.Fatalf("replay %d: expected 403, got %d", i, replay.Code)
		}
	}

	if code, _ := f.requestToken(t, "s1", auth.RoleRecruiter); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after budget spent, got %d", code)
	}

	resp := f.do(t, http.MethodGet, base+"/downloads", "s1")
	var rem remainingResponse
	if err := json.NewDecoder(resp.Body).Decode(&rem); err != nil {
		t.Fatalf("decode remaining: %v", err)
	}
	if rem.Remaining != 0 || rem.Limit != 3 || !rem.LimitEnabled {
		t.Fatalf("unexpected remaining %+v", rem)
	}

	resp = f.do(t, http.MethodGet, base+"/downloads/stats", "s1", auth.RoleAdmin)
	var stats statsResponse
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Downloads != 3 {
		t.Fatalf("expected 3 downloads in ledger, got %d", stats.Downloads)
	}
}

func TestDownloadAccessRules(t *testing.T) {
	f := newDownloadFixture(t)

	if code, _ := f.requestToken(t, "anon"); code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401, got %d", code)
	}
	if code, _ := f.requestToken(t, "s1", "VIEWER"); code != http.StatusForbidden {
		t.Fatalf("non-recruiter: expected 403, got %d", code)
	}

	f.gate.MarkPreview("uploader-session", f.resume.ID)
	code, tok := f.requestToken(t, "uploader-session")
	if code != http.StatusOK || !tok.Preview {
		t.Fatalf("preview session: expected preview token, got %d %+v", code, tok)
	}
	resp := f.do(t, http.MethodGet, "/api/v1/resumes/"+f.resume.ID+"/download?token="+tok.Token, "uploader-session")
	if resp.Code != http.StatusOK {
		t.Fatalf("preview download: expected 200, got %d", resp.Code)
	}

	resp = f.do(t, http.MethodGet, "/api/v1/resumes/"+f.resume.ID+"/downloads/stats", "s1", auth.RoleRecruiter)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("stats for recruiter: expected 403, got %d", resp.Code)
	}
}

func TestDownloadUnknownResume(t *testing.T) {
	f := newDownloadFixture(t)
	resp := f.do(t, http.MethodPost, "/api/v1/resumes/missing/download-token", "s1", auth.RoleRecruiter)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	resp = f.do(t, http.MethodGet, "/api/v1/resumes/missing/download?token=x", "s1", auth.RoleRecruiter)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
