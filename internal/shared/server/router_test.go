package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"resume-portal/internal/services/health"
	"resume-portal/internal/shared/auth"
	"resume-portal/internal/shared/config"
	"resume-portal/internal/shared/metrics"
	"resume-portal/internal/shared/server/middleware"
)

type pingRoutes struct{}

func (pingRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
}

func newTestRouter(t *testing.T, cfg config.Config) (*gin.Engine, *auth.Signer) {
	t.Helper()
	signer, err := auth.NewSigner("router-secret", time.Hour)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	return NewRouter(RouterDeps{
		Config:   cfg,
		Verifier: signer,
		Gatherer: metrics.NewRegistry(),
		Routes:   []RouteRegistrar{pingRoutes{}},
	}), signer
}

func TestHealthAndRegisteredRoutes(t *testing.T) {
	r, _ := newTestRouter(t, config.Config{})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"ok":true`) {
		t.Fatalf("unexpected health response %d %s", resp.Code, resp.Body.String())
	}
	if resp.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
	if resp.Header().Get(middleware.SessionHeader) == "" {
		t.Fatalf("expected session header")
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
	if resp.Body.String() != "pong" {
		t.Fatalf("expected pong, got %q", resp.Body.String())
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "resume_portal_") {
		t.Fatalf("expected portal metrics, got %d", resp.Code)
	}
}

func TestMeReturnsClaims(t *testing.T) {
	r, signer := newTestRouter(t, config.Config{})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}

	tok, err := signer.Sign("local:admin", auth.Claims{Name: "admin", Roles: []string{auth.RoleAdmin}})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body struct {
		UserID      string   `json:"userId"`
		Name        string   `json:"name"`
		Roles       []string `json:"roles"`
		CanDownload bool     `json:"canDownload"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.UserID != "local:admin" || body.Name != "admin" || len(body.Roles) != 1 || !body.CanDownload {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestRateLimitAppliedWhenConfigured(t *testing.T) {
	r, _ := newTestRouter(t, config.Config{RateLimitRPS: 0.001, RateLimitBurst: 1})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
		req.Header.Set(middleware.SessionHeader, "same-session")
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		codes = append(codes, resp.Code)
	}
	if codes[0] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}
}

func TestAddr(t *testing.T) {
	cases := map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000"}
	for in, want := range cases {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestReadyReflectsChecks(t *testing.T) {
	svc := health.NewService()
	svc.Register("mongo", func(context.Context) error { return errors.New("no primary") })
	r := NewRouter(RouterDeps{Health: svc})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "no primary") {
		t.Fatalf("expected check detail, got %s", resp.Body.String())
	}
}
