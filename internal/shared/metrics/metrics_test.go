package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHandlerExposesPortalMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := NewRegistry()

	before := testutil.ToFloat64(Downloads.WithLabelValues("allowed"))
	IncDownload("allowed")
	ObserveSearch("targeted", time.Now())
	if got := testutil.ToFloat64(Downloads.WithLabelValues("allowed")); got != before+1 {
		t.Fatalf("expected downloads counter to increase by one, got %v -> %v", before, got)
	}

	r := gin.New()
	r.GET("/metrics", Handler(reg))
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body := resp.Body.String()
	for _, name := range []string{
		"resume_portal_downloads_total",
		"resume_portal_resume_searches_total",
		"go_goroutines",
	} {
		if !strings.Contains(body, name) {
			t.Fatalf("expected %s in output", name)
		}
	}
}
