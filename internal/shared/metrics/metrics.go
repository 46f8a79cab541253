package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "resume_portal"

var (
	ResumesUploaded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "resumes_uploaded_total", Help: "Resumes stored by upload.",
	})
	ResumeSearches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "resume_searches_total", Help: "Searches by mode (all, targeted, invalid, error).",
	}, []string{"mode"})
	SearchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Name: "resume_search_duration_seconds", Help: "Search latency.",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	})
	MaskedViews = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "masked_views_total", Help: "Resume views served with PII masked.",
	})
	Downloads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "downloads_total", Help: "Download gate outcomes.",
	}, []string{"result"})
	RetentionDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "retention_deleted_total", Help: "Resumes removed by the retention sweep.",
	})
	RateLimitAllowed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Allowed requests by limiter type.",
	}, []string{"limiter"})
	RateLimitRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Rejected requests by limiter type.",
	}, []string{"limiter"})
	HTTPRequests = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP latency by route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// RegisterCollectors registers the portal collectors plus the Go runtime and
// process collectors on reg.
func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(
		ResumesUploaded,
		ResumeSearches,
		SearchDuration,
		MaskedViews,
		Downloads,
		RetentionDeleted,
		RateLimitAllowed,
		RateLimitRejected,
		HTTPRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// NewRegistry returns a registry with every collector registered.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	RegisterCollectors(reg)
	return reg
}

// Handler exposes metrics in Prometheus text format.
func Handler(g prometheus.Gatherer) gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}

// ObserveSearch records one search and its latency.
func ObserveSearch(mode string, started time.Time) {
	ResumeSearches.WithLabelValues(mode).Inc()
	SearchDuration.Observe(time.Since(started).Seconds())
}

// IncDownload counts one gate outcome.
func IncDownload(result string) {
	Downloads.WithLabelValues(result).Inc()
}
