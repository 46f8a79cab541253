package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"resume-portal/internal/services/health"
	"resume-portal/internal/shared/config"
	"resume-portal/internal/shared/metrics"
	"resume-portal/internal/shared/server/middleware"
	"resume-portal/internal/shared/server/respond"
)

// RouteRegistrar attaches a feature's routes to the API group.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RouterDeps carries what NewRouter needs beyond the config.
type RouterDeps struct {
	Config   config.Config
	Verifier middleware.TokenVerifier
	// Redis backs the shared rate limiter; nil keeps limits in process.
	Redis    *redis.Client
	Gatherer prometheus.Gatherer
	Health   *health.Service
	Routes   []RouteRegistrar
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.MaxMultipartMemory = 8 << 20

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.Session(cfg.Env == "production"),
		middleware.Auth(deps.Verifier),
	)
	if cfg.RateLimitRPS > 0 {
		r.Use(middleware.RedisRateLimit(middleware.RedisRateLimitConfig{
			Client: deps.Redis,
			Rule:   middleware.RateLimitRule{Rate: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst},
			Window: time.Minute,
			Prefix: "portal:rl",
		}))
	}

	if deps.Gatherer != nil {
		r.GET("/metrics", metrics.Handler(deps.Gatherer))
	}

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	if deps.Health != nil {
		api.GET("/ready", readyHandler(deps.Health))
	}
	registerMeRoutes(api)
	for _, reg := range deps.Routes {
		if reg != nil {
			reg.RegisterRoutes(api)
		}
	}

	return r
}

func readyHandler(svc *health.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks, ready := svc.Status(c.Request.Context())
		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, gin.H{"ready": ready, "checks": checks})
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
