package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	googleauth "resume-portal/internal/auth"
	"resume-portal/internal/convert"
	"resume-portal/internal/downloads"
	"resume-portal/internal/resumes"
	"resume-portal/internal/retention"
	"resume-portal/internal/services/health"
	"resume-portal/internal/shared/auth"
	"resume-portal/internal/shared/config"
	"resume-portal/internal/shared/metrics"
	"resume-portal/internal/shared/server"
	"resume-portal/internal/shared/storage/db"
	mongostore "resume-portal/internal/shared/storage/mongo"
	"resume-portal/internal/shared/storage/object"
	localstore "resume-portal/internal/shared/storage/object/local"
	"resume-portal/internal/shared/storage/object/miniostore"
	s3store "resume-portal/internal/shared/storage/object/s3"
	"resume-portal/internal/users"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config   config.Config
	Router   *gin.Engine
	DB       *sql.DB
	Mongo    *mongo.Client
	Redis    *redis.Client
	Store    object.ObjectStore
	Registry *prometheus.Registry
	Health   *health.Service

	ResumesRepo     resumes.Repo
	ResumesService  *resumes.Service
	Ledger          downloads.Ledger
	Gate            *downloads.Gate
	UsersService    *users.Service
	Signer          *auth.Signer
	Scheduler       *retention.Scheduler
	ResumesHandler  *resumes.Handler
	DownloadHandler *downloads.Handler
	UsersHandler    *users.Handler
	GoogleAuth      *googleauth.GoogleService
}

// Build connects every configured backend, falling back to in-memory
// implementations in dev-like environments, and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	app := &App{Config: cfg}
	var err error
	if app.DB, err = buildDB(ctx, cfg); err != nil {
		return nil, err
	}
	if app.Mongo, err = buildMongo(ctx, cfg); err != nil {
		app.Close(ctx)
		return nil, err
	}
	if app.Redis, err = buildRedis(ctx, cfg); err != nil {
		app.Close(ctx)
		return nil, err
	}
	if app.Store, err = buildStore(ctx, cfg); err != nil {
		app.Close(ctx)
		return nil, err
	}
	if err := buildServices(ctx, app); err != nil {
		app.Close(ctx)
		return nil, err
	}

	app.Registry = metrics.NewRegistry()
	app.Health = buildHealth(app)
	app.Router = server.NewRouter(server.RouterDeps{
		Config:   app.Config,
		Verifier: app.Signer,
		Redis:    app.Redis,
		Gatherer: app.Registry,
		Health:   app.Health,
		Routes: []server.RouteRegistrar{
			app.UsersHandler,
			app.GoogleAuth,
			app.ResumesHandler,
			app.DownloadHandler,
		},
	})

	return app, nil
}

// Close releases backend connections. It is safe on a partially built App.
func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	if a.Mongo != nil {
		if err := a.Mongo.Disconnect(ctx); err != nil {
			log.Printf("bootstrap: mongo disconnect: %v", err)
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		_ = a.DB.Close()
	}
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; download ledger kept in memory")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.DefaultServerOptions().Override(PoolOptions(cfg))
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err == nil {
		if err = db.RunMigrations(ctx, sqlDB); err != nil {
			sqlDB.Close()
			err = fmt.Errorf("run migrations: %w", err)
		}
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database unavailable; download ledger kept in memory: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

// PoolOptions maps the DB_* settings onto ledger pool options.
func PoolOptions(cfg config.Config) db.Options {
	return db.Options{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		PingTimeout:     cfg.DBPingTimeout,
	}
}

func buildMongo(ctx context.Context, cfg config.Config) (*mongo.Client, error) {
	if strings.TrimSpace(cfg.MongoURI) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: MONGODB_URI empty; using in-memory resume repository")
			return nil, nil
		}
		return nil, fmt.Errorf("MONGODB_URI is required")
	}
	client, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoTimeout)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: mongo unavailable; using in-memory resume repository: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return client, nil
}

func buildRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: redis unavailable; rate limits kept in process: %v", err)
			return nil, nil
		}
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "minio":
		return miniostore.New(ctx, miniostore.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildServices(ctx context.Context, app *App) error {
	cfg := app.Config

	var resumeRepo resumes.Repo = resumes.NewMemoryRepo()
	if app.Mongo != nil {
		col := mongostore.Database(app.Mongo, cfg.MongoDatabase).Collection(mongostore.ResumesCollection)
		repo, err := resumes.NewMongoRepo(ctx, col)
		if err != nil {
			return err
		}
		resumeRepo = repo
	}

	var ledger downloads.Ledger = downloads.NewMemoryLedger()
	var userRepo users.Repo = users.NewMemoryRepo()
	if app.DB != nil {
		ledger = &downloads.PGLedger{DB: app.DB}
		userRepo = &users.PGRepo{DB: app.DB}
	}

	signer, err := buildSigner(cfg)
	if err != nil {
		return err
	}
	accounts, err := buildAccounts(cfg)
	if err != nil {
		return err
	}

	resumeSvc := resumes.NewService(resumeRepo, app.Store, convert.New(cfg.MaxUploadBytes))
	gate := downloads.NewGate(downloads.GateConfig{
		Limit:        cfg.DownloadLimit,
		LimitEnabled: cfg.DownloadLimitEnabled,
		IdleTTL:      cfg.DownloadSessionTTL,
	}, ledger)
	userSvc := users.NewService(userRepo, accounts)

	scheduler, err := retention.NewScheduler(retention.Config{
		Spec: cfg.RetentionCron,
		Days: cfg.RetentionDays,
	}, resumeSvc, gate)
	if err != nil {
		return err
	}

	app.ResumesRepo = resumeRepo
	app.ResumesService = resumeSvc
	app.Ledger = ledger
	app.Gate = gate
	app.UsersService = userSvc
	app.Signer = signer
	app.Scheduler = scheduler
	app.ResumesHandler = resumes.NewHandler(resumeSvc, gate, cfg.MaxUploadBytes)
	app.DownloadHandler = downloads.NewHandler(gate, resumeSvc, ledger)
	app.UsersHandler = users.NewHandler(userSvc, signer, gate)
	app.GoogleAuth = googleauth.NewGoogleService(googleauth.GoogleConfig{
		ClientID:         cfg.GoogleClientID,
		ClientSecret:     cfg.GoogleClientSecret,
		RedirectURL:      cfg.GoogleRedirectURL,
		UIRedirect:       cfg.UIRedirectURL,
		RecruiterDomains: cfg.RecruiterEmailDomains,
	}, signer, userSvc)

	if app.ResumesHandler == nil || app.DownloadHandler == nil || app.UsersHandler == nil {
		return errors.New("failed to initialize handlers")
	}
	return nil
}

func buildHealth(app *App) *health.Service {
	svc := health.NewService()
	if app.Mongo != nil {
		svc.Register("mongo", func(ctx context.Context) error { return app.Mongo.Ping(ctx, nil) })
	}
	if app.DB != nil {
		svc.Register("postgres", app.DB.PingContext)
	}
	if app.Redis != nil {
		svc.Register("redis", func(ctx context.Context) error { return app.Redis.Ping(ctx).Err() })
	}
	return svc
}

func buildSigner(cfg config.Config) (*auth.Signer, error) {
	secret := cfg.JWTSecret
	if strings.TrimSpace(secret) == "" && isDevLike(cfg.Env) {
		log.Printf("bootstrap: JWT_SECRET empty; tokens will not survive a restart")
		secret = uuid.NewString()
	}
	signer, err := auth.NewSigner(secret, cfg.JWTTTL)
	if err != nil {
		return nil, fmt.Errorf("jwt signer: %w", err)
	}
	return signer, nil
}

func buildAccounts(cfg config.Config) ([]users.Account, error) {
	accounts, err := users.ParseAccounts(cfg.AuthAccounts)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 && isDevLike(cfg.Env) {
		log.Printf("bootstrap: AUTH_ACCOUNTS empty; using dev accounts recruiter/recruiter and admin/admin")
		return users.DevAccounts()
	}
	return accounts, nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
