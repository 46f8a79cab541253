package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const devJWTSecret = "dev-only-secret"

// Config holds application configuration.
type Config struct {
	Env             string
	Port            string
	CORSAllowOrigin []string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string
	MinioEndpoint   string
	MinioAccessKey  string
	MinioSecretKey  string
	MinioBucket     string
	MinioUseSSL     bool

	MongoURI      string
	MongoDatabase string
	MongoTimeout  time.Duration
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string

	// zero keeps the pool defaults of the calling binary
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration
	DBPingTimeout     time.Duration

	DownloadLimit        int
	DownloadLimitEnabled bool
	DownloadSessionTTL   time.Duration
	RetentionDays        int
	RetentionCron        string
	MaxUploadBytes       int64

	JWTSecret             string
	JWTTTL                time.Duration
	AuthAccounts          string
	RecruiterEmailDomains []string
	GoogleClientID        string
	GoogleClientSecret    string
	GoogleRedirectURL     string
	UIRedirectURL         string

	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads configuration from the environment, after a best-effort load of
// local .env files, applying defaults for everything optional.
func Load() Config {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("cmd/.env")
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("CORS_ALLOW_ORIGINS", "http://localhost:5173")
	v.SetDefault("OBJECT_STORE", "local")
	v.SetDefault("LOCAL_STORE_DIR", "./data")
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("MONGODB_DATABASE", "resume_portal")
	v.SetDefault("MONGODB_TIMEOUT", "10s")
	v.SetDefault("DOWNLOAD_LIMIT", 3)
	v.SetDefault("DOWNLOAD_LIMIT_ENABLED", true)
	v.SetDefault("DOWNLOAD_SESSION_TTL", "24h")
	v.SetDefault("RETENTION_DAYS", 180)
	v.SetDefault("RETENTION_CRON", "0 2 * * *")
	v.SetDefault("MAX_UPLOAD_BYTES", int64(100<<20))
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("RATE_LIMIT_RPS", 10.0)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) Config {
	env := normalizeEnv(v.GetString("ENV"))
	secret := strings.TrimSpace(v.GetString("JWT_SECRET"))
	if secret == "" && env != "production" {
		secret = devJWTSecret
	}

	return Config{
		Env:             env,
		Port:            v.GetString("PORT"),
		CORSAllowOrigin: splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),

		ObjectStoreType: normalizeStoreType(v.GetString("OBJECT_STORE")),
		LocalStoreDir:   v.GetString("LOCAL_STORE_DIR"),
		AWSRegion:       v.GetString("AWS_REGION"),
		S3Bucket:        v.GetString("S3_BUCKET"),
		S3Prefix:        v.GetString("S3_PREFIX"),
		SSEKMSKeyID:     v.GetString("SSE_KMS_KEY_ID"),
		MinioEndpoint:   v.GetString("MINIO_ENDPOINT"),
		MinioAccessKey:  v.GetString("MINIO_ACCESS_KEY"),
		MinioSecretKey:  v.GetString("MINIO_SECRET_KEY"),
		MinioBucket:     v.GetString("MINIO_BUCKET"),
		MinioUseSSL:     v.GetBool("MINIO_USE_SSL"),

		MongoURI:      v.GetString("MONGODB_URI"),
		MongoDatabase: v.GetString("MONGODB_DATABASE"),
		MongoTimeout:  v.GetDuration("MONGODB_TIMEOUT"),
		DatabaseURL:   v.GetString("DATABASE_URL"),
		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),

		DBMaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
		DBMaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
		DBConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		DBConnMaxIdleTime: v.GetDuration("DB_CONN_MAX_IDLE_TIME"),
		DBPingTimeout:     v.GetDuration("DB_PING_TIMEOUT"),

		DownloadLimit:        v.GetInt("DOWNLOAD_LIMIT"),
		DownloadLimitEnabled: v.GetBool("DOWNLOAD_LIMIT_ENABLED"),
		DownloadSessionTTL:   v.GetDuration("DOWNLOAD_SESSION_TTL"),
		RetentionDays:        v.GetInt("RETENTION_DAYS"),
		RetentionCron:        v.GetString("RETENTION_CRON"),
		MaxUploadBytes:       v.GetInt64("MAX_UPLOAD_BYTES"),

		JWTSecret:             secret,
		JWTTTL:                v.GetDuration("JWT_TTL"),
		AuthAccounts:          v.GetString("AUTH_ACCOUNTS"),
		RecruiterEmailDomains: splitAndTrim(strings.ToLower(v.GetString("RECRUITER_EMAIL_DOMAINS"))),
		GoogleClientID:        v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:    v.GetString("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:     v.GetString("GOOGLE_REDIRECT_URL"),
		UIRedirectURL:         v.GetString("UI_REDIRECT_URL"),

		RateLimitRPS:   v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst: v.GetInt("RATE_LIMIT_BURST"),
	}
}

// Validate reports settings that would make the server unsafe or unable to
// start.
func (c Config) Validate() error {
	var errs []error
	if c.Env == "production" {
		if c.JWTSecret == "" {
			errs = append(errs, errors.New("JWT_SECRET is required in production"))
		}
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGODB_URI is required in production"))
		}
	}
	switch c.ObjectStoreType {
	case "s3":
		if c.S3Bucket == "" || c.AWSRegion == "" {
			errs = append(errs, errors.New("S3_BUCKET and AWS_REGION are required for OBJECT_STORE=s3"))
		}
	case "minio":
		if c.MinioEndpoint == "" || c.MinioBucket == "" {
			errs = append(errs, errors.New("MINIO_ENDPOINT and MINIO_BUCKET are required for OBJECT_STORE=minio"))
		}
	}
	if c.RetentionDays <= 0 {
		errs = append(errs, fmt.Errorf("RETENTION_DAYS must be positive, got %d", c.RetentionDays))
	}
	if c.DownloadLimit <= 0 {
		errs = append(errs, fmt.Errorf("DOWNLOAD_LIMIT must be positive, got %d", c.DownloadLimit))
	}
	return errors.Join(errs...)
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "minio":
		return "minio"
	default:
		return "local"
	}
}
