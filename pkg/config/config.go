package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultJWTSecret = "supersecretjwtkey"

	DocumentStoreFirestore = "firestore"
	DocumentStoreMongo     = "mongo"

	BlobStoreFirebase = "firebase"
	BlobStoreMinio    = "minio"
)

type Config struct {
	Port                    string
	Env                     string
	MetricsPort             string
	FirebaseCredentialsPath string
	FirebaseProjectID       string
	StorageBucket           string
	PostgresUrl             string
	DocumentStore           string
	MongoURI                string
	MongoDatabase           string
	RedisURL                string
	JWTSecret               string
	SessionTTL              time.Duration
	InstitutionDomain       string
	AdminEmails             []string
	Batches                 []string
	MaxImageSize            int64
	PostsPerPage            int
	BlobStore               string
	MinioEndpoint           string
	MinioAccessKey          string
	MinioSecretKey          string
	MinioBucket             string
	MinioUseSSL             bool
	MinioPublicURL          string
	AllowedOrigins          []string
	ReconcileInterval       time.Duration
	ReportGracePeriod       time.Duration
}

// Load reads configuration from the environment, after loading .env if present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		MetricsPort:             getEnv("METRICS_PORT", "9090"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./firebase_credentials.json"),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		StorageBucket:           getEnv("FIREBASE_STORAGE_BUCKET", ""),
		PostgresUrl:             getEnv("POSTGRES_CONN_STR", ""),
		DocumentStore:           strings.ToLower(getEnv("DOCUMENT_STORE", DocumentStoreFirestore)),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "campus_p2p"),
		RedisURL:                getEnv("REDIS_URL", ""),
		JWTSecret:               getEnv("JWT_SECRET", defaultJWTSecret),
		SessionTTL:              getEnvDuration("SESSION_TTL", 72*time.Hour),
		InstitutionDomain:       strings.ToLower(getEnv("INSTITUTION_DOMAIN", "ritchennai.edu.in")),
		AdminEmails:             getEnvList("ADMIN_EMAILS", nil),
		Batches:                 getEnvList("BATCHES", []string{"22-26", "23-27", "24-28", "25-29"}),
		MaxImageSize:            int64(getEnvInt("MAX_IMAGE_SIZE", 5*1024*1024)),
		PostsPerPage:            getEnvInt("POSTS_PER_PAGE", 20),
		BlobStore:               strings.ToLower(getEnv("BLOB_STORE", BlobStoreFirebase)),
		MinioEndpoint:           getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey:          getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:          getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:             getEnv("MINIO_BUCKET", "campus-p2p"),
		MinioUseSSL:             getEnvBool("MINIO_USE_SSL", false),
		MinioPublicURL:          getEnv("MINIO_PUBLIC_URL", ""),
		AllowedOrigins:          getEnvList("ALLOWED_ORIGINS", []string{"*"}),
		ReconcileInterval:       getEnvDuration("RECONCILE_INTERVAL", 10*time.Minute),
		ReportGracePeriod:       getEnvDuration("REPORT_GRACE_PERIOD", 5*time.Minute),
	}
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.PostgresUrl == "" {
		return fmt.Errorf("POSTGRES_CONN_STR environment variable not set")
	}
	switch c.DocumentStore {
	case DocumentStoreFirestore:
	case DocumentStoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when DOCUMENT_STORE=mongo")
		}
	default:
		return fmt.Errorf("unknown DOCUMENT_STORE %q", c.DocumentStore)
	}
	switch c.BlobStore {
	case BlobStoreFirebase:
		if c.StorageBucket == "" {
			return fmt.Errorf("FIREBASE_STORAGE_BUCKET is required when BLOB_STORE=firebase")
		}
	case BlobStoreMinio:
		if c.MinioAccessKey == "" || c.MinioSecretKey == "" {
			return fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when BLOB_STORE=minio")
		}
	default:
		return fmt.Errorf("unknown BLOB_STORE %q", c.BlobStore)
	}
	if c.InstitutionDomain == "" {
		return fmt.Errorf("INSTITUTION_DOMAIN must not be empty")
	}
	if c.IsProduction() && c.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.MaxImageSize <= 0 || c.PostsPerPage <= 0 {
		return fmt.Errorf("MAX_IMAGE_SIZE and POSTS_PER_PAGE must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// FeedWindow is how many recent posts the feed and console load.
func (c *Config) FeedWindow() int {
	return c.PostsPerPage * 5
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
