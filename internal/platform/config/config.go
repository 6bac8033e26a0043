package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	strs "sacra360/pkg/platform/strings"
)

// Server captures the whole process configuration. It is built once in main
// and handed to constructors; nothing reads the environment after startup.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTTTL        time.Duration
	LogLevel      string
	CORSOrigins   []string

	Database    DatabaseConfig
	Redis       RedisConfig
	Certificate CertificateConfig
	Kafka       KafkaConfig
	Storage     StorageConfig
	DocStore    DocStoreConfig
}

type DatabaseConfig struct {
	URL           string
	MaxOpenConns  int
	MaxIdleConns  int
	RunMigrations bool
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type CertificateConfig struct {
	CacheTTL time.Duration
}

type KafkaConfig struct {
	Brokers      []string
	AuditTopic   string
	PollInterval time.Duration
	BatchSize    int
}

// Enabled reports whether the outbox worker should run.
func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

type StorageConfig struct {
	Backend        string // "local" or "s3"
	LocalPath      string
	S3Bucket       string
	S3Region       string
	UploadMaxBytes int64
}

type DocStoreConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Enabled reports whether a hosted document store is configured.
func (d DocStoreConfig) Enabled() bool { return d.URL != "" }

const devSigningKey = "dev-secret-key-change-in-production"

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var errs []string
	dur := func(key string, def time.Duration) time.Duration {
		raw := os.Getenv(key)
		if raw == "" {
			return def
		}
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			errs = append(errs, fmt.Sprintf("%s: invalid duration %q", key, raw))
			return def
		}
		return d
	}
	num := func(key string, def int) int {
		raw := os.Getenv(key)
		if raw == "" {
			return def
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			errs = append(errs, fmt.Sprintf("%s: invalid positive integer %q", key, raw))
			return def
		}
		return n
	}

	cfg := Server{
		Addr:          getenv("SACRA_ADDR", ":8080"),
		JWTSigningKey: getenv("JWT_SIGNING_KEY", devSigningKey),
		JWTTTL:        dur("JWT_TTL", 8*time.Hour),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		CORSOrigins:   strs.SplitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		Database: DatabaseConfig{
			URL:           os.Getenv("DATABASE_URL"),
			MaxOpenConns:  num("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:  num("DB_MAX_IDLE_CONNS", 5),
			RunMigrations: os.Getenv("RUN_MIGRATIONS") != "false",
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     num("REDIS_POOL_SIZE", 10),
			MinIdleConns: num("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  dur("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  dur("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: dur("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Certificate: CertificateConfig{
			CacheTTL: dur("CERTIFICATE_CACHE_TTL", 10*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:      strs.SplitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic:   getenv("KAFKA_AUDIT_TOPIC", "sacra360.audit"),
			PollInterval: dur("OUTBOX_POLL_INTERVAL", 2*time.Second),
			BatchSize:    num("OUTBOX_BATCH_SIZE", 100),
		},
		Storage: StorageConfig{
			Backend:        getenv("STORAGE_BACKEND", "local"),
			LocalPath:      getenv("STORAGE_LOCAL_PATH", "./data/documentos"),
			S3Bucket:       os.Getenv("S3_BUCKET"),
			S3Region:       getenv("S3_REGION", "us-east-1"),
			UploadMaxBytes: int64(num("UPLOAD_MAX_BYTES", 20<<20)),
		},
		DocStore: DocStoreConfig{
			URL:     strings.TrimRight(os.Getenv("DOCSTORE_URL"), "/"),
			APIKey:  os.Getenv("DOCSTORE_API_KEY"),
			Timeout: dur("DOCSTORE_TIMEOUT", 5*time.Second),
		},
	}

	if cfg.Database.URL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	switch cfg.Storage.Backend {
	case "local":
	case "s3":
		if cfg.Storage.S3Bucket == "" {
			errs = append(errs, "S3_BUCKET is required when STORAGE_BACKEND=s3")
		}
	default:
		errs = append(errs, fmt.Sprintf("STORAGE_BACKEND: unknown backend %q", cfg.Storage.Backend))
	}

	if len(errs) > 0 {
		return Server{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// UsingDevSigningKey reports whether the built-in development key is active.
func (s Server) UsingDevSigningKey() bool {
	return s.JWTSigningKey == devSigningKey
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
