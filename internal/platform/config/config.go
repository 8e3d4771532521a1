package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full BFF configuration. Every field has a development default
// so `go run ./cmd/server` works with no environment at all.
type Config struct {
	Server   Server
	Log      Log
	Backend  Backend
	Drafts   Drafts
	Redis    RedisConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig
	Limits   RateLimit
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
	// SecureCookies sets the Secure attribute on the namespace cookie.
	SecureCookies   bool
	ShutdownTimeout time.Duration
}

type Log struct {
	Level  string // debug | info | warn | error
	Format string // json | text
}

// Backend configures the client for the external onboarding API.
type Backend struct {
	BaseURL          string
	Timeout          time.Duration
	MaxAttempts      int
	BaseDelay        time.Duration
	MaxDelay         time.Duration
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// Drafts selects where browser-session drafts are persisted.
type Drafts struct {
	Store string // memory | redis | postgres
	TTL   time.Duration
	// IdleTimeout evicts per-namespace wizard state from the in-process registry.
	IdleTimeout time.Duration
	// RemoteSave mirrors unfinished drafts to the onboarding service so other
	// devices can resume them.
	RemoteSave bool
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
	Partitions int32
}

// RateLimit budgets requests per user per window. The bucket store follows
// Drafts.Store: redis shares budgets across replicas, anything else keeps
// them in process.
type RateLimit struct {
	Enabled   bool
	Window    time.Duration
	Read      int
	Write     int
	Sensitive int
}

const (
	DraftStoreMemory   = "memory"
	DraftStoreRedis    = "redis"
	DraftStorePostgres = "postgres"
)

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Config{
		Server: Server{
			Addr:            getEnv("APLITE_ADDR", ":8080"),
			JWTSigningKey:   jwtSigningKey,
			JWTIssuer:       os.Getenv("JWT_ISSUER"),
			JWTAudience:     os.Getenv("JWT_AUDIENCE"),
			SecureCookies:   getBool("SECURE_COOKIES", false),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Log: Log{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Backend: Backend{
			BaseURL:          strings.TrimRight(getEnv("ONBOARDING_API_URL", "http://localhost:8000"), "/"),
			Timeout:          getDuration("ONBOARDING_API_TIMEOUT", 15*time.Second),
			MaxAttempts:      getInt("ONBOARDING_API_MAX_ATTEMPTS", 3),
			BaseDelay:        getDuration("ONBOARDING_API_BASE_DELAY", 200*time.Millisecond),
			MaxDelay:         getDuration("ONBOARDING_API_MAX_DELAY", 5*time.Second),
			BreakerThreshold: getInt("ONBOARDING_API_BREAKER_THRESHOLD", 5),
			BreakerCooldown:  getDuration("ONBOARDING_API_BREAKER_COOLDOWN", 5*time.Second),
		},
		Drafts: Drafts{
			Store:       strings.ToLower(getEnv("DRAFT_STORE", DraftStoreMemory)),
			TTL:         getDuration("DRAFT_TTL", 24*time.Hour),
			IdleTimeout: getDuration("WIZARD_IDLE_TIMEOUT", 30*time.Minute),
			RemoteSave:  getBool("DRAFT_REMOTE_SAVE", false),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			DSN:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:    splitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: getEnv("KAFKA_AUDIT_TOPIC", "aplite.onboarding.audit"),
			Partitions: int32(getInt("KAFKA_AUDIT_PARTITIONS", 3)),
		},
		Limits: RateLimit{
			Enabled:   getBool("RATE_LIMIT_ENABLED", true),
			Window:    getDuration("RATE_LIMIT_WINDOW", time.Minute),
			Read:      getInt("RATE_LIMIT_READ", 120),
			Write:     getInt("RATE_LIMIT_WRITE", 60),
			Sensitive: getInt("RATE_LIMIT_SENSITIVE", 10),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
