package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	id "tokenvault/pkg/domain"
)

// Server captures the process-level configuration.
type Server struct {
	Addr           string
	LogLevel       string
	JWTSigningKey  string
	JWTIssuer      string
	JWTAudience    string
	TokenTTL       time.Duration
	AdminTokenHash string
	Postgres       PostgresConfig
	Redis          RedisConfig
	Kafka          KafkaConfig
	Vault          VaultConfig
}

// PostgresConfig selects the PostgreSQL backends. An empty URL keeps every
// store in memory.
type PostgresConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig enables the distributed vault lock when URL is set.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig enables publishing of the audit outbox when Brokers is set.
type KafkaConfig struct {
	Brokers      []string
	AuditTopic   string
	Partitions   int32
	PollInterval time.Duration
	BatchSize    int
}

// VaultConfig holds the core's own settings.
type VaultConfig struct {
	ProgramID id.Address
	TxTimeout time.Duration
}

// devProgramID is the program identity used when VAULT_PROGRAM_ID is unset.
var devProgramID = id.Address{
	0x74, 0x6f, 0x6b, 0x65, 0x6e, 0x76, 0x61, 0x75, 0x6c, 0x74, 0x2d, 0x64, 0x65, 0x76, 0x2d, 0x70,
	0x72, 0x6f, 0x67, 0x72, 0x61, 0x6d, 0x2d, 0x69, 0x64, 0x2d, 0x30, 0x30, 0x30, 0x30, 0x30, 0x31,
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Server, error) {
	env := envReader{lookup: lookup}

	cfg := Server{
		Addr:     env.str("VAULT_ADDR", ":8080"),
		LogLevel: env.str("LOG_LEVEL", "info"),
		// Use a default for development - should be overridden in production
		JWTSigningKey:  env.str("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:      env.str("JWT_ISSUER", "tokenvault"),
		JWTAudience:    env.str("JWT_AUDIENCE", "tokenvault-api"),
		TokenTTL:       env.duration("TOKEN_TTL", time.Hour),
		AdminTokenHash: env.str("ADMIN_TOKEN_HASH", ""),
		Postgres: PostgresConfig{
			URL:             env.str("DATABASE_URL", ""),
			MaxOpenConns:    env.integer("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    env.integer("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: env.duration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          env.str("REDIS_URL", ""),
			PoolSize:     env.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: env.integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  env.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  env.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: env.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:      env.list("KAFKA_BROKERS"),
			AuditTopic:   env.str("KAFKA_AUDIT_TOPIC", "tokenvault.audit"),
			Partitions:   int32(env.integer("KAFKA_AUDIT_PARTITIONS", 3)),
			PollInterval: env.duration("OUTBOX_POLL_INTERVAL", time.Second),
			BatchSize:    env.integer("OUTBOX_BATCH_SIZE", 100),
		},
		Vault: VaultConfig{
			ProgramID: devProgramID,
			TxTimeout: env.duration("VAULT_TX_TIMEOUT", 5*time.Second),
		},
	}
	if raw := env.str("VAULT_PROGRAM_ID", ""); raw != "" {
		programID, err := id.ParseAddress(raw)
		if err != nil {
			return Server{}, fmt.Errorf("VAULT_PROGRAM_ID: %w", err)
		}
		cfg.Vault.ProgramID = programID
	}
	if env.err != nil {
		return Server{}, env.err
	}
	return cfg, nil
}

// envReader reads typed values and keeps the first parse error.
type envReader struct {
	lookup func(string) (string, bool)
	err    error
}

func (e *envReader) str(key, def string) string {
	if v, ok := e.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (e *envReader) integer(key string, def int) int {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		e.fail(fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		e.fail(fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func (e *envReader) list(key string) []string {
	raw := e.str(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (e *envReader) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}
