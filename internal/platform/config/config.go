package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	strutil "fairlend/pkg/platform/strings"
)

// Server captures process-level configuration. Governance policy (thresholds,
// consent categories) lives in a separate YAML file; see governance.go.
type Server struct {
	Addr          string
	JWTSigningKey string

	// LedgerDSN selects the ledger backend: empty means in-memory,
	// otherwise a PostgreSQL connection string.
	LedgerDSN string

	// GovernancePath points at the governance YAML config.
	GovernancePath string

	// KafkaBrokers enables the entry announce stream when non-empty.
	KafkaBrokers []string
	KafkaTopic   string

	// RedisURL enables the fairness report cache when non-empty.
	RedisURL         string
	FairnessCacheTTL time.Duration

	// AppendRetries bounds how many times an append is retried after losing
	// a tail race before the conflict is surfaced to the caller.
	AppendRetries int
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("FAIRLEND_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	governancePath := os.Getenv("GOVERNANCE_CONFIG")
	if governancePath == "" {
		governancePath = "governance.yaml"
	}

	topic := os.Getenv("KAFKA_LEDGER_TOPIC")
	if topic == "" {
		topic = "fairlend.ledger.entries"
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = strutil.DedupeAndTrim(strings.Split(raw, ","))
	}

	retries := 3
	if raw := os.Getenv("APPEND_RETRIES"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			retries = n
		}
	}

	cacheTTL := time.Minute
	if raw := os.Getenv("FAIRNESS_CACHE_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cacheTTL = d
		}
	}

	return Server{
		Addr:             addr,
		JWTSigningKey:    jwtSigningKey,
		LedgerDSN:        os.Getenv("LEDGER_DSN"),
		GovernancePath:   governancePath,
		KafkaBrokers:     brokers,
		KafkaTopic:       topic,
		RedisURL:         os.Getenv("REDIS_URL"),
		FairnessCacheTTL: cacheTTL,
		AppendRetries:    retries,
	}
}
